package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
)

// Decoder turns raw update envelopes into Events. Decoding is total: a
// malformed envelope, an unrecognized type tag, or a missing required field
// all degrade to Unknown with a logged warning instead of an error.
type Decoder struct {
	log *slog.Logger
}

// NewDecoder creates a decoder. A nil logger falls back to slog.Default().
func NewDecoder(log *slog.Logger) *Decoder {
	if log == nil {
		log = slog.Default()
	}
	return &Decoder{log: log.With("component", "decoder")}
}

type extractor func(raw []byte) (Event, error)

var extractors = map[string]extractor{
	"updateAuthorizationState": decodeAuthorizationState,
	"updateNewMessage":         decodeNewMessage,
	"updateMessageContent":     decodeMessageContent,
	"updateUser":               decodeUser,
	"updateFile":               decodeFile,
	"updateNewChat":            decodeNewChat,
}

// Decode parses one raw envelope into an Event. It never fails the caller.
func (d *Decoder) Decode(raw []byte) Event {
	var env struct {
		Type string `json:"@type"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		d.log.Warn("malformed update envelope", "error", err)
		return Unknown{TypeTag: "parse-error", Raw: raw}
	}

	ex, ok := extractors[env.Type]
	if !ok {
		return Unknown{TypeTag: env.Type, Raw: raw}
	}

	evt, err := ex(raw)
	if err != nil {
		d.log.Warn("failed to extract update fields", "type", env.Type, "error", err)
		return Unknown{TypeTag: env.Type, Raw: raw}
	}
	return evt
}

var (
	errMissingField       = errors.New("missing required field")
	errUnsupportedContent = errors.New("unsupported message content")
)

// --- wire structures ---

type wireLocalFile struct {
	Path                   string `json:"path"`
	IsDownloadingActive    bool   `json:"is_downloading_active"`
	IsDownloadingCompleted bool   `json:"is_downloading_completed"`
}

type wireRemoteFile struct {
	URL string `json:"url"`
}

type wireFile struct {
	ID     *int32         `json:"id"`
	Size   int64          `json:"size"`
	Local  wireLocalFile  `json:"local"`
	Remote wireRemoteFile `json:"remote"`
}

type wireFormattedText struct {
	Text string `json:"text"`
}

type wirePhotoSize struct {
	Width  int32    `json:"width"`
	Height int32    `json:"height"`
	Photo  wireFile `json:"photo"`
}

type wirePhoto struct {
	Sizes []wirePhotoSize `json:"sizes"`
}

type wireDocument struct {
	FileName string   `json:"file_name"`
	MimeType string   `json:"mime_type"`
	Document wireFile `json:"document"`
}

type wireVideo struct {
	Duration int32    `json:"duration"`
	Width    int32    `json:"width"`
	Height   int32    `json:"height"`
	FileName string   `json:"file_name"`
	MimeType string   `json:"mime_type"`
	Video    wireFile `json:"video"`
}

type wireAudio struct {
	Duration int32    `json:"duration"`
	FileName string   `json:"file_name"`
	MimeType string   `json:"mime_type"`
	Audio    wireFile `json:"audio"`
}

type wireVoiceNote struct {
	Duration int32    `json:"duration"`
	MimeType string   `json:"mime_type"`
	Voice    wireFile `json:"voice"`
}

type wireVideoNote struct {
	Duration int32    `json:"duration"`
	Length   int32    `json:"length"`
	Video    wireFile `json:"video"`
}

type wireSticker struct {
	Width   int32    `json:"width"`
	Height  int32    `json:"height"`
	Emoji   string   `json:"emoji"`
	Sticker wireFile `json:"sticker"`
}

type wireAnimation struct {
	Duration  int32    `json:"duration"`
	Width     int32    `json:"width"`
	Height    int32    `json:"height"`
	FileName  string   `json:"file_name"`
	MimeType  string   `json:"mime_type"`
	Animation wireFile `json:"animation"`
}

type wireContent struct {
	Type      string             `json:"@type"`
	Text      *wireFormattedText `json:"text"`
	Caption   wireFormattedText  `json:"caption"`
	Photo     *wirePhoto         `json:"photo"`
	Document  *wireDocument      `json:"document"`
	Video     *wireVideo         `json:"video"`
	Audio     *wireAudio         `json:"audio"`
	VoiceNote *wireVoiceNote     `json:"voice_note"`
	VideoNote *wireVideoNote     `json:"video_note"`
	Sticker   *wireSticker       `json:"sticker"`
	Animation *wireAnimation     `json:"animation"`
}

type wireSender struct {
	Type   string `json:"@type"`
	UserID int64  `json:"user_id"`
	ChatID int64  `json:"chat_id"`
}

// --- extractors ---

func decodeNewMessage(raw []byte) (Event, error) {
	var env struct {
		Message *struct {
			ID         *int64       `json:"id"`
			ChatID     *int64       `json:"chat_id"`
			SenderID   wireSender   `json:"sender_id"`
			Date       int64        `json:"date"`
			IsOutgoing bool         `json:"is_outgoing"`
			IsPinned   bool         `json:"is_pinned"`
			Content    *wireContent `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	msg := env.Message
	if msg == nil {
		return nil, fmt.Errorf("%w: message", errMissingField)
	}
	if msg.ID == nil || msg.ChatID == nil {
		return nil, fmt.Errorf("%w: message.id or message.chat_id", errMissingField)
	}
	if msg.Content == nil {
		return nil, fmt.Errorf("%w: message.content", errMissingField)
	}

	content, err := buildContent(msg.Content)
	if err != nil {
		return nil, err
	}

	senderID := msg.SenderID.UserID
	if msg.SenderID.Type == "messageSenderChat" {
		senderID = msg.SenderID.ChatID
	}

	return NewMessage{
		ChatID:     *msg.ChatID,
		MessageID:  *msg.ID,
		SenderID:   senderID,
		Timestamp:  time.Unix(msg.Date, 0),
		Content:    content,
		IsOutgoing: msg.IsOutgoing,
		IsPinned:   msg.IsPinned,
	}, nil
}

func decodeMessageContent(raw []byte) (Event, error) {
	var env struct {
		ChatID     *int64       `json:"chat_id"`
		MessageID  *int64       `json:"message_id"`
		EditDate   int64        `json:"edit_date"`
		NewContent *wireContent `json:"new_content"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	if env.ChatID == nil || env.MessageID == nil {
		return nil, fmt.Errorf("%w: chat_id or message_id", errMissingField)
	}
	if env.NewContent == nil {
		return nil, fmt.Errorf("%w: new_content", errMissingField)
	}

	content, err := buildContent(env.NewContent)
	if err != nil {
		return nil, err
	}

	return EditedMessage{
		ChatID:        *env.ChatID,
		MessageID:     *env.MessageID,
		EditTimestamp: time.Unix(env.EditDate, 0),
		Content:       content,
	}, nil
}

func decodeUser(raw []byte) (Event, error) {
	var env struct {
		User *struct {
			ID           *int64 `json:"id"`
			FirstName    string `json:"first_name"`
			LastName     string `json:"last_name"`
			Username     string `json:"username"`
			ProfilePhoto *struct {
				Small wireFile `json:"small"`
			} `json:"profile_photo"`
		} `json:"user"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	if env.User == nil || env.User.ID == nil {
		return nil, fmt.Errorf("%w: user.id", errMissingField)
	}

	avatar := ""
	if env.User.ProfilePhoto != nil {
		avatar = env.User.ProfilePhoto.Small.Remote.URL
	}

	return UserUpdate{
		UserID:    *env.User.ID,
		FirstName: env.User.FirstName,
		LastName:  env.User.LastName,
		Username:  env.User.Username,
		AvatarURL: avatar,
	}, nil
}

func decodeFile(raw []byte) (Event, error) {
	var env struct {
		File *wireFile `json:"file"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	if env.File == nil || env.File.ID == nil {
		return nil, fmt.Errorf("%w: file.id", errMissingField)
	}

	state := DownloadPending
	switch {
	case env.File.Local.IsDownloadingCompleted:
		state = DownloadCompleted
	case env.File.Local.IsDownloadingActive:
		state = DownloadActive
	}

	return FileUpdate{
		FileID:    *env.File.ID,
		Size:      env.File.Size,
		LocalPath: env.File.Local.Path,
		State:     state,
	}, nil
}

func decodeNewChat(raw []byte) (Event, error) {
	var env struct {
		Chat *struct {
			ID    *int64 `json:"id"`
			Title string `json:"title"`
			Type  struct {
				Type string `json:"@type"`
			} `json:"type"`
			MemberCount int32 `json:"member_count"`
		} `json:"chat"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	if env.Chat == nil || env.Chat.ID == nil {
		return nil, fmt.Errorf("%w: chat.id", errMissingField)
	}

	return NewChat{
		ChatID:      *env.Chat.ID,
		Title:       env.Chat.Title,
		ChatType:    chatTypeName(env.Chat.Type.Type),
		MemberCount: env.Chat.MemberCount,
	}, nil
}

func decodeAuthorizationState(raw []byte) (Event, error) {
	var env struct {
		AuthorizationState *struct {
			Type     string `json:"@type"`
			CodeInfo *struct {
				PhoneNumber string `json:"phone_number"`
				Type        struct {
					Type string `json:"@type"`
					// Nominally 64-bit on the wire; narrowed below.
					Length int64 `json:"length"`
				} `json:"type"`
			} `json:"code_info"`
			PasswordHint                string `json:"password_hint"`
			HasRecoveryEmailAddress     bool   `json:"has_recovery_email_address"`
			RecoveryEmailAddressPattern string `json:"recovery_email_address_pattern"`
		} `json:"authorization_state"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	if env.AuthorizationState == nil || env.AuthorizationState.Type == "" {
		return nil, fmt.Errorf("%w: authorization_state", errMissingField)
	}

	st := AuthorizationState{
		Tag:              env.AuthorizationState.Type,
		PasswordHint:     env.AuthorizationState.PasswordHint,
		HasRecoveryEmail: env.AuthorizationState.HasRecoveryEmailAddress,
		RecoveryPattern:  env.AuthorizationState.RecoveryEmailAddressPattern,
	}
	if ci := env.AuthorizationState.CodeInfo; ci != nil {
		if ci.Type.Length < 0 || ci.Type.Length > math.MaxInt32 {
			return nil, fmt.Errorf("code length %d out of int32 range", ci.Type.Length)
		}
		st.CodeType = ci.Type.Type
		st.CodePhone = ci.PhoneNumber
		st.CodeLength = int32(ci.Type.Length)
	}

	return AuthUpdate{State: st, Raw: raw}, nil
}

// --- content classification ---

func buildContent(wc *wireContent) (MessageContent, error) {
	var (
		info    AttachmentInfo
		hasFile bool
	)

	switch wc.Type {
	case "messageText":
		if wc.Text == nil {
			return nil, fmt.Errorf("%w: content.text", errMissingField)
		}
		return Text{Body: wc.Text.Text}, nil

	case "messagePhoto":
		if wc.Photo == nil || len(wc.Photo.Sizes) == 0 {
			return nil, fmt.Errorf("%w: content.photo", errMissingField)
		}
		// Largest size is last in TDLib ordering.
		best := wc.Photo.Sizes[len(wc.Photo.Sizes)-1]
		info, hasFile = fileInfo(best.Photo, KindPhoto)
		info.Width, info.Height = best.Width, best.Height

	case "messageDocument":
		if wc.Document == nil {
			return nil, fmt.Errorf("%w: content.document", errMissingField)
		}
		info, hasFile = fileInfo(wc.Document.Document, KindDocument)
		info.FileName, info.MimeType = wc.Document.FileName, wc.Document.MimeType

	case "messageVideo":
		if wc.Video == nil {
			return nil, fmt.Errorf("%w: content.video", errMissingField)
		}
		info, hasFile = fileInfo(wc.Video.Video, KindVideo)
		info.Width, info.Height = wc.Video.Width, wc.Video.Height
		info.Duration = wc.Video.Duration
		info.FileName, info.MimeType = wc.Video.FileName, wc.Video.MimeType

	case "messageAudio":
		if wc.Audio == nil {
			return nil, fmt.Errorf("%w: content.audio", errMissingField)
		}
		info, hasFile = fileInfo(wc.Audio.Audio, KindAudio)
		info.Duration = wc.Audio.Duration
		info.FileName, info.MimeType = wc.Audio.FileName, wc.Audio.MimeType

	case "messageVoiceNote":
		if wc.VoiceNote == nil {
			return nil, fmt.Errorf("%w: content.voice_note", errMissingField)
		}
		info, hasFile = fileInfo(wc.VoiceNote.Voice, KindVoice)
		info.Duration = wc.VoiceNote.Duration
		info.MimeType = wc.VoiceNote.MimeType

	case "messageVideoNote":
		if wc.VideoNote == nil {
			return nil, fmt.Errorf("%w: content.video_note", errMissingField)
		}
		info, hasFile = fileInfo(wc.VideoNote.Video, KindVideoNote)
		info.Duration = wc.VideoNote.Duration

	case "messageSticker":
		if wc.Sticker == nil {
			return nil, fmt.Errorf("%w: content.sticker", errMissingField)
		}
		info, hasFile = fileInfo(wc.Sticker.Sticker, KindSticker)
		info.Width, info.Height = wc.Sticker.Width, wc.Sticker.Height

	case "messageAnimation":
		if wc.Animation == nil {
			return nil, fmt.Errorf("%w: content.animation", errMissingField)
		}
		info, hasFile = fileInfo(wc.Animation.Animation, KindAnimation)
		info.Width, info.Height = wc.Animation.Width, wc.Animation.Height
		info.Duration = wc.Animation.Duration
		info.FileName, info.MimeType = wc.Animation.FileName, wc.Animation.MimeType

	default:
		return nil, fmt.Errorf("%w: %s", errUnsupportedContent, wc.Type)
	}

	if !hasFile {
		return nil, fmt.Errorf("%w: content file id", errMissingField)
	}

	if caption := wc.Caption.Text; caption != "" {
		info.Caption = caption
		return TextWithAttachment{Body: caption, Info: info}, nil
	}
	return Attachment{Info: info}, nil
}

func fileInfo(f wireFile, kind AttachmentKind) (AttachmentInfo, bool) {
	if f.ID == nil {
		return AttachmentInfo{}, false
	}
	return AttachmentInfo{
		FileID:    *f.ID,
		Kind:      kind,
		Size:      f.Size,
		LocalPath: f.Local.Path,
		RemoteURL: f.Remote.URL,
	}, true
}

func chatTypeName(tag string) string {
	name := strings.TrimPrefix(tag, "chatType")
	if name == tag || name == "" {
		return tag
	}
	return strings.ToLower(name[:1]) + name[1:]
}
