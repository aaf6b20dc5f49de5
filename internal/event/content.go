package event

// MessageContent is the classified content of a message: plain text, a bare
// attachment, or text alongside an attachment.
type MessageContent interface {
	isContent()
}

// Text is a plain text body.
type Text struct {
	Body string
}

// Attachment is a media item with no accompanying text.
type Attachment struct {
	Info AttachmentInfo
}

// TextWithAttachment is a media item with a caption.
type TextWithAttachment struct {
	Body string
	Info AttachmentInfo
}

func (Text) isContent()               {}
func (Attachment) isContent()         {}
func (TextWithAttachment) isContent() {}

// AttachmentKind identifies the media class of an attachment.
type AttachmentKind string

const (
	KindPhoto     AttachmentKind = "photo"
	KindDocument  AttachmentKind = "document"
	KindVideo     AttachmentKind = "video"
	KindAudio     AttachmentKind = "audio"
	KindVoice     AttachmentKind = "voice"
	KindVideoNote AttachmentKind = "videoNote"
	KindSticker   AttachmentKind = "sticker"
	KindAnimation AttachmentKind = "animation"
)

// AttachmentInfo describes one attachment. LocalPath and RemoteURL stay
// empty until the corresponding file update arrives.
type AttachmentInfo struct {
	FileID    int32
	Kind      AttachmentKind
	Width     int32
	Height    int32
	Duration  int32
	Size      int64
	FileName  string
	MimeType  string
	Caption   string
	LocalPath string
	RemoteURL string
}

// Body returns the textual part of the content, or "" when there is none.
func Body(c MessageContent) string {
	switch v := c.(type) {
	case Text:
		return v.Body
	case TextWithAttachment:
		return v.Body
	default:
		return ""
	}
}

// AttachmentOf returns the attachment carried by the content, if any.
func AttachmentOf(c MessageContent) (AttachmentInfo, bool) {
	switch v := c.(type) {
	case Attachment:
		return v.Info, true
	case TextWithAttachment:
		return v.Info, true
	default:
		return AttachmentInfo{}, false
	}
}
