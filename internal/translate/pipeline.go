package translate

import (
	"log/slog"
	"strings"

	"tgcord/internal/discord"
	"tgcord/internal/event"
)

// Result is the outcome of translating one message. Deferred means the
// attachment has no resolved URL yet: nothing is delivered now and the
// message waits for a future file update. A nil Payload with Deferred false
// means there is nothing to deliver at all.
type Result struct {
	Deferred      bool
	PendingFileID int32
	Payload       *discord.SpoofedMessage
}

// Pipeline translates messages into spoofed delivery payloads. Local file
// paths under filesDir are rewritten to URLs below mediaBaseURL, where the
// bridge's static file server exposes them.
type Pipeline struct {
	mediaBaseURL string
	filesDir     string
	log          *slog.Logger
}

// NewPipeline creates a translation pipeline.
func NewPipeline(mediaBaseURL, filesDir string, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		mediaBaseURL: strings.TrimRight(mediaBaseURL, "/"),
		filesDir:     filesDir,
		log:          log.With("component", "translate"),
	}
}

// Translate builds the delivery payload for one message from a resolved
// sender identity.
func (p *Pipeline) Translate(msg event.NewMessage, user UserInfo) Result {
	body := strings.TrimSpace(event.Body(msg.Content))
	escaped := ""
	if body != "" {
		escaped = EscapeMarkdown(body)
	}

	payload := &discord.SpoofedMessage{
		Username:  DisplayName(user),
		AvatarURL: user.AvatarURL,
	}

	att, hasAttachment := event.AttachmentOf(msg.Content)
	if !hasAttachment {
		if escaped == "" {
			// Whitespace-only text with no attachment: nothing to deliver.
			return Result{}
		}
		payload.Content = escaped
		return Result{Payload: payload}
	}

	url := p.attachmentURL(att)
	if url == "" {
		// Still downloading. No partial delivery; wait for the file update.
		return Result{Deferred: true, PendingFileID: att.FileID}
	}

	switch att.Kind {
	case event.KindPhoto:
		payload.Content = escaped
		payload.Embeds = []discord.Embed{{Image: &discord.EmbedImage{URL: url}}}

	case event.KindSticker, event.KindAnimation:
		link := "[" + string(att.Kind) + "](" + url + ")"
		payload.Content = joinLines(escaped, link)

	default:
		payload.Content = joinLines(escaped, url)
	}

	return Result{Payload: payload}
}

func (p *Pipeline) attachmentURL(att event.AttachmentInfo) string {
	if att.RemoteURL != "" {
		return att.RemoteURL
	}
	if att.LocalPath != "" && p.mediaBaseURL != "" {
		rel := strings.TrimPrefix(att.LocalPath, p.filesDir)
		rel = strings.TrimPrefix(rel, "/")
		return p.mediaBaseURL + "/" + rel
	}
	return ""
}

func joinLines(parts ...string) string {
	nonEmpty := parts[:0:0]
	for _, part := range parts {
		if part != "" {
			nonEmpty = append(nonEmpty, part)
		}
	}
	return strings.Join(nonEmpty, "\n")
}
