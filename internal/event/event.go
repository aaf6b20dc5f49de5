// Package event provides the typed-event decoder for Telegram update envelopes.
package event

import (
	"encoding/json"
	"time"
)

// Event is one decoded Telegram update. Exactly one concrete variant is
// produced per envelope; envelopes the decoder does not understand become
// Unknown rather than errors so the bridge degrades gracefully on protocol
// drift.
type Event interface {
	isEvent()
}

// NewMessage is an incoming or outgoing message in a chat.
type NewMessage struct {
	ChatID     int64
	MessageID  int64
	SenderID   int64
	Timestamp  time.Time
	Content    MessageContent
	IsOutgoing bool
	IsPinned   bool
}

// EditedMessage carries the replacement content of an edited message.
type EditedMessage struct {
	ChatID        int64
	MessageID     int64
	EditTimestamp time.Time
	Content       MessageContent
}

// UserUpdate refreshes the identity information for a user.
type UserUpdate struct {
	UserID    int64
	FirstName string
	LastName  string
	Username  string
	AvatarURL string
}

// DownloadState describes how far along a file download is.
type DownloadState string

const (
	DownloadPending   DownloadState = "pending"
	DownloadActive    DownloadState = "downloading"
	DownloadCompleted DownloadState = "completed"
)

// FileUpdate reports download progress for a file.
type FileUpdate struct {
	FileID    int32
	Size      int64
	LocalPath string
	State     DownloadState
}

// NewChat announces a chat the client has learned about.
type NewChat struct {
	ChatID      int64
	Title       string
	ChatType    string
	MemberCount int32
}

// AuthUpdate carries a change of the login handshake state.
type AuthUpdate struct {
	State AuthorizationState
	Raw   json.RawMessage
}

// Unknown is produced for any envelope the decoder cannot fully interpret.
type Unknown struct {
	TypeTag string
	Raw     json.RawMessage
}

func (NewMessage) isEvent()    {}
func (EditedMessage) isEvent() {}
func (UserUpdate) isEvent()    {}
func (FileUpdate) isEvent()    {}
func (NewChat) isEvent()       {}
func (AuthUpdate) isEvent()    {}
func (Unknown) isEvent()       {}

// AuthorizationState is the parsed payload of an authorization-state update.
// Tag is the wire discriminator of the inner state object; the remaining
// fields are hints that only some states populate.
type AuthorizationState struct {
	Tag string

	// WaitCode hints
	CodeType   string
	CodePhone  string
	CodeLength int32

	// WaitPassword hints
	PasswordHint     string
	HasRecoveryEmail bool
	RecoveryPattern  string
}
