package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_NewMessageText(t *testing.T) {
	d := NewDecoder(nil)

	raw := []byte(`{
		"@type": "updateNewMessage",
		"message": {
			"id": 42,
			"chat_id": -100123,
			"sender_id": {"@type": "messageSenderUser", "user_id": 777},
			"date": 1700000000,
			"is_outgoing": false,
			"is_pinned": true,
			"content": {"@type": "messageText", "text": {"text": "hello"}}
		}
	}`)

	evt := d.Decode(raw)
	msg, ok := evt.(NewMessage)
	require.True(t, ok, "expected NewMessage, got %T", evt)

	assert.Equal(t, int64(42), msg.MessageID)
	assert.Equal(t, int64(-100123), msg.ChatID)
	assert.Equal(t, int64(777), msg.SenderID)
	assert.Equal(t, time.Unix(1700000000, 0), msg.Timestamp)
	assert.False(t, msg.IsOutgoing)
	assert.True(t, msg.IsPinned)

	text, ok := msg.Content.(Text)
	require.True(t, ok)
	assert.Equal(t, "hello", text.Body)
}

func TestDecode_NewMessagePhotoWithCaption(t *testing.T) {
	d := NewDecoder(nil)

	raw := []byte(`{
		"@type": "updateNewMessage",
		"message": {
			"id": 7,
			"chat_id": 1,
			"sender_id": {"@type": "messageSenderUser", "user_id": 2},
			"date": 1700000001,
			"content": {
				"@type": "messagePhoto",
				"photo": {"sizes": [
					{"width": 90, "height": 60, "photo": {"id": 11, "size": 1000, "local": {}, "remote": {}}},
					{"width": 900, "height": 600, "photo": {"id": 12, "size": 50000, "local": {"path": "/tmp/p.jpg", "is_downloading_completed": true}, "remote": {"url": "https://cdn/p.jpg"}}}
				]},
				"caption": {"text": "look"}
			}
		}
	}`)

	evt := d.Decode(raw)
	msg, ok := evt.(NewMessage)
	require.True(t, ok, "expected NewMessage, got %T", evt)

	content, ok := msg.Content.(TextWithAttachment)
	require.True(t, ok, "expected TextWithAttachment, got %T", msg.Content)
	assert.Equal(t, "look", content.Body)
	assert.Equal(t, KindPhoto, content.Info.Kind)
	assert.Equal(t, int32(12), content.Info.FileID, "should pick the largest photo size")
	assert.Equal(t, int32(900), content.Info.Width)
	assert.Equal(t, "https://cdn/p.jpg", content.Info.RemoteURL)
	assert.Equal(t, "/tmp/p.jpg", content.Info.LocalPath)
}

func TestDecode_NewMessageSticker(t *testing.T) {
	d := NewDecoder(nil)

	raw := []byte(`{
		"@type": "updateNewMessage",
		"message": {
			"id": 8,
			"chat_id": 1,
			"sender_id": {"@type": "messageSenderUser", "user_id": 2},
			"date": 1700000002,
			"content": {
				"@type": "messageSticker",
				"sticker": {"width": 512, "height": 512, "sticker": {"id": 99, "size": 4321, "local": {}, "remote": {}}}
			}
		}
	}`)

	msg, ok := d.Decode(raw).(NewMessage)
	require.True(t, ok)

	att, ok := msg.Content.(Attachment)
	require.True(t, ok)
	assert.Equal(t, KindSticker, att.Info.Kind)
	assert.Equal(t, int32(99), att.Info.FileID)
	assert.Equal(t, int32(512), att.Info.Width)
}

func TestDecode_UnknownTypeTag(t *testing.T) {
	d := NewDecoder(nil)

	raw := []byte(`{"@type": "updateChatReadInbox", "chat_id": 1, "unread_count": 3}`)
	evt := d.Decode(raw)

	unk, ok := evt.(Unknown)
	require.True(t, ok, "unrecognized tags must decode to Unknown, got %T", evt)
	assert.Equal(t, "updateChatReadInbox", unk.TypeTag)
	assert.JSONEq(t, string(raw), string(unk.Raw))
}

func TestDecode_MalformedJSON(t *testing.T) {
	d := NewDecoder(nil)

	evt := d.Decode([]byte(`{"@type": "updateNewMessage", "message": `))
	unk, ok := evt.(Unknown)
	require.True(t, ok)
	assert.Equal(t, "parse-error", unk.TypeTag)
}

func TestDecode_MissingRequiredField(t *testing.T) {
	d := NewDecoder(nil)

	tests := []struct {
		name string
		raw  string
	}{
		{"no message", `{"@type": "updateNewMessage"}`},
		{"no chat id", `{"@type": "updateNewMessage", "message": {"id": 1, "date": 1, "content": {"@type": "messageText", "text": {"text": "x"}}}}`},
		{"no content", `{"@type": "updateNewMessage", "message": {"id": 1, "chat_id": 2, "date": 1}}`},
		{"no file id", `{"@type": "updateFile", "file": {"size": 10}}`},
		{"no user", `{"@type": "updateUser"}`},
		{"no auth state", `{"@type": "updateAuthorizationState"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt := d.Decode([]byte(tt.raw))
			_, ok := evt.(Unknown)
			assert.True(t, ok, "expected Unknown, got %T", evt)
		})
	}
}

func TestDecode_UnsupportedContentDegrades(t *testing.T) {
	d := NewDecoder(nil)

	raw := []byte(`{
		"@type": "updateNewMessage",
		"message": {
			"id": 9, "chat_id": 1,
			"sender_id": {"@type": "messageSenderUser", "user_id": 2},
			"date": 1,
			"content": {"@type": "messagePoll"}
		}
	}`)

	unk, ok := d.Decode(raw).(Unknown)
	require.True(t, ok)
	assert.Equal(t, "updateNewMessage", unk.TypeTag)
}

func TestDecode_AuthorizationState(t *testing.T) {
	d := NewDecoder(nil)

	raw := []byte(`{
		"@type": "updateAuthorizationState",
		"authorization_state": {
			"@type": "authorizationStateWaitCode",
			"code_info": {
				"phone_number": "+15550100",
				"type": {"@type": "authenticationCodeTypeTelegramMessage", "length": 5}
			}
		}
	}`)

	evt := d.Decode(raw)
	auth, ok := evt.(AuthUpdate)
	require.True(t, ok, "expected AuthUpdate, got %T", evt)

	assert.Equal(t, "authorizationStateWaitCode", auth.State.Tag)
	assert.Equal(t, "+15550100", auth.State.CodePhone)
	assert.Equal(t, "authenticationCodeTypeTelegramMessage", auth.State.CodeType)
	assert.Equal(t, int32(5), auth.State.CodeLength)
	assert.NotEmpty(t, auth.Raw)
}

func TestDecode_AuthorizationStatePasswordHints(t *testing.T) {
	d := NewDecoder(nil)

	raw := []byte(`{
		"@type": "updateAuthorizationState",
		"authorization_state": {
			"@type": "authorizationStateWaitPassword",
			"password_hint": "favorite pet",
			"has_recovery_email_address": true,
			"recovery_email_address_pattern": "a***@example.org"
		}
	}`)

	auth, ok := d.Decode(raw).(AuthUpdate)
	require.True(t, ok)
	assert.Equal(t, "authorizationStateWaitPassword", auth.State.Tag)
	assert.Equal(t, "favorite pet", auth.State.PasswordHint)
	assert.True(t, auth.State.HasRecoveryEmail)
	assert.Equal(t, "a***@example.org", auth.State.RecoveryPattern)
}

func TestDecode_CodeLengthOutOfRange(t *testing.T) {
	d := NewDecoder(nil)

	// Wider than int32: must reject deterministically, not wrap.
	raw := []byte(`{
		"@type": "updateAuthorizationState",
		"authorization_state": {
			"@type": "authorizationStateWaitCode",
			"code_info": {"type": {"@type": "authenticationCodeTypeSms", "length": 4294967301}}
		}
	}`)

	unk, ok := d.Decode(raw).(Unknown)
	require.True(t, ok, "out-of-range code length must degrade to Unknown")
	assert.Equal(t, "updateAuthorizationState", unk.TypeTag)
}

func TestDecode_FileUpdate(t *testing.T) {
	d := NewDecoder(nil)

	tests := []struct {
		name  string
		raw   string
		state DownloadState
		path  string
	}{
		{
			"completed",
			`{"@type": "updateFile", "file": {"id": 5, "size": 2048, "local": {"path": "/tmp/f.bin", "is_downloading_completed": true}, "remote": {}}}`,
			DownloadCompleted,
			"/tmp/f.bin",
		},
		{
			"active",
			`{"@type": "updateFile", "file": {"id": 5, "size": 2048, "local": {"is_downloading_active": true}, "remote": {}}}`,
			DownloadActive,
			"",
		},
		{
			"pending",
			`{"@type": "updateFile", "file": {"id": 5, "size": 2048, "local": {}, "remote": {}}}`,
			DownloadPending,
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fu, ok := d.Decode([]byte(tt.raw)).(FileUpdate)
			require.True(t, ok)
			assert.Equal(t, int32(5), fu.FileID)
			assert.Equal(t, int64(2048), fu.Size)
			assert.Equal(t, tt.state, fu.State)
			assert.Equal(t, tt.path, fu.LocalPath)
		})
	}
}

func TestDecode_UserUpdate(t *testing.T) {
	d := NewDecoder(nil)

	raw := []byte(`{
		"@type": "updateUser",
		"user": {
			"id": 777,
			"first_name": "Ada",
			"last_name": "Lovelace",
			"username": "ada",
			"profile_photo": {"small": {"id": 3, "local": {}, "remote": {"url": "https://cdn/ada.jpg"}}}
		}
	}`)

	u, ok := d.Decode(raw).(UserUpdate)
	require.True(t, ok)
	assert.Equal(t, int64(777), u.UserID)
	assert.Equal(t, "Ada", u.FirstName)
	assert.Equal(t, "Lovelace", u.LastName)
	assert.Equal(t, "ada", u.Username)
	assert.Equal(t, "https://cdn/ada.jpg", u.AvatarURL)
}

func TestDecode_UserUpdateOptionalFieldsDefault(t *testing.T) {
	d := NewDecoder(nil)

	raw := []byte(`{"@type": "updateUser", "user": {"id": 778, "first_name": "Grace"}}`)
	u, ok := d.Decode(raw).(UserUpdate)
	require.True(t, ok)
	assert.Equal(t, "Grace", u.FirstName)
	assert.Empty(t, u.LastName)
	assert.Empty(t, u.Username)
	assert.Empty(t, u.AvatarURL)
}

func TestDecode_NewChat(t *testing.T) {
	d := NewDecoder(nil)

	raw := []byte(`{
		"@type": "updateNewChat",
		"chat": {"id": -100123, "title": "bridge test", "type": {"@type": "chatTypeSupergroup"}, "member_count": 12}
	}`)

	c, ok := d.Decode(raw).(NewChat)
	require.True(t, ok)
	assert.Equal(t, int64(-100123), c.ChatID)
	assert.Equal(t, "bridge test", c.Title)
	assert.Equal(t, "supergroup", c.ChatType)
	assert.Equal(t, int32(12), c.MemberCount)
}

func TestDecode_EditedMessage(t *testing.T) {
	d := NewDecoder(nil)

	raw := []byte(`{
		"@type": "updateMessageContent",
		"chat_id": 1,
		"message_id": 42,
		"edit_date": 1700000100,
		"new_content": {"@type": "messageText", "text": {"text": "hello again"}}
	}`)

	e, ok := d.Decode(raw).(EditedMessage)
	require.True(t, ok)
	assert.Equal(t, int64(42), e.MessageID)
	assert.Equal(t, time.Unix(1700000100, 0), e.EditTimestamp)
	assert.Equal(t, Text{Body: "hello again"}, e.Content)
}

func TestContentHelpers(t *testing.T) {
	info := AttachmentInfo{FileID: 1, Kind: KindDocument}

	assert.Equal(t, "hi", Body(Text{Body: "hi"}))
	assert.Equal(t, "cap", Body(TextWithAttachment{Body: "cap", Info: info}))
	assert.Empty(t, Body(Attachment{Info: info}))

	got, ok := AttachmentOf(Attachment{Info: info})
	require.True(t, ok)
	assert.Equal(t, info, got)

	_, ok = AttachmentOf(Text{Body: "hi"})
	assert.False(t, ok)
}
