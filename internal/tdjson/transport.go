// Package tdjson is the boundary to the native Telegram client. The client
// itself (connection lifecycle, protocol) lives outside this process; the
// bridge only sends @type-discriminated JSON requests and receives raw
// update envelopes back.
package tdjson

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned when the transport has been closed.
var ErrClosed = errors.New("tdjson: transport closed")

// Transport exchanges JSON with the native Telegram client. Send is safe
// for concurrent use; Receive is owned by the bridge run loop. Receive
// returns (nil, nil) when no envelope arrived within the timeout.
type Transport interface {
	Send(ctx context.Context, req any) error
	Receive(timeout time.Duration) ([]byte, error)
	Close() error
}

// --- request builders ---

// SetTdlibParameters initializes the native client with credentials and
// storage paths.
type SetTdlibParameters struct {
	Type               string `json:"@type"`
	APIID              int32  `json:"api_id"`
	APIHash            string `json:"api_hash"`
	DatabaseDirectory  string `json:"database_directory"`
	FilesDirectory     string `json:"files_directory"`
	SystemLanguageCode string `json:"system_language_code"`
	DeviceModel        string `json:"device_model"`
	ApplicationVersion string `json:"application_version"`
	UseMessageDatabase bool   `json:"use_message_database"`
	UseSecretChats     bool   `json:"use_secret_chats"`
}

// NewSetTdlibParameters builds the backend-initialization request.
func NewSetTdlibParameters(apiID int32, apiHash, databaseDir, filesDir string) SetTdlibParameters {
	return SetTdlibParameters{
		Type:               "setTdlibParameters",
		APIID:              apiID,
		APIHash:            apiHash,
		DatabaseDirectory:  databaseDir,
		FilesDirectory:     filesDir,
		SystemLanguageCode: "en",
		DeviceModel:        "tgcord",
		ApplicationVersion: "1.0",
	}
}

// CheckDatabaseEncryptionKey answers the encryption-key prompt. The bridge
// always uses an empty key.
type CheckDatabaseEncryptionKey struct {
	Type          string `json:"@type"`
	EncryptionKey string `json:"encryption_key"`
}

// NewCheckDatabaseEncryptionKey builds the empty-key request.
func NewCheckDatabaseEncryptionKey() CheckDatabaseEncryptionKey {
	return CheckDatabaseEncryptionKey{Type: "checkDatabaseEncryptionKey"}
}

// SetAuthenticationPhoneNumber submits the login phone number.
type SetAuthenticationPhoneNumber struct {
	Type        string `json:"@type"`
	PhoneNumber string `json:"phone_number"`
}

// NewSetAuthenticationPhoneNumber builds the phone-number request.
func NewSetAuthenticationPhoneNumber(phone string) SetAuthenticationPhoneNumber {
	return SetAuthenticationPhoneNumber{Type: "setAuthenticationPhoneNumber", PhoneNumber: phone}
}

// CheckAuthenticationCode submits the login code.
type CheckAuthenticationCode struct {
	Type string `json:"@type"`
	Code string `json:"code"`
}

// NewCheckAuthenticationCode builds the code-check request.
func NewCheckAuthenticationCode(code string) CheckAuthenticationCode {
	return CheckAuthenticationCode{Type: "checkAuthenticationCode", Code: code}
}

// CheckAuthenticationPassword submits the two-step verification password.
type CheckAuthenticationPassword struct {
	Type     string `json:"@type"`
	Password string `json:"password"`
}

// NewCheckAuthenticationPassword builds the password-check request.
func NewCheckAuthenticationPassword(password string) CheckAuthenticationPassword {
	return CheckAuthenticationPassword{Type: "checkAuthenticationPassword", Password: password}
}

// GetUser asks the client to resolve a user; the answer arrives on the
// receive stream as a user envelope.
type GetUser struct {
	Type   string `json:"@type"`
	UserID int64  `json:"user_id"`
}

// NewGetUser builds a user-resolution request.
func NewGetUser(userID int64) GetUser {
	return GetUser{Type: "getUser", UserID: userID}
}

// DownloadFile asks the client to start downloading a file; progress arrives
// as file updates.
type DownloadFile struct {
	Type        string `json:"@type"`
	FileID      int32  `json:"file_id"`
	Priority    int32  `json:"priority"`
	Synchronous bool   `json:"synchronous"`
}

// NewDownloadFile builds a file-download request.
func NewDownloadFile(fileID int32) DownloadFile {
	return DownloadFile{Type: "downloadFile", FileID: fileID, Priority: 1}
}

// SendMessage delivers a plain-text message into a chat.
type SendMessage struct {
	Type                string              `json:"@type"`
	ChatID              int64               `json:"chat_id"`
	InputMessageContent inputMessageContent `json:"input_message_content"`
}

type inputMessageContent struct {
	Type string        `json:"@type"`
	Text formattedText `json:"text"`
}

type formattedText struct {
	Type string `json:"@type"`
	Text string `json:"text"`
}

// NewSendMessage builds a text send request.
func NewSendMessage(chatID int64, text string) SendMessage {
	return SendMessage{
		Type:   "sendMessage",
		ChatID: chatID,
		InputMessageContent: inputMessageContent{
			Type: "inputMessageText",
			Text: formattedText{Type: "formattedText", Text: text},
		},
	}
}
