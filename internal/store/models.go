// Package store provides sqlite-backed persistence for bridge metadata:
// sender identities and the media file index. Message history is
// deliberately not stored.
package store

import "time"

// User is a persisted sender identity.
type User struct {
	ID        int64
	FirstName string
	LastName  string
	Username  string
	AvatarURL string
	UpdatedAt time.Time
}

// File is one entry of the media index: where a downloaded file lives and
// how far along the download is.
type File struct {
	ID        int32
	Size      int64
	LocalPath string
	State     string
	UpdatedAt time.Time
}
