package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested item is not found.
var ErrNotFound = errors.New("not found")

// UserRepository defines operations for identity persistence.
type UserRepository interface {
	Upsert(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	All(ctx context.Context) ([]User, error)
	Count(ctx context.Context) (int, error)
}

// FileRepository defines operations for the media index.
type FileRepository interface {
	Upsert(ctx context.Context, file *File) error
	GetByID(ctx context.Context, id int32) (*File, error)
	Count(ctx context.Context) (int, error)
}
