// Package store defines the persistence contract for messages and users.
// Backends live in the sqlite, postgres and redis subpackages.
package store

import (
	"context"
	"errors"

	"github.com/johndosdos/chatrooms/internal/model"
)

var (
	// ErrUnavailable wraps any failure to reach the backing store.
	ErrUnavailable = errors.New("store unavailable")
	// ErrNotFound is returned by single-record lookups.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateID is returned when a message id already exists.
	ErrDuplicateID = errors.New("duplicate message id")
	// ErrDuplicateUser is returned when a username or user id is taken.
	ErrDuplicateUser = errors.New("duplicate user")
)

// MessageStore persists chat messages. Listings are ordered ascending by
// timestamp; ties keep store order.
type MessageStore interface {
	AddMessage(ctx context.Context, m model.Message) error
	AllMessages(ctx context.Context) ([]model.Message, error)
	RoomMessages(ctx context.Context, code string) ([]model.Message, error)
	GetMessage(ctx context.Context, id int64) (model.Message, error)
	// DeleteMessage and EditMessage are no-ops for unknown ids.
	DeleteMessage(ctx context.Context, id int64) error
	DeleteAllMessages(ctx context.Context) error
	EditMessage(ctx context.Context, id int64, content string) error
}

// UserStore persists accounts.
type UserStore interface {
	AddUser(ctx context.Context, u model.User) error
	GetUserByID(ctx context.Context, id int64) (model.User, error)
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
	// GetAllUsers returns users sorted by username.
	GetAllUsers(ctx context.Context) ([]model.User, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
}

// Store is a full backend.
type Store interface {
	MessageStore
	UserStore
	Ping(ctx context.Context) error
	Close() error
}
