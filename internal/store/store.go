package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Account is a club member who can sign in.
type Account struct {
	ID        int64  // numeric id
	AccountID string // public identifier
	Email     string
	FirstName string
	LastName  string
	CreatedAt time.Time
}

// Room is the persisted part of a presentation room. Live state, including the PIN, is kept in memory only.
type Room struct {
	ID              int64
	RoomID          string
	Title           string
	PresenterUserID int64
	CreatedAt       time.Time
	EndedAt         *time.Time
}

// AccountStore handles account persistence.
type AccountStore interface {
	// CreateAccount creates an account with a freshly generated public id.
	CreateAccount(ctx context.Context, email, firstName, lastName string) (*Account, error)

	// GetAccountByID retrieves an account by numeric id.
	GetAccountByID(ctx context.Context, id int64) (*Account, error)

	// GetAccountByAccountID retrieves an account by public id.
	GetAccountByAccountID(ctx context.Context, accountID string) (*Account, error)

	// GetAccountByEmail retrieves an account by email.
	GetAccountByEmail(ctx context.Context, email string) (*Account, error)
}

// RoomStore handles presentation room persistence.
type RoomStore interface {
	// CreateRoom persists a room and returns it with its generated room id.
	CreateRoom(ctx context.Context, title string, presenterUserID int64) (*Room, error)

	// GetRoomByRoomID retrieves a room by its durable id.
	GetRoomByRoomID(ctx context.Context, roomID string) (*Room, error)

	// UpdateRoomTitle changes the stored title.
	UpdateRoomTitle(ctx context.Context, roomID, title string) error

	// EndRoom records when a room was disposed.
	EndRoom(ctx context.Context, roomID string, endedAt time.Time) error

	// ListRoomsByPresenter lists rooms created by a presenter, newest first.
	ListRoomsByPresenter(ctx context.Context, presenterUserID int64) ([]*Room, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	AccountStore
	RoomStore

	// Close closes the underlying database connection.
	Close() error
}
