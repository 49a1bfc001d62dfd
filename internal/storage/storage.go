// Package storage provides the state management for users and their sessions.
package storage

import (
	"context"

	"github.com/stolasapp/turnstile/internal/storage/db"
)

const (
	// ErrNotFound is returned when a user or session cannot be found.
	ErrNotFound Error = "not found"
	// ErrAlreadyExists is returned if a user with the same email already exists.
	ErrAlreadyExists Error = "already exists"
	// ErrTokenCollision is returned when a new session token is already in use.
	// It indicates a broken token source and must not be retried.
	ErrTokenCollision Error = "session token collision"
	// ErrInternal is returned for any other type of error.
	ErrInternal Error = "internal error"
)

// Error is an error type returned by the storage implementation.
type Error string

// Error satisfies [error].
func (e Error) Error() string { return string(e) }

// NewUser is the data required to register a user.
type NewUser struct {
	Email        string
	FirstName    string
	LastName     string
	PasswordHash []byte
}

// Users are the methods on a storage implementation that are responsible for
// accessing and modifying users.
type Users interface {
	// CreateUser creates the user along with its initial session identified by
	// token. Both records are written atomically. An [ErrAlreadyExists] is
	// returned if the email is already in use.
	CreateUser(ctx context.Context, user NewUser, token string) (db.User, db.Session, error)
	// GetUser returns a single user with the specified ID. An [ErrNotFound] is
	// returned if the user ID does not exist.
	GetUser(ctx context.Context, userID uint64) (db.User, error)
	// GetUserByEmail returns a single user with the specified email. An
	// [ErrNotFound] is returned if the email does not exist.
	GetUserByEmail(ctx context.Context, email string) (db.User, error)
	// ListUsers returns the users ordered by email, starting after the given
	// email (if provided) up to the given limit of records.
	ListUsers(ctx context.Context, afterEmail string, limit int32) ([]db.User, error)
	// UpdateUserCredentials replaces the email and password hash of the user.
	// Existing sessions are left untouched. An [ErrAlreadyExists] is returned
	// if the new email belongs to another user.
	UpdateUserCredentials(ctx context.Context, userID uint64, email string, passwordHash []byte) (db.User, error)
	// DeleteUser removes a user and all of their sessions. Note that this is a
	// hard delete; data is not recoverable.
	DeleteUser(ctx context.Context, userID uint64) error
}

// Sessions are the methods on a storage implementation that are responsible
// for accessing and modifying sessions.
type Sessions interface {
	// CreateSession creates a session for the user identified by token. An
	// [ErrNotFound] is returned if the user does not exist and an
	// [ErrTokenCollision] if the token is already in use.
	CreateSession(ctx context.Context, userID uint64, token string) (db.Session, error)
	// GetSessionByToken returns the session with the given token along with
	// its owner. An [ErrNotFound] is returned if no such session exists.
	GetSessionByToken(ctx context.Context, token string) (db.Session, db.User, error)
	// DeleteSessionsForUser removes every session owned by the user and
	// returns the number removed.
	DeleteSessionsForUser(ctx context.Context, userID uint64) (int64, error)
}

// Store is the combination interface for [Users] and [Sessions].
type Store interface {
	Users
	Sessions
	// Close releases any resources held by the store. An error is returned if
	// the store cannot be cleanly closed.
	Close() error
}
