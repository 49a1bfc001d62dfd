package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/influxdata/influxdb/pkg/snowflake"

	"github.com/stolasapp/turnstile/internal/config"
	"github.com/stolasapp/turnstile/internal/storage/db"
)

// DB is a [Store] backed by a SQLite database.
type DB struct {
	ids     *snowflake.Generator
	db      *sql.DB
	queries *db.Queries
}

// NewDB initializes a DB with the given config and logger.
func NewDB(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*DB, error) {
	handle, err := db.Open(ctx, logger, cfg.DBFilepath)
	if err != nil {
		return nil, err
	}
	return &DB{
		ids:     snowflake.New(rand.IntN(1023)), //nolint:gosec,mnd // this isn't for crypto
		db:      handle,
		queries: db.New(handle),
	}, nil
}

// Close satisfies the [Store] interface.
func (d *DB) Close() error {
	return d.db.Close()
}

// CreateUser satisfies the [Users] interface.
func (d *DB) CreateUser(ctx context.Context, user NewUser, token string) (created db.User, session db.Session, err error) {
	err = d.inTx(ctx, func(q *db.Queries) error {
		created, err = q.CreateUser(ctx, db.CreateUserParams{
			ID:           d.ids.Next(),
			Email:        user.Email,
			FirstName:    user.FirstName,
			LastName:     user.LastName,
			PasswordHash: user.PasswordHash,
		})
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAlreadyExists
		} else if err != nil {
			return err
		}
		session, err = d.createSession(ctx, q, created.ID, token)
		return err
	})
	return created, session, err
}

// GetUser satisfies the [Users] interface.
func (d *DB) GetUser(ctx context.Context, userID uint64) (db.User, error) {
	user, err := d.queries.GetUser(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return user, ErrNotFound
	}
	return user, err
}

// GetUserByEmail satisfies the [Users] interface.
func (d *DB) GetUserByEmail(ctx context.Context, email string) (db.User, error) {
	user, err := d.queries.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return user, ErrNotFound
	}
	return user, err
}

// ListUsers satisfies the [Users] interface.
func (d *DB) ListUsers(ctx context.Context, afterEmail string, limit int32) ([]db.User, error) {
	return d.queries.GetUsers(ctx, db.GetUsersParams{
		AfterEmail: afterEmail,
		Limit:      int64(limit),
	})
}

// UpdateUserCredentials satisfies the [Users] interface.
func (d *DB) UpdateUserCredentials(ctx context.Context, userID uint64, email string, passwordHash []byte) (db.User, error) {
	user, err := d.queries.UpdateUserCredentials(ctx, db.UpdateUserCredentialsParams{
		Email:        email,
		PasswordHash: passwordHash,
		ID:           userID,
	})
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return user, ErrNotFound
	case db.IsUniqueViolation(err):
		return user, ErrAlreadyExists
	default:
		return user, err
	}
}

// DeleteUser satisfies the [Users] interface. Sessions are removed explicitly
// in the same transaction rather than relying on the foreign key cascade.
func (d *DB) DeleteUser(ctx context.Context, userID uint64) error {
	return d.inTx(ctx, func(q *db.Queries) error {
		if _, err := q.DeleteSessionsForUser(ctx, userID); err != nil {
			return err
		}
		return q.DeleteUser(ctx, userID)
	})
}

// CreateSession satisfies the [Sessions] interface.
func (d *DB) CreateSession(ctx context.Context, userID uint64, token string) (db.Session, error) {
	return d.createSession(ctx, d.queries, userID, token)
}

// GetSessionByToken satisfies the [Sessions] interface.
func (d *DB) GetSessionByToken(ctx context.Context, token string) (db.Session, db.User, error) {
	row, err := d.queries.GetSessionByToken(ctx, token)
	if errors.Is(err, sql.ErrNoRows) {
		return row.Session, row.User, ErrNotFound
	}
	return row.Session, row.User, err
}

// DeleteSessionsForUser satisfies the [Sessions] interface.
func (d *DB) DeleteSessionsForUser(ctx context.Context, userID uint64) (int64, error) {
	return d.queries.DeleteSessionsForUser(ctx, userID)
}

func (d *DB) createSession(ctx context.Context, q *db.Queries, userID uint64, token string) (db.Session, error) {
	session, err := q.CreateSession(ctx, db.CreateSessionParams{
		ID:     d.ids.Next(),
		Token:  token,
		UserID: userID,
	})
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return session, ErrTokenCollision
	case db.IsForeignKeyViolation(err):
		return session, ErrNotFound
	default:
		return session, err
	}
}

// inTx runs fn inside a transaction, committing if it returns nil and rolling
// back otherwise.
func (d *DB) inTx(ctx context.Context, fn func(q *db.Queries) error) (err error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, ignoreDone(tx.Rollback()))
		}
	}()
	if err = fn(d.queries.WithTx(tx)); err != nil {
		return err
	}
	return tx.Commit()
}

func ignoreDone(err error) error {
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

var _ Store = (*DB)(nil)
