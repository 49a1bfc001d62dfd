// Package account implements registration, sign in, sign out and credential
// updates on top of the user and session store.
package account

import (
	"context"
	"errors"
	"log/slog"

	"github.com/stolasapp/turnstile/internal/sec"
	"github.com/stolasapp/turnstile/internal/storage"
)

// Store is the subset of [storage.Store] used by the [Service].
type Store interface {
	storage.Users
	storage.Sessions
}

// Login is the result of a successful registration or sign in.
type Login struct {
	Identity sec.Identity
	// Token is the secret handed to the client to authenticate later
	// requests.
	Token string
}

// Service orchestrates account flows. It holds no per-request state and is
// safe for concurrent use.
type Service struct {
	store    Store
	hasher   *sec.Hasher
	newToken func() string
	logger   *slog.Logger
}

// New creates a Service.
func New(store Store, hasher *sec.Hasher, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		hasher:   hasher,
		newToken: sec.NewToken,
		logger:   logger,
	}
}

// Register creates a user along with its first session. An [ErrConflict] is
// returned if the email is already registered.
func (s *Service) Register(ctx context.Context, in Registration) (Login, error) {
	in = in.normalize()
	if err := in.Validate(); err != nil {
		return Login{}, ValidationError{cause: err}
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return Login{}, ValidationError{cause: err}
	}

	user, session, err := s.store.CreateUser(ctx, storage.NewUser{
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
	}, s.newToken())
	switch {
	case errors.Is(err, storage.ErrAlreadyExists):
		return Login{}, ErrConflict
	case err != nil:
		return Login{}, s.storeError(ctx, "register", err)
	}

	s.logger.InfoContext(ctx, "registered user", slog.Uint64("user_id", user.ID))
	return Login{
		Identity: sec.NewIdentity(user, session),
		Token:    session.Token,
	}, nil
}

// SignIn verifies the credentials and opens a new session. Unknown emails and
// wrong passwords both return [ErrAuthentication] after a comparable amount of
// work.
func (s *Service) SignIn(ctx context.Context, in Credentials) (Login, error) {
	in = in.normalize()
	if err := in.validatePresent(); err != nil {
		return Login{}, ValidationError{cause: err}
	}

	user, err := s.store.GetUserByEmail(ctx, in.Email)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.hasher.VerifyNothing(in.Password)
		s.logger.DebugContext(ctx, "sign in rejected")
		return Login{}, ErrAuthentication
	case err != nil:
		return Login{}, s.storeError(ctx, "sign in", err)
	}

	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		s.logger.DebugContext(ctx, "sign in rejected")
		return Login{}, ErrAuthentication
	}

	session, err := s.store.CreateSession(ctx, user.ID, s.newToken())
	if err != nil {
		return Login{}, s.storeError(ctx, "sign in", err)
	}

	s.logger.InfoContext(ctx, "signed in", slog.Uint64("user_id", user.ID))
	return Login{
		Identity: sec.NewIdentity(user, session),
		Token:    session.Token,
	}, nil
}

// SignOut revokes every session of the caller, not only the current one. It
// returns the number of sessions removed.
func (s *Service) SignOut(ctx context.Context, ident sec.Identity) (int64, error) {
	count, err := s.store.DeleteSessionsForUser(ctx, ident.UserID)
	if err != nil {
		return 0, s.storeError(ctx, "sign out", err)
	}
	s.logger.InfoContext(ctx, "signed out",
		slog.Uint64("user_id", ident.UserID),
		slog.Int64("sessions", count),
	)
	return count, nil
}

// UpdateCredentials replaces the caller's email and password and revokes all
// of their sessions, including the one making the request. No new session is
// issued. An [ErrConflict] is returned if the email belongs to another user.
//
// The two writes are not atomic. If revoking the sessions fails, the new
// credentials are already stored while the old sessions still resolve, and a
// [StoreError] is returned; calling SignOut or UpdateCredentials again revokes
// them.
func (s *Service) UpdateCredentials(ctx context.Context, ident sec.Identity, in Credentials) error {
	in = in.normalize()
	if err := in.Validate(); err != nil {
		return ValidationError{cause: err}
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return ValidationError{cause: err}
	}

	switch _, err = s.store.UpdateUserCredentials(ctx, ident.UserID, in.Email, hash); {
	case errors.Is(err, storage.ErrAlreadyExists):
		return ErrConflict
	case err != nil:
		return s.storeError(ctx, "update credentials", err)
	}

	count, err := s.store.DeleteSessionsForUser(ctx, ident.UserID)
	if err != nil {
		return s.storeError(ctx, "update credentials", err)
	}

	s.logger.InfoContext(ctx, "updated credentials",
		slog.Uint64("user_id", ident.UserID),
		slog.Int64("revoked_sessions", count),
	)
	return nil
}

func (s *Service) storeError(ctx context.Context, op string, err error) error {
	s.logger.ErrorContext(ctx, "account store failure",
		slog.String("op", op),
		slog.Any("error", err),
	)
	return StoreError{cause: err}
}
