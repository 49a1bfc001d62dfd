package sec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"connectrpc.com/authn"

	"github.com/stolasapp/turnstile/internal/storage"
	"github.com/stolasapp/turnstile/internal/storage/db"
)

// Identity is the authenticated caller attached to a request. It never carries
// the password hash.
type Identity struct {
	UserID    uint64
	SessionID uint64
	Email     string
	FirstName string
	LastName  string
}

// NewIdentity builds the Identity for user logged in through session.
func NewIdentity(user db.User, session db.Session) Identity {
	return Identity{
		UserID:    user.ID,
		SessionID: session.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
}

// DisplayName returns the caller's full name.
func (i Identity) DisplayName() string {
	return i.FirstName + " " + i.LastName
}

// Resolve looks up the owner of token. The second return value is false if the
// token is empty or unknown. Any other lookup failure is returned as an error.
func Resolve(ctx context.Context, logger *slog.Logger, sessions storage.Sessions, token string) (Identity, bool, error) {
	if token == "" {
		return Identity{}, false, nil
	}
	session, user, err := sessions.GetSessionByToken(ctx, token)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		logger.DebugContext(ctx, "unknown session token")
		return Identity{}, false, nil
	case err != nil:
		return Identity{}, false, fmt.Errorf("failed to resolve session: %w", err)
	}
	return NewIdentity(user, session), true, nil
}

// GetAuthenticatedUser returns the identity of the authenticated caller. The
// second return value is false for anonymous requests.
func GetAuthenticatedUser(ctx context.Context) (Identity, bool) {
	ident, ok := authn.GetInfo(ctx).(Identity)
	return ident, ok
}

// SetAuthenticatedUser returns a copy of ctx carrying ident.
func SetAuthenticatedUser(ctx context.Context, ident Identity) context.Context {
	return authn.SetInfo(ctx, ident)
}
