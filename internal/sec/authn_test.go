package sec

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stolasapp/turnstile/internal/storage"
	"github.com/stolasapp/turnstile/internal/storage/db"
)

type fakeSessions struct {
	storage.Sessions

	rows map[string]db.User
	err  error
}

func (f fakeSessions) GetSessionByToken(_ context.Context, token string) (db.Session, db.User, error) {
	if f.err != nil {
		return db.Session{}, db.User{}, f.err
	}
	user, ok := f.rows[token]
	if !ok {
		return db.Session{}, db.User{}, storage.ErrNotFound
	}
	return db.Session{ID: 7, Token: token, UserID: user.ID}, user, nil
}

func TestResolve(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.DiscardHandler)
	alice := db.User{
		ID:           1,
		Email:        "alice@example.com",
		FirstName:    "Alice",
		LastName:     "Liddell",
		PasswordHash: []byte("secret"),
	}
	sessions := fakeSessions{rows: map[string]db.User{"valid": alice}}

	tests := []struct {
		name     string
		sessions storage.Sessions
		token    string
		want     Identity
		wantOK   bool
		wantErr  bool
	}{
		{
			name:     "valid token",
			sessions: sessions,
			token:    "valid",
			want: Identity{
				UserID:    1,
				SessionID: 7,
				Email:     alice.Email,
				FirstName: alice.FirstName,
				LastName:  alice.LastName,
			},
			wantOK: true,
		},
		{
			name:     "no token",
			sessions: sessions,
			token:    "",
		},
		{
			name:     "unknown token",
			sessions: sessions,
			token:    "revoked",
		},
		{
			name:     "store failure",
			sessions: fakeSessions{err: errors.New("disk on fire")},
			token:    "valid",
			wantErr:  true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			ident, ok, err := Resolve(t.Context(), logger, test.sessions, test.token)
			if test.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, test.wantOK, ok)
			assert.Equal(t, test.want, ident)
		})
	}
}

func TestAuthenticatedUser(t *testing.T) {
	t.Parallel()

	_, ok := GetAuthenticatedUser(t.Context())
	require.False(t, ok)

	ident := Identity{UserID: 3, FirstName: "Bob", LastName: "Builder"}
	ctx := SetAuthenticatedUser(t.Context(), ident)

	actual, ok := GetAuthenticatedUser(ctx)
	require.True(t, ok)
	assert.Equal(t, ident, actual)
	assert.Equal(t, "Bob Builder", actual.DisplayName())

	// the parent context is unaffected
	_, ok = GetAuthenticatedUser(t.Context())
	assert.False(t, ok)
}
