package command

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stolasapp/turnstile/internal/config"
	"github.com/stolasapp/turnstile/internal/storage"
)

func seededConfig(t *testing.T, emails ...string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DBFilepath = filepath.Join(t.TempDir(), "db.sqlite")
	store, err := storage.NewDB(t.Context(), cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	for i, email := range emails {
		_, _, err = store.CreateUser(t.Context(), storage.NewUser{
			Email:        email,
			FirstName:    "User",
			LastName:     fmt.Sprint(i),
			PasswordHash: []byte("hash"),
		}, fmt.Sprintf("token-%d", i))
		require.NoError(t, err)
	}
	require.NoError(t, store.Close())
	return cfg
}

func runUserCommand(t *testing.T, cfg *config.Config, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := userCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err = cmd.ExecuteContext(context.WithValue(t.Context(), configKey{}, cfg))
	return out.String(), errOut.String(), err
}

func TestUserList_Pages(t *testing.T) {
	t.Parallel()

	cfg := seededConfig(t, "c@x.com", "a@x.com", "b@x.com")

	stdout, stderr, err := runUserCommand(t, cfg, "list", "--limit", "2")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "a@x.com")
	assert.Contains(t, lines[1], "b@x.com")

	token, ok := strings.CutPrefix(strings.TrimSpace(stderr), "next page token: ")
	require.True(t, ok, stderr)

	stdout, stderr, err = runUserCommand(t, cfg, "list", "--limit", "2", "--page-token", token)
	require.NoError(t, err)
	lines = strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "c@x.com")
	assert.NotContains(t, stderr, "next page token")
}

func TestUserList_BadToken(t *testing.T) {
	t.Parallel()

	cfg := seededConfig(t)
	_, _, err := runUserCommand(t, cfg, "list", "--page-token", "garbage!")
	require.EqualError(t, err, "invalid pagination token")
}

func TestUserRevoke(t *testing.T) {
	t.Parallel()

	cfg := seededConfig(t, "alice@x.com")

	_, _, err := runUserCommand(t, cfg, "revoke", "ALICE@x.com")
	require.NoError(t, err)

	store, err := storage.NewDB(t.Context(), cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	_, _, err = store.GetSessionByToken(t.Context(), "token-0")
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, _, err = runUserCommand(t, cfg, "revoke", "nobody@x.com")
	require.ErrorIs(t, err, storage.ErrNotFound)
}
