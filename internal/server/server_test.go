package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestStart(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	grp, ctx := errgroup.WithContext(ctx)

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})
	addr, err := Start(ctx, grp, slog.New(slog.DiscardHandler), "127.0.0.1:0", handler)
	require.NoError(t, err)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr.String()+"/", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))

	cancel()
	require.NoError(t, grp.Wait())
}

func TestStart_AddressInUse(t *testing.T) {
	t.Parallel()

	listener, err := Listen(t.Context(), "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	var grp errgroup.Group
	_, err = Start(t.Context(), &grp, slog.New(slog.DiscardHandler), listener.Addr().String(), http.NotFoundHandler())
	require.Error(t, err)
	require.NoError(t, grp.Wait())
}
