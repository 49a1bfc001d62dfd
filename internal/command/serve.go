package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/stolasapp/turnstile/internal/account"
	"github.com/stolasapp/turnstile/internal/app"
	"github.com/stolasapp/turnstile/internal/devseed"
	"github.com/stolasapp/turnstile/internal/server"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "serve the turnstile Web App",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (runErr error) {
			cfg, logger, store, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					runErr = errors.Join(runErr, err)
				}
			}()

			accounts, err := newAccounts(cfg, logger, store)
			if err != nil {
				return err
			}

			grp, ctx := errgroup.WithContext(cmd.Context())

			if cfg.DevMode && cfg.DevSeedUsers > 0 {
				seedAccounts(ctx, cmd.ErrOrStderr(), logger, accounts, cfg.DevSeedUsers)
			}

			appServer := app.New(cfg, logger, store, accounts)
			if _, err = server.Start(ctx, grp, logger, cfg.WebAddress, appServer); err != nil {
				return err
			}
			return grp.Wait()
		},
	}
}

// seedAccounts registers demo accounts and writes their credentials to out.
// Failures are logged and do not stop the server.
func seedAccounts(
	ctx context.Context,
	out io.Writer,
	logger *slog.Logger,
	accounts *account.Service,
	count int,
) {
	seed := devseed.Seed()
	seeded, err := devseed.Populate(ctx, accounts, seed, count)
	if err != nil {
		logger.WarnContext(ctx, "failed to seed demo accounts", slog.Any("error", err))
	}
	logger.InfoContext(ctx, "seeded demo accounts",
		slog.Uint64("seed", seed),
		slog.Int("count", len(seeded)),
	)
	for _, acct := range seeded {
		_, _ = fmt.Fprintf(out, "demo account: %s <%s> password %s\n", acct.Name, acct.Email, acct.Password)
	}
}
