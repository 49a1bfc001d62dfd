package command

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stolasapp/turnstile/internal/account"
	"github.com/stolasapp/turnstile/internal/pagination"
)

const defaultListLimit = 20

func userCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "User commands",
	}
	cmd.AddCommand(
		userCreateCommand(),
		userListCommand(),
		userRevokeCommand(),
		userDeleteCommand(),
	)
	return cmd
}

func userCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create EMAIL",
		Short: "Create user",
		Long: "Registers a user with the provided email. The name and password may be\n" +
			"provided via stdin or through the interactive prompt.",

		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (runErr error) {
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

			reg := account.Registration{Email: args[0]}
			for _, field := range []struct {
				prompt string
				mask   bool
				dst    *string
			}{
				{"first name: ", false, &reg.FirstName},
				{"last name: ", false, &reg.LastName},
				{"password: ", true, &reg.Password},
			} {
				resp, err := prompt(field.prompt, field.mask)
				if err != nil {
					return err
				}
				*field.dst = string(resp)
			}

			login, err := accounts.Register(cmd.Context(), reg)
			if err != nil {
				return err
			}
			// revoke the session opened by the registration
			if _, err = accounts.SignOut(cmd.Context(), login.Identity); err != nil {
				return err
			}

			logger.InfoContext(cmd.Context(), "created user",
				slog.Uint64("user_id", login.Identity.UserID),
				slog.String("email", login.Identity.Email),
			)
			return nil
		},
	}
}

func userListCommand() *cobra.Command {
	var (
		limit     int32
		pageToken string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Long: "Lists users ordered by email. When more users remain, a page token is\n" +
			"printed that can be passed to --page-token to continue.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (runErr error) {
			if limit <= 0 {
				return fmt.Errorf("limit must be positive, got %d", limit)
			}
			var cursor pagination.UsersCursor
			if pageToken != "" {
				if err := pagination.FromToken(pageToken, &cursor); err != nil {
					return err
				}
			}

			_, _, store, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					runErr = errors.Join(runErr, err)
				}
			}()

			// one extra row tells whether another page exists
			users, err := store.ListUsers(cmd.Context(), cursor.AfterEmail, limit+1)
			if err != nil {
				return err
			}
			more := len(users) > int(limit)
			if more {
				users = users[:limit]
			}

			out := cmd.OutOrStdout()
			for _, user := range users {
				if _, err = fmt.Fprintf(out, "%d\t%s\t%s\n", user.ID, user.Email, user.DisplayName()); err != nil {
					return err
				}
			}
			if !more {
				return nil
			}
			next, err := pagination.ToToken(pagination.UsersCursor{AfterEmail: users[len(users)-1].Email})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.ErrOrStderr(), "next page token: %s\n", next)
			return err
		},
	}
	cmd.Flags().Int32Var(&limit, "limit", defaultListLimit, "maximum number of users to list")
	cmd.Flags().StringVar(&pageToken, "page-token", "", "token from a previous listing")
	return cmd
}

func userRevokeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke EMAIL",
		Short: "Revoke user sessions",
		Long:  "Signs the user out everywhere by deleting all of their sessions.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (runErr error) {
			_, logger, store, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					runErr = errors.Join(runErr, err)
				}
			}()

			email := strings.TrimSpace(args[0])
			user, err := store.GetUserByEmail(cmd.Context(), email)
			if err != nil {
				return err
			}
			count, err := store.DeleteSessionsForUser(cmd.Context(), user.ID)
			if err != nil {
				return err
			}
			logger.InfoContext(cmd.Context(), "revoked sessions",
				slog.String("email", user.Email),
				slog.Int64("sessions", count),
			)
			return nil
		},
	}
}

func userDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete EMAIL",
		Short: "Delete user",
		Long: "Permanently deletes the user and all of their sessions. " +
			"This operation is permanent and irreversible.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (runErr error) {
			_, logger, store, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					runErr = errors.Join(runErr, err)
				}
			}()

			email := strings.TrimSpace(args[0])
			logger = logger.With(slog.String("email", email))
			user, err := store.GetUserByEmail(cmd.Context(), email)
			if err != nil {
				return err
			}
			resp, err := prompt("Are you sure you want to delete this user? [y|N] ", false)
			if !bytes.Equal(resp, []byte{'y'}) || err != nil {
				logger.InfoContext(cmd.Context(), "aborted user deletion")
				return err
			}
			if err = store.DeleteUser(cmd.Context(), user.ID); err != nil {
				return err
			}
			logger.InfoContext(cmd.Context(), "user deleted")
			return nil
		},
	}
}
