// Package devseed populates a development database with demo accounts.
package devseed

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/stolasapp/turnstile/internal/account"
)

// SeedEnv names the environment variable holding a fixed seed.
const SeedEnv = "TURNSTILE_DEV_SEED"

// maxAttempts bounds the registrations tried per requested account.
const maxAttempts = 5

// Seed returns the seed from the [SeedEnv] environment variable, or a random
// value if not set.
func Seed() uint64 {
	if env := os.Getenv(SeedEnv); env != "" {
		if seed, err := strconv.ParseUint(env, 10, 64); err == nil {
			return seed
		}
	}
	return rand.Uint64() //nolint:gosec // intentionally weak random for demo data
}

// Account is a seeded user and the password it was registered with.
type Account struct {
	Name     string
	Email    string
	Password string
}

// Populate registers n demo accounts through the account service and returns
// their credentials. The same seed yields the same accounts. Sessions opened
// by the registrations are revoked before returning.
func Populate(ctx context.Context, accounts *account.Service, seed uint64, n int) ([]Account, error) {
	faker := gofakeit.New(seed)
	seeded := make([]Account, 0, n)
	for attempts := 0; len(seeded) < n; attempts++ {
		if attempts >= n*maxAttempts {
			return seeded, fmt.Errorf("gave up after %d attempts with %d of %d accounts", attempts, len(seeded), n)
		}

		reg := account.Registration{
			Email:     faker.Email(),
			Password:  faker.Password(true, true, true, false, false, 16),
			FirstName: faker.FirstName(),
			LastName:  faker.LastName(),
		}
		login, err := accounts.Register(ctx, reg)
		switch {
		case errors.Is(err, account.ErrConflict):
			continue
		case err != nil:
			return seeded, err
		}
		if _, err = accounts.SignOut(ctx, login.Identity); err != nil {
			return seeded, err
		}

		seeded = append(seeded, Account{
			Name:     login.Identity.DisplayName(),
			Email:    login.Identity.Email,
			Password: reg.Password,
		})
	}
	return seeded, nil
}
