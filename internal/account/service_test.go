package account

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/stolasapp/turnstile/internal/config"
	"github.com/stolasapp/turnstile/internal/sec"
	"github.com/stolasapp/turnstile/internal/storage"
	"github.com/stolasapp/turnstile/internal/storage/db"
)

func newTestService(t *testing.T) (*Service, *storage.DB) {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	cfg := config.Default()
	cfg.DBFilepath = filepath.Join(t.TempDir(), "db.sqlite")
	store, err := storage.NewDB(t.Context(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	hasher, err := sec.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return New(store, hasher, logger), store
}

func fakeRegistration(faker *gofakeit.Faker) Registration {
	return Registration{
		Email:     faker.Email(),
		Password:  faker.Password(true, true, true, false, false, 16),
		FirstName: faker.FirstName(),
		LastName:  faker.LastName(),
	}
}

func resolves(t *testing.T, store storage.Sessions, token string) (sec.Identity, bool) {
	t.Helper()
	ident, ok, err := sec.Resolve(t.Context(), slog.New(slog.DiscardHandler), store, token)
	require.NoError(t, err)
	return ident, ok
}

func TestService_Walkthrough(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)

	first, err := svc.Register(t.Context(), Registration{
		Email:     "alice@x.com",
		Password:  "pw1",
		FirstName: "Alice",
		LastName:  "Liddell",
	})
	require.NoError(t, err)
	ident, ok := resolves(t, store, first.Token)
	require.True(t, ok)
	assert.Equal(t, first.Identity, ident)
	assert.Equal(t, "Alice Liddell", ident.DisplayName())

	second, err := svc.SignIn(t.Context(), Credentials{Email: "alice@x.com", Password: "pw1"})
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)
	assert.Equal(t, first.Identity.UserID, second.Identity.UserID)
	for _, tkn := range []string{first.Token, second.Token} {
		ident, ok = resolves(t, store, tkn)
		require.True(t, ok)
		assert.Equal(t, first.Identity.UserID, ident.UserID)
	}

	err = svc.UpdateCredentials(t.Context(), first.Identity, Credentials{Email: "alice2@x.com", Password: "pw2"})
	require.NoError(t, err)
	for _, tkn := range []string{first.Token, second.Token} {
		_, ok = resolves(t, store, tkn)
		assert.False(t, ok)
	}

	_, err = svc.SignIn(t.Context(), Credentials{Email: "alice@x.com", Password: "pw1"})
	require.ErrorIs(t, err, ErrAuthentication)
	_, err = svc.SignIn(t.Context(), Credentials{Email: "alice2@x.com", Password: "pw1"})
	require.ErrorIs(t, err, ErrAuthentication)

	third, err := svc.SignIn(t.Context(), Credentials{Email: "alice2@x.com", Password: "pw2"})
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, third.Token)
	assert.NotEqual(t, second.Token, third.Token)
	ident, ok = resolves(t, store, third.Token)
	require.True(t, ok)
	assert.Equal(t, "alice2@x.com", ident.Email)
	assert.Equal(t, first.Identity.UserID, ident.UserID)
}

func TestService_Register(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	faker := gofakeit.New(1)

	reg := fakeRegistration(faker)
	login, err := svc.Register(t.Context(), reg)
	require.NoError(t, err)
	assert.Equal(t, strings.ToLower(reg.Email), login.Identity.Email)
	assert.Equal(t, reg.FirstName, login.Identity.FirstName)
	assert.Equal(t, reg.LastName, login.Identity.LastName)
	assert.NotEmpty(t, login.Token)

	user, err := store.GetUserByEmail(t.Context(), login.Identity.Email)
	require.NoError(t, err)
	assert.NotEqual(t, []byte(reg.Password), user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(reg.Password)))

	t.Run("duplicate email", func(t *testing.T) {
		t.Parallel()
		dup := fakeRegistration(gofakeit.New(2))
		dup.Email = strings.ToUpper(reg.Email)
		_, err := svc.Register(t.Context(), dup)
		require.ErrorIs(t, err, ErrConflict)
	})

	t.Run("email is normalized", func(t *testing.T) {
		t.Parallel()
		in := fakeRegistration(gofakeit.New(3))
		in.Email = "  Mixed.Case@Example.COM "
		login, err := svc.Register(t.Context(), in)
		require.NoError(t, err)
		assert.Equal(t, "mixed.case@example.com", login.Identity.Email)

		_, err = svc.SignIn(t.Context(), Credentials{Email: "MIXED.case@example.com", Password: in.Password})
		require.NoError(t, err)
	})
}

func TestService_RegisterValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)

	valid := Registration{
		Email:     "valid@example.com",
		Password:  "password",
		FirstName: "Valid",
		LastName:  "O'Brien",
	}

	tests := []struct {
		name   string
		mutate func(r *Registration)
		field  string
	}{
		{name: "missing email", mutate: func(r *Registration) { r.Email = "" }, field: "Email"},
		{name: "malformed email", mutate: func(r *Registration) { r.Email = "not-an-email" }, field: "Email"},
		{name: "missing password", mutate: func(r *Registration) { r.Password = "" }, field: "Password"},
		{name: "long password", mutate: func(r *Registration) { r.Password = strings.Repeat("p", 73) }, field: "Password"},
		{name: "missing first name", mutate: func(r *Registration) { r.FirstName = "   " }, field: "FirstName"},
		{name: "markup in last name", mutate: func(r *Registration) { r.LastName = "<script>x</script>" }, field: "LastName"},
		{name: "long first name", mutate: func(r *Registration) { r.FirstName = strings.Repeat("a", 201) }, field: "FirstName"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			in := valid
			test.mutate(&in)
			_, err := svc.Register(t.Context(), in)
			var verr ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, err.Error(), test.field)
		})
	}

	_, err := svc.Register(t.Context(), valid)
	require.NoError(t, err)
}

func TestService_SignIn(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	reg := fakeRegistration(gofakeit.New(4))
	_, err := svc.Register(t.Context(), reg)
	require.NoError(t, err)

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		t.Parallel()
		_, wrongPassword := svc.SignIn(t.Context(), Credentials{Email: reg.Email, Password: reg.Password + "x"})
		_, unknownEmail := svc.SignIn(t.Context(), Credentials{Email: "nobody@example.com", Password: reg.Password})
		require.ErrorIs(t, wrongPassword, ErrAuthentication)
		require.ErrorIs(t, unknownEmail, ErrAuthentication)
		assert.Equal(t, wrongPassword, unknownEmail)
	})

	t.Run("missing fields", func(t *testing.T) {
		t.Parallel()
		_, err := svc.SignIn(t.Context(), Credentials{Email: reg.Email})
		var verr ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("concurrent sign ins each get a session", func(t *testing.T) {
		t.Parallel()
		const n = 4
		tokens := make([]string, n)
		var wg sync.WaitGroup
		for i := range n {
			wg.Go(func() {
				login, err := svc.SignIn(t.Context(), Credentials{Email: reg.Email, Password: reg.Password})
				assert.NoError(t, err)
				tokens[i] = login.Token
			})
		}
		wg.Wait()
		seen := map[string]bool{}
		for _, tkn := range tokens {
			require.NotEmpty(t, tkn)
			require.False(t, seen[tkn])
			seen[tkn] = true
		}
	})
}

func TestService_SignOut(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	faker := gofakeit.New(5)

	reg := fakeRegistration(faker)
	first, err := svc.Register(t.Context(), reg)
	require.NoError(t, err)
	second, err := svc.SignIn(t.Context(), Credentials{Email: reg.Email, Password: reg.Password})
	require.NoError(t, err)

	other, err := svc.Register(t.Context(), fakeRegistration(faker))
	require.NoError(t, err)

	count, err := svc.SignOut(t.Context(), second.Identity)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	for _, tkn := range []string{first.Token, second.Token} {
		_, ok := resolves(t, store, tkn)
		assert.False(t, ok)
	}
	_, ok := resolves(t, store, other.Token)
	assert.True(t, ok)

	// signing in again still works
	_, err = svc.SignIn(t.Context(), Credentials{Email: reg.Email, Password: reg.Password})
	require.NoError(t, err)
}

func TestService_UpdateCredentials(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	faker := gofakeit.New(6)

	taken, err := svc.Register(t.Context(), fakeRegistration(faker))
	require.NoError(t, err)

	reg := fakeRegistration(faker)
	login, err := svc.Register(t.Context(), reg)
	require.NoError(t, err)

	err = svc.UpdateCredentials(t.Context(), login.Identity, Credentials{Email: taken.Identity.Email, Password: "new"})
	require.ErrorIs(t, err, ErrConflict)
	// a rejected update leaves the session alone
	_, ok := resolves(t, store, login.Token)
	assert.True(t, ok)

	err = svc.UpdateCredentials(t.Context(), login.Identity, Credentials{Email: "bad", Password: "new"})
	var verr ValidationError
	require.ErrorAs(t, err, &verr)

	// keeping the same email is allowed
	err = svc.UpdateCredentials(t.Context(), login.Identity, Credentials{Email: reg.Email, Password: "changed"})
	require.NoError(t, err)
	_, ok = resolves(t, store, login.Token)
	assert.False(t, ok)

	_, err = svc.SignIn(t.Context(), Credentials{Email: reg.Email, Password: "changed"})
	require.NoError(t, err)
}

func TestService_ConcurrentRegister(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)

	const attempts = 6
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := range attempts {
		wg.Go(func() {
			_, errs[i] = svc.Register(t.Context(), Registration{
				Email:     "race@example.com",
				Password:  "password",
				FirstName: "Race",
				LastName:  "Condition",
			})
		})
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, ErrConflict)
	}
	assert.Equal(t, 1, succeeded)
}

func TestService_TokenCollision(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	svc.newToken = func() string { return "not-very-random" }

	reg := fakeRegistration(gofakeit.New(7))
	_, err := svc.Register(t.Context(), reg)
	require.NoError(t, err)

	_, err = svc.SignIn(t.Context(), Credentials{Email: reg.Email, Password: reg.Password})
	var serr StoreError
	require.ErrorAs(t, err, &serr)
	require.ErrorIs(t, err, storage.ErrTokenCollision)
	assert.NotContains(t, err.Error(), "collision")

	_, err = svc.Register(t.Context(), fakeRegistration(gofakeit.New(8)))
	require.ErrorIs(t, err, storage.ErrTokenCollision)
}

type failingStore struct {
	Store
}

var errDisk = errors.New("disk on fire")

func (failingStore) GetUserByEmail(context.Context, string) (db.User, error) {
	return db.User{}, errDisk
}

func (failingStore) DeleteSessionsForUser(context.Context, uint64) (int64, error) {
	return 0, errDisk
}

func TestService_StoreFailure(t *testing.T) {
	t.Parallel()

	hasher, err := sec.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	svc := New(failingStore{}, hasher, slog.New(slog.DiscardHandler))

	_, err = svc.SignIn(t.Context(), Credentials{Email: "a@example.com", Password: "pw"})
	var serr StoreError
	require.ErrorAs(t, err, &serr)
	require.ErrorIs(t, err, errDisk)
	assert.NotErrorIs(t, err, ErrAuthentication)

	_, err = svc.SignOut(t.Context(), sec.Identity{UserID: 1})
	require.ErrorIs(t, err, errDisk)
}

type revokeFailingStore struct {
	*storage.DB
}

func (revokeFailingStore) DeleteSessionsForUser(context.Context, uint64) (int64, error) {
	return 0, errDisk
}

func TestService_UpdateCredentialsRevokeFailure(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	login, err := svc.Register(t.Context(), Registration{
		Email: "a@example.com", Password: "pw1", FirstName: "Ada", LastName: "Lovelace",
	})
	require.NoError(t, err)

	broken := New(revokeFailingStore{store}, svc.hasher, slog.New(slog.DiscardHandler))
	err = broken.UpdateCredentials(t.Context(), login.Identity, Credentials{Email: "b@example.com", Password: "pw2"})
	var serr StoreError
	require.ErrorAs(t, err, &serr)
	require.ErrorIs(t, err, errDisk)

	// the credentials changed but the old session survives
	_, err = svc.SignIn(t.Context(), Credentials{Email: "b@example.com", Password: "pw2"})
	require.NoError(t, err)
	_, ok := resolves(t, store, login.Token)
	assert.True(t, ok)

	_, err = svc.SignOut(t.Context(), login.Identity)
	require.NoError(t, err)
	_, ok = resolves(t, store, login.Token)
	assert.False(t, ok)
}
