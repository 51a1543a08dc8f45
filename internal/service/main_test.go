package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adlume/authd/internal/domain"
	"github.com/adlume/authd/internal/store"
	"github.com/adlume/authd/internal/store/sqlite"
	"github.com/adlume/authd/pkg/cryptox"
	"github.com/adlume/authd/pkg/idx"
	"github.com/adlume/authd/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "authd-service-test-")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper.key"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func newTestCodec(t *testing.T) *jwtx.Codec {
	t.Helper()

	codec, err := jwtx.NewCodec([]byte("0123456789abcdef0123456789abcdef"), "authd-test", 15*time.Minute)
	require.NoError(t, err)
	return codec
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

// seedUser creates an enabled user with a real argon2 hash for password.
func seedUser(t *testing.T, st store.Store, username, email, password string) domain.User {
	t.Helper()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	u := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Roles:        []string{domain.DefaultRole},
		Enabled:      true,
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), u))
	return u
}
