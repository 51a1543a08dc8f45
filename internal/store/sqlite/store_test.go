package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/adlume/authd/internal/domain"
	"github.com/adlume/authd/internal/store"
	"github.com/adlume/authd/internal/store/sqlite"
	"github.com/adlume/authd/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func newTestUser(username, email string) domain.User {
	return domain.User{
		ID:           idx.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		Roles:        []string{domain.DefaultRole},
		Enabled:      true,
	}
}

func TestUsersRepo(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	alice := newTestUser("alice", "alice@example.com")
	require.NoError(t, s.Users().CreateUser(ctx, alice))

	t.Run("lookup by id, username, email", func(t *testing.T) {
		byID, err := s.Users().GetUserByID(ctx, alice.ID)
		require.NoError(t, err)
		require.Equal(t, "alice", byID.Username)
		require.Equal(t, []string{"user"}, byID.Roles)
		require.True(t, byID.Enabled)

		byName, err := s.Users().GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, alice.ID, byName.ID)

		byEmail, err := s.Users().GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.Equal(t, alice.ID, byEmail.ID)
	})

	t.Run("missing users map to ErrNotFound", func(t *testing.T) {
		_, err := s.Users().GetUserByUsername(ctx, "ghost")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicate username maps to ErrAlreadyExists", func(t *testing.T) {
		err := s.Users().CreateUser(ctx, newTestUser("alice", "other@example.com"))
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("duplicate email maps to ErrAlreadyExists", func(t *testing.T) {
		err := s.Users().CreateUser(ctx, newTestUser("bob", "alice@example.com"))
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("password hash update", func(t *testing.T) {
		require.NoError(t, s.Users().UpdatePasswordHash(ctx, alice.ID, "new-hash"))

		got, err := s.Users().GetUserByID(ctx, alice.ID)
		require.NoError(t, err)
		require.Equal(t, "new-hash", got.PasswordHash)
	})
}

func TestRefreshTokensRepo(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	user := newTestUser("carol", "carol@example.com")
	require.NoError(t, s.Users().CreateUser(ctx, user))

	mk := func(hash string, expires time.Time) domain.RefreshToken {
		return domain.RefreshToken{
			ID:        idx.New().String(),
			UserID:    user.ID,
			TokenHash: hash,
			ExpiresAt: expires,
		}
	}

	future := time.Now().Add(time.Hour).UTC()

	require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, mk("hash-1", future)))

	t.Run("lookup by hash round-trips", func(t *testing.T) {
		got, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, "hash-1")
		require.NoError(t, err)
		require.Equal(t, user.ID, got.UserID)
		require.False(t, got.Revoked)
		require.WithinDuration(t, future, got.ExpiresAt, time.Second)
	})

	t.Run("duplicate hash rejected", func(t *testing.T) {
		err := s.RefreshTokens().CreateRefreshToken(ctx, mk("hash-1", future))
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("revoke all for user", func(t *testing.T) {
		require.NoError(t, s.RefreshTokens().RevokeAllForUser(ctx, user.ID))

		got, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, "hash-1")
		require.NoError(t, err)
		require.True(t, got.Revoked)

		// Idempotent on repeat, and for users with no tokens.
		require.NoError(t, s.RefreshTokens().RevokeAllForUser(ctx, user.ID))
		require.NoError(t, s.RefreshTokens().RevokeAllForUser(ctx, "no-such-user"))
	})

	t.Run("delete all for user", func(t *testing.T) {
		require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, mk("hash-2", future)))
		require.NoError(t, s.RefreshTokens().DeleteAllForUser(ctx, user.ID))

		_, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, "hash-1")
		require.ErrorIs(t, err, store.ErrNotFound)
		_, err = s.RefreshTokens().GetRefreshTokenByHash(ctx, "hash-2")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete expired removes only stale rows", func(t *testing.T) {
		now := time.Now().UTC()
		require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, mk("stale", now.Add(-time.Minute))))
		require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, mk("fresh", now.Add(time.Hour))))

		require.NoError(t, s.RefreshTokens().DeleteExpired(ctx, now))

		_, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, "stale")
		require.ErrorIs(t, err, store.ErrNotFound)
		_, err = s.RefreshTokens().GetRefreshTokenByHash(ctx, "fresh")
		require.NoError(t, err)
	})
}

func TestResetTokensRepo(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	user := newTestUser("dave", "dave@example.com")
	require.NoError(t, s.Users().CreateUser(ctx, user))

	tok := domain.PasswordResetToken{
		ID:        idx.New().String(),
		UserID:    user.ID,
		TokenHash: "reset-hash",
		ExpiresAt: time.Now().Add(time.Hour).UTC(),
	}
	require.NoError(t, s.ResetTokens().CreateResetToken(ctx, tok))

	got, err := s.ResetTokens().GetResetTokenByHash(ctx, "reset-hash")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.UserID)
	require.False(t, got.Used)

	require.NoError(t, s.ResetTokens().DeleteAllForUser(ctx, user.ID))
	_, err = s.ResetTokens().GetResetTokenByHash(ctx, "reset-hash")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCascadeDeleteUser(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	user := newTestUser("erin", "erin@example.com")
	require.NoError(t, s.Users().CreateUser(ctx, user))
	require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    user.ID,
		TokenHash: "erin-refresh",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	require.NoError(t, s.Users().DeleteUser(ctx, user.ID))

	_, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, "erin-refresh")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sentinel := errors.New("boom")
	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, newTestUser("frank", "frank@example.com")); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	_, err = s.Users().GetUserByUsername(ctx, "frank")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTxCommits(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.WithTx(ctx, func(tx store.Tx) error {
		return tx.Users().CreateUser(ctx, newTestUser("grace", "grace@example.com"))
	}))

	_, err := s.Users().GetUserByUsername(ctx, "grace")
	require.NoError(t, err)
}
