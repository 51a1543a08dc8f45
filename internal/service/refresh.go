package service

import (
	"context"
	"errors"
	"time"

	"github.com/adlume/authd/internal/domain"
	"github.com/adlume/authd/internal/store"
	"github.com/adlume/authd/pkg/cryptox"
	"github.com/adlume/authd/pkg/idx"
	"github.com/adlume/authd/pkg/jwtx"
)

// RefreshTokenService manages opaque refresh tokens. Only fingerprints
// are persisted; the opaque value exists solely in the response that
// carried it to the client. Each user holds at most one active refresh
// token, so issuing replaces any predecessor atomically.
type RefreshTokenService struct {
	Store      store.Store
	RefreshTTL time.Duration

	// Now is the clock used for expiry checks. Defaults to time.Now.
	Now func() time.Time
}

func (s *RefreshTokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *RefreshTokenService) ttl() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return jwtx.DefaultRefreshTokenTTL
}

// Issue mints a new opaque refresh token for userID, replacing every
// existing token for that user in the same transaction. Returns the
// opaque value to hand to the client.
func (s *RefreshTokenService) Issue(ctx context.Context, userID string) (string, error) {
	opaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}

	record := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    userID,
		TokenHash: cryptox.FingerprintToken(opaque),
		ExpiresAt: s.now().Add(s.ttl()),
		Revoked:   false,
	}

	// Delete-then-insert in one transaction keeps the one-active-token
	// invariant even under concurrent logins.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RefreshTokens().DeleteAllForUser(ctx, userID); err != nil {
			return err
		}
		return tx.RefreshTokens().CreateRefreshToken(ctx, record)
	})
	if err != nil {
		return "", err
	}

	return opaque, nil
}

// ValidateAndConsume checks a presented opaque refresh token and returns
// the owning user ID. Unknown tokens return ErrInvalidToken; expired or
// revoked tokens are deleted and return ErrTokenExpired. The stored row
// is left in place on success so the caller decides whether to rotate.
func (s *RefreshTokenService) ValidateAndConsume(ctx context.Context, opaque string) (string, error) {
	if opaque == "" {
		return "", ErrInvalidToken
	}

	fp := cryptox.FingerprintToken(opaque)
	record, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, fp)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidToken
		}
		return "", err
	}

	if record.Revoked || !s.now().Before(record.ExpiresAt) {
		// Stale rows are removed eagerly so a replayed token cannot be
		// distinguished from one that never existed on the next attempt.
		if err := s.Store.RefreshTokens().DeleteRefreshToken(ctx, fp); err != nil && !errors.Is(err, store.ErrNotFound) {
			return "", err
		}
		return "", ErrTokenExpired
	}

	return record.UserID, nil
}

// RevokeAllForUser marks every refresh token of the user revoked.
// Idempotent; a user with no tokens is not an error.
func (s *RefreshTokenService) RevokeAllForUser(ctx context.Context, userID string) error {
	return s.Store.RefreshTokens().RevokeAllForUser(ctx, userID)
}
