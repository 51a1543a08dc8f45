package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/adlume/authd/internal/domain"
	"github.com/adlume/authd/internal/mail"
	"github.com/adlume/authd/internal/metrics"
	"github.com/adlume/authd/internal/store"
	"github.com/adlume/authd/pkg/cryptox"
	"github.com/adlume/authd/pkg/idx"
	"github.com/adlume/authd/pkg/jwtx"
	"github.com/adlume/authd/pkg/slogx"
)

// PasswordResetService issues, validates and consumes single-use
// password reset tokens. A user has at most one outstanding reset token;
// requesting a new one replaces it. Consuming a token changes the
// password, removes every reset token for the user, and revokes all
// refresh tokens so existing sessions end.
type PasswordResetService struct {
	Store    store.Store
	Mailer   mail.Sender
	Metrics  metrics.Recorder
	ResetTTL time.Duration

	Now func() time.Time
}

func (s *PasswordResetService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *PasswordResetService) ttl() time.Duration {
	if s.ResetTTL > 0 {
		return s.ResetTTL
	}
	return jwtx.DefaultResetTokenTTL
}

func (s *PasswordResetService) recorder() metrics.Recorder {
	if s.Metrics != nil {
		return s.Metrics
	}
	return metrics.Nop{}
}

// Request issues a reset token for the user identified by username and
// emails it. Unknown users return ErrUserNotFound; the HTTP layer hides
// that distinction behind a generic message. The token is committed
// before the email is sent, so a failed send leaves a valid token that a
// retried request replaces.
func (s *PasswordResetService) Request(ctx context.Context, username string) error {
	l := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	opaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return err
	}

	record := domain.PasswordResetToken{
		ID:        idx.New().String(),
		UserID:    user.ID,
		TokenHash: cryptox.FingerprintToken(opaque),
		ExpiresAt: s.now().Add(s.ttl()),
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.ResetTokens().DeleteAllForUser(ctx, user.ID); err != nil {
			return err
		}
		return tx.ResetTokens().CreateResetToken(ctx, record)
	})
	if err != nil {
		return err
	}

	s.recorder().RecordResetRequested()

	if err := s.Mailer.SendPasswordResetEmail(ctx, user.Email, opaque); err != nil {
		l.Error("failed to send password reset email",
			slog.Any("error", err),
			slog.String("user_id", user.ID),
		)
		return fmt.Errorf("deliver reset email: %w", err)
	}

	return nil
}

// Validate reports whether a presented reset token is currently usable.
// Expired rows are deleted lazily on the way out.
func (s *PasswordResetService) Validate(ctx context.Context, opaque string) (bool, error) {
	if opaque == "" {
		return false, nil
	}

	fp := cryptox.FingerprintToken(opaque)
	record, err := s.Store.ResetTokens().GetResetTokenByHash(ctx, fp)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if record.Used || !s.now().Before(record.ExpiresAt) {
		if err := s.Store.ResetTokens().DeleteResetToken(ctx, fp); err != nil && !errors.Is(err, store.ErrNotFound) {
			return false, err
		}
		return false, nil
	}

	return true, nil
}

// Consume redeems a reset token and sets the user's password. The hash
// update, the removal of every reset token for the user, and the
// revocation of all their refresh tokens commit together. A second
// consume of the same token fails with ErrInvalidToken.
func (s *PasswordResetService) Consume(ctx context.Context, opaque, newPassword string) error {
	if opaque == "" {
		return ErrInvalidToken
	}

	fp := cryptox.FingerprintToken(opaque)
	record, err := s.Store.ResetTokens().GetResetTokenByHash(ctx, fp)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	if record.Used || !s.now().Before(record.ExpiresAt) {
		if err := s.Store.ResetTokens().DeleteResetToken(ctx, fp); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		return ErrTokenExpired
	}

	newHash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdatePasswordHash(ctx, record.UserID, newHash); err != nil {
			return err
		}
		if err := tx.ResetTokens().DeleteAllForUser(ctx, record.UserID); err != nil {
			return err
		}
		// Password change ends every existing session.
		return tx.RefreshTokens().RevokeAllForUser(ctx, record.UserID)
	})
	if err != nil {
		return err
	}

	s.recorder().RecordResetCompleted()
	return nil
}
