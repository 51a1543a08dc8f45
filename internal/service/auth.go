package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/adlume/authd/internal/domain"
	"github.com/adlume/authd/internal/metrics"
	"github.com/adlume/authd/internal/store"
	"github.com/adlume/authd/pkg/cryptox"
	"github.com/adlume/authd/pkg/idx"
	"github.com/adlume/authd/pkg/jwtx"
	"github.com/adlume/authd/pkg/slogx"
)

// AuthService orchestrates credential verification and token issuance.
// It owns the login, refresh, logout and registration flows and leans on
// RefreshTokenService for the opaque token lifecycle.
type AuthService struct {
	Store   store.Store
	Codec   *jwtx.Codec
	Refresh *RefreshTokenService
	Metrics metrics.Recorder

	Now func() time.Time
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *AuthService) recorder() metrics.Recorder {
	if s.Metrics != nil {
		return s.Metrics
	}
	return metrics.Nop{}
}

// Login verifies a username/password pair and issues a fresh token pair.
// Wrong password, unknown user and disabled account all fail with
// ErrInvalidCredentials; an argon2 compare runs against a throwaway hash
// for unknown users so the three cases are indistinguishable by timing.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.TokenPair, error) {
	l := slogx.FromContext(ctx)
	now := s.now()

	user, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			cryptox.DummyVerify(password)
			s.recorder().RecordLogin(metrics.LoginFailure)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Info("login failed", slog.String("username", username))
			s.recorder().RecordLogin(metrics.LoginFailure)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.Enabled {
		l.Info("login attempt on disabled account", slog.String("user_id", user.ID))
		s.recorder().RecordLogin(metrics.LoginDisabled)
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, user, now)
	if err != nil {
		return nil, err
	}

	s.recorder().RecordLogin(metrics.LoginSuccess)
	return pair, nil
}

// RefreshSession exchanges a valid opaque refresh token for a new token
// pair, rotating the refresh token in the process. The old opaque value
// is dead after a successful call.
func (s *AuthService) RefreshSession(ctx context.Context, refreshOpaque string) (*domain.TokenPair, error) {
	now := s.now()

	userID, err := s.Refresh.ValidateAndConsume(ctx, refreshOpaque)
	if err != nil {
		return nil, err
	}

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Token outlived its user somehow; clear whatever is left.
			_ = s.Refresh.RevokeAllForUser(ctx, userID)
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if !user.Enabled {
		if err := s.Refresh.RevokeAllForUser(ctx, userID); err != nil {
			return nil, err
		}
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, user, now)
	if err != nil {
		return nil, err
	}

	s.recorder().RecordRefreshRotation()
	return pair, nil
}

// Logout ends the session behind a presented refresh token: when the
// token resolves to a user, every refresh token of that user is removed.
// Best effort and idempotent: unknown or empty tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, refreshOpaque string) error {
	if refreshOpaque == "" {
		return nil
	}

	fp := cryptox.FingerprintToken(refreshOpaque)
	record, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, fp)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	return s.Store.RefreshTokens().DeleteAllForUser(ctx, record.UserID)
}

// Register creates a new enabled user with the default role. Usernames
// and emails are unique; conflicts map to ErrUsernameTaken/ErrEmailTaken.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if _, err := s.Store.Users().GetUserByUsername(ctx, username); err == nil {
		return domain.User{}, ErrUsernameTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.User{}, err
	}

	if _, err := s.Store.Users().GetUserByEmail(ctx, email); err == nil {
		return domain.User{}, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.User{}, err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Roles:        []string{domain.DefaultRole},
		Enabled:      true,
	}

	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		// The pre-checks race with concurrent registrations; the unique
		// indexes are the source of truth.
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrUsernameTaken
		}
		return domain.User{}, err
	}

	s.recorder().RecordRegistration()
	return user, nil
}

func (s *AuthService) issuePair(ctx context.Context, user domain.User, now time.Time) (*domain.TokenPair, error) {
	access, err := s.Codec.Issue(user.ID, user.Username, user.Roles, now)
	if err != nil {
		return nil, err
	}

	refresh, err := s.Refresh.Issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    s.Codec.TTL(),
	}, nil
}
