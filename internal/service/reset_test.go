package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/adlume/authd/internal/store"
	"github.com/adlume/authd/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

// captureSender records the last reset email instead of sending it.
type captureSender struct {
	mu    sync.Mutex
	to    string
	token string
	fail  error
}

func (c *captureSender) SendPasswordResetEmail(ctx context.Context, to, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail != nil {
		return c.fail
	}
	c.to = to
	c.token = token
	return nil
}

func newResetService(st store.Store, mailer *captureSender) *PasswordResetService {
	return &PasswordResetService{Store: st, Mailer: mailer, ResetTTL: time.Hour}
}

func TestResetRequestEmailsToken(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := seedUser(t, st, "alice", "alice@example.com", "old password")

	mailer := &captureSender{}
	svc := newResetService(st, mailer)

	require.NoError(t, svc.Request(ctx, "alice"))
	require.Equal(t, user.Email, mailer.to)
	require.NotEmpty(t, mailer.token)

	ok, err := svc.Validate(ctx, mailer.token)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestResetRequestUnknownUser(t *testing.T) {
	svc := newResetService(newTestStore(t), &captureSender{})

	err := svc.Request(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestResetRequestReplacesOutstandingToken(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	seedUser(t, st, "bob", "bob@example.com", "pw")

	mailer := &captureSender{}
	svc := newResetService(st, mailer)

	require.NoError(t, svc.Request(ctx, "bob"))
	first := mailer.token

	require.NoError(t, svc.Request(ctx, "bob"))
	second := mailer.token
	require.NotEqual(t, first, second)

	ok, err := svc.Validate(ctx, first)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = svc.Validate(ctx, second)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestResetRequestTokenSurvivesMailFailure(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := seedUser(t, st, "carol", "carol@example.com", "pw")

	mailer := &captureSender{fail: errors.New("relay down")}
	svc := newResetService(st, mailer)

	err := svc.Request(ctx, "carol")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrUserNotFound)

	// The token committed before the send, so exactly one row exists.
	require.NoError(t, st.ResetTokens().DeleteAllForUser(ctx, user.ID))
}

func TestResetConsumeChangesPasswordAndEndsSessions(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := seedUser(t, st, "dave", "dave@example.com", "old password")

	refreshSvc := &RefreshTokenService{Store: st, RefreshTTL: time.Hour}
	refreshOpaque, err := refreshSvc.Issue(ctx, user.ID)
	require.NoError(t, err)

	mailer := &captureSender{}
	svc := newResetService(st, mailer)

	require.NoError(t, svc.Request(ctx, "dave"))
	require.NoError(t, svc.Consume(ctx, mailer.token, "new password"))

	updated, err := st.Users().GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.NoError(t, cryptox.VerifyPassword("new password", updated.PasswordHash))
	require.ErrorIs(t, cryptox.VerifyPassword("old password", updated.PasswordHash), cryptox.ErrPasswordMismatch)

	// Existing sessions ended with the password change.
	_, err = refreshSvc.ValidateAndConsume(ctx, refreshOpaque)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestResetTokenIsSingleUse(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	seedUser(t, st, "erin", "erin@example.com", "pw")

	mailer := &captureSender{}
	svc := newResetService(st, mailer)

	require.NoError(t, svc.Request(ctx, "erin"))
	token := mailer.token

	require.NoError(t, svc.Consume(ctx, token, "first new password"))

	err := svc.Consume(ctx, token, "second new password")
	require.ErrorIs(t, err, ErrInvalidToken)

	ok, err := svc.Validate(ctx, token)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestResetTokenExpiry(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	seedUser(t, st, "frank", "frank@example.com", "pw")

	issuedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	mailer := &captureSender{}
	svc := newResetService(st, mailer)
	svc.Now = fixedClock(issuedAt)

	require.NoError(t, svc.Request(ctx, "frank"))
	token := mailer.token

	svc.Now = fixedClock(issuedAt.Add(time.Hour))

	ok, err := svc.Validate(ctx, token)
	require.NoError(t, err)
	require.False(t, ok)

	err = svc.Consume(ctx, token, "too late")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestResetConsumeUnknownToken(t *testing.T) {
	svc := newResetService(newTestStore(t), &captureSender{})

	require.ErrorIs(t, svc.Consume(context.Background(), "never issued", "pw"), ErrInvalidToken)
	require.ErrorIs(t, svc.Consume(context.Background(), "", "pw"), ErrInvalidToken)
}
