package mail

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResetLinkAppendsToken(t *testing.T) {
	link := ResetLink("https://app.example.com/reset-password", "abc123")
	require.Equal(t, "https://app.example.com/reset-password?token=abc123", link)
}

func TestResetLinkPreservesExistingQuery(t *testing.T) {
	link := ResetLink("https://app.example.com/reset?lang=en", "tok")
	require.Contains(t, link, "lang=en")
	require.Contains(t, link, "token=tok")
}

func TestLogSenderNeverLogsToken(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSender(slog.New(slog.NewTextHandler(&buf, nil)))

	const token = "super-secret-opaque-token"
	require.NoError(t, s.SendPasswordResetEmail(context.Background(), "user@example.com", token))

	require.Contains(t, buf.String(), "user@example.com")
	require.NotContains(t, buf.String(), token)
}
