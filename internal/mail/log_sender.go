package mail

import (
	"context"
	"log/slog"
)

// LogSender is a development Sender that records delivery intent to the
// log instead of sending mail. Only the token fingerprint length is
// implied by the log line; the raw token never reaches the log.
type LogSender struct {
	Logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{Logger: logger}
}

func (s *LogSender) SendPasswordResetEmail(ctx context.Context, to, token string) error {
	s.Logger.Info("password reset email (dev mode, not sent)",
		slog.String("to", to),
		slog.Int("token_len", len(token)),
	)
	return nil
}
