// Package mail delivers account notification emails.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"net/url"
	"strings"
)

// Sender delivers a password reset message to a recipient. The token is
// the opaque reset value; implementations embed it in a reset link and
// must never persist or log it.
type Sender interface {
	SendPasswordResetEmail(ctx context.Context, to, token string) error
}

// SMTPConfig holds connection settings for the outbound mail relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string

	// ResetBaseURL is the frontend page the reset link points at. The
	// token is appended as a query parameter.
	ResetBaseURL string
}

// SMTPSender sends mail through a plain SMTP relay using net/smtp.
type SMTPSender struct {
	cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) SendPasswordResetEmail(ctx context.Context, to, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	link := ResetLink(s.cfg.ResetBaseURL, token)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	b.WriteString("Subject: Password reset request\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString("A password reset was requested for your account.\r\n\r\n")
	fmt.Fprintf(&b, "Reset your password: %s\r\n\r\n", link)
	b.WriteString("If you did not request this, you can ignore this email.\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(b.String())); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}
	return nil
}

// ResetLink builds the frontend reset URL carrying the opaque token.
func ResetLink(baseURL, token string) string {
	u, err := url.Parse(baseURL)
	if err != nil || baseURL == "" {
		return baseURL
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}
