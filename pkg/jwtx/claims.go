// Package jwtx signs and verifies the stateless HS256 access tokens minted
// after a successful login or refresh.
package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTLs. Sensible security defaults, overridable via config.
const (
	// DefaultAccessTokenTTL keeps access tokens short-lived.
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultRefreshTokenTTL trades security for user convenience.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour

	// DefaultResetTokenTTL bounds the password-reset window.
	DefaultResetTokenTTL = 1 * time.Hour
)

// Claims are the access-token claims. Changes should stay additive so older
// verifiers keep working.
type Claims struct {
	jwt.RegisteredClaims

	// Username of the authenticated user, for display and audit trails.
	Username string `json:"username,omitempty"`

	// Roles granted to the user ("user", "admin").
	Roles []string `json:"roles,omitempty"`
}

// NewAccessClaims builds minimally-correct claims for a user.
func NewAccessClaims(
	subject, username string,
	roles []string,
	ttl time.Duration,
	issuer string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Username: username,
		Roles:    roles,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
