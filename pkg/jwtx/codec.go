package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretBytes is the smallest signing secret the codec accepts. HS256
// secrets below the hash output size weaken the MAC.
const MinSecretBytes = 32

var (
	// ErrInvalidToken is the single verification failure the codec exposes.
	// Bad signature, wrong issuer, expiry, malformed input: callers cannot
	// tell them apart, so neither can an attacker probing the endpoint.
	ErrInvalidToken = errors.New("jwtx: invalid token")

	// ErrWeakSecret reports a signing secret below MinSecretBytes.
	ErrWeakSecret = errors.New("jwtx: signing secret too short")
)

// Codec signs and verifies HS256 access tokens with a shared symmetric
// secret. It is stateless; validity is a pure function of secret, claims
// and the supplied time.
type Codec struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewCodec validates the secret up front so a misconfigured deployment
// fails at startup, not on the first login.
func NewCodec(secret []byte, issuer string, ttl time.Duration) (*Codec, error) {
	if len(secret) < MinSecretBytes {
		return nil, ErrWeakSecret
	}
	if ttl <= 0 {
		ttl = DefaultAccessTokenTTL
	}

	return &Codec{secret: secret, issuer: issuer, ttl: ttl}, nil
}

// TTL returns the configured access-token lifetime.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue signs an access token for the user valid from now until now+ttl.
func (c *Codec) Issue(userID, username string, roles []string, now time.Time) (string, error) {
	claims := NewAccessClaims(userID, username, roles, c.ttl, c.issuer, now)
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Verify parses and validates a token against the supplied time. Signature,
// issuer, nbf and exp are all checked; every failure mode collapses to
// ErrInvalidToken.
func (c *Codec) Verify(raw string, now time.Time) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)

	var claims Claims
	token, err := parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}
