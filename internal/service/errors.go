package service

import "errors"

// Functional errors callers are expected to branch on. The HTTP layer
// maps these to machine-readable error codes; anything else is treated
// as a technical error and surfaces as server_error.
var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidToken       = errors.New("invalid_token")
	ErrTokenExpired       = errors.New("token_expired")
	ErrUserNotFound       = errors.New("user_not_found")
	ErrUsernameTaken      = errors.New("username_already_exists")
	ErrEmailTaken         = errors.New("email_already_exists")
)
