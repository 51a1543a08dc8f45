package authapi

// TokenResponse is returned from the login and refresh endpoints.
type TokenResponse struct {
	// AccessToken is the JWT used to authenticate API requests.
	AccessToken string `json:"access_token"`

	// RefreshToken is the opaque token used to obtain new access tokens.
	RefreshToken string `json:"refresh_token,omitempty"`

	// TokenType is always "Bearer".
	TokenType string `json:"token_type"`

	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int `json:"expires_in"`
}

// ErrorResponse is the JSON error envelope every endpoint uses.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterResponse confirms a created account.
type RegisterResponse struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

// LoginRequest carries the credential pair.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest carries the opaque refresh token. Optional when the
// refresh cookie is present.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

// LogoutRequest carries the refresh token to invalidate. Optional when
// the refresh cookie is present.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

// PasswordResetRequest starts the reset flow for a username.
type PasswordResetRequest struct {
	Username string `json:"username"`
}

// PasswordResetRequestResponse is deliberately identical for known and
// unknown usernames.
type PasswordResetRequestResponse struct {
	Message string `json:"message"`
}

// ResetValidateResponse reports whether a reset token is usable.
type ResetValidateResponse struct {
	Valid bool `json:"valid"`
}

// PasswordResetConfirm redeems a reset token with a new password.
type PasswordResetConfirm struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// UserInfoResponse echoes the verified access token identity.
type UserInfoResponse struct {
	Subject  string   `json:"sub"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// HealthResponse is returned from /healthz and /readyz.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime,omitempty"`
	Version string `json:"version,omitempty"`
}
