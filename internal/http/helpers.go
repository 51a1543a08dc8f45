package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/adlume/authd/internal/service"
	"github.com/adlume/authd/pkg/authapi"
	"github.com/adlume/authd/pkg/slogx"
)

// refreshCookieName is the HTTP-only cookie carrying the opaque refresh
// token for browser clients. Scoped to the auth endpoints only.
const refreshCookieName = "refresh_token"

// decodeJSON parses a JSON request body into dst. Unknown fields are
// rejected so typos surface as 400s instead of silently ignored input.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		authapi.ErrInvalidRequest.WriteError(w)
		return false
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		authapi.ErrInvalidJSONBody.WriteError(w)
		return false
	}
	return true
}

// writeServiceError maps service sentinels onto the JSON error envelope.
// Unrecognized errors are technical: logged with detail, surfaced as a
// bare server_error.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		authapi.ErrInvalidCredentials.WriteError(w)
	case errors.Is(err, service.ErrInvalidToken):
		authapi.ErrInvalidToken.WriteError(w)
	case errors.Is(err, service.ErrTokenExpired):
		authapi.ErrTokenExpired.WriteError(w)
	case errors.Is(err, service.ErrUserNotFound):
		// A token whose user vanished reads the same as a bad token.
		authapi.ErrInvalidToken.WriteError(w)
	case errors.Is(err, service.ErrUsernameTaken):
		authapi.ErrUsernameExists.WriteError(w)
	case errors.Is(err, service.ErrEmailTaken):
		authapi.ErrEmailExists.WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		authapi.ErrServerError.WriteError(w)
	}
}

// setRefreshCookie stores the rotated opaque refresh token for browser
// clients. maxAge <= 0 clears the cookie.
func setRefreshCookie(w http.ResponseWriter, value string, maxAge int, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    value,
		Path:     "/v1/auth",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// refreshTokenFromRequest prefers an explicit body value over the cookie.
func refreshTokenFromRequest(r *http.Request, bodyToken string) string {
	if bodyToken != "" {
		return bodyToken
	}
	if c, err := r.Cookie(refreshCookieName); err == nil {
		return c.Value
	}
	return ""
}
