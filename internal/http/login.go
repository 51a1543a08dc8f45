package http

import (
	"net/http"

	"github.com/adlume/authd/pkg/authapi"
	"github.com/adlume/authd/pkg/httpx"
)

// LoginHandler serves POST /v1/auth/login.
type LoginHandler struct {
	*Router
}

// ServeHTTP godoc
//
//	@Summary		Log in with username and password
//	@Description	Verifies credentials and issues a JWT access token plus an opaque refresh token.
//	@Description	The refresh token is also set as an HTTP-only cookie for browser clients.
//	@Description	Any earlier refresh token for the user stops working.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authapi.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authapi.TokenResponse
//	@Failure		400		{object}	authapi.ErrorResponse
//	@Failure		401		{object}	authapi.ErrorResponse	"invalid_credentials"
//	@Failure		500		{object}	authapi.ErrorResponse
//	@Header			200		{string}	Cache-Control			"no-store"
//	@Router			/v1/auth/login [post]
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authapi.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Username == "" || req.Password == "" {
		authapi.ErrInvalidRequest.WriteError(w)
		return
	}

	pair, err := h.AuthService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	setRefreshCookie(w, pair.RefreshToken, int(h.AuthService.Refresh.RefreshTTL.Seconds()), h.CookieSecure)
	httpx.WriteJSON(w, http.StatusOK, authapi.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    int(pair.ExpiresIn.Seconds()),
	})
}
