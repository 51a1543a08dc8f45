package http

import (
	"net/http"

	"github.com/adlume/authd/pkg/authapi"
	"github.com/adlume/authd/pkg/httpx"
)

// RefreshHandler serves POST /v1/auth/refresh.
type RefreshHandler struct {
	*Router
}

// ServeHTTP godoc
//
//	@Summary		Refresh the session
//	@Description	Exchanges a valid refresh token for a new access token and a rotated
//	@Description	refresh token. The presented token is consumed either way: after a
//	@Description	successful call only the returned token works. Accepts the token in
//	@Description	the JSON body or the refresh cookie.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authapi.RefreshRequest	false	"Refresh token (optional with cookie)"
//	@Success		200		{object}	authapi.TokenResponse
//	@Failure		401		{object}	authapi.ErrorResponse	"invalid_token or token_expired"
//	@Failure		500		{object}	authapi.ErrorResponse
//	@Router			/v1/auth/refresh [post]
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authapi.RefreshRequest
	if r.ContentLength > 0 {
		if !decodeJSON(w, r, &req) {
			return
		}
	}

	opaque := refreshTokenFromRequest(r, req.RefreshToken)
	if opaque == "" {
		authapi.ErrInvalidToken.WriteError(w)
		return
	}

	pair, err := h.AuthService.RefreshSession(r.Context(), opaque)
	if err != nil {
		setRefreshCookie(w, "", -1, h.CookieSecure)
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
