package http

import (
	"net/http"

	"github.com/adlume/authd/pkg/authapi"
)

// LogoutHandler serves POST /v1/auth/logout.
type LogoutHandler struct {
	*Router
}

// ServeHTTP godoc
//
//	@Summary		Log out
//	@Description	Invalidates the presented refresh token and clears the refresh cookie.
//	@Description	Idempotent: unknown, expired or missing tokens still return 204.
//	@Tags			Auth
//	@Accept			json
//	@Param			request	body	authapi.LogoutRequest	false	"Refresh token (optional with cookie)"
//	@Success		204		"logged out"
//	@Failure		500		{object}	authapi.ErrorResponse
//	@Router			/v1/auth/logout [post]
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authapi.LogoutRequest
	if r.ContentLength > 0 {
		if !decodeJSON(w, r, &req) {
			return
		}
	}

	opaque := refreshTokenFromRequest(r, req.RefreshToken)

	if err := h.AuthService.Logout(r.Context(), opaque); err != nil {
		writeServiceError(w, r, err)
		return
	}

	setRefreshCookie(w, "", -1, h.CookieSecure)
	w.WriteHeader(http.StatusNoContent)
}
