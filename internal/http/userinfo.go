package http

import (
	"net/http"

	"github.com/adlume/authd/pkg/authapi"
	"github.com/adlume/authd/pkg/httpx"
)

// UserInfoHandler serves GET /v1/userinfo behind the authn middleware.
type UserInfoHandler struct{}

// ServeHTTP godoc
//
//	@Summary		Current identity
//	@Description	Returns the identity claims of the verified access token.
//	@Tags			Auth
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	authapi.UserInfoResponse
//	@Failure		401	{string}	string	"missing or invalid bearer token"
//	@Router			/v1/userinfo [get]
func (h *UserInfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok {
		authapi.ErrInvalidToken.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authapi.UserInfoResponse{
		Subject:  claims.Subject,
		Username: claims.Username,
		Roles:    claims.Roles,
	})
}
