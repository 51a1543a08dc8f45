package http

import (
	"net/http"
	"strings"

	"github.com/adlume/authd/internal/service"
	"github.com/adlume/authd/pkg/authapi"
	"github.com/adlume/authd/pkg/httpx"
)

// RegisterHandler serves POST /v1/auth/register.
type RegisterHandler struct {
	AuthService *service.AuthService
}

// ServeHTTP godoc
//
//	@Summary		Register a new account
//	@Description	Creates a user with the default role. Usernames and emails are unique.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authapi.RegisterRequest	true	"Account details"
//	@Success		201		{object}	authapi.RegisterResponse
//	@Failure		400		{object}	authapi.ErrorResponse	"error, error_description"
//	@Failure		409		{object}	authapi.ErrorResponse	"username_already_exists or email_already_exists"
//	@Failure		500		{object}	authapi.ErrorResponse
//	@Router			/v1/auth/register [post]
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authapi.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		authapi.ErrInvalidRequest.WriteError(w)
		return
	}

	user, err := h.AuthService.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, authapi.RegisterResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Roles:    user.Roles,
	})
}
