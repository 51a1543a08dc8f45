package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/adlume/authd/internal/service"
	"github.com/adlume/authd/pkg/authapi"
	"github.com/adlume/authd/pkg/httpx"
	"github.com/adlume/authd/pkg/slogx"
)

// resetRequestMessage is the one response body the request endpoint ever
// returns on acceptance, whether or not the username exists.
const resetRequestMessage = "if the account exists, a password reset email has been sent"

// ResetRequestHandler serves POST /v1/auth/password-reset/request.
type ResetRequestHandler struct {
	ResetService *service.PasswordResetService
}

// ServeHTTP godoc
//
//	@Summary		Request a password reset
//	@Description	Issues a single-use reset token and emails it to the account's address.
//	@Description	The response is identical for known and unknown usernames.
//	@Tags			PasswordReset
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authapi.PasswordResetRequest	true	"Username"
//	@Success		202		{object}	authapi.PasswordResetRequestResponse
//	@Failure		400		{object}	authapi.ErrorResponse
//	@Failure		500		{object}	authapi.ErrorResponse
//	@Router			/v1/auth/password-reset/request [post]
func (h *ResetRequestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authapi.PasswordResetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Username) == "" {
		authapi.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.ResetService.Request(r.Context(), req.Username); err != nil {
		// Unknown users get the same accepted response; anything else is
		// a technical failure worth logging but still not worth leaking.
		if !errors.Is(err, service.ErrUserNotFound) {
			slogx.FromContext(r.Context()).Error("password reset request failed", "err", err)
			authapi.ErrServerError.WriteError(w)
			return
		}
	}

	httpx.WriteJSON(w, http.StatusAccepted, authapi.PasswordResetRequestResponse{
		Message: resetRequestMessage,
	})
}

// ResetValidateHandler serves GET /v1/auth/password-reset/validate.
type ResetValidateHandler struct {
	ResetService *service.PasswordResetService
}

// ServeHTTP godoc
//
//	@Summary		Check a reset token
//	@Description	Reports whether a reset token is currently usable, without consuming it.
//	@Tags			PasswordReset
//	@Produce		json
//	@Param			token	query		string	true	"Opaque reset token"
//	@Success		200		{object}	authapi.ResetValidateResponse
//	@Failure		500		{object}	authapi.ErrorResponse
//	@Router			/v1/auth/password-reset/validate [get]
func (h *ResetValidateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	valid, err := h.ResetService.Validate(r.Context(), token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authapi.ResetValidateResponse{Valid: valid})
}

// ResetConfirmHandler serves POST /v1/auth/password-reset/confirm.
type ResetConfirmHandler struct {
	ResetService *service.PasswordResetService
}

// ServeHTTP godoc
//
//	@Summary		Complete a password reset
//	@Description	Redeems a reset token and sets the new password. The token is single
//	@Description	use and every active session of the user ends.
//	@Tags			PasswordReset
//	@Accept			json
//	@Success		204	"password changed"
//	@Failure		400	{object}	authapi.ErrorResponse
//	@Failure		401	{object}	authapi.ErrorResponse	"invalid_token or token_expired"
//	@Failure		500	{object}	authapi.ErrorResponse
//	@Router			/v1/auth/password-reset/confirm [post]
func (h *ResetConfirmHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authapi.PasswordResetConfirm
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Token == "" || req.NewPassword == "" {
		authapi.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.ResetService.Consume(r.Context(), req.Token, req.NewPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
