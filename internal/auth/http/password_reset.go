package http

import (
	"errors"
	"net/http"

	"github.com/quorumlabs/minute/internal/auth/service"
	"github.com/quorumlabs/minute/pkg/httpx"
	"github.com/quorumlabs/minute/pkg/slogx"
)

// PasswordResetHandler issues and redeems reset tokens. Delivery of the raw
// token (mail, SMS) is someone else's job; this boundary never returns it.
type PasswordResetHandler struct {
	ResetService *service.PasswordResetService
}

// HandleRequest handles POST /v1/auth/password-reset/request.
//
// The response is the same 202 no matter whether the account exists, so the
// endpoint cannot be used to probe for registered addresses.
func (h *PasswordResetHandler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req PasswordResetRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if _, err := h.ResetService.Request(ctx, req.Email); err != nil {
		// Still acknowledge; a storage hiccup must not leak account existence.
		log.Error("password reset request failed", "err", err)
	}

	httpx.WriteJSON(w, http.StatusAccepted, map[string]string{
		"message": "if the account exists, a reset link has been sent",
	})
}

// HandleComplete handles POST /v1/auth/password-reset/complete.
func (h *PasswordResetHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req PasswordResetCompleteRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.ResetService.Complete(ctx, req.Token, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrInvalidResetToken) {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_token",
				"reset token is invalid, expired, or already used")
			return
		}
		log.Error("password reset completion failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "password changed"})
}
