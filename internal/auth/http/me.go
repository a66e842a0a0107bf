package http

import (
	"errors"
	"net/http"

	"github.com/quorumlabs/minute/internal/auth/service"
	"github.com/quorumlabs/minute/pkg/httpx"
	"github.com/quorumlabs/minute/pkg/slogx"
)

// MeHandler handles GET /v1/me: it echoes the verified identity plus the
// current account summary. Everything in the response derives from the
// session token and the database, never from request headers.
type MeHandler struct {
	UserService *service.UserService
}

func (h *MeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	id, ok := httpx.IdentityFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "")
		return
	}

	u, err := h.UserService.GetUserByID(ctx, id.Subject)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			// Token is valid but the account is gone.
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "")
			return
		}
		log.Error("failed to load user", "user_id", id.Subject, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, u.Summary())
}
