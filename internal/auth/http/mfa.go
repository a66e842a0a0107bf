package http

import (
	"errors"
	"net/http"

	"github.com/quorumlabs/minute/internal/auth/domain"
	"github.com/quorumlabs/minute/internal/auth/service"
	"github.com/quorumlabs/minute/pkg/httpx"
	"github.com/quorumlabs/minute/pkg/slogx"
)

// MFAHandler handles the enrollment lifecycle and resets. All routes sit
// behind the session gate, so the verified Identity is always in context.
type MFAHandler struct {
	MFAService *service.MFAService
}

// HandleEnroll handles POST /v1/mfa/enroll.
func (h *MFAHandler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	id, ok := httpx.IdentityFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "")
		return
	}

	enr, err := h.MFAService.Enroll(ctx, id.Subject)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMFAAlreadyEnabled):
			httpx.WriteError(w, http.StatusBadRequest, "mfa_already_enabled",
				"MFA is already enabled; reset it before re-enrolling")
		case errors.Is(err, service.ErrNotFound):
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "")
		default:
			log.Error("mfa enrollment failed", "user_id", id.Subject, "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		}
		return
	}

	// The secret appears exactly here and on re-enrollment reloads.
	httpx.WriteJSON(w, http.StatusOK, enr)
}

// HandleActivate handles POST /v1/mfa/activate.
func (h *MFAHandler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	id, ok := httpx.IdentityFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "")
		return
	}

	var req MFAActivateRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.MFAService.Activate(ctx, id.Subject, req.Code); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidMFACode):
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_code", "the code is not valid")
		case errors.Is(err, service.ErrMFANotConfigured):
			httpx.WriteError(w, http.StatusBadRequest, "mfa_not_enrolled",
				"enroll before activating")
		case errors.Is(err, service.ErrMFAAlreadyEnabled):
			httpx.WriteError(w, http.StatusBadRequest, "mfa_already_enabled", "")
		case errors.Is(err, service.ErrLockedOut):
			httpx.WriteError(w, http.StatusTooManyRequests, "locked_out",
				"too many attempts, try again later")
		default:
			log.Error("mfa activation failed", "user_id", id.Subject, "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "enabled"})
}

// HandleSelfReset handles DELETE /v1/mfa.
func (h *MFAHandler) HandleSelfReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	id, ok := httpx.IdentityFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "")
		return
	}

	actor := service.Actor{ID: id.Subject, Role: domain.Role(id.Role), TenantID: id.Tenant}
	if err := h.MFAService.Reset(ctx, actor, id.Subject); err != nil {
		// A valid token whose account has since been deleted is not a
		// server fault; the session is simply no longer good.
		if errors.Is(err, service.ErrNotFound) {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "")
			return
		}
		log.Error("mfa self reset failed", "user_id", id.Subject, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleAdminReset handles DELETE /v1/admin/users/{id}/mfa.
func (h *MFAHandler) HandleAdminReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	id, ok := httpx.IdentityFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "")
		return
	}

	targetID := r.PathValue("id")
	if targetID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "user id is required")
		return
	}

	actor := service.Actor{ID: id.Subject, Role: domain.Role(id.Role), TenantID: id.Tenant}
	if err := h.MFAService.Reset(ctx, actor, targetID); err != nil {
		switch {
		case errors.Is(err, service.ErrForbidden):
			httpx.WriteError(w, http.StatusForbidden, "forbidden",
				"not allowed to reset this user's MFA")
		case errors.Is(err, service.ErrNotFound):
			httpx.WriteError(w, http.StatusNotFound, "not_found", "no such user")
		default:
			log.Error("mfa admin reset failed", "actor_id", id.Subject, "target_id", targetID, "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
