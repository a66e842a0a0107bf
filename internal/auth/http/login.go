package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/quorumlabs/minute/internal/auth/service"
	"github.com/quorumlabs/minute/pkg/httpx"
	"github.com/quorumlabs/minute/pkg/slogx"
)

// AuthHandler covers both phases of login: the password check and, for
// MFA-enabled accounts, the partial-token + code exchange.
type AuthHandler struct {
	AuthService *service.AuthService
	MFAService  *service.MFAService

	CookieName   string
	CookieTTL    time.Duration
	SecureCookie bool
}

// HandleLogin handles POST /v1/auth/login.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	res, err := h.AuthService.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials",
				"email or password is incorrect")
		case errors.Is(err, service.ErrLockedOut):
			httpx.WriteError(w, http.StatusTooManyRequests, "locked_out",
				"too many attempts, try again later")
		default:
			log.Error("login failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		}
		return
	}

	// Partial tokens never go into the session cookie; only a full session
	// establishes browser state.
	if !res.MFARequired {
		h.setSessionCookie(w, res.Token)
	}

	httpx.WriteJSON(w, http.StatusOK, res)
}

// HandleMFAValidate handles POST /v1/auth/mfa/validate.
func (h *AuthHandler) HandleMFAValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req MFAValidateRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	token := req.MFAToken
	if token == "" {
		token = bearerToken(r)
	}
	if token == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "mfa_token is required")
		return
	}

	res, err := h.MFAService.ValidateLogin(ctx, token, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthorized), errors.Is(err, service.ErrTokenTypeMismatch):
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_token",
				"MFA token is missing, expired, or not a partial token")
		case errors.Is(err, service.ErrMFANotConfigured):
			httpx.WriteError(w, http.StatusNotFound, "mfa_not_configured",
				"MFA is not configured for this account")
		case errors.Is(err, service.ErrInvalidMFACode):
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_code", "the code is not valid")
		case errors.Is(err, service.ErrLockedOut):
			httpx.WriteError(w, http.StatusTooManyRequests, "locked_out",
				"too many attempts, try again later")
		default:
			log.Error("mfa validation failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		}
		return
	}

	h.setSessionCookie(w, res.Token)
	httpx.WriteJSON(w, http.StatusOK, res)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	name := h.CookieName
	if name == "" {
		name = httpx.DefaultCookieName
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.CookieTTL / time.Second),
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return auth[len(prefix):]
	}
	return ""
}
