package auth_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/quorumlabs/minute/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestPasswordResetEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("request acks identically for known and unknown accounts", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		tenantID := env.seedTenant(t, domain.TenantActive)
		env.seedUser(t, "real@example.com", "pw-real-user", domain.RoleStaff, &tenantID)

		resKnown, bodyKnown := env.do(t, request{
			method: http.MethodPost,
			path:   "/v1/auth/password-reset/request",
			body:   map[string]string{"email": "real@example.com"},
		})
		resUnknown, bodyUnknown := env.do(t, request{
			method: http.MethodPost,
			path:   "/v1/auth/password-reset/request",
			body:   map[string]string{"email": "fake@example.com"},
		})

		require.Equal(t, http.StatusAccepted, resKnown.StatusCode)
		require.Equal(t, http.StatusAccepted, resUnknown.StatusCode)
		require.Equal(t, bodyKnown["message"], bodyUnknown["message"])
	})

	t.Run("complete changes the password exactly once", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		tenantID := env.seedTenant(t, domain.TenantActive)
		env.seedUser(t, "resettable@example.com", "old-password-e2e", domain.RoleStaff, &tenantID)

		// The raw token goes to the delivery channel, not the HTTP response;
		// grab it from the service the way the mailer would.
		token, err := env.reset.Request(context.Background(), "resettable@example.com")
		require.NoError(t, err)
		require.NotEmpty(t, token)

		res, _ := env.do(t, request{
			method: http.MethodPost,
			path:   "/v1/auth/password-reset/complete",
			body:   map[string]string{"token": token, "new_password": "new-password-e2e"},
		})
		require.Equal(t, http.StatusOK, res.StatusCode)

		// Old password dead, new one works.
		res, _ = env.login(t, "resettable@example.com", "old-password-e2e")
		require.Equal(t, http.StatusUnauthorized, res.StatusCode)
		res, _ = env.login(t, "resettable@example.com", "new-password-e2e")
		require.Equal(t, http.StatusOK, res.StatusCode)

		// Replay is refused.
		res, body := env.do(t, request{
			method: http.MethodPost,
			path:   "/v1/auth/password-reset/complete",
			body:   map[string]string{"token": token, "new_password": "third-password"},
		})
		require.Equal(t, http.StatusBadRequest, res.StatusCode)
		require.Equal(t, "invalid_token", body["error"])
	})

	t.Run("weak replacement password is rejected", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		res, _ := env.do(t, request{
			method: http.MethodPost,
			path:   "/v1/auth/password-reset/complete",
			body:   map[string]string{"token": "anything", "new_password": "short"},
		})
		require.Equal(t, http.StatusBadRequest, res.StatusCode)
	})
}
