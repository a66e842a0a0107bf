package auth_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/quorumlabs/minute/internal/auth/domain"
	"github.com/quorumlabs/minute/pkg/jwtx"
	"github.com/quorumlabs/minute/pkg/otpx"
	"github.com/stretchr/testify/require"
)

func TestMFAFlow(t *testing.T) {
	t.Parallel()

	t.Run("enroll activate and two-phase login over HTTP", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		tenantID := env.seedTenant(t, domain.TenantActive)
		env.seedUser(t, "journey@example.com", "pw-journey", domain.RoleAdmin, &tenantID)

		// Phase 0: plain login, MFA not yet set up.
		res, body := env.login(t, "journey@example.com", "pw-journey")
		require.Equal(t, http.StatusOK, res.StatusCode)
		require.Equal(t, false, body["mfa_required"])
		session := sessionCookie(res)
		require.NotNil(t, session)

		// Enroll using the session cookie.
		res, body = env.do(t, request{
			method:  http.MethodPost,
			path:    "/v1/mfa/enroll",
			cookies: []*http.Cookie{session},
		})
		require.Equal(t, http.StatusOK, res.StatusCode)
		secret, _ := body["secret"].(string)
		require.NotEmpty(t, secret)
		require.Contains(t, body["uri"], "otpauth://totp/")

		// Activate with a real code.
		code, err := otpx.GenerateCodeAt(secret, time.Now())
		require.NoError(t, err)
		res, _ = env.do(t, request{
			method:  http.MethodPost,
			path:    "/v1/mfa/activate",
			body:    map[string]string{"code": code},
			cookies: []*http.Cookie{session},
		})
		require.Equal(t, http.StatusOK, res.StatusCode)

		// Next login now demands the second factor.
		res, body = env.login(t, "journey@example.com", "pw-journey")
		require.Equal(t, http.StatusOK, res.StatusCode)
		require.Equal(t, true, body["mfa_required"])
		partial := body["token"].(string)

		// Wrong code first.
		res, body = env.do(t, request{
			method: http.MethodPost,
			path:   "/v1/auth/mfa/validate",
			body:   map[string]string{"mfa_token": partial, "code": "000000"},
		})
		require.Equal(t, http.StatusUnauthorized, res.StatusCode)
		require.Equal(t, "invalid_code", body["error"])

		// Then the real one.
		code, err = otpx.GenerateCodeAt(secret, time.Now())
		require.NoError(t, err)
		res, body = env.do(t, request{
			method: http.MethodPost,
			path:   "/v1/auth/mfa/validate",
			body:   map[string]string{"mfa_token": partial, "code": code},
		})
		require.Equal(t, http.StatusOK, res.StatusCode)
		require.NotNil(t, sessionCookie(res))

		claims, err := env.codec.Verify(body["token"].(string))
		require.NoError(t, err)
		require.False(t, claims.Partial)
		require.Equal(t, tenantID, claims.Tenant)
	})

	t.Run("partial token is rejected on protected endpoints", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		tenantID := env.seedTenant(t, domain.TenantActive)
		u := env.seedUser(t, "partial@example.com", "pw-partial", domain.RoleStaff, &tenantID)
		enrollAndActivate(t, env, u.ID)

		_, body := env.login(t, "partial@example.com", "pw-partial")
		partial := body["token"].(string)

		for _, path := range []struct{ method, path string }{
			{http.MethodGet, "/v1/me"},
			{http.MethodPost, "/v1/mfa/enroll"},
			{http.MethodDelete, "/v1/mfa"},
		} {
			res, _ := env.do(t, request{method: path.method, path: path.path, bearer: partial})
			require.Equal(t, http.StatusUnauthorized, res.StatusCode, "%s %s", path.method, path.path)
		}
	})

	t.Run("validate with a full token is refused", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		tenantID := env.seedTenant(t, domain.TenantActive)
		u := env.seedUser(t, "fulltok@example.com", "pw-full-token", domain.RoleStaff, &tenantID)
		enrollAndActivate(t, env, u.ID)

		res, _ := env.login(t, "fulltok@example.com", "pw-full-token")
		require.Equal(t, http.StatusOK, res.StatusCode)

		// Build a full token for an MFA-less account and present it.
		env.seedUser(t, "no-mfa@example.com", "pw-no-mfa", domain.RoleStaff, &tenantID)
		_, body := env.login(t, "no-mfa@example.com", "pw-no-mfa")
		full := body["token"].(string)

		res, errBody := env.do(t, request{
			method: http.MethodPost,
			path:   "/v1/auth/mfa/validate",
			body:   map[string]string{"mfa_token": full, "code": "123456"},
		})
		require.Equal(t, http.StatusUnauthorized, res.StatusCode)
		require.Equal(t, "invalid_token", errBody["error"])
	})

	t.Run("validate when MFA is not configured", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		tenantID := env.seedTenant(t, domain.TenantActive)
		u := env.seedUser(t, "noconf@example.com", "pw-no-conf", domain.RoleStaff, &tenantID)

		// Hand-minted partial token for an account without MFA.
		partial := mintPartial(t, env, u.ID)

		res, body := env.do(t, request{
			method: http.MethodPost,
			path:   "/v1/auth/mfa/validate",
			body:   map[string]string{"mfa_token": partial, "code": "123456"},
		})
		require.Equal(t, http.StatusNotFound, res.StatusCode)
		require.Equal(t, "mfa_not_configured", body["error"])
	})

	t.Run("self reset returns to password-only login", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		tenantID := env.seedTenant(t, domain.TenantActive)
		u := env.seedUser(t, "selfreset@example.com", "pw-self-reset", domain.RoleStaff, &tenantID)
		secret := enrollAndActivate(t, env, u.ID)

		_, body := env.login(t, "selfreset@example.com", "pw-self-reset")
		partial := body["token"].(string)
		code, err := otpx.GenerateCodeAt(secret, time.Now())
		require.NoError(t, err)
		res, body := env.do(t, request{
			method: http.MethodPost,
			path:   "/v1/auth/mfa/validate",
			body:   map[string]string{"mfa_token": partial, "code": code},
		})
		require.Equal(t, http.StatusOK, res.StatusCode)
		full := body["token"].(string)

		res, _ = env.do(t, request{method: http.MethodDelete, path: "/v1/mfa", bearer: full})
		require.Equal(t, http.StatusNoContent, res.StatusCode)

		res, body = env.login(t, "selfreset@example.com", "pw-self-reset")
		require.Equal(t, http.StatusOK, res.StatusCode)
		require.Equal(t, false, body["mfa_required"])
	})
}

func TestAdminMFAReset(t *testing.T) {
	t.Parallel()

	t.Run("company admin resets own tenant, not others", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		tenantA := env.seedTenant(t, domain.TenantActive)
		tenantB := env.seedTenant(t, domain.TenantActive)

		staffA := env.seedUser(t, "staff-a@example.com", "pw-staff-a", domain.RoleStaff, &tenantA)
		staffB := env.seedUser(t, "staff-b@example.com", "pw-staff-b", domain.RoleStaff, &tenantB)
		env.seedUser(t, "admin-a@example.com", "pw-admin-a", domain.RoleCompanyAdmin, &tenantA)
		enrollAndActivate(t, env, staffA.ID)
		enrollAndActivate(t, env, staffB.ID)

		_, body := env.login(t, "admin-a@example.com", "pw-admin-a")
		adminTok := body["token"].(string)

		res, _ := env.do(t, request{
			method: http.MethodDelete,
			path:   "/v1/admin/users/" + staffA.ID + "/mfa",
			bearer: adminTok,
		})
		require.Equal(t, http.StatusNoContent, res.StatusCode)

		res, errBody := env.do(t, request{
			method: http.MethodDelete,
			path:   "/v1/admin/users/" + staffB.ID + "/mfa",
			bearer: adminTok,
		})
		require.Equal(t, http.StatusForbidden, res.StatusCode)
		require.Equal(t, "forbidden", errBody["error"])
	})

	t.Run("staff is blocked from admin paths by the policy table", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		tenantID := env.seedTenant(t, domain.TenantActive)
		victim := env.seedUser(t, "victim@example.com", "pw-victim", domain.RoleStaff, &tenantID)
		env.seedUser(t, "pleb@example.com", "pw-pleb", domain.RoleStaff, &tenantID)

		_, body := env.login(t, "pleb@example.com", "pw-pleb")
		staffTok := body["token"].(string)

		res, _ := env.do(t, request{
			method: http.MethodDelete,
			path:   "/v1/admin/users/" + victim.ID + "/mfa",
			bearer: staffTok,
		})
		require.Equal(t, http.StatusForbidden, res.StatusCode)
	})

	t.Run("tenant headers from the client are ignored", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		tenantA := env.seedTenant(t, domain.TenantActive)
		tenantB := env.seedTenant(t, domain.TenantActive)

		staffB := env.seedUser(t, "other-staff@example.com", "pw-other-staff", domain.RoleStaff, &tenantB)
		env.seedUser(t, "spoofer@example.com", "pw-spoofer", domain.RoleCompanyAdmin, &tenantA)
		enrollAndActivate(t, env, staffB.ID)

		_, body := env.login(t, "spoofer@example.com", "pw-spoofer")
		adminTok := body["token"].(string)

		// Claiming tenant B in a header changes nothing; the verified
		// session still says tenant A.
		res, _ := env.do(t, request{
			method:  http.MethodDelete,
			path:    "/v1/admin/users/" + staffB.ID + "/mfa",
			bearer:  adminTok,
			headers: map[string]string{"X-Tenant-ID": tenantB},
		})
		require.Equal(t, http.StatusForbidden, res.StatusCode)
	})

	t.Run("unknown target is 404", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.seedUser(t, "root@example.com", "pw-root-user", domain.RoleSuperAdmin, nil)

		_, body := env.login(t, "root@example.com", "pw-root-user")
		tok := body["token"].(string)

		res, _ := env.do(t, request{
			method: http.MethodDelete,
			path:   "/v1/admin/users/nope/mfa",
			bearer: tok,
		})
		require.Equal(t, http.StatusNotFound, res.StatusCode)
	})
}

func TestSelfResetWithStaleSession(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	// Token signed for an account that no longer exists. The signature is
	// valid so the gate lets it through; the handler answers 401, not 500.
	tok, err := env.codec.Issue(
		jwtx.NewSessionClaims("01ARZ3NDEKTSV4RRFFQ69G5FAV", domain.RoleStaff.String(), "", time.Now()),
		time.Hour,
	)
	require.NoError(t, err)

	res, body := env.do(t, request{
		method: http.MethodDelete,
		path:   "/v1/mfa",
		bearer: tok,
	})
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	require.Equal(t, "invalid_token", body["error"])
}

// mintPartial issues a partial token directly from the codec.
func mintPartial(t *testing.T, env *testEnv, userID string) string {
	t.Helper()

	tok, err := env.codec.Issue(jwtx.NewPartialClaims(userID, time.Now()), 5*time.Minute)
	require.NoError(t, err)
	return tok
}
