package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/quorumlabs/minute/internal/auth/domain"
	httpapi "github.com/quorumlabs/minute/internal/auth/http"
	"github.com/quorumlabs/minute/internal/auth/service"
	"github.com/quorumlabs/minute/internal/auth/store"
	"github.com/quorumlabs/minute/internal/auth/store/drivers/sqlite"
	"github.com/quorumlabs/minute/pkg/cryptox"
	"github.com/quorumlabs/minute/pkg/httpx"
	"github.com/quorumlabs/minute/pkg/jwtx"
	"github.com/quorumlabs/minute/pkg/otpx"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	pepperPath := filepath.Join(os.TempDir(), "minute-e2e-test-pepper")
	cryptox.SetPepperPath(pepperPath)
	os.Remove(pepperPath)
	defer os.Remove(pepperPath)

	// These tests drive many requests from one address; the per-IP throttle
	// is covered by its own unit tests, not here.
	httpx.StrictLimit.RequestsPerWindow = 10000
	httpx.StrictLimit.Burst = 10000
	httpx.ModerateLimit.RequestsPerWindow = 10000
	httpx.ModerateLimit.Burst = 10000

	os.Exit(m.Run())
}

type testEnv struct {
	srv   *httptest.Server
	st    store.Store
	codec *jwtx.Codec

	auth  *service.AuthService
	mfa   *service.MFAService
	users *service.UserService
	reset *service.PasswordResetService
}

// newTestEnv stands up the full HTTP stack against an in-memory database:
// real router, real middleware chain, real services.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	codec, err := jwtx.NewCodec([]byte("0123456789abcdef0123456789abcdef"), "minute-test")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	audit := service.NewAuditService(st, logger, 64)
	audit.Start()
	t.Cleanup(audit.Stop)

	env := &testEnv{
		st:    st,
		codec: codec,
		auth:  service.NewAuthService(st, codec, audit),
		mfa:   service.NewMFAService(st, codec, audit, "Minute"),
		users: &service.UserService{Store: st},
		reset: service.NewPasswordResetService(st, audit, logger),
	}

	router := httpapi.NewRouter(codec, "test", st, logger, false, jwtx.DefaultSessionTTL)
	router.AuthService = env.auth
	router.MFAService = env.mfa
	router.UserService = env.users
	router.ResetService = env.reset
	router.ApplyRoutes()

	env.srv = httptest.NewServer(router)
	t.Cleanup(env.srv.Close)
	return env
}

func (e *testEnv) seedTenant(t *testing.T, status domain.TenantStatus) string {
	t.Helper()

	id := "tenant-" + t.Name()
	// Tenant ids only need to be unique within one test store.
	for i := 0; ; i++ {
		err := e.st.Tenants().CreateTenant(context.Background(), domain.Tenant{
			ID:     id,
			Name:   id,
			Status: status,
		})
		if err == nil {
			return id
		}
		require.ErrorIs(t, err, store.ErrAlreadyExists)
		id = id + "x"
	}
}

func (e *testEnv) seedUser(t *testing.T, email, password string, role domain.Role, tenantID *string) domain.User {
	t.Helper()

	u, err := e.users.CreateUser(context.Background(), email, password, role, tenantID)
	require.NoError(t, err)
	return u
}

type request struct {
	method  string
	path    string
	body    any
	bearer  string
	cookies []*http.Cookie
	headers map[string]string
}

// do sends one request and decodes the JSON body (when present) into a map.
func (e *testEnv) do(t *testing.T, req request) (*http.Response, map[string]any) {
	t.Helper()

	var body io.Reader
	if req.body != nil {
		raw, err := json.Marshal(req.body)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequest(req.method, e.srv.URL+req.path, body)
	require.NoError(t, err)
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.bearer != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.bearer)
	}
	for _, c := range req.cookies {
		httpReq.AddCookie(c)
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	res, err := client.Do(httpReq)
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Body.Close() })

	var decoded map[string]any
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &decoded)
	}
	return res, decoded
}

// login runs the password phase and returns the raw response pieces.
func (e *testEnv) login(t *testing.T, email, password string) (*http.Response, map[string]any) {
	t.Helper()

	return e.do(t, request{
		method: http.MethodPost,
		path:   "/v1/auth/login",
		body:   map[string]string{"email": email, "password": password},
	})
}

// enrollAndActivate turns MFA on for a user directly at the store, returning
// the secret so tests can mint valid codes.
func enrollAndActivate(t *testing.T, env *testEnv, userID string) string {
	t.Helper()

	secret, err := otpx.GenerateSecret()
	require.NoError(t, err)
	require.NoError(t, env.st.Users().UpdateMFASecret(context.Background(), userID, secret))
	require.NoError(t, env.st.Users().EnableMFA(context.Background(), userID))
	return secret
}

func sessionCookie(res *http.Response) *http.Cookie {
	for _, c := range res.Cookies() {
		if c.Name == httpx.DefaultCookieName {
			return c
		}
	}
	return nil
}
