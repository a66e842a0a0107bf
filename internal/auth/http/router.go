package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/quorumlabs/minute/internal/auth/domain"
	"github.com/quorumlabs/minute/internal/auth/service"
	"github.com/quorumlabs/minute/internal/auth/store"
	"github.com/quorumlabs/minute/pkg/httpx"
	"github.com/quorumlabs/minute/pkg/jwtx"
	"github.com/quorumlabs/minute/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	secureCookie bool
	sessionTTL   time.Duration

	store        store.Store
	AuthService  *service.AuthService
	MFAService   *service.MFAService
	UserService  *service.UserService
	ResetService *service.PasswordResetService
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
	secureCookie bool,
	sessionTTL time.Duration,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		secureCookie: secureCookie,
		sessionTTL:   sessionTTL,
	}

	// Request logging runs outermost, the session gate covers everything
	// else. Auth endpoints and health probes are public; admin paths are
	// restricted to the administrative roles by the policy table.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.SessionGate(httpx.GateConfig{
			Verifier:       verifier,
			PublicPrefixes: []string{"/v1/auth/", "/livez", "/readyz"},
			APIPrefixes:    []string{"/v1/"},
			LoginPath:      "/login",
			RolePolicies: []httpx.PathPolicy{
				{Prefix: "/v1/admin/", Roles: []string{
					domain.RoleSuperAdmin.String(),
					domain.RoleCompanyAdmin.String(),
				}},
			},
		}),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerMFA()
	r.registerProfile()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	authHandler := &AuthHandler{
		AuthService:  r.AuthService,
		MFAService:   r.MFAService,
		CookieTTL:    r.sessionTTL,
		SecureCookie: r.secureCookie,
	}

	// Credential checks get the strict limit keyed by IP so one address
	// cannot hammer the argon2 path.
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(authHandler.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /v1/auth/mfa/validate",
		httpx.Chain(http.HandlerFunc(authHandler.HandleMFAValidate),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	resetHandler := &PasswordResetHandler{ResetService: r.ResetService}
	r.Mux.Handle("POST /v1/auth/password-reset/request",
		httpx.Chain(http.HandlerFunc(resetHandler.HandleRequest),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/password-reset/complete",
		httpx.Chain(http.HandlerFunc(resetHandler.HandleComplete),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerMFA() {
	mfaHandler := &MFAHandler{MFAService: r.MFAService}

	r.Mux.Handle("POST /v1/mfa/enroll",
		httpx.Chain(http.HandlerFunc(mfaHandler.HandleEnroll),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/mfa/activate",
		httpx.Chain(http.HandlerFunc(mfaHandler.HandleActivate),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("DELETE /v1/mfa",
		httpx.Chain(http.HandlerFunc(mfaHandler.HandleSelfReset),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// The gate's policy table already restricts /v1/admin/ to administrative
	// roles; RequireRoles here keeps the handler safe even if it is ever
	// mounted elsewhere.
	r.Mux.Handle("DELETE /v1/admin/users/{id}/mfa",
		httpx.Chain(http.HandlerFunc(mfaHandler.HandleAdminReset),
			httpx.RequireRoles(
				domain.RoleSuperAdmin.String(),
				domain.RoleCompanyAdmin.String(),
			),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerProfile() {
	meHandler := &MeHandler{UserService: r.UserService}
	r.Mux.Handle("GET /v1/me",
		httpx.Chain(http.HandlerFunc(meHandler.HandleGet),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}
