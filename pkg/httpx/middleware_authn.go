package httpx

import (
	"net/http"
	"strings"

	"github.com/quorumlabs/minute/pkg/jwtx"
	"github.com/quorumlabs/minute/pkg/slogx"
)

// DefaultCookieName is the session cookie the gate reads before falling back
// to a bearer header.
const DefaultCookieName = "minute_session"

// GateConfig configures the session gate sitting in front of every protected
// operation.
type GateConfig struct {
	Verifier jwtx.Verifier

	// CookieName is the session cookie to read. Defaults to DefaultCookieName.
	CookieName string

	// PublicPrefixes pass through unauthenticated (auth endpoints, health,
	// static assets).
	PublicPrefixes []string

	// APIPrefixes are paths that get JSON 401/403 responses. Anything else is
	// page-shaped and gets redirected to LoginPath instead.
	APIPrefixes []string

	// LoginPath is the redirect target for unauthenticated page requests.
	LoginPath string

	// RolePolicies restrict path prefixes to an allow-list of roles. First
	// matching prefix wins; unlisted paths only require a valid full session.
	RolePolicies []PathPolicy
}

// PathPolicy is one row of the declarative role×path table.
type PathPolicy struct {
	Prefix string
	Roles  []string
}

// SessionGate verifies the caller's session token and injects the verified
// Identity into the request context. Partial tokens are rejected everywhere;
// the MFA-validate endpoint lives on the public list and does its own check.
func SessionGate(cfg GateConfig) Middleware {
	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	loginPath := cfg.LoginPath
	if loginPath == "" {
		loginPath = "/login"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			if hasPrefix(r.URL.Path, cfg.PublicPrefixes) {
				next.ServeHTTP(w, r)
				return
			}

			raw := extractToken(r, cookieName)
			if raw == "" {
				rejectUnauthenticated(w, r, cfg, loginPath, "missing session token")
				return
			}

			claims, err := cfg.Verifier.Verify(raw)
			if err != nil {
				// Expired vs forged is interesting in logs only; the client
				// sees one generic re-authenticate response.
				log.Warn("session verify failed", "err", err)
				rejectUnauthenticated(w, r, cfg, loginPath, "invalid session token")
				return
			}

			if claims.Partial {
				log.Warn("partial token on protected resource", "sub", claims.Subject)
				rejectUnauthenticated(w, r, cfg, loginPath, "session requires MFA completion")
				return
			}

			if !roleAllowed(r.URL.Path, claims.Role, cfg.RolePolicies) {
				log.Warn("role denied by path policy", "sub", claims.Subject, "role", claims.Role, "path", r.URL.Path)
				if isAPIPath(r.URL.Path, cfg.APIPrefixes) {
					WriteError(w, http.StatusForbidden, "forbidden", "insufficient role")
				} else {
					http.Redirect(w, r, loginPath, http.StatusSeeOther)
				}
				return
			}

			id := Identity{
				Subject: claims.Subject,
				Role:    claims.Role,
				Tenant:  claims.Tenant,
			}
			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(ctx, id)))
		})
	}
}

// extractToken prefers the session cookie; the bearer header is kept for
// non-browser clients.
func extractToken(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}

	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))
	}
	return ""
}

func rejectUnauthenticated(w http.ResponseWriter, r *http.Request, cfg GateConfig, loginPath, desc string) {
	if isAPIPath(r.URL.Path, cfg.APIPrefixes) {
		NoCache(w)
		WriteError(w, http.StatusUnauthorized, "unauthorized", desc)
		return
	}
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

func isAPIPath(path string, apiPrefixes []string) bool {
	if len(apiPrefixes) == 0 {
		apiPrefixes = []string{"/v1/", "/api/"}
	}
	return hasPrefix(path, apiPrefixes)
}

func hasPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func roleAllowed(path, role string, policies []PathPolicy) bool {
	for _, p := range policies {
		if !strings.HasPrefix(path, p.Prefix) {
			continue
		}
		for _, allowed := range p.Roles {
			if role == allowed {
				return true
			}
		}
		return false
	}
	return true
}
