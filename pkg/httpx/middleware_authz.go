package httpx

import "net/http"

// RequireRoles allows the request through only when the gate-injected
// identity carries one of the listed roles. Use on individual routes that
// need tighter rules than the gate's path table.
func RequireRoles(required ...string) Middleware {
	want := make(map[string]struct{}, len(required))
	for _, r := range required {
		want[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
				return
			}

			if _, allowed := want[id.Role]; !allowed {
				WriteError(w, http.StatusForbidden, "forbidden", "insufficient role")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
