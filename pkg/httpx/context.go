package httpx

import "context"

type ctxKey string

const (
	CtxKeyUserID   ctxKey = "user_id"
	CtxKeyIdentity ctxKey = "identity"
)

// Identity is the verified caller identity the session gate injects into the
// request context. Downstream handlers must take subject/role/tenant from
// here and never from client-supplied equivalents.
type Identity struct {
	Subject string
	Role    string
	Tenant  string // empty only for SUPER_ADMIN
}

// IdentityFromContext returns the verified identity, if the gate ran.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(CtxKeyIdentity).(Identity)
	return id, ok
}

func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, id.Subject)
	return context.WithValue(ctx, CtxKeyIdentity, id)
}
