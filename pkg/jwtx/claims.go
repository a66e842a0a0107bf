package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default session TTL constants. Partial tokens only gate MFA completion so
// they live minutes, not hours.
const (
	// DefaultSessionTTL is the default lifetime for full session tokens.
	DefaultSessionTTL = 24 * time.Hour

	// DefaultPartialTTL is the default lifetime for partial (pre-MFA) tokens.
	DefaultPartialTTL = 5 * time.Minute
)

// SessionClaims are the signed session claims. Keep this additive to preserve
// compatibility with tokens already in the wild.
type SessionClaims struct {
	jwt.RegisteredClaims

	// Role of the subject ("SUPER_ADMIN", "COMPANY_ADMIN", "ADMIN", "STAFF").
	Role string `json:"role,omitempty"`

	// Tenant the subject belongs to. Empty only for SUPER_ADMIN.
	Tenant string `json:"tenant,omitempty"`

	// Partial marks a token that proves password-correctness only. A partial
	// token is accepted by the MFA-validate operation and nothing else.
	Partial bool `json:"partial,omitempty"`
}

// NewSessionClaims builds full-session claims for a verified identity.
func NewSessionClaims(subject, role, tenant string, now time.Time) SessionClaims {
	return SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        NewJTI(),
		},
		Role:   role,
		Tenant: tenant,
	}
}

// NewPartialClaims builds partial-session claims. They carry the candidate
// subject only; role and tenant are resolved at MFA-validate time.
func NewPartialClaims(subject string, now time.Time) SessionClaims {
	return SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        NewJTI(),
		},
		Partial: true,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
