package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed  = errors.New("jwtx: malformed token")
	ErrInvalidSig = errors.New("jwtx: invalid signature")
	ErrExpired    = errors.New("jwtx: token expired")

	// ErrWeakKey rejects signing keys below 256 bits at construction.
	ErrWeakKey = errors.New("jwtx: signing key must be at least 32 bytes")
)

// MinKeyBytes is the minimum HMAC signing key length.
const MinKeyBytes = 32

// Verifier validates a session token and gives back the claims if it's legit.
type Verifier interface {
	Verify(token string) (SessionClaims, error)
}

// Codec signs and verifies session tokens with a single HMAC-SHA256 key.
// The key is injected at construction; there is no ambient key state, which
// keeps the codec testable and makes rotation an explicit re-construction.
type Codec struct {
	key    []byte
	issuer string
}

// NewCodec returns a Codec for the given signing key and issuer.
func NewCodec(key []byte, issuer string) (*Codec, error) {
	if len(key) < MinKeyBytes {
		return nil, ErrWeakKey
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &Codec{key: k, issuer: issuer}, nil
}

// Issue serializes and signs the claims with the given lifetime. The expiry
// is computed from the claims' IssuedAt (set by the claim constructors), so
// tests can issue at a fixed instant.
func (c *Codec) Issue(claims SessionClaims, ttl time.Duration) (string, error) {
	if claims.IssuedAt == nil {
		now := time.Now().UTC()
		claims.IssuedAt = jwt.NewNumericDate(now)
		claims.NotBefore = jwt.NewNumericDate(now)
	}
	if claims.ID == "" {
		claims.ID = NewJTI()
	}
	claims.Issuer = c.issuer
	claims.ExpiresAt = jwt.NewNumericDate(claims.IssuedAt.Add(ttl))

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(c.key)
}

// Verify recomputes the signature and validates expiry and issuer. Failures
// collapse to exactly one of ErrMalformed, ErrInvalidSig or ErrExpired;
// callers map all three to a generic re-authenticate response.
func (c *Codec) Verify(token string) (SessionClaims, error) {
	var claims SessionClaims

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)

	_, err := parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return c.key, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return SessionClaims{}, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return SessionClaims{}, ErrInvalidSig
		default:
			return SessionClaims{}, ErrMalformed
		}
	}

	// A token signed for another issuer is not one of ours.
	if c.issuer != "" && claims.Issuer != c.issuer {
		return SessionClaims{}, ErrInvalidSig
	}

	if claims.Subject == "" {
		return SessionClaims{}, ErrMalformed
	}

	return claims, nil
}
