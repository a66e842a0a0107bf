package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/quorumlabs/minute/internal/auth/domain"
	"github.com/quorumlabs/minute/internal/auth/store"
	"github.com/quorumlabs/minute/pkg/cryptox"
	"github.com/quorumlabs/minute/pkg/jwtx"
)

const (
	// Attempt-counter scopes. Login counts per email so a distributed guesser
	// cannot rotate source addresses past the lockout.
	attemptScopeLogin = "login"
	attemptScopeMFA   = "mfa"

	DefaultMaxAttempts   = 5
	DefaultAttemptWindow = 15 * time.Minute

	// Argon2 is deliberately expensive; cap concurrent verifications so a
	// login burst cannot monopolise CPU.
	defaultHashConcurrency = 4
)

// AuthService verifies credentials and mints session tokens. MFA-enabled
// accounts get a partial token that must be exchanged at MFA-validate.
type AuthService struct {
	Store store.Store
	Codec *jwtx.Codec
	Audit *AuditService

	SessionTTL    time.Duration
	PartialTTL    time.Duration
	MaxAttempts   int
	AttemptWindow time.Duration

	hashSem chan struct{}
}

func NewAuthService(st store.Store, codec *jwtx.Codec, audit *AuditService) *AuthService {
	return &AuthService{
		Store:         st,
		Codec:         codec,
		Audit:         audit,
		SessionTTL:    jwtx.DefaultSessionTTL,
		PartialTTL:    jwtx.DefaultPartialTTL,
		MaxAttempts:   DefaultMaxAttempts,
		AttemptWindow: DefaultAttemptWindow,
		hashSem:       make(chan struct{}, defaultHashConcurrency),
	}
}

// Login checks email+password and returns either a full session token or,
// for MFA-enabled accounts, a partial token with MFARequired set.
//
// Unknown email, wrong password, unparseable stored hash and suspended
// tenant all collapse to ErrInvalidCredentials: the caller learns nothing
// about which part failed.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.LoginResult, error) {
	emailKey := strings.ToLower(strings.TrimSpace(email))
	if emailKey == "" || password == "" {
		return domain.LoginResult{}, ErrInvalidCredentials
	}

	now := time.Now().UTC()

	count, err := s.Store.LoginAttempts().Count(ctx, attemptScopeLogin, emailKey, now, s.AttemptWindow)
	if err != nil {
		return domain.LoginResult{}, fmt.Errorf("failed to read attempt counter: %w", err)
	}
	if count >= s.MaxAttempts {
		return domain.LoginResult{}, ErrLockedOut
	}

	u, err := s.Store.Users().GetUserByEmail(ctx, emailKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.LoginResult{}, s.failAttempt(ctx, emailKey, now)
		}
		return domain.LoginResult{}, fmt.Errorf("failed to look up user: %w", err)
	}

	// Tenant-scoped users need an authorizable tenant. Checked before the
	// expensive hash so suspended tenants don't burn CPU, but the outcome is
	// still the generic credential failure.
	if u.TenantID != nil {
		tenant, err := s.Store.Tenants().GetTenantByID(ctx, *u.TenantID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.LoginResult{}, s.failAttempt(ctx, emailKey, now)
			}
			return domain.LoginResult{}, fmt.Errorf("failed to look up tenant: %w", err)
		}
		if !tenant.CanAuthorize() {
			return domain.LoginResult{}, s.failAttempt(ctx, emailKey, now)
		}
	}

	if err := s.verifyPassword(ctx, password, u.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return domain.LoginResult{}, s.failAttempt(ctx, emailKey, now)
		}
		return domain.LoginResult{}, err
	}

	if err := s.Store.LoginAttempts().Clear(ctx, attemptScopeLogin, emailKey); err != nil {
		return domain.LoginResult{}, fmt.Errorf("failed to clear attempt counter: %w", err)
	}

	if u.MFAEnabled() {
		token, err := s.Codec.Issue(jwtx.NewPartialClaims(u.ID, now), s.PartialTTL)
		if err != nil {
			return domain.LoginResult{}, fmt.Errorf("failed to sign partial token: %w", err)
		}
		return domain.LoginResult{Token: token, MFARequired: true, User: u.Summary()}, nil
	}

	token, err := s.Codec.Issue(jwtx.NewSessionClaims(u.ID, u.Role.String(), u.Tenant(), now), s.SessionTTL)
	if err != nil {
		return domain.LoginResult{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return domain.LoginResult{Token: token, User: u.Summary()}, nil
}

// verifyPassword runs the argon2 check behind the concurrency cap.
func (s *AuthService) verifyPassword(ctx context.Context, password, hash string) error {
	select {
	case s.hashSem <- struct{}{}:
		defer func() { <-s.hashSem }()
	case <-ctx.Done():
		return ctx.Err()
	}
	return cryptox.VerifyPassword(password, hash)
}

// failAttempt bumps the lockout counter and returns the uniform credential
// failure. Hitting the cap on this very attempt reports the lockout instead.
func (s *AuthService) failAttempt(ctx context.Context, emailKey string, now time.Time) error {
	count, err := s.Store.LoginAttempts().Bump(ctx, attemptScopeLogin, emailKey, now, s.AttemptWindow)
	if err != nil {
		return fmt.Errorf("failed to bump attempt counter: %w", err)
	}
	if count >= s.MaxAttempts {
		return ErrLockedOut
	}
	return ErrInvalidCredentials
}
