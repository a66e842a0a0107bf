package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quorumlabs/minute/internal/auth/domain"
	"github.com/quorumlabs/minute/internal/auth/store"
	"github.com/quorumlabs/minute/pkg/jwtx"
	"github.com/quorumlabs/minute/pkg/otpx"
)

// MFAService owns the TOTP enrollment lifecycle and the second phase of an
// MFA login: exchanging a partial token plus a valid code for a full session.
type MFAService struct {
	Store store.Store
	Codec *jwtx.Codec
	Audit *AuditService

	Issuer           string // shown in authenticator apps (e.g. "Minute")
	ToleranceSeconds uint   // clock-drift allowance when checking codes

	SessionTTL    time.Duration
	MaxAttempts   int
	AttemptWindow time.Duration
}

func NewMFAService(st store.Store, codec *jwtx.Codec, audit *AuditService, issuer string) *MFAService {
	return &MFAService{
		Store:            st,
		Codec:            codec,
		Audit:            audit,
		Issuer:           issuer,
		ToleranceSeconds: otpx.Period, // one step either side
		SessionTTL:       jwtx.DefaultSessionTTL,
		MaxAttempts:      DefaultMaxAttempts,
		AttemptWindow:    DefaultAttemptWindow,
	}
}

// Enroll generates and persists a fresh TOTP secret for the user, leaving MFA
// disabled until Activate succeeds. Re-enrolling replaces any earlier
// unverified secret, so a lost QR code is recoverable by enrolling again.
func (s *MFAService) Enroll(ctx context.Context, userID string) (domain.MFAEnrollResponse, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.MFAEnrollResponse{}, mapUserErr(err)
	}
	if u.MFAEnabled() {
		return domain.MFAEnrollResponse{}, ErrMFAAlreadyEnabled
	}

	secret, err := otpx.GenerateSecret()
	if err != nil {
		return domain.MFAEnrollResponse{}, fmt.Errorf("failed to generate TOTP secret: %w", err)
	}

	if err := s.Store.Users().UpdateMFASecret(ctx, userID, secret); err != nil {
		return domain.MFAEnrollResponse{}, fmt.Errorf("failed to store MFA secret: %w", err)
	}

	return domain.MFAEnrollResponse{
		Secret:  secret,
		URI:     otpx.EnrollmentURI(u.Email, s.Issuer, secret),
		Issuer:  s.Issuer,
		Account: u.Email,
	}, nil
}

// Activate checks the code against the pending secret and, when valid, turns
// MFA on. A wrong code leaves the enrollment pending and counts toward the
// caller's attempt budget.
func (s *MFAService) Activate(ctx context.Context, userID string, code string) error {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return mapUserErr(err)
	}
	if u.MFAEnabled() {
		return ErrMFAAlreadyEnabled
	}
	if u.MFASecret == nil || *u.MFASecret == "" {
		return ErrMFANotConfigured
	}

	if err := s.checkCode(ctx, u, code); err != nil {
		return err
	}

	if err := s.Store.Users().EnableMFA(ctx, userID); err != nil {
		return fmt.Errorf("failed to enable MFA: %w", err)
	}

	s.Audit.Record(userID, domain.AuditMFAActivated, "user", userID, u.TenantID)
	return nil
}

// ValidateLogin is the second phase of an MFA login: it exchanges a partial
// token plus a fresh TOTP code for a full session token.
func (s *MFAService) ValidateLogin(ctx context.Context, partialToken, code string) (domain.LoginResult, error) {
	claims, err := s.Codec.Verify(partialToken)
	if err != nil {
		return domain.LoginResult{}, ErrUnauthorized
	}
	if !claims.Partial {
		return domain.LoginResult{}, ErrTokenTypeMismatch
	}

	u, err := s.Store.Users().GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.LoginResult{}, ErrUnauthorized
		}
		return domain.LoginResult{}, fmt.Errorf("failed to look up user: %w", err)
	}
	if !u.MFAEnabled() {
		return domain.LoginResult{}, ErrMFANotConfigured
	}

	// The tenant may have been suspended between the password phase and
	// this one; re-check so a partial token cannot outlive the tenant.
	if u.TenantID != nil {
		tenant, err := s.Store.Tenants().GetTenantByID(ctx, *u.TenantID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.LoginResult{}, ErrUnauthorized
			}
			return domain.LoginResult{}, fmt.Errorf("failed to look up tenant: %w", err)
		}
		if !tenant.CanAuthorize() {
			return domain.LoginResult{}, ErrUnauthorized
		}
	}

	if err := s.checkCode(ctx, u, code); err != nil {
		return domain.LoginResult{}, err
	}

	now := time.Now().UTC()
	token, err := s.Codec.Issue(jwtx.NewSessionClaims(u.ID, u.Role.String(), u.Tenant(), now), s.SessionTTL)
	if err != nil {
		return domain.LoginResult{}, fmt.Errorf("failed to sign session token: %w", err)
	}

	s.Audit.Record(u.ID, domain.AuditMFALogin, "user", u.ID, u.TenantID)
	return domain.LoginResult{Token: token, User: u.Summary()}, nil
}

// Reset clears the target's secret and flag, returning them to NOT_SETUP.
// Who may reset whom is decided by the declarative policy; a denied reset
// mutates nothing.
func (s *MFAService) Reset(ctx context.Context, actor Actor, targetID string) error {
	target, err := s.Store.Users().GetUserByID(ctx, targetID)
	if err != nil {
		return mapUserErr(err)
	}

	if !CanResetMFA(actor, target) {
		return ErrForbidden
	}

	if err := s.Store.Users().ClearMFA(ctx, targetID); err != nil {
		return fmt.Errorf("failed to clear MFA: %w", err)
	}

	s.Audit.Record(actor.ID, domain.AuditMFAReset, "user", targetID, target.TenantID)
	return nil
}

// checkCode verifies a TOTP code with lockout accounting keyed per user.
func (s *MFAService) checkCode(ctx context.Context, u domain.User, code string) error {
	now := time.Now().UTC()

	count, err := s.Store.LoginAttempts().Count(ctx, attemptScopeMFA, u.ID, now, s.AttemptWindow)
	if err != nil {
		return fmt.Errorf("failed to read attempt counter: %w", err)
	}
	if count >= s.MaxAttempts {
		return ErrLockedOut
	}

	if u.MFASecret == nil || !otpx.VerifyCodeAt(code, *u.MFASecret, now, s.ToleranceSeconds) {
		count, err := s.Store.LoginAttempts().Bump(ctx, attemptScopeMFA, u.ID, now, s.AttemptWindow)
		if err != nil {
			return fmt.Errorf("failed to bump attempt counter: %w", err)
		}
		if count >= s.MaxAttempts {
			return ErrLockedOut
		}
		return ErrInvalidMFACode
	}

	if err := s.Store.LoginAttempts().Clear(ctx, attemptScopeMFA, u.ID); err != nil {
		return fmt.Errorf("failed to clear attempt counter: %w", err)
	}
	return nil
}

func mapUserErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("failed to look up user: %w", err)
}
