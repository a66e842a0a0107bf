package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/quorumlabs/minute/internal/auth/domain"
	"github.com/quorumlabs/minute/internal/auth/store"
	"github.com/quorumlabs/minute/pkg/cryptox"
)

const DefaultResetTokenTTL = 30 * time.Minute

// PasswordResetService issues and redeems single-use password reset tokens.
// Only a SHA-256 fingerprint of the token touches the database; the raw
// value exists once, in the reset message handed to the delivery channel.
type PasswordResetService struct {
	Store  store.Store
	Audit  *AuditService
	Logger *slog.Logger

	TokenTTL time.Duration
}

func NewPasswordResetService(st store.Store, audit *AuditService, logger *slog.Logger) *PasswordResetService {
	return &PasswordResetService{
		Store:    st,
		Audit:    audit,
		Logger:   logger,
		TokenTTL: DefaultResetTokenTTL,
	}
}

// Request creates a reset token for the account behind email, replacing any
// outstanding one. Unknown addresses return ("", nil) so the boundary can
// acknowledge uniformly; the caller must never reveal whether the account
// exists.
func (s *PasswordResetService) Request(ctx context.Context, email string) (string, error) {
	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to look up user: %w", err)
	}

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}

	expiresAt := time.Now().UTC().Add(s.TokenTTL)
	if err := s.Store.Users().SetResetToken(ctx, u.ID, cryptox.FingerprintToken(token), expiresAt); err != nil {
		return "", fmt.Errorf("failed to store reset token: %w", err)
	}

	s.Logger.Info("password reset requested", "user_id", u.ID)
	s.Audit.Record(u.ID, domain.AuditPasswordReset, "user", u.ID, u.TenantID)
	return token, nil
}

// Complete redeems a reset token: the new password is hashed and stored and
// the token invalidated in the same transaction, so a token redeems at most
// once even under concurrent attempts.
func (s *PasswordResetService) Complete(ctx context.Context, token, newPassword string) error {
	fingerprint := cryptox.FingerprintToken(token)

	u, err := s.Store.Users().GetUserByResetTokenHash(ctx, fingerprint)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to look up reset token: %w", err)
	}

	if u.ResetTokenExpiresAt == nil || time.Now().UTC().After(*u.ResetTokenExpiresAt) {
		return ErrInvalidResetToken
	}

	// Hash before opening the transaction; argon2 takes ~100ms and there is
	// no reason to hold the write lock for it.
	newHash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		// Re-resolve inside the transaction so two concurrent redeems cannot
		// both succeed.
		fresh, err := tx.Users().GetUserByResetTokenHash(ctx, fingerprint)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidResetToken
			}
			return err
		}
		if err := tx.Users().UpdatePasswordHash(ctx, fresh.ID, newHash); err != nil {
			return err
		}
		return tx.Users().ClearResetToken(ctx, fresh.ID)
	})
	if err != nil {
		if errors.Is(err, ErrInvalidResetToken) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to complete password reset: %w", err)
	}

	s.Audit.Record(u.ID, domain.AuditPasswordChanged, "user", u.ID, u.TenantID)
	return nil
}
