package domain

import "time"

// User is an account record. TenantID is nil only for SUPER_ADMIN users.
//
// Invariant: MFAEnabledAt non-nil implies MFASecret non-nil. A user with no
// secret is always MFA-disabled; the store clears both in one statement.
type User struct {
	ID           string
	Email        string // unique, lowercased
	PasswordHash string // argon2id PHC encoded
	Role         Role
	TenantID     *string

	MFASecret    *string    // TOTP secret (base32), persisted from enrollment on
	MFAEnabledAt *time.Time // timestamp when MFA was activated (nullable)

	ResetTokenHash      *string    // SHA-256 fingerprint of the outstanding reset token
	ResetTokenExpiresAt *time.Time // reset token validity bound

	CreatedAt time.Time
	UpdatedAt time.Time
}

// MFAEnabled reports whether the user has completed MFA activation.
func (u User) MFAEnabled() bool { return u.MFAEnabledAt != nil }

// Tenant returns the tenant id or "" for tenant-less (SUPER_ADMIN) users.
func (u User) Tenant() string {
	if u.TenantID == nil {
		return ""
	}
	return *u.TenantID
}

// UserSummary is the public shape returned by login and profile endpoints.
// It never carries hashes, secrets or reset tokens.
type UserSummary struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	TenantID   string `json:"tenant_id,omitempty"`
	MFAEnabled bool   `json:"mfa_enabled"`
}

// Summary builds the public view of the user.
func (u User) Summary() UserSummary {
	return UserSummary{
		ID:         u.ID,
		Email:      u.Email,
		Role:       u.Role.String(),
		TenantID:   u.Tenant(),
		MFAEnabled: u.MFAEnabled(),
	}
}
