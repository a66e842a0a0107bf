package domain

import "time"

// TenantStatus gates whether a tenant's users may start new sessions.
type TenantStatus string

const (
	TenantActive    TenantStatus = "ACTIVE"
	TenantSuspended TenantStatus = "SUSPENDED"
)

// Tenant is an isolated customer organisation. All business data belongs to
// exactly one tenant; only SUPER_ADMIN operates across them.
type Tenant struct {
	ID        string
	Name      string
	Status    TenantStatus
	DeletedAt *time.Time // soft delete marker
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanAuthorize reports whether the tenant may authorize new sessions.
// Suspended or soft-deleted tenants may not; existing tokens simply age out.
func (t Tenant) CanAuthorize() bool {
	return t.Status == TenantActive && t.DeletedAt == nil
}
