package service

import "github.com/quorumlabs/minute/internal/auth/domain"

// Actor is the authenticated caller as seen by the policy checks. It is built
// from the verified session, never from request headers or body fields.
type Actor struct {
	ID       string
	Role     domain.Role
	TenantID string // "" for SUPER_ADMIN
}

// CanResetMFA decides whether actor may reset the target user's second
// factor.
//
// Everyone may reset their own. COMPANY_ADMIN may reset users of its own
// tenant only, and never a SUPER_ADMIN. SUPER_ADMIN may reset anyone across
// tenants except another SUPER_ADMIN. ADMIN and STAFF get self-service only.
func CanResetMFA(actor Actor, target domain.User) bool {
	if actor.ID == target.ID {
		return true
	}

	if !actor.Role.IsAdministrative() || target.Role == domain.RoleSuperAdmin {
		return false
	}
	if actor.Role == domain.RoleSuperAdmin {
		return true
	}
	return actor.TenantID != "" && actor.TenantID == target.Tenant()
}
