package domain

// Role is the coarse access level of a user. Every user has exactly one.
type Role string

const (
	// RoleSuperAdmin operates across tenants; the only role with a null tenant.
	RoleSuperAdmin Role = "SUPER_ADMIN"

	// RoleCompanyAdmin administers a single tenant.
	RoleCompanyAdmin Role = "COMPANY_ADMIN"

	// RoleAdmin manages meeting content within a tenant.
	RoleAdmin Role = "ADMIN"

	// RoleStaff is a regular tenant member.
	RoleStaff Role = "STAFF"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleCompanyAdmin, RoleAdmin, RoleStaff:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// IsAdministrative reports whether the role may manage other accounts at all.
func (r Role) IsAdministrative() bool {
	return r == RoleSuperAdmin || r == RoleCompanyAdmin
}
