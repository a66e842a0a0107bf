package service

import (
	"testing"

	"github.com/quorumlabs/minute/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestCanResetMFA(t *testing.T) {
	t.Parallel()

	tenantA := "tenant-a"
	tenantB := "tenant-b"

	target := func(id string, role domain.Role, tenant *string) domain.User {
		return domain.User{ID: id, Role: role, TenantID: tenant}
	}

	tests := []struct {
		name   string
		actor  Actor
		target domain.User
		want   bool
	}{
		{
			name:   "self reset always allowed",
			actor:  Actor{ID: "u1", Role: domain.RoleStaff, TenantID: tenantA},
			target: target("u1", domain.RoleStaff, &tenantA),
			want:   true,
		},
		{
			name:   "super admin self reset",
			actor:  Actor{ID: "s1", Role: domain.RoleSuperAdmin},
			target: target("s1", domain.RoleSuperAdmin, nil),
			want:   true,
		},
		{
			name:   "staff cannot reset others",
			actor:  Actor{ID: "u1", Role: domain.RoleStaff, TenantID: tenantA},
			target: target("u2", domain.RoleStaff, &tenantA),
			want:   false,
		},
		{
			name:   "tenant admin cannot reset others",
			actor:  Actor{ID: "u1", Role: domain.RoleAdmin, TenantID: tenantA},
			target: target("u2", domain.RoleStaff, &tenantA),
			want:   false,
		},
		{
			name:   "company admin resets own tenant",
			actor:  Actor{ID: "c1", Role: domain.RoleCompanyAdmin, TenantID: tenantA},
			target: target("u2", domain.RoleStaff, &tenantA),
			want:   true,
		},
		{
			name:   "company admin blocked across tenants",
			actor:  Actor{ID: "c1", Role: domain.RoleCompanyAdmin, TenantID: tenantA},
			target: target("u3", domain.RoleStaff, &tenantB),
			want:   false,
		},
		{
			name:   "company admin cannot touch a super admin",
			actor:  Actor{ID: "c1", Role: domain.RoleCompanyAdmin, TenantID: tenantA},
			target: target("s1", domain.RoleSuperAdmin, nil),
			want:   false,
		},
		{
			name:   "company admin with no tenant matches nothing",
			actor:  Actor{ID: "c1", Role: domain.RoleCompanyAdmin},
			target: target("s2", domain.RoleStaff, nil),
			want:   false,
		},
		{
			name:   "super admin resets across tenants",
			actor:  Actor{ID: "s1", Role: domain.RoleSuperAdmin},
			target: target("u2", domain.RoleCompanyAdmin, &tenantB),
			want:   true,
		},
		{
			name:   "super admin blocked on another super admin",
			actor:  Actor{ID: "s1", Role: domain.RoleSuperAdmin},
			target: target("s2", domain.RoleSuperAdmin, nil),
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, CanResetMFA(tt.actor, tt.target))
		})
	}
}
