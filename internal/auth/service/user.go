package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/quorumlabs/minute/internal/auth/domain"
	"github.com/quorumlabs/minute/internal/auth/store"
	"github.com/quorumlabs/minute/pkg/cryptox"
	"github.com/quorumlabs/minute/pkg/idx"
)

// UserService covers the small account-management surface this core needs:
// lookups for identity echo and admin flows, plus account creation used by
// seeding and tests.
type UserService struct {
	Store store.Store
}

func (s *UserService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.User{}, mapUserErr(err)
	}
	return u, nil
}

// CreateUser hashes the password and inserts the account. Email is
// normalised to lowercase; role must be one of the known roles and only
// SUPER_ADMIN may have a nil tenant.
func (s *UserService) CreateUser(ctx context.Context, email, password string, role domain.Role, tenantID *string) (domain.User, error) {
	if !role.Valid() {
		return domain.User{}, fmt.Errorf("unknown role %q", role)
	}
	if (tenantID == nil) != (role == domain.RoleSuperAdmin) {
		return domain.User{}, fmt.Errorf("role %s and tenant assignment do not match", role)
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	u := domain.User{
		ID:           idx.New().String(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		Role:         role,
		TenantID:     tenantID,
	}
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		return domain.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}
