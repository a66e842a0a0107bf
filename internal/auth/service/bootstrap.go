package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quorumlabs/minute/internal/auth/domain"
	"github.com/quorumlabs/minute/internal/auth/store"
)

// BootstrapService seeds the very first account. A fresh database has no
// users at all, so without this nobody could ever log in.
type BootstrapService struct {
	Store  store.Store
	Users  *UserService
	Logger *slog.Logger
}

// EnsureSuperAdmin creates a SUPER_ADMIN with the given credentials when the
// users table is empty. On an already-populated database it is a no-op, so
// it is safe to run at every startup.
func (s *BootstrapService) EnsureSuperAdmin(ctx context.Context, email, password string) error {
	empty, err := s.Store.Users().IsEmpty(ctx)
	if err != nil {
		return fmt.Errorf("failed to check for existing users: %w", err)
	}
	if !empty {
		return nil
	}
	if email == "" || password == "" {
		s.Logger.Warn("no users exist and no seed credentials configured; nobody can log in")
		return nil
	}

	u, err := s.Users.CreateUser(ctx, email, password, domain.RoleSuperAdmin, nil)
	if err != nil {
		return fmt.Errorf("failed to seed super admin: %w", err)
	}

	s.Logger.Info("seeded initial super admin", "user_id", u.ID, "email", u.Email)
	return nil
}
