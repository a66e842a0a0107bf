package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/quorumlabs/minute/internal/auth/domain"
)

type tenantsRepo struct {
	q querier
}

func (r *tenantsRepo) GetTenantByID(ctx context.Context, id string) (domain.Tenant, error) {
	var (
		t         domain.Tenant
		status    string
		deletedAt sql.NullTime
	)
	err := r.q.QueryRowContext(ctx,
		`SELECT id, name, status, deleted_at, created_at, updated_at
		 FROM tenants WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &status, &deletedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return domain.Tenant{}, mapNotFound(err)
	}
	t.Status = domain.TenantStatus(status)
	t.DeletedAt = mapNullTimePtr(deletedAt)
	return t, nil
}

func (r *tenantsRepo) CreateTenant(ctx context.Context, t domain.Tenant) error {
	now := time.Now().UTC()
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO tenants (id, name, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.Name, string(t.Status), now, now,
	)
	return mapConstraint(err)
}

func (r *tenantsRepo) UpdateTenantStatus(ctx context.Context, id string, status domain.TenantStatus) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE tenants SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return requireRowsAffected(res)
}

func (r *tenantsRepo) SoftDeleteTenant(ctx context.Context, id string) error {
	now := time.Now().UTC()
	res, err := r.q.ExecContext(ctx,
		`UPDATE tenants SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		now, now, id)
	if err != nil {
		return err
	}
	return requireRowsAffected(res)
}
