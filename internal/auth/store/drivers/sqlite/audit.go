package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/quorumlabs/minute/internal/auth/domain"
)

type auditRepo struct {
	q querier
}

func (r *auditRepo) Append(ctx context.Context, e domain.AuditEntry) error {
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO audit_log (id, actor_id, action, entity_type, entity_id, tenant_id, details, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ActorID, e.Action, e.EntityType, e.EntityID,
		mapOptionalString(e.TenantID), e.Details, createdAt,
	)
	return mapConstraint(err)
}

func (r *auditRepo) ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]domain.AuditEntry, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, actor_id, action, entity_type, entity_id, tenant_id, details, created_at
		 FROM audit_log
		 WHERE entity_type = ? AND entity_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		entityType, entityID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AuditEntry
	for rows.Next() {
		var (
			e        domain.AuditEntry
			tenantID sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.EntityType, &e.EntityID,
			&tenantID, &e.Details, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.TenantID = mapNullStringPtr(tenantID)
		out = append(out, e)
	}
	return out, rows.Err()
}
