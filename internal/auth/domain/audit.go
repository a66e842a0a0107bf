package domain

import "time"

// Audit action codes recorded by this core. The set is append-only; renaming
// a code would orphan historical entries.
const (
	AuditMFALogin        = "mfa.login"
	AuditMFAReset        = "mfa.reset"
	AuditMFAActivated    = "mfa.activated"
	AuditPasswordReset   = "password.reset"
	AuditPasswordChanged = "password.changed"
)

// AuditEntry is one append-only security event. Entries are never mutated or
// deleted by this subsystem.
type AuditEntry struct {
	ID         string
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	TenantID   *string
	Details    string // opaque JSON text, may be empty
	CreatedAt  time.Time
}
