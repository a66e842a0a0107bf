package store

import (
	"context"
	"errors"
	"time"

	"github.com/quorumlabs/minute/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and to actively stop callers from accidentally nesting
// transactions.
type Store interface {
	Users() Users
	Tenants() Tenants
	AuditLog() AuditLog
	LoginAttempts() LoginAttempts

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise committed. This is the
	// recommended way to run multi-step mutations (e.g. enroll/activate on
	// the same account) atomically.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during login. Email lookups are case-insensitive.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// GetUserByResetTokenHash finds the user holding an outstanding reset
	// token fingerprint.
	GetUserByResetTokenHash(ctx context.Context, hash string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password_hash (argon2) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	// UpdateMFASecret stores the enrollment secret while MFA stays disabled.
	// Re-enrollment overwrites any prior unverified secret.
	UpdateMFASecret(ctx context.Context, userID string, secret string) error

	// EnableMFA marks MFA as activated (sets mfa_enabled_at).
	EnableMFA(ctx context.Context, userID string) error

	// ClearMFA resets MFA entirely: secret and enabled timestamp go null in
	// a single statement so the secret/enabled invariant cannot be split.
	ClearMFA(ctx context.Context, userID string) error

	// SetResetToken stores the fingerprint and expiry of a password-reset
	// token, replacing any outstanding one.
	SetResetToken(ctx context.Context, userID, hash string, expiresAt time.Time) error

	// ClearResetToken invalidates the outstanding reset token, if any.
	ClearResetToken(ctx context.Context, userID string) error

	// ClearExpiredResetTokens removes reset tokens whose expiry passed.
	// Returns the number of rows touched. Used by housekeeping.
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}

type Tenants interface {
	// GetTenantByID fetches a tenant, including suspended and soft-deleted ones.
	GetTenantByID(ctx context.Context, id string) (domain.Tenant, error)

	// CreateTenant inserts a new tenant.
	CreateTenant(ctx context.Context, t domain.Tenant) error

	// UpdateTenantStatus flips ACTIVE/SUSPENDED.
	UpdateTenantStatus(ctx context.Context, id string, status domain.TenantStatus) error

	// SoftDeleteTenant sets the deleted_at marker.
	SoftDeleteTenant(ctx context.Context, id string) error
}

type AuditLog interface {
	// Append writes one audit entry. The table is append-only; there are no
	// update or delete operations.
	Append(ctx context.Context, e domain.AuditEntry) error

	// ListByEntity returns entries for an entity, newest first.
	ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]domain.AuditEntry, error)
}

// LoginAttempts is the brute-force counter: an explicit, persisted resource
// with window semantics so lockout survives restarts and works across
// replicas sharing the database.
type LoginAttempts interface {
	// Bump atomically increments the counter for (scope, key). If the
	// current window started before now-window, the counter restarts at 1.
	// Returns the post-increment count.
	Bump(ctx context.Context, scope, key string, now time.Time, window time.Duration) (int, error)

	// Count reads the current counter without incrementing. Counters whose
	// window has lapsed read as zero.
	Count(ctx context.Context, scope, key string, now time.Time, window time.Duration) (int, error)

	// Clear removes the counter, used after a successful authentication.
	Clear(ctx context.Context, scope, key string) error

	// DeleteStale removes counters whose window started before cutoff.
	DeleteStale(ctx context.Context, cutoff time.Time) error
}
