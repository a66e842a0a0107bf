package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type loginAttemptsRepo struct {
	q querier
}

// Bump uses an upsert with RETURNING so increment-and-read is one atomic
// statement even without an explicit transaction. A window that started
// before now-window restarts at 1.
func (r *loginAttemptsRepo) Bump(ctx context.Context, scope, key string, now time.Time, window time.Duration) (int, error) {
	cutoff := now.Add(-window).UTC()

	var count int
	err := r.q.QueryRowContext(ctx,
		`INSERT INTO login_attempts (scope, attempt_key, count, window_started_at)
		 VALUES (?, ?, 1, ?)
		 ON CONFLICT (scope, attempt_key) DO UPDATE SET
		 	count = CASE WHEN window_started_at < ? THEN 1 ELSE count + 1 END,
		 	window_started_at = CASE WHEN window_started_at < ? THEN excluded.window_started_at ELSE window_started_at END
		 RETURNING count`,
		scope, key, now.UTC(), cutoff, cutoff,
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *loginAttemptsRepo) Count(ctx context.Context, scope, key string, now time.Time, window time.Duration) (int, error) {
	cutoff := now.Add(-window).UTC()

	var count int
	err := r.q.QueryRowContext(ctx,
		`SELECT count FROM login_attempts
		 WHERE scope = ? AND attempt_key = ? AND window_started_at >= ?`,
		scope, key, cutoff,
	).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *loginAttemptsRepo) Clear(ctx context.Context, scope, key string) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM login_attempts WHERE scope = ? AND attempt_key = ?`, scope, key)
	return err
}

func (r *loginAttemptsRepo) DeleteStale(ctx context.Context, cutoff time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM login_attempts WHERE window_started_at < ?`, cutoff.UTC())
	return err
}
