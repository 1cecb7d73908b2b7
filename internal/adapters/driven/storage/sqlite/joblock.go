package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
	"github.com/custodia-labs/sage-cli/internal/core/ports/driven"
)

// jobLock implements driven.JobLock on the single-row job_lock table, so
// every sage process sharing the database sees the same lease.
type jobLock struct {
	store *Store
}

var _ driven.JobLock = (*jobLock)(nil)

// Acquire takes the lease in one statement. The upsert only overwrites a
// row held by the same owner or one whose heartbeat is older than ttl.
func (l *jobLock) Acquire(ctx context.Context, lease domain.JobLease, ttl time.Duration) error {
	res, err := l.store.db.ExecContext(ctx, `
		INSERT INTO job_lock (id, owner, job_id, heartbeat_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner = excluded.owner,
			job_id = excluded.job_id,
			heartbeat_at = excluded.heartbeat_at
		WHERE job_lock.owner = excluded.owner OR job_lock.heartbeat_at < ?
	`, lease.Owner, lease.JobID, lease.HeartbeatAt.UnixNano(), lease.HeartbeatAt.Add(-ttl).UnixNano())
	if err != nil {
		return fmt.Errorf("acquiring job lock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("acquiring job lock: %w", err)
	}
	if n > 0 {
		return nil
	}

	held, err := l.Holder(ctx)
	if err != nil {
		return fmt.Errorf("job lock: %w", domain.ErrBusy)
	}
	return fmt.Errorf("job %s held by %s: %w", held.JobID, held.Owner, domain.ErrBusy)
}

// Heartbeat renews the owner's lease.
func (l *jobLock) Heartbeat(ctx context.Context, owner string, at time.Time) error {
	res, err := l.store.db.ExecContext(ctx,
		`UPDATE job_lock SET heartbeat_at = ? WHERE id = 1 AND owner = ?`, at.UnixNano(), owner)
	if err != nil {
		return fmt.Errorf("renewing job lock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("renewing job lock: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("lease of %s: %w", owner, domain.ErrConflict)
	}
	return nil
}

// Release frees the lease if owner holds it.
func (l *jobLock) Release(ctx context.Context, owner string) error {
	if _, err := l.store.db.ExecContext(ctx, `DELETE FROM job_lock WHERE id = 1 AND owner = ?`, owner); err != nil {
		return fmt.Errorf("releasing job lock: %w", err)
	}
	return nil
}

// Holder returns the current lease.
func (l *jobLock) Holder(ctx context.Context) (*domain.JobLease, error) {
	var (
		lease     domain.JobLease
		heartbeat int64
	)
	err := l.store.db.QueryRowContext(ctx,
		`SELECT owner, job_id, heartbeat_at FROM job_lock WHERE id = 1`,
	).Scan(&lease.Owner, &lease.JobID, &heartbeat)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job lease: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading job lock: %w", err)
	}
	lease.HeartbeatAt = time.Unix(0, heartbeat)
	return &lease, nil
}
