package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
)

// JobStore persists ingestion jobs so their status survives restarts.
type JobStore interface {
	// SaveJob inserts or replaces a job.
	SaveJob(ctx context.Context, job *domain.IngestionJob) error

	// GetJob retrieves a job by ID. Returns domain.ErrNotFound for unknown IDs.
	GetJob(ctx context.Context, id string) (*domain.IngestionJob, error)

	// ListJobs returns jobs newest first, at most limit when limit > 0.
	ListJobs(ctx context.Context, limit int) ([]domain.IngestionJob, error)
}

// JobLock is the cross-process lease guarding the single running job.
// Every process sharing a data directory shares one lease.
type JobLock interface {
	// Acquire takes the lease for lease.Owner. It succeeds when the lease is
	// free, already held by the same owner, or stale for longer than ttl.
	// Otherwise it fails with domain.ErrBusy.
	Acquire(ctx context.Context, lease domain.JobLease, ttl time.Duration) error

	// Heartbeat renews the owner's lease. Fails with domain.ErrConflict when
	// owner no longer holds it.
	Heartbeat(ctx context.Context, owner string, at time.Time) error

	// Release frees the lease if owner holds it.
	Release(ctx context.Context, owner string) error

	// Holder returns the current lease, or domain.ErrNotFound when free.
	Holder(ctx context.Context) (*domain.JobLease, error)
}
