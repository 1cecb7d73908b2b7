package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
	"github.com/custodia-labs/sage-cli/internal/core/ports/driven"
)

// Ensure JobLock implements the interface.
var _ driven.JobLock = (*JobLock)(nil)

// JobLock is an in-memory implementation of driven.JobLock. Controllers
// sharing one JobLock behave like processes sharing one data directory.
type JobLock struct {
	mu    sync.Mutex
	lease *domain.JobLease
}

// NewJobLock creates a free lock.
func NewJobLock() *JobLock {
	return &JobLock{}
}

// Acquire takes the lease when free, owned by lease.Owner, or stale.
func (l *JobLock) Acquire(_ context.Context, lease domain.JobLease, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if held := l.lease; held != nil && held.Owner != lease.Owner && !held.Stale(lease.HeartbeatAt, ttl) {
		return fmt.Errorf("job %s held by %s: %w", held.JobID, held.Owner, domain.ErrBusy)
	}
	l.lease = &lease
	return nil
}

// Heartbeat renews the owner's lease.
func (l *JobLock) Heartbeat(_ context.Context, owner string, at time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.lease == nil || l.lease.Owner != owner {
		return fmt.Errorf("lease of %s: %w", owner, domain.ErrConflict)
	}
	l.lease.HeartbeatAt = at
	return nil
}

// Release frees the lease if owner holds it.
func (l *JobLock) Release(_ context.Context, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.lease != nil && l.lease.Owner == owner {
		l.lease = nil
	}
	return nil
}

// Holder returns a copy of the current lease.
func (l *JobLock) Holder(_ context.Context) (*domain.JobLease, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.lease == nil {
		return nil, fmt.Errorf("job lease: %w", domain.ErrNotFound)
	}
	lease := *l.lease
	return &lease, nil
}
