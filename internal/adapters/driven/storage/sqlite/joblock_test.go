package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
)

func TestJobLock(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	lock := store.JobLock()
	ttl := time.Minute
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	_, err := lock.Holder(ctx)
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, lock.Acquire(ctx, domain.JobLease{Owner: "serve", JobID: "j1", HeartbeatAt: start}, ttl))

	held, err := lock.Holder(ctx)
	require.NoError(t, err)
	assert.Equal(t, "serve", held.Owner)
	assert.Equal(t, "j1", held.JobID)
	assert.True(t, start.Equal(held.HeartbeatAt))

	// A second process is refused while the holder is live.
	err = lock.Acquire(ctx, domain.JobLease{Owner: "cli", JobID: "j2", HeartbeatAt: start.Add(30 * time.Second)}, ttl)
	require.ErrorIs(t, err, domain.ErrBusy)
	assert.Contains(t, err.Error(), "j1")

	// The owner may re-acquire, for example for its next job.
	require.NoError(t, lock.Acquire(ctx, domain.JobLease{Owner: "serve", JobID: "j3", HeartbeatAt: start}, ttl))

	// Heartbeats keep the lease live past the original TTL.
	require.NoError(t, lock.Heartbeat(ctx, "serve", start.Add(50*time.Second)))
	err = lock.Acquire(ctx, domain.JobLease{Owner: "cli", HeartbeatAt: start.Add(90 * time.Second)}, ttl)
	require.ErrorIs(t, err, domain.ErrBusy)

	require.ErrorIs(t, lock.Heartbeat(ctx, "cli", start), domain.ErrConflict)

	// Releasing someone else's lease is a no-op.
	require.NoError(t, lock.Release(ctx, "cli"))
	held, err = lock.Holder(ctx)
	require.NoError(t, err)
	assert.Equal(t, "serve", held.Owner)

	require.NoError(t, lock.Release(ctx, "serve"))
	_, err = lock.Holder(ctx)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestJobLock_StaleLeaseIsTakenOver(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	lock := store.JobLock()
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, lock.Acquire(ctx, domain.JobLease{Owner: "dead", JobID: "j1", HeartbeatAt: start}, time.Minute))
	require.NoError(t, lock.Acquire(ctx, domain.JobLease{Owner: "next", HeartbeatAt: start.Add(2 * time.Minute)}, time.Minute))

	held, err := lock.Holder(ctx)
	require.NoError(t, err)
	assert.Equal(t, "next", held.Owner)
	assert.Empty(t, held.JobID)

	require.ErrorIs(t, lock.Heartbeat(ctx, "dead", start.Add(2*time.Minute)), domain.ErrConflict)
}
