package driving

import (
	"context"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
)

// IngestionController runs (re)indexing jobs, one at a time.
type IngestionController interface {
	// Submit starts a job over documentIDs and returns its ID.
	// Fails with domain.ErrBusy while another job is running.
	Submit(ctx context.Context, documentIDs []string) (string, error)

	// Rebuild re-indexes every document from scratch. All vectors are
	// withdrawn first, so the index takes the dimension of the current
	// embedding model. Fails with domain.ErrBusy like Submit.
	Rebuild(ctx context.Context) (string, error)

	// Status returns a snapshot of a job. Unknown IDs fail with domain.ErrNotFound.
	Status(ctx context.Context, jobID string) (*domain.IngestionJob, error)

	// Current returns the running job, or nil when idle.
	Current() *domain.IngestionJob

	// List returns recent jobs, newest first.
	List(ctx context.Context, limit int) ([]domain.IngestionJob, error)

	// Recover fails jobs and documents left in flight by a process that
	// died. It does nothing while another live process owns the job lease.
	Recover(ctx context.Context) error
}
