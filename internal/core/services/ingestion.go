package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
	"github.com/custodia-labs/sage-cli/internal/core/ports/driven"
	"github.com/custodia-labs/sage-cli/internal/core/ports/driving"
	"github.com/custodia-labs/sage-cli/internal/logger"
)

// Ensure IngestionController implements the interfaces.
var (
	_ driving.IngestionController = (*IngestionController)(nil)
	_ DeletionGuard               = (*IngestionController)(nil)
)

const (
	reasonEmptyContent = "empty content"
	reasonInterrupted  = "interrupted"
	waitPollInterval   = 50 * time.Millisecond

	// DefaultLeaseTTL is how long a job lease survives without a heartbeat.
	DefaultLeaseTTL = 30 * time.Second
)

// IngestionController re-indexes documents in the background, one job at a
// time. The running job is owned by the controller and only read through
// copies. With a JobLock the rule holds across every process sharing the
// lock: the controller must hold the lease to run or recover jobs.
type IngestionController struct {
	docs     driven.DocumentStore
	jobs     driven.JobStore
	index    driven.VectorIndex
	embedder driven.EmbeddingService
	chunker  driven.Chunker
	log      logger.Component
	now      func() time.Time

	lock     driven.JobLock
	owner    string
	leaseTTL time.Duration

	mu      sync.Mutex
	running *domain.IngestionJob
	wg      sync.WaitGroup
}

// NewIngestionController creates a controller.
func NewIngestionController(
	docs driven.DocumentStore,
	jobs driven.JobStore,
	index driven.VectorIndex,
	embedder driven.EmbeddingService,
	chunker driven.Chunker,
) *IngestionController {
	return &IngestionController{
		docs:     docs,
		jobs:     jobs,
		index:    index,
		embedder: embedder,
		chunker:  chunker,
		log:      logger.For("ingest"),
		now:      time.Now,
		owner:    fmt.Sprintf("pid-%d-%s", os.Getpid(), uuid.New().String()[:8]),
		leaseTTL: DefaultLeaseTTL,
	}
}

// WithLock makes the controller take lock before running or recovering
// jobs. A lease not renewed within ttl is treated as abandoned.
func (c *IngestionController) WithLock(lock driven.JobLock, ttl time.Duration) *IngestionController {
	c.lock = lock
	if ttl > 0 {
		c.leaseTTL = ttl
	}
	return c
}

// Submit validates documentIDs, records a job and starts it in the background.
func (c *IngestionController) Submit(ctx context.Context, documentIDs []string) (string, error) {
	return c.submit(ctx, documentIDs, false)
}

// Rebuild withdraws every document's vectors and re-indexes all of them.
func (c *IngestionController) Rebuild(ctx context.Context) (string, error) {
	docs, err := c.docs.ListDocuments(ctx, domain.DocumentFilter{})
	if err != nil {
		return "", fmt.Errorf("list documents: %w", err)
	}
	ids := make([]string, len(docs))
	for i := range docs {
		ids[i] = docs[i].ID
	}
	return c.submit(ctx, ids, true)
}

func (c *IngestionController) submit(ctx context.Context, documentIDs []string, reset bool) (string, error) {
	ids := dedupe(documentIDs)
	if len(ids) == 0 {
		return "", fmt.Errorf("%w: no documents to train", domain.ErrInvalidInput)
	}
	if c.embedder == nil {
		return "", domain.ErrEmbeddingUnavailable
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running != nil {
		return "", fmt.Errorf("job %s: %w", c.running.ID, domain.ErrBusy)
	}

	for _, id := range ids {
		if _, err := c.docs.GetDocument(ctx, id); err != nil {
			return "", err
		}
	}

	jobID := uuid.New().String()
	if err := c.acquire(ctx, jobID); err != nil {
		return "", err
	}
	if reset {
		for _, id := range ids {
			if err := c.withdraw(ctx, id); err != nil {
				c.release(ctx)
				return "", err
			}
		}
		c.log.Info("withdrew vectors of %d documents for a rebuild", len(ids))
	}

	job := &domain.IngestionJob{
		ID:          jobID,
		DocumentIDs: ids,
		State:       domain.JobQueued,
		Total:       len(ids),
		Message:     "queued",
		CreatedAt:   c.now(),
	}
	if err := c.jobs.SaveJob(ctx, job); err != nil {
		c.release(ctx)
		return "", fmt.Errorf("save job: %w", err)
	}

	job.State = domain.JobRunning
	job.StartedAt = c.now()
	job.Message = fmt.Sprintf("indexing %d documents", job.Total)
	if err := c.jobs.SaveJob(ctx, job); err != nil {
		c.release(ctx)
		return "", fmt.Errorf("save job: %w", err)
	}
	c.running = job

	c.log.Info("job %s started over %d documents", job.ID, job.Total)

	c.wg.Add(1)
	go c.run(context.WithoutCancel(ctx), job.ID, ids)

	return job.ID, nil
}

// Status returns a snapshot of a job.
func (c *IngestionController) Status(ctx context.Context, jobID string) (*domain.IngestionJob, error) {
	c.mu.Lock()
	if c.running != nil && c.running.ID == jobID {
		snapshot := c.running.Clone()
		c.mu.Unlock()
		return snapshot, nil
	}
	c.mu.Unlock()

	return c.jobs.GetJob(ctx, jobID)
}

// Current returns a copy of the running job, or nil when idle.
func (c *IngestionController) Current() *domain.IngestionJob {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running.Clone()
}

// List returns recent jobs, newest first.
func (c *IngestionController) List(ctx context.Context, limit int) ([]domain.IngestionJob, error) {
	return c.jobs.ListJobs(ctx, limit)
}

// Guard runs fn while holding the controller lock, refusing when the
// running job, here or in another process holding the lease, targets
// documentID.
func (c *IngestionController) Guard(documentID string, fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running != nil && c.running.Includes(documentID) {
		return fmt.Errorf("document %s is being indexed by job %s: %w",
			documentID, c.running.ID, domain.ErrConflict)
	}
	if job := c.foreignJob(context.Background()); job != nil && job.Includes(documentID) {
		return fmt.Errorf("document %s is being indexed by job %s: %w",
			documentID, job.ID, domain.ErrConflict)
	}
	return fn()
}

// Wait polls until the job reaches a terminal state or ctx is done.
func (c *IngestionController) Wait(ctx context.Context, jobID string) (*domain.IngestionJob, error) {
	ticker := time.NewTicker(waitPollInterval)
	defer ticker.Stop()

	for {
		job, err := c.Status(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if job.Completed() {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Shutdown waits for the background job to finish or ctx to expire.
func (c *IngestionController) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recover fails jobs and documents left in flight by a process that died.
// With a lock it only runs when the lease is free or stale, so a live job
// of another process is never touched.
func (c *IngestionController) Recover(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lock != nil && c.running == nil {
		if err := c.acquire(ctx, ""); err != nil {
			if errors.Is(err, domain.ErrBusy) {
				c.log.Debug("skipping recovery: %v", err)
				return nil
			}
			return err
		}
		defer c.release(ctx)
	}

	jobs, err := c.jobs.ListJobs(ctx, 0)
	if err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}
	for i := range jobs {
		job := &jobs[i]
		if job.Completed() || (c.running != nil && c.running.ID == job.ID) {
			continue
		}
		job.State = domain.JobFailed
		job.Message = reasonInterrupted
		job.CompletedAt = c.now()
		if err := c.jobs.SaveJob(ctx, job); err != nil {
			return fmt.Errorf("save job: %w", err)
		}
		c.log.Warn("job %s was interrupted", job.ID)
	}

	docs, err := c.docs.ListDocuments(ctx, domain.DocumentFilter{Status: domain.StatusIndexing})
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	for i := range docs {
		if c.running != nil && c.running.Includes(docs[i].ID) {
			continue
		}
		if err := c.fail(ctx, docs[i].ID, reasonInterrupted); err != nil {
			return err
		}
	}
	return nil
}

func (c *IngestionController) run(ctx context.Context, jobID string, ids []string) {
	defer c.wg.Done()

	stop := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		c.keepAlive(ctx, stop)
	}()

	indexed := 0
	for i, id := range ids {
		var failure *domain.DocumentFailure
		if err := c.indexDocument(ctx, id); err != nil {
			reason := failureReason(err)
			c.log.Warn("document %s failed: %v", id, err)
			if ferr := c.fail(ctx, id, reason); ferr != nil {
				c.log.Error("mark document %s failed: %v", id, ferr)
			}
			failure = &domain.DocumentFailure{DocumentID: id, Title: c.title(ctx, id), Reason: reason}
		} else {
			indexed++
		}

		if snapshot := c.advance(jobID, i+1, failure); snapshot != nil {
			if err := c.jobs.SaveJob(ctx, snapshot); err != nil {
				c.log.Error("save progress of job %s: %v", jobID, err)
			}
		}
	}

	close(stop)
	<-stopped
	c.finish(ctx, jobID, indexed)
}

// acquire takes the lease for jobID. Without a lock it always succeeds.
func (c *IngestionController) acquire(ctx context.Context, jobID string) error {
	if c.lock == nil {
		return nil
	}
	lease := domain.JobLease{Owner: c.owner, JobID: jobID, HeartbeatAt: c.now()}
	if err := c.lock.Acquire(ctx, lease, c.leaseTTL); err != nil {
		if errors.Is(err, domain.ErrBusy) {
			return err
		}
		return fmt.Errorf("acquire job lock: %w", err)
	}
	return nil
}

func (c *IngestionController) release(ctx context.Context) {
	if c.lock == nil {
		return
	}
	if err := c.lock.Release(ctx, c.owner); err != nil {
		c.log.Warn("release job lock: %v", err)
	}
}

// keepAlive renews the lease until stop is closed.
func (c *IngestionController) keepAlive(ctx context.Context, stop <-chan struct{}) {
	if c.lock == nil {
		return
	}
	ticker := time.NewTicker(c.leaseTTL / 3)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := c.lock.Heartbeat(ctx, c.owner, c.now()); err != nil {
				c.log.Error("renew job lock: %v", err)
			}
		}
	}
}

// foreignJob returns the job another live process is running, if any.
func (c *IngestionController) foreignJob(ctx context.Context) *domain.IngestionJob {
	if c.lock == nil {
		return nil
	}
	lease, err := c.lock.Holder(ctx)
	if err != nil || lease.Owner == c.owner || lease.JobID == "" || lease.Stale(c.now(), c.leaseTTL) {
		return nil
	}
	job, err := c.jobs.GetJob(ctx, lease.JobID)
	if err != nil {
		return nil
	}
	return job
}

// indexDocument chunks and embeds one document, then publishes its chunks
// and vectors. Vectors become visible in a single Upsert.
func (c *IngestionController) indexDocument(ctx context.Context, id string) error {
	doc, err := c.docs.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	if err := c.docs.UpdateStatus(ctx, id, domain.StatusIndexing, ""); err != nil {
		return fmt.Errorf("mark indexing: %w", err)
	}

	chunks, err := c.chunker.Chunk(ctx, doc)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return domain.ErrEmptyContent
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}
	embeddings, err := c.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embed: got %d vectors for %d chunks: %w",
			len(embeddings), len(chunks), domain.ErrEmbeddingUnavailable)
	}

	vectors := make([]driven.IndexedVector, len(chunks))
	for i := range chunks {
		vectors[i] = driven.IndexedVector{
			ChunkID: chunks[i].ID,
			Ordinal: chunks[i].Ordinal,
			Vector:  embeddings[i],
		}
	}

	if err := c.docs.ReplaceChunks(ctx, id, chunks); err != nil {
		return fmt.Errorf("save chunks: %w", err)
	}
	if err := c.index.Upsert(ctx, id, vectors); err != nil {
		return fmt.Errorf("publish vectors: %w", err)
	}
	if err := c.docs.UpdateStatus(ctx, id, domain.StatusIndexed, ""); err != nil {
		return fmt.Errorf("mark indexed: %w", err)
	}

	c.log.Debug("document %s indexed with %d chunks", id, len(chunks))
	return nil
}

// withdraw returns a document to uploaded with no chunks or vectors.
func (c *IngestionController) withdraw(ctx context.Context, id string) error {
	if err := c.index.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove vectors of %s: %w", id, err)
	}
	if err := c.docs.ReplaceChunks(ctx, id, nil); err != nil {
		return fmt.Errorf("clear chunks of %s: %w", id, err)
	}
	if err := c.docs.UpdateStatus(ctx, id, domain.StatusUploaded, ""); err != nil {
		return fmt.Errorf("reset %s: %w", id, err)
	}
	return nil
}

// fail withdraws whatever a document had published and records reason.
func (c *IngestionController) fail(ctx context.Context, id, reason string) error {
	if err := c.index.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove vectors of %s: %w", id, err)
	}
	if err := c.docs.ReplaceChunks(ctx, id, nil); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("clear chunks of %s: %w", id, err)
	}
	if err := c.docs.UpdateStatus(ctx, id, domain.StatusFailed, reason); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("mark %s failed: %w", id, err)
	}
	return nil
}

func (c *IngestionController) advance(jobID string, processed int, failure *domain.DocumentFailure) *domain.IngestionJob {
	c.mu.Lock()
	defer c.mu.Unlock()

	job := c.running
	if job == nil || job.ID != jobID {
		return nil
	}
	job.Processed = processed
	job.Progress = domain.ProgressPercent(processed, job.Total)
	if failure != nil {
		job.Failures = append(job.Failures, *failure)
	}
	job.Message = fmt.Sprintf("processed %d of %d documents", processed, job.Total)
	return job.Clone()
}

func (c *IngestionController) finish(ctx context.Context, jobID string, indexed int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	job := c.running
	if job == nil || job.ID != jobID {
		return
	}

	job.Processed = job.Total
	job.Progress = 100
	job.CompletedAt = c.now()
	if indexed == 0 {
		job.State = domain.JobFailed
		job.Message = fmt.Sprintf("indexed 0 of %d documents", job.Total)
	} else {
		job.State = domain.JobCompleted
		job.Success = true
		job.Message = fmt.Sprintf("indexed %d of %d documents", indexed, job.Total)
	}
	if len(job.Failures) > 0 {
		job.Message += "; failed: " + describeFailures(job.Failures)
	}

	if err := c.jobs.SaveJob(ctx, job); err != nil {
		c.log.Error("save job %s: %v", jobID, err)
	}
	c.log.Info("job %s %s: %s", job.ID, job.State, job.Message)
	c.running = nil
	c.release(ctx)
}

func (c *IngestionController) title(ctx context.Context, id string) string {
	doc, err := c.docs.GetDocument(ctx, id)
	if err != nil {
		return ""
	}
	return doc.Title
}

func failureReason(err error) string {
	if errors.Is(err, domain.ErrEmptyContent) {
		return reasonEmptyContent
	}
	return err.Error()
}

func describeFailures(failures []domain.DocumentFailure) string {
	parts := make([]string, 0, len(failures))
	for _, f := range failures {
		name := f.Title
		if name == "" {
			name = f.DocumentID
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", name, f.Reason))
	}
	return strings.Join(parts, ", ")
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
