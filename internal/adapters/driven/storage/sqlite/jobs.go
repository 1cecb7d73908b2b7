package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
	"github.com/custodia-labs/sage-cli/internal/core/ports/driven"
)

// jobStore implements driven.JobStore.
type jobStore struct {
	store *Store
}

var _ driven.JobStore = (*jobStore)(nil)

const jobColumns = `id, document_ids, state, processed, total, progress, message,
	failures, success, created_at, started_at, completed_at`

// SaveJob inserts or replaces a job.
func (s *jobStore) SaveJob(ctx context.Context, job *domain.IngestionJob) error {
	ids, err := json.Marshal(job.DocumentIDs)
	if err != nil {
		return fmt.Errorf("marshalling document ids: %w", err)
	}
	failures := job.Failures
	if failures == nil {
		failures = []domain.DocumentFailure{}
	}
	failuresJSON, err := json.Marshal(failures)
	if err != nil {
		return fmt.Errorf("marshalling failures: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO jobs (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state,
			processed = excluded.processed,
			total = excluded.total,
			progress = excluded.progress,
			message = excluded.message,
			failures = excluded.failures,
			success = excluded.success,
			started_at = excluded.started_at,
			completed_at = excluded.completed_at
	`, job.ID, string(ids), string(job.State), job.Processed, job.Total, job.Progress, job.Message,
		string(failuresJSON), job.Success, job.CreatedAt.UTC(), nullTime(job.StartedAt), nullTime(job.CompletedAt))
	if err != nil {
		return fmt.Errorf("saving job: %w", err)
	}
	return nil
}

// GetJob retrieves a job by ID.
func (s *jobStore) GetJob(ctx context.Context, id string) (*domain.IngestionJob, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if err != nil {
		return nil, notFound(err, "job", id)
	}
	return job, nil
}

// ListJobs returns jobs newest first.
func (s *jobStore) ListJobs(ctx context.Context, limit int) ([]domain.IngestionJob, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs ORDER BY created_at DESC, id`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.IngestionJob //nolint:prealloc // size unknown from query
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating jobs: %w", err)
	}
	return jobs, nil
}

func scanJob(row scanner) (*domain.IngestionJob, error) {
	var job domain.IngestionJob
	var ids, state, failures string
	var started, completed sql.NullTime

	if err := row.Scan(&job.ID, &ids, &state, &job.Processed, &job.Total, &job.Progress, &job.Message,
		&failures, &job.Success, &job.CreatedAt, &started, &completed); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(ids), &job.DocumentIDs); err != nil {
		return nil, fmt.Errorf("unmarshalling document ids: %w", err)
	}
	if err := json.Unmarshal([]byte(failures), &job.Failures); err != nil {
		return nil, fmt.Errorf("unmarshalling failures: %w", err)
	}
	if len(job.Failures) == 0 {
		job.Failures = nil
	}
	job.State = domain.JobState(state)
	job.StartedAt = started.Time
	job.CompletedAt = completed.Time
	return &job, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
