package domain

import (
	"fmt"
	"strings"
	"time"
)

// JobState is the state of an ingestion job.
//
//	queued -> running -> completed | failed
type JobState string

// Ingestion job states.
const (
	JobQueued    JobState = "queued"
	JobRunning   JobState = "running"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
)

// IsValid returns true if the state is recognised.
func (s JobState) IsValid() bool {
	switch s {
	case JobQueued, JobRunning, JobCompleted, JobFailed:
		return true
	default:
		return false
	}
}

// IsTerminal returns true for completed and failed.
func (s JobState) IsTerminal() bool {
	return s == JobCompleted || s == JobFailed
}

// String returns the string representation.
func (s JobState) String() string {
	return string(s)
}

// ParseJobState converts a boundary value into a JobState.
func ParseJobState(s string) (JobState, error) {
	st := JobState(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: unknown job state %q", ErrInvalidInput, s)
	}
	return st, nil
}

// DocumentFailure records why one document of a job failed.
type DocumentFailure struct {
	DocumentID string `json:"document_id"`
	Title      string `json:"title,omitempty"`
	Reason     string `json:"reason"`
}

// IngestionJob is an asynchronous re-indexing run over a set of documents.
type IngestionJob struct {
	// ID is the unique identifier (UUID).
	ID string `json:"id"`

	// DocumentIDs are the target documents, processed in order.
	DocumentIDs []string `json:"document_ids"`

	// State is the job state.
	State JobState `json:"state"`

	// Processed is the number of documents fully processed, successful or not.
	Processed int `json:"processed"`

	// Total is the number of target documents.
	Total int `json:"total"`

	// Progress is Processed/Total as a percentage, 0-100.
	Progress int `json:"progress"`

	// Message is a human-readable status line.
	Message string `json:"message"`

	// Failures lists the documents that failed so far.
	Failures []DocumentFailure `json:"failures,omitempty"`

	// Success is set when the job completed with at least one document indexed.
	Success bool `json:"success"`

	// CreatedAt is when the job was submitted.
	CreatedAt time.Time `json:"created_at"`

	// StartedAt is when the job entered running.
	StartedAt time.Time `json:"started_at,omitempty"`

	// CompletedAt is when the job reached a terminal state.
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

// Completed reports whether the job reached a terminal state.
func (j *IngestionJob) Completed() bool {
	return j.State.IsTerminal()
}

// Err classifies a terminal job: nil on full success, ErrPartialIngestion
// when some documents failed, and nil while the job is still in flight.
func (j *IngestionJob) Err() error {
	if !j.Completed() || len(j.Failures) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d documents failed", ErrPartialIngestion, len(j.Failures), j.Total)
}

// Clone returns a deep copy safe to hand to callers.
func (j *IngestionJob) Clone() *IngestionJob {
	if j == nil {
		return nil
	}
	c := *j
	c.DocumentIDs = append([]string(nil), j.DocumentIDs...)
	c.Failures = append([]DocumentFailure(nil), j.Failures...)
	return &c
}

// Includes reports whether documentID is one of the job's targets.
func (j *IngestionJob) Includes(documentID string) bool {
	for _, id := range j.DocumentIDs {
		if id == documentID {
			return true
		}
	}
	return false
}

// ProgressPercent computes the progress percentage for processed of total.
func ProgressPercent(processed, total int) int {
	if total <= 0 {
		return 100
	}
	if processed >= total {
		return 100
	}
	return processed * 100 / total
}

// JobLease is the single lock record that makes one process the owner of
// the running job. Owners renew HeartbeatAt while they work; a lease that
// has not been renewed within its TTL belongs to a dead process.
type JobLease struct {
	Owner       string    `json:"owner"`
	JobID       string    `json:"job_id,omitempty"`
	HeartbeatAt time.Time `json:"heartbeat_at"`
}

// Stale reports whether the lease expired at now.
func (l *JobLease) Stale(now time.Time, ttl time.Duration) bool {
	return now.Sub(l.HeartbeatAt) > ttl
}
