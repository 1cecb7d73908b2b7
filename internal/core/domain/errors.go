package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested document, chunk, job or member does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input, including unknown enum values.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict indicates the operation clashes with the current state,
	// for example deleting a document that the running job is indexing.
	ErrConflict = errors.New("conflict")

	// ErrBusy indicates an ingestion job is already running.
	// It matches ErrConflict under errors.Is.
	ErrBusy = fmt.Errorf("%w: ingestion job already running", ErrConflict)

	// ErrEmptyContent indicates the chunker found nothing to index.
	ErrEmptyContent = errors.New("empty content")

	// ErrNoKnowledge indicates a question was asked against an empty index.
	// The model is never called in this case.
	ErrNoKnowledge = errors.New("no knowledge indexed")

	// ErrModelUnavailable indicates the language model cannot be reached.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrGenerationTimeout indicates generation exceeded its wall-clock budget.
	ErrGenerationTimeout = errors.New("generation timed out")

	// ErrPartialIngestion classifies a job that completed with some documents failed.
	ErrPartialIngestion = errors.New("partial ingestion failure")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured or unreachable.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrUnsupportedFormat indicates an uploaded file type has no text extractor.
	// It matches ErrInvalidInput under errors.Is.
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported file format", ErrInvalidInput)

	// ErrDimensionMismatch indicates a vector does not match the index dimensionality.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrReindexRequired indicates the embedding model no longer matches the
	// vectors already indexed. It matches ErrDimensionMismatch under errors.Is.
	ErrReindexRequired = fmt.Errorf("%w: re-index required (sage train --rebuild)", ErrDimensionMismatch)
)
