package driving

import (
	"context"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
)

// DocumentService manages uploaded documents.
type DocumentService interface {
	// Add stores a new document with status uploaded.
	Add(ctx context.Context, doc domain.NewDocument) (*domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// List returns documents matching filter.
	List(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error)

	// Chunks returns the indexed chunks of a document.
	Chunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// Delete removes a document, its chunks and its vectors.
	// Fails with domain.ErrConflict while the running job targets the document.
	Delete(ctx context.Context, documentID string) error
}
