package driven

import (
	"context"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
)

// Chunker splits a document into retrieval units.
// Implementations must be deterministic: the same content always yields
// the same chunk boundaries.
type Chunker interface {
	// Name returns the chunker name for logging and configuration.
	Name() string

	// Chunk splits doc.Content. Empty or whitespace-only content yields
	// domain.ErrEmptyContent.
	Chunk(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
