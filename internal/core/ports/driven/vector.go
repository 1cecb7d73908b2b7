package driven

import "context"

// VectorIndex stores chunk vectors and answers cosine nearest-neighbour queries.
//
// Vectors are published per document: Upsert makes all of a document's
// vectors visible in one step, so readers never observe a partial set.
type VectorIndex interface {
	// Upsert replaces every vector of documentID with vectors.
	Upsert(ctx context.Context, documentID string, vectors []IndexedVector) error

	// Query returns the k most similar chunks, ties broken by lower ordinal.
	Query(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Remove deletes every vector of documentID.
	Remove(ctx context.Context, documentID string) error

	// Count returns the number of stored vectors.
	Count(ctx context.Context) (int, error)

	// Dimensions returns the vector size of the current index build, zero
	// while the index is empty. Upsert rejects other sizes with
	// domain.ErrReindexRequired; emptying the index starts a new build.
	Dimensions(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}

// IndexedVector is one chunk vector to store.
type IndexedVector struct {
	ChunkID string
	Ordinal int
	Vector  []float32
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// DocumentID is the chunk's parent document.
	DocumentID string

	// Ordinal is the chunk position, used for tie-breaking.
	Ordinal int

	// Similarity is the cosine similarity score (-1 to 1).
	Similarity float64
}
