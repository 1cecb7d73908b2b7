package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/sage-cli/internal/adapters/driven/vectorindex"
	"github.com/custodia-labs/sage-cli/internal/core/domain"
	"github.com/custodia-labs/sage-cli/internal/core/ports/driven"
)

// VectorIndex persists chunk vectors in the vectors table. Queries load
// every vector and rank them in memory, which is fine for the few thousand
// chunks of a community knowledge base.
type VectorIndex struct {
	store *Store
}

var _ driven.VectorIndex = (*VectorIndex)(nil)

const dimensionsKey = "dimensions"

// Upsert replaces a document's vectors in a single transaction, so readers
// see all of them or none. The dimension is checked against the vectors of
// the other documents; when none are left the write starts a new build.
func (v *VectorIndex) Upsert(ctx context.Context, documentID string, vectors []driven.IndexedVector) error {
	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := deleteVectors(ctx, tx, documentID); err != nil {
		return err
	}

	dims, err := dimensions(ctx, tx)
	if err != nil {
		return err
	}
	if dims == 0 && len(vectors) > 0 {
		dims = len(vectors[0].Vector)
	}
	for _, vec := range vectors {
		if len(vec.Vector) != dims {
			return fmt.Errorf("chunk %s has %d dimensions, index has %d: %w",
				vec.ChunkID, len(vec.Vector), dims, domain.ErrReindexRequired)
		}
	}

	if len(vectors) > 0 {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO vector_meta (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, dimensionsKey, dims); err != nil {
			return fmt.Errorf("recording dimensions: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO vectors (chunk_id, document_id, ordinal, dimensions, vector)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(chunk_id) DO UPDATE SET
				document_id = excluded.document_id,
				ordinal = excluded.ordinal,
				dimensions = excluded.dimensions,
				vector = excluded.vector
		`)
		if err != nil {
			return fmt.Errorf("preparing statement: %w", err)
		}
		defer stmt.Close()

		for _, vec := range vectors {
			if _, err := stmt.ExecContext(ctx, vec.ChunkID, documentID, vec.Ordinal,
				len(vec.Vector), float32SliceToBytes(vec.Vector)); err != nil {
				return fmt.Errorf("saving vector %s: %w", vec.ChunkID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Query returns the k most similar chunks.
func (v *VectorIndex) Query(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, nil
	}

	dims, err := dimensions(ctx, v.store.db)
	if err != nil {
		return nil, err
	}
	if dims != 0 && len(query) != dims {
		return nil, fmt.Errorf("query has %d dimensions, index has %d: %w", len(query), dims, domain.ErrDimensionMismatch)
	}

	rows, err := v.store.db.QueryContext(ctx, `SELECT chunk_id, document_id, ordinal, vector FROM vectors`)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var entries []vectorindex.Entry //nolint:prealloc // size unknown from query
	for rows.Next() {
		var docID string
		var iv driven.IndexedVector
		var blob []byte
		if err := rows.Scan(&iv.ChunkID, &docID, &iv.Ordinal, &blob); err != nil {
			return nil, fmt.Errorf("scanning vector: %w", err)
		}
		iv.Vector = bytesToFloat32Slice(blob)
		entries = append(entries, vectorindex.NewEntry(docID, iv))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
	}

	return vectorindex.Rank(entries, query, k), nil
}

// Remove deletes every vector of documentID.
func (v *VectorIndex) Remove(ctx context.Context, documentID string) error {
	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := deleteVectors(ctx, tx, documentID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Count returns the number of stored vectors.
func (v *VectorIndex) Count(ctx context.Context) (int, error) {
	var n int
	if err := v.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vectors`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting vectors: %w", err)
	}
	return n, nil
}

// Dimensions returns the dimensionality of the current build, or zero while
// the index is empty.
func (v *VectorIndex) Dimensions(ctx context.Context) (int, error) {
	return dimensions(ctx, v.store.db)
}

// Close is a no-op; the owning Store closes the database.
func (v *VectorIndex) Close() error {
	return nil
}

// deleteVectors removes a document's vectors and forgets the dimension
// once the index is empty.
func deleteVectors(ctx context.Context, tx *sql.Tx, documentID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM vectors WHERE document_id = ?`, documentID); err != nil {
		return fmt.Errorf("deleting vectors: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM vector_meta
		WHERE key = ? AND NOT EXISTS (SELECT 1 FROM vectors)
	`, dimensionsKey); err != nil {
		return fmt.Errorf("resetting dimensions: %w", err)
	}
	return nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func dimensions(ctx context.Context, q querier) (int, error) {
	var dims int
	err := q.QueryRowContext(ctx, `SELECT value FROM vector_meta WHERE key = ?`, dimensionsKey).Scan(&dims)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading dimensions: %w", err)
	}
	return dims, nil
}
