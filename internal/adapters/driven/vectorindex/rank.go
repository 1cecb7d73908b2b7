package vectorindex

import (
	"math"
	"sort"

	"github.com/custodia-labs/sage-cli/internal/core/ports/driven"
)

// Entry is a stored vector with the metadata needed for ranking.
type Entry struct {
	ChunkID    string
	DocumentID string
	Ordinal    int
	Vector     []float32
	norm       float64
}

// NewEntry builds an entry and caches its norm.
func NewEntry(documentID string, v driven.IndexedVector) Entry {
	return Entry{
		ChunkID:    v.ChunkID,
		DocumentID: documentID,
		Ordinal:    v.Ordinal,
		Vector:     v.Vector,
		norm:       Norm(v.Vector),
	}
}

// Norm returns the Euclidean norm of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Cosine returns the cosine similarity of a and b, or 0 when either is a
// zero vector or the lengths differ.
func Cosine(a, b []float32) float64 {
	return cosine(a, Norm(a), b, Norm(b))
}

func cosine(a []float32, normA float64, b []float32, normB float64) float64 {
	if len(a) != len(b) || normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (normA * normB)
}

// Rank scores entries against query and returns the top k.
// Ties are broken by lower ordinal, then by chunk ID, so results are stable.
func Rank(entries []Entry, query []float32, k int) []driven.VectorHit {
	if k <= 0 || len(entries) == 0 {
		return nil
	}

	qNorm := Norm(query)
	hits := make([]driven.VectorHit, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		norm := e.norm
		if norm == 0 {
			norm = Norm(e.Vector)
		}
		hits = append(hits, driven.VectorHit{
			ChunkID:    e.ChunkID,
			DocumentID: e.DocumentID,
			Ordinal:    e.Ordinal,
			Similarity: cosine(query, qNorm, e.Vector, norm),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		if hits[i].Ordinal != hits[j].Ordinal {
			return hits[i].Ordinal < hits[j].Ordinal
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}
