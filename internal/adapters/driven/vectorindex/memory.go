package vectorindex

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
	"github.com/custodia-labs/sage-cli/internal/core/ports/driven"
)

// Ensure MemoryIndex implements the interface.
var _ driven.VectorIndex = (*MemoryIndex)(nil)

// MemoryIndex is an in-memory brute-force vector index.
type MemoryIndex struct {
	mu         sync.RWMutex
	byDocument map[string][]Entry
	snapshot   []Entry
	dimensions int
	fixed      bool
}

// NewMemoryIndex creates an empty index. A dimensions of zero takes the
// dimensionality from the first vector written and forgets it again once
// the index is empty.
func NewMemoryIndex(dimensions int) *MemoryIndex {
	return &MemoryIndex{
		byDocument: make(map[string][]Entry),
		dimensions: dimensions,
		fixed:      dimensions > 0,
	}
}

// Upsert replaces every vector of documentID.
func (m *MemoryIndex) Upsert(_ context.Context, documentID string, vectors []driven.IndexedVector) error {
	entries := make([]Entry, 0, len(vectors))
	for _, v := range vectors {
		entries = append(entries, NewEntry(documentID, v))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	expected := m.dimensions
	if !m.fixed && m.onlyHolds(documentID) && len(entries) > 0 {
		expected = len(entries[0].Vector)
	}
	for _, e := range entries {
		if len(e.Vector) != expected {
			return fmt.Errorf("chunk %s has %d dimensions, index has %d: %w",
				e.ChunkID, len(e.Vector), expected, domain.ErrReindexRequired)
		}
	}
	m.dimensions = expected

	if len(entries) == 0 {
		delete(m.byDocument, documentID)
	} else {
		m.byDocument[documentID] = entries
	}
	m.rebuild()
	return nil
}

// Query returns the k nearest chunks to query.
func (m *MemoryIndex) Query(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	m.mu.RLock()
	snapshot := m.snapshot
	dims := m.dimensions
	m.mu.RUnlock()

	if dims != 0 && len(query) != dims {
		return nil, fmt.Errorf("query has %d dimensions, index has %d: %w", len(query), dims, domain.ErrDimensionMismatch)
	}
	return Rank(snapshot, query, k), nil
}

// Remove deletes every vector of documentID.
func (m *MemoryIndex) Remove(_ context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byDocument[documentID]; !ok {
		return nil
	}
	delete(m.byDocument, documentID)
	m.rebuild()
	return nil
}

// onlyHolds reports whether no document other than documentID has vectors.
func (m *MemoryIndex) onlyHolds(documentID string) bool {
	for id := range m.byDocument {
		if id != documentID {
			return false
		}
	}
	return true
}

// Count returns the number of stored vectors.
func (m *MemoryIndex) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.snapshot), nil
}

// Dimensions returns the index dimensionality, zero while an unfixed
// index is empty.
func (m *MemoryIndex) Dimensions(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dimensions, nil
}

// Close releases resources.
func (m *MemoryIndex) Close() error {
	return nil
}

// rebuild publishes a fresh snapshot; callers hold the write lock.
// Readers keep using the slice they already loaded.
func (m *MemoryIndex) rebuild() {
	total := 0
	for _, entries := range m.byDocument {
		total += len(entries)
	}
	snapshot := make([]Entry, 0, total)
	for _, entries := range m.byDocument {
		snapshot = append(snapshot, entries...)
	}
	m.snapshot = snapshot
	if total == 0 && !m.fixed {
		m.dimensions = 0
	}
}
