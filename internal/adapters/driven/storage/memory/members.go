package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
	"github.com/custodia-labs/sage-cli/internal/core/ports/driven"
)

var (
	_ driven.MemberRegistry = (*MemberStore)(nil)
	_ driven.MemberWriter   = (*MemberStore)(nil)
)

// MemberStore is an in-memory member registry.
type MemberStore struct {
	mu      sync.RWMutex
	members map[string]domain.Member
}

// NewMemberStore creates a registry holding members.
func NewMemberStore(members ...domain.Member) *MemberStore {
	s := &MemberStore{members: make(map[string]domain.Member)}
	for _, m := range members {
		s.members[m.ID] = m
	}
	return s
}

// SaveMembers inserts or replaces members.
func (s *MemberStore) SaveMembers(_ context.Context, members []domain.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range members {
		s.members[m.ID] = m
	}
	return nil
}

// ListMembers returns every member, ordered by ID.
func (s *MemberStore) ListMembers(_ context.Context) ([]domain.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Member, 0, len(s.members))
	for _, m := range s.members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetMember retrieves a member by ID.
func (s *MemberStore) GetMember(_ context.Context, id string) (*domain.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[id]
	if !ok {
		return nil, fmt.Errorf("member %s: %w", id, domain.ErrNotFound)
	}
	return &m, nil
}
