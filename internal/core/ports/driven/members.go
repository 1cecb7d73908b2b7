package driven

import (
	"context"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
)

// MemberRegistry exposes member profiles owned by an external registry.
type MemberRegistry interface {
	// ListMembers returns every member, ordered by ID.
	ListMembers(ctx context.Context) ([]domain.Member, error)

	// GetMember retrieves a member by ID. Returns domain.ErrNotFound for unknown IDs.
	GetMember(ctx context.Context, id string) (*domain.Member, error)
}

// MemberWriter is implemented by registries that can be populated locally.
type MemberWriter interface {
	// SaveMembers inserts or replaces members.
	SaveMembers(ctx context.Context, members []domain.Member) error
}
