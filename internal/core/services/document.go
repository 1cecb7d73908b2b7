package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
	"github.com/custodia-labs/sage-cli/internal/core/ports/driven"
	"github.com/custodia-labs/sage-cli/internal/core/ports/driving"
	"github.com/custodia-labs/sage-cli/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DeletionGuard runs fn only when no running job targets documentID.
// IngestionController implements it.
type DeletionGuard interface {
	Guard(documentID string, fn func() error) error
}

// DocumentService manages uploaded documents.
type DocumentService struct {
	docs  driven.DocumentStore
	index driven.VectorIndex
	guard DeletionGuard
	log   logger.Component
	now   func() time.Time
}

// NewDocumentService creates a document service. guard may be nil when no
// ingestion controller runs in the process.
func NewDocumentService(docs driven.DocumentStore, index driven.VectorIndex, guard DeletionGuard) *DocumentService {
	return &DocumentService{
		docs:  docs,
		index: index,
		guard: guard,
		log:   logger.For("documents"),
		now:   time.Now,
	}
}

// Add stores a new document with status uploaded.
func (s *DocumentService) Add(ctx context.Context, in domain.NewDocument) (*domain.Document, error) {
	if in.Category == "" {
		in.Category = domain.CategoryKnowledge
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	doc := &domain.Document{
		ID:          uuid.New().String(),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    in.Category,
		Content:     in.Content,
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.docs.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	s.log.Info("uploaded %q as %s", doc.Title, doc.ID)
	return doc, nil
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	return s.docs.GetDocument(ctx, documentID)
}

// List returns documents matching filter, oldest first.
func (s *DocumentService) List(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	if filter.Category != "" && !filter.Category.IsValid() {
		return nil, fmt.Errorf("%w: unknown category %q", domain.ErrInvalidInput, filter.Category)
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, filter.Status)
	}
	return s.docs.ListDocuments(ctx, filter)
}

// Chunks returns the chunks of a document ordered by ordinal.
func (s *DocumentService) Chunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	if _, err := s.docs.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}
	return s.docs.GetChunks(ctx, documentID)
}

// Delete removes a document, its chunks and its vectors.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	remove := func() error {
		if _, err := s.docs.GetDocument(ctx, documentID); err != nil {
			return err
		}
		if err := s.index.Remove(ctx, documentID); err != nil {
			return fmt.Errorf("remove vectors: %w", err)
		}
		if err := s.docs.DeleteDocument(ctx, documentID); err != nil {
			return fmt.Errorf("delete document: %w", err)
		}
		s.log.Info("deleted %s", documentID)
		return nil
	}

	if s.guard == nil {
		return remove()
	}
	return s.guard.Guard(documentID, remove)
}
