package mcp

import (
	"context"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
)

// mockAskService is a mock implementation of driving.AskService.
type mockAskService struct {
	answer   *domain.Answer
	err      error
	question string
}

func (m *mockAskService) Ask(_ context.Context, question string) (*domain.Answer, error) {
	m.question = question
	return m.answer, m.err
}

// mockSkillMatcher is a mock implementation of driving.SkillMatcher.
type mockSkillMatcher struct {
	matches []domain.SkillMatch
	skills  []string
	err     error
	opts    domain.FindOptions
}

func (m *mockSkillMatcher) Find(_ context.Context, _ string, opts domain.FindOptions) ([]domain.SkillMatch, error) {
	m.opts = opts
	return m.matches, m.err
}

func (m *mockSkillMatcher) Skills(_ context.Context) ([]string, error) {
	return m.skills, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	document  *domain.Document
	filter    domain.DocumentFilter
	err       error
}

func (m *mockDocumentService) Add(_ context.Context, _ domain.NewDocument) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) List(_ context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	m.filter = filter
	return m.documents, m.err
}

func (m *mockDocumentService) Chunks(_ context.Context, _ string) ([]domain.Chunk, error) {
	return nil, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) error {
	return m.err
}
