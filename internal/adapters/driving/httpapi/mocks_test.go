package httpapi

import (
	"context"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
)

type mockDocuments struct {
	added     *domain.NewDocument
	document  *domain.Document
	documents []domain.Document
	filter    domain.DocumentFilter
	deleted   string
	err       error
}

func (m *mockDocuments) Add(_ context.Context, in domain.NewDocument) (*domain.Document, error) {
	m.added = &in
	if m.err != nil {
		return nil, m.err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return &domain.Document{ID: "doc-1", Title: in.Title, Status: domain.StatusUploaded}, nil
}

func (m *mockDocuments) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocuments) List(_ context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	m.filter = filter
	return m.documents, m.err
}

func (m *mockDocuments) Chunks(_ context.Context, _ string) ([]domain.Chunk, error) {
	return nil, m.err
}

func (m *mockDocuments) Delete(_ context.Context, id string) error {
	m.deleted = id
	return m.err
}

type mockIngestion struct {
	submitted []string
	job       *domain.IngestionJob
	err       error
}

func (m *mockIngestion) Submit(_ context.Context, ids []string) (string, error) {
	m.submitted = ids
	if m.err != nil {
		return "", m.err
	}
	return "job-1", nil
}

func (m *mockIngestion) Status(_ context.Context, _ string) (*domain.IngestionJob, error) {
	return m.job, m.err
}

func (m *mockIngestion) Current() *domain.IngestionJob { return m.job }

func (m *mockIngestion) List(_ context.Context, _ int) ([]domain.IngestionJob, error) {
	return nil, m.err
}

func (m *mockIngestion) Recover(_ context.Context) error { return nil }

func (m *mockIngestion) Rebuild(_ context.Context) (string, error) { return "", nil }

type mockAsk struct {
	answer *domain.Answer
	err    error
	calls  int
}

func (m *mockAsk) Ask(_ context.Context, question string) (*domain.Answer, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	a := *m.answer
	a.Question = question
	return &a, nil
}

type mockSkills struct {
	matches []domain.SkillMatch
	skills  []string
	query   string
	opts    domain.FindOptions
	err     error
}

func (m *mockSkills) Find(_ context.Context, query string, opts domain.FindOptions) ([]domain.SkillMatch, error) {
	m.query = query
	m.opts = opts
	return m.matches, m.err
}

func (m *mockSkills) Skills(_ context.Context) ([]string, error) {
	return m.skills, nil
}

type mockImporter struct {
	file domain.RawFile
	meta domain.NewDocument
	err  error
}

func (m *mockImporter) Import(_ context.Context, file domain.RawFile, meta domain.NewDocument) (*domain.Document, error) {
	m.file = file
	m.meta = meta
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Document{ID: "doc-9", Title: "imported", Status: domain.StatusUploaded}, nil
}

func (m *mockImporter) Supports(_ string) bool { return true }
