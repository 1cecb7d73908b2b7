package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
)

type mockDocumentService struct {
	mu        sync.Mutex
	docs      map[string]*domain.Document
	chunks    map[string][]domain.Chunk
	added     []domain.NewDocument
	deleteErr error
	nextID    int
}

func newMockDocumentService() *mockDocumentService {
	return &mockDocumentService{
		docs:   make(map[string]*domain.Document),
		chunks: make(map[string][]domain.Chunk),
	}
}

func (m *mockDocumentService) Add(_ context.Context, doc domain.NewDocument) (*domain.Document, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(doc.Content) == "" {
		return nil, domain.ErrEmptyContent
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	d := &domain.Document{
		ID:          fmt.Sprintf("doc-%d", m.nextID),
		Title:       doc.Title,
		Description: doc.Description,
		Category:    doc.Category,
		Content:     doc.Content,
		Status:      domain.StatusUploaded,
	}
	m.docs[d.ID] = d
	m.added = append(m.added, doc)
	cp := *d
	return &cp, nil
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *mockDocumentService) List(_ context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Document, 0, len(m.docs))
	for _, d := range m.docs {
		if filter.Matches(d) {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockDocumentService) Chunks(_ context.Context, id string) ([]domain.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return nil, domain.ErrNotFound
	}
	return m.chunks[id], nil
}

func (m *mockDocumentService) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.docs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

type mockImporter struct {
	docs  *mockDocumentService
	files []domain.RawFile
}

func (m *mockImporter) Import(ctx context.Context, file domain.RawFile, meta domain.NewDocument) (*domain.Document, error) {
	m.files = append(m.files, file)
	if meta.Title == "" {
		meta.Title = "imported " + file.Filename
	}
	meta.Content = strings.ToUpper(string(file.Content))
	return m.docs.Add(ctx, meta)
}

func (m *mockImporter) Supports(filename string) bool {
	return strings.HasSuffix(filename, ".md")
}

type mockIngestion struct {
	mu        sync.Mutex
	submitted [][]string
	submitErr error
	current   *domain.IngestionJob
	jobs      map[string][]domain.IngestionJob
	polls     map[string]int
	history   []domain.IngestionJob
	recovered int
	rebuilds  int
}

func newMockIngestion() *mockIngestion {
	return &mockIngestion{
		jobs:  make(map[string][]domain.IngestionJob),
		polls: make(map[string]int),
	}
}

func (m *mockIngestion) Submit(_ context.Context, ids []string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.submitErr != nil {
		return "", m.submitErr
	}
	m.submitted = append(m.submitted, ids)
	return fmt.Sprintf("job-%d", len(m.submitted)), nil
}

func (m *mockIngestion) Rebuild(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.submitErr != nil {
		return "", m.submitErr
	}
	m.rebuilds++
	return fmt.Sprintf("rebuild-%d", m.rebuilds), nil
}

// Status returns the scripted snapshots of a job in order, repeating the last.
func (m *mockIngestion) Status(_ context.Context, id string) (*domain.IngestionJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshots, ok := m.jobs[id]
	if !ok || len(snapshots) == 0 {
		return nil, domain.ErrNotFound
	}
	i := m.polls[id]
	if i >= len(snapshots) {
		i = len(snapshots) - 1
	}
	m.polls[id]++
	job := snapshots[i]
	return &job, nil
}

func (m *mockIngestion) Current() *domain.IngestionJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.Clone()
}

func (m *mockIngestion) List(_ context.Context, limit int) ([]domain.IngestionJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit > 0 && len(m.history) > limit {
		return m.history[:limit], nil
	}
	return m.history, nil
}

func (m *mockIngestion) Recover(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recovered++
	return nil
}

type mockAsk struct {
	answer   *domain.Answer
	err      error
	question string
}

func (m *mockAsk) Ask(_ context.Context, question string) (*domain.Answer, error) {
	m.question = question
	if m.err != nil {
		return nil, m.err
	}
	return m.answer, nil
}

type mockSkills struct {
	matches []domain.SkillMatch
	skills  []string
	query   string
	opts    domain.FindOptions
}

func (m *mockSkills) Find(_ context.Context, query string, opts domain.FindOptions) ([]domain.SkillMatch, error) {
	m.query = query
	m.opts = opts
	return m.matches, nil
}

func (m *mockSkills) Skills(_ context.Context) ([]string, error) {
	return m.skills, nil
}

type mockSettings struct {
	settings domain.AppSettings
	values   map[string]string
	setErr   error
	embedErr error
	llmErr   error
	keys     []string
}

func newMockSettings() *mockSettings {
	return &mockSettings{
		settings: domain.DefaultAppSettings(),
		values:   make(map[string]string),
		keys:     []string{"chunking.size", "llm.model"},
	}
}

func (m *mockSettings) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettings) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func (m *mockSettings) Keys() []string { return m.keys }

func (m *mockSettings) ValidateEmbeddingConfig() error { return m.embedErr }

func (m *mockSettings) ValidateLLMConfig() error { return m.llmErr }

type mockMemberWriter struct {
	saved []domain.Member
}

func (m *mockMemberWriter) SaveMembers(_ context.Context, members []domain.Member) error {
	m.saved = append(m.saved, members...)
	return nil
}
