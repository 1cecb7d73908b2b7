package doccontent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sage-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sage-cli/internal/core/domain"
)

type mockDocumentService struct {
	doc       *domain.Document
	chunks    []domain.Chunk
	getErr    error
	chunksErr error
}

func (m *mockDocumentService) Add(_ context.Context, _ domain.NewDocument) (*domain.Document, error) {
	return nil, errors.New("not implemented")
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.doc, m.getErr
}

func (m *mockDocumentService) List(_ context.Context, _ domain.DocumentFilter) ([]domain.Document, error) {
	return nil, nil
}

func (m *mockDocumentService) Chunks(_ context.Context, _ string) ([]domain.Chunk, error) {
	return m.chunks, m.chunksErr
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) error {
	return nil
}

func testService() *mockDocumentService {
	content := "first line\nsecond line"
	return &mockDocumentService{
		doc: &domain.Document{
			ID:         "doc-1",
			Title:      "Handbook",
			Category:   "hr",
			Content:    content,
			Status:     domain.StatusIndexed,
			ChunkCount: 2,
			UpdatedAt:  time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		},
		chunks: []domain.Chunk{
			{ID: "doc-1#0", DocumentID: "doc-1", Ordinal: 0, Content: "first line\n", Start: 0, End: 11},
			{ID: "doc-1#1", DocumentID: "doc-1", Ordinal: 1, Content: "line\nsecond line", Start: 6, End: 22, Overlap: 5},
		},
	}
}

func load(t *testing.T, v *View, back messages.ViewType) {
	t.Helper()
	cmd := v.SetDocument("doc-1", back)
	require.NotNil(t, cmd)
	v.Update(cmd())
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestView_LoadsDocument(t *testing.T) {
	v := NewView(nil, testService())
	v.SetDimensions(80, 24)

	load(t, v, messages.ViewDocuments)

	require.NoError(t, v.Err())
	require.NotNil(t, v.Document())
	assert.Len(t, v.Chunks(), 2)

	view := v.View()
	assert.Contains(t, view, "Handbook")
	assert.Contains(t, view, "indexed · 2 chunks · hr · updated 2026-03-01 09:30")
	assert.Contains(t, view, "first line")
	assert.Contains(t, view, "[c] show chunks")
}

func TestView_LoadingState(t *testing.T) {
	v := NewView(nil, testService())

	v.SetDocument("doc-1", messages.ViewAsk)

	assert.Contains(t, v.View(), "Loading content...")
}

func TestView_GetError(t *testing.T) {
	svc := testService()
	svc.getErr = domain.ErrNotFound
	v := NewView(nil, svc)

	load(t, v, messages.ViewDocuments)

	assert.ErrorIs(t, v.Err(), domain.ErrNotFound)
	assert.Contains(t, v.View(), "Error:")
}

func TestView_NoService(t *testing.T) {
	v := NewView(nil, nil)

	load(t, v, messages.ViewDocuments)

	assert.Error(t, v.Err())
}

func TestView_ToggleChunks(t *testing.T) {
	v := NewView(nil, testService())
	v.SetDimensions(80, 40)
	load(t, v, messages.ViewDocuments)

	v.Update(runes("c"))

	assert.True(t, v.ShowingChunks())
	view := v.View()
	assert.Contains(t, view, "chunk 0 [0:11]")
	assert.Contains(t, view, "chunk 1 [6:22] overlap 5")
	assert.Contains(t, view, "[c] show text")

	v.Update(runes("c"))
	assert.False(t, v.ShowingChunks())
}

func TestView_ToggleChunks_NoChunks(t *testing.T) {
	svc := testService()
	svc.chunks = nil
	v := NewView(nil, svc)
	load(t, v, messages.ViewDocuments)

	v.Update(runes("c"))

	assert.False(t, v.ShowingChunks())
}

func TestView_EscReturnsToOrigin(t *testing.T) {
	for _, back := range []messages.ViewType{messages.ViewAsk, messages.ViewDocuments} {
		t.Run(back.String(), func(t *testing.T) {
			v := NewView(nil, testService())
			load(t, v, back)

			_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})

			require.NotNil(t, cmd)
			assert.Equal(t, messages.ViewChanged{View: back}, cmd())
		})
	}
}

func TestView_Scroll(t *testing.T) {
	svc := testService()
	lines := make([]string, 50)
	for i := range lines {
		lines[i] = "line"
	}
	svc.doc.Content = strings.Join(lines, "\n")
	v := NewView(nil, svc)
	v.SetDimensions(80, 18)
	load(t, v, messages.ViewDocuments)

	// 50 lines, 10 visible
	assert.Equal(t, 40, v.maxScrollOffset())

	v.Update(runes("j"))
	assert.Equal(t, 1, v.scrollOffset)

	v.Update(runes("G"))
	assert.Equal(t, 40, v.scrollOffset)

	v.Update(runes("j"))
	assert.Equal(t, 40, v.scrollOffset)

	v.Update(tea.KeyMsg{Type: tea.KeyPgUp})
	assert.Equal(t, 30, v.scrollOffset)

	v.Update(runes("g"))
	assert.Equal(t, 0, v.scrollOffset)

	v.Update(runes("k"))
	assert.Equal(t, 0, v.scrollOffset)

	assert.Contains(t, v.View(), "Line 1-10 of 50")
}

func TestWrap(t *testing.T) {
	assert.Nil(t, wrap("", 10))
	assert.Equal(t, []string{"abc", "def"}, wrap("abc\ndef", 10))
	assert.Equal(t, []string{"abcde", "fgh"}, wrap("abcdefgh", 5))
	assert.Equal(t, []string{"héllo", "wörld"}, wrap("héllowörld", 5))
}

func TestView_WrapsToWidth(t *testing.T) {
	svc := testService()
	svc.doc.Content = strings.Repeat("x", 50)
	v := NewView(nil, svc)
	v.SetDimensions(24, 20)

	load(t, v, messages.ViewDocuments)

	assert.Equal(t, []string{strings.Repeat("x", 20), strings.Repeat("x", 20), strings.Repeat("x", 10)}, v.Lines())
}
