package ask

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sage-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sage-cli/internal/core/domain"
)

type mockAskService struct {
	answer   *domain.Answer
	err      error
	question string
}

func (m *mockAskService) Ask(_ context.Context, question string) (*domain.Answer, error) {
	m.question = question
	return m.answer, m.err
}

func testAnswer() *domain.Answer {
	return &domain.Answer{
		Question:   "how do I deploy?",
		Text:       "Run make deploy from the main branch.",
		Confidence: 0.82,
		Model:      "llama3.2",
		Duration:   1500 * time.Millisecond,
		Sources: []domain.SourceRef{
			{DocumentID: "doc-1", ChunkID: "doc-1#0", Title: "Runbook", Score: 0.91},
			{DocumentID: "doc-2", ChunkID: "doc-2#3", Title: "Release notes", Score: 0.74},
		},
	}
}

func typeText(v *View, s string) {
	for _, r := range s {
		v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func ask(t *testing.T, v *View, question string) {
	t.Helper()
	typeText(v, question)
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	v.Update(cmd())
}

func TestNewView(t *testing.T) {
	v := NewView(nil, nil, &mockAskService{})

	require.NotNil(t, v)
	assert.True(t, v.InputFocused())
	assert.False(t, v.Ready())
	assert.Equal(t, "Initialising...", v.View())
	assert.NotNil(t, v.Init())
}

func TestView_AskShowsAnswerAndSources(t *testing.T) {
	svc := &mockAskService{answer: testAnswer()}
	v := NewView(nil, nil, svc)
	v.SetDimensions(120, 40)

	ask(t, v, "how do I deploy?")

	assert.Equal(t, "how do I deploy?", svc.question)
	assert.False(t, v.InputFocused())
	require.NotNil(t, v.Answer())

	view := v.View()
	assert.Contains(t, view, "Run make deploy from the main branch.")
	assert.Contains(t, view, "Sources (2)")
	assert.Contains(t, view, "Runbook")
	assert.Contains(t, view, "0.91")
	assert.Contains(t, view, "confidence 0.82")
}

func TestView_EmptyQuestionIgnored(t *testing.T) {
	v := NewView(nil, nil, &mockAskService{})

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.True(t, v.InputFocused())
}

func TestView_ThinkingWhileWaiting(t *testing.T) {
	v := NewView(nil, nil, &mockAskService{answer: testAnswer()})
	v.SetDimensions(120, 40)
	typeText(v, "q")

	v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Contains(t, v.View(), "Thinking...")
}

func TestView_NoKnowledge(t *testing.T) {
	v := NewView(nil, nil, &mockAskService{err: domain.ErrNoKnowledge})
	v.SetDimensions(120, 40)

	ask(t, v, "anything")

	require.NoError(t, v.Err())
	require.NotNil(t, v.Answer())
	assert.Equal(t, domain.NoKnowledgeAnswer, v.Answer().Text)
	assert.Contains(t, v.View(), "No documents are indexed yet")
}

func TestView_AskError(t *testing.T) {
	v := NewView(nil, nil, &mockAskService{err: domain.ErrModelUnavailable})
	v.SetDimensions(120, 40)

	ask(t, v, "anything")

	assert.ErrorIs(t, v.Err(), domain.ErrModelUnavailable)
	assert.Nil(t, v.Answer())
	assert.Contains(t, v.View(), "Error:")
}

func TestView_NoService(t *testing.T) {
	v := NewView(nil, nil, nil)
	typeText(v, "q")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	msg := cmd()

	completed, ok := msg.(messages.AskCompleted)
	require.True(t, ok)
	assert.ErrorIs(t, completed.Err, ErrNoAskService)
}

func TestView_OpenSource(t *testing.T) {
	v := NewView(nil, nil, &mockAskService{answer: testAnswer()})
	v.SetDimensions(120, 40)
	ask(t, v, "q")

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	assert.Equal(t, 1, v.SelectedSource())

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.DocumentSelected{DocumentID: "doc-2", Back: messages.ViewAsk}, cmd())
}

func TestView_NewQuestion(t *testing.T) {
	v := NewView(nil, nil, &mockAskService{answer: testAnswer()})
	v.SetDimensions(120, 40)
	ask(t, v, "q")

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})

	assert.True(t, v.InputFocused())
	assert.Equal(t, "", v.Question())
}

func TestView_EscReturnsToMenu(t *testing.T) {
	v := NewView(nil, nil, &mockAskService{})

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_ErrorOccurred(t *testing.T) {
	v := NewView(nil, nil, &mockAskService{})

	v.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.EqualError(t, v.Err(), "boom")
}

func TestView_Reset(t *testing.T) {
	v := NewView(nil, nil, &mockAskService{answer: testAnswer()})
	v.SetDimensions(120, 40)
	ask(t, v, "q")

	v.Reset()

	assert.True(t, v.InputFocused())
	assert.Nil(t, v.Answer())
	assert.NoError(t, v.Err())
}
