// Package ask provides the question and answer view for the TUI.
package ask

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sage-cli/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/sage-cli/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/sage-cli/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sage-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sage-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sage-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sage-cli/internal/core/domain"
	"github.com/custodia-labs/sage-cli/internal/core/ports/driving"
)

// ErrNoAskService indicates that no ask service was provided.
var ErrNoAskService = errors.New("ask service is required")

// View holds a question input, the last answer and its sources.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QueryInput
	sources   *list.ResultList
	statusbar *status.Bar

	askService driving.AskService
	ctx        context.Context

	answer     *domain.Answer
	width      int
	height     int
	ready      bool
	err        error
	focusInput bool
}

// NewView creates a new ask view.
func NewView(s *styles.Styles, km *keymap.KeyMap, askService driving.AskService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.NewQueryInput(s, "Ask", "What would you like to know?"),
		sources:    list.NewResultList(s, "Sources", ""),
		statusbar:  status.NewBar(s, km),
		askService: askService,
		ctx:        context.Background(),
		width:      80,
		height:     24,
		focusInput: true,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AskCompleted:
		v.handleAskCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		v.statusbar.Set(status.StateError, msg.Err.Error())
		return v, nil
	}

	var cmd tea.Cmd
	if v.focusInput {
		v.input, cmd = v.input.Update(msg)
	}
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			question := v.input.Value()
			if question == "" {
				return v, nil
			}
			v.focusInput = false
			v.input.Blur()
			v.err = nil
			v.statusbar.Set(status.StateThinking, "")
			return v, v.performAsk(question)
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch {
	case keymap.Matches(msg.String(), v.keymap.Up):
		v.sources.MoveUp()
	case keymap.Matches(msg.String(), v.keymap.Down):
		v.sources.MoveDown()
	case keymap.Matches(msg.String(), v.keymap.Open):
		if item := v.sources.SelectedItem(); item != nil {
			id := item.ID
			return v, func() tea.Msg {
				return messages.DocumentSelected{DocumentID: id, Back: messages.ViewAsk}
			}
		}
	case keymap.Matches(msg.String(), v.keymap.NewQuestion):
		v.focusInput = true
		v.input.SetValue("")
		return v, v.input.Focus()
	}

	return v, nil
}

func (v *View) performAsk(question string) tea.Cmd {
	ctx := v.ctx
	return func() tea.Msg {
		if v.askService == nil {
			return messages.AskCompleted{Question: question, Err: ErrNoAskService}
		}
		answer, err := v.askService.Ask(ctx, question)
		return messages.AskCompleted{Question: question, Answer: answer, Err: err}
	}
}

func (v *View) handleAskCompleted(msg messages.AskCompleted) {
	if errors.Is(msg.Err, domain.ErrNoKnowledge) {
		v.err = nil
		v.answer = &domain.Answer{Question: msg.Question, Text: domain.NoKnowledgeAnswer}
		v.sources.SetItems(nil)
		v.statusbar.Set(status.StateResults, "No documents are indexed yet")
		return
	}
	if msg.Err != nil {
		v.err = msg.Err
		v.answer = nil
		v.sources.SetItems(nil)
		v.statusbar.Set(status.StateError, msg.Err.Error())
		return
	}

	v.err = nil
	v.answer = msg.Answer
	v.sources.SetItems(list.SourceItems(msg.Answer.Sources))
	if msg.Answer.LowConfidence {
		v.statusbar.Set(status.StateResults, fmt.Sprintf("confidence %.2f below threshold · model not asked", msg.Answer.Confidence))
		return
	}
	v.statusbar.Set(status.StateResults, fmt.Sprintf("%s · confidence %.2f · %s",
		msg.Answer.Model, msg.Answer.Confidence, msg.Answer.Duration.Round(time.Millisecond)))
}

// View renders the ask view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 10)
	sections = append(sections, v.styles.Title.Render("Sage"), "", v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	if v.answer != nil {
		text := v.styles.Answer.Width(max(v.width-4, 20)).Render(v.answer.Text)
		sections = append(sections, text, "")
		if v.sources.Count() > 0 {
			sections = append(sections, v.sources.View())
		}
	}

	sections = append(sections, "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.sources.SetDimensions(width, max(height/3, 4))
	v.statusbar.SetWidth(width)
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Question returns the current input value.
func (v *View) Question() string {
	return v.input.Value()
}

// SetQuestion sets the input value.
func (v *View) SetQuestion(question string) {
	v.input.SetValue(question)
}

// Answer returns the last answer, if any.
func (v *View) Answer() *domain.Answer {
	return v.answer
}

// SelectedSource returns the index of the selected source.
func (v *View) SelectedSource() int {
	return v.sources.Selected()
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// Reset clears the answer and focuses the input.
func (v *View) Reset() tea.Cmd {
	v.focusInput = true
	v.input.SetValue("")
	v.answer = nil
	v.sources.SetItems(nil)
	v.err = nil
	v.statusbar.Clear()
	return v.input.Focus()
}
