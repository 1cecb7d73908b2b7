// Package members provides the skill search view for the TUI.
package members

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

// ErrNoSkillMatcher indicates that no skill matcher was provided.
var ErrNoSkillMatcher = errors.New("skill matcher is required")

// View finds members by skill.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QueryInput
	results   *list.ResultList
	statusbar *status.Bar

	matcher driving.SkillMatcher
	ctx     context.Context

	searched      bool
	knownSkills   []string
	availableOnly bool
	width         int
	height        int
	ready         bool
	err           error
	focusInput    bool
}

// NewView creates a new members view.
func NewView(s *styles.Styles, km *keymap.KeyMap, matcher driving.SkillMatcher) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.NewQueryInput(s, "Skills", "e.g. react, smart contracts"),
		results:    list.NewResultList(s, "Members", "No members matched."),
		statusbar:  status.NewBar(s, km),
		matcher:    matcher,
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

// Update handles messages for the members view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.MembersFound:
		v.handleMembersFound(msg)
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

	if msg.Type == tea.KeyTab {
		v.availableOnly = !v.availableOnly
		if v.searched {
			return v, v.find(v.input.Value())
		}
		return v, nil
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			query := v.input.Value()
			if strings.TrimSpace(query) == "" {
				return v, nil
			}
			v.focusInput = false
			v.input.Blur()
			v.statusbar.Set(status.StateThinking, "Searching...")
			return v, v.find(query)
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch {
	case keymap.Matches(msg.String(), v.keymap.Up):
		v.results.MoveUp()
	case keymap.Matches(msg.String(), v.keymap.Down):
		v.results.MoveDown()
	case keymap.Matches(msg.String(), v.keymap.NewQuestion):
		v.focusInput = true
		v.input.SetValue("")
		return v, v.input.Focus()
	}

	return v, nil
}

func (v *View) find(query string) tea.Cmd {
	ctx := v.ctx
	opts := domain.FindOptions{AvailableOnly: v.availableOnly}
	return func() tea.Msg {
		if v.matcher == nil {
			return messages.MembersFound{Query: query, Err: ErrNoSkillMatcher}
		}
		matches, err := v.matcher.Find(ctx, query, opts)
		return messages.MembersFound{Query: query, Matches: matches, Err: err}
	}
}

func (v *View) handleMembersFound(msg messages.MembersFound) {
	v.searched = true
	if msg.Err != nil {
		v.err = msg.Err
		v.results.SetItems(nil)
		v.statusbar.Set(status.StateError, msg.Err.Error())
		return
	}

	v.err = nil
	v.results.SetItems(list.MemberItems(msg.Matches))
	if len(msg.Matches) == 0 && v.matcher != nil {
		skills, err := v.matcher.Skills(v.ctx)
		if err == nil {
			v.knownSkills = skills
		}
	} else {
		v.knownSkills = nil
	}
	v.statusbar.Set(status.StateResults, fmt.Sprintf("%d members", len(msg.Matches)))
}

// View renders the members view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	filter := "all members"
	if v.availableOnly {
		filter = "available only"
	}

	sections := make([]string, 0, 10)
	sections = append(sections,
		v.styles.Title.Render("Find Members"),
		"",
		v.input.View(),
		v.styles.Muted.Render("[tab] "+filter),
		"",
	)

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	if v.searched {
		sections = append(sections, v.results.View())
		if len(v.knownSkills) > 0 {
			known := styles.Truncate(strings.Join(v.knownSkills, ", "), max(v.width*2, 40))
			sections = append(sections, "", v.styles.Muted.Render("Known skills: "+known))
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
	v.results.SetDimensions(width, max(height-12, 4))
	v.statusbar.SetWidth(width)
}

// Results returns the listed matches.
func (v *View) Results() []list.Item {
	return v.results.Items()
}

// KnownSkills returns the skills shown after an empty result.
func (v *View) KnownSkills() []string {
	return v.knownSkills
}

// AvailableOnly reports whether unavailable members are filtered out.
func (v *View) AvailableOnly() bool {
	return v.availableOnly
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// Reset clears results and focuses the input.
func (v *View) Reset() tea.Cmd {
	v.focusInput = true
	v.searched = false
	v.knownSkills = nil
	v.input.SetValue("")
	v.results.SetItems(nil)
	v.err = nil
	v.statusbar.Clear()
	return v.input.Focus()
}
