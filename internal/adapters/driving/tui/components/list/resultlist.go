// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sage-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sage-cli/internal/core/domain"
)

// Item is one row of a ResultList.
type Item struct {
	// ID identifies what the row points at, such as a document ID.
	ID string

	Title string

	// Score is shown right of the title; empty hides it.
	Score string

	// Detail is a muted second line.
	Detail string
}

// SourceItems turns answer sources into list items.
func SourceItems(sources []domain.SourceRef) []Item {
	items := make([]Item, 0, len(sources))
	for _, s := range sources {
		items = append(items, Item{
			ID:     s.DocumentID,
			Title:  s.Title,
			Score:  fmt.Sprintf("%.2f", s.Score),
			Detail: s.ChunkID,
		})
	}
	return items
}

// MemberItems turns skill matches into list items.
func MemberItems(matches []domain.SkillMatch) []Item {
	items := make([]Item, 0, len(matches))
	for i := range matches {
		m := &matches[i]
		title := m.Member.Name
		if !m.Member.Available {
			title += " (busy)"
		}
		detail := strings.Join(m.MatchedSkills, ", ")
		if m.Member.TelegramHandle != "" {
			detail += "  " + m.Member.TelegramHandle
		}
		items = append(items, Item{
			ID:     m.Member.ID,
			Title:  title,
			Score:  fmt.Sprintf("%d", m.Score),
			Detail: detail,
		})
	}
	return items
}

// ResultList displays items in a navigable list.
type ResultList struct {
	heading  string
	empty    string
	items    []Item
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewResultList creates a list with a heading such as "Sources".
func NewResultList(s *styles.Styles, heading, empty string) *ResultList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &ResultList{
		heading: heading,
		empty:   empty,
		styles:  s,
		width:   80,
		height:  10,
	}
}

// Init initialises the result list.
func (r *ResultList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (r *ResultList) Update(msg tea.Msg) (*ResultList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			r.MoveUp()
		case "down", "j":
			r.MoveDown()
		}
	}
	return r, nil
}

// View renders the list.
func (r *ResultList) View() string {
	if len(r.items) == 0 {
		return r.styles.Muted.Render(r.empty)
	}

	lines := make([]string, 0, len(r.items)+2)
	lines = append(lines, r.styles.Subtitle.Render(fmt.Sprintf("%s (%d)", r.heading, len(r.items))), "")

	// Each item takes two lines.
	visible := max((r.height-2)/2, 1)
	start := 0
	if r.selected >= visible {
		start = r.selected - visible + 1
	}
	end := min(start+visible, len(r.items))

	for i := start; i < end; i++ {
		lines = append(lines, r.renderItem(i, &r.items[i]))
	}
	return strings.Join(lines, "\n")
}

func (r *ResultList) renderItem(index int, item *Item) string {
	indicator := "  "
	if index == r.selected {
		indicator = "> "
	}

	title := item.Title
	if title == "" {
		title = "(untitled)"
	}
	titleWidth := max(r.width-12, 10)
	title = styles.Truncate(title, titleWidth)

	var titleLine string
	if index == r.selected {
		titleLine = r.styles.Selected.Render(fmt.Sprintf("%s%-*s  %s", indicator, titleWidth, title, item.Score))
	} else {
		titleLine = r.styles.Normal.Render(fmt.Sprintf("%s%-*s  ", indicator, titleWidth, title)) +
			r.styles.Score.Render(item.Score)
	}

	if item.Detail == "" {
		return titleLine
	}
	return titleLine + "\n" + r.styles.Muted.Render("    "+styles.Truncate(item.Detail, max(r.width-6, 20)))
}

// SetItems replaces the items and resets the selection.
func (r *ResultList) SetItems(items []Item) {
	r.items = items
	r.selected = 0
}

// Items returns the current items.
func (r *ResultList) Items() []Item {
	return r.items
}

// Selected returns the index of the selected item.
func (r *ResultList) Selected() int {
	return r.selected
}

// SelectedItem returns the selected item, or nil for an empty list.
func (r *ResultList) SelectedItem() *Item {
	if r.selected < 0 || r.selected >= len(r.items) {
		return nil
	}
	return &r.items[r.selected]
}

// MoveUp moves selection up.
func (r *ResultList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves selection down.
func (r *ResultList) MoveDown() {
	if r.selected < len(r.items)-1 {
		r.selected++
	}
}

// SetDimensions sets the component dimensions.
func (r *ResultList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Count returns the number of items.
func (r *ResultList) Count() int {
	return len(r.items)
}
