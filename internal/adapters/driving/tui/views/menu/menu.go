// Package menu is the start screen listing the TUI's views.
package menu

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sage-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sage-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sage-cli/internal/adapters/driving/tui/styles"
)

// Item is one entry. Shortcut jumps straight to it from anywhere in the menu.
type Item struct {
	Label    string
	Hint     string
	Shortcut key.Binding
	View     messages.ViewType
	Quit     bool
}

// View lists the items with a cursor.
type View struct {
	styles *styles.Styles
	keymap *keymap.KeyMap
	items  []Item
	cursor int
	width  int
	height int
	ready  bool
}

func shortcut(k string) key.Binding {
	return key.NewBinding(key.WithKeys(k), key.WithHelp(k, ""))
}

// NewView creates the menu. Nil arguments select the defaults.
func NewView(s *styles.Styles, km *keymap.KeyMap) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles: s,
		keymap: km,
		items: []Item{
			{Label: "Ask", Hint: "question the knowledge base", Shortcut: shortcut("a"), View: messages.ViewAsk},
			{Label: "Find Members", Hint: "who knows what", Shortcut: shortcut("m"), View: messages.ViewMembers},
			{Label: "Documents", Hint: "browse, train and delete", Shortcut: shortcut("d"), View: messages.ViewDocuments},
			{Label: "Help", Shortcut: km.Help, View: messages.ViewHelp},
			{Label: "Quit", Shortcut: km.Quit, Quit: true},
		},
		width:  80,
		height: 24,
	}
}

// Init has nothing to start.
func (v *View) Init() tea.Cmd { return nil }

// Update moves the cursor, which wraps at both ends, and activates items.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keymap.Up):
			v.cursor = (v.cursor + len(v.items) - 1) % len(v.items)
		case key.Matches(msg, v.keymap.Down):
			v.cursor = (v.cursor + 1) % len(v.items)
		case key.Matches(msg, v.keymap.Select):
			return v, v.activate(v.cursor)
		default:
			for i, item := range v.items {
				if key.Matches(msg, item.Shortcut) {
					v.cursor = i
					return v, v.activate(i)
				}
			}
		}
	}
	return v, nil
}

func (v *View) activate(i int) tea.Cmd {
	item := v.items[i]
	if item.Quit {
		return tea.Quit
	}
	return func() tea.Msg { return messages.ViewChanged{View: item.View} }
}

// View renders the menu.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Sage") + "\n\n")
	b.WriteString(v.styles.Muted.Render("Team knowledge assistant") + "\n\n")

	for i, item := range v.items {
		marker, label := "  ", v.styles.Normal.Render(item.Label)
		if i == v.cursor {
			marker, label = "> ", v.styles.Selected.Render(item.Label)
		}
		line := marker + "[" + item.Shortcut.Keys()[0] + "] " + label
		if item.Hint != "" {
			line += "  " + v.styles.Muted.Render(item.Hint)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n" + v.styles.Help.Render(keymap.HelpLine([]key.Binding{v.keymap.Up, v.keymap.Down, v.keymap.Select})))
	return b.String()
}

// SetDimensions records the terminal size and marks the view ready.
func (v *View) SetDimensions(width, height int) {
	v.width, v.height = width, height
	v.ready = true
}

// Selected returns the cursor position.
func (v *View) Selected() int { return v.cursor }

// Items returns the menu entries.
func (v *View) Items() []Item { return v.items }
