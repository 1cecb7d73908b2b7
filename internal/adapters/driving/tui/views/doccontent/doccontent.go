// Package doccontent provides the document content view component for the TUI.
package doccontent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sage-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sage-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sage-cli/internal/core/domain"
	"github.com/custodia-labs/sage-cli/internal/core/ports/driving"
)

// View shows one document, either as its full text or split into the
// chunks it was indexed as.
type View struct {
	styles          *styles.Styles
	documentService driving.DocumentService

	documentID   string
	back         messages.ViewType
	document     *domain.Document
	chunks       []domain.Chunk
	showChunks   bool
	lines        []string
	scrollOffset int
	width        int
	height       int
	ready        bool
	err          error
	loading      bool
}

// NewView creates a new document content view.
func NewView(s *styles.Styles, documentService driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:          s,
		documentService: documentService,
		back:            messages.ViewDocuments,
		width:           80,
		height:          24,
	}
}

// SetDocument loads a document. esc then returns to back.
func (v *View) SetDocument(documentID string, back messages.ViewType) tea.Cmd {
	v.documentID = documentID
	v.back = back
	v.document = nil
	v.chunks = nil
	v.lines = nil
	v.showChunks = false
	v.scrollOffset = 0
	v.err = nil
	v.loading = true
	return v.loadContent()
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

func (v *View) loadContent() tea.Cmd {
	id := v.documentID
	return func() tea.Msg {
		if v.documentService == nil {
			return messages.DocumentContentLoaded{Err: errors.New("document service not available")}
		}

		ctx := context.Background()
		doc, err := v.documentService.Get(ctx, id)
		if err != nil {
			return messages.DocumentContentLoaded{Err: err}
		}
		chunks, err := v.documentService.Chunks(ctx, id)
		return messages.DocumentContentLoaded{Document: doc, Chunks: chunks, Err: err}
	}
}

// Update handles messages for the document content view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.DocumentContentLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.document = msg.Document
		v.chunks = msg.Chunks
		v.err = nil
		v.wrapContent()
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.scrollOffset > 0 {
			v.scrollOffset--
		}
	case "down", "j":
		if v.scrollOffset < v.maxScrollOffset() {
			v.scrollOffset++
		}
	case "pgup", "ctrl+u":
		v.scrollOffset = max(v.scrollOffset-v.visibleLines(), 0)
	case "pgdown", "ctrl+d":
		v.scrollOffset = min(v.scrollOffset+v.visibleLines(), v.maxScrollOffset())
	case "home", "g":
		v.scrollOffset = 0
	case "end", "G":
		v.scrollOffset = v.maxScrollOffset()
	case "c":
		if len(v.chunks) > 0 {
			v.showChunks = !v.showChunks
			v.scrollOffset = 0
			v.wrapContent()
		}
	case "esc":
		back := v.back
		return v, func() tea.Msg {
			return messages.ViewChanged{View: back}
		}
	}

	return v, nil
}

// wrapContent rebuilds the display lines for the current mode and width.
func (v *View) wrapContent() {
	v.lines = nil
	if v.document == nil {
		return
	}

	contentWidth := max(v.width-4, 20)

	if !v.showChunks {
		v.lines = wrap(v.document.Content, contentWidth)
		return
	}

	for i := range v.chunks {
		c := &v.chunks[i]
		header := fmt.Sprintf("── chunk %d [%d:%d]", c.Ordinal, c.Start, c.End)
		if c.Overlap > 0 {
			header += fmt.Sprintf(" overlap %d", c.Overlap)
		}
		v.lines = append(v.lines, v.styles.Subtitle.Render(header))
		v.lines = append(v.lines, wrap(c.Content, contentWidth)...)
		v.lines = append(v.lines, "")
	}
}

// wrap splits text into lines no wider than width runes.
func wrap(text string, width int) []string {
	if text == "" {
		return nil
	}
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		r := []rune(line)
		for len(r) > width {
			lines = append(lines, string(r[:width]))
			r = r[width:]
		}
		lines = append(lines, string(r))
	}
	return lines
}

func (v *View) visibleLines() int {
	// title, details, separator and help
	return max(v.height-8, 1)
}

func (v *View) maxScrollOffset() int {
	return max(len(v.lines)-v.visibleLines(), 0)
}

// View renders the document content view.
func (v *View) View() string {
	var b strings.Builder

	title := "Document"
	if v.document != nil {
		title = v.document.Title
		if title == "" {
			title = v.document.ID
		}
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")
	if v.document != nil {
		b.WriteString(v.renderDetails())
		b.WriteString("\n")
	}
	b.WriteString(strings.Repeat("─", min(v.width-4, 60)))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading content..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	case len(v.lines) == 0:
		b.WriteString(v.styles.Muted.Render("(No content)"))
	default:
		visible := v.visibleLines()
		for i := v.scrollOffset; i < len(v.lines) && i < v.scrollOffset+visible; i++ {
			b.WriteString(v.styles.Normal.Render(v.lines[i]))
			b.WriteString("\n")
		}
		if len(v.lines) > visible {
			percentage := 0
			if v.maxScrollOffset() > 0 {
				percentage = v.scrollOffset * 100 / v.maxScrollOffset()
			}
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d%%] Line %d-%d of %d",
				percentage,
				v.scrollOffset+1,
				min(v.scrollOffset+visible, len(v.lines)),
				len(v.lines))))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

func (v *View) renderDetails() string {
	d := v.document
	parts := []string{d.Status.String(), fmt.Sprintf("%d chunks", d.ChunkCount)}
	if d.Category != "" {
		parts = append(parts, string(d.Category))
	}
	if !d.UpdatedAt.IsZero() {
		parts = append(parts, "updated "+d.UpdatedAt.Format("2006-01-02 15:04"))
	}
	line := v.styles.Muted.Render(strings.Join(parts, " · "))
	if d.FailureReason != "" {
		line += "\n" + v.styles.Error.Render(d.FailureReason)
	}
	return line
}

func (v *View) renderHelp() string {
	mode := "[c] show chunks"
	if v.showChunks {
		mode = "[c] show text"
	}
	return v.styles.Help.Render("[↑/↓/PgUp/PgDn] scroll  [g/G] top/bottom  " + mode + "  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.wrapContent()
}

// Document returns the current document.
func (v *View) Document() *domain.Document {
	return v.document
}

// Chunks returns the loaded chunks.
func (v *View) Chunks() []domain.Chunk {
	return v.chunks
}

// ShowingChunks reports whether the chunk view is active.
func (v *View) ShowingChunks() bool {
	return v.showChunks
}

// Lines returns the wrapped display lines.
func (v *View) Lines() []string {
	return v.lines
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
