// Package documents provides the documents list view component for the TUI.
package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sage-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sage-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sage-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sage-cli/internal/core/domain"
	"github.com/custodia-labs/sage-cli/internal/core/ports/driving"
)

// PollInterval is how often a running training job is polled.
var PollInterval = 500 * time.Millisecond

var errNoDocumentService = errors.New("document service not available")

// ActionOption represents a document action.
type ActionOption int

const (
	ActionShowContent ActionOption = iota
	ActionTrain
	ActionDelete
	ActionCancel
)

// View is the documents list view.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	documents driving.DocumentService
	ingestion driving.IngestionController

	items        []domain.Document
	selected     int
	width        int
	height       int
	ready        bool
	err          error
	loading      bool
	showingMenu  bool
	menuSelected ActionOption
	scrollOffset int

	// job is the training job started from this view, if any.
	job *domain.IngestionJob
}

// NewView creates a new documents view. ingestion may be nil, which
// disables training.
func NewView(s *styles.Styles, documents driving.DocumentService, ingestion driving.IngestionController) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:    s,
		keymap:    keymap.DefaultKeyMap(),
		documents: documents,
		ingestion: ingestion,
		width:     80,
		height:    24,
	}
}

// Init loads the document list.
func (v *View) Init() tea.Cmd {
	v.loading = true
	v.showingMenu = false
	return v.loadDocuments()
}

func (v *View) loadDocuments() tea.Cmd {
	return func() tea.Msg {
		if v.documents == nil {
			return messages.DocumentsLoaded{Err: errNoDocumentService}
		}
		docs, err := v.documents.List(context.Background(), domain.DocumentFilter{})
		return messages.DocumentsLoaded{Documents: docs, Err: err}
	}
}

// Update handles messages for the documents view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		if v.showingMenu {
			return v.handleMenuKeyMsg(msg)
		}
		return v.handleKeyMsg(msg)

	case messages.DocumentsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.items = msg.Documents
		v.err = nil
		if v.selected >= len(v.items) {
			v.selected = max(len(v.items)-1, 0)
		}
		v.adjustScroll()
		return v, nil

	case messages.DocumentDeleted:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		return v, v.loadDocuments()

	case messages.TrainingStarted:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.job = &domain.IngestionJob{ID: msg.JobID, State: domain.JobRunning, Message: "starting"}
		return v, v.pollJob(msg.JobID, 0)

	case messages.JobPolled:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.job = msg.Job
		if msg.Job.State.IsTerminal() {
			return v, v.loadDocuments()
		}
		return v, v.pollJob(msg.Job.ID, PollInterval)

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case keymap.Matches(msg.String(), v.keymap.Up):
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case keymap.Matches(msg.String(), v.keymap.Down):
		if v.selected < len(v.items)-1 {
			v.selected++
			v.adjustScroll()
		}
	case keymap.Matches(msg.String(), v.keymap.Open):
		if len(v.items) > 0 {
			v.showingMenu = true
			v.menuSelected = ActionShowContent
		}
	case keymap.Matches(msg.String(), v.keymap.Train):
		if doc := v.SelectedDocument(); doc != nil {
			return v, v.train(doc.ID)
		}
	case keymap.Matches(msg.String(), v.keymap.Delete):
		if doc := v.SelectedDocument(); doc != nil {
			return v, v.deleteDocument(doc.ID)
		}
	case keymap.Matches(msg.String(), v.keymap.Reload):
		v.loading = true
		return v, v.loadDocuments()
	case keymap.Matches(msg.String(), v.keymap.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	return v, nil
}

func (v *View) handleMenuKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.menuSelected > ActionShowContent {
			v.menuSelected--
		}
	case "down", "j":
		if v.menuSelected < ActionCancel {
			v.menuSelected++
		}
	case "enter":
		return v.handleMenuSelect()
	case "esc":
		v.showingMenu = false
	}

	return v, nil
}

func (v *View) handleMenuSelect() (*View, tea.Cmd) {
	v.showingMenu = false
	doc := v.SelectedDocument()
	if doc == nil {
		return v, nil
	}
	id := doc.ID

	switch v.menuSelected {
	case ActionShowContent:
		return v, func() tea.Msg {
			return messages.DocumentSelected{DocumentID: id, Back: messages.ViewDocuments}
		}
	case ActionTrain:
		return v, v.train(id)
	case ActionDelete:
		return v, v.deleteDocument(id)
	case ActionCancel:
	}

	return v, nil
}

func (v *View) train(docID string) tea.Cmd {
	return func() tea.Msg {
		if v.ingestion == nil {
			return messages.TrainingStarted{Err: domain.ErrEmbeddingUnavailable}
		}
		jobID, err := v.ingestion.Submit(context.Background(), []string{docID})
		return messages.TrainingStarted{JobID: jobID, Err: err}
	}
}

func (v *View) pollJob(jobID string, after time.Duration) tea.Cmd {
	poll := func() tea.Msg {
		job, err := v.ingestion.Status(context.Background(), jobID)
		return messages.JobPolled{Job: job, Err: err}
	}
	if after <= 0 {
		return poll
	}
	return tea.Tick(after, func(time.Time) tea.Msg { return poll() })
}

func (v *View) deleteDocument(docID string) tea.Cmd {
	return func() tea.Msg {
		if v.documents == nil {
			return messages.DocumentDeleted{DocumentID: docID, Err: errNoDocumentService}
		}
		err := v.documents.Delete(context.Background(), docID)
		return messages.DocumentDeleted{DocumentID: docID, Err: err}
	}
}

// adjustScroll keeps the selected item visible.
func (v *View) adjustScroll() {
	visibleItems := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visibleItems {
		v.scrollOffset = v.selected - visibleItems + 1
	}
}

func (v *View) visibleItemCount() int {
	// title, job line, scroll indicator and help
	return max(v.height-9, 1)
}

// View renders the documents view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Documents (%d)", len(v.items))))
	b.WriteString("\n\n")

	if v.job != nil {
		b.WriteString(v.renderJob())
		b.WriteString("\n\n")
	}

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
	case v.err != nil && len(v.items) == 0:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	case len(v.items) == 0:
		b.WriteString(v.styles.Muted.Render("No documents uploaded. Use 'sage upload' to add some."))
	case v.showingMenu:
		b.WriteString(v.renderActionMenu())
		return b.String()
	default:
		b.WriteString(v.renderList())
		if v.err != nil {
			b.WriteString("\n")
			b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render(keymap.HelpLine(v.keymap.DocumentsHelp())))
	return b.String()
}

func (v *View) renderList() string {
	var b strings.Builder
	visibleItems := v.visibleItemCount()
	for i := v.scrollOffset; i < len(v.items) && i < v.scrollOffset+visibleItems; i++ {
		b.WriteString(v.renderDocument(i, &v.items[i]))
		b.WriteString("\n")
	}

	if len(v.items) > visibleItems {
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]",
			v.scrollOffset+1,
			min(v.scrollOffset+visibleItems, len(v.items)),
			len(v.items))))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (v *View) renderDocument(index int, doc *domain.Document) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	title := doc.Title
	if title == "" {
		title = doc.ID
	}
	title = styles.Truncate(title, max(v.width/2-4, 10))

	status := v.renderStatus(doc.Status)
	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("%s%-*s  ", indicator, max(v.width/2-4, 10), title)) + status
	}
	return v.styles.Normal.Render(fmt.Sprintf("%s%-*s  ", indicator, max(v.width/2-4, 10), title)) + status
}

func (v *View) renderStatus(st domain.DocumentStatus) string {
	switch st {
	case domain.StatusIndexed:
		return v.styles.Success.Render(st.String())
	case domain.StatusFailed:
		return v.styles.Error.Render(st.String())
	case domain.StatusIndexing:
		return v.styles.Warning.Render(st.String())
	case domain.StatusUploaded:
	}
	return v.styles.Muted.Render(st.String())
}

func (v *View) renderJob() string {
	line := fmt.Sprintf("Training %s: %s %d%% %s", shortID(v.job.ID), v.job.State, v.job.Progress, v.job.Message)
	switch {
	case v.job.State == domain.JobFailed:
		return v.styles.Error.Render(line)
	case v.job.Completed() && len(v.job.Failures) > 0:
		return v.styles.Warning.Render(fmt.Sprintf("%s (%d failed)", line, len(v.job.Failures)))
	case v.job.Completed():
		return v.styles.Success.Render(line)
	}
	return v.styles.Muted.Render(line)
}

func (v *View) renderActionMenu() string {
	var b strings.Builder

	if doc := v.SelectedDocument(); doc != nil {
		title := doc.Title
		if title == "" {
			title = doc.ID
		}
		b.WriteString(v.styles.Subtitle.Render(fmt.Sprintf("Actions for: %s", title)))
		b.WriteString("\n\n")
	}

	options := []struct {
		action ActionOption
		label  string
	}{
		{ActionShowContent, "Show Content"},
		{ActionTrain, "Train"},
		{ActionDelete, "Delete"},
		{ActionCancel, "Cancel"},
	}

	for _, opt := range options {
		if v.menuSelected == opt.action {
			b.WriteString(v.styles.Selected.Render("> " + opt.label))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + opt.label))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] select  [esc] cancel"))

	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Documents returns the current list of documents.
func (v *View) Documents() []domain.Document {
	return v.items
}

// SelectedIndex returns the currently selected document index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// SelectedDocument returns the currently selected document.
func (v *View) SelectedDocument() *domain.Document {
	if v.selected < len(v.items) {
		return &v.items[v.selected]
	}
	return nil
}

// IsShowingMenu returns true if the action menu is visible.
func (v *View) IsShowingMenu() bool {
	return v.showingMenu
}

// Job returns the last training job started from this view.
func (v *View) Job() *domain.IngestionJob {
	return v.job
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
