// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/sage-cli/internal/core/domain"
)

// AskCompleted carries an answer back to the ask view.
type AskCompleted struct {
	Question string
	Answer   *domain.Answer
	Err      error
}

// MembersFound carries skill matches back to the members view.
type MembersFound struct {
	Query   string
	Matches []domain.SkillMatch
	Err     error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewAsk is the question input and answer view.
	ViewAsk
	// ViewMembers finds members by skill.
	ViewMembers
	// ViewDocuments lists uploaded documents.
	ViewDocuments
	// ViewDocContent shows one document and its chunks.
	ViewDocContent
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewAsk:
		return "ask"
	case ViewMembers:
		return "members"
	case ViewDocuments:
		return "documents"
	case ViewDocContent:
		return "doc_content"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// DocumentsLoaded carries the document list.
type DocumentsLoaded struct {
	Documents []domain.Document
	Err       error
}

// DocumentSelected asks the app to open a document. Back is the view that
// esc returns to.
type DocumentSelected struct {
	DocumentID string
	Back       ViewType
}

// DocumentContentLoaded carries a document with its chunks.
type DocumentContentLoaded struct {
	Document *domain.Document
	Chunks   []domain.Chunk
	Err      error
}

// DocumentDeleted signals a delete finished.
type DocumentDeleted struct {
	DocumentID string
	Err        error
}

// TrainingStarted signals an ingestion job was submitted.
type TrainingStarted struct {
	JobID string
	Err   error
}

// JobPolled carries the latest snapshot of a training job.
type JobPolled struct {
	Job *domain.IngestionJob
	Err error
}
