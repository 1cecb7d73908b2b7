// Package tui provides the interactive terminal interface started by
// "sage chat". It is a driving adapter over the same ports as the CLI.
package tui

import (
	"github.com/custodia-labs/sage-cli/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI uses.
type Ports struct {
	// Ask answers questions.
	Ask driving.AskService

	// Skills finds members by skill.
	Skills driving.SkillMatcher

	// Documents lists, shows and deletes documents.
	Documents driving.DocumentService

	// Ingestion trains documents. Optional; nil disables training.
	Ingestion driving.IngestionController
}

// Validate ensures the required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Ask == nil {
		return ErrMissingAskService
	}
	if p.Skills == nil {
		return ErrMissingSkillMatcher
	}
	if p.Documents == nil {
		return ErrMissingDocumentService
	}
	return nil
}
