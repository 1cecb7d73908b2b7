package mcp

import (
	"github.com/custodia-labs/sage-cli/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server exposes.
type Ports struct {
	// Ask answers questions from indexed documents.
	Ask driving.AskService

	// Skills matches members by skill. Optional.
	Skills driving.SkillMatcher

	// Document lists and reads documents. Optional.
	Document driving.DocumentService
}

// Validate ensures the required ports are set.
func (p *Ports) Validate() error {
	if p.Ask == nil {
		return ErrMissingAskService
	}
	return nil
}
