package mcp

import (
	"github.com/custodia-labs/crosscheck/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Conflict runs cross-document conflict analysis.
	Conflict driving.ConflictService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Conflict == nil {
		return ErrMissingConflictService
	}
	return nil
}
