// Package mcp provides an MCP (Model Context Protocol) server adapter for
// Crosscheck. It lets AI assistants run cross-document conflict analysis
// over the indexed corpus.
package mcp

import "errors"

// ErrMissingConflictService is returned when the conflict service is not provided.
var ErrMissingConflictService = errors.New("mcp: conflict service is required")
