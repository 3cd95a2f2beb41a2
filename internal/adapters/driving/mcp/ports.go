package mcp

import (
	"github.com/modelcode-ai/codeqa-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// QA answers natural-language questions about the codebase.
	QA driving.QAService

	// Retriever resolves queries into ranked chunks.
	Retriever driving.Retriever

	// Indexer reports index status. Optional.
	Indexer driving.Indexer
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.QA == nil {
		return ErrMissingQAService
	}
	if p.Retriever == nil {
		return ErrMissingRetriever
	}
	// Indexer is optional; the status resource degrades without it.
	return nil
}
