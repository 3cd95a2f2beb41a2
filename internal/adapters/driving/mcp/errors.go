// Package mcp provides an MCP (Model Context Protocol) server adapter.
// It lets AI assistants query the local code index and ask grounded
// questions about the repository.
package mcp

import "errors"

// ErrMissingQAService is returned when the question-answering service is
// not provided.
var ErrMissingQAService = errors.New("mcp: qa service is required")

// ErrMissingRetriever is returned when the retriever is not provided.
var ErrMissingRetriever = errors.New("mcp: retriever is required")
