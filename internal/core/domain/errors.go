package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidChunk indicates a chunk violates a structural invariant.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrRootInaccessible indicates the repository root does not exist or is
	// not readable. Fatal for the whole indexing run; individual unreadable
	// files are skipped with a warning instead.
	ErrRootInaccessible = errors.New("repository root inaccessible")

	// ErrParse indicates a source file could not be parsed into a syntax
	// tree. The file yields zero chunks; the build continues.
	ErrParse = errors.New("parse failed")

	// ErrUnsupportedLanguage indicates no chunker is registered for a
	// file's language tag.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrDimensionMismatch indicates the query vector's dimension differs
	// from the index's declared dimension. Fatal, surfaced immediately,
	// never silently truncated or padded.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrIndexCorrupted indicates the persisted vector store is unreadable
	// or internally inconsistent. Fatal at load; rebuild with --force.
	ErrIndexCorrupted = errors.New("vector index corrupted")

	// ErrIndexNotReady indicates a query was issued before an index was
	// built or loaded.
	ErrIndexNotReady = errors.New("vector index not ready")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Chunks are indexed without explanations; answering is disabled.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Nothing can be indexed or retrieved without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)

// CollaboratorError wraps a failure from a generation or embedding
// collaborator. Transient failures (rate limits, timeouts, 5xx) are retried
// by the bounded-retry policy; fatal ones propagate immediately.
type CollaboratorError struct {
	// Op names the failing operation ("explain", "embed", "answer").
	Op string

	// Transient marks failures worth retrying.
	Transient bool

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *CollaboratorError) Error() string {
	if e.Transient {
		return fmt.Sprintf("collaborator %s failed (transient): %v", e.Op, e.Err)
	}
	return fmt.Sprintf("collaborator %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// NewCollaboratorError wraps err as a collaborator failure for op.
func NewCollaboratorError(op string, transient bool, err error) *CollaboratorError {
	return &CollaboratorError{Op: op, Transient: transient, Err: err}
}

// IsTransient reports whether err is a collaborator failure worth retrying.
func IsTransient(err error) bool {
	var ce *CollaboratorError
	return errors.As(err, &ce) && ce.Transient
}
