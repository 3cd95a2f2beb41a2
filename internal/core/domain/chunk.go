package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// ChunkKind identifies the structural role of a chunk within its source file.
type ChunkKind string

const (
	// ChunkKindModule covers module-level statements not enclosed by a finer
	// declaration, or a whole documentation section.
	ChunkKindModule ChunkKind = "module"

	// ChunkKindClass covers a class or type declaration.
	ChunkKindClass ChunkKind = "class"

	// ChunkKindFunction covers a top-level function declaration.
	ChunkKindFunction ChunkKind = "function"

	// ChunkKindMethod covers a function declared inside a class.
	ChunkKindMethod ChunkKind = "method"
)

// IsValid checks if the ChunkKind is a known value.
func (k ChunkKind) IsValid() bool {
	switch k {
	case ChunkKindModule, ChunkKindClass, ChunkKindFunction, ChunkKindMethod:
		return true
	}
	return false
}

// chunkNamespace is the fixed UUID namespace for deterministic chunk IDs.
// It must never change: chunk identity across re-index runs depends on it.
var chunkNamespace = uuid.MustParse("7cde9d8e-31a5-4f0e-9e50-0c2a6f1f8b4d")

// NewChunkID derives a stable chunk identifier from the file path, the chunk
// start line and the chunk kind. Re-indexing an unchanged file yields the
// same IDs; no process-run-specific state is involved.
func NewChunkID(filePath string, startLine int, kind ChunkKind) string {
	name := fmt.Sprintf("%s:%d:%s", filePath, startLine, kind)
	return uuid.NewSHA1(chunkNamespace, []byte(name)).String()
}

// Chunk represents a logically coherent unit of source code: the atomic unit
// of indexing and retrieval. A fully resolved chunk (explanation and
// embedding populated) is what the vector store persists as an index entry.
type Chunk struct {
	// ID is the stable identifier, derived via NewChunkID.
	ID string

	// Kind is the structural role of the chunk.
	Kind ChunkKind

	// Name is the declared name (function/class name, section header).
	// Empty for anonymous module chunks.
	Name string

	// Language is the source language tag ("python", "go", "markdown").
	Language string

	// FilePath is the path of the source file, relative to the repository root.
	FilePath string

	// StartLine and EndLine delimit the chunk in the source file.
	// Both are 1-based and inclusive.
	StartLine int
	EndLine   int

	// ParentID references the immediate enclosing chunk (the class containing
	// a method). Empty for top-level chunks. Relation only, never ownership.
	ParentID string

	// Content is the verbatim source slice.
	Content string

	// Explanation is the generated natural-language description. Empty until
	// the annotator runs; stays empty when explanation generation failed.
	Explanation string

	// Embedding is the fixed-dimension vector over Content plus Explanation.
	// Nil until the embedding generator runs.
	Embedding []float32
}

// Validate checks the chunk's structural invariants.
func (c *Chunk) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: chunk has no id", ErrInvalidChunk)
	}
	if !c.Kind.IsValid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidChunk, c.Kind)
	}
	if c.FilePath == "" {
		return fmt.Errorf("%w: chunk %s has no file path", ErrInvalidChunk, c.ID)
	}
	if c.StartLine < 1 {
		return fmt.Errorf("%w: chunk %s starts at line %d", ErrInvalidChunk, c.ID, c.StartLine)
	}
	if c.EndLine < c.StartLine {
		return fmt.Errorf("%w: chunk %s ends at line %d before start line %d",
			ErrInvalidChunk, c.ID, c.EndLine, c.StartLine)
	}
	return nil
}

// EmbeddingSeparator joins content and explanation when composing the text to
// embed. Fixed so that an empty explanation still yields a reproducible
// embedding input.
const EmbeddingSeparator = "\n\n"

// EmbeddingText returns the text the embedding is computed over: the file
// path, the explanation (possibly empty) and the raw content, joined with a
// fixed separator.
func (c *Chunk) EmbeddingText() string {
	return fmt.Sprintf("File: %s%sExplanation: %s%sCode:\n%s",
		c.FilePath, EmbeddingSeparator, c.Explanation, EmbeddingSeparator, c.Content)
}
