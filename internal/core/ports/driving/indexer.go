package driving

import (
	"context"
	"time"
)

// IndexStats summarises one indexing run.
type IndexStats struct {
	// FilesChunked is the number of files that produced at least one chunk.
	FilesChunked int

	// ChunksIndexed is the number of chunks written to the vector store.
	ChunksIndexed int

	// ChunksDropped is the number of chunks dropped because no embedding
	// could be produced for them.
	ChunksDropped int

	// Warnings is the number of non-fatal file-level issues (unreadable or
	// unparseable files).
	Warnings int

	// Reused is true when an existing index was kept and no build ran.
	Reused bool

	// Duration is the wall-clock build time.
	Duration time.Duration
}

// IndexStatus describes the committed index, if any.
type IndexStatus struct {
	// Exists is true when a committed index is present on disk.
	Exists bool

	// Chunks is the number of indexed chunks. Zero when Exists is false.
	Chunks int

	// Dimensions is the embedding dimension the index was built with.
	Dimensions int

	// Model is the embedding model the current configuration would use.
	Model string
}

// Indexer is the explicit build/load lifecycle for the vector index.
// There is no hidden process-wide indexing state: callers construct an
// Indexer, run Build or Load, and only then query.
type Indexer interface {
	// Build chunks, annotates, embeds and persists the repository. With an
	// existing persisted index and force false, the index is reused and no
	// work is done. With force true the build runs against a staging copy
	// and atomically replaces the old index on success.
	Build(ctx context.Context, force bool) (IndexStats, error)

	// Load opens a previously persisted index for querying.
	Load(ctx context.Context) error

	// IsReady reports whether the index can serve queries.
	IsReady() bool

	// Status inspects the committed index without building anything.
	// Loads the index as a side effect when one exists.
	Status(ctx context.Context) (IndexStatus, error)
}
