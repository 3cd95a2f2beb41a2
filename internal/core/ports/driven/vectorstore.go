package driven

import (
	"context"

	"github.com/modelcode-ai/codeqa-cli/internal/core/domain"
)

// VectorStore persists fully resolved chunks (metadata plus embedding) and
// answers nearest-neighbour queries over them.
//
// Similarity is cosine similarity; the metric is fixed so scores are
// comparable across calls. Writes follow single-writer discipline; a write
// in progress is never visible to readers until durably committed.
type VectorStore interface {
	// Upsert adds or replaces entries by chunk ID. Idempotent: upserting the
	// same ID with identical content must not create duplicates.
	Upsert(ctx context.Context, entries []domain.Chunk) error

	// Query returns the k entries with highest cosine similarity to vector,
	// ties broken by ascending ID. k must be positive; if the store holds
	// fewer than k entries, all of them are returned. A vector whose
	// dimension differs from the store's declared dimension fails with
	// domain.ErrDimensionMismatch.
	Query(ctx context.Context, vector []float32, k int) ([]domain.ScoredChunk, error)

	// Count returns the number of persisted entries.
	Count(ctx context.Context) (int, error)

	// Dimensions returns the store's declared embedding dimension.
	// Zero until the first upsert declares it.
	Dimensions() int

	// Persist makes the store durably readable by a fresh process at the
	// same location. For a staged rebuild this commits the staging copy by
	// atomically swapping it over the previous index.
	Persist(ctx context.Context) error

	// Close releases resources without committing staged writes.
	Close() error
}

// StoreProvider hands out the current committed store. It lets query-side
// services resolve the store per call instead of binding to one at
// construction, so a rebuild that swaps the index is picked up transparently.
type StoreProvider interface {
	// Store returns the committed store, or domain.ErrIndexNotReady when no
	// index has been built or loaded yet.
	Store() (VectorStore, error)
}

// VectorStoreFactory opens vector stores at a fixed location. It separates
// the build path (staging, exclusive) from the query path (committed,
// read-mostly).
type VectorStoreFactory interface {
	// OpenStaging opens a store whose writes stay invisible until Persist
	// commits them over the existing index. Only one staging store may be
	// open at a time.
	OpenStaging(model string) (VectorStore, error)

	// OpenCommitted opens the committed index for querying. Fails with
	// domain.ErrIndexNotReady when no committed index exists.
	OpenCommitted(model string) (VectorStore, error)

	// Exists reports whether a committed index is present.
	Exists() bool
}
