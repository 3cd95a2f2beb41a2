// Package memory implements an in-process vector store used by tests and
// by callers that do not need persistence.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/modelcode-ai/codeqa-cli/internal/core/domain"
	"github.com/modelcode-ai/codeqa-cli/internal/core/ports/driven"
)

// Ensure Store implements the port.
var _ driven.VectorStore = (*Store)(nil)

// Store holds chunks in a map keyed by chunk ID.
type Store struct {
	mu     sync.RWMutex
	chunks map[string]domain.Chunk
	dim    int
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{chunks: make(map[string]domain.Chunk)}
}

// Upsert adds or replaces chunks by ID.
func (s *Store) Upsert(_ context.Context, entries []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range entries {
		if len(c.Embedding) == 0 {
			return fmt.Errorf("chunk %s has no embedding: %w", c.ID, domain.ErrInvalidChunk)
		}
		if s.dim == 0 {
			s.dim = len(c.Embedding)
		} else if len(c.Embedding) != s.dim {
			return fmt.Errorf("chunk %s has dimension %d, store has %d: %w",
				c.ID, len(c.Embedding), s.dim, domain.ErrDimensionMismatch)
		}
	}
	for _, c := range entries {
		s.chunks[c.ID] = c
	}
	return nil
}

// Query returns the k nearest chunks by cosine similarity, ties broken by
// ascending ID.
func (s *Store) Query(_ context.Context, vector []float32, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d: %w", k, domain.ErrInvalidInput)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.dim == 0 {
		return nil, nil
	}
	if len(vector) != s.dim {
		return nil, fmt.Errorf("query vector has dimension %d, store has %d: %w",
			len(vector), s.dim, domain.ErrDimensionMismatch)
	}

	scored := make([]domain.ScoredChunk, 0, len(s.chunks))
	for _, c := range s.chunks {
		scored = append(scored, domain.ScoredChunk{
			Chunk: c,
			Score: cosineSimilarity(vector, c.Embedding),
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Chunk.ID < scored[j].Chunk.ID
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// Count returns the number of stored chunks.
func (s *Store) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

// Dimensions returns the declared embedding dimension.
func (s *Store) Dimensions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dim
}

// Persist is a no-op for the in-memory store.
func (s *Store) Persist(context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
