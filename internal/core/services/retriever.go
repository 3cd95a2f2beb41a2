package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcode-ai/codeqa-cli/internal/core/domain"
	"github.com/modelcode-ai/codeqa-cli/internal/core/ports/driven"
	"github.com/modelcode-ai/codeqa-cli/internal/core/ports/driving"
	"github.com/modelcode-ai/codeqa-cli/internal/logger"
	"github.com/modelcode-ai/codeqa-cli/internal/retry"
)

// Ensure RetrieverService implements the interface.
var _ driving.Retriever = (*RetrieverService)(nil)

// DefaultTopK is the number of chunks retrieved when the caller passes k <= 0.
const DefaultTopK = 5

// RetrieverService embeds questions and resolves them against the vector
// store into ranked chunks plus an assembled context string. The store is
// resolved per call so an index swap by a concurrent rebuild is picked up.
type RetrieverService struct {
	stores   driven.StoreProvider
	embedder driven.EmbeddingService
	policy   retry.Policy
	topK     int
}

// NewRetrieverService creates a retriever over a store provider, typically
// the indexer that built or loaded the index.
func NewRetrieverService(
	stores driven.StoreProvider,
	embedder driven.EmbeddingService,
	policy retry.Policy,
	topK int,
) *RetrieverService {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &RetrieverService{
		stores:   stores,
		embedder: embedder,
		policy:   policy,
		topK:     topK,
	}
}

// Retrieve embeds the question, queries the store and assembles the context.
// An empty index yields an empty result without error.
func (s *RetrieverService) Retrieve(ctx context.Context, question string, k int) (domain.RetrievalResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.RetrievalResult{}, fmt.Errorf("question is empty: %w", domain.ErrInvalidInput)
	}
	if k <= 0 {
		k = s.topK
	}

	store, err := s.stores.Store()
	if err != nil {
		return domain.RetrievalResult{}, err
	}

	count, err := store.Count(ctx)
	if err != nil {
		return domain.RetrievalResult{}, fmt.Errorf("inspect index: %w", err)
	}
	if count == 0 {
		logger.Debug("Index is empty, returning no context")
		return domain.RetrievalResult{}, nil
	}

	var vector []float32
	err = s.policy.Do(ctx, "embed question", func(ctx context.Context) error {
		v, err := s.embedder.Embed(ctx, question)
		if err != nil {
			return err
		}
		vector = v
		return nil
	})
	if err != nil {
		return domain.RetrievalResult{}, fmt.Errorf("embed question: %w", err)
	}

	if dim := store.Dimensions(); dim != 0 && len(vector) != dim {
		return domain.RetrievalResult{}, fmt.Errorf(
			"question embedding has dimension %d, index has %d (was the index built with a different model?): %w",
			len(vector), dim, domain.ErrDimensionMismatch)
	}

	scored, err := store.Query(ctx, vector, k)
	if err != nil {
		return domain.RetrievalResult{}, fmt.Errorf("query index: %w", err)
	}

	logger.Debug("Retrieved %d chunks for question", len(scored))
	return domain.RetrievalResult{
		Chunks:  scored,
		Context: FormatContext(scored),
	}, nil
}

// FormatContext renders retrieved chunks as the tagged item blocks consumed
// by the answer prompt.
func FormatContext(chunks []domain.ScoredChunk) string {
	var sb strings.Builder
	for _, sc := range chunks {
		c := sc.Chunk
		sb.WriteString(fmt.Sprintf("\n<ITEM id=%q>\n", c.ID))
		sb.WriteString(fmt.Sprintf("<FILE_PATH>%s</FILE_PATH>\n", c.FilePath))
		sb.WriteString(fmt.Sprintf("<TYPE>%s</TYPE>\n", c.Kind))
		if c.Name != "" {
			sb.WriteString(fmt.Sprintf("<NAME>%s</NAME>\n", c.Name))
		}
		if c.Explanation != "" {
			sb.WriteString(fmt.Sprintf("<EXPLAIN>%s</EXPLAIN>\n", c.Explanation))
		}
		sb.WriteString(fmt.Sprintf("<CONTENT>\n%s\n</CONTENT>\n", c.Content))
		sb.WriteString("</ITEM>\n")
	}
	return strings.TrimSpace(sb.String())
}
