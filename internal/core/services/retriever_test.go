package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelcode-ai/codeqa-cli/internal/adapters/driven/vectorstore/memory"
	"github.com/modelcode-ai/codeqa-cli/internal/core/domain"
)

// directionalEmbedder maps texts mentioning "bar" and "helper" to distinct
// directions so retrieval ordering is deterministic.
func directionalEmbedder() *mockEmbedding {
	return &mockEmbedding{embedFn: func(text string) []float32 {
		switch {
		case strings.Contains(text, "bar"):
			return []float32{1, 0, 0}
		case strings.Contains(text, "helper"):
			return []float32{0, 1, 0}
		default:
			return []float32{0, 0, 1}
		}
	}}
}

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.New()

	bar := domain.Chunk{
		ID:          domain.NewChunkID("app/service.py", 2, domain.ChunkKindMethod),
		Kind:        domain.ChunkKindMethod,
		Name:        "bar",
		Language:    domain.LanguagePython,
		FilePath:    "app/service.py",
		StartLine:   2,
		EndLine:     3,
		Content:     "def bar(self):\n    return 1",
		Explanation: "Returns the constant one.",
		Embedding:   []float32{1, 0, 0},
	}
	helper := domain.Chunk{
		ID:        domain.NewChunkID("app/util.py", 1, domain.ChunkKindFunction),
		Kind:      domain.ChunkKindFunction,
		Name:      "helper",
		Language:  domain.LanguagePython,
		FilePath:  "app/util.py",
		StartLine: 1,
		EndLine:   2,
		Content:   "def helper():\n    return 2",
		Embedding: []float32{0, 1, 0},
	}
	require.NoError(t, store.Upsert(context.Background(), []domain.Chunk{bar, helper}))
	return store
}

func TestRetrieve_ReturnsMostRelevantChunk(t *testing.T) {
	r := NewRetrieverService(fixedStore{seededStore(t)}, directionalEmbedder(), fastPolicy(), 5)

	result, err := r.Retrieve(context.Background(), "what does bar do?", 1)
	require.NoError(t, err)
	require.Len(t, result.Chunks, 1)
	assert.Equal(t, "bar", result.Chunks[0].Chunk.Name)
	assert.False(t, result.Empty())
}

func TestRetrieve_AssemblesContext(t *testing.T) {
	r := NewRetrieverService(fixedStore{seededStore(t)}, directionalEmbedder(), fastPolicy(), 5)

	result, err := r.Retrieve(context.Background(), "what does bar do?", 2)
	require.NoError(t, err)

	assert.Contains(t, result.Context, "<ITEM id=")
	assert.Contains(t, result.Context, "<FILE_PATH>app/service.py</FILE_PATH>")
	assert.Contains(t, result.Context, "<TYPE>method</TYPE>")
	assert.Contains(t, result.Context, "<NAME>bar</NAME>")
	assert.Contains(t, result.Context, "<EXPLAIN>Returns the constant one.</EXPLAIN>")
	assert.Contains(t, result.Context, "def bar(self):")
	// The helper chunk has no explanation, so its item omits the tag.
	assert.Equal(t, 1, strings.Count(result.Context, "<EXPLAIN>"))
}

func TestRetrieve_DefaultKWhenNonPositive(t *testing.T) {
	r := NewRetrieverService(fixedStore{seededStore(t)}, directionalEmbedder(), fastPolicy(), 1)

	result, err := r.Retrieve(context.Background(), "what does bar do?", 0)
	require.NoError(t, err)
	assert.Len(t, result.Chunks, 1)
}

func TestRetrieve_EmptyIndex(t *testing.T) {
	r := NewRetrieverService(fixedStore{memory.New()}, directionalEmbedder(), fastPolicy(), 5)

	result, err := r.Retrieve(context.Background(), "anything?", 5)
	require.NoError(t, err)
	assert.True(t, result.Empty())
	assert.Empty(t, result.Context)
}

func TestRetrieve_EmptyQuestion(t *testing.T) {
	r := NewRetrieverService(fixedStore{seededStore(t)}, directionalEmbedder(), fastPolicy(), 5)

	_, err := r.Retrieve(context.Background(), "   ", 5)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRetrieve_DimensionMismatch(t *testing.T) {
	wrongDim := &mockEmbedding{embedFn: func(string) []float32 {
		return []float32{1, 0}
	}}
	r := NewRetrieverService(fixedStore{seededStore(t)}, wrongDim, fastPolicy(), 5)

	_, err := r.Retrieve(context.Background(), "what does bar do?", 5)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestFormatContext_Empty(t *testing.T) {
	assert.Empty(t, FormatContext(nil))
}
