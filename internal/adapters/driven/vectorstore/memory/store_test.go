package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelcode-ai/codeqa-cli/internal/core/domain"
)

func chunkWith(name string, embedding []float32) domain.Chunk {
	path := "pkg/" + name + ".py"
	return domain.Chunk{
		ID:        domain.NewChunkID(path, 1, domain.ChunkKindFunction),
		Kind:      domain.ChunkKindFunction,
		Name:      name,
		Language:  domain.LanguagePython,
		FilePath:  path,
		StartLine: 1,
		EndLine:   2,
		Content:   "def " + name + "(): pass",
		Embedding: embedding,
	}
}

func TestStore_UpsertAndQuery(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Upsert(ctx, []domain.Chunk{
		chunkWith("alpha", []float32{1, 0}),
		chunkWith("beta", []float32{0, 1}),
	}))

	results, err := s.Query(ctx, []float32{1, 0.1}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "alpha", results[0].Chunk.Name)
}

func TestStore_UpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := New()

	c := chunkWith("alpha", []float32{1, 0})
	require.NoError(t, s.Upsert(ctx, []domain.Chunk{c}))
	require.NoError(t, s.Upsert(ctx, []domain.Chunk{c}))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStore_EmptyQuery(t *testing.T) {
	results, err := New().Query(context.Background(), []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStore_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Upsert(ctx, []domain.Chunk{chunkWith("alpha", []float32{1, 0, 0})}))

	_, err := s.Query(ctx, []float32{1, 0}, 1)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	err = s.Upsert(ctx, []domain.Chunk{chunkWith("beta", []float32{1})})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestStore_TiesBreakByAscendingID(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Upsert(ctx, []domain.Chunk{
		chunkWith("one", []float32{1, 0}),
		chunkWith("two", []float32{2, 0}),
	}))

	results, err := s.Query(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Less(t, results[0].Chunk.ID, results[1].Chunk.ID)
}
