package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChunkID_IsDeterministic(t *testing.T) {
	a := NewChunkID("app/models.py", 3, ChunkKindMethod)
	b := NewChunkID("app/models.py", 3, ChunkKindMethod)

	assert.Equal(t, a, b)
	_, err := uuid.Parse(a)
	assert.NoError(t, err)
}

func TestNewChunkID_VariesWithInputs(t *testing.T) {
	base := NewChunkID("app/models.py", 3, ChunkKindMethod)

	assert.NotEqual(t, base, NewChunkID("app/other.py", 3, ChunkKindMethod))
	assert.NotEqual(t, base, NewChunkID("app/models.py", 4, ChunkKindMethod))
	assert.NotEqual(t, base, NewChunkID("app/models.py", 3, ChunkKindFunction))
}

func TestChunkKind_IsValid(t *testing.T) {
	for _, kind := range []ChunkKind{ChunkKindModule, ChunkKindClass, ChunkKindFunction, ChunkKindMethod} {
		assert.True(t, kind.IsValid(), string(kind))
	}
	assert.False(t, ChunkKind("struct").IsValid())
	assert.False(t, ChunkKind("").IsValid())
}

func validChunk() Chunk {
	return Chunk{
		ID:        NewChunkID("app/models.py", 3, ChunkKindMethod),
		Kind:      ChunkKindMethod,
		Name:      "bar",
		Language:  LanguagePython,
		FilePath:  "app/models.py",
		StartLine: 3,
		EndLine:   5,
		Content:   "def bar(self):\n    return 42",
	}
}

func TestChunk_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Chunk)
		valid  bool
	}{
		{"valid chunk", func(*Chunk) {}, true},
		{"missing id", func(c *Chunk) { c.ID = "" }, false},
		{"unknown kind", func(c *Chunk) { c.Kind = "struct" }, false},
		{"missing file path", func(c *Chunk) { c.FilePath = "" }, false},
		{"zero start line", func(c *Chunk) { c.StartLine = 0 }, false},
		{"end before start", func(c *Chunk) { c.EndLine = c.StartLine - 1 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validChunk()
			tt.mutate(&c)
			err := c.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidChunk)
			}
		})
	}
}

func TestChunk_EmbeddingText(t *testing.T) {
	c := validChunk()
	c.Explanation = "Returns the bar value."

	text := c.EmbeddingText()

	assert.True(t, strings.HasPrefix(text, "File: app/models.py"))
	assert.Contains(t, text, "Explanation: Returns the bar value.")
	assert.Contains(t, text, "Code:\ndef bar(self):")
}

func TestChunk_EmbeddingText_EmptyExplanation(t *testing.T) {
	c := validChunk()

	text := c.EmbeddingText()

	// The explanation slot stays present so embedding input is reproducible.
	assert.Contains(t, text, "Explanation: \n")
	assert.Contains(t, text, "Code:\n")
}
