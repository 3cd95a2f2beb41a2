package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelcode-ai/codeqa-cli/internal/core/domain"
)

func mdFile(content string) domain.SourceFile {
	return domain.SourceFile{
		Path:     "docs/guide.md",
		Language: domain.LanguageMarkdown,
		Content:  content,
	}
}

func TestChunk_EmptyFile(t *testing.T) {
	chunks, err := New().Chunk(mdFile(""))
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunk_NoHeaders(t *testing.T) {
	chunks, err := New().Chunk(mdFile("just some prose\nwithout any headers\n"))
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunk_SingleSection(t *testing.T) {
	src := "# Overview\n\nThis tool indexes code.\n"
	chunks, err := New().Chunk(mdFile(src))
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	sec := chunks[0]
	assert.Equal(t, domain.ChunkKindModule, sec.Kind)
	assert.Equal(t, "Overview", sec.Name)
	assert.Equal(t, 1, sec.StartLine)
	assert.Equal(t, 3, sec.EndLine)
	assert.Empty(t, sec.ParentID)
	assert.Contains(t, sec.Content, "indexes code")
}

func TestChunk_NestedHeadersAreParented(t *testing.T) {
	src := "# Guide\n\nintro text\n\n## Install\n\nrun the installer\n\n## Usage\n\nrun the tool\n"
	chunks, err := New().Chunk(mdFile(src))
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	guide := chunks[0]
	install := chunks[1]
	usage := chunks[2]

	assert.Equal(t, "Guide", guide.Name)
	assert.Empty(t, guide.ParentID)
	// Guide's body ends before its first child.
	assert.Equal(t, 3, guide.EndLine)

	assert.Equal(t, "Install", install.Name)
	assert.Equal(t, guide.ID, install.ParentID)

	assert.Equal(t, "Usage", usage.Name)
	assert.Equal(t, guide.ID, usage.ParentID)
}

func TestChunk_HeaderOnlySectionSkipped(t *testing.T) {
	src := "# Empty\n## Full\n\nsome content\n"
	chunks, err := New().Chunk(mdFile(src))
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	assert.Equal(t, "Full", chunks[0].Name)
	// The skipped parent leaves the child unparented.
	assert.Empty(t, chunks[0].ParentID)
}

func TestChunk_FencedCodeBlockDoesNotSplitSection(t *testing.T) {
	src := "# Example\n\n```python\n# not a header\ndef f():\n    pass\n```\n\ntrailing prose\n"
	chunks, err := New().Chunk(mdFile(src))
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	sec := chunks[0]
	assert.Equal(t, "Example", sec.Name)
	assert.Equal(t, 9, sec.EndLine)
	assert.Contains(t, sec.Content, "def f():")
}

func TestChunk_DeterministicIDs(t *testing.T) {
	src := "# One\n\nbody\n\n# Two\n\nbody\n"
	first, err := New().Chunk(mdFile(src))
	require.NoError(t, err)
	second, err := New().Chunk(mdFile(src))
	require.NoError(t, err)

	require.Len(t, first, 2)
	require.Len(t, second, 2)
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
	assert.NotEqual(t, first[0].ID, first[1].ID)
}

func TestChunk_ChunksAreValid(t *testing.T) {
	src := "# Top\n\ntext\n\n## Inner\n\nmore text\n"
	chunks, err := New().Chunk(mdFile(src))
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		assert.NoError(t, ch.Validate())
	}
}
