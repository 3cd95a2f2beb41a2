package python

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelcode-ai/codeqa-cli/internal/core/domain"
)

func chunkSource(t *testing.T, src string) []domain.Chunk {
	t.Helper()
	chunks, err := New().Chunk(domain.SourceFile{
		Path:     "pkg/sample.py",
		Language: domain.LanguagePython,
		Content:  src,
	})
	require.NoError(t, err)
	return chunks
}

func byName(chunks []domain.Chunk, name string) *domain.Chunk {
	for i := range chunks {
		if chunks[i].Name == name {
			return &chunks[i]
		}
	}
	return nil
}

func TestChunk_EmptyFile(t *testing.T) {
	chunks := chunkSource(t, "")
	assert.Empty(t, chunks)

	chunks = chunkSource(t, "\n\n   \n")
	assert.Empty(t, chunks)
}

func TestChunk_ClassWithMethod(t *testing.T) {
	src := `class Foo:
    def bar(self):
        return 1
`
	chunks := chunkSource(t, src)
	require.Len(t, chunks, 2)

	foo := byName(chunks, "Foo")
	require.NotNil(t, foo)
	assert.Equal(t, domain.ChunkKindClass, foo.Kind)
	assert.Equal(t, 1, foo.StartLine)
	assert.Equal(t, 3, foo.EndLine)
	assert.Empty(t, foo.ParentID)

	bar := byName(chunks, "bar")
	require.NotNil(t, bar)
	assert.Equal(t, domain.ChunkKindMethod, bar.Kind)
	assert.Equal(t, 2, bar.StartLine)
	assert.Equal(t, 3, bar.EndLine)
	assert.Equal(t, foo.ID, bar.ParentID)

	// The class body legitimately contains the method body.
	assert.Contains(t, foo.Content, "def bar")
	assert.Contains(t, bar.Content, "return 1")
}

func TestChunk_TopLevelFunction(t *testing.T) {
	src := `def add(a, b):
    """Add two numbers."""
    return a + b
`
	chunks := chunkSource(t, src)
	require.Len(t, chunks, 1)
	assert.Equal(t, domain.ChunkKindFunction, chunks[0].Kind)
	assert.Equal(t, "add", chunks[0].Name)
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 3, chunks[0].EndLine)
}

func TestChunk_ModuleOnlyFile(t *testing.T) {
	src := `import os

CONFIG = {"debug": True}
print(CONFIG)
`
	chunks := chunkSource(t, src)
	require.Len(t, chunks, 1)
	assert.Equal(t, domain.ChunkKindModule, chunks[0].Kind)
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, chunks[0].Content, src)
}

func TestChunk_MixedModuleAndDeclarations(t *testing.T) {
	src := `import sys

def main():
    print(sys.argv)

main()
`
	chunks := chunkSource(t, src)
	require.Len(t, chunks, 2)

	assert.Equal(t, domain.ChunkKindModule, chunks[0].Kind)
	assert.Equal(t, domain.ChunkKindFunction, chunks[1].Kind)
	assert.Equal(t, "main", chunks[1].Name)
	assert.Equal(t, 3, chunks[1].StartLine)
	assert.Equal(t, 4, chunks[1].EndLine)
}

func TestChunk_NestedFunctionParentIsImmediate(t *testing.T) {
	src := `class Outer:
    def method(self):
        def helper():
            return 2
        return helper()
`
	chunks := chunkSource(t, src)
	require.Len(t, chunks, 3)

	outer := byName(chunks, "Outer")
	method := byName(chunks, "method")
	helper := byName(chunks, "helper")
	require.NotNil(t, outer)
	require.NotNil(t, method)
	require.NotNil(t, helper)

	assert.Equal(t, domain.ChunkKindMethod, method.Kind)
	assert.Equal(t, outer.ID, method.ParentID)

	// helper is nested in a function, not a class: function kind, and its
	// parent is the immediately enclosing method, never the module or class.
	assert.Equal(t, domain.ChunkKindFunction, helper.Kind)
	assert.Equal(t, method.ID, helper.ParentID)
}

func TestChunk_SingleLineClassWithInlineMethod(t *testing.T) {
	src := "class Foo: def bar(self): return 1\n"

	chunks := chunkSource(t, src)
	require.Len(t, chunks, 2)

	foo := byName(chunks, "Foo")
	bar := byName(chunks, "bar")
	require.NotNil(t, foo)
	require.NotNil(t, bar)

	// Class and method share identical start lines; identity stays unique
	// because the chunk kind participates in ID derivation.
	assert.Equal(t, domain.ChunkKindClass, foo.Kind)
	assert.Equal(t, domain.ChunkKindMethod, bar.Kind)
	assert.Equal(t, foo.StartLine, bar.StartLine)
	assert.NotEqual(t, foo.ID, bar.ID)
	assert.Equal(t, foo.ID, bar.ParentID)
}

func TestChunk_TripleQuotedStringWithDefInside(t *testing.T) {
	src := `TEMPLATE = """
def not_a_real_function():
    pass
"""

def real():
    return TEMPLATE
`
	chunks := chunkSource(t, src)

	require.NotNil(t, byName(chunks, "real"))
	assert.Nil(t, byName(chunks, "not_a_real_function"))
}

func TestChunk_BracketContinuationDoesNotSplit(t *testing.T) {
	src := `def configure(
    host,
    port,
):
    return (host, port)
`
	chunks := chunkSource(t, src)
	require.Len(t, chunks, 1)
	assert.Equal(t, "configure", chunks[0].Name)
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 5, chunks[0].EndLine)
}

func TestChunk_DecoratedFunctionIncludesDecorator(t *testing.T) {
	src := `@cached
def slow():
    return 42
`
	chunks := chunkSource(t, src)
	require.Len(t, chunks, 1)
	assert.Equal(t, domain.ChunkKindFunction, chunks[0].Kind)
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Contains(t, chunks[0].Content, "@cached")
}

func TestChunk_UnterminatedStringIsParseError(t *testing.T) {
	_, err := New().Chunk(domain.SourceFile{
		Path:    "pkg/broken.py",
		Content: "x = '''\nnever closed\n",
	})
	require.ErrorIs(t, err, domain.ErrParse)
}

func TestChunk_UnbalancedBracketsIsParseError(t *testing.T) {
	_, err := New().Chunk(domain.SourceFile{
		Path:    "pkg/broken.py",
		Content: "def f(:\n    pass\n)))\n",
	})
	require.ErrorIs(t, err, domain.ErrParse)
}

func TestChunk_DeterministicIDs(t *testing.T) {
	src := `class Foo:
    def bar(self):
        return 1
`
	first := chunkSource(t, src)
	second := chunkSource(t, src)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}

func TestChunk_InvariantsHold(t *testing.T) {
	src := `import os

class A:
    X = 1

    def m(self):
        return self.X

def f():
    pass
`
	chunks := chunkSource(t, src)
	seen := map[string]bool{}
	for i := range chunks {
		require.NoError(t, chunks[i].Validate())
		assert.False(t, seen[chunks[i].ID], "duplicate chunk id %s", chunks[i].ID)
		seen[chunks[i].ID] = true
	}

	// Every method's parent must be a class chunk in the same file.
	for i := range chunks {
		if chunks[i].Kind != domain.ChunkKindMethod {
			continue
		}
		require.NotEmpty(t, chunks[i].ParentID)
		assert.True(t, seen[chunks[i].ParentID])
	}
}
