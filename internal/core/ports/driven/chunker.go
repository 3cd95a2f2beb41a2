package driven

import "github.com/modelcode-ai/codeqa-cli/internal/core/domain"

// Chunker parses one source file into structural chunks. Each supported
// language registers its own implementation; dispatch is by language tag,
// never by sniffing file content.
type Chunker interface {
	// Language returns the language tag this chunker handles.
	Language() string

	// Extensions returns the file extensions (with leading dot, lower case)
	// mapped to this chunker's language.
	Extensions() []string

	// Chunk parses the file and returns its chunks in source order, metadata
	// only: no explanation or embedding yet. A file that cannot be parsed
	// returns an error wrapping domain.ErrParse and no chunks; an empty file
	// returns no chunks and no error.
	Chunk(file domain.SourceFile) ([]domain.Chunk, error)
}

// ChunkDispatcher routes a source file to the chunker for its language.
// Unsupported languages fail with domain.ErrUnsupportedLanguage.
type ChunkDispatcher interface {
	Chunk(file domain.SourceFile) ([]domain.Chunk, error)
}
