// Package chunkers wires the per-language structural chunkers behind a
// single dispatch point keyed by language tag and file extension.
package chunkers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/modelcode-ai/codeqa-cli/internal/chunkers/golang"
	"github.com/modelcode-ai/codeqa-cli/internal/chunkers/markdown"
	"github.com/modelcode-ai/codeqa-cli/internal/chunkers/python"
	"github.com/modelcode-ai/codeqa-cli/internal/core/domain"
	"github.com/modelcode-ai/codeqa-cli/internal/core/ports/driven"
)

// Registry resolves source files to the chunker for their language.
type Registry struct {
	byLanguage  map[string]driven.Chunker
	byExtension map[string]driven.Chunker
}

// NewRegistry builds a registry over the given chunkers. Later chunkers win
// on language or extension collisions.
func NewRegistry(chunkers ...driven.Chunker) *Registry {
	r := &Registry{
		byLanguage:  make(map[string]driven.Chunker),
		byExtension: make(map[string]driven.Chunker),
	}
	for _, c := range chunkers {
		r.byLanguage[c.Language()] = c
		for _, ext := range c.Extensions() {
			r.byExtension[strings.ToLower(ext)] = c
		}
	}
	return r
}

// Default returns a registry with all built-in chunkers.
func Default() *Registry {
	return NewRegistry(python.New(), golang.New(), markdown.New())
}

// ForLanguage returns the chunker registered for the language tag.
func (r *Registry) ForLanguage(language string) (driven.Chunker, error) {
	c, ok := r.byLanguage[language]
	if !ok {
		return nil, fmt.Errorf("language %q: %w", language, domain.ErrUnsupportedLanguage)
	}
	return c, nil
}

// ForPath returns the chunker for a file path based on its extension.
func (r *Registry) ForPath(path string) (driven.Chunker, error) {
	ext := strings.ToLower(filepath.Ext(path))
	c, ok := r.byExtension[ext]
	if !ok {
		return nil, fmt.Errorf("extension %q: %w", ext, domain.ErrUnsupportedLanguage)
	}
	return c, nil
}

// Supports reports whether any registered chunker handles the path.
func (r *Registry) Supports(path string) bool {
	_, ok := r.byExtension[strings.ToLower(filepath.Ext(path))]
	return ok
}

// LanguageForPath maps a path to its language tag, or "" when unsupported.
func (r *Registry) LanguageForPath(path string) string {
	c, ok := r.byExtension[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return ""
	}
	return c.Language()
}

// Chunk dispatches the file to its language chunker.
func (r *Registry) Chunk(file domain.SourceFile) ([]domain.Chunk, error) {
	c, err := r.ForLanguage(file.Language)
	if err != nil {
		return nil, err
	}
	return c.Chunk(file)
}
