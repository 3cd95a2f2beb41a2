// Package extractor walks a repository root and streams the source files
// eligible for indexing, applying directory ignore patterns and the
// supported-extension filter.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modelcode-ai/codeqa-cli/internal/chunkers"
	"github.com/modelcode-ai/codeqa-cli/internal/core/domain"
	"github.com/modelcode-ai/codeqa-cli/internal/core/ports/driven"
)

// Ensure Extractor implements the port.
var _ driven.SourceExtractor = (*Extractor)(nil)

// DefaultIgnorePatterns are directory names excluded from the walk.
var DefaultIgnorePatterns = []string{
	".codeqa",
	".git",
	".hg",
	".svn",
	"__pycache__",
	".mypy_cache",
	".pytest_cache",
	".ruff_cache",
	"node_modules",
	".venv",
	"venv",
	"env",
	".tox",
	"build",
	"dist",
	".idea",
	".vscode",
	"vendor",
	".cache",
}

// maxFileSize bounds the files read into memory; larger files are skipped
// with a warning on the error channel.
const maxFileSize = 2 << 20 // 2 MiB

// Extractor streams source files under a root directory.
type Extractor struct {
	registry *chunkers.Registry
	ignored  map[string]struct{}
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithIgnorePatterns replaces the default ignored directory names.
func WithIgnorePatterns(patterns []string) Option {
	return func(e *Extractor) {
		e.ignored = make(map[string]struct{}, len(patterns))
		for _, p := range patterns {
			e.ignored[p] = struct{}{}
		}
	}
}

// New creates an extractor that recognizes the registry's languages.
func New(registry *chunkers.Registry, opts ...Option) *Extractor {
	e := &Extractor{registry: registry}
	WithIgnorePatterns(DefaultIgnorePatterns)(e)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Walk streams supported source files under root. Unreadable or oversized
// files are reported on the error channel and skipped. An inaccessible root
// yields a single error wrapping domain.ErrRootInaccessible.
func (e *Extractor) Walk(ctx context.Context, root string) (<-chan domain.SourceFile, <-chan error) {
	files := make(chan domain.SourceFile)
	errs := make(chan error, 1)

	go func() {
		defer close(files)
		defer close(errs)

		info, err := os.Stat(root)
		if err != nil {
			errs <- fmt.Errorf("stat %s: %w", root, domain.ErrRootInaccessible)
			return
		}
		if !info.IsDir() {
			errs <- fmt.Errorf("%s is not a directory: %w", root, domain.ErrRootInaccessible)
			return
		}

		walkErr := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err != nil {
				// A directory that disappeared or denied access mid-walk is
				// skipped, not fatal.
				if !sendErr(ctx, errs, fmt.Errorf("walk %s: %w", path, err)) {
					return ctx.Err()
				}
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				if path != root && e.skipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if !e.registry.Supports(path) {
				return nil
			}

			if fi, err := d.Info(); err == nil && fi.Size() > maxFileSize {
				if !sendErr(ctx, errs, fmt.Errorf("skipping %s: file exceeds %d bytes", path, maxFileSize)) {
					return ctx.Err()
				}
				return nil
			}

			content, err := os.ReadFile(path)
			if err != nil {
				if !sendErr(ctx, errs, fmt.Errorf("read %s: %w", path, err)) {
					return ctx.Err()
				}
				return nil
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				rel = path
			}
			rel = filepath.ToSlash(rel)

			file := domain.SourceFile{
				Path:     rel,
				Language: e.registry.LanguageForPath(path),
				Content:  string(content),
			}

			select {
			case files <- file:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		})
		if walkErr != nil && !errors.Is(walkErr, context.Canceled) && !errors.Is(walkErr, context.DeadlineExceeded) {
			sendErr(ctx, errs, fmt.Errorf("walk %s: %w", root, walkErr))
		}
	}()

	return files, errs
}

// sendErr delivers a walk error unless the consumer has cancelled, in which
// case the error is dropped and sendErr reports false.
func sendErr(ctx context.Context, errs chan<- error, err error) bool {
	select {
	case errs <- err:
		return true
	case <-ctx.Done():
		return false
	}
}

// skipDir reports whether a directory name matches the ignore set. Hidden
// directories outside the explicit set are still walked.
func (e *Extractor) skipDir(name string) bool {
	_, ok := e.ignored[name]
	return ok
}
