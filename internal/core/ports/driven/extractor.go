package driven

import (
	"context"

	"github.com/modelcode-ai/codeqa-cli/internal/core/domain"
)

// SourceExtractor walks a repository root and yields candidate source files.
// The walk is finite and not restartable; a fresh call re-walks.
type SourceExtractor interface {
	// Walk streams source files filtered by the language allowlist, skipping
	// configured ignore patterns. Individual unreadable files are reported on
	// the error channel and skipped; an inaccessible root yields a single
	// error wrapping domain.ErrRootInaccessible and closes both channels.
	Walk(ctx context.Context, root string) (<-chan domain.SourceFile, <-chan error)
}
