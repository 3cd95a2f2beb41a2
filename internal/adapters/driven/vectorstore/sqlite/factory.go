package sqlite

import (
	"fmt"

	"github.com/modelcode-ai/codeqa-cli/internal/core/domain"
	"github.com/modelcode-ai/codeqa-cli/internal/core/ports/driven"
)

// Ensure Factory implements the port.
var _ driven.VectorStoreFactory = (*Factory)(nil)

// Factory opens SQLite vector stores at a fixed path.
type Factory struct {
	path string
}

// NewFactory creates a factory for the index at path.
func NewFactory(path string) *Factory {
	return &Factory{path: path}
}

// OpenStaging opens a staging store for a rebuild.
func (f *Factory) OpenStaging(model string) (driven.VectorStore, error) {
	return Open(f.path, Options{Staging: true, Model: model})
}

// OpenCommitted opens the committed index for querying.
func (f *Factory) OpenCommitted(model string) (driven.VectorStore, error) {
	if !Exists(f.path) {
		return nil, fmt.Errorf("no index at %s: %w", f.path, domain.ErrIndexNotReady)
	}
	return Open(f.path, Options{Model: model})
}

// Exists reports whether a committed index is present.
func (f *Factory) Exists() bool {
	return Exists(f.path)
}

// Path returns the index location.
func (f *Factory) Path() string {
	return f.path
}
