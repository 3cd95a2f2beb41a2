package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcode-ai/codeqa-cli/internal/adapters/driven/vectorstore/memory"
	"github.com/modelcode-ai/codeqa-cli/internal/core/domain"
	"github.com/modelcode-ai/codeqa-cli/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockExtractor implements driven.SourceExtractor over a fixed file set.
type mockExtractor struct {
	files   []domain.SourceFile
	errs    []error
	rootErr error
}

func (m *mockExtractor) Walk(ctx context.Context, _ string) (<-chan domain.SourceFile, <-chan error) {
	files := make(chan domain.SourceFile)
	errs := make(chan error, len(m.errs)+1)

	go func() {
		defer close(files)
		defer close(errs)

		if m.rootErr != nil {
			errs <- m.rootErr
			return
		}
		for _, err := range m.errs {
			errs <- err
		}
		for _, f := range m.files {
			select {
			case files <- f:
			case <-ctx.Done():
				return
			}
		}
	}()

	return files, errs
}

// mockEmbedding implements driven.EmbeddingService with a pluggable vector
// function so tests can control similarity and failure modes.
type mockEmbedding struct {
	embedFn     func(text string) []float32
	embedErr    error
	embedErrFor string // fail any text containing this substring
	batchErr    error  // fail EmbedBatch, leaving Embed working
	model       string
	calls       int
	batchCalls  int
}

func (m *mockEmbedding) vector(text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if m.embedErrFor != "" && strings.Contains(text, m.embedErrFor) {
		return nil, fmt.Errorf("embed failed for %q", m.embedErrFor)
	}
	if m.embedFn != nil {
		return m.embedFn(text), nil
	}
	return []float32{1, 0, 0}, nil
}

func (m *mockEmbedding) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls++
	return m.vector(text)
}

func (m *mockEmbedding) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.batchCalls++
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.vector(t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbedding) Dimensions() int { return 3 }

func (m *mockEmbedding) ModelName() string {
	if m.model == "" {
		return "mock-embed"
	}
	return m.model
}

func (m *mockEmbedding) Ping(context.Context) error { return nil }
func (m *mockEmbedding) Close() error               { return nil }

// mockLLM implements driven.LLMService with canned responses.
type mockLLM struct {
	explainErr   error
	answerErr    error
	answer       string
	explainCalls int
	answerCalls  int
	lastContext  string
}

func (m *mockLLM) Explain(_ context.Context, _, filePath string) (string, error) {
	m.explainCalls++
	if m.explainErr != nil {
		return "", m.explainErr
	}
	return fmt.Sprintf("Explains code in %s.", filePath), nil
}

func (m *mockLLM) Answer(_ context.Context, question, contextStr string) (string, error) {
	m.answerCalls++
	m.lastContext = contextStr
	if m.answerErr != nil {
		return "", m.answerErr
	}
	if m.answer != "" {
		return m.answer, nil
	}
	return "Answer to: " + question, nil
}

func (m *mockLLM) ModelName() string          { return "mock-llm" }
func (m *mockLLM) Ping(context.Context) error { return nil }
func (m *mockLLM) Close() error               { return nil }

// mockStoreFactory hands out in-memory stores. OpenStaging always returns a
// fresh store; the last persisted one is served as the committed store.
type mockStoreFactory struct {
	committed *memory.Store
	staged    *memory.Store
	exists    bool
}

func (m *mockStoreFactory) OpenStaging(string) (driven.VectorStore, error) {
	m.staged = memory.New()
	// The in-memory staging store is visible as committed once Build
	// persists it; flip eagerly since Persist is a no-op for memory.
	m.committed = m.staged
	m.exists = true
	return m.staged, nil
}

func (m *mockStoreFactory) OpenCommitted(string) (driven.VectorStore, error) {
	if m.committed == nil {
		return nil, domain.ErrIndexNotReady
	}
	return m.committed, nil
}

func (m *mockStoreFactory) Exists() bool { return m.exists }

// fixedStore adapts a single store to the provider interface.
type fixedStore struct {
	s driven.VectorStore
}

func (f fixedStore) Store() (driven.VectorStore, error) { return f.s, nil }
