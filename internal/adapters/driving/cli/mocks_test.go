package cli

import (
	"context"

	"github.com/modelcode-ai/codeqa-cli/internal/core/domain"
	"github.com/modelcode-ai/codeqa-cli/internal/core/ports/driving"
)

// mockIndexer is a mock implementation of driving.Indexer.
type mockIndexer struct {
	stats     driving.IndexStats
	status    driving.IndexStatus
	buildErr  error
	loadErr   error
	statusErr error
	ready     bool

	buildCalls int
	lastForce  bool
	loadCalls  int
}

func (m *mockIndexer) Build(_ context.Context, force bool) (driving.IndexStats, error) {
	m.buildCalls++
	m.lastForce = force
	return m.stats, m.buildErr
}

func (m *mockIndexer) Load(_ context.Context) error {
	m.loadCalls++
	if m.loadErr != nil {
		return m.loadErr
	}
	m.ready = true
	return nil
}

func (m *mockIndexer) IsReady() bool {
	return m.ready
}

func (m *mockIndexer) Status(_ context.Context) (driving.IndexStatus, error) {
	return m.status, m.statusErr
}

// mockRetriever is a mock implementation of driving.Retriever.
type mockRetriever struct {
	result domain.RetrievalResult
	err    error

	lastQuery string
	lastK     int
}

func (m *mockRetriever) Retrieve(_ context.Context, query string, k int) (domain.RetrievalResult, error) {
	m.lastQuery = query
	m.lastK = k
	return m.result, m.err
}

// mockQAService is a mock implementation of driving.QAService.
type mockQAService struct {
	answer domain.Answer
	err    error

	lastQuestion string
}

func (m *mockQAService) AnswerQuestion(_ context.Context, question string) (domain.Answer, error) {
	m.lastQuestion = question
	return m.answer, m.err
}
