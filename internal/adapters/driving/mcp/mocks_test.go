package mcp

import (
	"context"

	"github.com/modelcode-ai/codeqa-cli/internal/core/domain"
	"github.com/modelcode-ai/codeqa-cli/internal/core/ports/driving"
)

// mockQAService is a mock implementation of driving.QAService.
type mockQAService struct {
	answer       domain.Answer
	err          error
	lastQuestion string
}

func (m *mockQAService) AnswerQuestion(_ context.Context, question string) (domain.Answer, error) {
	m.lastQuestion = question
	return m.answer, m.err
}

// mockRetriever is a mock implementation of driving.Retriever.
type mockRetriever struct {
	result domain.RetrievalResult
	err    error
	lastK  int
}

func (m *mockRetriever) Retrieve(_ context.Context, _ string, k int) (domain.RetrievalResult, error) {
	m.lastK = k
	return m.result, m.err
}

// mockIndexer is a mock implementation of driving.Indexer.
type mockIndexer struct {
	stats  driving.IndexStats
	status driving.IndexStatus
	err    error
	ready  bool
}

func (m *mockIndexer) Build(_ context.Context, _ bool) (driving.IndexStats, error) {
	return m.stats, m.err
}

func (m *mockIndexer) Load(_ context.Context) error {
	return m.err
}

func (m *mockIndexer) IsReady() bool {
	return m.ready
}

func (m *mockIndexer) Status(_ context.Context) (driving.IndexStatus, error) {
	return m.status, m.err
}
