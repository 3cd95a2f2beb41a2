package services

import (
	"context"
	"fmt"

	"github.com/modelcode-ai/codeqa-cli/internal/core/domain"
	"github.com/modelcode-ai/codeqa-cli/internal/core/ports/driven"
	"github.com/modelcode-ai/codeqa-cli/internal/core/ports/driving"
	"github.com/modelcode-ai/codeqa-cli/internal/logger"
	"github.com/modelcode-ai/codeqa-cli/internal/retry"
)

// Ensure Service implements the interface.
var _ driving.QAService = (*Service)(nil)

// NoContextAnswer is returned when retrieval finds nothing to ground an
// answer on.
const NoContextAnswer = "I could not find relevant code context to answer your question."

// Service answers questions about the indexed codebase by retrieving
// supporting chunks and generating a grounded answer.
type Service struct {
	retriever driving.Retriever
	llm       driven.LLMService
	policy    retry.Policy
}

// NewQAService creates a question-answering service.
func NewQAService(retriever driving.Retriever, llm driven.LLMService, policy retry.Policy) *Service {
	return &Service{
		retriever: retriever,
		llm:       llm,
		policy:    policy,
	}
}

// AnswerQuestion retrieves context for the question and generates an answer.
// An empty retrieval produces the no-context answer, not an error.
func (s *Service) AnswerQuestion(ctx context.Context, question string) (domain.Answer, error) {
	retrieval, err := s.retriever.Retrieve(ctx, question, 0)
	if err != nil {
		return domain.Answer{}, err
	}

	if retrieval.Empty() {
		logger.Debug("No supporting context found for question")
		return domain.Answer{Text: NoContextAnswer, Retrieval: retrieval}, nil
	}

	var text string
	err = s.policy.Do(ctx, "answer", func(ctx context.Context) error {
		answer, err := s.llm.Answer(ctx, question, retrieval.Context)
		if err != nil {
			return err
		}
		text = answer
		return nil
	})
	if err != nil {
		return domain.Answer{}, fmt.Errorf("generate answer: %w", err)
	}

	return domain.Answer{Text: text, Retrieval: retrieval}, nil
}
