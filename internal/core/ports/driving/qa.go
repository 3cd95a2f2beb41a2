package driving

import (
	"context"

	"github.com/modelcode-ai/codeqa-cli/internal/core/domain"
)

// Retriever resolves a question into a ranked set of supporting chunks.
type Retriever interface {
	// Retrieve embeds the question, queries the vector store for the top k
	// chunks and assembles the context string. k <= 0 uses the configured
	// default. An empty index yields an empty RetrievalResult, not an error.
	Retrieve(ctx context.Context, question string, k int) (domain.RetrievalResult, error)
}

// QAService answers natural-language questions about the indexed codebase.
// This is the query entry point consumed by outer layers (CLI, MCP, HTTP).
type QAService interface {
	// AnswerQuestion retrieves context for the question and generates an
	// answer. A question against an empty index returns a response stating
	// that no supporting context was found rather than an error.
	AnswerQuestion(ctx context.Context, question string) (domain.Answer, error)
}
