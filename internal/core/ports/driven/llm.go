package driven

import "context"

// LLMService provides the generation collaborator operations. Adapters wrap
// failures in domain.CollaboratorError so callers can distinguish transient
// from fatal ones.
//
// Implementations may include:
//   - OpenAI (GPT-4 family)
//   - Anthropic (Claude)
//   - Ollama (local models)
type LLMService interface {
	// Explain generates a natural-language explanation of a code chunk.
	Explain(ctx context.Context, code, filePath string) (string, error)

	// Answer generates an answer to a question grounded on the retrieved
	// context string.
	Answer(ctx context.Context, question, context string) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
