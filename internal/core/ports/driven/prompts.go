package driven

// Prompt template names.
const (
	// PromptExplainSystem is the system prompt for chunk explanation.
	PromptExplainSystem = "explain_system"

	// PromptExplainUser is the user prompt template for chunk explanation.
	// Takes the file path and the code snippet.
	PromptExplainUser = "explain_user"

	// PromptAnswerSystem is the system prompt for grounded answering.
	PromptAnswerSystem = "answer_system"

	// PromptAnswerUser is the user prompt template for grounded answering.
	// Takes the assembled context and the question.
	PromptAnswerUser = "answer_user"
)

// PromptStore loads prompt templates by name.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)
}
