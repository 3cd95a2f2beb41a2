// Package openai provides an LLM service adapter using OpenAI API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/modelcode-ai/codeqa-cli/internal/core/domain"
	"github.com/modelcode-ai/codeqa-cli/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultLLMModel   = "gpt-4o-mini"
	DefaultLLMTimeout = 120 * time.Second

	explainMaxTokens = 300
	answerMaxTokens  = 1000
)

// LLMConfig holds configuration for the OpenAI LLM service.
type LLMConfig struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Can be changed for Azure OpenAI or compatible APIs.
	BaseURL string

	// Model is the LLM model to use (default: gpt-4o-mini).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// LLMService provides LLM operations using OpenAI API.
type LLMService struct {
	client      *http.Client
	baseURL     string
	apiKey      string
	model       string
	promptStore driven.PromptStore
}

// chatCompletionRequest is the OpenAI /chat/completions request format.
type chatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []chatCompletionMsg `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float64             `json:"temperature,omitempty"`
}

// chatCompletionMsg is the OpenAI chat message format.
type chatCompletionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionResponse is the OpenAI /chat/completions response format.
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewLLMService creates a new OpenAI LLM service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	return &LLMService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// Explain generates a natural-language explanation of a code chunk.
func (s *LLMService) Explain(ctx context.Context, code, filePath string) (string, error) {
	system := s.loadPrompt(driven.PromptExplainSystem, defaultExplainSystem)
	user := fmt.Sprintf(s.loadPrompt(driven.PromptExplainUser, defaultExplainUser), filePath, code)

	result, err := s.chatCompletion(ctx, system, user, explainMaxTokens)
	if err != nil {
		return "", fmt.Errorf("explain %s: %w", filePath, err)
	}
	return strings.TrimSpace(result), nil
}

// Answer generates an answer to a question grounded on the retrieved context.
func (s *LLMService) Answer(ctx context.Context, question, contextStr string) (string, error) {
	system := s.loadPrompt(driven.PromptAnswerSystem, defaultAnswerSystem)
	user := fmt.Sprintf(s.loadPrompt(driven.PromptAnswerUser, defaultAnswerUser), contextStr, question)

	result, err := s.chatCompletion(ctx, system, user, answerMaxTokens)
	if err != nil {
		return "", fmt.Errorf("answer question: %w", err)
	}
	return strings.TrimSpace(result), nil
}

// chatCompletion sends a system+user exchange and returns the first choice.
func (s *LLMService) chatCompletion(ctx context.Context, system, user string, maxTokens int) (string, error) {
	reqBody := chatCompletionRequest{
		Model: s.model,
		Messages: []chatCompletionMsg{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens: maxTokens,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/chat/completions",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", domain.NewCollaboratorError("openai chat", true, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.NewCollaboratorError("openai chat", true,
			fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		transient := resp.StatusCode == http.StatusTooManyRequests ||
			resp.StatusCode >= http.StatusInternalServerError
		return "", domain.NewCollaboratorError("openai chat", transient,
			fmt.Errorf("status %d: %s", resp.StatusCode, string(body)))
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", domain.NewCollaboratorError("openai chat", false,
			fmt.Errorf("decode response: %w", err))
	}
	if chatResp.Error != nil {
		return "", domain.NewCollaboratorError("openai chat", false,
			errors.New(chatResp.Error.Message))
	}
	if len(chatResp.Choices) == 0 {
		return "", domain.NewCollaboratorError("openai chat", false,
			errors.New("no response choices returned"))
	}

	return chatResp.Choices[0].Message.Content, nil
}

// Fallback prompts used when no PromptStore is configured.
const (
	defaultExplainSystem = `Your task is to generate clear, concise explanations of code snippets.
Explain the code's purpose and functionality in 100-250 words depending on complexity.
Focus only on explaining functionality and purpose; avoid suggesting improvements
or commenting on code quality. Prioritize information from docstrings and
important comments without direct quoting.`

	defaultExplainUser = `Explain the following code snippet from the file '%s'.

<CODE>
%s
</CODE>`

	defaultAnswerSystem = `You are an assistant that answers questions about a codebase using only the
provided reference context. Begin with a clear, direct answer, support it with
information from the context, and acknowledge when something is not covered.
Provide a complete answer in a single step; do not suggest follow-up questions.
If you are unsure, say "I don't know" rather than guessing.`

	defaultAnswerUser = `<CONTEXT>
%s
</CONTEXT>

Query: %s

Answer based solely on the query and the given context items.`
)

// loadPrompt loads a prompt from the store, falling back to the default if unavailable.
func (s *LLMService) loadPrompt(name, fallback string) string {
	if s.promptStore == nil {
		return fallback
	}
	prompt, err := s.promptStore.Load(name)
	if err != nil {
		return fallback
	}
	return prompt
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// SetPromptStore sets the prompt store for loading customisable prompts.
// If not set, the service uses hardcoded default prompts.
func (s *LLMService) SetPromptStore(store driven.PromptStore) {
	s.promptStore = store
}

// Ping validates the service is reachable by checking the /models endpoint.
// This is a lightweight check that validates the API key without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("openai: failed to create ping request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrLLMUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("openai: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("%w: status %d: %s", domain.ErrLLMUnavailable, resp.StatusCode, string(body))
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
