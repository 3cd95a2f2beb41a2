// Package anthropic provides an LLM service adapter using Anthropic API.
package anthropic

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
	DefaultBaseURL = "https://api.anthropic.com"
	DefaultModel   = "claude-3-5-sonnet-latest"
	DefaultTimeout = 120 * time.Second

	// AnthropicVersion is the required API version header.
	anthropicVersion = "2023-06-01"

	explainMaxTokens = 300
	answerMaxTokens  = 1000
)

// Config holds configuration for the Anthropic LLM service.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.anthropic.com).
	BaseURL string

	// Model is the LLM model to use (default: claude-3-5-sonnet-latest).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// LLMService provides LLM operations using Anthropic API.
type LLMService struct {
	client      *http.Client
	baseURL     string
	apiKey      string
	model       string
	promptStore driven.PromptStore
}

// messagesRequest is the Anthropic /v1/messages request format.
type messagesRequest struct {
	Model     string            `json:"model"`
	Messages  []messagesMessage `json:"messages"`
	MaxTokens int               `json:"max_tokens"`
	System    string            `json:"system,omitempty"`
}

// messagesMessage is the Anthropic message format.
type messagesMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messagesResponse is the Anthropic /v1/messages response format.
type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewLLMService creates a new Anthropic LLM service.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
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

	result, err := s.message(ctx, system, user, explainMaxTokens)
	if err != nil {
		return "", fmt.Errorf("explain %s: %w", filePath, err)
	}
	return strings.TrimSpace(result), nil
}

// Answer generates an answer to a question grounded on the retrieved context.
func (s *LLMService) Answer(ctx context.Context, question, contextStr string) (string, error) {
	system := s.loadPrompt(driven.PromptAnswerSystem, defaultAnswerSystem)
	user := fmt.Sprintf(s.loadPrompt(driven.PromptAnswerUser, defaultAnswerUser), contextStr, question)

	result, err := s.message(ctx, system, user, answerMaxTokens)
	if err != nil {
		return "", fmt.Errorf("answer question: %w", err)
	}
	return strings.TrimSpace(result), nil
}

// message sends a single-turn exchange and returns the concatenated text blocks.
func (s *LLMService) message(ctx context.Context, system, user string, maxTokens int) (string, error) {
	reqBody := messagesRequest{
		Model:     s.model,
		System:    system,
		MaxTokens: maxTokens,
		Messages: []messagesMessage{
			{Role: "user", Content: user},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/v1/messages",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", domain.NewCollaboratorError("anthropic message", true, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.NewCollaboratorError("anthropic message", true,
			fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		// Anthropic signals overload with 529 in addition to the usual
		// retryable statuses.
		transient := resp.StatusCode == http.StatusTooManyRequests ||
			resp.StatusCode >= http.StatusInternalServerError
		return "", domain.NewCollaboratorError("anthropic message", transient,
			fmt.Errorf("status %d: %s", resp.StatusCode, string(body)))
	}

	var msgResp messagesResponse
	if err := json.Unmarshal(body, &msgResp); err != nil {
		return "", domain.NewCollaboratorError("anthropic message", false,
			fmt.Errorf("decode response: %w", err))
	}
	if msgResp.Error != nil {
		return "", domain.NewCollaboratorError("anthropic message", false,
			errors.New(msgResp.Error.Message))
	}

	var sb strings.Builder
	for _, block := range msgResp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", domain.NewCollaboratorError("anthropic message", false,
			errors.New("no text content returned"))
	}

	return sb.String(), nil
}

// Fallback prompts used when no PromptStore is configured.
const (
	defaultExplainSystem = `Your task is to generate clear, concise explanations of code snippets.
Explain the code's purpose and functionality in 100-250 words depending on complexity.
Focus only on explaining functionality and purpose; avoid suggesting improvements
or commenting on code quality.`

	defaultExplainUser = `Explain the following code snippet from the file '%s'.

<CODE>
%s
</CODE>`

	defaultAnswerSystem = `You are an assistant that answers questions about a codebase using only the
provided reference context. Begin with a clear, direct answer and acknowledge
when something is not covered. If you are unsure, say "I don't know".`

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
func (s *LLMService) SetPromptStore(store driven.PromptStore) {
	s.promptStore = store
}

// Ping validates the API key with a minimal request. Anthropic has no cheap
// list endpoint, so a one-token message is used.
func (s *LLMService) Ping(ctx context.Context) error {
	reqBody := messagesRequest{
		Model:     s.model,
		MaxTokens: 1,
		Messages: []messagesMessage{
			{Role: "user", Content: "ping"},
		},
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("anthropic: marshal ping request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/v1/messages", bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("anthropic: failed to create ping request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrLLMUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("anthropic: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
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
