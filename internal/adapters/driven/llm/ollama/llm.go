// Package ollama provides an LLM service adapter using a local Ollama daemon.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
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
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2"
	DefaultTimeout = 180 * time.Second
)

// Config holds configuration for the Ollama LLM service.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the LLM model to use (default: llama3.2).
	Model string

	// Timeout is the request timeout (default: 180s). Local inference can
	// be slow on modest hardware.
	Timeout time.Duration
}

// LLMService provides LLM operations using Ollama.
type LLMService struct {
	client      *http.Client
	baseURL     string
	model       string
	promptStore driven.PromptStore
}

// chatRequest is the Ollama /api/chat request format.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// chatMessage is the Ollama chat message format.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the Ollama /api/chat response format (non-streaming).
type chatResponse struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done  bool   `json:"done"`
	Error string `json:"error,omitempty"`
}

// NewLLMService creates a new Ollama LLM service.
func NewLLMService(cfg Config) *LLMService {
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
		model:   cfg.Model,
	}
}

// Explain generates a natural-language explanation of a code chunk.
func (s *LLMService) Explain(ctx context.Context, code, filePath string) (string, error) {
	system := s.loadPrompt(driven.PromptExplainSystem, defaultExplainSystem)
	user := fmt.Sprintf(s.loadPrompt(driven.PromptExplainUser, defaultExplainUser), filePath, code)

	result, err := s.chat(ctx, system, user)
	if err != nil {
		return "", fmt.Errorf("explain %s: %w", filePath, err)
	}
	return strings.TrimSpace(result), nil
}

// Answer generates an answer to a question grounded on the retrieved context.
func (s *LLMService) Answer(ctx context.Context, question, contextStr string) (string, error) {
	system := s.loadPrompt(driven.PromptAnswerSystem, defaultAnswerSystem)
	user := fmt.Sprintf(s.loadPrompt(driven.PromptAnswerUser, defaultAnswerUser), contextStr, question)

	result, err := s.chat(ctx, system, user)
	if err != nil {
		return "", fmt.Errorf("answer question: %w", err)
	}
	return strings.TrimSpace(result), nil
}

// chat sends a non-streaming chat request and returns the message content.
func (s *LLMService) chat(ctx context.Context, system, user string) (string, error) {
	reqBody := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Stream: false,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/api/chat",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", domain.NewCollaboratorError("ollama chat", true, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			body = []byte("failed to read response")
		}
		transient := resp.StatusCode == http.StatusTooManyRequests ||
			resp.StatusCode >= http.StatusInternalServerError
		return "", domain.NewCollaboratorError("ollama chat", transient,
			fmt.Errorf("status %d: %s", resp.StatusCode, string(body)))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", domain.NewCollaboratorError("ollama chat", false,
			fmt.Errorf("decode response: %w", err))
	}
	if chatResp.Error != "" {
		return "", domain.NewCollaboratorError("ollama chat", false,
			fmt.Errorf("%s", chatResp.Error))
	}

	return chatResp.Message.Content, nil
}

// Fallback prompts used when no PromptStore is configured.
const (
	defaultExplainSystem = `Your task is to generate clear, concise explanations of code snippets.
Explain the code's purpose and functionality. Focus only on functionality and
purpose; avoid suggesting improvements.`

	defaultExplainUser = `Explain the following code snippet from the file '%s'.

<CODE>
%s
</CODE>`

	defaultAnswerSystem = `You are an assistant that answers questions about a codebase using only the
provided reference context. If you are unsure, say "I don't know".`

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

// Ping validates the service is reachable by checking the /api/tags endpoint.
func (s *LLMService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: failed to create ping request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrLLMUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("ollama: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
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
