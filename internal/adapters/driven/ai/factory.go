// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/modelcode-ai/codeqa-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/modelcode-ai/codeqa-cli/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/modelcode-ai/codeqa-cli/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/modelcode-ai/codeqa-cli/internal/adapters/driven/llm/ollama"
	openaillm "github.com/modelcode-ai/codeqa-cli/internal/adapters/driven/llm/openai"
	"github.com/modelcode-ai/codeqa-cli/internal/core/domain"
	"github.com/modelcode-ai/codeqa-cli/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// promptStoreSetter is implemented by LLM adapters that load customisable
// prompts from a store.
type promptStoreSetter interface {
	SetPromptStore(driven.PromptStore)
}

// CreateEmbeddingService creates the appropriate embedding service based on
// settings.
func CreateEmbeddingService(settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("embedding provider is not configured: %w", domain.ErrEmbeddingUnavailable)
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})

	case domain.AIProviderAnthropic:
		// Anthropic does not support embeddings.
		return nil, fmt.Errorf("anthropic does not support embeddings, use ollama or openai")

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the appropriate LLM service based on settings.
// The prompt store may be nil, in which case adapters use built-in prompts.
func CreateLLMService(settings domain.LLMSettings, prompts driven.PromptStore) (driven.LLMService, error) {
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("LLM provider is not configured: %w", domain.ErrLLMUnavailable)
	}

	var (
		svc driven.LLMService
		err error
	)
	switch settings.Provider {
	case domain.AIProviderOllama:
		svc = ollamallm.NewLLMService(ollamallm.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderOpenAI:
		svc, err = openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		svc, err = anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
	if err != nil {
		return nil, err
	}

	if prompts != nil {
		if setter, ok := svc.(promptStoreSetter); ok {
			setter.SetPromptStore(prompts)
		}
	}
	return svc, nil
}

// CreateAndValidateEmbeddingService creates an embedding service and
// validates connectivity with a short ping.
func CreateAndValidateEmbeddingService(settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("embedding service unreachable: %w", err)
	}
	return svc, nil
}

// CreateAndValidateLLMService creates an LLM service and validates
// connectivity with a short ping.
func CreateAndValidateLLMService(settings domain.LLMSettings, prompts driven.PromptStore) (driven.LLMService, error) {
	svc, err := CreateLLMService(settings, prompts)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("LLM service unreachable: %w", err)
	}
	return svc, nil
}
