package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelcode-ai/codeqa-cli/internal/core/domain"
)

func TestCreateEmbeddingService(t *testing.T) {
	t.Run("ollama needs no key", func(t *testing.T) {
		svc, err := CreateEmbeddingService(domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama,
			Model:    "nomic-embed-text",
		})
		require.NoError(t, err)
		require.NotNil(t, svc)
		defer svc.Close()
		assert.Equal(t, "nomic-embed-text", svc.ModelName())
		assert.Equal(t, 768, svc.Dimensions())
	})

	t.Run("openai requires key", func(t *testing.T) {
		_, err := CreateEmbeddingService(domain.EmbeddingSettings{
			Provider: domain.AIProviderOpenAI,
		})
		assert.Error(t, err)
	})

	t.Run("anthropic has no embeddings", func(t *testing.T) {
		_, err := CreateEmbeddingService(domain.EmbeddingSettings{
			Provider: domain.AIProviderAnthropic,
			APIKey:   "sk-test",
		})
		assert.ErrorContains(t, err, "anthropic does not support embeddings")
	})

	t.Run("unconfigured provider", func(t *testing.T) {
		_, err := CreateEmbeddingService(domain.EmbeddingSettings{})
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})
}

func TestCreateLLMService(t *testing.T) {
	t.Run("openai with key", func(t *testing.T) {
		svc, err := CreateLLMService(domain.LLMSettings{
			Provider: domain.AIProviderOpenAI,
			APIKey:   "sk-test",
			Model:    "gpt-4o-mini",
		}, nil)
		require.NoError(t, err)
		defer svc.Close()
		assert.Equal(t, "gpt-4o-mini", svc.ModelName())
	})

	t.Run("anthropic with key", func(t *testing.T) {
		svc, err := CreateLLMService(domain.LLMSettings{
			Provider: domain.AIProviderAnthropic,
			APIKey:   "sk-ant-test",
		}, nil)
		require.NoError(t, err)
		defer svc.Close()
		assert.Equal(t, "claude-3-5-sonnet-latest", svc.ModelName())
	})

	t.Run("openai without key", func(t *testing.T) {
		_, err := CreateLLMService(domain.LLMSettings{
			Provider: domain.AIProviderOpenAI,
		}, nil)
		assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := CreateLLMService(domain.LLMSettings{
			Provider: domain.AIProvider("vertex"),
		}, nil)
		assert.Error(t, err)
	})
}
