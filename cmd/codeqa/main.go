// Command codeqa indexes a source repository and answers questions about it.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/modelcode-ai/codeqa-cli/internal/adapters/driven/ai"
	"github.com/modelcode-ai/codeqa-cli/internal/adapters/driven/config/file"
	"github.com/modelcode-ai/codeqa-cli/internal/adapters/driven/vectorstore/sqlite"
	"github.com/modelcode-ai/codeqa-cli/internal/adapters/driving/cli"
	"github.com/modelcode-ai/codeqa-cli/internal/chunkers"
	"github.com/modelcode-ai/codeqa-cli/internal/core/services"
	"github.com/modelcode-ai/codeqa-cli/internal/extractor"
	"github.com/modelcode-ai/codeqa-cli/internal/logger"
	"github.com/modelcode-ai/codeqa-cli/internal/retry"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cli.SetVersion(version)

	configDir, err := file.ConfigDir()
	if err != nil {
		return fmt.Errorf("resolve config directory: %w", err)
	}
	configPath := filepath.Join(configDir, "config.toml")
	cfg, err := file.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	prompts, err := file.NewPromptStore(filepath.Join(configDir, "prompts"))
	if err != nil {
		return fmt.Errorf("open prompt store: %w", err)
	}

	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}

	indexPath := cfg.IndexPath(configDir)
	stores := sqlite.NewFactory(indexPath)

	registry := chunkers.Default()
	var extractorOpts []extractor.Option
	if len(cfg.Extractor.IgnorePatterns) > 0 {
		extractorOpts = append(extractorOpts, extractor.WithIgnorePatterns(cfg.Extractor.IgnorePatterns))
	}
	sources := extractor.New(registry, extractorOpts...)

	cli.SetWatchRoot(root)
	cli.SetStatusInfo(&cli.StatusInfo{
		ConfigPath:        configPath,
		IndexPath:         indexPath,
		RepoRoot:          root,
		EmbeddingProvider: fmt.Sprintf("%s (%s)", cfg.Embedding.Provider, orDefault(cfg.Embedding.Model, "default model")),
		LLMProvider:       fmt.Sprintf("%s (%s)", cfg.LLM.Provider, orDefault(cfg.LLM.Model, "default model")),
	})

	// AI provider misconfiguration disables the commands that need it but
	// leaves version/status usable.
	embedder, err := ai.CreateEmbeddingService(cfg.EmbeddingSettings())
	if err != nil {
		logger.Warn("Embedding provider unavailable: %v", err)
	}
	llm, err := ai.CreateLLMService(cfg.LLMSettings(), prompts)
	if err != nil {
		logger.Warn("LLM provider unavailable: %v", err)
	}

	// Indexing and retrieval need only the embedder; a missing LLM degrades
	// to explanation-less indexing. Answering needs both.
	if embedder != nil {
		policy := retry.DefaultPolicy()

		indexer := services.NewIndexerService(services.IndexerConfig{
			Root:      root,
			Extractor: sources,
			Chunker:   registry,
			LLM:       llm,
			Embedder:  embedder,
			Stores:    stores,
			Workers:   cfg.Index.Workers,
			BatchSize: cfg.Index.BatchSize,
			Retry:     policy,
		})
		defer indexer.Close()

		retriever := services.NewRetrieverService(indexer, embedder, policy, cfg.Retrieval.TopK)

		cli.SetIndexerService(indexer)
		cli.SetRetrieverService(retriever)
		if llm != nil {
			cli.SetQAService(services.NewQAService(retriever, llm, policy))
		}
	}

	cli.SetProviderChecks(
		func() error {
			svc, err := ai.CreateAndValidateEmbeddingService(cfg.EmbeddingSettings())
			if svc != nil {
				svc.Close()
			}
			return err
		},
		func() error {
			svc, err := ai.CreateAndValidateLLMService(cfg.LLMSettings(), prompts)
			if svc != nil {
				svc.Close()
			}
			return err
		},
	)

	return cli.Execute()
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
