// Package file provides file-based configuration and prompt storage.
// Configuration lives in a TOML file, prompts in user-editable text files.
package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/modelcode-ai/codeqa-cli/internal/core/domain"
)

// DefaultConfigDir is the directory under the user's home that holds the
// config file, prompts and the index.
const DefaultConfigDir = ".codeqa"

// Config is the on-disk TOML configuration.
type Config struct {
	Embedding EmbeddingConfig `toml:"embedding"`
	LLM       LLMConfig       `toml:"llm"`
	Index     IndexConfig     `toml:"index"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	Extractor ExtractorConfig `toml:"extractor"`
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	Provider   string `toml:"provider"`
	Model      string `toml:"model"`
	BaseURL    string `toml:"base_url"`
	APIKey     string `toml:"api_key"`
	Dimensions int    `toml:"dimensions"`
}

// LLMConfig configures the generation provider.
type LLMConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	BaseURL  string `toml:"base_url"`
	APIKey   string `toml:"api_key"`
}

// IndexConfig configures index building and storage.
type IndexConfig struct {
	// Path is the index database file. Empty means <config dir>/index.db.
	Path string `toml:"path"`

	// Workers bounds the concurrent annotate+embed pipeline.
	Workers int `toml:"workers"`

	// BatchSize is the number of chunks embedded per request.
	BatchSize int `toml:"batch_size"`
}

// RetrievalConfig configures question answering.
type RetrievalConfig struct {
	// TopK is the number of chunks retrieved per question.
	TopK int `toml:"top_k"`
}

// ExtractorConfig configures the source walk.
type ExtractorConfig struct {
	// IgnorePatterns replaces the built-in ignored directory names when
	// non-empty.
	IgnorePatterns []string `toml:"ignore_patterns"`
}

// Defaults applied when the config file is absent or partial.
const (
	DefaultWorkers   = 4
	DefaultBatchSize = 16
	DefaultTopK      = 5
)

// DefaultConfig returns a config with all defaults applied.
func DefaultConfig() Config {
	return Config{
		Embedding: EmbeddingConfig{
			Provider: string(domain.AIProviderOllama),
		},
		LLM: LLMConfig{
			Provider: string(domain.AIProviderOllama),
		},
		Index: IndexConfig{
			Workers:   DefaultWorkers,
			BatchSize: DefaultBatchSize,
		},
		Retrieval: RetrievalConfig{
			TopK: DefaultTopK,
		},
	}
}

// ConfigDir returns the configuration directory, honouring CODEQA_HOME.
func ConfigDir() (string, error) {
	if dir := os.Getenv("CODEQA_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, DefaultConfigDir), nil
}

// LoadConfig reads the TOML config at path, filling defaults for anything
// unset. A missing file yields the defaults without error. API keys can be
// supplied via OPENAI_API_KEY and ANTHROPIC_API_KEY instead of the file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.Index.Workers <= 0 {
		cfg.Index.Workers = DefaultWorkers
	}
	if cfg.Index.BatchSize <= 0 {
		cfg.Index.BatchSize = DefaultBatchSize
	}
	if cfg.Retrieval.TopK <= 0 {
		cfg.Retrieval.TopK = DefaultTopK
	}

	applyEnv(&cfg)
	return cfg, nil
}

// SaveConfig writes the config as TOML with restricted permissions.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// applyEnv overrides API keys from the environment when unset in the file.
func applyEnv(cfg *Config) {
	if cfg.Embedding.APIKey == "" && cfg.Embedding.Provider == string(domain.AIProviderOpenAI) {
		cfg.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.LLM.APIKey == "" {
		switch cfg.LLM.Provider {
		case string(domain.AIProviderOpenAI):
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case string(domain.AIProviderAnthropic):
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
}

// EmbeddingSettings converts the config section to domain settings.
func (c Config) EmbeddingSettings() domain.EmbeddingSettings {
	return domain.EmbeddingSettings{
		Provider:   domain.AIProvider(c.Embedding.Provider),
		Model:      c.Embedding.Model,
		BaseURL:    c.Embedding.BaseURL,
		APIKey:     c.Embedding.APIKey,
		Dimensions: c.Embedding.Dimensions,
	}
}

// LLMSettings converts the config section to domain settings.
func (c Config) LLMSettings() domain.LLMSettings {
	return domain.LLMSettings{
		Provider: domain.AIProvider(c.LLM.Provider),
		Model:    c.LLM.Model,
		BaseURL:  c.LLM.BaseURL,
		APIKey:   c.LLM.APIKey,
	}
}

// IndexPath resolves the index database location relative to configDir.
func (c Config) IndexPath(configDir string) string {
	if c.Index.Path != "" {
		return c.Index.Path
	}
	return filepath.Join(configDir, "index.db")
}
