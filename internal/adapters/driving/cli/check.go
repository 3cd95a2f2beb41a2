package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

// Provider connectivity checks injected by main. Each pings the configured
// provider and returns its failure.
var (
	embeddingCheck func() error
	llmCheck       func() error
)

// SetProviderChecks injects the connectivity checks run by 'codeqa check'.
func SetProviderChecks(embedding, llm func() error) {
	embeddingCheck = embedding
	llmCheck = llm
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate provider connectivity",
	Long: `Pings the configured embedding and LLM providers and reports whether
each is reachable. Run this after editing the configuration to catch bad
endpoints or API keys before an indexing run.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	if embeddingCheck == nil || llmCheck == nil {
		return errors.New("provider checks not configured")
	}

	failed := false

	if err := embeddingCheck(); err != nil {
		cmd.Printf("Embedding provider: FAILED (%v)\n", err)
		failed = true
	} else {
		cmd.Println("Embedding provider: OK")
	}

	if err := llmCheck(); err != nil {
		cmd.Printf("LLM provider:       FAILED (%v)\n", err)
		failed = true
	} else {
		cmd.Println("LLM provider:       OK")
	}

	if failed {
		return errors.New("one or more providers are unreachable")
	}
	return nil
}
