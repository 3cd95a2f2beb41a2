package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// StatusInfo carries wiring facts the status command reports alongside the
// index inspection. Main fills it in; every field is optional.
type StatusInfo struct {
	ConfigPath        string
	IndexPath         string
	RepoRoot          string
	EmbeddingProvider string
	LLMProvider       string
}

var statusInfo *StatusInfo

// SetStatusInfo injects the configuration summary shown by 'codeqa status'.
func SetStatusInfo(info *StatusInfo) {
	statusInfo = info
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index and configuration status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if indexerService == nil {
		return errors.New("indexer service not configured")
	}

	status, err := indexerService.Status(context.Background())
	if err != nil {
		return fmt.Errorf("inspect index: %w", err)
	}

	if statusInfo != nil {
		if statusInfo.RepoRoot != "" {
			cmd.Printf("Repository:  %s\n", statusInfo.RepoRoot)
		}
		if statusInfo.ConfigPath != "" {
			cmd.Printf("Config:      %s\n", statusInfo.ConfigPath)
		}
		if statusInfo.IndexPath != "" {
			cmd.Printf("Index file:  %s\n", statusInfo.IndexPath)
		}
		if statusInfo.EmbeddingProvider != "" {
			cmd.Printf("Embedding:   %s\n", statusInfo.EmbeddingProvider)
		}
		if statusInfo.LLMProvider != "" {
			cmd.Printf("LLM:         %s\n", statusInfo.LLMProvider)
		}
	}

	if !status.Exists {
		cmd.Println("Index:       not built (run 'codeqa index')")
		return nil
	}

	cmd.Printf("Index:       %d chunks, %d dimensions (model %s)\n",
		status.Chunks, status.Dimensions, status.Model)
	return nil
}
