// Package cli implements the codeqa command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modelcode-ai/codeqa-cli/internal/core/domain"
	"github.com/modelcode-ai/codeqa-cli/internal/core/ports/driving"
	"github.com/modelcode-ai/codeqa-cli/internal/logger"
)

// Services injected by main before Execute.
var (
	indexerService   driving.Indexer
	retrieverService driving.Retriever
	qaService        driving.QAService
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "codeqa",
	Short: "Ask questions about a codebase",
	Long: `codeqa indexes a source repository into a local vector index and answers
natural-language questions about it, grounded in the retrieved code.

Run 'codeqa index' inside a repository first, then 'codeqa ask'.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetIndexerService injects the indexer used by the index, status and watch
// commands.
func SetIndexerService(s driving.Indexer) {
	indexerService = s
}

// SetRetrieverService injects the retriever used by the retrieve command.
func SetRetrieverService(s driving.Retriever) {
	retrieverService = s
}

// SetQAService injects the question-answering service used by ask and serve.
func SetQAService(s driving.QAService) {
	qaService = s
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ensureIndexLoaded loads the committed index when it is not already in
// memory. Commands that query call this first so a fresh process can serve
// questions without an explicit load step.
func ensureIndexLoaded(ctx context.Context) error {
	if indexerService == nil {
		return errors.New("indexer service not configured")
	}
	if indexerService.IsReady() {
		return nil
	}
	err := indexerService.Load(ctx)
	if errors.Is(err, domain.ErrIndexNotReady) {
		return fmt.Errorf("no index found; run 'codeqa index' first: %w", err)
	}
	return err
}
