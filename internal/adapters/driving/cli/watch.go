package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/modelcode-ai/codeqa-cli/internal/extractor"
	"github.com/modelcode-ai/codeqa-cli/internal/logger"
	"github.com/modelcode-ai/codeqa-cli/internal/watcher"
)

var watchDebounce time.Duration

// watchRoot is the repository root observed by the watch command, injected
// by main alongside the services.
var watchRoot string

// SetWatchRoot sets the directory the watch command observes.
func SetWatchRoot(root string) {
	watchRoot = root
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild the index when the repository changes",
	Long: `Builds the index if needed, then watches the repository and rebuilds
after changes settle. Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce,
		"how long changes must settle before a rebuild")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if indexerService == nil {
		return errors.New("indexer service not configured")
	}
	if watchRoot == "" {
		return errors.New("watch root not configured")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats, err := indexerService.Build(ctx, false)
	if err != nil {
		return fmt.Errorf("initial index build failed: %w", err)
	}
	if stats.Reused {
		cmd.Println("Index is up to date.")
	} else {
		cmd.Printf("Indexed %d chunks from %d files.\n", stats.ChunksIndexed, stats.FilesChunked)
	}

	rebuild := func(ctx context.Context) {
		cmd.Println("Change detected, rebuilding index...")
		stats, err := indexerService.Build(ctx, true)
		if err != nil {
			logger.Warn("Rebuild failed: %v", err)
			return
		}
		cmd.Printf("Reindexed %d chunks from %d files.\n", stats.ChunksIndexed, stats.FilesChunked)
	}

	w := watcher.New(watchRoot, rebuild,
		watcher.WithDebounce(watchDebounce),
		watcher.WithIgnorePatterns(extractor.DefaultIgnorePatterns))

	cmd.Printf("Watching %s for changes (Ctrl-C to stop)...\n", watchRoot)
	err = w.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
