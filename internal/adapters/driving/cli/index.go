package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var indexForce bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the vector index for the current repository",
	Long: `Walks the repository, chunks the supported source files, annotates each
chunk with a generated explanation, embeds it and persists the result.

An existing index is reused as-is; pass --force to rebuild from scratch.
The rebuild runs against a staging copy and replaces the old index only
on success.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVarP(&indexForce, "force", "f", false, "rebuild even if an index exists")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	if indexerService == nil {
		return errors.New("indexer service not configured")
	}

	ctx := context.Background()

	stats, err := indexerService.Build(ctx, indexForce)
	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}

	if stats.Reused {
		cmd.Println("Index is up to date (use --force to rebuild).")
		return nil
	}

	cmd.Printf("Indexed %d chunks from %d files in %s.\n",
		stats.ChunksIndexed, stats.FilesChunked, stats.Duration.Round(10*time.Millisecond))
	if stats.ChunksDropped > 0 {
		cmd.Printf("Dropped %d chunks that could not be embedded.\n", stats.ChunksDropped)
	}
	if stats.Warnings > 0 {
		cmd.Printf("%d files were skipped with warnings (rerun with --verbose for details).\n",
			stats.Warnings)
	}
	return nil
}
