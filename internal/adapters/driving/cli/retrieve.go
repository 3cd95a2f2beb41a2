package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modelcode-ai/codeqa-cli/internal/core/domain"
)

var (
	retrieveK    int
	retrieveJSON bool
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Retrieve the chunks most similar to a query",
	Long: `Embeds the query and returns the top matching chunks from the index,
without generating an answer. Useful for inspecting what 'ask' would be
grounded on.`,
	Args: cobra.ExactArgs(1),
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().IntVarP(&retrieveK, "top-k", "k", 0, "number of chunks to return (0 uses the configured default)")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(retrieveCmd)
}

// retrievedChunk is the JSON shape of one result.
type retrievedChunk struct {
	ID          string  `json:"id"`
	Kind        string  `json:"kind"`
	Name        string  `json:"name,omitempty"`
	FilePath    string  `json:"file_path"`
	StartLine   int     `json:"start_line"`
	EndLine     int     `json:"end_line"`
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation,omitempty"`
	Content     string  `json:"content"`
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	if retrieverService == nil {
		return errors.New("retriever service not configured")
	}

	ctx := context.Background()
	if err := ensureIndexLoaded(ctx); err != nil {
		return err
	}

	result, err := retrieverService.Retrieve(ctx, args[0], retrieveK)
	if err != nil {
		return fmt.Errorf("retrieve failed: %w", err)
	}

	if retrieveJSON {
		return outputRetrieveJSON(cmd, result.Chunks)
	}
	return outputRetrieveTable(cmd, result.Chunks)
}

func outputRetrieveJSON(cmd *cobra.Command, chunks []domain.ScoredChunk) error {
	out := make([]retrievedChunk, len(chunks))
	for i, sc := range chunks {
		out[i] = retrievedChunk{
			ID:          sc.Chunk.ID,
			Kind:        string(sc.Chunk.Kind),
			Name:        sc.Chunk.Name,
			FilePath:    sc.Chunk.FilePath,
			StartLine:   sc.Chunk.StartLine,
			EndLine:     sc.Chunk.EndLine,
			Score:       sc.Score,
			Explanation: sc.Chunk.Explanation,
			Content:     sc.Chunk.Content,
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputRetrieveTable(cmd *cobra.Command, chunks []domain.ScoredChunk) error {
	if len(chunks) == 0 {
		cmd.Println("No matching chunks found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, sc := range chunks {
		c := sc.Chunk
		label := string(c.Kind)
		if c.Name != "" {
			label = fmt.Sprintf("%s %s", c.Kind, c.Name)
		}
		cmd.Printf("  [%d] %s:%d-%d  %s (%.2f)\n", i+1, c.FilePath, c.StartLine, c.EndLine, label, sc.Score)
		if c.Explanation != "" {
			cmd.Printf("      %s\n", c.Explanation)
		}
		cmd.Println()
	}
	return nil
}
