package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var askShowSources bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the indexed codebase",
	Long: `Retrieves the code chunks most relevant to the question and generates an
answer grounded in them. The index must have been built with 'codeqa index'.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askShowSources, "sources", false, "list the chunks the answer was grounded on")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if qaService == nil {
		return errors.New("answering requires a configured LLM provider; run 'codeqa check' to diagnose")
	}

	ctx := context.Background()
	if err := ensureIndexLoaded(ctx); err != nil {
		return err
	}

	answer, err := qaService.AnswerQuestion(ctx, args[0])
	if err != nil {
		return fmt.Errorf("answer failed: %w", err)
	}

	cmd.Println(answer.Text)

	if askShowSources && !answer.Retrieval.Empty() {
		cmd.Println()
		cmd.Println("Sources:")
		for i, sc := range answer.Retrieval.Chunks {
			cmd.Printf("  [%d] %s:%d-%d (%.2f)\n",
				i+1, sc.Chunk.FilePath, sc.Chunk.StartLine, sc.Chunk.EndLine, sc.Score)
		}
	}
	return nil
}
