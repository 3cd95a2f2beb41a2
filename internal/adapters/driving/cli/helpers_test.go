package cli

import (
	"bytes"
	"testing"

	"github.com/modelcode-ai/codeqa-cli/internal/core/domain"
	"github.com/modelcode-ai/codeqa-cli/internal/core/ports/driving"
)

// injectServices swaps the package-level services for the given mocks and
// returns a restore function.
func injectServices(idx driving.Indexer, ret driving.Retriever, qa driving.QAService) func() {
	prevIdx, prevRet, prevQA := indexerService, retrieverService, qaService
	prevInfo := statusInfo
	indexerService, retrieverService, qaService = idx, ret, qa
	return func() {
		indexerService, retrieverService, qaService = prevIdx, prevRet, prevQA
		statusInfo = prevInfo
	}
}

// setupTestServices installs a ready set of mocks for commands whose
// collaborators are incidental to the test.
func setupTestServices() func() {
	return injectServices(
		&mockIndexer{ready: true},
		&mockRetriever{},
		&mockQAService{answer: domain.Answer{Text: "mock answer"}},
	)
}

// executeCommand runs the root command with args and captures its output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func sampleScoredChunk() domain.ScoredChunk {
	return domain.ScoredChunk{
		Chunk: domain.Chunk{
			ID:          "chunk-1",
			Kind:        domain.ChunkKindMethod,
			Name:        "bar",
			FilePath:    "app/models.py",
			StartLine:   3,
			EndLine:     5,
			Explanation: "Returns the bar value.",
			Content:     "def bar(self):\n    return 42",
		},
		Score: 0.91,
	}
}
