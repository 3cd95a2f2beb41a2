package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the natural-language question about the codebase"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string        `json:"answer"`
	Sources []ChunkOutput `json:"sources,omitempty"`
}

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query string `json:"query" jsonschema:"the query to match code chunks against"`
	K     int    `json:"k,omitempty" jsonschema:"maximum number of chunks to return (default 5)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Chunks []ChunkOutput `json:"chunks"`
	Count  int           `json:"count"`
}

// ChunkOutput represents a single retrieved chunk.
type ChunkOutput struct {
	ID          string  `json:"id"`
	Kind        string  `json:"kind"`
	Name        string  `json:"name,omitempty"`
	FilePath    string  `json:"file_path"`
	StartLine   int     `json:"start_line"`
	EndLine     int     `json:"end_line"`
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation,omitempty"`
	Content     string  `json:"content,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.sdk, &mcp.Tool{
		Name:        "ask",
		Description: "Ask a question about the indexed codebase and get a grounded answer",
	}, s.handleAsk)

	mcp.AddTool(s.sdk, &mcp.Tool{
		Name:        "retrieve",
		Description: "Retrieve the code chunks most similar to a query",
	}, s.handleRetrieve)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.QA.AnswerQuestion(ctx, input.Question)
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:  answer.Text,
		Sources: make([]ChunkOutput, len(answer.Retrieval.Chunks)),
	}
	for i, sc := range answer.Retrieval.Chunks {
		output.Sources[i] = ChunkOutput{
			ID:        sc.Chunk.ID,
			Kind:      string(sc.Chunk.Kind),
			Name:      sc.Chunk.Name,
			FilePath:  sc.Chunk.FilePath,
			StartLine: sc.Chunk.StartLine,
			EndLine:   sc.Chunk.EndLine,
			Score:     sc.Score,
		}
	}

	return nil, output, nil
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	result, err := s.ports.Retriever.Retrieve(ctx, input.Query, input.K)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Chunks: make([]ChunkOutput, len(result.Chunks)),
		Count:  len(result.Chunks),
	}
	for i, sc := range result.Chunks {
		output.Chunks[i] = ChunkOutput{
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

	return nil, output, nil
}
