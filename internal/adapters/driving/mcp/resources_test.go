package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelcode-ai/codeqa-cli/internal/core/ports/driving"
)

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleIndexResource(t *testing.T) {
	ctx := context.Background()

	t.Run("reports committed index", func(t *testing.T) {
		indexer := &mockIndexer{
			status: driving.IndexStatus{
				Exists:     true,
				Chunks:     42,
				Dimensions: 768,
				Model:      "nomic-embed-text",
			},
		}
		ports := &Ports{QA: &mockQAService{}, Retriever: &mockRetriever{}, Indexer: indexer}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("codeqa://index")
		result, err := server.handleIndexResource(ctx, req)

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "codeqa://index", result.Contents[0].URI)
		assert.JSONEq(t,
			`{"exists":true,"chunks":42,"dimensions":768,"model":"nomic-embed-text"}`,
			result.Contents[0].Text)
	})

	t.Run("nil indexer reports empty status", func(t *testing.T) {
		ports := &Ports{QA: &mockQAService{}, Retriever: &mockRetriever{}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("codeqa://index")
		result, err := server.handleIndexResource(ctx, req)

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.JSONEq(t, `{"exists":false,"chunks":0,"dimensions":0}`, result.Contents[0].Text)
	})

	t.Run("returns error on status failure", func(t *testing.T) {
		indexer := &mockIndexer{err: errors.New("db locked")}
		ports := &Ports{QA: &mockQAService{}, Retriever: &mockRetriever{}, Indexer: indexer}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("codeqa://index")
		_, err = server.handleIndexResource(ctx, req)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "db locked")
	})
}
