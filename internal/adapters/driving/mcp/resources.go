package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const uriScheme = "codeqa://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.sdk.AddResource(&mcp.Resource{
		URI:         uriScheme + "index",
		Name:        "index-status",
		Description: "Status of the local code index",
		MIMEType:    "application/json",
	}, s.handleIndexResource)
}

// handleIndexResource returns the committed index status as JSON.
func (s *Server) handleIndexResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	type indexInfo struct {
		Exists     bool   `json:"exists"`
		Chunks     int    `json:"chunks"`
		Dimensions int    `json:"dimensions"`
		Model      string `json:"model,omitempty"`
	}

	info := indexInfo{}
	if s.ports.Indexer != nil {
		status, err := s.ports.Indexer.Status(ctx)
		if err != nil {
			return nil, fmt.Errorf("inspecting index: %w", err)
		}
		info = indexInfo{
			Exists:     status.Exists,
			Chunks:     status.Chunks,
			Dimensions: status.Dimensions,
			Model:      status.Model,
		}
	}

	data, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("marshalling index status: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
