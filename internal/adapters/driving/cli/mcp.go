package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modelcode-ai/codeqa-cli/internal/adapters/driving/mcp"
	"github.com/modelcode-ai/codeqa-cli/internal/core/domain"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can ask
questions about the indexed codebase.

By default, the server communicates over stdio using JSON-RPC. Use --port
to start an HTTP server instead.

Examples:
  # Stdio mode (default, for desktop assistants)
  codeqa mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  codeqa mcp serve --port 8080`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	// Load the index up front when one exists; tools report their own
	// errors otherwise.
	if err := ensureIndexLoaded(cmd.Context()); err != nil && !errors.Is(err, domain.ErrIndexNotReady) {
		return err
	}

	ports := &mcp.Ports{
		QA:        qaService,
		Retriever: retrieverService,
		Indexer:   indexerService,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
