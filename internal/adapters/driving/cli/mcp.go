package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/resumatch/internal/adapters/driving/mcp"
	"github.com/custodia-labs/resumatch/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so assistants can search
applicant documents and run similarity checks.

By default, the server communicates over stdio using JSON-RPC.
Use --port to start an HTTP server instead.

While serving, changes to config.toml are applied without a restart and,
when indexing.reindex_interval_minutes is set, both indices are rebuilt
periodically in the background.

Examples:
  # Stdio mode (default)
  resumatch mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  resumatch mcp serve --port 8080`,
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

	ports := &mcp.Ports{
		Search:     searchService,
		Similarity: similarityService,
		Settings:   settingsService,
		Reindex:    reindexer,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	startBackground(ctx)
	defer stopBackground()

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}

	return server.Run(ctx)
}

// startBackground starts config hot reload and the periodic reindex.
// Failures are logged; the server keeps running without them.
func startBackground(ctx context.Context) {
	if watchConfig != nil {
		if err := watchConfig(ctx); err != nil {
			logger.Warn("Config hot reload disabled: %v", err)
		}
	}

	if reindexer != nil {
		go func() {
			if err := reindexer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("Background reindex stopped: %v", err)
			}
		}()
	}
}

func stopBackground() {
	if reindexer != nil {
		if err := reindexer.Stop(); err != nil {
			logger.Warn("Stopping background reindex: %v", err)
		}
	}
}
