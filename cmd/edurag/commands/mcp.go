// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Enables LLM agents like Claude to query course materials via stdio
package commands

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/harper/edurag/internal/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs edurag as an MCP (Model Context Protocol) server, enabling
LLM agents like Claude to answer questions from your course
materials, ingest documents, and manage the knowledge base via stdio.

Configure in Claude Desktop's config file to enable the tools.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by Claude Desktop)
  edurag mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "edurag": {
  #       "command": "edurag",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server and blocks until stdin closes or a signal arrives
func runMCP(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	return withEngine(ctx, true, func(engine mcp.Engine) error {
		server := mcp.NewServer(engine, nil)

		if !quiet {
			log.Info("edurag MCP server starting on stdio")
		}

		serverErr := make(chan error, 1)
		go func() {
			serverErr <- mcpserver.ServeStdio(server)
		}()

		select {
		case <-ctx.Done():
			if !quiet {
				log.Info("shutdown signal received, closing knowledge base")
			}
		case err := <-serverErr:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
		}
		return nil
	})
}
