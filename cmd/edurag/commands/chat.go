// ABOUTME: CLI command for an interactive question and answer session
// ABOUTME: Runs the Bubble Tea chat model against the pipeline
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/edurag/internal/mcp"
	"github.com/harper/edurag/internal/tui"
)

// NewChatCmd creates the chat command
func NewChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive study session",
		Long: `Start an interactive terminal session for asking questions about
your course materials. Press Esc or Ctrl+C to quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), true, func(engine mcp.Engine) error {
				stats, err := engine.Stats(cmd.Context())
				if err != nil {
					return fmt.Errorf("loading stats: %w", err)
				}
				summary := fmt.Sprintf("%d chunk(s) from %d document(s)", stats.TotalChunks, stats.UniqueSources())
				return tui.Run(cmd.Context(), engine, summary)
			})
		},
	}
}
