// ABOUTME: CLI command to answer one question from the knowledge base
// ABOUTME: Prints the grounded answer with its sources and confidence
package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harper/edurag/internal/mcp"
	"github.com/harper/edurag/internal/models"
)

// NewAskCmd creates the ask command
func NewAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask an educational question",
		Long: `Ask a question about your uploaded course materials.

The question is checked for educational intent, matched against the
knowledge base, and answered only from the retrieved passages.

Examples:
  edurag ask "What is inheritance in object-oriented programming?"
  edurag ask --format json "Explain photosynthesis"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAsk,
	}
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	return withEngine(cmd.Context(), true, func(engine mcp.Engine) error {
		resp := engine.AnswerQuery(cmd.Context(), question)

		if jsonOutput() {
			return writeJSON(cmd.OutOrStdout(), resp)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, resp.Answer)
		if len(resp.Sources) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Sources:")
			for _, s := range resp.Sources {
				fmt.Fprintf(out, "  - %s\n", formatCitation(s))
			}
		}
		if !quiet && resp.State == models.StateScored {
			fmt.Fprintf(out, "\nConfidence: %.2f\n", resp.Confidence)
		}
		return nil
	})
}
