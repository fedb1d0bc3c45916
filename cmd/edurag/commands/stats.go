// ABOUTME: CLI command to show what the knowledge base holds
// ABOUTME: Lists chunk counts per source and what kinds of questions are supported
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/edurag/internal/mcp"
)

// NewStatsCmd creates the stats command
func NewStatsCmd() *cobra.Command {
	var summary bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show knowledge base statistics",
		Long:  `Show how many chunks each uploaded document contributed.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), false, func(engine mcp.Engine) error {
				stats, err := engine.Stats(cmd.Context())
				if err != nil {
					return fmt.Errorf("loading stats: %w", err)
				}

				if jsonOutput() {
					return writeJSON(cmd.OutOrStdout(), stats)
				}

				if summary {
					text, err := engine.Summary(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprint(cmd.OutOrStdout(), text)
					return nil
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintf(w, "SOURCE\tCHUNKS\n")
				fmt.Fprintf(w, "------\t------\n")
				for _, source := range stats.SourceFiles {
					fmt.Fprintf(w, "%s\t%d\n", source, stats.ChunksPerSource[source])
				}
				w.Flush()

				if !quiet {
					fmt.Fprintf(cmd.OutOrStdout(), "\n%d chunk(s) across %d document(s)\n", stats.TotalChunks, stats.UniqueSources())
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&summary, "summary", false, "Print a guide to what can be asked")

	return cmd
}
