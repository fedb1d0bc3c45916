// ABOUTME: CLI command to search the knowledge base
// ABOUTME: Returns ranked passages without generating an answer
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/edurag/internal/mcp"
	"github.com/harper/edurag/internal/models"
)

var (
	searchLimit  int
	searchSource string
)

// NewSearchCmd creates search command
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search course materials",
		Long: `Search the knowledge base for passages related to a query.

Results are ranked by a blend of embedding similarity, keyword overlap,
and educational density. Use --source to search a single document.

Examples:
  edurag search "cell membrane"
  edurag search --limit 10 --source biology.pdf "osmosis"
  edurag search --format json "recursion"`,
		Args: cobra.ExactArgs(1),
		RunE: runSearch,
	}

	cmd.Flags().IntVar(&searchLimit, "limit", 5, "Maximum results to return")
	cmd.Flags().StringVar(&searchSource, "source", "", "Only search this source file")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := validatePositiveInt(searchLimit, "limit"); err != nil {
		return err
	}
	query := args[0]

	return withEngine(cmd.Context(), true, func(engine mcp.Engine) error {
		results, err := engine.Search(cmd.Context(), query, searchLimit, searchSource)
		if err != nil {
			return fmt.Errorf("searching: %w", err)
		}

		if len(results) == 0 {
			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "No relevant content found for query: %s\n", query)
			}
			return nil
		}

		citations := make([]models.Citation, len(results))
		for i, r := range results {
			citations[i] = models.NewCitation(r)
		}

		if jsonOutput() {
			return writeJSON(cmd.OutOrStdout(), citations)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "RELEVANCE\tSOURCE\tPAGE\tPREVIEW\n")
		fmt.Fprintf(w, "---------\t------\t----\t-------\n")
		for _, c := range citations {
			fmt.Fprintf(w, "%.3f\t%s\t%d\t%s\n",
				c.Relevance,
				truncate(c.SourceFile, 25),
				c.Page,
				truncate(oneLine(c.Preview), 60))
		}
		w.Flush()

		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "\nFound %d result(s)\n", len(results))
		}
		return nil
	})
}
