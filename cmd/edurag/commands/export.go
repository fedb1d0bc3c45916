// ABOUTME: Export command writes the local knowledge base to YAML or Markdown
// ABOUTME: Embeddings are left out; the output is meant for reading and backup
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/edurag/internal/config"
	"github.com/harper/edurag/internal/storage/sqlite"
)

// NewExportCmd creates the export command
func NewExportCmd() *cobra.Command {
	var (
		format string
		output string
		dbPath string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the local knowledge base",
		Long: `Export every chunk in the local SQLite knowledge base, grouped by
source file, as YAML or Markdown. Writes knowledge-export.yaml or
knowledge-export.md in the current directory unless --output is set.

Examples:
  edurag export
  edurag export --as markdown -o notes/knowledge.md`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "yaml" && format != "yml" && format != "markdown" && format != "md" {
				return fmt.Errorf("unknown export format %q (want yaml or markdown)", format)
			}
			if dbPath == "" {
				cfg, err := config.Load()
				if err != nil {
					return fmt.Errorf("loading config: %w", err)
				}
				dbPath = cfg.DBPath
			}
			if dbPath == "" {
				dbPath = sqlite.DefaultDBPath()
			}

			db, err := sqlite.Open(dbPath)
			if err != nil {
				return fmt.Errorf("opening %s: %w", dbPath, err)
			}
			store := sqlite.NewChunkStore(db)
			defer store.Close()

			switch format {
			case "yaml", "yml":
				err = store.ExportToYAML(cmd.Context(), outputOr(output, "knowledge-export.yaml"))
			case "markdown", "md":
				err = store.ExportToMarkdown(cmd.Context(), outputOr(output, "knowledge-export.md"))
			default:
				return fmt.Errorf("unknown export format %q (want yaml or markdown)", format)
			}
			if err != nil {
				return fmt.Errorf("exporting: %w", err)
			}

			if !quiet {
				fmt.Fprintln(cmd.ErrOrStderr(), "Export complete")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "as", "yaml", "Export format: yaml or markdown")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default: EDURAG_DB_PATH or the data directory)")

	return cmd
}

func outputOr(output, fallback string) string {
	if output == "" {
		return fallback
	}
	return output
}
