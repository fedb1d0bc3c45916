// ABOUTME: CLI command to add documents to the knowledge base
// ABOUTME: Extracts pages, chunks, embeds, and replaces any previous copy of each file
package commands

import (
	"errors"
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/edurag/internal/core"
	"github.com/harper/edurag/internal/extract"
	"github.com/harper/edurag/internal/mcp"
	"github.com/harper/edurag/internal/models"
)

var extractPages = extract.Pages

// NewIngestCmd creates the ingest command
func NewIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file...>",
		Short: "Add PDFs or text notes to the knowledge base",
		Long: `Add PDFs, .txt, or .md files to the knowledge base.

Each file is split into pages, cleaned, chunked, embedded, and stored
under its file name. Ingesting a file again replaces its old content.

Examples:
  edurag ingest lecture01.pdf lecture02.pdf
  edurag ingest --format json notes.md`,
		Args: cobra.MinimumNArgs(1),
		RunE: runIngest,
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	return withEngine(cmd.Context(), true, func(engine mcp.Engine) error {
		var (
			results []models.IngestionResult
			failed  int
		)

		for _, path := range args {
			result, err := ingestFile(cmd, engine, path)
			results = append(results, result)
			if err != nil && !errors.Is(err, core.ErrIngestionPartialFailure) {
				failed++
				if !quiet {
					fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s: %v\n", path, err)
				}
			}
		}

		if jsonOutput() {
			if err := writeJSON(cmd.OutOrStdout(), results); err != nil {
				return err
			}
		} else {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "SOURCE\tADDED\tFAILED\tSTATUS\n")
			fmt.Fprintf(w, "------\t-----\t------\t------\n")
			for _, r := range results {
				status := "ok"
				switch {
				case !r.Success:
					status = "failed"
				case r.ChunksFailed > 0:
					status = "partial"
				}
				fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", truncate(r.SourceFile, 40), r.ChunksAdded, r.ChunksFailed, status)
			}
			w.Flush()
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d file(s) failed to ingest", failed, len(args))
		}
		return nil
	})
}

func ingestFile(cmd *cobra.Command, engine mcp.Engine, path string) (models.IngestionResult, error) {
	source := filepath.Base(path)

	pages, err := extractPages(path)
	if err != nil {
		return models.IngestionResult{SourceFile: source, Error: err.Error()}, err
	}
	if verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "Extracted %d page(s) from %s\n", len(pages), path)
	}

	return engine.ProcessDocument(cmd.Context(), pages, source)
}
