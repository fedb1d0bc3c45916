// ABOUTME: CLI commands to remove content from the knowledge base
// ABOUTME: delete removes one source file; clear removes everything
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/edurag/internal/mcp"
)

// NewDeleteCmd creates the delete command
func NewDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <source>",
		Short: "Remove a document from the knowledge base",
		Long: `Remove every chunk of one document. The source name is the file
name shown by 'edurag stats'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := args[0]
			return withEngine(cmd.Context(), false, func(engine mcp.Engine) error {
				n, err := engine.DeleteDocument(cmd.Context(), source)
				if err != nil {
					return fmt.Errorf("deleting %s: %w", source, err)
				}
				if n == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No content found for %s\n", source)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d chunk(s) from %s\n", n, source)
				return nil
			})
		},
	}
}

// NewClearCmd creates the clear command
func NewClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all documents from the knowledge base",
		Long: `Remove all documents from the knowledge base.

WARNING: This cannot be undone. Run with --yes to proceed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				fmt.Fprintln(cmd.OutOrStdout(), "This will remove ALL documents from the knowledge base!")
				fmt.Fprintln(cmd.OutOrStdout(), "Run with --yes to proceed")
				return nil
			}
			return withEngine(cmd.Context(), false, func(engine mcp.Engine) error {
				if err := engine.ClearKnowledgeBase(cmd.Context()); err != nil {
					return fmt.Errorf("clearing knowledge base: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Knowledge base cleared")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm clearing the knowledge base")

	return cmd
}
