// ABOUTME: Shared utility functions for CLI commands
// ABOUTME: Output formatting helpers used by ask, search, ingest, and stats
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/harper/edurag/internal/models"
)

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return string(runes[:maxLen-3]) + "..."
}

// validatePositiveInt returns error if n is not positive
func validatePositiveInt(n int, name string) error {
	if n <= 0 {
		return fmt.Errorf("%s must be positive, got %d", name, n)
	}
	return nil
}

// jsonOutput reports whether --format asked for JSON
func jsonOutput() bool {
	return outputFormat == "json"
}

// writeJSON writes v as indented JSON
func writeJSON(w io.Writer, v interface{}) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Fprintf(w, "%s\n", jsonData)
	return nil
}

// formatCitation renders a citation as "file, page N"
func formatCitation(c models.Citation) string {
	return fmt.Sprintf("%s, page %d", c.SourceFile, c.Page)
}

// oneLine collapses whitespace so previews fit a table row
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
