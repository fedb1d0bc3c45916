// ABOUTME: Version command reports the build plus the protocol and storage versions it speaks
// ABOUTME: Honors --format json so release tooling can read it
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/edurag/internal/mcp"
	"github.com/harper/edurag/internal/storage/sqlite"
)

var versionInfo = VersionInfo{
	Version: "dev",
	Commit:  "none",
	Date:    "unknown",
}

// VersionInfo contains build information
type VersionInfo struct {
	Version       string `json:"version"`
	Commit        string `json:"commit"`
	Date          string `json:"date"`
	MCPServer     string `json:"mcp_server"`
	SchemaVersion int    `json:"schema_version"`
}

// SetVersion records build information (called from main)
func SetVersion(version, commit, date string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.Date = date
}

func currentVersion() VersionInfo {
	info := versionInfo
	info.MCPServer = mcp.ServerName + "/" + mcp.ServerVersion
	info.SchemaVersion = sqlite.SchemaVersion
	return info
}

// NewVersionCmd creates the version command
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the build version, commit, and date along with the MCP server and knowledge base schema versions.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := currentVersion()
			out := cmd.OutOrStdout()
			if jsonOutput() {
				return writeJSON(out, info)
			}
			fmt.Fprintf(out, "edurag %s\n", info.Version)
			fmt.Fprintf(out, "Commit: %s\n", info.Commit)
			fmt.Fprintf(out, "Built:  %s\n", info.Date)
			fmt.Fprintf(out, "MCP:    %s\n", info.MCPServer)
			fmt.Fprintf(out, "Schema: v%d\n", info.SchemaVersion)
			return nil
		},
	}
}
