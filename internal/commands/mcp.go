package commands

import (
	"github.com/spf13/cobra"

	"github.com/moasq/appcenter-postbuild/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:    "mcp",
	Short:  "Run the post-build MCP server over stdio",
	Long:   "Starts an MCP server exposing the post-build steps as typed tools (run_postbuild, ensure_capability, upsert_dependency, get_feature_flags).",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return mcpserver.Run(cmd.Context(), newService(), Version)
	},
}
