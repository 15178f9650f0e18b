package cmd

import (
	"github.com/mres-project/mres/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp [dir]",
	Short: "Start the MRES MCP server",
	Long: `Launch an MCP server on stdio that lets AI agents compute and merge RRLs
through the compute_rrl, merge_rrl and list_fields tools.`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, storeManager)
	},
}
