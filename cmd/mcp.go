package cmd

import (
	"github.com/spf13/cobra"

	"github.com/vizpulse/vizpulse/internal/mcpsrv"
	"github.com/vizpulse/vizpulse/internal/store"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the VizPulse MCP server",
	Long:  `Launch an MCP server that allows AI agents to query metric aggregates, time series and contributor rankings via standard tools.`,
	// Keep stdout clean for the protocol; setup errors go to stderr.
	PreRunE: sharedSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		pool, err := store.NewPool(cfg.Backend)
		if err != nil {
			return err
		}
		defer func() { _ = pool.Close() }()

		catalog, err := openCatalog(rootCtx, pool)
		if err != nil {
			return err
		}
		return mcpsrv.StartMCPServer(rootCtx, catalog, baseFilters(), cfg.ResultLimit)
	},
}
