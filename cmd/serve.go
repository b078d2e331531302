package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vizpulse/vizpulse/internal/httpapi"
	"github.com/vizpulse/vizpulse/internal/store"
)

// serveCmd exposes the metric catalog over HTTP for dashboards that
// query live instead of reading exported files.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve metric aggregates, time series and top lists over HTTP.",
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return err
		}
		return sharedSetup(cmd, args)
	},
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

		handler := httpapi.NewHandler(catalog, baseFilters(), cfg.ResultLimit)
		router := httpapi.SetupRoutes(handler)
		return router.Run(viper.GetString("addr"))
	},
}
