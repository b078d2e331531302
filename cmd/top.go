package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vizpulse/vizpulse/core"
	"github.com/vizpulse/vizpulse/internal/outwriter"
	"github.com/vizpulse/vizpulse/internal/store"
)

// topCmd ranks the contributors of one metric on the terminal.
var topCmd = &cobra.Command{
	Use:   "top <metric>",
	Short: "Rank the top contributors of a metric.",
	Args:  cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return err
		}
		return sharedSetup(cmd, args)
	},
	RunE: func(_ *cobra.Command, args []string) error {
		pool, err := store.NewPool(cfg.Backend)
		if err != nil {
			return err
		}
		defer func() { _ = pool.Close() }()

		catalog, err := openCatalog(rootCtx, pool)
		if err != nil {
			return err
		}
		m, err := catalog.Metric(args[0])
		if err != nil {
			return err
		}
		tm, ok := m.(core.TopMetric)
		if !ok {
			return fmt.Errorf("metric %s has no contributor ranking", args[0])
		}

		list, err := tm.Top(rootCtx, baseFilters(), cfg.ResultLimit, viper.GetInt("window"))
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteTopList(os.Stdout, args[0], list)
	},
}
