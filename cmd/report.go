package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vizpulse/vizpulse/internal"
	"github.com/vizpulse/vizpulse/internal/report"
	"github.com/vizpulse/vizpulse/internal/store"
)

// reportCmd runs a full report: every configured datasource, dimension
// and metric, one JSON file per combination.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write the full JSON report for the configured data sources.",
	Long: `Connect to the configured collector databases, compute every metric
as whole-interval aggregates, gap-filled time series and contributor
rankings, and write one JSON file per metric family and dimension value
into the destination directory.`,
	PreRunE: sharedSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		logger, err := internal.NewLogger(cfg.Verbose)
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		pool, err := store.NewPool(cfg.Backend)
		if err != nil {
			return err
		}
		defer func() { _ = pool.Close() }()

		sources, err := openSources(rootCtx, pool)
		if err != nil {
			return err
		}
		tracking, err := openTracking(rootCtx, pool)
		if err != nil {
			return err
		}

		runner := &report.Runner{
			Sources:       sources,
			Filters:       baseFilters(),
			Destination:   cfg.Destination,
			Limit:         cfg.ResultLimit,
			WindowDays:    cfg.WindowDays,
			Repositories:  cfg.Repositories,
			Organizations: cfg.Organizations,
			Log:           logger,
		}
		if tracking != nil {
			runner.Tracker = tracking
		}

		res, err := runner.Run(rootCtx)
		if err != nil {
			return err
		}
		fmt.Printf("📊 Wrote %d report files to %s\n", len(res.Files), cfg.Destination)

		if cfg.RScript != "" {
			r := &report.RScript{Path: cfg.RScript}
			if err := r.RunScript(rootCtx, cfg.StartTime, cfg.EndTime, cfg.Destination); err != nil {
				return err
			}
		}
		if cfg.Parquet && tracking != nil {
			runs, err := tracking.Runs(rootCtx)
			if err != nil {
				return err
			}
			out := cfg.Destination + "/vizpulse_runs.parquet"
			if err := report.WriteRunsParquet(runs, out); err != nil {
				return err
			}
			fmt.Printf("📦 Exported run history to %s\n", out)
		}
		return nil
	},
}
