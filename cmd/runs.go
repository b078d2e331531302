package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vizpulse/vizpulse/internal/outwriter"
	"github.com/vizpulse/vizpulse/internal/report"
	"github.com/vizpulse/vizpulse/internal/store"
)

// runsCmd groups the run tracking subcommands.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect and manage tracked report runs.",
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// trackingStore opens the tracking database, failing when none is
// configured.
func trackingStore(pool *store.Pool) (*store.RunStore, error) {
	rs, err := openTracking(rootCtx, pool)
	if err != nil {
		return nil, err
	}
	if rs == nil {
		return nil, fmt.Errorf("no tracking database configured, set --tracking-db-connect")
	}
	return rs, nil
}

var runsListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List every tracked report run, oldest first.",
	PreRunE: sharedSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		pool, err := store.NewPool(cfg.Backend)
		if err != nil {
			return err
		}
		defer func() { _ = pool.Close() }()

		rs, err := trackingStore(pool)
		if err != nil {
			return err
		}
		runs, err := rs.Runs(rootCtx)
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteRuns(os.Stdout, runs)
	},
}

var runsStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show run counts and the most recent run.",
	PreRunE: sharedSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		pool, err := store.NewPool(cfg.Backend)
		if err != nil {
			return err
		}
		defer func() { _ = pool.Close() }()

		rs, err := trackingStore(pool)
		if err != nil {
			return err
		}
		status, err := rs.Status(rootCtx)
		if err != nil {
			return err
		}
		fmt.Printf("Backend:    %s\n", status.Backend)
		fmt.Printf("Total runs: %d\n", status.TotalRuns)
		if status.LastRunID != "" {
			fmt.Printf("Last run:   %s at %s\n", status.LastRunID, status.LastRunTime.Format("2006-01-02 15:04:05"))
		}
		for table, size := range status.TableSizes {
			fmt.Printf("  %s: %d rows\n", table, size)
		}
		return nil
	},
}

var runsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the run tracking tables to a schema version.",
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

		if cfg.TrackingDSN == "" {
			return fmt.Errorf("no tracking database configured, set --tracking-db-connect")
		}
		conn, err := pool.Open(rootCtx, "tracking", cfg.TrackingDSN)
		if err != nil {
			return err
		}
		target := viper.GetInt("schema-version")
		if err := store.Migrate(cfg.Backend, conn.DB(), target); err != nil {
			return err
		}
		fmt.Println("✅ Migration complete")
		return nil
	},
}

var runsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the tracked run history to a Parquet file.",
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

		rs, err := trackingStore(pool)
		if err != nil {
			return err
		}
		runs, err := rs.Runs(rootCtx)
		if err != nil {
			return err
		}
		out := viper.GetString("output-file")
		if err := report.WriteRunsParquet(runs, out); err != nil {
			return err
		}
		fmt.Printf("📦 Exported %d runs to %s\n", len(runs), out)
		return nil
	},
}
