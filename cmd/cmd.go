// Package cmd defines the command-line interface for vizpulse.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vizpulse/vizpulse/internal"
	"github.com/vizpulse/vizpulse/schema"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(topCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the runs subcommands to the parent runs command
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsStatusCmd)
	runsCmd.AddCommand(runsMigrateCmd)
	runsCmd.AddCommand(runsExportCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("config", "", "Path to config file (defaults to .vizpulse.yaml)")
	rootCmd.PersistentFlags().String("backend", string(schema.MySQLBackend), "Database backend: mysql or postgresql or sqlite")
	rootCmd.PersistentFlags().String("scm-db-connect", "", "Connection string for the commit database")
	rootCmd.PersistentFlags().String("its-db-connect", "", "Connection string for the issue database")
	rootCmd.PersistentFlags().String("mls-db-connect", "", "Connection string for the mailing list database")
	rootCmd.PersistentFlags().String("scr-db-connect", "", "Connection string for the code review database")
	rootCmd.PersistentFlags().String("tracking-db-connect", "", "Connection string for the run tracking database")
	rootCmd.PersistentFlags().String("sources", "", "Comma-separated data sources to report on (scm,its,mls,scr)")
	rootCmd.PersistentFlags().String("period", string(schema.Month), "Time series period: year or month or week")
	rootCmd.PersistentFlags().String("start", "", "Report interval start date (YYYY-MM-DD)")
	rootCmd.PersistentFlags().String("end", "", "Report interval end date, exclusive (YYYY-MM-DD)")
	rootCmd.PersistentFlags().String("destdir", "report", "Directory the JSON report files are written to")
	rootCmd.PersistentFlags().IntP("limit", "l", internal.DefaultResultLimit, "Number of entries in top lists")
	rootCmd.PersistentFlags().String("windows", "", "Comma-separated trailing windows in days for top lists (0 = whole interval)")
	rootCmd.PersistentFlags().Bool("author-date", false, "Bucket commits on author date instead of commit date")
	rootCmd.PersistentFlags().Bool("no-merges", false, "Drop merge commits from commit metrics")
	rootCmd.PersistentFlags().Bool("raw-people", false, "Group by raw person records instead of resolved identities")
	rootCmd.PersistentFlags().String("closed-states", "", "Comma-separated issue states counted as closed")
	rootCmd.PersistentFlags().String("repositories", "", "Comma-separated repositories to report per item")
	rootCmd.PersistentFlags().String("organizations", "", "Comma-separated organizations to report per item")
	rootCmd.PersistentFlags().Bool("parquet", false, "Also export the tracked run history as Parquet")
	rootCmd.PersistentFlags().String("rscript", "", "R script to run after the JSON files are written")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose run progress logging")

	// Per-command flags
	serveCmd.Flags().String("addr", ":8080", "Address the HTTP API listens on")
	topCmd.Flags().Int("window", 0, "Trailing window in days ending at the interval end (0 = whole interval)")
	runsMigrateCmd.Flags().Int("schema-version", -1, "Target schema version (-1 latest, 0 rolls everything back)")
	runsExportCmd.Flags().String("output-file", "vizpulse_runs.parquet", "Path of the Parquet export")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		internal.FatalError("failed to bind flags", err)
	}
}
