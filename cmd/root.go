package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vizpulse/vizpulse/core"
	"github.com/vizpulse/vizpulse/core/build"
	"github.com/vizpulse/vizpulse/internal"
	"github.com/vizpulse/vizpulse/internal/store"
	"github.com/vizpulse/vizpulse/schema"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &internal.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &internal.ConfigRawInput{}

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:                "vizpulse",
	Short:              "Extract repository activity metrics for dashboard front ends.",
	Long:               `VizPulse reads the databases written by commit, issue, mailing list and code review collectors and turns them into metrics: counts, time series and contributor rankings.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".vizpulse")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}

	viper.SetEnvPrefix("VIZPULSE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("backend", string(schema.MySQLBackend))
	viper.SetDefault("period", string(schema.Month))
	viper.SetDefault("limit", internal.DefaultResultLimit)
	viper.SetDefault("destdir", "report")
}

// sharedSetup unmarshals config and runs validation.
func sharedSetup(_ *cobra.Command, _ []string) error {
	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Run all validation and complex parsing.
	return internal.ProcessAndValidate(cfg, input)
}

// baseFilters translates the validated config into metric filters.
func baseFilters() core.Filters {
	f := core.Filters{
		Start:       cfg.StartTime,
		End:         cfg.EndTime,
		Period:      cfg.Period,
		NoMerges:    cfg.NoMerges,
		PersonsKind: cfg.Identities,
	}
	if cfg.AuthorDate {
		f.DateKind = schema.AuthorDate
	}
	return f
}

// openSources connects to every configured datasource database and
// wraps each in its metric family.
func openSources(ctx context.Context, pool *store.Pool) ([]core.DataSource, error) {
	dialect, err := build.DialectFor(cfg.Backend)
	if err != nil {
		return nil, err
	}
	var sources []core.DataSource
	for _, kind := range cfg.Sources {
		conn, err := pool.Open(ctx, string(kind), cfg.DSNs[kind])
		if err != nil {
			return nil, fmt.Errorf("datasource %s: %w", kind, err)
		}
		sources = append(sources, sourceFor(kind, conn, dialect))
	}
	return sources, nil
}

// sourceFor builds the metric family of one datasource kind.
func sourceFor(kind schema.DataSourceKind, q core.Querier, dialect build.Dialect) core.DataSource {
	switch kind {
	case schema.ITSSource:
		return core.NewITS(q, dialect, cfg.ITSTables, cfg.ClosedStates)
	case schema.MLSSource:
		return core.NewMLS(q, dialect, cfg.MLSTables)
	case schema.SCRSource:
		return core.NewSCR(q, dialect, cfg.SCRTables)
	default:
		return core.NewSCM(q, dialect, cfg.SCMTables)
	}
}

// openCatalog opens the datasource databases and indexes their metrics.
func openCatalog(ctx context.Context, pool *store.Pool) (*core.Catalog, error) {
	sources, err := openSources(ctx, pool)
	if err != nil {
		return nil, err
	}
	return core.NewCatalog(sources...)
}

// openTracking opens the run tracking store, if one is configured.
func openTracking(ctx context.Context, pool *store.Pool) (*store.RunStore, error) {
	if cfg.TrackingDSN == "" {
		return nil, nil
	}
	conn, err := pool.Open(ctx, "tracking", cfg.TrackingDSN)
	if err != nil {
		return nil, fmt.Errorf("tracking database: %w", err)
	}
	return store.NewRunStore(conn, cfg.Backend)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
