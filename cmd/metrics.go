package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/vizpulse/vizpulse/core"
	"github.com/vizpulse/vizpulse/core/build"
	"github.com/vizpulse/vizpulse/internal/outwriter"
	"github.com/vizpulse/vizpulse/schema"
)

// metricsCmd lists the metric definitions. Definitions are static, so no
// database connection is made.
var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "List every metric with its datasource, id and description.",
	RunE: func(_ *cobra.Command, _ []string) error {
		dialect, err := build.DialectFor(schema.MySQLBackend)
		if err != nil {
			return err
		}
		catalog, err := core.NewCatalog(
			core.NewSCM(nil, dialect, schema.DefaultSCMTables()),
			core.NewITS(nil, dialect, schema.DefaultITSTables(), nil),
			core.NewMLS(nil, dialect, schema.DefaultMLSTables()),
			core.NewSCR(nil, dialect, schema.DefaultSCRTables()),
		)
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteCatalog(os.Stdout, catalog)
	},
}
