package outwriter

import (
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/vizpulse/vizpulse/core"
)

// WriteCatalog renders the metric definitions of every datasource.
func (ow *OutWriter) WriteCatalog(w io.Writer, catalog *core.Catalog) error {
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header([]string{"Source", "ID", "Name", "Description"})

	maxWidth := ow.maxIdentifierWidth()
	var data [][]string
	for _, ds := range catalog.Sources() {
		for _, m := range ds.Metrics() {
			info := m.Info()
			data = append(data, []string{
				string(ds.Kind()),
				info.ID,
				info.Name,
				truncate(info.Description, maxWidth),
			})
		}
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
