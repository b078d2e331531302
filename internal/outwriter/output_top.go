package outwriter

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/vizpulse/vizpulse/schema"
)

// WriteTopList renders a ranked contributor list as a table.
func (ow *OutWriter) WriteTopList(w io.Writer, metricID string, list schema.TopList) error {
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header([]string{"Rank", "Identifier", "ID", metricID})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	highlight := fmt.Sprint
	if ow.UseColors {
		highlight = color.New(color.FgGreen).Sprint
	}

	maxWidth := ow.maxIdentifierWidth()
	var data [][]string
	for i, e := range list {
		ident := truncate(e.Identifier, maxWidth)
		if i == 0 {
			ident = highlight(ident)
		}
		data = append(data, []string{
			strconv.Itoa(i + 1),
			ident,
			e.ID,
			strconv.FormatInt(int64(e.Count), 10),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing top %d entries\n", len(list))
	return err
}
