package outwriter

import (
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/vizpulse/vizpulse/internal/store"
)

// WriteRuns renders the tracked report runs, oldest first.
func (ow *OutWriter) WriteRuns(w io.Writer, runs []store.RunRecord) error {
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header([]string{"Run", "Started", "Finished", "Period", "Interval"})

	var data [][]string
	for _, r := range runs {
		finished := "running"
		if r.FinishedAt != nil {
			finished = r.FinishedAt.Format("2006-01-02 15:04:05")
		}
		data = append(data, []string{
			r.RunID,
			r.StartedAt.Format("2006-01-02 15:04:05"),
			finished,
			r.Period,
			r.StartDate + " to " + r.EndDate,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
