package report

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

// ScriptRunner invokes an external statistics script after the JSON
// files are written. The script receives the interval and the report
// directory and owns everything past that point.
type ScriptRunner interface {
	RunScript(ctx context.Context, start, end time.Time, destdir string) error
}

// RScript runs an R script through Rscript.
type RScript struct {
	Path string
}

var _ ScriptRunner = &RScript{}

// RunScript executes `Rscript <path> <start> <end> <destdir>`.
func (r *RScript) RunScript(ctx context.Context, start, end time.Time, destdir string) error {
	cmd := exec.CommandContext(ctx, "Rscript", r.Path,
		start.Format(time.DateOnly), end.Format(time.DateOnly), destdir)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("rscript %s failed: %w\n%s", r.Path, err, out)
	}
	return nil
}
