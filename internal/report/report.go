// Package report turns metric catalogs into the JSON files a dashboard
// front end consumes. One run walks datasources, dimensions and metrics
// and emits one file per metric family and dimension value.
package report

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vizpulse/vizpulse/core"
	"github.com/vizpulse/vizpulse/internal/store"
	"github.com/vizpulse/vizpulse/schema"
)

// ActivityLister is implemented by datasources that can list per-person
// first and last activity (demographics).
type ActivityLister interface {
	Activity(ctx context.Context, f core.Filters) (schema.ActivityList, error)
}

// Tracker records runs and emitted files. It is satisfied by
// store.RunStore; a nil Tracker disables tracking.
type Tracker interface {
	Begin(ctx context.Context, startedAt time.Time, period, startDate, endDate, destination string, configParams map[string]any) (string, error)
	Finish(ctx context.Context, runID string, finishedAt time.Time) error
	RecordFile(ctx context.Context, runID string, source schema.DataSourceKind, filename string, writtenAt time.Time) error
}

var _ Tracker = &store.RunStore{}

// Runner drives one full report run.
type Runner struct {
	Sources []core.DataSource
	Filters core.Filters

	Destination string
	Limit       int
	WindowDays  []int

	// Dimension items. Each produces its own evolutionary and static
	// files scoped to the item.
	Repositories  []string
	Organizations []string

	Tracker Tracker
	Log     *zap.Logger
}

// Result summarizes one run.
type Result struct {
	RunID string
	Files []string
}

func (r *Runner) logger() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}

// Run writes every report file and returns their names relative to the
// destination directory.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	if err := r.Filters.Validate(); err != nil {
		return Result{}, err
	}
	if len(r.WindowDays) == 0 {
		r.WindowDays = []int{0}
	}

	res := Result{}
	startedAt := time.Now()
	if r.Tracker != nil {
		runID, err := r.Tracker.Begin(ctx, startedAt,
			string(r.Filters.Period),
			r.Filters.Start.Format(time.DateOnly), r.Filters.End.Format(time.DateOnly),
			r.Destination,
			map[string]any{"limit": r.Limit, "windows": r.WindowDays})
		if err != nil {
			return Result{}, fmt.Errorf("run tracking: %w", err)
		}
		res.RunID = runID
	}

	for _, ds := range r.Sources {
		files, err := r.runSource(ctx, ds, res.RunID)
		if err != nil {
			return res, fmt.Errorf("datasource %s: %w", ds.Kind(), err)
		}
		res.Files = append(res.Files, files...)
	}

	if r.Tracker != nil {
		if err := r.Tracker.Finish(ctx, res.RunID, time.Now()); err != nil {
			return res, fmt.Errorf("run tracking: %w", err)
		}
	}
	r.logger().Info("report complete",
		zap.String("run_id", res.RunID),
		zap.Int("files", len(res.Files)),
		zap.Duration("elapsed", time.Since(startedAt)))
	return res, nil
}

// runSource emits the whole-project files, the top lists and the
// per-dimension files of one datasource.
func (r *Runner) runSource(ctx context.Context, ds core.DataSource, runID string) ([]string, error) {
	var files []string
	emit := func(name string, v any) error {
		if err := WriteJSONFile(r.Destination, name, v); err != nil {
			return err
		}
		files = append(files, name)
		if r.Tracker != nil {
			if err := r.Tracker.RecordFile(ctx, runID, ds.Kind(), name, time.Now()); err != nil {
				return fmt.Errorf("run tracking: %w", err)
			}
		}
		r.logger().Debug("wrote report file",
			zap.String("source", string(ds.Kind())), zap.String("file", name))
		return nil
	}

	kind := string(ds.Kind())

	ts, err := core.TimeseriesAll(ctx, ds, r.Filters)
	if err != nil {
		return files, err
	}
	if err := emit(kind+"-evolutionary.json", ts); err != nil {
		return files, err
	}

	agg, err := core.AggAll(ctx, ds, r.Filters)
	if err != nil {
		return files, err
	}
	if err := emit(kind+"-static.json", agg); err != nil {
		return files, err
	}

	for _, days := range r.WindowDays {
		for _, m := range ds.Metrics() {
			tm, ok := m.(core.TopMetric)
			if !ok {
				continue
			}
			list, err := tm.Top(ctx, r.Filters, r.Limit, days)
			if err != nil {
				return files, fmt.Errorf("metric %s: %w", m.Info().ID, err)
			}
			name := fmt.Sprintf("%s-top-%s.json", kind, m.Info().ID)
			if days > 0 {
				name = fmt.Sprintf("%s-top-%s-%dd.json", kind, m.Info().ID, days)
			}
			if err := emit(name, list); err != nil {
				return files, err
			}
		}
	}

	if al, ok := ds.(ActivityLister); ok {
		list, err := al.Activity(ctx, r.Filters)
		if err != nil {
			return files, err
		}
		if err := emit(kind+"-demographics.json", list); err != nil {
			return files, err
		}
	}

	dims := []struct {
		name  string
		items []string
		apply func(f *core.Filters, item string)
	}{
		{"repository", r.Repositories, func(f *core.Filters, item string) { f.Repository = item }},
		{"organization", r.Organizations, func(f *core.Filters, item string) { f.Organization = item }},
	}
	for _, dim := range dims {
		for _, item := range dim.items {
			f := r.Filters
			dim.apply(&f, item)
			slug := Slug(item)

			ts, err := core.TimeseriesAll(ctx, ds, f)
			if err != nil {
				return files, fmt.Errorf("%s %s: %w", dim.name, item, err)
			}
			if err := emit(fmt.Sprintf("%s-%s-%s-evolutionary.json", kind, dim.name, slug), ts); err != nil {
				return files, err
			}

			agg, err := core.AggAll(ctx, ds, f)
			if err != nil {
				return files, fmt.Errorf("%s %s: %w", dim.name, item, err)
			}
			if err := emit(fmt.Sprintf("%s-%s-%s-static.json", kind, dim.name, slug), agg); err != nil {
				return files, err
			}
		}
	}

	return files, nil
}
