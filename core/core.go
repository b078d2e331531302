// Package core computes activity metrics from collector databases. Each
// datasource family (SCM, ITS, MLS, SCR) exposes a catalog of metrics
// that compose parameterized queries, run them through an injected
// Querier and reshape the rows into aggregates, gap-filled time series
// and ranked contributor lists.
package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/vizpulse/vizpulse/core/build"
	"github.com/vizpulse/vizpulse/core/reshape"
	"github.com/vizpulse/vizpulse/schema"
)

// Querier runs one query and reshapes its rows into a RawResult. It is
// satisfied by store.Conn; tests substitute fakes.
type Querier interface {
	Query(ctx context.Context, query string, args ...any) (schema.RawResult, error)
}

// MetricInfo describes one metric for catalogs and command output.
type MetricInfo struct {
	ID          string
	Name        string
	Description string
}

// Metric is one measurable quantity of a datasource. Agg computes the
// whole-interval scalar keyed by the metric id; Timeseries computes the
// gap-filled period series with the metric id as its column.
type Metric interface {
	Info() MetricInfo
	Source() schema.DataSourceKind
	Agg(ctx context.Context, f Filters) (schema.Aggregate, error)
	Timeseries(ctx context.Context, f Filters) (schema.TimeSeries, error)
}

// TopMetric is a metric that also ranks contributors. A windowDays of
// zero ranks over the whole filter interval; otherwise the window is the
// windowDays days ending at the filter end date.
type TopMetric interface {
	Metric
	Top(ctx context.Context, f Filters, limit, windowDays int) (schema.TopList, error)
}

// DataSource is the uniform face of one metric family for the report
// orchestrator.
type DataSource interface {
	Kind() schema.DataSourceKind
	Metrics() []Metric
}

// Catalog indexes the metrics of several datasources by id.
type Catalog struct {
	sources []DataSource
	byID    map[string][]Metric
}

// NewCatalog builds a catalog, rejecting duplicate metric ids within a
// datasource. The same id may appear in several families (ITS and SCR
// both measure "closed"); such ids are looked up qualified.
func NewCatalog(sources ...DataSource) (*Catalog, error) {
	c := &Catalog{sources: sources, byID: make(map[string][]Metric)}
	for _, ds := range sources {
		for _, m := range ds.Metrics() {
			id := m.Info().ID
			for _, seen := range c.byID[id] {
				if seen.Source() == m.Source() {
					return nil, fmt.Errorf("duplicate metric id %q in %s", id, m.Source())
				}
			}
			c.byID[id] = append(c.byID[id], m)
		}
	}
	return c, nil
}

// Sources returns the datasources in registration order.
func (c *Catalog) Sources() []DataSource { return c.sources }

// Metric looks a metric up by id, or by "<source>.<id>" when the bare
// id is shared by more than one datasource.
func (c *Catalog) Metric(id string) (Metric, error) {
	if source, bare, ok := strings.Cut(id, "."); ok {
		for _, m := range c.byID[bare] {
			if string(m.Source()) == source {
				return m, nil
			}
		}
		return nil, fmt.Errorf("unknown metric %q", id)
	}
	ms := c.byID[id]
	switch len(ms) {
	case 0:
		return nil, fmt.Errorf("unknown metric %q", id)
	case 1:
		return ms[0], nil
	default:
		return nil, fmt.Errorf("metric id %q is ambiguous, qualify it as <source>.%s", id, id)
	}
}

// AggAll computes every metric of a datasource as one flat aggregate.
func AggAll(ctx context.Context, ds DataSource, f Filters) (schema.Aggregate, error) {
	out := schema.Aggregate{}
	for _, m := range ds.Metrics() {
		agg, err := m.Agg(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("metric %s: %w", m.Info().ID, err)
		}
		out.Merge(agg)
	}
	return out, nil
}

// TimeseriesAll computes every metric of a datasource as one combined
// series, one column per metric.
func TimeseriesAll(ctx context.Context, ds DataSource, f Filters) (schema.TimeSeries, error) {
	var all []schema.TimeSeries
	for _, m := range ds.Metrics() {
		ts, err := m.Timeseries(ctx, f)
		if err != nil {
			return schema.TimeSeries{}, fmt.Errorf("metric %s: %w", m.Info().ID, err)
		}
		all = append(all, ts)
	}
	return reshape.Combine(all...)
}

// TopAll computes the ranked list of every top-capable metric of a
// datasource, keyed by metric id.
func TopAll(ctx context.Context, ds DataSource, f Filters, limit, windowDays int) (map[string]schema.TopList, error) {
	out := make(map[string]schema.TopList)
	for _, m := range ds.Metrics() {
		tm, ok := m.(TopMetric)
		if !ok {
			continue
		}
		top, err := tm.Top(ctx, f, limit, windowDays)
		if err != nil {
			return nil, fmt.Errorf("metric %s: %w", m.Info().ID, err)
		}
		out[m.Info().ID] = top
	}
	return out, nil
}

// runScalar renders and runs an aggregate query, reading one scalar
// column. A NULL or zero-row result reads as zero.
func runScalar(ctx context.Context, q Querier, b *build.Builder, col string) (float64, error) {
	query, args, err := b.Render()
	if err != nil {
		return 0, err
	}
	raw, err := q.Query(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("query failed: %w", err)
	}
	v, _, err := raw.Float(col)
	if err != nil {
		return 0, err
	}
	return v, nil
}

// runSeries renders and runs an evolutionary query, gap-filling the rows
// over the filter interval.
func runSeries(ctx context.Context, q Querier, b *build.Builder, f Filters, cols ...string) (schema.TimeSeries, error) {
	query, args, err := b.Render()
	if err != nil {
		return schema.TimeSeries{}, err
	}
	raw, err := q.Query(ctx, query, args...)
	if err != nil {
		return schema.TimeSeries{}, fmt.Errorf("query failed: %w", err)
	}
	return reshape.GapFill(raw, b.Period(), f.Start, f.End, cols...)
}

// runTop renders and runs a ranking query.
func runTop(ctx context.Context, q Querier, b *build.Builder) (schema.TopList, error) {
	query, args, err := b.Render()
	if err != nil {
		return nil, err
	}
	raw, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return reshape.ToTopList(raw)
}
