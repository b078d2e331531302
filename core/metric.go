package core

import (
	"context"
	"fmt"

	"github.com/vizpulse/vizpulse/core/build"
	"github.com/vizpulse/vizpulse/core/reshape"
	"github.com/vizpulse/vizpulse/schema"
)

// condsFunc builds the datasource conditions for a filter set. The date
// expression is the metric's own event date so that e.g. merged and
// submitted review counts window on different columns.
type condsFunc func(f Filters, dateExpr string) ([]build.Condition, error)

// queryMetric is a metric backed by a single counting query. The
// datasource factories fill in the column expression, the base tables and
// the condition builder; everything else is shared plumbing.
type queryMetric struct {
	info       MetricInfo
	source     schema.DataSourceKind
	querier    Querier
	dialect    build.Dialect
	column     string
	requires   []string
	baseTables []string
	dateOf     func(f Filters) string
	conds      condsFunc
	extra      []build.Condition // metric-specific joins, e.g. identity resolution
}

// staticDate is a dateOf for metrics with a fixed event date column.
func staticDate(expr string) func(Filters) string {
	return func(Filters) string { return expr }
}

var _ Metric = &queryMetric{} // Compile-time check

func (m *queryMetric) Info() MetricInfo              { return m.info }
func (m *queryMetric) Source() schema.DataSourceKind { return m.source }

func (m *queryMetric) builder(f Filters) (*build.Builder, error) {
	conds, err := m.conds(f, m.dateOf(f))
	if err != nil {
		return nil, err
	}
	b := build.NewBuilder(m.dialect).
		FromTables(m.baseTables...).
		Apply(m.extra...).
		Apply(conds...)
	return b, nil
}

func (m *queryMetric) Agg(ctx context.Context, f Filters) (schema.Aggregate, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	b, err := m.builder(f)
	if err != nil {
		return nil, err
	}
	b.Aggregate().SelectField(m.column, m.info.ID, m.requires...)
	v, err := runScalar(ctx, m.querier, b, m.info.ID)
	if err != nil {
		return nil, err
	}
	return schema.Aggregate{m.info.ID: v}, nil
}

func (m *queryMetric) Timeseries(ctx context.Context, f Filters) (schema.TimeSeries, error) {
	if err := f.Validate(); err != nil {
		return schema.TimeSeries{}, err
	}
	b, err := m.builder(f)
	if err != nil {
		return schema.TimeSeries{}, err
	}
	b.SelectField(m.column, m.info.ID, m.requires...).
		GroupByPeriod(f.Period, m.dateOf(f), m.baseTables...)
	return runSeries(ctx, m.querier, b, f, m.info.ID)
}

// topSpec describes how a ranked list groups the metric by contributor:
// the identity join plus the id and display name expressions.
type topSpec struct {
	tables   []string
	filters  []build.Filter
	idExpr   string
	nameExpr string
	requires []string
}

// rankedMetric is a queryMetric that also produces top contributor lists.
type rankedMetric struct {
	*queryMetric
	top topSpec
}

var _ TopMetric = &rankedMetric{} // Compile-time check

func (m *rankedMetric) Top(ctx context.Context, f Filters, limit, windowDays int) (schema.TopList, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("top limit must be positive, got %d", limit)
	}
	// windowDays narrows the interval to the trailing window before the
	// filter end date
	tf := f
	if windowDays > 0 {
		tf.Start = f.End.AddDate(0, 0, -windowDays)
		if tf.Start.Before(f.Start) {
			tf.Start = f.Start
		}
	}
	b, err := m.builder(tf)
	if err != nil {
		return nil, err
	}
	b.SelectField(m.top.idExpr, "id", m.top.requires...).
		SelectField(m.top.nameExpr, "identifier", m.top.requires...).
		SelectField(m.column, "count", m.requires...).
		FromTables(m.top.tables...)
	for _, flt := range m.top.filters {
		b.Where(flt.Expr, flt.Args, flt.Requires...)
	}
	b.GroupBy(m.top.idExpr, m.top.nameExpr).
		OrderBy("count DESC", "identifier").
		Limit(limit)
	return runTop(ctx, m.querier, b)
}

// derivedMetric combines the results of constituent metrics element-wise.
// Its time series inherits the shape checks of reshape.Combine, so
// constituent series of different lengths fail instead of misaligning.
type derivedMetric struct {
	info   MetricInfo
	source schema.DataSourceKind
	terms  []Metric
	fn     func(vals map[string]float64) float64
}

var _ Metric = &derivedMetric{} // Compile-time check

func (m *derivedMetric) Info() MetricInfo              { return m.info }
func (m *derivedMetric) Source() schema.DataSourceKind { return m.source }

func (m *derivedMetric) Agg(ctx context.Context, f Filters) (schema.Aggregate, error) {
	vals := make(map[string]float64, len(m.terms))
	for _, term := range m.terms {
		agg, err := term.Agg(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("term %s: %w", term.Info().ID, err)
		}
		vals[term.Info().ID] = agg[term.Info().ID]
	}
	return schema.Aggregate{m.info.ID: m.fn(vals)}, nil
}

func (m *derivedMetric) Timeseries(ctx context.Context, f Filters) (schema.TimeSeries, error) {
	var all []schema.TimeSeries
	for _, term := range m.terms {
		ts, err := term.Timeseries(ctx, f)
		if err != nil {
			return schema.TimeSeries{}, fmt.Errorf("term %s: %w", term.Info().ID, err)
		}
		all = append(all, ts)
	}
	combined, err := reshape.Combine(all...)
	if err != nil {
		return schema.TimeSeries{}, err
	}
	out, err := schema.NewTimeSeries(combined.Period, combined.Start, combined.End, m.info.ID)
	if err != nil {
		return schema.TimeSeries{}, err
	}
	vals := make(map[string]float64, len(m.terms))
	for i := range combined.Dates {
		for _, term := range m.terms {
			vals[term.Info().ID] = combined.Series[term.Info().ID][i]
		}
		out.Series[m.info.ID][i] = m.fn(vals)
	}
	return out, nil
}
