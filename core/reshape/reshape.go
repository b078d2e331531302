// Package reshape turns raw query results into the gap-filled series,
// activity lists and derived values the report layer emits.
package reshape

import (
	"fmt"
	"time"

	"github.com/vizpulse/vizpulse/core/build"
	"github.com/vizpulse/vizpulse/schema"
)

type bucketKey struct {
	year int
	sub  int
}

// GapFill expands the rows of an evolutionary query into a complete
// TimeSeries over [start, end). The raw result carries bucket key columns
// as emitted by build.Builder.GroupByPeriod plus one column per metric;
// buckets missing from the result come out zero, and rows outside the
// interval are dropped. GapFill(GapFill-shaped data) is a no-op: feeding
// the output buckets back in reproduces the same series.
func GapFill(raw schema.RawResult, p schema.Period, start, end time.Time, cols ...string) (schema.TimeSeries, error) {
	ts, err := schema.NewTimeSeries(p, start, end, cols...)
	if err != nil {
		return schema.TimeSeries{}, err
	}

	index := make(map[bucketKey]int, len(ts.Dates))
	for i, d := range ts.Dates {
		y, sub := p.BucketKey(d)
		index[bucketKey{y, sub}] = i
	}

	years, err := raw.Ints(build.PeriodYearColumn)
	if err != nil {
		return schema.TimeSeries{}, fmt.Errorf("gap fill: %w", err)
	}
	subs := make([]int, len(years))
	if p == schema.Year {
		for i := range subs {
			subs[i] = 1
		}
	} else {
		subs, err = raw.Ints(string(p))
		if err != nil {
			return schema.TimeSeries{}, fmt.Errorf("gap fill: %w", err)
		}
		if len(subs) != len(years) {
			return schema.TimeSeries{}, fmt.Errorf(
				"gap fill: %d year keys but %d %s keys", len(years), len(subs), string(p))
		}
	}

	for _, col := range cols {
		values, err := raw.Floats(col)
		if err != nil {
			return schema.TimeSeries{}, fmt.Errorf("gap fill: %w", err)
		}
		if len(values) != len(years) {
			return schema.TimeSeries{}, fmt.Errorf(
				"gap fill: column %q has %d values for %d buckets", col, len(values), len(years))
		}
		for i, v := range values {
			at, ok := index[bucketKey{years[i], subs[i]}]
			if !ok {
				continue // row outside the requested interval
			}
			ts.Series[col][at] = v
		}
	}

	return ts, nil
}

// Combine merges series over the same period and interval into one,
// taking the union of their columns. Mismatched bucket shapes or
// duplicate column names are errors.
func Combine(series ...schema.TimeSeries) (schema.TimeSeries, error) {
	if len(series) == 0 {
		return schema.TimeSeries{}, fmt.Errorf("combine: no series given")
	}
	first := series[0]
	out := schema.TimeSeries{
		Period: first.Period,
		Start:  first.Start,
		End:    first.End,
		Dates:  first.Dates,
		Series: make(map[string][]float64),
	}
	for _, ts := range series {
		if ts.Period != first.Period || ts.Len() != first.Len() {
			return schema.TimeSeries{}, fmt.Errorf(
				"combine: series shapes differ (%s/%d vs %s/%d)",
				first.Period, first.Len(), ts.Period, ts.Len())
		}
		for name, vals := range ts.Series {
			if _, exists := out.Series[name]; exists {
				return schema.TimeSeries{}, fmt.Errorf("combine: duplicate column %q", name)
			}
			out.Series[name] = vals
		}
	}
	return out, nil
}

// PercentageOf returns 100 * part / whole, failing on a zero whole.
func PercentageOf(part, whole float64) (float64, error) {
	if whole == 0 {
		return 0, fmt.Errorf("percentage of zero total")
	}
	return 100 * part / whole, nil
}

// ToActivityList reads the rows of an activity query into entries. The
// result must carry id, name, first_date and last_date columns.
func ToActivityList(raw schema.RawResult) (schema.ActivityList, error) {
	ids, err := raw.Strings("id")
	if err != nil {
		return nil, fmt.Errorf("activity list: %w", err)
	}
	names, err := raw.Strings("name")
	if err != nil {
		return nil, fmt.Errorf("activity list: %w", err)
	}
	firsts, err := raw.List("first_date")
	if err != nil {
		return nil, fmt.Errorf("activity list: %w", err)
	}
	lasts, err := raw.List("last_date")
	if err != nil {
		return nil, fmt.Errorf("activity list: %w", err)
	}
	if len(names) != len(ids) || len(firsts) != len(ids) || len(lasts) != len(ids) {
		return nil, fmt.Errorf("activity list: ragged columns")
	}

	out := make(schema.ActivityList, 0, len(ids))
	for i := range ids {
		first, err := schema.AsTime(firsts[i])
		if err != nil {
			return nil, fmt.Errorf("activity list row %d: %w", i, err)
		}
		last, err := schema.AsTime(lasts[i])
		if err != nil {
			return nil, fmt.Errorf("activity list row %d: %w", i, err)
		}
		out = append(out, schema.ActivityEntry{
			ID:        ids[i],
			Name:      names[i],
			FirstDate: first,
			LastDate:  last,
		})
	}
	return out, nil
}

// ToTopList reads the rows of a ranked contributor query. The result
// must carry id, identifier and count columns.
func ToTopList(raw schema.RawResult) (schema.TopList, error) {
	ids, err := raw.Strings("id")
	if err != nil {
		return nil, fmt.Errorf("top list: %w", err)
	}
	names, err := raw.Strings("identifier")
	if err != nil {
		return nil, fmt.Errorf("top list: %w", err)
	}
	counts, err := raw.Floats("count")
	if err != nil {
		return nil, fmt.Errorf("top list: %w", err)
	}
	if len(names) != len(ids) || len(counts) != len(ids) {
		return nil, fmt.Errorf("top list: ragged columns")
	}

	out := make(schema.TopList, 0, len(ids))
	for i := range ids {
		out = append(out, schema.TopEntry{ID: ids[i], Identifier: names[i], Count: counts[i]})
	}
	return out, nil
}
