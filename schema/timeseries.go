package schema

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimeSeries is a gap-filled, period-bucketed series of one or more metric
// columns. Every bucket in the requested [start, end) interval is present,
// in ascending order, with zero values where the raw query had no rows.
type TimeSeries struct {
	Period Period
	Start  time.Time
	End    time.Time
	Dates  []time.Time          // bucket starts, ascending
	Series map[string][]float64 // metric column -> one value per bucket
}

// NewTimeSeries returns a zero-filled series covering [start, end) with the
// given metric columns.
func NewTimeSeries(p Period, start, end time.Time, cols ...string) (TimeSeries, error) {
	dates, err := p.Buckets(start, end)
	if err != nil {
		return TimeSeries{}, err
	}
	ts := TimeSeries{
		Period: p,
		Start:  start,
		End:    end,
		Dates:  dates,
		Series: make(map[string][]float64, len(cols)),
	}
	for _, c := range cols {
		ts.Series[c] = make([]float64, len(dates))
	}
	return ts, nil
}

// Len returns the number of buckets.
func (ts TimeSeries) Len() int { return len(ts.Dates) }

// Labels returns the formatted bucket labels, ascending.
func (ts TimeSeries) Labels() []string {
	out := make([]string, len(ts.Dates))
	for i, d := range ts.Dates {
		out[i] = ts.Period.Label(d)
	}
	return out
}

// Column returns the values of one metric column.
func (ts TimeSeries) Column(name string) ([]float64, error) {
	vs, ok := ts.Series[name]
	if !ok {
		return nil, fmt.Errorf("series has no column %q", name)
	}
	return vs, nil
}

// SetAt stores a value for the bucket containing t. Values outside the
// series interval are ignored: the database may hold events past the
// requested end date and the gap-filled shape must not grow for them.
func (ts TimeSeries) SetAt(col string, t time.Time, v float64) {
	key := ts.Period.Truncate(t)
	for i, d := range ts.Dates {
		if d.Equal(key) {
			ts.Series[col][i] = v
			return
		}
	}
}

// MarshalJSON renders the column-oriented shape the dashboard consumes:
// the period name maps to the bucket labels, "unixtime" to bucket start
// epochs, and each metric column to its value array.
func (ts TimeSeries) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(ts.Series)+2)
	doc[string(ts.Period)] = ts.Labels()
	unix := make([]int64, len(ts.Dates))
	for i, d := range ts.Dates {
		unix[i] = d.Unix()
	}
	doc["unixtime"] = unix
	for name, vals := range ts.Series {
		doc[name] = vals
	}
	return json.Marshal(doc)
}

// Aggregate is the flat result of an aggregate-mode metric query:
// metric name to scalar value.
type Aggregate map[string]float64

// Merge folds other into a, returning a for chaining. Later values win on
// duplicate names, which does not happen for well-formed metric catalogs.
func (a Aggregate) Merge(other Aggregate) Aggregate {
	for k, v := range other {
		a[k] = v
	}
	return a
}

// TopEntry is one row of a ranked contributor list.
type TopEntry struct {
	ID         string  `json:"id"`         // unique identity id
	Identifier string  `json:"identifier"` // resolved display name
	Count      float64 `json:"count"`
}

// TopList is a ranked contributor list, ordered by count descending with
// identifier ascending as the deterministic tie-break.
type TopList []TopEntry

// MarshalJSON renders the column-oriented shape the dashboard consumes.
func (tl TopList) MarshalJSON() ([]byte, error) {
	ids := make([]string, len(tl))
	names := make([]string, len(tl))
	counts := make([]float64, len(tl))
	for i, e := range tl {
		ids[i] = e.ID
		names[i] = e.Identifier
		counts[i] = e.Count
	}
	return json.Marshal(map[string]any{
		"id":         ids,
		"identifier": names,
		"count":      counts,
	})
}
