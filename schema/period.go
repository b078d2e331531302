package schema

import (
	"fmt"
	"time"
)

// Period is the granularity used to bucket time series.
type Period string

// Supported period granularities.
const (
	Year  Period = "year"
	Month Period = "month"
	Week  Period = "week"
)

// Valid reports whether p names a known granularity.
func (p Period) Valid() bool {
	switch p {
	case Year, Month, Week:
		return true
	}
	return false
}

// Truncate returns the start of the bucket containing t.
// Weeks are ISO weeks and start on Monday.
func (p Period) Truncate(t time.Time) time.Time {
	switch p {
	case Year:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location())
	case Month:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	case Week:
		shift := (int(t.Weekday()) + 6) % 7 // days since Monday
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		return d.AddDate(0, 0, -shift)
	}
	return t
}

// Next returns the start of the bucket following the one starting at t.
func (p Period) Next(t time.Time) time.Time {
	switch p {
	case Year:
		return t.AddDate(1, 0, 0)
	case Month:
		return t.AddDate(0, 1, 0)
	case Week:
		return t.AddDate(0, 0, 7)
	}
	return t
}

// Label formats the bucket starting at t for JSON output and logs,
// e.g. "2014", "2014-01" or "2014-W05".
func (p Period) Label(t time.Time) string {
	switch p {
	case Year:
		return fmt.Sprintf("%04d", t.Year())
	case Month:
		return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
	case Week:
		y, w := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", y, w)
	}
	return t.Format("2006-01-02")
}

// BucketKey returns the (year, sub) pair identifying the bucket starting
// at t, matching the period columns emitted by evolutionary queries.
// For Year the sub component is always 1.
func (p Period) BucketKey(t time.Time) (int, int) {
	switch p {
	case Year:
		return t.Year(), 1
	case Month:
		return t.Year(), int(t.Month())
	case Week:
		y, w := t.ISOWeek()
		return y, w
	}
	return t.Year(), 1
}

// Buckets returns the start of every bucket in the half-open interval
// [start, end), ascending. A degenerate interval with start == end still
// yields the single bucket containing start, so that gap-filled series
// are never empty for a valid request.
func (p Period) Buckets(start, end time.Time) ([]time.Time, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("unknown period %q", string(p))
	}
	if start.After(end) {
		return nil, fmt.Errorf("period interval start %s after end %s",
			start.Format(time.DateOnly), end.Format(time.DateOnly))
	}
	var out []time.Time
	for t := p.Truncate(start); t.Before(end); t = p.Next(t) {
		out = append(out, t)
	}
	if len(out) == 0 {
		out = append(out, p.Truncate(start))
	}
	return out, nil
}
