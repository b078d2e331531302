package schema

import (
	"fmt"
	"time"
)

// RawResult maps a result column name to its value(s). The shape depends on
// the row count of the query that produced it:
//
//   - zero rows: every column maps to an empty []any
//   - one row: every column maps to a scalar
//   - n rows: every column maps to an []any of length n
//
// The scalar/list asymmetry is a deliberate contract carried over from the
// collector tooling this system replaces; the reshaping layer depends on it.
type RawResult map[string]any

// List returns the values of a column, wrapping a scalar into a one-element
// slice so that multi-row processing code can treat all shapes uniformly.
func (r RawResult) List(col string) ([]any, error) {
	v, ok := r[col]
	if !ok {
		return nil, fmt.Errorf("column %q not in result", col)
	}
	if list, ok := v.([]any); ok {
		return list, nil
	}
	return []any{v}, nil
}

// Scalar returns the single value of a column. It errors when the column
// holds a list, since silently taking the first element would hide a query
// returning more rows than the caller expects.
func (r RawResult) Scalar(col string) (any, error) {
	v, ok := r[col]
	if !ok {
		return nil, fmt.Errorf("column %q not in result", col)
	}
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return nil, nil
		}
		return nil, fmt.Errorf("column %q holds %d values, want scalar", col, len(list))
	}
	return v, nil
}

// Float returns a column's scalar as float64, with nil (zero rows or SQL
// NULL) reported as 0 and ok=false.
func (r RawResult) Float(col string) (float64, bool, error) {
	v, err := r.Scalar(col)
	if err != nil {
		return 0, false, err
	}
	if v == nil {
		return 0, false, nil
	}
	f, err := AsFloat(v)
	if err != nil {
		return 0, false, fmt.Errorf("column %q: %w", col, err)
	}
	return f, true, nil
}

// Floats returns a column as a float64 slice, converting driver types.
func (r RawResult) Floats(col string) ([]float64, error) {
	list, err := r.List(col)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(list))
	for _, v := range list {
		f, err := AsFloat(v)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col, err)
		}
		out = append(out, f)
	}
	return out, nil
}

// Ints is like Floats but for integral columns such as period keys.
func (r RawResult) Ints(col string) ([]int, error) {
	fs, err := r.Floats(col)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(fs))
	for i, f := range fs {
		out[i] = int(f)
	}
	return out, nil
}

// Strings returns a column as a string slice.
func (r RawResult) Strings(col string) ([]string, error) {
	list, err := r.List(col)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		out = append(out, AsString(v))
	}
	return out, nil
}

// AsFloat converts a database driver value to float64.
func AsFloat(v any) (float64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case []byte:
		var f float64
		if _, err := fmt.Sscanf(string(x), "%g", &f); err != nil {
			return 0, fmt.Errorf("cannot parse %q as number", string(x))
		}
		return f, nil
	case string:
		var f float64
		if _, err := fmt.Sscanf(x, "%g", &f); err != nil {
			return 0, fmt.Errorf("cannot parse %q as number", x)
		}
		return f, nil
	}
	return 0, fmt.Errorf("cannot convert %T to number", v)
}

// AsString converts a database driver value to a string.
func AsString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339)
	}
	return fmt.Sprint(v)
}

// AsTime converts a database driver value to time.Time. Drivers configured
// with parseTime return time.Time directly; SQLite returns text.
func AsTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case string:
		return parseDBTime(x)
	case []byte:
		return parseDBTime(string(x))
	}
	return time.Time{}, fmt.Errorf("cannot convert %T to time", v)
}

func parseDBTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.DateTime, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as time", s)
}
