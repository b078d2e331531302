package schema

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeSeriesZeroFilled(t *testing.T) {
	ts, err := NewTimeSeries(Month, date(2014, time.January, 1), date(2014, time.April, 1), "commits")
	require.NoError(t, err)

	assert.Equal(t, 3, ts.Len())
	col, err := ts.Column("commits")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, col)

	_, err = ts.Column("authors")
	require.Error(t, err)
}

func TestTimeSeriesSetAt(t *testing.T) {
	ts, err := NewTimeSeries(Month, date(2014, time.January, 1), date(2014, time.March, 1), "commits")
	require.NoError(t, err)

	ts.SetAt("commits", date(2014, time.January, 20), 4)
	ts.SetAt("commits", date(2014, time.February, 2), 1)
	// out of range values must not grow or shift the series
	ts.SetAt("commits", date(2014, time.June, 1), 99)

	col, err := ts.Column("commits")
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 1}, col)
}

func TestTimeSeriesMarshalJSON(t *testing.T) {
	ts, err := NewTimeSeries(Month, date(2014, time.January, 1), date(2014, time.March, 1), "commits")
	require.NoError(t, err)
	ts.SetAt("commits", date(2014, time.January, 5), 4)

	raw, err := json.Marshal(ts)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, []any{"2014-01", "2014-02"}, doc["month"])
	assert.Equal(t, []any{4.0, 0.0}, doc["commits"])
	require.Contains(t, doc, "unixtime")
	assert.Len(t, doc["unixtime"], 2)
}

func TestAggregateMerge(t *testing.T) {
	a := Aggregate{"ncommits": 4}
	b := Aggregate{"nauthors": 2}

	merged := a.Merge(b)
	assert.Equal(t, Aggregate{"ncommits": 4, "nauthors": 2}, merged)
}

func TestTopListMarshalJSON(t *testing.T) {
	tl := TopList{
		{ID: "u1", Identifier: "Alice", Count: 3},
		{ID: "u2", Identifier: "Bob", Count: 2},
	}

	raw, err := json.Marshal(tl)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, []any{"u1", "u2"}, doc["id"])
	assert.Equal(t, []any{"Alice", "Bob"}, doc["identifier"])
	assert.Equal(t, []any{3.0, 2.0}, doc["count"])
}
