package outwriter

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vizpulse/vizpulse/internal/store"
	"github.com/vizpulse/vizpulse/schema"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in       string
		width    int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly-ten", 11, "exactly-ten"},
		{"a-rather-long-identifier", 10, "a-rathe..."},
		{"abc", 2, "ab"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, truncate(tt.in, tt.width), tt.in)
	}
}

func TestMaxIdentifierWidth(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		expected int
	}{
		{name: "narrow floor", width: 40, expected: 15},
		{name: "mid range", width: 90, expected: 60},
		{name: "wide cap", width: 200, expected: 70},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ow := &OutWriter{Width: tt.width}
			assert.Equal(t, tt.expected, ow.maxIdentifierWidth())
		})
	}
}

func TestWriteTopList(t *testing.T) {
	ow := &OutWriter{Width: 100}
	var buf bytes.Buffer

	list := schema.TopList{
		{ID: "1", Identifier: "Alice", Count: 42},
		{ID: "2", Identifier: "Bob", Count: 17},
	}
	require.NoError(t, ow.WriteTopList(&buf, "ncommits", list))

	out := buf.String()
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "42")
	assert.Contains(t, out, "Bob")
	assert.Contains(t, out, "Showing top 2 entries")
	// rank order preserved
	assert.Less(t, strings.Index(out, "Alice"), strings.Index(out, "Bob"))
}

func TestWriteRuns(t *testing.T) {
	ow := &OutWriter{Width: 120}
	var buf bytes.Buffer

	finished := time.Date(2014, time.July, 1, 12, 30, 0, 0, time.UTC)
	runs := []store.RunRecord{
		{
			RunID:     "run-a",
			StartedAt: time.Date(2014, time.July, 1, 12, 0, 0, 0, time.UTC),
			Period:    "month",
			StartDate: "2014-01-01",
			EndDate:   "2014-07-01",
		},
		{
			RunID:      "run-b",
			StartedAt:  finished.Add(-time.Minute),
			FinishedAt: &finished,
			Period:     "week",
			StartDate:  "2014-06-01",
			EndDate:    "2014-07-01",
		},
	}
	require.NoError(t, ow.WriteRuns(&buf, runs))

	out := buf.String()
	assert.Contains(t, out, "run-a")
	assert.Contains(t, out, "running")
	assert.Contains(t, out, "2014-07-01 12:30:00")
	assert.Contains(t, out, "2014-01-01 to 2014-07-01")
}
