package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawResultListWrapsScalar(t *testing.T) {
	r := RawResult{"n": int64(7)}

	list, err := r.List("n")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(7)}, list)
}

func TestRawResultScalar(t *testing.T) {
	tests := []struct {
		name        string
		result      RawResult
		col         string
		expected    any
		expectError bool
	}{
		{name: "plain scalar", result: RawResult{"n": int64(3)}, col: "n", expected: int64(3)},
		{name: "empty list means no rows", result: RawResult{"n": []any{}}, col: "n", expected: nil},
		{name: "multi-row list is rejected", result: RawResult{"n": []any{1, 2}}, col: "n", expectError: true},
		{name: "missing column", result: RawResult{}, col: "n", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := tt.result.Scalar(tt.col)
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, v)
		})
	}
}

func TestRawResultFloat(t *testing.T) {
	r := RawResult{"count": []byte("42"), "none": []any{}}

	f, ok, err := r.Float("count")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 42.0, f)

	f, ok, err = r.Float("none")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0.0, f)
}

func TestRawResultFloats(t *testing.T) {
	r := RawResult{"commits": []any{int64(4), []byte("1"), 2.5}}

	fs, err := r.Floats("commits")
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 1, 2.5}, fs)

	_, err = r.Floats("missing")
	require.Error(t, err)
}

func TestRawResultStrings(t *testing.T) {
	r := RawResult{"name": []any{"Alice", []byte("Bob")}}

	ss, err := r.Strings("name")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Bob"}, ss)
}

func TestAsFloat(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expected    float64
		expectError bool
	}{
		{name: "nil is zero", input: nil, expected: 0},
		{name: "int64", input: int64(5), expected: 5},
		{name: "bytes", input: []byte("3.25"), expected: 3.25},
		{name: "string", input: "12", expected: 12},
		{name: "garbage bytes", input: []byte("many"), expectError: true},
		{name: "unsupported type", input: struct{}{}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := AsFloat(tt.input)
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, f)
		})
	}
}

func TestAsTime(t *testing.T) {
	want := time.Date(2014, time.January, 2, 15, 4, 5, 0, time.UTC)

	got, err := AsTime(want)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = AsTime("2014-01-02 15:04:05")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = AsTime([]byte("2014-01-02"))
	require.NoError(t, err)
	assert.Equal(t, date(2014, time.January, 2), got)

	_, err = AsTime("not a date")
	require.Error(t, err)
}
