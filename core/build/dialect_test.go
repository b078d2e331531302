package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vizpulse/vizpulse/schema"
)

func TestDialectFor(t *testing.T) {
	tests := []struct {
		backend  schema.DatabaseBackend
		expected string
	}{
		{schema.MySQLBackend, "mysql"},
		{schema.PostgreSQLBackend, "postgres"},
		{schema.SQLiteBackend, "sqlite"},
	}
	for _, tt := range tests {
		d, err := DialectFor(tt.backend)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, d.Name())
	}

	_, err := DialectFor(schema.DatabaseBackend("oracle"))
	require.Error(t, err)
}

func TestPeriodKeyExprs(t *testing.T) {
	tests := []struct {
		name         string
		backend      schema.DatabaseBackend
		period       schema.Period
		expectedYear string
		expectedSub  string
	}{
		{
			name:         "mysql month",
			backend:      schema.MySQLBackend,
			period:       schema.Month,
			expectedYear: "YEAR(d)",
			expectedSub:  "MONTH(d)",
		},
		{
			name:         "mysql iso week",
			backend:      schema.MySQLBackend,
			period:       schema.Week,
			expectedYear: "YEARWEEK(d, 3) DIV 100",
			expectedSub:  "WEEK(d, 3)",
		},
		{
			name:         "sqlite month",
			backend:      schema.SQLiteBackend,
			period:       schema.Month,
			expectedYear: "CAST(strftime('%Y', d) AS INTEGER)",
			expectedSub:  "CAST(strftime('%m', d) AS INTEGER)",
		},
		{
			name:         "sqlite iso week",
			backend:      schema.SQLiteBackend,
			period:       schema.Week,
			expectedYear: "CAST(strftime('%G', d) AS INTEGER)",
			expectedSub:  "CAST(strftime('%V', d) AS INTEGER)",
		},
		{
			name:         "postgres year",
			backend:      schema.PostgreSQLBackend,
			period:       schema.Year,
			expectedYear: "EXTRACT(YEAR FROM d)::int",
			expectedSub:  "1",
		},
		{
			name:         "postgres iso week",
			backend:      schema.PostgreSQLBackend,
			period:       schema.Week,
			expectedYear: "EXTRACT(ISOYEAR FROM d)::int",
			expectedSub:  "EXTRACT(WEEK FROM d)::int",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := mustDialect(t, tt.backend)
			yearExpr, subExpr := d.PeriodKeyExprs(tt.period, "d")
			assert.Equal(t, tt.expectedYear, yearExpr)
			assert.Equal(t, tt.expectedSub, subExpr)
		})
	}
}

func TestDateDiffDaysExpr(t *testing.T) {
	assert.Equal(t, "DATEDIFF(b, a)",
		mustDialect(t, schema.MySQLBackend).DateDiffDaysExpr("a", "b"))
	assert.Equal(t, "CAST(julianday(b) - julianday(a) AS INTEGER)",
		mustDialect(t, schema.SQLiteBackend).DateDiffDaysExpr("a", "b"))
	assert.Equal(t, "(EXTRACT(EPOCH FROM (b - a)) / 86400)::int",
		mustDialect(t, schema.PostgreSQLBackend).DateDiffDaysExpr("a", "b"))
}

func TestRebind(t *testing.T) {
	query := "SELECT 1 FROM t WHERE a = ? AND b = ?"

	assert.Equal(t, query, mustDialect(t, schema.MySQLBackend).Rebind(query))
	assert.Equal(t, query, mustDialect(t, schema.SQLiteBackend).Rebind(query))
	assert.Equal(t, "SELECT 1 FROM t WHERE a = $1 AND b = $2",
		mustDialect(t, schema.PostgreSQLBackend).Rebind(query))
}
