package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vizpulse/vizpulse/core/build"
	"github.com/vizpulse/vizpulse/schema"
)

// fakeQuerier records the rendered query and returns a canned result.
type fakeQuerier struct {
	lastQuery string
	lastArgs  []any
	result    schema.RawResult
	err       error
}

func (f *fakeQuerier) Query(_ context.Context, query string, args ...any) (schema.RawResult, error) {
	f.lastQuery = query
	f.lastArgs = args
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func baseFilters() Filters {
	return Filters{
		Start:  date(2014, time.January, 1),
		End:    date(2014, time.July, 1),
		Period: schema.Month,
	}
}

func mysqlDialect(t *testing.T) build.Dialect {
	t.Helper()
	d, err := build.DialectFor(schema.MySQLBackend)
	require.NoError(t, err)
	return d
}

func findMetric(t *testing.T, ds DataSource, id string) Metric {
	t.Helper()
	for _, m := range ds.Metrics() {
		if m.Info().ID == id {
			return m
		}
	}
	t.Fatalf("metric %q not in catalog", id)
	return nil
}

func TestSCMCommitsAggSQL(t *testing.T) {
	fq := &fakeQuerier{result: schema.RawResult{"ncommits": int64(42)}}
	scm := NewSCM(fq, mysqlDialect(t), schema.DefaultSCMTables())

	agg, err := findMetric(t, scm, "ncommits").Agg(context.Background(), baseFilters())
	require.NoError(t, err)

	assert.Equal(t, schema.Aggregate{"ncommits": 42}, agg)
	assert.Equal(t,
		"SELECT count(distinct(s.id)) AS ncommits FROM scmlog s"+
			" WHERE s.date >= ? AND s.date < ?", fq.lastQuery)
	assert.Equal(t, []any{"2014-01-01 00:00:00", "2014-07-01 00:00:00"}, fq.lastArgs)
}

func TestSCMAuthorsJoinsIdentities(t *testing.T) {
	fq := &fakeQuerier{result: schema.RawResult{"nauthors": int64(2)}}
	scm := NewSCM(fq, mysqlDialect(t), schema.DefaultSCMTables())

	_, err := findMetric(t, scm, "nauthors").Agg(context.Background(), baseFilters())
	require.NoError(t, err)

	assert.Contains(t, fq.lastQuery, "FROM scmlog s, people_upeople pup, upeople up")
	assert.Contains(t, fq.lastQuery, "s.author_id = pup.people_id")
	assert.Contains(t, fq.lastQuery, "pup.upeople_id = up.id")
}

func TestSCMPersonsIncludeExclude(t *testing.T) {
	fq := &fakeQuerier{result: schema.RawResult{"ncommits": int64(1)}}
	scm := NewSCM(fq, mysqlDialect(t), schema.DefaultSCMTables())

	f := baseFilters()
	f.InPersons = []string{"Alice", "Bob"}
	f.OutPersons = []string{"Bob"}
	f.PersonsRole = schema.Authors
	f.PersonsKind = schema.UniqueIdentities

	_, err := findMetric(t, scm, "ncommits").Agg(context.Background(), f)
	require.NoError(t, err)

	assert.Contains(t, fq.lastQuery, "s.author_id IN (SELECT pup_f.people_id")
	assert.Contains(t, fq.lastQuery, "s.author_id NOT IN (SELECT pup_f.people_id")
	assert.Contains(t, fq.lastQuery, "up_f.identifier IN (?, ?)")
	// include args then exclude args, in declaration order
	assert.Equal(t,
		[]any{"2014-01-01 00:00:00", "2014-07-01 00:00:00", "Alice", "Bob", "Bob"},
		fq.lastArgs)
}

func TestSCMPersonsRawPeople(t *testing.T) {
	fq := &fakeQuerier{result: schema.RawResult{"ncommits": int64(1)}}
	scm := NewSCM(fq, mysqlDialect(t), schema.DefaultSCMTables())

	f := baseFilters()
	f.InPersons = []string{"Alice"}
	f.PersonsKind = schema.RawPeople

	_, err := findMetric(t, scm, "ncommits").Agg(context.Background(), f)
	require.NoError(t, err)

	assert.Contains(t, fq.lastQuery, "SELECT p_f.id FROM people p_f WHERE p_f.name IN (?)")
	assert.NotContains(t, fq.lastQuery, "up_f.identifier")
}

func TestSCMOrganizationWindowsEnrollment(t *testing.T) {
	fq := &fakeQuerier{result: schema.RawResult{"ncommits": int64(1)}}
	scm := NewSCM(fq, mysqlDialect(t), schema.DefaultSCMTables())

	f := baseFilters()
	f.Organization = "Acme"

	_, err := findMetric(t, scm, "ncommits").Agg(context.Background(), f)
	require.NoError(t, err)

	assert.Contains(t, fq.lastQuery, "upeople_companies enr")
	assert.Contains(t, fq.lastQuery, "s.date >= enr.init AND s.date < enr.end")
	assert.Contains(t, fq.lastQuery, "org.name = ?")
}

func TestSCMTimeseriesSQLGroupsByPeriod(t *testing.T) {
	fq := &fakeQuerier{result: schema.RawResult{
		"year": []any{}, "month": []any{}, "ncommits": []any{},
	}}
	scm := NewSCM(fq, mysqlDialect(t), schema.DefaultSCMTables())

	ts, err := findMetric(t, scm, "ncommits").Timeseries(context.Background(), baseFilters())
	require.NoError(t, err)

	assert.Contains(t, fq.lastQuery, "GROUP BY YEAR(s.date), MONTH(s.date)")
	assert.Equal(t, 6, ts.Len())
}

func TestSCMTopWindowAnchorsOnEndDate(t *testing.T) {
	fq := &fakeQuerier{result: schema.RawResult{
		"id": []any{}, "identifier": []any{}, "count": []any{},
	}}
	scm := NewSCM(fq, mysqlDialect(t), schema.DefaultSCMTables())

	top, ok := findMetric(t, scm, "ncommits").(TopMetric)
	require.True(t, ok)

	_, err := top.Top(context.Background(), baseFilters(), 10, 30)
	require.NoError(t, err)

	assert.Contains(t, fq.lastQuery, "ORDER BY count DESC, identifier LIMIT 10")
	// trailing 30 day window before the end date
	assert.Equal(t, "2014-06-01 00:00:00", fq.lastArgs[0])
	assert.Equal(t, "2014-07-01 00:00:00", fq.lastArgs[1])
}

func TestTopRejectsNonPositiveLimit(t *testing.T) {
	fq := &fakeQuerier{}
	scm := NewSCM(fq, mysqlDialect(t), schema.DefaultSCMTables())

	top := findMetric(t, scm, "ncommits").(TopMetric)
	_, err := top.Top(context.Background(), baseFilters(), 0, 0)
	require.Error(t, err)
}

func TestFiltersValidate(t *testing.T) {
	f := baseFilters()
	require.NoError(t, f.Validate())

	bad := f
	bad.Period = "fortnight"
	require.Error(t, bad.Validate())

	bad = f
	bad.Start, bad.End = f.End, f.Start
	require.Error(t, bad.Validate())

	bad = f
	bad.Start = time.Time{}
	bad.End = time.Time{}
	require.Error(t, bad.Validate())
}

func TestNewCatalogRejectsDuplicateIDs(t *testing.T) {
	fq := &fakeQuerier{}
	d := mysqlDialect(t)
	scm := NewSCM(fq, d, schema.DefaultSCMTables())

	_, err := NewCatalog(scm, scm)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate metric id")
}

func TestCatalogLookup(t *testing.T) {
	fq := &fakeQuerier{}
	d := mysqlDialect(t)
	catalog, err := NewCatalog(
		NewSCM(fq, d, schema.DefaultSCMTables()),
		NewITS(fq, d, schema.DefaultITSTables(), nil),
		NewMLS(fq, d, schema.DefaultMLSTables()),
		NewSCR(fq, d, schema.DefaultSCRTables()),
	)
	require.NoError(t, err)

	m, err := catalog.Metric("bmi_scr")
	require.NoError(t, err)
	assert.Equal(t, schema.SCRSource, m.Source())

	// "closed" exists in both ITS and SCR, so the bare id is ambiguous
	// and the qualified form resolves it.
	_, err = catalog.Metric("closed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous")

	m, err = catalog.Metric("scr.closed")
	require.NoError(t, err)
	assert.Equal(t, schema.SCRSource, m.Source())

	_, err = catalog.Metric("nope")
	require.Error(t, err)
	_, err = catalog.Metric("mls.nope")
	require.Error(t, err)

	assert.Len(t, catalog.Sources(), 4)
}
