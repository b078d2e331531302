package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vizpulse/vizpulse/schema"
)

func openTestConn(t *testing.T) (*Pool, *Conn) {
	t.Helper()
	pool, err := NewPool(schema.SQLiteBackend)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Close() })
	conn, err := pool.Open(context.Background(), "test", ":memory:")
	require.NoError(t, err)
	return pool, conn
}

func TestDriverName(t *testing.T) {
	tests := []struct {
		backend     schema.DatabaseBackend
		expected    string
		expectError bool
	}{
		{backend: schema.MySQLBackend, expected: "mysql"},
		{backend: schema.PostgreSQLBackend, expected: "pgx"},
		{backend: schema.SQLiteBackend, expected: "sqlite"},
		{backend: schema.DatabaseBackend("oracle"), expectError: true},
	}
	for _, tt := range tests {
		name, err := DriverName(tt.backend)
		if tt.expectError {
			require.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.expected, name)
	}
}

func TestPoolOpenIsIdempotent(t *testing.T) {
	pool, conn := openTestConn(t)

	again, err := pool.Open(context.Background(), "test", ":memory:")
	require.NoError(t, err)
	assert.Same(t, conn, again)

	got, err := pool.Get("test")
	require.NoError(t, err)
	assert.Same(t, conn, got)

	_, err = pool.Get("other")
	require.Error(t, err)
}

func TestConnQueryShapes(t *testing.T) {
	_, conn := openTestConn(t)
	ctx := context.Background()

	_, err := conn.DB().Exec(`CREATE TABLE items (id INTEGER, name TEXT)`)
	require.NoError(t, err)
	_, err = conn.DB().Exec(`INSERT INTO items VALUES (1, 'one'), (2, 'two')`)
	require.NoError(t, err)

	t.Run("zero rows give empty lists", func(t *testing.T) {
		raw, err := conn.Query(ctx, `SELECT id, name FROM items WHERE id > ?`, 10)
		require.NoError(t, err)
		assert.Equal(t, schema.RawResult{"id": []any{}, "name": []any{}}, raw)
	})

	t.Run("one row gives scalars", func(t *testing.T) {
		raw, err := conn.Query(ctx, `SELECT id, name FROM items WHERE id = ?`, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), raw["id"])
		assert.Equal(t, "one", raw["name"])
	})

	t.Run("many rows give lists", func(t *testing.T) {
		raw, err := conn.Query(ctx, `SELECT id FROM items ORDER BY id`)
		require.NoError(t, err)
		assert.Equal(t, []any{int64(1), int64(2)}, raw["id"])
	})

	t.Run("bad sql fails", func(t *testing.T) {
		_, err := conn.Query(ctx, `SELECT nope FROM missing`)
		require.Error(t, err)
	})
}

func TestMigrateUpAndDown(t *testing.T) {
	_, conn := openTestConn(t)

	require.NoError(t, Migrate(schema.SQLiteBackend, conn.DB(), -1))

	// tables exist after up
	_, err := conn.DB().Exec(`SELECT COUNT(*) FROM vizpulse_report_runs`)
	require.NoError(t, err)
	_, err = conn.DB().Exec(`SELECT COUNT(*) FROM vizpulse_report_files`)
	require.NoError(t, err)

	require.NoError(t, Migrate(schema.SQLiteBackend, conn.DB(), 0))
	_, err = conn.DB().Exec(`SELECT COUNT(*) FROM vizpulse_report_runs`)
	require.Error(t, err)
}

func TestRunStoreLifecycle(t *testing.T) {
	_, conn := openTestConn(t)
	ctx := context.Background()
	require.NoError(t, Migrate(schema.SQLiteBackend, conn.DB(), -1))

	rs, err := NewRunStore(conn, schema.SQLiteBackend)
	require.NoError(t, err)

	started := time.Date(2014, time.March, 1, 12, 0, 0, 0, time.UTC)
	runID, err := rs.Begin(ctx, started, "month", "2014-01-01", "2014-03-01", "/tmp/out",
		map[string]any{"datasources": []string{"scm"}})
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	require.NoError(t, rs.RecordFile(ctx, runID, schema.SCMSource, "scm-evolutionary.json", started))
	require.NoError(t, rs.Finish(ctx, runID, started.Add(time.Minute)))

	status, err := rs.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), status.TotalRuns)
	assert.Equal(t, runID, status.LastRunID)
	assert.Equal(t, started, status.LastRunTime)
	assert.Equal(t, int64(1), status.TableSizes["vizpulse_report_files"])

	runs, err := rs.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].RunID)
	assert.Equal(t, "month", runs[0].Period)
	require.NotNil(t, runs[0].FinishedAt)
	assert.Equal(t, started.Add(time.Minute), *runs[0].FinishedAt)
	assert.Contains(t, runs[0].ConfigParams, "datasources")
}
