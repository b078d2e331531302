// Package store owns database access: a per-run connection pool over the
// supported backends, query execution into the shared RawResult shape and
// the report-run tracking tables.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/vizpulse/vizpulse/schema"

	// Database drivers for the supported backends.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// DriverName maps a backend to its database/sql driver.
func DriverName(backend schema.DatabaseBackend) (string, error) {
	switch backend {
	case schema.MySQLBackend:
		return "mysql", nil
	case schema.PostgreSQLBackend:
		return "pgx", nil
	case schema.SQLiteBackend:
		return "sqlite", nil
	}
	return "", fmt.Errorf("unsupported backend: %s", backend)
}

// Pool holds one open handle per logical database name for the lifetime
// of a report run. Callers inject it wherever queries are needed; there
// is no process-global registry.
type Pool struct {
	backend    schema.DatabaseBackend
	driverName string

	mu    sync.Mutex
	conns map[string]*Conn
}

// NewPool returns an empty pool for one backend.
func NewPool(backend schema.DatabaseBackend) (*Pool, error) {
	driverName, err := DriverName(backend)
	if err != nil {
		return nil, err
	}
	return &Pool{
		backend:    backend,
		driverName: driverName,
		conns:      make(map[string]*Conn),
	}, nil
}

// Backend returns the backend the pool opens connections for.
func (p *Pool) Backend() schema.DatabaseBackend { return p.backend }

// Open connects to a logical database, verifying the connection, and
// caches the handle under its name. Opening an already open name returns
// the existing handle.
func (p *Pool) Open(ctx context.Context, name, dsn string) (*Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if conn, ok := p.conns[name]; ok {
		return conn, nil
	}

	db, err := sql.Open(p.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database %q: %w", p.backend, name, err)
	}
	if p.backend == schema.SQLiteBackend {
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database %q: %w", p.backend, name, err)
	}

	conn := &Conn{db: db, name: name}
	p.conns[name] = conn
	return conn, nil
}

// Get returns a previously opened handle.
func (p *Pool) Get(name string) (*Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	conn, ok := p.conns[name]
	if !ok {
		return nil, fmt.Errorf("database %q is not open", name)
	}
	return conn, nil
}

// Close closes every handle in the pool.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	for name, conn := range p.conns {
		if err := conn.db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close database %q: %w", name, err)
		}
		delete(p.conns, name)
	}
	return firstErr
}

// Conn is one logical database handle.
type Conn struct {
	db   *sql.DB
	name string
}

// Name returns the logical database name.
func (c *Conn) Name() string { return c.name }

// DB exposes the underlying handle for migrations and run tracking.
func (c *Conn) DB() *sql.DB { return c.db }

// Query runs a parameterized query and reshapes its rows into a
// RawResult: zero rows give an empty list per column, one row gives
// scalars and more rows give lists. Driver byte buffers are copied, they
// are only valid until the next scan.
func (c *Conn) Query(ctx context.Context, query string, args ...any) (schema.RawResult, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query on %q failed: %w", c.name, err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	lists := make([][]any, len(cols))
	for i := range lists {
		lists[i] = []any{}
	}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	rowCount := 0
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			lists[i] = append(lists[i], v)
		}
		rowCount++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	result := make(schema.RawResult, len(cols))
	for i, col := range cols {
		if rowCount == 1 {
			result[col] = lists[i][0]
		} else {
			result[col] = lists[i]
		}
	}
	return result, nil
}
