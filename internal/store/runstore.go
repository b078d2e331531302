package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vizpulse/vizpulse/core/build"
	"github.com/vizpulse/vizpulse/schema"
)

// Table names for report run tracking.
const (
	reportRunsTable  = "vizpulse_report_runs"
	reportFilesTable = "vizpulse_report_files"
)

// RunRecord is one tracked report run.
type RunRecord struct {
	RunID        string     `json:"run_id" parquet:"run_id"`
	StartedAt    time.Time  `json:"started_at" parquet:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty" parquet:"finished_at,optional"`
	Period       string     `json:"period" parquet:"period"`
	StartDate    string     `json:"start_date" parquet:"start_date"`
	EndDate      string     `json:"end_date" parquet:"end_date"`
	Destination  string     `json:"destination" parquet:"destination"`
	ConfigParams string     `json:"config_params" parquet:"config_params"`
}

// RunStatus summarizes the tracking tables.
type RunStatus struct {
	Backend     string           `json:"backend"`
	TotalRuns   int64            `json:"total_runs"`
	LastRunID   string           `json:"last_run_id,omitempty"`
	LastRunTime time.Time        `json:"last_run_time,omitzero"`
	TableSizes  map[string]int64 `json:"table_sizes"`
}

// RunStore tracks report runs and the files they emit. Run ids are
// UUIDs, so one id stays unique across backends and re-imports.
type RunStore struct {
	conn    *Conn
	dialect build.Dialect
}

// NewRunStore returns a run store over an open connection.
func NewRunStore(conn *Conn, backend schema.DatabaseBackend) (*RunStore, error) {
	dialect, err := build.DialectFor(backend)
	if err != nil {
		return nil, err
	}
	return &RunStore{conn: conn, dialect: dialect}, nil
}

func (s *RunStore) exec(ctx context.Context, query string, args ...any) error {
	_, err := s.conn.db.ExecContext(ctx, s.dialect.Rebind(query), args...)
	return err
}

// Begin records the start of a report run and returns its id.
func (s *RunStore) Begin(ctx context.Context, startedAt time.Time, period, startDate, endDate, destination string, configParams map[string]any) (string, error) {
	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config params: %w", err)
	}
	runID := uuid.NewString()
	query := fmt.Sprintf(
		`INSERT INTO %s (run_id, started_at, period, start_date, end_date, destination, config_params)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`, reportRunsTable)
	err = s.exec(ctx, query,
		runID, startedAt.Format(time.RFC3339Nano), period, startDate, endDate,
		destination, string(configJSON))
	if err != nil {
		return "", fmt.Errorf("failed to insert report run: %w", err)
	}
	return runID, nil
}

// Finish marks a run complete.
func (s *RunStore) Finish(ctx context.Context, runID string, finishedAt time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET finished_at = ? WHERE run_id = ?`, reportRunsTable)
	if err := s.exec(ctx, query, finishedAt.Format(time.RFC3339Nano), runID); err != nil {
		return fmt.Errorf("failed to update report run: %w", err)
	}
	return nil
}

// RecordFile tracks one emitted report file.
func (s *RunStore) RecordFile(ctx context.Context, runID string, source schema.DataSourceKind, filename string, writtenAt time.Time) error {
	query := fmt.Sprintf(
		`INSERT INTO %s (run_id, datasource, filename, written_at) VALUES (?, ?, ?, ?)`,
		reportFilesTable)
	err := s.exec(ctx, query, runID, string(source), filename, writtenAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert report file: %w", err)
	}
	return nil
}

// Status returns counts and the most recent run.
func (s *RunStore) Status(ctx context.Context) (RunStatus, error) {
	status := RunStatus{
		Backend:    s.dialect.Name(),
		TableSizes: make(map[string]int64),
	}
	row := s.conn.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", reportRunsTable))
	if err := row.Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to count report runs: %w", err)
	}

	if status.TotalRuns > 0 {
		query := fmt.Sprintf(
			"SELECT run_id, started_at FROM %s ORDER BY started_at DESC LIMIT 1", reportRunsTable)
		var startedAt string
		if err := s.conn.db.QueryRowContext(ctx, query).Scan(&status.LastRunID, &startedAt); err != nil {
			return status, fmt.Errorf("failed to read last run: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			return status, fmt.Errorf("failed to parse last run time: %w", err)
		}
		status.LastRunTime = t
	}

	for _, table := range []string{reportRunsTable, reportFilesTable} {
		var count int64
		row := s.conn.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table))
		if err := row.Scan(&count); err != nil {
			return status, fmt.Errorf("failed to count table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	return status, nil
}

// Runs returns every tracked run, oldest first.
func (s *RunStore) Runs(ctx context.Context) ([]RunRecord, error) {
	query := fmt.Sprintf(
		`SELECT run_id, started_at, finished_at, period, start_date, end_date, destination, config_params
		 FROM %s ORDER BY started_at`, reportRunsTable)
	rows, err := s.conn.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query report runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		var startedAt string
		var finishedAt, destination, configParams *string
		if err := rows.Scan(&rec.RunID, &startedAt, &finishedAt, &rec.Period,
			&rec.StartDate, &rec.EndDate, &destination, &configParams); err != nil {
			return nil, fmt.Errorf("failed to scan report run: %w", err)
		}
		rec.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse started_at: %w", err)
		}
		if finishedAt != nil {
			t, err := time.Parse(time.RFC3339Nano, *finishedAt)
			if err != nil {
				return nil, fmt.Errorf("failed to parse finished_at: %w", err)
			}
			rec.FinishedAt = &t
		}
		if destination != nil {
			rec.Destination = *destination
		}
		if configParams != nil {
			rec.ConfigParams = *configParams
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating report runs: %w", err)
	}
	return out, nil
}
