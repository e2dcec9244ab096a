package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS monitor_runs (
	run_id          TEXT PRIMARY KEY,
	source          TEXT NOT NULL,
	started_at      TEXT NOT NULL,
	finished_at     TEXT,
	samples         INTEGER NOT NULL DEFAULT 0,
	thresholds_json TEXT,
	fall_strategy   TEXT,
	alert_count     INTEGER NOT NULL DEFAULT 0,
	critical_count  INTEGER NOT NULL DEFAULT 0
);
`
// #endregion schema

// timeLayout is fixed width so started_at sorts chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// #region store-struct
// Store owns the SQLite handle shared by run records and the alert log.
type Store struct {
	db  *sql.DB
	now func() time.Time
}
// #endregion store-struct

// #region constructor
// Open opens a SQLite database and runs migrations.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}
// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for use by other packages (e.g. alertlog).
func (s *Store) DB() *sql.DB {
	return s.db
}
// #endregion db-accessor

// #region begin-run
// BeginRun records the start of a monitoring run and returns its id.
func (s *Store) BeginRun(ctx context.Context, source string) (Run, error) {
	run := Run{
		RunID:     uuid.New().String(),
		Source:    source,
		StartedAt: s.now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO monitor_runs (run_id, source, started_at) VALUES (?, ?, ?)`,
		run.RunID, run.Source, run.StartedAt.Format(timeLayout),
	)
	if err != nil {
		return Run{}, fmt.Errorf("begin run: %w", err)
	}
	return run, nil
}
// #endregion begin-run

// #region finish-run
// FinishRun stores the outcome of a run.
func (s *Store) FinishRun(ctx context.Context, runID string, res RunResult) error {
	thJSON, err := json.Marshal(res.Thresholds)
	if err != nil {
		return fmt.Errorf("marshal thresholds: %w", err)
	}
	out, err := s.db.ExecContext(ctx,
		`UPDATE monitor_runs
		 SET finished_at = ?, samples = ?, thresholds_json = ?, fall_strategy = ?, alert_count = ?, critical_count = ?
		 WHERE run_id = ?`,
		s.now().UTC().Format(timeLayout),
		res.Samples,
		string(thJSON),
		res.FallStrategy,
		res.AlertCount,
		res.CriticalCount,
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := out.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}
// #endregion finish-run

// #region get-run
// GetRun retrieves one run by id.
func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT run_id, source, started_at, finished_at, samples, thresholds_json, fall_strategy, alert_count, critical_count
		 FROM monitor_runs WHERE run_id = ?`, runID,
	)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return Run{}, fmt.Errorf("get run %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", runID, err)
	}
	return run, nil
}
// #endregion get-run

// #region list-runs
// ListRuns returns up to limit runs, most recent first. limit <= 0 means all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, source, started_at, finished_at, samples, thresholds_json, fall_strategy, alert_count, critical_count
		 FROM monitor_runs ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
// #endregion list-runs

// #region helpers
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run        Run
		startedStr string
		finished   sql.NullString
		thJSON     sql.NullString
		strategy   sql.NullString
	)
	if err := sc.Scan(&run.RunID, &run.Source, &startedStr, &finished, &run.Samples,
		&thJSON, &strategy, &run.AlertCount, &run.CriticalCount); err != nil {
		return Run{}, err
	}
	var err error
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedStr); err != nil {
		return Run{}, fmt.Errorf("run %s: parse started_at: %w", run.RunID, err)
	}
	if finished.Valid {
		if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finished.String); err != nil {
			return Run{}, fmt.Errorf("run %s: parse finished_at: %w", run.RunID, err)
		}
	}
	if thJSON.Valid && thJSON.String != "" {
		if err := json.Unmarshal([]byte(thJSON.String), &run.Thresholds); err != nil {
			return Run{}, fmt.Errorf("unmarshal thresholds: %w", err)
		}
	}
	if strategy.Valid {
		run.FallStrategy = strategy.String
	}
	return run, nil
}
// #endregion helpers
