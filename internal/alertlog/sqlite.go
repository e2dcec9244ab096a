package alertlog

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sync"

	"github.com/danielpatrickdp/motion-safety/internal/alert"
)

// #region schema

const tableName = "safety_alerts"

const alertsSchema = `
CREATE TABLE IF NOT EXISTS safety_alerts (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp        TEXT NOT NULL,
    severity         TEXT NOT NULL,
    alert_type       TEXT NOT NULL,
    activity         TEXT NOT NULL,
    risk_score       INTEGER NOT NULL,
    motion_intensity REAL,
    message          TEXT NOT NULL,
    action_required  TEXT NOT NULL,
    sample_index     INTEGER NOT NULL DEFAULT -1
);
`

const alertsIndex = `
CREATE INDEX IF NOT EXISTS idx_safety_alerts_timestamp ON safety_alerts(timestamp);
`

// #endregion schema

// #region sqlite-log

// SQLiteLog persists alerts in the safety_alerts table of a caller-owned
// database handle. The caller opens and closes the handle.
type SQLiteLog struct {
	db    *sql.DB
	mu    sync.Mutex
	ready bool
}

// NewSQLiteLog wraps db. No table is created until the first Append.
func NewSQLiteLog(db *sql.DB) *SQLiteLog {
	return &SQLiteLog{db: db}
}

func (l *SQLiteLog) ensureSchema(ctx context.Context) error {
	if l.ready {
		return nil
	}
	if _, err := l.db.ExecContext(ctx, alertsSchema); err != nil {
		return fmt.Errorf("create %s: %w", tableName, err)
	}
	if _, err := l.db.ExecContext(ctx, alertsIndex); err != nil {
		return fmt.Errorf("index %s: %w", tableName, err)
	}
	l.ready = true
	return nil
}

func (l *SQLiteLog) exists(ctx context.Context) (bool, error) {
	if l.ready {
		return true, nil
	}
	var n int
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, tableName,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check %s: %w", tableName, err)
	}
	return n > 0, nil
}

// Append implements Log.
func (l *SQLiteLog) Append(ctx context.Context, a alert.Alert) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureSchema(ctx); err != nil {
		return err
	}
	r := RecordOf(a)
	var intensity interface{} = r.MotionIntensity
	if math.IsNaN(r.MotionIntensity) {
		intensity = nil
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO safety_alerts (timestamp, severity, alert_type, activity, risk_score, motion_intensity, message, action_required, sample_index)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		formatTime(r.Timestamp),
		r.Severity,
		r.AlertType,
		r.Activity,
		r.RiskScore,
		intensity,
		r.Message,
		r.ActionRequired,
		r.SampleIndex,
	)
	if err != nil {
		return fmt.Errorf("append alert: %w", err)
	}
	return nil
}

// ReadRecent implements Log.
func (l *SQLiteLog) ReadRecent(ctx context.Context, n int) ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ok, err := l.exists(ctx)
	if err != nil || !ok {
		return nil, err
	}
	if n <= 0 {
		n = -1 // sqlite: no limit
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT timestamp, severity, alert_type, activity, risk_score, motion_intensity, message, action_required, sample_index
		 FROM (SELECT * FROM safety_alerts ORDER BY id DESC LIMIT ?)
		 ORDER BY timestamp DESC, id DESC`, n,
	)
	if err != nil {
		return nil, fmt.Errorf("read recent alerts: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// ReadAll implements Log.
func (l *SQLiteLog) ReadAll(ctx context.Context) ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ok, err := l.exists(ctx)
	if err != nil || !ok {
		return nil, err
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT timestamp, severity, alert_type, activity, risk_score, motion_intensity, message, action_required, sample_index
		 FROM safety_alerts ORDER BY id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("read alerts: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// Statistics implements Log.
func (l *SQLiteLog) Statistics(ctx context.Context) (*Statistics, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ok, err := l.exists(ctx)
	if err != nil || !ok {
		return nil, err
	}

	stats := newStatistics()
	var avg sql.NullFloat64
	err = l.db.QueryRowContext(ctx,
		`SELECT COUNT(*), AVG(risk_score),
		        COALESCE(SUM(severity = 'EMERGENCY'), 0),
		        COALESCE(SUM(severity = 'CRITICAL'), 0)
		 FROM safety_alerts`,
	).Scan(&stats.TotalAlerts, &avg, &stats.EmergencyCount, &stats.CriticalCount)
	if err != nil {
		return nil, fmt.Errorf("alert statistics: %w", err)
	}
	if avg.Valid {
		stats.AverageRiskScore = avg.Float64
	}

	breakdowns := []struct {
		column string
		into   map[string]int
	}{
		{"severity", stats.SeverityBreakdown},
		{"alert_type", stats.TypeBreakdown},
		{"activity", stats.ActivityBreakdown},
	}
	for _, b := range breakdowns {
		if err := l.countBy(ctx, b.column, b.into); err != nil {
			return nil, err
		}
	}
	return stats, nil
}

// countBy fills into with row counts grouped by a fixed column name.
func (l *SQLiteLog) countBy(ctx context.Context, column string, into map[string]int) error {
	rows, err := l.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s, COUNT(*) FROM safety_alerts GROUP BY %s`, column, column),
	)
	if err != nil {
		return fmt.Errorf("count by %s: %w", column, err)
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("scan %s count: %w", column, err)
		}
		into[key] = n
	}
	return rows.Err()
}

// #endregion sqlite-log

// #region helpers

func scanRecords(rows *sql.Rows) ([]Record, error) {
	out := []Record{}
	for rows.Next() {
		var (
			r         Record
			ts        string
			intensity sql.NullFloat64
		)
		if err := rows.Scan(&ts, &r.Severity, &r.AlertType, &r.Activity, &r.RiskScore,
			&intensity, &r.Message, &r.ActionRequired, &r.SampleIndex); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		t, err := parseTime(ts)
		if err != nil {
			return nil, err
		}
		r.Timestamp = t
		r.MotionIntensity = math.NaN()
		if intensity.Valid {
			r.MotionIntensity = intensity.Float64
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// #endregion helpers
