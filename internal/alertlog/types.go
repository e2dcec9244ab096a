package alertlog

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/danielpatrickdp/motion-safety/internal/alert"
)

// #region log

// Log is the append-only persistence log for alerts.
type Log interface {
	// Append adds one row. Identical alerts append as separate rows.
	Append(ctx context.Context, a alert.Alert) error
	// ReadRecent returns the last n rows by insertion, newest timestamp first.
	// n <= 0 means every row. A log that does not exist yet yields nil, nil.
	ReadRecent(ctx context.Context, n int) ([]Record, error)
	// ReadAll returns every row in insertion order.
	ReadAll(ctx context.Context) ([]Record, error)
	// Statistics summarizes the whole log. A log that does not exist yet yields nil, nil.
	Statistics(ctx context.Context) (*Statistics, error)
}

// #endregion log

// #region record

// Columns is the persisted column set, in file order.
var Columns = []string{
	"timestamp",
	"severity",
	"alert_type",
	"activity",
	"risk_score",
	"motion_intensity",
	"message",
	"action_required",
	"sample_index",
}

// TimeLayout is fixed width in UTC so lexical order matches chronological order.
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// legacyTimeLayout reads naive local timestamps written without an offset.
const legacyTimeLayout = "2006-01-02T15:04:05.999999999"

// Record is one persisted row.
type Record struct {
	Timestamp       time.Time `json:"timestamp"`
	Severity        string    `json:"severity"`
	AlertType       string    `json:"alert_type"`
	Activity        string    `json:"activity"`
	RiskScore       int       `json:"risk_score"`
	MotionIntensity float64   `json:"motion_intensity"`
	Message         string    `json:"message"`
	ActionRequired  string    `json:"action_required"`
	SampleIndex     int       `json:"sample_index"` // -1 when unknown
}

// RecordOf flattens an alert into its persisted form.
func RecordOf(a alert.Alert) Record {
	return Record{
		Timestamp:       a.Timestamp.UTC(),
		Severity:        a.Severity.String(),
		AlertType:       string(a.Type),
		Activity:        a.Activity,
		RiskScore:       a.RiskScore,
		MotionIntensity: a.MotionIntensity,
		Message:         a.Message,
		ActionRequired:  a.ActionRequired,
		SampleIndex:     a.Index(),
	}
}

// Row renders the record as CSV fields in Columns order.
func (r Record) Row() []string {
	return []string{
		formatTime(r.Timestamp),
		r.Severity,
		r.AlertType,
		r.Activity,
		strconv.Itoa(r.RiskScore),
		strconv.FormatFloat(r.MotionIntensity, 'g', -1, 64),
		r.Message,
		r.ActionRequired,
		strconv.Itoa(r.SampleIndex),
	}
}

// parseRow is the inverse of Row.
func parseRow(fields []string) (Record, error) {
	if len(fields) != len(Columns) {
		return Record{}, fmt.Errorf("expected %d fields, got %d", len(Columns), len(fields))
	}
	ts, err := parseTime(fields[0])
	if err != nil {
		return Record{}, err
	}
	score, err := strconv.Atoi(fields[4])
	if err != nil {
		// older files may carry the score as a float
		f, ferr := strconv.ParseFloat(fields[4], 64)
		if ferr != nil {
			return Record{}, fmt.Errorf("risk_score %q: %w", fields[4], err)
		}
		score = int(f)
	}
	intensity, err := strconv.ParseFloat(fields[5], 64)
	if err != nil {
		return Record{}, fmt.Errorf("motion_intensity %q: %w", fields[5], err)
	}
	idx := -1
	if fields[8] != "" {
		f, err := strconv.ParseFloat(fields[8], 64)
		if err != nil {
			return Record{}, fmt.Errorf("sample_index %q: %w", fields[8], err)
		}
		if !math.IsNaN(f) {
			idx = int(f)
		}
	}
	return Record{
		Timestamp:       ts,
		Severity:        fields[1],
		AlertType:       fields[2],
		Activity:        fields[3],
		RiskScore:       score,
		MotionIntensity: intensity,
		Message:         fields[6],
		ActionRequired:  fields[7],
		SampleIndex:     idx,
	}, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(legacyTimeLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q: %w", s, err)
	}
	return t, nil
}

// #endregion record

// #region statistics

// Statistics summarizes the whole log.
type Statistics struct {
	TotalAlerts       int            `json:"total_alerts"`
	SeverityBreakdown map[string]int `json:"severity_breakdown"`
	TypeBreakdown     map[string]int `json:"type_breakdown"`
	ActivityBreakdown map[string]int `json:"activity_breakdown"`
	AverageRiskScore  float64        `json:"average_risk_score"`
	EmergencyCount    int            `json:"emergency_count"`
	CriticalCount     int            `json:"critical_count"`
}

func newStatistics() *Statistics {
	return &Statistics{
		SeverityBreakdown: map[string]int{},
		TypeBreakdown:     map[string]int{},
		ActivityBreakdown: map[string]int{},
	}
}

// #endregion statistics
