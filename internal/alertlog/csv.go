package alertlog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/danielpatrickdp/motion-safety/internal/alert"
)

// #region csv-log

// DefaultCSVPath is the conventional flat-file log name.
const DefaultCSVPath = "safety_alerts.csv"

// CSVLog persists alerts to a flat CSV file with a header row.
type CSVLog struct {
	path string
	mu   sync.Mutex
}

// NewCSVLog uses path; the file is created on the first Append.
func NewCSVLog(path string) *CSVLog {
	if path == "" {
		path = DefaultCSVPath
	}
	return &CSVLog{path: path}
}

// Path returns the backing file.
func (l *CSVLog) Path() string { return l.path }

// Append implements Log. Existing rows are never rewritten.
func (l *CSVLog) Append(ctx context.Context, a alert.Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open alert log: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat alert log: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(Columns); err != nil {
			f.Close()
			return fmt.Errorf("write header: %w", err)
		}
	}
	if err := w.Write(RecordOf(a).Row()); err != nil {
		f.Close()
		return fmt.Errorf("append alert: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush alert log: %w", err)
	}
	return f.Close()
}

// ReadAll implements Log. A missing file yields nil, nil.
func (l *CSVLog) ReadAll(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readAll()
}

func (l *CSVLog) readAll() ([]Record, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open alert log: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadRecent implements Log.
func (l *CSVLog) ReadRecent(ctx context.Context, n int) ([]Record, error) {
	all, err := l.ReadAll(ctx)
	if err != nil || all == nil {
		return nil, err
	}
	if n > 0 && n < len(all) {
		all = all[len(all)-n:]
	}
	recent := slices.Clone(all)
	slices.Reverse(recent)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Timestamp.After(recent[j].Timestamp)
	})
	return recent, nil
}

// Statistics implements Log.
func (l *CSVLog) Statistics(ctx context.Context) (*Statistics, error) {
	all, err := l.ReadAll(ctx)
	if err != nil || all == nil {
		return nil, err
	}
	return Summarize(all), nil
}

// #endregion csv-log

// #region csv-codec

// ReadCSV parses a log file: a header naming Columns, then one row per alert.
// Header columns are matched by name so reordered files still load.
func ReadCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	pos := make([]int, len(Columns))
	for i, col := range Columns {
		pos[i] = slices.Index(header, col)
		if pos[i] < 0 {
			return nil, fmt.Errorf("alert log missing column %q", col)
		}
	}

	out := []Record{}
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		fields := make([]string, len(Columns))
		for i, p := range pos {
			fields[i] = row[p]
		}
		rec, err := parseRow(fields)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// WriteCSV exports alerts with the log's column set, e.g. a session download.
func WriteCSV(w io.Writer, alerts []alert.Alert) error {
	records := make([]Record, len(alerts))
	for i, a := range alerts {
		records[i] = RecordOf(a)
	}
	return WriteRecords(w, records)
}

// WriteRecords writes a header and one row per record.
func WriteRecords(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(r.Row()); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// #endregion csv-codec

// #region summarize

// Summarize computes Statistics over records held in memory.
func Summarize(records []Record) *Statistics {
	stats := newStatistics()
	stats.TotalAlerts = len(records)
	if len(records) == 0 {
		return stats
	}
	scores := make([]float64, len(records))
	for i, r := range records {
		scores[i] = float64(r.RiskScore)
		stats.SeverityBreakdown[r.Severity]++
		stats.TypeBreakdown[r.AlertType]++
		stats.ActivityBreakdown[r.Activity]++
		switch r.Severity {
		case alert.SeverityEmergency.String():
			stats.EmergencyCount++
		case alert.SeverityCritical.String():
			stats.CriticalCount++
		}
	}
	stats.AverageRiskScore = stat.Mean(scores, nil)
	return stats
}

// #endregion summarize
