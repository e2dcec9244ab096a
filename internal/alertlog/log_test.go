package alertlog

import (
	"bytes"
	"context"
	"database/sql"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/motion-safety/internal/alert"
)

// #region helpers

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sqliteLog(t *testing.T) *SQLiteLog {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "alerts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLiteLog(db)
}

func csvLog(t *testing.T) *CSVLog {
	t.Helper()
	return NewCSVLog(filepath.Join(t.TempDir(), "safety_alerts.csv"))
}

// backends runs fn against every Log implementation.
func backends(t *testing.T, fn func(t *testing.T, l Log)) {
	t.Run("sqlite", func(t *testing.T) { fn(t, sqliteLog(t)) })
	t.Run("csv", func(t *testing.T) { fn(t, csvLog(t)) })
}

func mkAlert(kind alert.Kind, activity string, score int, offset time.Duration, idx *int) alert.Alert {
	return alert.Build(kind, alert.Input{
		Activity:        activity,
		RiskScore:       score,
		MotionIntensity: 0.75,
		SampleIndex:     idx,
	}, base.Add(offset))
}

// #endregion helpers

func TestLog_MissingStoreIsEmpty(t *testing.T) {
	backends(t, func(t *testing.T, l Log) {
		ctx := context.Background()
		recent, err := l.ReadRecent(ctx, 10)
		require.NoError(t, err)
		assert.Nil(t, recent)

		stats, err := l.Statistics(ctx)
		require.NoError(t, err)
		assert.Nil(t, stats)
	})
}

func TestLog_AppendIsCumulative(t *testing.T) {
	backends(t, func(t *testing.T, l Log) {
		ctx := context.Background()
		batches := [][]alert.Alert{
			{mkAlert(alert.KindFallDetected, "WALKING", 80, 0, alert.IndexPtr(0))},
			{
				mkAlert(alert.KindHighRiskMotion, "STAIRS", 70, time.Second, alert.IndexPtr(1)),
				mkAlert(alert.KindHighRiskMotion, "STAIRS", 70, time.Second, alert.IndexPtr(1)),
			},
			{mkAlert(alert.KindElevatedRisk, "SITTING", 61, 2*time.Second, nil)},
		}
		var want []Record
		for _, batch := range batches {
			for _, a := range batch {
				require.NoError(t, l.Append(ctx, a))
				want = append(want, RecordOf(a))
			}
		}

		got, err := l.ReadAll(ctx)
		require.NoError(t, err)
		require.Len(t, got, 4)
		for i := range want {
			assert.True(t, want[i].Timestamp.Equal(got[i].Timestamp), "row %d timestamp", i)
			got[i].Timestamp = want[i].Timestamp
			assert.Equal(t, want[i], got[i], "row %d", i)
		}
		assert.Equal(t, -1, got[3].SampleIndex)
	})
}

func TestLog_ReadRecentNewestFirst(t *testing.T) {
	backends(t, func(t *testing.T, l Log) {
		ctx := context.Background()
		for i := 0; i < 5; i++ {
			require.NoError(t, l.Append(ctx, mkAlert(alert.KindAnomalyDetected, "WALKING", 30+i, time.Duration(i)*time.Minute, alert.IndexPtr(i))))
		}

		recent, err := l.ReadRecent(ctx, 3)
		require.NoError(t, err)
		require.Len(t, recent, 3)
		assert.Equal(t, []int{4, 3, 2}, []int{recent[0].SampleIndex, recent[1].SampleIndex, recent[2].SampleIndex})

		all, err := l.ReadRecent(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, all, 5)
	})
}

func TestLog_Statistics(t *testing.T) {
	backends(t, func(t *testing.T, l Log) {
		ctx := context.Background()
		require.NoError(t, l.Append(ctx, mkAlert(alert.KindFallDetected, "WALKING", 90, 0, nil)))
		require.NoError(t, l.Append(ctx, mkAlert(alert.KindHighRiskMotion, "STAIRS", 70, time.Second, nil)))
		require.NoError(t, l.Append(ctx, mkAlert(alert.KindHighRiskMotion, "WALKING", 50, 2*time.Second, nil)))
		require.NoError(t, l.Append(ctx, mkAlert(alert.KindElevatedRisk, "SITTING", 62, 3*time.Second, nil)))

		stats, err := l.Statistics(ctx)
		require.NoError(t, err)
		require.NotNil(t, stats)
		assert.Equal(t, 4, stats.TotalAlerts)
		assert.Equal(t, 1, stats.EmergencyCount)
		assert.Equal(t, 2, stats.CriticalCount)
		assert.InDelta(t, 68.0, stats.AverageRiskScore, 1e-9)
		assert.Equal(t, map[string]int{"EMERGENCY": 1, "CRITICAL": 2, "INFO": 1}, stats.SeverityBreakdown)
		assert.Equal(t, map[string]int{"FALL_DETECTED": 1, "HIGH_RISK_MOTION": 2, "ELEVATED_RISK": 1}, stats.TypeBreakdown)
		assert.Equal(t, map[string]int{"WALKING": 2, "STAIRS": 1, "SITTING": 1}, stats.ActivityBreakdown)
	})
}

func TestSQLiteLog_NaNIntensity(t *testing.T) {
	l := sqliteLog(t)
	ctx := context.Background()
	a := mkAlert(alert.KindFallDetected, "WALKING", 50, 0, nil)
	a.MotionIntensity = math.NaN()
	require.NoError(t, l.Append(ctx, a))

	got, err := l.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, math.IsNaN(got[0].MotionIntensity))
}

func TestCSVLog_HeaderWrittenOnce(t *testing.T) {
	l := csvLog(t)
	ctx := context.Background()
	require.NoError(t, l.Append(ctx, mkAlert(alert.KindFallDetected, "WALKING", 50, 0, nil)))
	require.NoError(t, l.Append(ctx, mkAlert(alert.KindFallDetected, "WALKING", 50, 0, nil)))

	data, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(Columns, ","), lines[0])
	assert.Equal(t, 1, strings.Count(string(data), "timestamp,severity"))
}

func TestReadCSV_LegacyRows(t *testing.T) {
	in := "timestamp,severity,alert_type,activity,risk_score,motion_intensity,message,action_required,sample_index\n" +
		"2024-05-01T10:00:00.123456,WARNING,HIGH_RISK_ACTIVITY,STAIRS,40,0.31,msg,act,\n" +
		"2024-05-01T10:00:01,CRITICAL,HIGH_RISK_MOTION,WALKING,75.0,1.2,msg,act,12.0\n"
	got, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, -1, got[0].SampleIndex)
	assert.Equal(t, 75, got[1].RiskScore)
	assert.Equal(t, 12, got[1].SampleIndex)
}

func TestReadCSV_MissingColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("timestamp,severity\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alert_type")
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	alerts := []alert.Alert{
		mkAlert(alert.KindAnomalyDetected, "WALKING, fast", 33, 0, alert.IndexPtr(4)),
		mkAlert(alert.KindElevatedRisk, "SITTING", 61, time.Second, nil),
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, alerts))

	got, err := ReadCSV(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "WALKING, fast", got[0].Activity)
	assert.Equal(t, 4, got[0].SampleIndex)
	assert.Equal(t, -1, got[1].SampleIndex)
}

func TestSummarize_Empty(t *testing.T) {
	stats := Summarize(nil)
	assert.Equal(t, 0, stats.TotalAlerts)
	assert.Equal(t, 0.0, stats.AverageRiskScore)
	assert.NotNil(t, stats.SeverityBreakdown)
}
