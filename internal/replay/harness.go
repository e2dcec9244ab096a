package replay

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/motion-safety/internal/fall"
	"github.com/danielpatrickdp/motion-safety/internal/pipeline"
	"github.com/danielpatrickdp/motion-safety/internal/session"
	"github.com/danielpatrickdp/motion-safety/internal/signals"
)

// #region types

// Mismatch describes one difference between expected and produced alerts.
type Mismatch struct {
	Index    int
	Expected string // "SEVERITY/TYPE" or "none"
	Actual   string
	Reason   string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("sample %d: expected %s, got %s (%s)", m.Index, m.Expected, m.Actual, m.Reason)
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	TotalSamples  int
	Alerts        int
	BySeverity    map[string]int
	CriticalCount int
	Thresholds    signals.Thresholds
	FallStrategy  string
}

// #endregion types

// #region replay

// Replay runs the fixture batch through a fresh in-memory pipeline using the
// recorded activity labels. Fall flags come from the recording when it has
// them, otherwise from the spike/drop heuristic.
func Replay(ctx context.Context, f *Fixture, logger *zap.Logger) ([]pipeline.Result, ReplaySummary, error) {
	sess := session.NewStore()
	deps := pipeline.Deps{
		Classifier: pipeline.LabelColumn{},
		Session:    sess,
		Logger:     logger,
	}
	if falls := f.RecordedFalls(); falls != nil {
		deps.FallModel = recordedFalls{falls: falls}
	}
	m, err := pipeline.NewMonitor(f.Config.ToOptions(), deps, "")
	if err != nil {
		return nil, ReplaySummary{}, err
	}
	if err := m.Prepare(ctx, f.ToDataset()); err != nil {
		return nil, ReplaySummary{}, err
	}

	var results []pipeline.Result
	if err := m.Run(ctx, func(r pipeline.Result) error {
		results = append(results, r)
		return nil
	}); err != nil {
		return results, ReplaySummary{}, err
	}

	sum := sess.Summarize()
	return results, ReplaySummary{
		TotalSamples:  len(results),
		Alerts:        sum.TotalAlerts,
		BySeverity:    sum.BySeverity,
		CriticalCount: sum.CriticalCount,
		Thresholds:    m.Thresholds(),
		FallStrategy:  m.FallStrategy(),
	}, nil
}

// Compare checks results against the fixture's expectations. Every expected
// alert must appear with the same severity, type and (when set) risk score,
// and no other sample may raise an alert.
func Compare(expected []FixtureExpectedResult, results []pipeline.Result) []Mismatch {
	want := make(map[int]FixtureExpectedResult, len(expected))
	for _, e := range expected {
		want[e.Index] = e
	}

	var out []Mismatch
	seen := make(map[int]bool, len(results))
	for _, r := range results {
		seen[r.Index] = true
		e, ok := want[r.Index]
		actual := "none"
		if r.Alert != nil {
			actual = r.Alert.Severity.String() + "/" + string(r.Alert.Type)
		}
		switch {
		case !ok && r.Alert == nil:
			continue
		case !ok:
			out = append(out, Mismatch{Index: r.Index, Expected: "none", Actual: actual, Reason: "unexpected alert"})
		case r.Alert == nil:
			out = append(out, Mismatch{Index: r.Index, Expected: e.Severity + "/" + e.AlertType, Actual: actual, Reason: "missing alert"})
		case actual != e.Severity+"/"+e.AlertType:
			out = append(out, Mismatch{Index: r.Index, Expected: e.Severity + "/" + e.AlertType, Actual: actual, Reason: "wrong alert"})
		case e.RiskScore != nil && *e.RiskScore != r.RiskScore:
			out = append(out, Mismatch{
				Index:    r.Index,
				Expected: e.Severity + "/" + e.AlertType,
				Actual:   actual,
				Reason:   fmt.Sprintf("risk score %d, want %d", r.RiskScore, *e.RiskScore),
			})
		}
	}
	for _, e := range expected {
		if !seen[e.Index] {
			out = append(out, Mismatch{Index: e.Index, Expected: e.Severity + "/" + e.AlertType, Actual: "none", Reason: "sample not processed"})
		}
	}
	return out
}

// #endregion replay

// #region recorded-falls

// StrategyRecorded names the detector that replays recorded fall flags.
const StrategyRecorded = "recorded"

type recordedFalls struct {
	falls []bool
}

func (recordedFalls) Name() string { return StrategyRecorded }

func (r recordedFalls) Detect(_ context.Context, b fall.Batch) ([]bool, error) {
	if len(r.falls) != len(b.Magnitudes) {
		return nil, fmt.Errorf("recorded %d fall flags for %d samples", len(r.falls), len(b.Magnitudes))
	}
	return r.falls, nil
}

// #endregion recorded-falls
