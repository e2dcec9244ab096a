package store

import (
	"errors"
	"time"

	"github.com/danielpatrickdp/motion-safety/internal/signals"
)

// #region errors

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// #endregion errors

// #region run

// Run is one monitoring run over a batch of samples.
type Run struct {
	RunID         string             `json:"run_id"`
	Source        string             `json:"source"` // input file or fixture name
	StartedAt     time.Time          `json:"started_at"`
	FinishedAt    time.Time          `json:"finished_at,omitempty"`
	Samples       int                `json:"samples"`
	Thresholds    signals.Thresholds `json:"thresholds"`
	FallStrategy  string             `json:"fall_strategy"`
	AlertCount    int                `json:"alert_count"`
	CriticalCount int                `json:"critical_count"`
}

// Finished reports whether FinishRun was recorded.
func (r Run) Finished() bool { return !r.FinishedAt.IsZero() }

// RunResult is what FinishRun records for a run.
type RunResult struct {
	Samples       int
	Thresholds    signals.Thresholds
	FallStrategy  string
	AlertCount    int
	CriticalCount int
}

// #endregion run
