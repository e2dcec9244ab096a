package pipeline

import (
	"errors"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/motion-safety/internal/alert"
	"github.com/danielpatrickdp/motion-safety/internal/fall"
	"github.com/danielpatrickdp/motion-safety/internal/metrics"
	"github.com/danielpatrickdp/motion-safety/internal/risk"
	"github.com/danielpatrickdp/motion-safety/internal/signals"
)

// #region errors

var (
	// ErrNoClassifier means no activity labels can be produced; monitoring cannot start.
	ErrNoClassifier = errors.New("pipeline: activity classifier unavailable")
	// ErrNotPrepared is returned by Next before a successful Prepare.
	ErrNotPrepared = errors.New("pipeline: batch not prepared")
)

// #endregion errors

// #region options

// Options tunes the numeric stages of the pipeline.
type Options struct {
	Signals    signals.ProducerConfig
	Scorer     risk.ScorerConfig
	Alert      alert.Config
	MaxSamples int // 0 processes the whole batch
}

// DefaultOptions returns the reference configuration.
func DefaultOptions() Options {
	return Options{
		Signals: signals.DefaultProducerConfig(),
		Scorer:  risk.DefaultScorerConfig(),
		Alert:   alert.DefaultConfig(),
	}
}

// Deps are the collaborators of a Monitor. Only Classifier is required.
type Deps struct {
	Classifier ActivityClassifier
	FallModel  fall.Detector // nil uses the heuristic alone
	Session    alert.SessionAppender
	Log        alert.LogAppender // receives CRITICAL and EMERGENCY alerts
	Metrics    *metrics.Collectors
	Logger     *zap.Logger
}

// #endregion options

// #region result

// Result is the outcome of processing one sample.
type Result struct {
	Index      int
	Activity   string
	Label      string // ground truth, when the batch has it
	Magnitude  float64
	RiskScore  int
	Band       risk.Band
	Status     risk.MotionStatus
	Flags      signals.Flags
	Alert      *alert.Alert // nil when the sample raised no alert
	PersistErr error        // log append failure for Alert, if any
}

// #endregion result
