package fall

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/motion-safety/internal/dataset"
	"github.com/danielpatrickdp/motion-safety/internal/signals"
)

// Strategy names reported by Detector.Name.
const (
	StrategyHeuristic = "heuristic"
	StrategyModel     = "model"
)

// #region heuristic

// Heuristic flags a spike followed immediately by a return below baseline.
type Heuristic struct{}

// Name implements Detector.
func (Heuristic) Name() string { return StrategyHeuristic }

// Detect implements Detector. It never fails.
func (Heuristic) Detect(_ context.Context, b Batch) ([]bool, error) {
	return DetectPattern(b.Magnitudes, b.Thresholds), nil
}

// DetectPattern marks index i when mags[i] > th.Anomaly and mags[i+1] < th.Mean.
// The first and last index are never evaluated: the last has no successor.
func DetectPattern(mags []float64, th signals.Thresholds) []bool {
	out := make([]bool, len(mags))
	for i := 1; i < len(mags)-1; i++ {
		if mags[i] > th.Anomaly && mags[i+1] < th.Mean {
			out[i] = true
		}
	}
	return out
}

// #endregion heuristic

// #region model

// Model delegates to the trained fall classifier over ModelFeatures.
type Model struct {
	predictor Predictor
}

// NewModel creates a model-backed detector. predictor may be nil, in which
// case Detect reports ErrModelUnavailable.
func NewModel(predictor Predictor) *Model {
	return &Model{predictor: predictor}
}

// Name implements Detector.
func (m *Model) Name() string { return StrategyModel }

// Detect implements Detector.
func (m *Model) Detect(ctx context.Context, b Batch) ([]bool, error) {
	if m.predictor == nil {
		return nil, ErrModelUnavailable
	}
	if b.Dataset == nil {
		return nil, fmt.Errorf("%w: no samples", ErrMissingFeatures)
	}
	rows, err := b.Dataset.Matrix(ModelFeatures)
	if err != nil {
		if errors.Is(err, dataset.ErrMissingColumns) {
			return nil, fmt.Errorf("%w: %v", ErrMissingFeatures, err)
		}
		return nil, err
	}
	falls, err := m.predictor.PredictFall(ctx, ModelFeatures, rows)
	if err != nil {
		return nil, fmt.Errorf("fall model: %w", err)
	}
	if len(falls) != len(rows) {
		return nil, fmt.Errorf("fall model returned %d decisions for %d samples", len(falls), len(rows))
	}
	return falls, nil
}

// #endregion model

// #region fallback

// Fallback runs a primary detector and degrades to the heuristic on any
// failure, so the batch is always classified.
type Fallback struct {
	primary    Detector
	heuristic  Heuristic
	logger     *zap.Logger
	onFallback func(reason error)
	used       string
}

// NewFallback wraps primary. primary may be nil (heuristic only).
// onFallback, if non-nil, is called with the reason each time the heuristic takes over.
func NewFallback(primary Detector, logger *zap.Logger, onFallback func(reason error)) *Fallback {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fallback{primary: primary, logger: logger, onFallback: onFallback}
}

// Name implements Detector.
func (f *Fallback) Name() string {
	if f.primary == nil {
		return StrategyHeuristic
	}
	return f.primary.Name() + "+" + StrategyHeuristic
}

// Used reports which strategy produced the most recent result.
func (f *Fallback) Used() string {
	return f.used
}

// Detect implements Detector. It never returns an error.
func (f *Fallback) Detect(ctx context.Context, b Batch) ([]bool, error) {
	if f.primary != nil {
		falls, err := safeDetect(ctx, f.primary, b)
		if err == nil {
			f.used = f.primary.Name()
			return falls, nil
		}
		f.logger.Warn("fall model unavailable, using spike/drop heuristic",
			zap.String("detector", f.primary.Name()),
			zap.Error(err),
		)
		if f.onFallback != nil {
			f.onFallback(err)
		}
	}
	falls, _ := f.heuristic.Detect(ctx, b)
	f.used = f.heuristic.Name()
	return falls, nil
}

// safeDetect converts a panic or a short result inside a detector into an error.
func safeDetect(ctx context.Context, d Detector, b Batch) (falls []bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			falls, err = nil, fmt.Errorf("%s detector panicked: %v", d.Name(), r)
		}
	}()
	falls, err = d.Detect(ctx, b)
	if err == nil && len(falls) != len(b.Magnitudes) {
		return nil, fmt.Errorf("%s detector returned %d decisions for %d samples", d.Name(), len(falls), len(b.Magnitudes))
	}
	return falls, err
}

// #endregion fallback
