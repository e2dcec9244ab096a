package fall

import (
	"context"
	"errors"

	"github.com/danielpatrickdp/motion-safety/internal/dataset"
	"github.com/danielpatrickdp/motion-safety/internal/signals"
)

// #region errors

var (
	// ErrModelUnavailable is returned by the model detector when no predictor is wired.
	ErrModelUnavailable = errors.New("fall: model unavailable")
	// ErrMissingFeatures is returned when the batch lacks a required model feature.
	ErrMissingFeatures = errors.New("fall: missing model features")
)

// #endregion errors

// #region features

// ModelFeatures is the fixed, ordered feature vector the fall model was trained on.
var ModelFeatures = []string{
	"tBodyAcc-mean()-X", "tBodyAcc-mean()-Y", "tBodyAcc-mean()-Z",
	"tBodyAcc-std()-X", "tBodyAcc-std()-Y", "tBodyAcc-std()-Z",
	"tBodyAcc-max()-X", "tBodyAcc-max()-Y", "tBodyAcc-max()-Z",
	"tBodyAcc-min()-X", "tBodyAcc-min()-Y", "tBodyAcc-min()-Z",
	"tGravityAccMag-mean()", "tGravityAccMag-std()",
}

// #endregion features

// #region interfaces

// Detector flags fall events across a fully materialized batch.
// The returned slice has one entry per sample.
type Detector interface {
	Name() string
	Detect(ctx context.Context, b Batch) ([]bool, error)
}

// Predictor abstracts the fall-model RPC so Model can be tested without gRPC.
type Predictor interface {
	PredictFall(ctx context.Context, features []string, rows [][]float64) ([]bool, error)
}

// #endregion interfaces

// #region batch

// Batch bundles what a detector may look at: the samples, their magnitudes
// and the batch thresholds.
type Batch struct {
	Dataset    *dataset.Dataset
	Magnitudes []float64
	Thresholds signals.Thresholds
}

// #endregion batch
