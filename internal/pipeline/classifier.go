package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielpatrickdp/motion-safety/internal/dataset"
)

// #region classifier

// ActivityClassifier assigns one activity label per sample of a batch.
type ActivityClassifier interface {
	Classify(ctx context.Context, ds *dataset.Dataset) ([]string, error)
}

// ActivityPredictor is the model-service side of ModelClassifier.
type ActivityPredictor interface {
	PredictActivity(ctx context.Context, features []string, rows [][]float64) ([]string, error)
}

// ModelClassifier sends the batch's feature matrix to a trained model.
type ModelClassifier struct {
	predictor ActivityPredictor
	features  []string
}

// NewModelClassifier uses features as the model's input columns, or every
// numeric column of the batch when features is empty.
func NewModelClassifier(predictor ActivityPredictor, features []string) *ModelClassifier {
	return &ModelClassifier{predictor: predictor, features: features}
}

// Classify implements ActivityClassifier.
func (m *ModelClassifier) Classify(ctx context.Context, ds *dataset.Dataset) ([]string, error) {
	if m.predictor == nil {
		return nil, ErrNoClassifier
	}
	features := m.features
	if len(features) == 0 {
		features = ds.Columns
	}
	rows, err := ds.Matrix(features)
	if err != nil {
		return nil, err
	}
	return m.predictor.PredictActivity(ctx, features, rows)
}

// LabelColumn uses the batch's recorded Activity column, for offline runs.
type LabelColumn struct{}

// errNoLabels is returned when a batch has no complete Activity column.
var errNoLabels = errors.New("batch has no complete " + dataset.ColumnActivity + " column")

// Classify implements ActivityClassifier.
func (LabelColumn) Classify(_ context.Context, ds *dataset.Dataset) ([]string, error) {
	labels := ds.Labels()
	if labels == nil {
		return nil, fmt.Errorf("%w: %v", ErrNoClassifier, errNoLabels)
	}
	return labels, nil
}

// #endregion classifier
