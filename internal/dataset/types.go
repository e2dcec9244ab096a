package dataset

import "errors"

// #region columns

// Column names follow the UCI HAR feature naming used by the recorded batches.
const (
	ColumnBodyAccMeanX = "tBodyAcc-mean()-X"
	ColumnBodyAccMeanY = "tBodyAcc-mean()-Y"
	ColumnBodyAccMeanZ = "tBodyAcc-mean()-Z"

	ColumnActivity = "Activity"
	ColumnSubject  = "subject"
)

// BodyAccMeanColumns are required in every batch.
var BodyAccMeanColumns = []string{ColumnBodyAccMeanX, ColumnBodyAccMeanY, ColumnBodyAccMeanZ}

// #endregion columns

// #region errors

var (
	// ErrMissingColumns is returned when a batch lacks columns a caller needs.
	ErrMissingColumns = errors.New("dataset: missing columns")
	// ErrEmpty is returned for a file with a header but no rows.
	ErrEmpty = errors.New("dataset: no samples")
)

// #endregion errors

// #region sample

// Sample is one row of sensor-derived input.
type Sample struct {
	Index       int
	BodyAccMean [3]float64
	Features    map[string]float64 // every numeric feature column by name
	Label       string             // ground-truth activity column, if present
}

// Feature returns a named feature value and whether it was present.
func (s Sample) Feature(name string) (float64, bool) {
	v, ok := s.Features[name]
	return v, ok
}

// #endregion sample

// #region dataset

// Dataset is an ordered, fully materialized batch of samples.
type Dataset struct {
	Columns []string // numeric feature columns in file order
	Samples []Sample
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.Samples)
}

// #endregion dataset
