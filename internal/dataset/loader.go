package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// #region load

// Load reads a batch from a CSV file.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer f.Close()

	ds, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	return ds, nil
}

// Read parses a CSV batch. The Activity and subject columns are kept out of
// the feature set; every other column must be numeric.
func Read(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	labelIdx := -1
	var featureIdx []int
	var columns []string
	for i, name := range header {
		switch name {
		case ColumnActivity:
			labelIdx = i
		case ColumnSubject:
		default:
			featureIdx = append(featureIdx, i)
			columns = append(columns, name)
		}
	}

	ds := &Dataset{Columns: columns}
	if missing := ds.MissingColumns(BodyAccMeanColumns...); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		s := Sample{
			Index:    len(ds.Samples),
			Features: make(map[string]float64, len(featureIdx)),
		}
		for j, idx := range featureIdx {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[idx]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %q: %w", line, columns[j], err)
			}
			s.Features[columns[j]] = v
		}
		if labelIdx >= 0 {
			s.Label = strings.TrimSpace(rec[labelIdx])
		}
		s.BodyAccMean = [3]float64{
			s.Features[ColumnBodyAccMeanX],
			s.Features[ColumnBodyAccMeanY],
			s.Features[ColumnBodyAccMeanZ],
		}
		ds.Samples = append(ds.Samples, s)
	}

	if len(ds.Samples) == 0 {
		return nil, ErrEmpty
	}
	return ds, nil
}

// #endregion load

// #region accessors

// MissingColumns returns the subset of names not present in the feature columns.
func (d *Dataset) MissingColumns(names ...string) []string {
	have := make(map[string]struct{}, len(d.Columns))
	for _, c := range d.Columns {
		have[c] = struct{}{}
	}
	var missing []string
	for _, n := range names {
		if _, ok := have[n]; !ok {
			missing = append(missing, n)
		}
	}
	return missing
}

// Matrix returns one row per sample with the named columns in the given order.
func (d *Dataset) Matrix(columns []string) ([][]float64, error) {
	if missing := d.MissingColumns(columns...); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	rows := make([][]float64, len(d.Samples))
	for i, s := range d.Samples {
		row := make([]float64, len(columns))
		for j, c := range columns {
			row[j] = s.Features[c]
		}
		rows[i] = row
	}
	return rows, nil
}

// BodyAccMeans returns the three-axis body acceleration means per sample.
func (d *Dataset) BodyAccMeans() [][3]float64 {
	out := make([][3]float64, len(d.Samples))
	for i, s := range d.Samples {
		out[i] = s.BodyAccMean
	}
	return out
}

// Labels returns the ground-truth activity column, or nil if any row lacks one.
func (d *Dataset) Labels() []string {
	out := make([]string, len(d.Samples))
	for i, s := range d.Samples {
		if s.Label == "" {
			return nil
		}
		out[i] = s.Label
	}
	return out
}

// #endregion accessors
