package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/motion-safety/internal/alert"
	"github.com/danielpatrickdp/motion-safety/internal/dataset"
	"github.com/danielpatrickdp/motion-safety/internal/fall"
	"github.com/danielpatrickdp/motion-safety/internal/pipeline"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture: a recorded
// batch plus the alerts it must produce.
type Fixture struct {
	Description     string                  `json:"description"`
	FallStrategy    string                  `json:"fall_strategy,omitempty"` // detector that produced the recorded falls
	Config          FixtureConfig           `json:"config"`
	Samples         []FixtureSample         `json:"samples"`
	ExpectedResults []FixtureExpectedResult `json:"expected_results"`
}

// FixtureSample is one recorded sample with its activity label. Fall is set
// when the recording used a fall model; replay then reuses it instead of the
// spike/drop heuristic.
type FixtureSample struct {
	Index       int        `json:"index"`
	Activity    string     `json:"activity"`
	BodyAccMean [3]float64 `json:"body_acc_mean"`
	Fall        *bool      `json:"is_fall,omitempty"`
}

// FixtureExpectedResult is one alert the batch must raise. Samples not listed
// must raise none.
type FixtureExpectedResult struct {
	Index     int    `json:"index"`
	Severity  string `json:"severity"`
	AlertType string `json:"alert_type"`
	RiskScore *int   `json:"risk_score,omitempty"` // checked when set
}

// FixtureConfig mirrors the tunable parts of pipeline.Options with JSON tags.
// Unset fields fall back to the defaults.
type FixtureConfig struct {
	AnomalySigma       *float64 `json:"anomaly_sigma,omitempty"`
	AlertSigma         *float64 `json:"alert_sigma,omitempty"`
	HighRiskActivities []string `json:"high_risk_activities,omitempty"`
	ElevatedRiskMin    *int     `json:"elevated_risk_min,omitempty"`
	MaxSamples         int      `json:"max_samples,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// Save writes f as indented JSON.
func (f *Fixture) Save(path string) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// ToDataset converts the recorded samples to a labelled batch.
func (f *Fixture) ToDataset() *dataset.Dataset {
	ds := &dataset.Dataset{Columns: append([]string(nil), dataset.BodyAccMeanColumns...)}
	for _, s := range f.Samples {
		ds.Samples = append(ds.Samples, dataset.Sample{
			Index:       s.Index,
			BodyAccMean: s.BodyAccMean,
			Features: map[string]float64{
				dataset.ColumnBodyAccMeanX: s.BodyAccMean[0],
				dataset.ColumnBodyAccMeanY: s.BodyAccMean[1],
				dataset.ColumnBodyAccMeanZ: s.BodyAccMean[2],
			},
			Label: s.Activity,
		})
	}
	return ds
}

// ToOptions converts a FixtureConfig to pipeline options.
func (fc *FixtureConfig) ToOptions() pipeline.Options {
	opts := pipeline.DefaultOptions()
	if fc.AnomalySigma != nil {
		opts.Signals.AnomalySigma = *fc.AnomalySigma
	}
	if fc.AlertSigma != nil {
		opts.Signals.AlertSigma = *fc.AlertSigma
	}
	if len(fc.HighRiskActivities) > 0 {
		opts.Alert.HighRiskActivities = fc.HighRiskActivities
	}
	if fc.ElevatedRiskMin != nil {
		opts.Alert.ElevatedRiskMin = *fc.ElevatedRiskMin
	}
	opts.MaxSamples = fc.MaxSamples
	return opts
}

// #endregion fixture-loader

// #region fixture-export

// unknownActivity labels samples a recording never classified.
const unknownActivity = "UNKNOWN"

// NewFixture records a processed batch as a fixture whose expectations are
// the alerts the batch actually produced. fallStrategy is the detector the
// run used; unless it is the heuristic, each processed sample's fall flag is
// recorded so the replay does not depend on the model service.
func NewFixture(description string, ds *dataset.Dataset, opts pipeline.Options, fallStrategy string, results []pipeline.Result) *Fixture {
	anomaly, alertSigma, elevated := opts.Signals.AnomalySigma, opts.Signals.AlertSigma, opts.Alert.ElevatedRiskMin
	f := &Fixture{
		Description:  description,
		FallStrategy: fallStrategy,
		Config: FixtureConfig{
			AnomalySigma:       &anomaly,
			AlertSigma:         &alertSigma,
			HighRiskActivities: opts.Alert.HighRiskActivities,
			ElevatedRiskMin:    &elevated,
			MaxSamples:         opts.MaxSamples,
		},
		ExpectedResults: []FixtureExpectedResult{},
	}
	recordFalls := fallStrategy != "" && fallStrategy != fall.StrategyHeuristic
	activity := make(map[int]string, len(results))
	falls := make(map[int]bool, len(results))
	for _, r := range results {
		activity[r.Index] = r.Activity
		falls[r.Index] = r.Flags.Fall
	}
	for _, s := range ds.Samples {
		label, ok := activity[s.Index]
		if !ok {
			label = s.Label
		}
		if label == "" {
			label = unknownActivity
		}
		fs := FixtureSample{Index: s.Index, Activity: label, BodyAccMean: s.BodyAccMean}
		if recordFalls {
			isFall := falls[s.Index]
			fs.Fall = &isFall
		}
		f.Samples = append(f.Samples, fs)
	}
	for _, r := range results {
		if r.Alert == nil {
			continue
		}
		score := r.RiskScore
		f.ExpectedResults = append(f.ExpectedResults, FixtureExpectedResult{
			Index:     r.Index,
			Severity:  r.Alert.Severity.String(),
			AlertType: string(r.Alert.Type),
			RiskScore: &score,
		})
	}
	return f
}

// RecordedFalls returns the recorded per-sample fall flags in sample order,
// or nil when the fixture carries none. Samples without a flag count as no fall.
func (f *Fixture) RecordedFalls() []bool {
	recorded := false
	out := make([]bool, len(f.Samples))
	for i, s := range f.Samples {
		if s.Fall != nil {
			recorded = true
			out[i] = *s.Fall
		}
	}
	if !recorded {
		return nil
	}
	return out
}

// #endregion fixture-export

// #region expectations

// Expect builds an expectation from a decided alert kind.
func Expect(index int, kind alert.Kind) FixtureExpectedResult {
	return FixtureExpectedResult{
		Index:     index,
		Severity:  kind.Severity().String(),
		AlertType: string(kind.Type()),
	}
}

// #endregion expectations
