package report

import (
	"fmt"
	"io"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/danielpatrickdp/motion-safety/internal/risk"
	"github.com/danielpatrickdp/motion-safety/internal/signals"
)

// #region observation

// Observation is what the summary needs from one processed sample.
type Observation struct {
	Activity  string
	Magnitude float64
	RiskScore int
	Flags     signals.Flags
	Alerted   bool
}

// #endregion observation

// #region report

// Report summarizes one simulated monitoring run.
type Report struct {
	Samples        int            `json:"samples"`
	AnomalyCount   int            `json:"anomaly_count"`
	HighAlertCount int            `json:"high_alert_count"`
	FallCount      int            `json:"fall_count"`
	AlertCount     int            `json:"alert_count"`
	Activities     map[string]int `json:"activities"`
	Bands          map[string]int `json:"bands"`
	MeanMagnitude  float64        `json:"mean_magnitude"`
	MaxMagnitude   float64        `json:"max_magnitude"`
	MeanRiskScore  float64        `json:"mean_risk_score"`
	AnomalyRate    float64        `json:"anomaly_rate"` // AnomalyCount / Samples
}

// Build summarizes obs. An empty run yields zero statistics and empty maps.
func Build(obs []Observation) Report {
	r := Report{
		Samples:    len(obs),
		Activities: map[string]int{},
		Bands:      map[string]int{},
	}
	if len(obs) == 0 {
		return r
	}

	mags := make([]float64, len(obs))
	scores := make([]float64, len(obs))
	for i, o := range obs {
		mags[i] = o.Magnitude
		scores[i] = float64(o.RiskScore)
		r.Activities[o.Activity]++
		r.Bands[string(risk.BandOf(o.RiskScore))]++
		if o.Flags.Anomaly {
			r.AnomalyCount++
		}
		if o.Flags.HighAlert {
			r.HighAlertCount++
		}
		if o.Flags.Fall {
			r.FallCount++
		}
		if o.Alerted {
			r.AlertCount++
		}
	}
	r.MeanMagnitude = stat.Mean(mags, nil)
	r.MaxMagnitude = floats.Max(mags)
	r.MeanRiskScore = stat.Mean(scores, nil)
	r.AnomalyRate = float64(r.AnomalyCount) / float64(r.Samples)
	return r
}

// #endregion report

// #region render

// Write prints a plain-text view of r.
func Write(w io.Writer, r Report) error {
	lines := []string{
		fmt.Sprintf("Samples processed:   %d", r.Samples),
		fmt.Sprintf("Anomalies:           %d (%.1f%%)", r.AnomalyCount, r.AnomalyRate*100),
		fmt.Sprintf("High-risk spikes:    %d", r.HighAlertCount),
		fmt.Sprintf("Fall events:         %d", r.FallCount),
		fmt.Sprintf("Alerts generated:    %d", r.AlertCount),
		fmt.Sprintf("Mean magnitude:      %.4f", r.MeanMagnitude),
		fmt.Sprintf("Max magnitude:       %.4f", r.MaxMagnitude),
		fmt.Sprintf("Mean risk score:     %.1f", r.MeanRiskScore),
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	if err := writeCounts(w, "Risk bands", r.Bands); err != nil {
		return err
	}
	return writeCounts(w, "Activities", r.Activities)
}

// writeCounts prints counts largest first, ties by name.
func writeCounts(w io.Writer, title string, counts map[string]int) error {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if _, err := fmt.Fprintf(w, "%s:\n", title); err != nil {
		return err
	}
	for _, k := range keys {
		if _, err := fmt.Fprintf(w, "  %-20s %d\n", k, counts[k]); err != nil {
			return err
		}
	}
	return nil
}

// #endregion render
