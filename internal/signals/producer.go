package signals

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// #region producer

// Producer derives motion magnitudes, batch thresholds and per-sample flags.
type Producer struct {
	config ProducerConfig
}

// NewProducer creates a Producer with the given multipliers.
func NewProducer(config ProducerConfig) *Producer {
	return &Producer{config: config}
}

// Config returns the multipliers this producer was built with.
func (p *Producer) Config() ProducerConfig {
	return p.config
}

// #endregion producer

// #region magnitude

// Magnitude is the Euclidean norm of the three body-acceleration mean components.
// NaN and Inf inputs propagate.
func Magnitude(x, y, z float64) float64 {
	return math.Sqrt(x*x + y*y + z*z)
}

// Magnitudes computes Magnitude for every vector, in order.
func Magnitudes(vecs [][3]float64) []float64 {
	out := make([]float64, len(vecs))
	for i, v := range vecs {
		out[i] = Magnitude(v[0], v[1], v[2])
	}
	return out
}

// #endregion magnitude

// #region estimate

// Estimate computes the batch mean and sample standard deviation of mags and
// derives both thresholds. A single-sample or constant batch has σ = 0, which
// collapses both thresholds onto the mean.
func (p *Producer) Estimate(mags []float64) (Thresholds, error) {
	if len(mags) == 0 {
		return Thresholds{}, ErrEmptyBatch
	}

	var mean, std float64
	switch {
	case len(mags) == 1:
		mean = mags[0]
	case floats.Min(mags) == floats.Max(mags):
		// exact zero variance; avoids rounding noise from the two-pass formula
		mean = mags[0]
	default:
		mean, std = stat.MeanStdDev(mags, nil)
	}

	return Thresholds{
		Mean:    mean,
		StdDev:  std,
		Anomaly: mean + p.config.AnomalySigma*std,
		Alert:   mean + p.config.AlertSigma*std,
		N:       len(mags),
	}, nil
}

// #endregion estimate

// #region classify

// Classify compares one magnitude against fixed batch thresholds (strict >).
// Fall is left unset; it comes from the fall classifier.
func (p *Producer) Classify(mag float64, th Thresholds) Flags {
	return Flags{
		Anomaly:   mag > th.Anomaly,
		HighAlert: mag > th.Alert,
	}
}

// ClassifyBatch applies Classify to every magnitude with the same thresholds.
func (p *Producer) ClassifyBatch(mags []float64, th Thresholds) []Flags {
	out := make([]Flags, len(mags))
	for i, m := range mags {
		out[i] = p.Classify(m, th)
	}
	return out
}

// #endregion classify
