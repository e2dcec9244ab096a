package risk

import (
	"math"

	"github.com/danielpatrickdp/motion-safety/internal/signals"
)

// #region scorer

// Scorer turns motion intensity and the three flags into a bounded integer score.
type Scorer struct {
	config ScorerConfig
}

// NewScorer creates a scorer with the given weights.
func NewScorer(config ScorerConfig) *Scorer {
	return &Scorer{config: config}
}

// Score caps the motion-ratio term at MotionWeight first, adds FlagWeight per
// true flag, caps the sum at MaxScore and truncates. A non-positive batch mean
// or a NaN ratio contributes 0 to the motion term.
func (s *Scorer) Score(in Input) int {
	score := math.Min(s.motionTerm(in.Magnitude, in.Mean), s.config.MotionWeight)
	if in.Flags.Anomaly {
		score += s.config.FlagWeight
	}
	if in.Flags.HighAlert {
		score += s.config.FlagWeight
	}
	if in.Flags.Fall {
		score += s.config.FlagWeight
	}
	score = math.Min(score, s.config.MaxScore)
	return int(score)
}

func (s *Scorer) motionTerm(magnitude, mean float64) float64 {
	if mean <= 0 || math.IsNaN(mean) {
		return 0
	}
	term := magnitude / mean * s.config.MotionWeight
	if math.IsNaN(term) || term < 0 {
		return 0
	}
	return term
}

// #endregion scorer

// #region bands

// BandOf maps a score onto its risk band.
func BandOf(score int) Band {
	switch {
	case score < MediumFloor:
		return BandLow
	case score < HighFloor:
		return BandMedium
	case score < CriticalFloor:
		return BandHigh
	default:
		return BandCritical
	}
}

// Status is the operator-facing line for the band.
func (b Band) Status() string {
	switch b {
	case BandLow:
		return "Low Risk - Stable condition"
	case BandMedium:
		return "Medium Risk - Monitor closely"
	case BandHigh:
		return "High Risk - Potential danger"
	default:
		return "CRITICAL - Immediate attention required!"
	}
}

// #endregion bands

// #region motion-status

// MotionStatusOf ranks the flags the same way the alert generator does.
func MotionStatusOf(f signals.Flags) MotionStatus {
	switch {
	case f.Fall:
		return StatusFall
	case f.HighAlert:
		return StatusHighRisk
	case f.Anomaly:
		return StatusCaution
	default:
		return StatusNormal
	}
}

// Message is the operator-facing line for the status.
func (m MotionStatus) Message() string {
	switch m {
	case StatusFall:
		return "CRITICAL: Likely FALL detected!"
	case StatusHighRisk:
		return "HIGH RISK: Significant motion spike detected"
	case StatusCaution:
		return "CAUTION: Unusual movement pattern"
	default:
		return "NORMAL: Movement within safe parameters"
	}
}

// #endregion motion-status
