package risk

import "github.com/danielpatrickdp/motion-safety/internal/signals"

// #region scorer-config

// ScorerConfig holds the weights of the composite score.
type ScorerConfig struct {
	MotionWeight float64 // cap on the motion-ratio term
	FlagWeight   float64 // added per true flag
	MaxScore     float64 // cap on the sum
}

// DefaultScorerConfig returns the reference weights: 25 per term, 100 overall.
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		MotionWeight: 25,
		FlagWeight:   25,
		MaxScore:     100,
	}
}

// #endregion scorer-config

// #region input

// Input is everything the scorer needs for one sample.
type Input struct {
	Magnitude float64
	Mean      float64 // batch mean magnitude
	Flags     signals.Flags
}

// #endregion input

// #region band

// Band is the coarse risk level of a score.
type Band string

const (
	BandLow      Band = "LOW"
	BandMedium   Band = "MEDIUM"
	BandHigh     Band = "HIGH"
	BandCritical Band = "CRITICAL"
)

// Band boundaries: [0,30) low, [30,60) medium, [60,85) high, [85,100] critical.
const (
	MediumFloor   = 30
	HighFloor     = 60
	CriticalFloor = 85
)

// #endregion band

// #region motion-status

// MotionStatus summarizes the flags of one sample for display.
type MotionStatus string

const (
	StatusNormal   MotionStatus = "NORMAL"
	StatusCaution  MotionStatus = "CAUTION"
	StatusHighRisk MotionStatus = "HIGH_RISK"
	StatusFall     MotionStatus = "FALL"
)

// #endregion motion-status
