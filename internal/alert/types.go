package alert

import (
	"fmt"
	"strings"
	"time"

	"github.com/danielpatrickdp/motion-safety/internal/signals"
)

// #region severity

// Severity is the ordered alert rank.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityCritical
	SeverityEmergency
)

var severityNames = [...]string{"INFO", "WARNING", "CRITICAL", "EMERGENCY"}

// String returns the upper-case severity name used on the wire and in the log.
func (s Severity) String() string {
	if s < SeverityInfo || s > SeverityEmergency {
		return fmt.Sprintf("SEVERITY(%d)", int(s))
	}
	return severityNames[s]
}

// Rank is the integer ordering, INFO=0 through EMERGENCY=3.
func (s Severity) Rank() int { return int(s) }

// AutoPersist reports whether alerts of this severity are written to the
// persistence log at generation time.
func (s Severity) AutoPersist() bool { return s >= SeverityCritical }

// Icon is a cosmetic marker for terminal output.
func (s Severity) Icon() string {
	switch s {
	case SeverityInfo:
		return "[i]"
	case SeverityWarning:
		return "[!]"
	case SeverityCritical:
		return "[!!]"
	case SeverityEmergency:
		return "[!!!]"
	default:
		return "[?]"
	}
}

// ParseSeverity accepts a severity name in any case.
func ParseSeverity(name string) (Severity, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for i, n := range severityNames {
		if n == upper {
			return Severity(i), nil
		}
	}
	return 0, fmt.Errorf("unknown severity %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	if s < SeverityInfo || s > SeverityEmergency {
		return nil, fmt.Errorf("invalid severity %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// #endregion severity

// #region type

// Type names the condition that produced an alert.
type Type string

const (
	TypeFallDetected     Type = "FALL_DETECTED"
	TypeHighRiskMotion   Type = "HIGH_RISK_MOTION"
	TypeAnomalyDetected  Type = "ANOMALY_DETECTED"
	TypeHighRiskActivity Type = "HIGH_RISK_ACTIVITY"
	TypeElevatedRisk     Type = "ELEVATED_RISK"
)

// #endregion type

// #region config

// Config controls the non-flag branches of the decision table.
type Config struct {
	HighRiskActivities []string // matched case-insensitively
	ElevatedRiskMin    int      // INFO alert at or above this score
}

// DefaultConfig returns the reference activity set and the 60-point floor.
func DefaultConfig() Config {
	return Config{
		HighRiskActivities: []string{"STAIRS", "RUNNING", "JOGGING"},
		ElevatedRiskMin:    60,
	}
}

// IsHighRiskActivity reports whether activity is in the configured set.
func (c Config) IsHighRiskActivity(activity string) bool {
	for _, a := range c.HighRiskActivities {
		if strings.EqualFold(a, activity) {
			return true
		}
	}
	return false
}

// #endregion config

// #region alert

// Alert is one generated safety alert. It is a value: stores keep copies.
type Alert struct {
	Timestamp       time.Time `json:"timestamp"`
	Severity        Severity  `json:"severity"`
	Type            Type      `json:"alert_type"`
	Activity        string    `json:"activity"`
	RiskScore       int       `json:"risk_score"`
	MotionIntensity float64   `json:"motion_intensity"`
	Message         string    `json:"message"`
	ActionRequired  string    `json:"action_required"`
	SampleIndex     *int      `json:"sample_index,omitempty"`
}

// Index returns the sample index, or -1 when unset.
func (a Alert) Index() int {
	if a.SampleIndex == nil {
		return -1
	}
	return *a.SampleIndex
}

// Input is the per-sample context the generator decides on.
type Input struct {
	Activity        string
	RiskScore       int
	MotionIntensity float64
	Flags           signals.Flags
	SampleIndex     *int
}

// IndexPtr is a convenience for building an Input from a plain index.
func IndexPtr(i int) *int { return &i }

// #endregion alert
