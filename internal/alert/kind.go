package alert

// #region kind

// Kind is the decided alert variant for one sample. KindNone means no alert.
type Kind int

const (
	KindNone Kind = iota
	KindFallDetected
	KindHighRiskMotion
	KindAnomalyDetected
	KindHighRiskActivity
	KindElevatedRisk
)

// Severity of the variant. KindNone reports INFO and must not be emitted.
func (k Kind) Severity() Severity {
	switch k {
	case KindFallDetected:
		return SeverityEmergency
	case KindHighRiskMotion:
		return SeverityCritical
	case KindAnomalyDetected, KindHighRiskActivity:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// Type of the variant. KindNone reports the empty type.
func (k Kind) Type() Type {
	switch k {
	case KindFallDetected:
		return TypeFallDetected
	case KindHighRiskMotion:
		return TypeHighRiskMotion
	case KindAnomalyDetected:
		return TypeAnomalyDetected
	case KindHighRiskActivity:
		return TypeHighRiskActivity
	case KindElevatedRisk:
		return TypeElevatedRisk
	default:
		return ""
	}
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if k == KindNone {
		return "NONE"
	}
	return string(k.Type())
}

// #endregion kind

// #region decide

// Decide walks the precedence table top to bottom; the first match wins.
// Within the WARNING tier an anomaly takes precedence over an activity-name match.
func Decide(in Input, cfg Config) Kind {
	switch {
	case in.Flags.Fall:
		return KindFallDetected
	case in.Flags.HighAlert:
		return KindHighRiskMotion
	case in.Flags.Anomaly:
		return KindAnomalyDetected
	case cfg.IsHighRiskActivity(in.Activity):
		return KindHighRiskActivity
	case in.RiskScore >= cfg.ElevatedRiskMin:
		return KindElevatedRisk
	default:
		return KindNone
	}
}

// #endregion decide

// #region describe

// Describe renders the user-facing message and recommended action for kind.
func Describe(kind Kind, activity string) (message, action string) {
	switch kind {
	case KindFallDetected:
		return "EMERGENCY: Fall detected during " + activity,
			"Immediate medical assistance required"
	case KindHighRiskMotion:
		return "CRITICAL: Dangerous motion spike during " + activity,
			"Monitor closely, prepare for intervention"
	case KindAnomalyDetected:
		return "WARNING: Unusual movement pattern during " + activity,
			"Increase monitoring frequency"
	case KindHighRiskActivity:
		return "WARNING: Performing high-risk activity: " + activity,
			"Ensure safety measures in place"
	case KindElevatedRisk:
		return "INFO: Elevated risk level during " + activity,
			"Continue monitoring"
	default:
		return "", ""
	}
}

// #endregion describe
