package alert

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// #region collaborators

// SessionAppender receives every generated alert.
type SessionAppender interface {
	Append(a Alert)
}

// LogAppender receives CRITICAL and EMERGENCY alerts at generation time.
type LogAppender interface {
	Append(ctx context.Context, a Alert) error
}

// #endregion collaborators

// #region generator

// Generator turns per-sample context into at most one alert.
type Generator struct {
	config  Config
	session SessionAppender
	log     LogAppender
	logger  *zap.Logger
	now     func() time.Time
}

// NewGenerator creates a generator. session and log may be nil; a nil log
// disables auto-persistence.
func NewGenerator(config Config, session SessionAppender, log LogAppender, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		config:  config,
		session: session,
		log:     log,
		logger:  logger,
		now:     time.Now,
	}
}

// SetClock overrides the timestamp source.
func (g *Generator) SetClock(now func() time.Time) {
	g.now = now
}

// Generate decides on in and, when an alert results, appends it to the
// session and (CRITICAL or above) to the persistence log. A nil alert means
// no alert. A log failure is returned together with the alert, which stays
// valid in the session.
func (g *Generator) Generate(ctx context.Context, in Input) (*Alert, error) {
	kind := Decide(in, g.config)
	if kind == KindNone {
		return nil, nil
	}

	a := Build(kind, in, g.now())
	if g.session != nil {
		g.session.Append(a)
	}

	fields := []zap.Field{
		zap.Stringer("severity", a.Severity),
		zap.String("type", string(a.Type)),
		zap.String("activity", a.Activity),
		zap.Int("risk_score", a.RiskScore),
		zap.Int("sample_index", a.Index()),
	}
	switch a.Severity {
	case SeverityEmergency:
		g.logger.Error("safety alert", fields...)
	case SeverityCritical:
		g.logger.Warn("safety alert", fields...)
	default:
		g.logger.Debug("safety alert", fields...)
	}

	if !a.Severity.AutoPersist() || g.log == nil {
		return &a, nil
	}
	if err := g.log.Append(ctx, a); err != nil {
		g.logger.Error("persist alert failed", append(fields, zap.Error(err))...)
		return &a, fmt.Errorf("persist %s alert: %w", a.Severity, err)
	}
	return &a, nil
}

// Build assembles the alert value for kind.
func Build(kind Kind, in Input, ts time.Time) Alert {
	msg, action := Describe(kind, in.Activity)
	var idx *int
	if in.SampleIndex != nil {
		v := *in.SampleIndex
		idx = &v
	}
	return Alert{
		Timestamp:       ts,
		Severity:        kind.Severity(),
		Type:            kind.Type(),
		Activity:        in.Activity,
		RiskScore:       in.RiskScore,
		MotionIntensity: in.MotionIntensity,
		Message:         msg,
		ActionRequired:  action,
		SampleIndex:     idx,
	}
}

// #endregion generator
