package alert

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/danielpatrickdp/motion-safety/internal/signals"
)

// #region mocks

type recordingSession struct {
	alerts []Alert
}

func (r *recordingSession) Append(a Alert) { r.alerts = append(r.alerts, a) }

type recordingLog struct {
	alerts []Alert
	err    error
}

func (r *recordingLog) Append(_ context.Context, a Alert) error {
	if r.err != nil {
		return r.err
	}
	r.alerts = append(r.alerts, a)
	return nil
}

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestGenerator(session SessionAppender, log LogAppender) *Generator {
	g := NewGenerator(DefaultConfig(), session, log, nil)
	g.SetClock(func() time.Time { return fixedTime })
	return g
}

// #endregion mocks

// #region decide-tests

func TestDecide_FallAlwaysEmergency(t *testing.T) {
	cfg := DefaultConfig()
	for _, f := range []signals.Flags{
		{Fall: true},
		{Fall: true, Anomaly: true},
		{Fall: true, HighAlert: true},
		{Fall: true, Anomaly: true, HighAlert: true},
	} {
		for _, score := range []int{0, 10, 65, 100} {
			k := Decide(Input{Activity: "WALKING", RiskScore: score, Flags: f}, cfg)
			if k != KindFallDetected || k.Severity() != SeverityEmergency {
				t.Errorf("flags %+v score %d: got %s", f, score, k)
			}
		}
	}
}

func TestDecide_WalkingFall(t *testing.T) {
	k := Decide(Input{Activity: "WALKING", RiskScore: 10, Flags: signals.Flags{Fall: true}}, DefaultConfig())
	if k.Severity() != SeverityEmergency || k.Type() != TypeFallDetected {
		t.Errorf("expected EMERGENCY/FALL_DETECTED, got %s/%s", k.Severity(), k.Type())
	}
}

func TestDecide_HighAlertIsCritical(t *testing.T) {
	k := Decide(Input{Activity: "STAIRS", Flags: signals.Flags{HighAlert: true, Anomaly: true}}, DefaultConfig())
	if k != KindHighRiskMotion || k.Severity() != SeverityCritical {
		t.Errorf("expected HIGH_RISK_MOTION, got %s", k)
	}
}

func TestDecide_StairsIsHighRiskActivity(t *testing.T) {
	for _, activity := range []string{"STAIRS", "stairs", "Stairs"} {
		k := Decide(Input{Activity: activity, RiskScore: 40}, DefaultConfig())
		if k.Severity() != SeverityWarning || k.Type() != TypeHighRiskActivity {
			t.Errorf("%q: expected WARNING/HIGH_RISK_ACTIVITY, got %s/%s", activity, k.Severity(), k.Type())
		}
	}
}

func TestDecide_AnomalyBeatsActivityMatch(t *testing.T) {
	k := Decide(Input{Activity: "RUNNING", Flags: signals.Flags{Anomaly: true}}, DefaultConfig())
	if k != KindAnomalyDetected {
		t.Errorf("expected ANOMALY_DETECTED, got %s", k)
	}
}

func TestDecide_ElevatedRisk(t *testing.T) {
	k := Decide(Input{Activity: "SITTING", RiskScore: 65}, DefaultConfig())
	if k.Severity() != SeverityInfo || k.Type() != TypeElevatedRisk {
		t.Errorf("expected INFO/ELEVATED_RISK, got %s/%s", k.Severity(), k.Type())
	}
	if Decide(Input{Activity: "SITTING", RiskScore: 60}, DefaultConfig()) != KindElevatedRisk {
		t.Error("score 60 must reach the elevated-risk floor")
	}
}

func TestDecide_NoAlert(t *testing.T) {
	if k := Decide(Input{Activity: "SITTING", RiskScore: 20}, DefaultConfig()); k != KindNone {
		t.Errorf("expected no alert, got %s", k)
	}
}

func TestDecide_CustomActivitySet(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HighRiskActivities = []string{"CYCLING"}
	if Decide(Input{Activity: "stairs"}, cfg) != KindNone {
		t.Error("STAIRS should not match a custom set without it")
	}
	if Decide(Input{Activity: "cycling"}, cfg) != KindHighRiskActivity {
		t.Error("expected CYCLING to match")
	}
}

// #endregion decide-tests

// #region describe-tests

func TestDescribe_Templates(t *testing.T) {
	tests := []struct {
		kind   Kind
		msg    string
		action string
	}{
		{KindFallDetected, "EMERGENCY: Fall detected during WALKING", "Immediate medical assistance required"},
		{KindHighRiskMotion, "CRITICAL: Dangerous motion spike during WALKING", "Monitor closely, prepare for intervention"},
		{KindAnomalyDetected, "WARNING: Unusual movement pattern during WALKING", "Increase monitoring frequency"},
		{KindHighRiskActivity, "WARNING: Performing high-risk activity: WALKING", "Ensure safety measures in place"},
		{KindElevatedRisk, "INFO: Elevated risk level during WALKING", "Continue monitoring"},
	}
	for _, tt := range tests {
		msg, action := Describe(tt.kind, "WALKING")
		if msg != tt.msg || action != tt.action {
			t.Errorf("%s: got (%q, %q)", tt.kind, msg, action)
		}
	}
	if msg, action := Describe(KindNone, "WALKING"); msg != "" || action != "" {
		t.Error("KindNone must render nothing")
	}
}

// #endregion describe-tests

// #region generate-tests

func TestGenerate_NoAlertTouchesNothing(t *testing.T) {
	sess, log := &recordingSession{}, &recordingLog{}
	a, err := newTestGenerator(sess, log).Generate(context.Background(), Input{Activity: "SITTING", RiskScore: 20})
	if err != nil || a != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", a, err)
	}
	if len(sess.alerts) != 0 || len(log.alerts) != 0 {
		t.Error("no-alert sample must not be recorded")
	}
}

func TestGenerate_EmergencyPersisted(t *testing.T) {
	sess, log := &recordingSession{}, &recordingLog{}
	in := Input{Activity: "WALKING", RiskScore: 10, MotionIntensity: 1.23, Flags: signals.Flags{Fall: true}, SampleIndex: IndexPtr(7)}
	a, err := newTestGenerator(sess, log).Generate(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Severity != SeverityEmergency || a.Index() != 7 || !a.Timestamp.Equal(fixedTime) {
		t.Errorf("unexpected alert: %+v", a)
	}
	if len(sess.alerts) != 1 || len(log.alerts) != 1 {
		t.Fatalf("expected one session and one log entry, got %d/%d", len(sess.alerts), len(log.alerts))
	}
}

func TestGenerate_WarningNotPersisted(t *testing.T) {
	sess, log := &recordingSession{}, &recordingLog{}
	g := newTestGenerator(sess, log)
	if _, err := g.Generate(context.Background(), Input{Activity: "STAIRS", RiskScore: 40}); err != nil {
		t.Fatal(err)
	}
	if _, err := g.Generate(context.Background(), Input{Activity: "SITTING", RiskScore: 70}); err != nil {
		t.Fatal(err)
	}
	if len(sess.alerts) != 2 {
		t.Errorf("expected 2 session alerts, got %d", len(sess.alerts))
	}
	if len(log.alerts) != 0 {
		t.Errorf("WARNING and INFO must not auto-persist, got %d", len(log.alerts))
	}
}

func TestGenerate_LogFailureKeepsSessionAlert(t *testing.T) {
	sess := &recordingSession{}
	log := &recordingLog{err: errors.New("disk full")}
	a, err := newTestGenerator(sess, log).Generate(context.Background(), Input{Activity: "WALKING", Flags: signals.Flags{HighAlert: true}})
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected wrapped log error, got %v", err)
	}
	if a == nil || a.Type != TypeHighRiskMotion {
		t.Fatalf("alert must be returned alongside the error, got %v", a)
	}
	if len(sess.alerts) != 1 {
		t.Error("session copy must remain valid")
	}
}

func TestGenerate_NilCollaborators(t *testing.T) {
	a, err := newTestGenerator(nil, nil).Generate(context.Background(), Input{Flags: signals.Flags{Fall: true}})
	if err != nil || a == nil {
		t.Fatalf("expected alert without collaborators, got (%v, %v)", a, err)
	}
	if a.Index() != -1 {
		t.Errorf("expected -1 sentinel, got %d", a.Index())
	}
}

func TestGenerate_SampleIndexCopied(t *testing.T) {
	idx := 3
	a, _ := newTestGenerator(nil, nil).Generate(context.Background(), Input{Flags: signals.Flags{Fall: true}, SampleIndex: &idx})
	idx = 99
	if a.Index() != 3 {
		t.Errorf("alert must not alias the caller's index, got %d", a.Index())
	}
}

// #endregion generate-tests

// #region severity-tests

func TestSeverity_Ordering(t *testing.T) {
	if !(SeverityInfo < SeverityWarning && SeverityWarning < SeverityCritical && SeverityCritical < SeverityEmergency) {
		t.Error("severity ordering broken")
	}
	if SeverityEmergency.Rank() != 3 || SeverityInfo.Rank() != 0 {
		t.Error("unexpected ranks")
	}
	if SeverityWarning.AutoPersist() || !SeverityCritical.AutoPersist() {
		t.Error("only CRITICAL and above auto-persist")
	}
}

func TestSeverity_TextRoundTrip(t *testing.T) {
	data, err := json.Marshal(Alert{Severity: SeverityCritical, Type: TypeHighRiskMotion})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"severity":"CRITICAL"`) {
		t.Errorf("expected severity name in JSON, got %s", data)
	}
	var back Alert
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Severity != SeverityCritical {
		t.Errorf("expected CRITICAL, got %s", back.Severity)
	}
	if _, err := ParseSeverity("loud"); err == nil {
		t.Error("expected parse error for unknown severity")
	}
	if s, _ := ParseSeverity("emergency"); s != SeverityEmergency {
		t.Errorf("expected case-insensitive parse, got %s", s)
	}
}

// #endregion severity-tests

// #region format-tests

func TestFormat(t *testing.T) {
	a := Build(KindFallDetected, Input{Activity: "WALKING", RiskScore: 75, MotionIntensity: 1.23456}, fixedTime)
	out := Format(a)
	for _, want := range []string{
		"EMERGENCY - Fall Detected",
		"Risk Score:       75/100",
		"Motion Intensity: 1.235",
		"Immediate medical assistance required",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

// #endregion format-tests
