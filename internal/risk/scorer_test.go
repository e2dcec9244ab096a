package risk

import (
	"math"
	"testing"

	"github.com/danielpatrickdp/motion-safety/internal/signals"
)

func newScorer() *Scorer {
	return NewScorer(DefaultScorerConfig())
}

// allFlags enumerates every combination of the three flags.
func allFlags() []signals.Flags {
	var out []signals.Flags
	for i := 0; i < 8; i++ {
		out = append(out, signals.Flags{
			Anomaly:   i&1 != 0,
			HighAlert: i&2 != 0,
			Fall:      i&4 != 0,
		})
	}
	return out
}

// #region score-tests

func TestScore_ZeroMagnitudeNoFlags(t *testing.T) {
	if got := newScorer().Score(Input{Magnitude: 0, Mean: 0.3}); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}

func TestScore_MotionTermCappedBeforeFlags(t *testing.T) {
	s := newScorer()
	// ratio 4 → 100 before the inner cap, 25 after
	got := s.Score(Input{Magnitude: 4, Mean: 1, Flags: signals.Flags{Anomaly: true}})
	if got != 50 {
		t.Errorf("expected 50 (25 capped motion + 25 anomaly), got %d", got)
	}
}

func TestScore_Truncates(t *testing.T) {
	s := newScorer()
	// 0.5/1*25 = 12.5 → 12
	if got := s.Score(Input{Magnitude: 0.5, Mean: 1}); got != 12 {
		t.Errorf("expected 12, got %d", got)
	}
}

func TestScore_OuterCap(t *testing.T) {
	s := newScorer()
	got := s.Score(Input{Magnitude: 10, Mean: 1, Flags: signals.Flags{Anomaly: true, HighAlert: true, Fall: true}})
	if got != 100 {
		t.Errorf("expected 100, got %d", got)
	}
}

func TestScore_ZeroMeanGuard(t *testing.T) {
	s := newScorer()
	if got := s.Score(Input{Magnitude: 1, Mean: 0}); got != 0 {
		t.Errorf("expected motion term 0 for zero mean, got %d", got)
	}
	if got := s.Score(Input{Magnitude: 1, Mean: 0, Flags: signals.Flags{Fall: true}}); got != 25 {
		t.Errorf("expected 25 for zero mean + fall, got %d", got)
	}
}

func TestScore_NonFiniteMagnitude(t *testing.T) {
	s := newScorer()
	if got := s.Score(Input{Magnitude: math.NaN(), Mean: 1}); got != 0 {
		t.Errorf("expected NaN magnitude to contribute 0, got %d", got)
	}
	if got := s.Score(Input{Magnitude: math.Inf(1), Mean: 1}); got != 25 {
		t.Errorf("expected +Inf magnitude to cap at 25, got %d", got)
	}
}

func TestScore_BoundedForAllInputs(t *testing.T) {
	s := newScorer()
	for _, f := range allFlags() {
		for _, mag := range []float64{0, 0.01, 0.3, 1, 7, 1e9} {
			for _, mean := range []float64{0, 0.05, 0.3, 2} {
				got := s.Score(Input{Magnitude: mag, Mean: mean, Flags: f})
				if got < 0 || got > 100 {
					t.Errorf("score %d out of range for mag=%g mean=%g flags=%+v", got, mag, mean, f)
				}
			}
		}
	}
}

func TestScore_MonotonicInEachFlag(t *testing.T) {
	s := newScorer()
	for _, base := range allFlags() {
		for _, mag := range []float64{0, 0.2, 0.6, 3} {
			in := Input{Magnitude: mag, Mean: 0.4, Flags: base}
			before := s.Score(in)

			flips := []func(*signals.Flags){
				func(f *signals.Flags) { f.Anomaly = true },
				func(f *signals.Flags) { f.HighAlert = true },
				func(f *signals.Flags) { f.Fall = true },
			}
			for i, flip := range flips {
				flipped := in
				flip(&flipped.Flags)
				if after := s.Score(flipped); after < before {
					t.Errorf("flip %d decreased score %d → %d (base %+v, mag %g)", i, before, after, base, mag)
				}
			}
		}
	}
}

// #endregion score-tests

// #region band-tests

func TestBandOf_Boundaries(t *testing.T) {
	tests := []struct {
		score int
		want  Band
	}{
		{0, BandLow},
		{29, BandLow},
		{30, BandMedium},
		{59, BandMedium},
		{60, BandHigh},
		{84, BandHigh},
		{85, BandCritical},
		{100, BandCritical},
	}
	for _, tt := range tests {
		if got := BandOf(tt.score); got != tt.want {
			t.Errorf("BandOf(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestBand_Status(t *testing.T) {
	if BandLow.Status() != "Low Risk - Stable condition" {
		t.Errorf("unexpected low status: %q", BandLow.Status())
	}
	if BandCritical.Status() != "CRITICAL - Immediate attention required!" {
		t.Errorf("unexpected critical status: %q", BandCritical.Status())
	}
}

// #endregion band-tests

// #region status-tests

func TestMotionStatusOf_Precedence(t *testing.T) {
	if got := MotionStatusOf(signals.Flags{Anomaly: true, HighAlert: true, Fall: true}); got != StatusFall {
		t.Errorf("expected FALL, got %s", got)
	}
	if got := MotionStatusOf(signals.Flags{Anomaly: true, HighAlert: true}); got != StatusHighRisk {
		t.Errorf("expected HIGH_RISK, got %s", got)
	}
	if got := MotionStatusOf(signals.Flags{Anomaly: true}); got != StatusCaution {
		t.Errorf("expected CAUTION, got %s", got)
	}
	if got := MotionStatusOf(signals.Flags{}); got != StatusNormal {
		t.Errorf("expected NORMAL, got %s", got)
	}
	if StatusNormal.Message() != "NORMAL: Movement within safe parameters" {
		t.Errorf("unexpected message: %q", StatusNormal.Message())
	}
}

// #endregion status-tests
