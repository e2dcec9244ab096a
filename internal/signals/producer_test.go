package signals

import (
	"errors"
	"math"
	"testing"
)

// #region magnitude-tests

func TestMagnitude_KnownTriple(t *testing.T) {
	if got := Magnitude(3, 4, 12); got != 13 {
		t.Errorf("expected 13, got %f", got)
	}
}

func TestMagnitude_NonNegative(t *testing.T) {
	triples := [][3]float64{
		{0, 0, 0},
		{-1, -2, -3},
		{0.27, -0.016, -0.11},
		{-1e-9, 5e3, -7},
	}
	for _, v := range triples {
		got := Magnitude(v[0], v[1], v[2])
		want := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
		if got < 0 {
			t.Errorf("Magnitude(%v) = %f, want >= 0", v, got)
		}
		if math.Abs(got-want) > 1e-12 {
			t.Errorf("Magnitude(%v) = %f, want %f", v, got, want)
		}
	}
}

func TestMagnitude_NaNPropagates(t *testing.T) {
	if got := Magnitude(math.NaN(), 0, 0); !math.IsNaN(got) {
		t.Errorf("expected NaN, got %f", got)
	}
	if got := Magnitude(math.Inf(-1), 0, 0); !math.IsInf(got, 1) {
		t.Errorf("expected +Inf, got %f", got)
	}
}

func TestMagnitudes_Order(t *testing.T) {
	got := Magnitudes([][3]float64{{3, 4, 0}, {0, 0, 2}})
	if len(got) != 2 || got[0] != 5 || got[1] != 2 {
		t.Errorf("unexpected magnitudes: %v", got)
	}
}

// #endregion magnitude-tests

// #region estimate-tests

func TestEstimate_EmptyBatch(t *testing.T) {
	p := NewProducer(DefaultProducerConfig())
	_, err := p.Estimate(nil)
	if !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("expected ErrEmptyBatch, got %v", err)
	}
}

func TestEstimate_SampleStdDev(t *testing.T) {
	p := NewProducer(DefaultProducerConfig())
	th, err := p.Estimate([]float64{1, 2, 3, 4, 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// mean=3, sample variance = 10/4 = 2.5
	wantStd := math.Sqrt(2.5)
	if th.Mean != 3 {
		t.Errorf("expected mean 3, got %f", th.Mean)
	}
	if math.Abs(th.StdDev-wantStd) > 1e-12 {
		t.Errorf("expected std %f, got %f", wantStd, th.StdDev)
	}
	if math.Abs(th.Anomaly-(3+2*wantStd)) > 1e-12 {
		t.Errorf("unexpected anomaly threshold %f", th.Anomaly)
	}
	if math.Abs(th.Alert-(3+3.5*wantStd)) > 1e-12 {
		t.Errorf("unexpected alert threshold %f", th.Alert)
	}
	if th.N != 5 {
		t.Errorf("expected N=5, got %d", th.N)
	}
}

func TestEstimate_ZeroVarianceCollapses(t *testing.T) {
	p := NewProducer(DefaultProducerConfig())
	mags := []float64{0.1, 0.1, 0.1, 0.1}
	th, err := p.Estimate(mags)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if th.StdDev != 0 {
		t.Fatalf("expected zero std, got %g", th.StdDev)
	}
	if th.Anomaly != th.Mean || th.Alert != th.Mean {
		t.Errorf("expected thresholds == mean, got anomaly=%g alert=%g mean=%g", th.Anomaly, th.Alert, th.Mean)
	}
	for i, f := range p.ClassifyBatch(mags, th) {
		if f.Anomaly || f.HighAlert {
			t.Errorf("sample %d at the mean must not be flagged: %+v", i, f)
		}
	}
}

func TestEstimate_SingleSample(t *testing.T) {
	p := NewProducer(DefaultProducerConfig())
	th, err := p.Estimate([]float64{0.42})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if th.Mean != 0.42 || th.StdDev != 0 {
		t.Errorf("expected mean=0.42 std=0, got %+v", th)
	}
}

func TestEstimate_AlertAboveAnomaly(t *testing.T) {
	p := NewProducer(DefaultProducerConfig())
	batches := [][]float64{
		{0.1, 0.2, 0.9},
		{5, 5, 5, 5.0001},
		{0, 0, 0, 0, 10},
		{1},
	}
	for _, b := range batches {
		th, err := p.Estimate(b)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if th.Alert < th.Anomaly {
			t.Errorf("batch %v: alert %f below anomaly %f", b, th.Alert, th.Anomaly)
		}
	}
}

// #endregion estimate-tests

// #region classify-tests

func TestClassify_StrictGreaterThan(t *testing.T) {
	p := NewProducer(DefaultProducerConfig())
	th := Thresholds{Mean: 1, StdDev: 0.5, Anomaly: 2, Alert: 2.75}

	if f := p.Classify(2, th); f.Anomaly {
		t.Error("magnitude equal to the anomaly threshold must not be flagged")
	}
	f := p.Classify(2.5, th)
	if !f.Anomaly || f.HighAlert {
		t.Errorf("expected anomaly only, got %+v", f)
	}
	f = p.Classify(3, th)
	if !f.Anomaly || !f.HighAlert {
		t.Errorf("expected anomaly and high alert, got %+v", f)
	}
	if f.Fall {
		t.Error("Classify must never set Fall")
	}
}

// #endregion classify-tests

// #region config-tests

func TestProducerConfig_Validate(t *testing.T) {
	if err := DefaultProducerConfig().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	bad := ProducerConfig{AnomalySigma: 3, AlertSigma: 2}
	if err := bad.Validate(); err == nil {
		t.Error("expected error when alert sigma < anomaly sigma")
	}
	neg := ProducerConfig{AnomalySigma: -1, AlertSigma: 2}
	if err := neg.Validate(); err == nil {
		t.Error("expected error for negative sigma")
	}
}

// #endregion config-tests
