package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/motion-safety/internal/alert"
	"github.com/danielpatrickdp/motion-safety/internal/signals"
)

func fixedNow() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

// counterValue sums every series of the named family.
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		var total float64
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		return total
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestCollectors_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg)
	require.NoError(t, err)

	c.ObserveSample(12)
	c.ObserveSample(90)
	c.ObserveAlert(alert.Build(alert.KindFallDetected, alert.Input{Activity: "WALKING"}, fixedNow()))
	c.ObserveAlert(alert.Build(alert.KindElevatedRisk, alert.Input{Activity: "SITTING"}, fixedNow()))
	c.ObserveFallback()
	c.ObservePersistError()
	c.SetThresholds(signals.Thresholds{Mean: 0.3, StdDev: 0.1, Anomaly: 0.5, Alert: 0.65})

	assert.Equal(t, 2.0, counterValue(t, reg, "motionsafety_samples_processed_total"))
	assert.Equal(t, 2.0, counterValue(t, reg, "motionsafety_alerts_total"))
	assert.Equal(t, 1.0, counterValue(t, reg, "motionsafety_fall_fallbacks_total"))
	assert.Equal(t, 1.0, counterValue(t, reg, "motionsafety_persist_errors_total"))
}

func TestCollectors_DoubleRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}

func TestCollectors_NilSafe(t *testing.T) {
	var c *Collectors
	assert.NotPanics(t, func() {
		c.ObserveSample(50)
		c.ObserveAlert(alert.Alert{})
		c.ObserveFallback()
		c.ObservePersistError()
		c.SetThresholds(signals.Thresholds{})
	})
}

func TestHandler_Exposition(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg)
	require.NoError(t, err)
	c.ObserveSample(40)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "motionsafety_risk_score_bucket"))
}
