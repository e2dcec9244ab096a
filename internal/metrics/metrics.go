// Package metrics exposes prometheus collectors for the monitoring pipeline.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielpatrickdp/motion-safety/internal/alert"
	"github.com/danielpatrickdp/motion-safety/internal/signals"
)

const namespace = "motionsafety"

// #region collectors

// Collectors holds every pipeline metric. A nil *Collectors is a valid no-op.
type Collectors struct {
	samples       prometheus.Counter
	alerts        *prometheus.CounterVec
	riskScore     prometheus.Histogram
	fallbacks     prometheus.Counter
	persistErrors prometheus.Counter
	thresholds    *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Collectors, error) {
	c := &Collectors{
		samples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_processed_total",
			Help:      "Samples scored by the pipeline.",
		}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Alerts generated, by severity and type.",
		}, []string{"severity", "type"}),
		riskScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "risk_score",
			Help:      "Per-sample risk score (0-100).",
			Buckets:   []float64{29, 59, 84, 100},
		}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fall_fallbacks_total",
			Help:      "Batches where fall detection degraded to the heuristic.",
		}),
		persistErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_errors_total",
			Help:      "Alert log appends that failed.",
		}),
		thresholds: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "batch_threshold",
			Help:      "Thresholds of the current batch.",
		}, []string{"kind"}),
	}

	for _, col := range []prometheus.Collector{
		c.samples, c.alerts, c.riskScore, c.fallbacks, c.persistErrors, c.thresholds,
	} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}
	return c, nil
}

// #endregion collectors

// #region observe

// ObserveSample records one scored sample.
func (c *Collectors) ObserveSample(score int) {
	if c == nil {
		return
	}
	c.samples.Inc()
	c.riskScore.Observe(float64(score))
}

// ObserveAlert records one generated alert.
func (c *Collectors) ObserveAlert(a alert.Alert) {
	if c == nil {
		return
	}
	c.alerts.WithLabelValues(a.Severity.String(), string(a.Type)).Inc()
}

// ObserveFallback records one heuristic takeover.
func (c *Collectors) ObserveFallback() {
	if c == nil {
		return
	}
	c.fallbacks.Inc()
}

// ObservePersistError records one failed log append.
func (c *Collectors) ObservePersistError() {
	if c == nil {
		return
	}
	c.persistErrors.Inc()
}

// SetThresholds publishes the batch statistics.
func (c *Collectors) SetThresholds(th signals.Thresholds) {
	if c == nil {
		return
	}
	c.thresholds.WithLabelValues("mean").Set(th.Mean)
	c.thresholds.WithLabelValues("stddev").Set(th.StdDev)
	c.thresholds.WithLabelValues("anomaly").Set(th.Anomaly)
	c.thresholds.WithLabelValues("alert").Set(th.Alert)
}

// #endregion observe

// #region handler

// Handler serves the registry in the prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// #endregion handler
