package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/motion-safety/internal/alert"
	"github.com/danielpatrickdp/motion-safety/internal/dataset"
	"github.com/danielpatrickdp/motion-safety/internal/fall"
	"github.com/danielpatrickdp/motion-safety/internal/metrics"
	"github.com/danielpatrickdp/motion-safety/internal/report"
	"github.com/danielpatrickdp/motion-safety/internal/risk"
	"github.com/danielpatrickdp/motion-safety/internal/signals"
)

// #region monitor-struct

// Monitor runs one batch through the pipeline: thresholds and fall detection
// over the whole batch in Prepare, then one sample per Next call, in order.
type Monitor struct {
	opts       Options
	classifier ActivityClassifier
	detector   *fall.Fallback
	generator  *alert.Generator
	producer   *signals.Producer
	scorer     *risk.Scorer
	metrics    *metrics.Collectors
	logger     *zap.Logger
	runID      string

	// prepared batch
	ds         *dataset.Dataset
	activities []string
	mags       []float64
	flags      []signals.Flags
	thresholds signals.Thresholds
	cursor     int
	obs        []report.Observation
}

// #endregion monitor-struct

// #region constructor

// NewMonitor wires a monitor. runID tags every log line; empty generates one.
func NewMonitor(opts Options, deps Deps, runID string) (*Monitor, error) {
	if err := opts.Signals.Validate(); err != nil {
		return nil, err
	}
	if opts.MaxSamples < 0 {
		return nil, fmt.Errorf("max samples must be >= 0, got %d", opts.MaxSamples)
	}
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("run_id", runID))

	m := &Monitor{
		opts:       opts,
		classifier: deps.Classifier,
		generator:  alert.NewGenerator(opts.Alert, deps.Session, deps.Log, logger),
		producer:   signals.NewProducer(opts.Signals),
		scorer:     risk.NewScorer(opts.Scorer),
		metrics:    deps.Metrics,
		logger:     logger,
		runID:      runID,
	}
	m.detector = fall.NewFallback(deps.FallModel, logger, func(error) { m.metrics.ObserveFallback() })
	return m, nil
}

// RunID returns the id attached to this monitor's log lines.
func (m *Monitor) RunID() string { return m.runID }

// Generator exposes the alert generator, e.g. to override its clock.
func (m *Monitor) Generator() *alert.Generator { return m.generator }

// #endregion constructor

// #region prepare

// Prepare classifies activities, estimates thresholds over every sample of
// ds, flags anomalies and detects falls. A missing or failing activity
// classifier is fatal; a failing fall model degrades to the heuristic.
func (m *Monitor) Prepare(ctx context.Context, ds *dataset.Dataset) error {
	m.ds = nil
	if m.classifier == nil {
		return ErrNoClassifier
	}
	if ds == nil || ds.Len() == 0 {
		return signals.ErrEmptyBatch
	}

	mags := signals.Magnitudes(ds.BodyAccMeans())
	th, err := m.producer.Estimate(mags)
	if err != nil {
		return fmt.Errorf("estimate thresholds: %w", err)
	}

	activities, err := m.classifier.Classify(ctx, ds)
	if err != nil {
		return fmt.Errorf("classify activities: %w", err)
	}
	if len(activities) != ds.Len() {
		return fmt.Errorf("classify activities: got %d labels for %d samples", len(activities), ds.Len())
	}

	flags := m.producer.ClassifyBatch(mags, th)
	falls, _ := m.detector.Detect(ctx, fall.Batch{Dataset: ds, Magnitudes: mags, Thresholds: th})
	for i := range flags {
		flags[i].Fall = falls[i]
	}

	m.ds = ds
	m.activities = activities
	m.mags = mags
	m.flags = flags
	m.thresholds = th
	m.cursor = 0
	m.obs = make([]report.Observation, 0, m.Len())
	m.metrics.SetThresholds(th)

	m.logger.Info("batch prepared",
		zap.Int("samples", ds.Len()),
		zap.Int("limit", m.Len()),
		zap.Float64("mean", th.Mean),
		zap.Float64("stddev", th.StdDev),
		zap.Float64("anomaly_threshold", th.Anomaly),
		zap.Float64("alert_threshold", th.Alert),
		zap.String("fall_strategy", m.detector.Used()),
	)
	return nil
}

// Thresholds returns the statistics of the prepared batch.
func (m *Monitor) Thresholds() signals.Thresholds { return m.thresholds }

// FallStrategy names the detector that produced the prepared batch's fall flags.
func (m *Monitor) FallStrategy() string { return m.detector.Used() }

// Len is the number of samples Next will yield for the prepared batch.
func (m *Monitor) Len() int {
	if m.ds == nil {
		return 0
	}
	n := m.ds.Len()
	if m.opts.MaxSamples > 0 && m.opts.MaxSamples < n {
		n = m.opts.MaxSamples
	}
	return n
}

// #endregion prepare

// #region next

// Next processes the next sample and returns its result, or io.EOF once the
// batch (or MaxSamples) is exhausted. A log failure does not stop the
// iteration; it is reported in Result.PersistErr.
func (m *Monitor) Next(ctx context.Context) (Result, error) {
	if m.ds == nil {
		return Result{}, ErrNotPrepared
	}
	if m.cursor >= m.Len() {
		return Result{}, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	i := m.cursor
	m.cursor++
	return m.process(ctx, i), nil
}

func (m *Monitor) process(ctx context.Context, i int) Result {
	s := m.ds.Samples[i]
	res := Result{
		Index:     s.Index,
		Activity:  m.activities[i],
		Label:     s.Label,
		Magnitude: m.mags[i],
		Flags:     m.flags[i],
	}
	res.RiskScore = m.scorer.Score(risk.Input{Magnitude: res.Magnitude, Mean: m.thresholds.Mean, Flags: res.Flags})
	res.Band = risk.BandOf(res.RiskScore)
	res.Status = risk.MotionStatusOf(res.Flags)
	m.metrics.ObserveSample(res.RiskScore)

	a, err := m.generator.Generate(ctx, alert.Input{
		Activity:        res.Activity,
		RiskScore:       res.RiskScore,
		MotionIntensity: res.Magnitude,
		Flags:           res.Flags,
		SampleIndex:     alert.IndexPtr(s.Index),
	})
	res.Alert = a
	if a != nil {
		m.metrics.ObserveAlert(*a)
	}
	if err != nil {
		res.PersistErr = err
		m.metrics.ObservePersistError()
	}

	m.obs = append(m.obs, report.Observation{
		Activity:  res.Activity,
		Magnitude: res.Magnitude,
		RiskScore: res.RiskScore,
		Flags:     res.Flags,
		Alerted:   a != nil,
	})
	return res
}

// #endregion next

// #region run

// Run drives Next to the end of the batch, calling fn for every result.
// It stops early when fn fails or ctx is cancelled; results already produced
// stay valid. Log failures are collected and returned after the batch.
func (m *Monitor) Run(ctx context.Context, fn func(Result) error) error {
	var persistErrs []error
	for {
		res, err := m.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return errors.Join(append([]error{err}, persistErrs...)...)
		}
		if res.PersistErr != nil {
			persistErrs = append(persistErrs, fmt.Errorf("sample %d: %w", res.Index, res.PersistErr))
		}
		if fn != nil {
			if err := fn(res); err != nil {
				return errors.Join(append([]error{err}, persistErrs...)...)
			}
		}
	}
	m.logger.Info("batch complete",
		zap.Int("processed", m.cursor),
		zap.Int("persist_errors", len(persistErrs)),
	)
	return errors.Join(persistErrs...)
}

// Report summarizes the samples processed so far.
func (m *Monitor) Report() report.Report {
	return report.Build(m.obs)
}

// #endregion run
