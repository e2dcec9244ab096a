package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/motion-safety/internal/alert"
	"github.com/danielpatrickdp/motion-safety/internal/alertlog"
	"github.com/danielpatrickdp/motion-safety/internal/dataset"
	"github.com/danielpatrickdp/motion-safety/internal/fall"
	"github.com/danielpatrickdp/motion-safety/internal/pipeline"
	"github.com/danielpatrickdp/motion-safety/internal/replay"
	"github.com/danielpatrickdp/motion-safety/internal/report"
	"github.com/danielpatrickdp/motion-safety/internal/session"
	"github.com/danielpatrickdp/motion-safety/internal/store"
)

// #region command

type monitorFlags struct {
	labels     bool
	maxSamples int
	flush      bool
	exportPath string
	recordPath string
	quiet      bool
}

func newMonitorCommand(load loader) *cobra.Command {
	var f monitorFlags

	cmd := &cobra.Command{
		Use:   "monitor <batch.csv>",
		Short: "Score a batch of samples and raise alerts",
		Long: `Score every sample of a recorded batch and raise safety alerts.

Activities come from the model service (model.addr) or, with --labels,
from the batch's own Activity column.

Examples:
  motionsafety monitor data/test.csv --labels
  motionsafety monitor data/test.csv --max-samples 200 --flush
  motionsafety monitor data/test.csv --labels --record fixture.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := load(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = e.logger.Sync() }()
			if !cmd.Flags().Changed("max-samples") {
				f.maxSamples = e.cfg.Monitor.MaxSamples
			}
			return runMonitor(cmd.Context(), e, args[0], f, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&f.labels, "labels", false, "use the batch's Activity column instead of the model service")
	cmd.Flags().IntVar(&f.maxSamples, "max-samples", 0, "process at most N samples (0 = all)")
	cmd.Flags().BoolVar(&f.flush, "flush", false, "also persist INFO and WARNING alerts after the run")
	cmd.Flags().StringVar(&f.exportPath, "export", "", "write the session's alerts to a CSV file")
	cmd.Flags().StringVar(&f.recordPath, "record", "", "write the run as a replay fixture")
	cmd.Flags().BoolVar(&f.quiet, "quiet", false, "print only the summary")
	return cmd
}

// #endregion command

// #region run

func runMonitor(ctx context.Context, e *env, path string, f monitorFlags, out io.Writer) error {
	ds, err := dataset.Load(path)
	if err != nil {
		return err
	}

	b, err := openBackends(e.cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	col, stopMetrics, err := serveMetrics(e.cfg.Metrics.Addr, e.logger)
	if err != nil {
		return err
	}
	defer stopMetrics()

	sess := session.NewStore()
	deps := pipeline.Deps{
		Session: sess,
		Log:     b.log,
		Metrics: col,
		Logger:  e.logger,
	}

	client, err := dialModel(e.cfg)
	if err != nil {
		return err
	}
	if client != nil {
		defer client.Close()
	}
	switch {
	case f.labels:
		deps.Classifier = pipeline.LabelColumn{}
	case client != nil:
		deps.Classifier = pipeline.NewModelClassifier(client, nil)
	}
	if client != nil && e.cfg.Model.FallEnabled {
		deps.FallModel = fall.NewModel(client)
	}

	opts := e.cfg.PipelineOptions()
	opts.MaxSamples = f.maxSamples

	var run store.Run
	if b.store != nil {
		run, err = b.store.BeginRun(ctx, filepath.Base(path))
		if err != nil {
			return err
		}
	}

	m, err := pipeline.NewMonitor(opts, deps, run.RunID)
	if err != nil {
		return err
	}
	if err := m.Prepare(ctx, ds); err != nil {
		if errors.Is(err, pipeline.ErrNoClassifier) && deps.Classifier == nil {
			return fmt.Errorf("%w: set model.addr or pass --labels", err)
		}
		return err
	}

	var results []pipeline.Result
	runErr := m.Run(ctx, func(r pipeline.Result) error {
		results = append(results, r)
		if r.Alert != nil && !f.quiet {
			fmt.Fprintln(out, alert.Format(*r.Alert))
			fmt.Fprintln(out)
		}
		return nil
	})

	sum := sess.Summarize()
	if err := writeSummary(out, m, sum); err != nil {
		return err
	}
	if err := report.Write(out, m.Report()); err != nil {
		return err
	}

	if f.flush {
		n, err := sess.Flush(ctx, b.log)
		if err != nil {
			e.logger.Error("flush session", zap.Int("written", n), zap.Error(err))
			runErr = errors.Join(runErr, err)
		} else {
			e.logger.Info("session flushed", zap.Int("written", n))
		}
	}
	if f.exportPath != "" {
		if err := exportSession(f.exportPath, sess.Alerts()); err != nil {
			runErr = errors.Join(runErr, err)
		}
	}
	if f.recordPath != "" {
		fx := replay.NewFixture(filepath.Base(path), ds, opts, m.FallStrategy(), results)
		if err := fx.Save(f.recordPath); err != nil {
			runErr = errors.Join(runErr, err)
		}
	}

	if b.store != nil {
		if err := b.store.FinishRun(context.WithoutCancel(ctx), run.RunID, store.RunResult{
			Samples:       len(results),
			Thresholds:    m.Thresholds(),
			FallStrategy:  m.FallStrategy(),
			AlertCount:    sum.TotalAlerts,
			CriticalCount: sum.CriticalCount,
		}); err != nil {
			e.logger.Warn("finish run", zap.String("run_id", run.RunID), zap.Error(err))
		}
	}
	return runErr
}

// #endregion run

// #region output

func writeSummary(w io.Writer, m *pipeline.Monitor, sum session.Summary) error {
	th := m.Thresholds()
	if _, err := fmt.Fprintf(w, "Run %s\n", m.RunID()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Thresholds: mean=%.4f std=%.4f anomaly=%.4f alert=%.4f (n=%d)\n",
		th.Mean, th.StdDev, th.Anomaly, th.Alert, th.N); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Fall detection: %s\n", m.FallStrategy()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Session alerts: %d (critical: %d)\n", sum.TotalAlerts, sum.CriticalCount); err != nil {
		return err
	}
	keys := make([]string, 0, len(sum.BySeverity))
	for k := range sum.BySeverity {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		si, _ := alert.ParseSeverity(keys[i])
		sj, _ := alert.ParseSeverity(keys[j])
		return si > sj
	})
	for _, k := range keys {
		if _, err := fmt.Fprintf(w, "  %-10s %d\n", k, sum.BySeverity[k]); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

func exportSession(path string, alerts []alert.Alert) error {
	out, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("export session: %w", err)
	}
	if err := alertlog.WriteCSV(out, alerts); err != nil {
		out.Close()
		return fmt.Errorf("export session: %w", err)
	}
	return out.Close()
}

// #endregion output
