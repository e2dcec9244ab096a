package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/motion-safety/internal/alertlog"
	"github.com/danielpatrickdp/motion-safety/internal/store"
)

// #region command

func newInspectCommand(load loader) *cobra.Command {
	var (
		recent  int
		runs    int
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show persisted alerts, log statistics and recent runs",
		Long: `Show what the persistence log and run store hold.

Examples:
  motionsafety inspect                 # 10 newest alerts, statistics, 5 runs
  motionsafety inspect --recent 50
  motionsafety inspect --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := load(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = e.logger.Sync() }()

			b, err := openBackends(e.cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			ctx := cmd.Context()
			view := inspectView{}
			if view.Recent, err = b.log.ReadRecent(ctx, recent); err != nil {
				return err
			}
			if view.Statistics, err = b.log.Statistics(ctx); err != nil {
				return err
			}
			if b.store != nil && runs > 0 {
				if view.Runs, err = b.store.ListRuns(ctx, runs); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			}
			return writeInspect(out, view)
		},
	}

	cmd.Flags().IntVar(&recent, "recent", 10, "show N most recent alerts (0 = all)")
	cmd.Flags().IntVar(&runs, "runs", 5, "show N most recent runs")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON instead of tables")
	return cmd
}

// #endregion command

// #region render

type inspectView struct {
	Recent     []alertlog.Record    `json:"recent_alerts"`
	Statistics *alertlog.Statistics `json:"statistics"`
	Runs       []store.Run          `json:"runs,omitempty"`
}

func writeInspect(w io.Writer, view inspectView) error {
	if view.Statistics == nil {
		_, err := fmt.Fprintln(w, "no alerts logged")
		if err != nil {
			return err
		}
	} else {
		st := view.Statistics
		fmt.Fprintf(w, "Logged alerts: %d (emergency: %d, critical: %d)\n", st.TotalAlerts, st.EmergencyCount, st.CriticalCount)
		fmt.Fprintf(w, "Average risk score: %.1f\n", st.AverageRiskScore)
		writeBreakdown(w, "By type", st.TypeBreakdown)
		writeBreakdown(w, "By activity", st.ActivityBreakdown)
		fmt.Fprintln(w)

		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tSEVERITY\tTYPE\tACTIVITY\tRISK\tSAMPLE")
		for _, r := range view.Recent {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
				r.Timestamp.Local().Format(time.DateTime), r.Severity, r.AlertType, r.Activity, r.RiskScore, r.SampleIndex)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(view.Runs) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSOURCE\tSTARTED\tSAMPLES\tALERTS\tCRITICAL\tFALL")
	for _, r := range view.Runs {
		samples := "-"
		if r.Finished() {
			samples = fmt.Sprintf("%d", r.Samples)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			r.RunID, r.Source, r.StartedAt.Local().Format(time.DateTime), samples, r.AlertCount, r.CriticalCount, r.FallStrategy)
	}
	return tw.Flush()
}

func writeBreakdown(w io.Writer, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	fmt.Fprintf(w, "%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-22s %d\n", k, counts[k])
	}
}

// #endregion render
