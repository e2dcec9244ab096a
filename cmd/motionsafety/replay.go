package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/motion-safety/internal/replay"
)

func newReplayCommand(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "replay <fixture.json>...",
		Short: "Re-run recorded fixtures and compare the alerts",
		Long: `Replay runs each fixture through an in-memory pipeline using the
recorded activities and the spike/drop fall heuristic, then compares the
alerts against the fixture's expectations. Any mismatch fails the command.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := load(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = e.logger.Sync() }()

			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				f, err := replay.LoadFixture(path)
				if err != nil {
					return err
				}
				results, sum, err := replay.Replay(cmd.Context(), f, e.logger.With(zap.String("fixture", path)))
				if err != nil {
					return fmt.Errorf("replay %s: %w", path, err)
				}
				mismatches := replay.Compare(f.ExpectedResults, results)
				status := "PASS"
				if len(mismatches) > 0 {
					status = "FAIL"
					failed++
				}
				fmt.Fprintf(out, "%s %s: %d samples, %d alerts (critical: %d), fall=%s\n",
					status, path, sum.TotalSamples, sum.Alerts, sum.CriticalCount, sum.FallStrategy)
				for _, m := range mismatches {
					fmt.Fprintf(out, "  %s\n", m)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d fixtures failed", failed, len(args))
			}
			return nil
		},
	}
}
