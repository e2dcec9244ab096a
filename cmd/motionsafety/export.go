package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/motion-safety/internal/alertlog"
)

func newExportCommand(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "export [out.csv]",
		Short: "Write the whole persistence log as CSV",
		Long: `Export every logged alert, oldest first, in the safety_alerts.csv layout.
Without an argument the CSV goes to stdout.`,
		Args: cobra.MaximumNArgs(1),
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

			records, err := b.log.ReadAll(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) == 0 || args[0] == "-" {
				return alertlog.WriteRecords(cmd.OutOrStdout(), records)
			}

			out, err := os.Create(filepath.Clean(args[0]))
			if err != nil {
				return fmt.Errorf("create %s: %w", args[0], err)
			}
			if err := alertlog.WriteRecords(out, records); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d alerts to %s\n", len(records), args[0])
			return nil
		},
	}
}
