package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/motion-safety/internal/config"
)

const version = "0.1.0"

// #region main

func main() {
	v := config.New()
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "motionsafety",
		Short: "Motion safety monitor for accelerometer batches",
		Long: `motionsafety scores accelerometer batches for fall risk and raises alerts.

Every sample is classified against thresholds derived from its own batch:
- anomaly and high-risk alerts from the magnitude distribution
- falls from a spike followed by a drop, or from a trained model
- CRITICAL and EMERGENCY alerts are written to the persistence log

Settings come from --config, then MOTIONSAFETY_* environment variables.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (yaml, json or toml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "log format (json, console)")
	rootCmd.PersistentFlags().String("store", "", "sqlite database path (overrides store.path)")
	_ = v.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))

	load := func(cmd *cobra.Command) (*env, error) {
		if f := cmd.Flags().Lookup("store"); f != nil && f.Changed {
			v.Set("store.path", f.Value.String())
		}
		return newEnv(v, configPath)
	}

	rootCmd.AddCommand(newMonitorCommand(load))
	rootCmd.AddCommand(newInspectCommand(load))
	rootCmd.AddCommand(newReplayCommand(load))
	rootCmd.AddCommand(newExportCommand(load))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region env

type loader func(cmd *cobra.Command) (*env, error)

// env is what every subcommand starts from.
type env struct {
	v      *viper.Viper
	cfg    *config.Config
	logger *zap.Logger
}

func newEnv(v *viper.Viper, configPath string) (*env, error) {
	cfg, err := config.Load(v, configPath)
	if err != nil {
		return nil, err
	}
	logger, err := config.NewLogger(v)
	if err != nil {
		return nil, err
	}
	return &env{v: v, cfg: cfg, logger: logger}, nil
}

// #endregion env
