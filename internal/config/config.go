// Package config loads monitor settings from defaults, an optional file and
// MOTIONSAFETY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/danielpatrickdp/motion-safety/internal/alert"
	"github.com/danielpatrickdp/motion-safety/internal/alertlog"
	"github.com/danielpatrickdp/motion-safety/internal/pipeline"
	"github.com/danielpatrickdp/motion-safety/internal/signals"
)

// EnvPrefix is prepended to every environment override, e.g. MOTIONSAFETY_MODEL_ADDR.
const EnvPrefix = "MOTIONSAFETY"

// Persistence log backends.
const (
	BackendSQLite = "sqlite"
	BackendCSV    = "csv"
)

// #region types

// Config is the typed view of the settings.
type Config struct {
	Store    StoreConfig    `mapstructure:"store"`
	AlertLog AlertLogConfig `mapstructure:"alertlog"`
	Model    ModelConfig    `mapstructure:"model"`
	Signals  SignalsConfig  `mapstructure:"signals"`
	Alert    AlertConfig    `mapstructure:"alert"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type AlertLogConfig struct {
	Backend string `mapstructure:"backend"` // sqlite | csv
	CSVPath string `mapstructure:"csv_path"`
}

type ModelConfig struct {
	Addr        string        `mapstructure:"addr"` // empty disables the model service
	Timeout     time.Duration `mapstructure:"timeout"`
	FallEnabled bool          `mapstructure:"fall_enabled"`
}

type SignalsConfig struct {
	AnomalySigma float64 `mapstructure:"anomaly_sigma"`
	AlertSigma   float64 `mapstructure:"alert_sigma"`
}

type AlertConfig struct {
	ElevatedRiskMin    int      `mapstructure:"elevated_risk_min"`
	HighRiskActivities []string `mapstructure:"high_risk_activities"`
}

type MonitorConfig struct {
	MaxSamples int `mapstructure:"max_samples"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"` // empty disables the /metrics listener
}

// #endregion types

// #region load

// New returns a viper instance carrying the defaults and env bindings.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults registers the reference settings.
func SetDefaults(v *viper.Viper) {
	sig := signals.DefaultProducerConfig()
	al := alert.DefaultConfig()

	v.SetDefault("store.path", "motionsafety.db")
	v.SetDefault("alertlog.backend", BackendSQLite)
	v.SetDefault("alertlog.csv_path", alertlog.DefaultCSVPath)
	v.SetDefault("model.addr", "")
	v.SetDefault("model.timeout", 5*time.Second)
	v.SetDefault("model.fall_enabled", false)
	v.SetDefault("signals.anomaly_sigma", sig.AnomalySigma)
	v.SetDefault("signals.alert_sigma", sig.AlertSigma)
	v.SetDefault("alert.elevated_risk_min", al.ElevatedRiskMin)
	v.SetDefault("alert.high_risk_activities", al.HighRiskActivities)
	v.SetDefault("monitor.max_samples", 0)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("metrics.addr", "")
}

// Load reads path (if non-empty) into v and returns the validated typed view.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// #endregion load

// #region validate

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var errs []error
	switch c.AlertLog.Backend {
	case BackendSQLite, BackendCSV:
	default:
		errs = append(errs, fmt.Errorf("alertlog.backend %q: must be %q or %q", c.AlertLog.Backend, BackendSQLite, BackendCSV))
	}
	if c.AlertLog.Backend == BackendSQLite && c.Store.Path == "" {
		errs = append(errs, errors.New("store.path is required for the sqlite backend"))
	}
	if c.Model.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("model.timeout must be positive, got %s", c.Model.Timeout))
	}
	if c.Model.FallEnabled && c.Model.Addr == "" {
		errs = append(errs, errors.New("model.fall_enabled requires model.addr"))
	}
	if err := c.producerConfig().Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Alert.ElevatedRiskMin < 0 || c.Alert.ElevatedRiskMin > 100 {
		errs = append(errs, fmt.Errorf("alert.elevated_risk_min must be in [0,100], got %d", c.Alert.ElevatedRiskMin))
	}
	if c.Monitor.MaxSamples < 0 {
		errs = append(errs, fmt.Errorf("monitor.max_samples must be >= 0, got %d", c.Monitor.MaxSamples))
	}
	return errors.Join(errs...)
}

// #endregion validate

// #region converters

func (c *Config) producerConfig() signals.ProducerConfig {
	return signals.ProducerConfig{
		AnomalySigma: c.Signals.AnomalySigma,
		AlertSigma:   c.Signals.AlertSigma,
	}
}

// PipelineOptions converts the settings into pipeline options.
func (c *Config) PipelineOptions() pipeline.Options {
	opts := pipeline.DefaultOptions()
	opts.Signals = c.producerConfig()
	opts.Alert.ElevatedRiskMin = c.Alert.ElevatedRiskMin
	if len(c.Alert.HighRiskActivities) > 0 {
		opts.Alert.HighRiskActivities = c.Alert.HighRiskActivities
	}
	opts.MaxSamples = c.Monitor.MaxSamples
	return opts
}

// #endregion converters
