package signals

import (
	"errors"
	"fmt"
)

// #region errors

// ErrEmptyBatch is returned when thresholds are requested for a batch with no samples.
var ErrEmptyBatch = errors.New("signals: empty batch")

// #endregion errors

// #region config

// ProducerConfig holds the sigma multipliers used to derive batch thresholds.
type ProducerConfig struct {
	AnomalySigma float64 // magnitude > mean + AnomalySigma*std → anomaly ("possible fall")
	AlertSigma   float64 // magnitude > mean + AlertSigma*std → high-risk alert
}

// DefaultProducerConfig returns the reference multipliers.
func DefaultProducerConfig() ProducerConfig {
	return ProducerConfig{
		AnomalySigma: 2.0,
		AlertSigma:   3.5,
	}
}

// Validate keeps the alert threshold at or above the anomaly threshold.
func (c ProducerConfig) Validate() error {
	if c.AnomalySigma < 0 || c.AlertSigma < 0 {
		return fmt.Errorf("signals: negative sigma multiplier (anomaly=%.2f alert=%.2f)", c.AnomalySigma, c.AlertSigma)
	}
	if c.AlertSigma < c.AnomalySigma {
		return fmt.Errorf("signals: alert sigma %.2f below anomaly sigma %.2f", c.AlertSigma, c.AnomalySigma)
	}
	return nil
}

// #endregion config

// #region thresholds

// Thresholds are fixed once per batch, before any sample is classified.
type Thresholds struct {
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"std_dev"`
	Anomaly float64 `json:"anomaly_threshold"`
	Alert   float64 `json:"alert_threshold"`
	N       int     `json:"n"`
}

// #endregion thresholds

// #region flags

// Flags are the per-sample classification booleans. They are independent;
// the alert generator imposes the ordering between them.
type Flags struct {
	Anomaly   bool `json:"is_anomaly"`
	HighAlert bool `json:"is_high_alert"`
	Fall      bool `json:"is_fall"`
}

// #endregion flags
