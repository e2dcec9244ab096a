package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/motion-safety/internal/alertlog"
	"github.com/danielpatrickdp/motion-safety/internal/codec"
	"github.com/danielpatrickdp/motion-safety/internal/config"
	"github.com/danielpatrickdp/motion-safety/internal/metrics"
	"github.com/danielpatrickdp/motion-safety/internal/store"
)

// #region backends

// backends are the durable collaborators: the run store and the alert log.
type backends struct {
	store *store.Store // nil when store.path is empty
	log   alertlog.Log
}

func openBackends(cfg *config.Config) (*backends, error) {
	b := &backends{}
	if cfg.Store.Path != "" {
		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		b.store = st
	}
	switch cfg.AlertLog.Backend {
	case config.BackendCSV:
		b.log = alertlog.NewCSVLog(cfg.AlertLog.CSVPath)
	default:
		b.log = alertlog.NewSQLiteLog(b.store.DB())
	}
	return b, nil
}

func (b *backends) Close() error {
	if b.store == nil {
		return nil
	}
	return b.store.Close()
}

// #endregion backends

// #region model

// dialModel connects to the model service, or returns nil when none is configured.
func dialModel(cfg *config.Config) (*codec.Client, error) {
	if cfg.Model.Addr == "" {
		return nil, nil
	}
	return codec.NewClient(cfg.Model.Addr, cfg.Model.Timeout)
}

// #endregion model

// #region metrics

// serveMetrics registers the collectors and, when addr is set, exposes them
// on /metrics until the returned stop func is called.
func serveMetrics(addr string, logger *zap.Logger) (*metrics.Collectors, func(), error) {
	reg := prometheus.NewRegistry()
	col, err := metrics.New(reg)
	if err != nil {
		return nil, nil, err
	}
	if addr == "" {
		return col, func() {}, nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics listener failed", zap.String("addr", addr), zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", addr))

	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("metrics shutdown", zap.Error(err))
		}
	}
	return col, stop, nil
}

// #endregion metrics
