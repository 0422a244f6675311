// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/blinklabs-io/deedbridge"
	"github.com/blinklabs-io/deedbridge/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// parseDuration parses a duration setting, returning zero for an empty value
func parseDuration(name string, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return d, nil
}

// NodeOptions converts the loaded configuration into node options
func NodeOptions(cfg *config.Config, logger *slog.Logger) ([]deedbridge.ConfigOptionFunc, error) {
	shutdownTimeout, err := parseDuration("shutdown timeout", cfg.ShutdownTimeout)
	if err != nil {
		return nil, err
	}
	stalenessWindow, err := parseDuration("staleness window", cfg.StalenessWindow)
	if err != nil {
		return nil, err
	}
	retryCooldown, err := parseDuration("retry cooldown", cfg.RetryCooldown)
	if err != nil {
		return nil, err
	}
	votingPeriod, err := parseDuration("voting period", cfg.VotingPeriod)
	if err != nil {
		return nil, err
	}
	maxPriceMovement := decimal.Zero
	if cfg.MaxPriceMovement != "" {
		maxPriceMovement, err = decimal.NewFromString(cfg.MaxPriceMovement)
		if err != nil {
			return nil, fmt.Errorf("invalid max price movement: %w", err)
		}
	}
	return []deedbridge.ConfigOptionFunc{
		deedbridge.WithLogger(logger),
		deedbridge.WithDatabasePath(cfg.DatabasePath),
		deedbridge.WithAPIListenAddress(cfg.ApiListenAddress),
		deedbridge.WithPlatformAddress(cfg.PlatformAddress),
		deedbridge.WithRelayerAddress(cfg.RelayerAddress),
		deedbridge.WithOracleAddress(cfg.OracleAddress),
		deedbridge.WithOracleAsset(cfg.OracleAsset),
		deedbridge.WithStalenessWindow(stalenessWindow),
		deedbridge.WithMaxPriceMovement(maxPriceMovement),
		deedbridge.WithRetryCooldown(retryCooldown),
		deedbridge.WithRefreshInitiatedAtOnRetry(cfg.RefreshInitiatedAtOnRetry),
		deedbridge.WithVotingPeriod(votingPeriod),
		deedbridge.WithForeignAssetDecimals(cfg.ForeignAssetDecimals),
		deedbridge.WithRunMode(string(cfg.RunMode)),
		deedbridge.WithShutdownTimeout(shutdownTimeout),
		deedbridge.WithTracing(cfg.Tracing),
		deedbridge.WithTracingStdout(cfg.TracingStdout),
		// Enable metrics with default prometheus registry
		deedbridge.WithPrometheusRegistry(prometheus.DefaultRegisterer),
	}, nil
}

func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")
	opts, err := NodeOptions(cfg, logger)
	if err != nil {
		return err
	}
	d, err := deedbridge.New(deedbridge.NewConfig(opts...))
	if err != nil {
		return err
	}
	shutdownTimeout, _ := parseDuration("shutdown timeout", cfg.ShutdownTimeout)
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	// Metrics listener
	metricsAddr := fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.MetricsPort)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:              metricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	metricsErr := make(chan error, 1)
	if cfg.MetricsPort > 0 {
		logger.Info(
			"serving prometheus metrics on "+metricsAddr,
			"component",
			"node",
		)
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil &&
				!errors.Is(err, http.ErrServerClosed) {
				metricsErr <- fmt.Errorf("failed to start metrics listener: %w", err)
			}
		}()
	}
	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	// Run node in goroutine
	errChan := make(chan error, 1)
	go func() {
		errChan <- d.Run(signalCtx)
	}()

	var runErr error
	select {
	case <-signalCtx.Done():
		logger.Info("signal received, initiating graceful shutdown")
	case runErr = <-errChan:
		if runErr != nil {
			logger.Error("node error", "error", runErr)
		}
	case runErr = <-metricsErr:
		logger.Error("metrics listener error", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		shutdownTimeout,
	)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown error", "error", err)
	}
	if err := d.Stop(); err != nil {
		logger.Error("shutdown errors occurred", "error", err)
		return errors.Join(runErr, err)
	}
	logger.Info("shutdown complete")
	return runErr
}
