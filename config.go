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

package deedbridge

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/deedbridge/clock"
	"github.com/blinklabs-io/deedbridge/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// runMode constants for operational mode configuration
const (
	runModeServe = "serve"
	// runModeDev runs an in-process relayer against an in-memory
	// secondary ledger
	runModeDev = "dev"
)

type Config struct {
	promRegistry              prometheus.Registerer
	logger                    *slog.Logger
	clock                     *clock.Clock
	dataDir                   string
	apiListenAddress          string
	platformAddress           common.Address
	relayerAddress            common.Address
	oracleAddress             common.Address
	oracleAsset               string
	stalenessWindow           time.Duration
	maxPriceMovement          decimal.Decimal
	retryCooldown             time.Duration
	refreshInitiatedAtOnRetry bool
	votingPeriod              time.Duration
	foreignAssetDecimals      int32
	runMode                   string
	tracing                   bool
	tracingStdout             bool
	shutdownTimeout           time.Duration
}

// isDevMode returns true if running in development mode
func (c *Config) isDevMode() bool {
	return c.runMode == runModeDev
}

func (n *Node) configValidate() error {
	if n.config.platformAddress.IsZero() {
		return errors.New("platform address is required")
	}
	if n.config.relayerAddress.IsZero() && !n.config.isDevMode() {
		return errors.New("relayer address is required")
	}
	switch n.config.runMode {
	case "", runModeServe, runModeDev:
	default:
		return errors.New("run mode must be 'serve' or 'dev'")
	}
	if n.config.maxPriceMovement.IsNegative() {
		return errors.New("max price movement must not be negative")
	}
	if n.config.foreignAssetDecimals < 0 {
		return errors.New("foreign asset decimals must not be negative")
	}
	return nil
}

// ConfigOptionFunc is a type that represents functions that modify the node config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new deedbridge config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithDatabasePath specifies the persistent data directory to use. The default is to store everything in memory
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithLogger specifies the logger to use
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithClock specifies the clock used by every component. The default follows system time
func WithClock(clk *clock.Clock) ConfigOptionFunc {
	return func(c *Config) {
		c.clock = clk
	}
}

// WithAPIListenAddress specifies the HTTP API listen address. An empty value disables the API
func WithAPIListenAddress(addr string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiListenAddress = addr
	}
}

// WithPlatformAddress specifies the platform operator identity
func WithPlatformAddress(addr string) ConfigOptionFunc {
	return func(c *Config) {
		c.platformAddress = common.NewAddress(addr)
	}
}

// WithRelayerAddress specifies the only identity allowed to submit cross-chain messages
func WithRelayerAddress(addr string) ConfigOptionFunc {
	return func(c *Config) {
		c.relayerAddress = common.NewAddress(addr)
	}
}

// WithOracleAddress specifies the identity allowed to push prices in addition to the platform
func WithOracleAddress(addr string) ConfigOptionFunc {
	return func(c *Config) {
		c.oracleAddress = common.NewAddress(addr)
	}
}

// WithOracleAsset specifies the asset whose price values bridged deposits
func WithOracleAsset(asset string) ConfigOptionFunc {
	return func(c *Config) {
		c.oracleAsset = asset
	}
}

// WithStalenessWindow specifies how long a price stays valid after an update
func WithStalenessWindow(window time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.stalenessWindow = window
	}
}

// WithMaxPriceMovement specifies the relative price change that trips the circuit breaker
func WithMaxPriceMovement(movement decimal.Decimal) ConfigOptionFunc {
	return func(c *Config) {
		c.maxPriceMovement = movement
	}
}

// WithRetryCooldown specifies the minimum age of a pending stage change before it may be retried
func WithRetryCooldown(cooldown time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.retryCooldown = cooldown
	}
}

// WithRefreshInitiatedAtOnRetry specifies whether a retry restarts the cooldown
func WithRefreshInitiatedAtOnRetry(refresh bool) ConfigOptionFunc {
	return func(c *Config) {
		c.refreshInitiatedAtOnRetry = refresh
	}
}

// WithVotingPeriod specifies how long proposals accept votes
func WithVotingPeriod(period time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.votingPeriod = period
	}
}

// WithForeignAssetDecimals specifies the decimal places of the bridged asset's base unit
func WithForeignAssetDecimals(decimals int32) ConfigOptionFunc {
	return func(c *Config) {
		c.foreignAssetDecimals = decimals
	}
}

// WithRunMode sets the operational mode ("serve" or "dev")
func WithRunMode(mode string) ConfigOptionFunc {
	return func(c *Config) {
		c.runMode = mode
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) endpoint
// using the OTEL_EXPORTER_OTLP_* env vars documented for [go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp]
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

// WithShutdownTimeout sets the timeout for graceful shutdown (default: 30s)
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}
