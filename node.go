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
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blinklabs-io/deedbridge/api"
	"github.com/blinklabs-io/deedbridge/bridge"
	"github.com/blinklabs-io/deedbridge/database"
	"github.com/blinklabs-io/deedbridge/event"
	"github.com/blinklabs-io/deedbridge/governance"
	"github.com/blinklabs-io/deedbridge/oracle"
	"github.com/blinklabs-io/deedbridge/relay"
	"github.com/blinklabs-io/deedbridge/vault"
)

// devRelayerAddress is the relayer identity used in dev mode when none is
// configured
const devRelayerAddress = "dev-relayer"

type Node struct {
	eventBus      *event.EventBus
	db            *database.Database
	oracle        *oracle.Oracle
	vault         *vault.Vault
	bridge        *bridge.Bridge
	dao           *governance.DAO
	relayer       *relay.Relayer
	api           *api.API
	shutdownFuncs []func(context.Context) error
	config        Config
	done          chan struct{}
	shutdownOnce  sync.Once
}

func New(cfg Config) (*Node, error) {
	if cfg.isDevMode() && cfg.relayerAddress.IsZero() {
		cfg.relayerAddress = devRelayerAddress
	}
	eventBus := event.NewEventBus(cfg.promRegistry, cfg.logger)
	n := &Node{
		config:   cfg,
		eventBus: eventBus,
		done:     make(chan struct{}),
	}
	if err := n.configValidate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return n, nil
}

// Run starts every component and blocks until ctx is cancelled or the
// node is stopped
func (n *Node) Run(ctx context.Context) error {
	if err := n.start(ctx); err != nil {
		return err
	}
	// Wait for shutdown signal
	select {
	case <-ctx.Done():
	case <-n.done:
	}
	return nil
}

func (n *Node) start(ctx context.Context) error {
	// Configure tracing
	if n.config.tracing {
		if err := n.setupTracing(); err != nil {
			return err
		}
	}
	// Load database
	dbConfig := &database.Config{
		DataDir:      n.config.dataDir,
		Logger:       n.config.logger,
		PromRegistry: n.config.promRegistry,
	}
	db, err := database.New(dbConfig)
	if err != nil {
		var dbErr database.CommitTimestampError
		if db == nil || !errors.As(err, &dbErr) {
			return fmt.Errorf("failed to open database: %w", err)
		}
		n.config.logger.Warn(
			"database initialization error, needs recovery",
			"error",
			err,
		)
		if err := db.RecoverCommitTimestampConflict(); err != nil {
			return fmt.Errorf("failed to recover database: %w", err)
		}
	}
	n.db = db
	n.shutdownFuncs = append(n.shutdownFuncs, func(context.Context) error {
		return n.db.Close()
	})
	// Load components
	n.oracle, err = oracle.New(
		oracle.Config{
			Logger:           n.config.logger,
			PromRegistry:     n.config.promRegistry,
			EventBus:         n.eventBus,
			Clock:            n.config.clock,
			Owner:            n.config.platformAddress,
			Updater:          n.config.oracleAddress,
			StalenessWindow:  n.config.stalenessWindow,
			MaxPriceMovement: n.config.maxPriceMovement,
		},
		n.db,
	)
	if err != nil {
		return fmt.Errorf("failed to load oracle: %w", err)
	}
	n.vault, err = vault.New(n.db, n.config.logger, n.config.clock)
	if err != nil {
		return fmt.Errorf("failed to load vault: %w", err)
	}
	n.bridge, err = bridge.New(
		bridge.Config{
			Logger:                    n.config.logger,
			PromRegistry:              n.config.promRegistry,
			EventBus:                  n.eventBus,
			Clock:                     n.config.clock,
			Relayer:                   n.config.relayerAddress,
			ForeignAssetDecimals:      n.config.foreignAssetDecimals,
			PriceAsset:                n.config.oracleAsset,
			RetryCooldown:             n.config.retryCooldown,
			RefreshInitiatedAtOnRetry: n.config.refreshInitiatedAtOnRetry,
		},
		n.db,
		n.oracle,
		n.vault,
	)
	if err != nil {
		return fmt.Errorf("failed to load bridge: %w", err)
	}
	n.dao, err = governance.New(
		governance.Config{
			Logger:       n.config.logger,
			PromRegistry: n.config.promRegistry,
			EventBus:     n.eventBus,
			Clock:        n.config.clock,
			Platform:     n.config.platformAddress,
			VotingPeriod: n.config.votingPeriod,
		},
		n.db,
		n.vault,
		n.bridge,
	)
	if err != nil {
		return fmt.Errorf("failed to load governance: %w", err)
	}
	// Dev mode mirrors stage changes onto an in-memory secondary ledger
	if n.config.isDevMode() {
		n.relayer, err = relay.New(
			relay.Config{
				Logger:       n.config.logger,
				PromRegistry: n.config.promRegistry,
				EventBus:     n.eventBus,
				Identity:     n.config.relayerAddress,
			},
			n.bridge,
			relay.NewRemoteLedger(n.config.clock),
		)
		if err != nil {
			return fmt.Errorf("failed to load relayer: %w", err)
		}
		if err := n.relayer.Start(); err != nil {
			return fmt.Errorf("failed to start relayer: %w", err)
		}
	}
	// Configure HTTP API
	if n.config.apiListenAddress != "" {
		n.api = api.New(
			api.Config{ListenAddress: n.config.apiListenAddress},
			api.Services{
				DAO:    n.dao,
				Bridge: n.bridge,
				Oracle: n.oracle,
				Vault:  n.vault,
			},
			n.config.logger,
		)
		if err := n.api.Start(ctx); err != nil {
			return fmt.Errorf("failed to start API: %w", err)
		}
	}
	n.config.logger.Info(
		"deedbridge started",
		"platform", n.config.platformAddress.String(),
		"relayer", n.config.relayerAddress.String(),
		"run_mode", n.config.runMode,
	)
	return nil
}

// DAO returns the property lifecycle and proposal ledger
func (n *Node) DAO() *governance.DAO {
	return n.dao
}

func (n *Node) Bridge() *bridge.Bridge {
	return n.bridge
}

func (n *Node) Oracle() *oracle.Oracle {
	return n.oracle
}

// Relayer returns the in-process relayer, which only exists in dev mode
func (n *Node) Relayer() *relay.Relayer {
	return n.relayer
}

func (n *Node) Stop() error {
	var err error
	n.shutdownOnce.Do(func() {
		err = n.shutdown()
	})
	return err
}

func (n *Node) shutdown() error {
	// Create shutdown context with timeout (default 30s if not configured)
	shutdownTimeout := 30 * time.Second
	if n.config.shutdownTimeout > 0 {
		shutdownTimeout = n.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error

	n.config.logger.Debug("starting graceful shutdown")

	// Phase 1: Stop accepting new work
	n.config.logger.Debug("shutdown phase 1: stopping new work")

	if n.api != nil {
		if stopErr := n.api.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("api shutdown: %w", stopErr))
		}
	}

	// Phase 2: Drain the relayer
	n.config.logger.Debug("shutdown phase 2: stopping relayer")

	if n.relayer != nil {
		n.relayer.Stop()
	}

	// Phase 3: Cleanup resources
	n.config.logger.Debug("shutdown phase 3: cleanup resources")

	if n.eventBus != nil {
		n.eventBus.Stop()
	}

	// Call registered shutdown functions in reverse order, so the
	// database closes after anything registered later
	for i := len(n.shutdownFuncs) - 1; i >= 0; i-- {
		if fnErr := n.shutdownFuncs[i](ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	n.shutdownFuncs = nil

	n.config.logger.Debug("graceful shutdown complete")
	close(n.done)
	return err
}
