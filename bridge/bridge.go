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

// Package bridge processes inbound messages from the secondary ledger and
// announces stage transitions back to it through the relayer.
package bridge

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/deedbridge/clock"
	"github.com/blinklabs-io/deedbridge/common"
	"github.com/blinklabs-io/deedbridge/database"
	"github.com/blinklabs-io/deedbridge/event"
	"github.com/blinklabs-io/deedbridge/internal/telemetry"
	"github.com/blinklabs-io/deedbridge/oracle"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultForeignAssetDecimals is the precision of the bridged asset on
	// the secondary ledger
	DefaultForeignAssetDecimals = 8
	// DefaultRetryCooldown is the minimum age of a pending stage change
	// before its notification may be re-announced
	DefaultRetryCooldown = 5 * time.Minute
)

type Config struct {
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	EventBus     *event.EventBus
	Clock        *clock.Clock
	// Relayer is the only identity allowed to submit messages
	Relayer              common.Address
	ForeignAssetDecimals int32
	// PriceAsset is the oracle asset used to value deposits
	PriceAsset    string
	RetryCooldown time.Duration
	// RefreshInitiatedAtOnRetry restarts the cooldown on every retry
	RefreshInitiatedAtOnRetry bool
	// ProofVerifier is an optional check of each message's proof
	ProofVerifier ProofVerifier
}

// PriceSource provides the price used to value deposits
type PriceSource interface {
	ReadPrice(asset string, txn *database.Txn) (*oracle.PriceReading, error)
}

// ShareVault mints and burns the shares backing bridged deposits
type ShareVault interface {
	Deposit(
		propertyID string,
		to common.Address,
		assets uint64,
		txn *database.Txn,
	) (uint64, error)
	Redeem(
		propertyID string,
		from common.Address,
		shares uint64,
		txn *database.Txn,
	) (uint64, error)
}

// ProofVerifier validates the proof attached to an inbound message. A
// returned error rejects the message.
type ProofVerifier interface {
	VerifyProof(msg *Message) error
}

// ProofVerifierFunc adapts a function to ProofVerifier
type ProofVerifierFunc func(msg *Message) error

func (f ProofVerifierFunc) VerifyProof(msg *Message) error {
	return f(msg)
}

type Bridge struct {
	config  Config
	db      *database.Database
	prices  PriceSource
	vault   ShareVault
	tracer  trace.Tracer
	metrics *bridgeMetrics
}

func New(
	cfg Config,
	db *database.Database,
	prices PriceSource,
	vault ShareVault,
) (*Bridge, error) {
	if db == nil {
		return nil, errors.New("bridge: database is required")
	}
	if prices == nil {
		return nil, errors.New("bridge: price source is required")
	}
	if vault == nil {
		return nil, errors.New("bridge: share vault is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.ForeignAssetDecimals <= 0 {
		cfg.ForeignAssetDecimals = DefaultForeignAssetDecimals
	}
	if cfg.PriceAsset == "" {
		cfg.PriceAsset = oracle.DefaultAsset
	}
	if cfg.RetryCooldown <= 0 {
		cfg.RetryCooldown = DefaultRetryCooldown
	}
	b := &Bridge{
		config: cfg,
		db:     db,
		prices: prices,
		vault:  vault,
		tracer: telemetry.Tracer("bridge"),
	}
	if cfg.PromRegistry != nil {
		b.metrics = newBridgeMetrics(cfg.PromRegistry)
	}
	return b, nil
}
