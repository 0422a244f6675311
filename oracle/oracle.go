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

package oracle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/deedbridge/clock"
	"github.com/blinklabs-io/deedbridge/common"
	"github.com/blinklabs-io/deedbridge/database"
	"github.com/blinklabs-io/deedbridge/database/models"
	"github.com/blinklabs-io/deedbridge/event"
	"github.com/blinklabs-io/deedbridge/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultAsset           = "SBTC"
	DefaultStalenessWindow = time.Hour
)

// DefaultMaxPriceMovement is the largest accepted relative change between
// two consecutive prices
var DefaultMaxPriceMovement = decimal.RequireFromString("0.5")

type Config struct {
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	EventBus     *event.EventBus
	Clock        *clock.Clock
	// Owner may update prices and toggle the emergency pause
	Owner common.Address
	// Updater may update prices
	Updater          common.Address
	StalenessWindow  time.Duration
	MaxPriceMovement decimal.Decimal
}

// PriceReading is a snapshot of an asset's price state
type PriceReading struct {
	Asset           string
	Price           decimal.Decimal
	LastUpdated     time.Time
	IsValid         bool
	EmergencyPaused bool
}

// Oracle holds the last accepted price per asset behind a staleness window
// and a movement circuit breaker
type Oracle struct {
	config  Config
	db      *database.Database
	tracer  trace.Tracer
	metrics *oracleMetrics
}

func New(cfg Config, db *database.Database) (*Oracle, error) {
	if db == nil {
		return nil, errors.New("oracle: database is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.StalenessWindow <= 0 {
		cfg.StalenessWindow = DefaultStalenessWindow
	}
	if !cfg.MaxPriceMovement.IsPositive() {
		cfg.MaxPriceMovement = DefaultMaxPriceMovement
	}
	o := &Oracle{
		config: cfg,
		db:     db,
		tracer: telemetry.Tracer("oracle"),
	}
	if cfg.PromRegistry != nil {
		o.metrics = newOracleMetrics(cfg.PromRegistry)
	}
	return o, nil
}

func (o *Oracle) canUpdate(caller common.Address) bool {
	if caller.IsZero() {
		return false
	}
	return caller == o.config.Owner || caller == o.config.Updater
}

// UpdatePrice stores a new price for asset. A move larger than the
// configured bound trips the circuit breaker instead: the pause is
// committed, the stored price is kept and ErrExtremeMovement is returned.
func (o *Oracle) UpdatePrice(
	ctx context.Context,
	caller common.Address,
	asset string,
	newPrice decimal.Decimal,
) (err error) {
	_, span := o.tracer.Start(
		ctx,
		"Oracle.UpdatePrice",
		trace.WithAttributes(
			attribute.String("asset", asset),
			attribute.String("price", newPrice.String()),
		),
	)
	defer func() { telemetry.End(span, err) }()

	if !o.canUpdate(caller) {
		return fmt.Errorf(
			"%w: %s may not update prices",
			common.ErrNotAuthorized,
			caller,
		)
	}
	if !newPrice.IsPositive() {
		return fmt.Errorf(
			"%w: price must be positive, got %s",
			common.ErrInvalidParameter,
			newPrice,
		)
	}
	var tripped *CircuitBreakerEvent
	txn := o.db.Transaction(true)
	err = txn.Do(func(txn *database.Txn) error {
		now := o.config.Clock.Time()
		state, err := o.db.GetPriceState(asset, txn)
		if err != nil {
			return fmt.Errorf("failed to get price state: %w", err)
		}
		if state == nil {
			state = &models.PriceState{Asset: asset}
		}
		if state.EmergencyPaused {
			return fmt.Errorf(
				"%w: price updates for %s are suspended",
				common.ErrPaused,
				asset,
			)
		}
		// There is nothing to compare the first accepted price against
		if state.Price.IsPositive() {
			movement := newPrice.Sub(state.Price).Abs().Div(state.Price)
			if movement.GreaterThan(o.config.MaxPriceMovement) {
				state.EmergencyPaused = true
				state.PausedAt = &now
				if err := o.db.SetPriceState(state, txn); err != nil {
					return fmt.Errorf("failed to set price state: %w", err)
				}
				tripped = &CircuitBreakerEvent{
					Asset:         asset,
					StoredPrice:   state.Price,
					RejectedPrice: newPrice,
					Movement:      movement,
					Timestamp:     now,
				}
				evt := *tripped
				txn.OnCommit(func() { o.circuitBreakerTripped(evt) })
				return nil
			}
		}
		state.Price = newPrice
		state.LastUpdated = now
		if err := o.db.SetPriceState(state, txn); err != nil {
			return fmt.Errorf("failed to set price state: %w", err)
		}
		evt := PriceUpdatedEvent{
			Asset:     asset,
			Price:     newPrice,
			Timestamp: now,
		}
		txn.OnCommit(func() { o.priceUpdated(evt) })
		return nil
	})
	if err != nil {
		return err
	}
	if tripped != nil {
		return fmt.Errorf(
			"%w: %s moved %s from %s to %s, updates paused",
			common.ErrExtremeMovement,
			asset,
			tripped.Movement.StringFixed(4),
			tripped.StoredPrice,
			tripped.RejectedPrice,
		)
	}
	return nil
}

// GetPrice returns the current reading for asset. IsValid is false once the
// last update is older than the staleness window.
func (o *Oracle) GetPrice(
	ctx context.Context,
	asset string,
) (reading *PriceReading, err error) {
	_, span := o.tracer.Start(
		ctx,
		"Oracle.GetPrice",
		trace.WithAttributes(attribute.String("asset", asset)),
	)
	defer func() { telemetry.End(span, err) }()
	return o.ReadPrice(asset, nil)
}

// ReadPrice returns the current reading for asset within txn
func (o *Oracle) ReadPrice(
	asset string,
	txn *database.Txn,
) (*PriceReading, error) {
	state, err := o.db.GetPriceState(asset, txn)
	if err != nil {
		return nil, fmt.Errorf("failed to get price state: %w", err)
	}
	if state == nil {
		return nil, fmt.Errorf("%w: no price for %s", common.ErrNotFound, asset)
	}
	ret := &PriceReading{
		Asset:           asset,
		Price:           state.Price,
		LastUpdated:     state.LastUpdated,
		EmergencyPaused: state.EmergencyPaused,
	}
	if !state.LastUpdated.IsZero() {
		age := o.config.Clock.Time().Sub(state.LastUpdated)
		ret.IsValid = age < o.config.StalenessWindow
	}
	return ret, nil
}

// SetEmergencyPaused is the owner's manual override of the circuit breaker
func (o *Oracle) SetEmergencyPaused(
	ctx context.Context,
	caller common.Address,
	asset string,
	paused bool,
) (err error) {
	_, span := o.tracer.Start(
		ctx,
		"Oracle.SetEmergencyPaused",
		trace.WithAttributes(
			attribute.String("asset", asset),
			attribute.Bool("paused", paused),
		),
	)
	defer func() { telemetry.End(span, err) }()

	if caller.IsZero() || caller != o.config.Owner {
		return fmt.Errorf(
			"%w: only the owner may change the emergency pause",
			common.ErrNotAuthorized,
		)
	}
	txn := o.db.Transaction(true)
	return txn.Do(func(txn *database.Txn) error {
		now := o.config.Clock.Time()
		state, err := o.db.GetPriceState(asset, txn)
		if err != nil {
			return fmt.Errorf("failed to get price state: %w", err)
		}
		if state == nil {
			state = &models.PriceState{Asset: asset}
		}
		if state.EmergencyPaused == paused {
			return nil
		}
		state.EmergencyPaused = paused
		if paused {
			state.PausedAt = &now
		} else {
			state.PausedAt = nil
		}
		if err := o.db.SetPriceState(state, txn); err != nil {
			return fmt.Errorf("failed to set price state: %w", err)
		}
		evt := EmergencyPauseEvent{
			Asset:     asset,
			Paused:    paused,
			Caller:    caller,
			Timestamp: now,
		}
		txn.OnCommit(func() { o.emergencyPauseChanged(evt) })
		return nil
	})
}
