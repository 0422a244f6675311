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

// Package governance implements the property lifecycle state machine, the
// proposal ledger voted on by shareholders and the threshold registry that
// parameterizes both.
package governance

import (
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
	"go.opentelemetry.io/otel/trace"
)

// DefaultVotingPeriod is how long a proposal accepts votes
const DefaultVotingPeriod = 7 * 24 * time.Hour

type Config struct {
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	EventBus     *event.EventBus
	Clock        *clock.Clock
	// Platform is the operator identity allowed to drive funding and
	// create platform-only proposals
	Platform     common.Address
	VotingPeriod time.Duration
}

// ShareLedger is the vault surface used for voting power and NAV updates
type ShareLedger interface {
	BalanceOf(
		propertyID string,
		holder common.Address,
		txn *database.Txn,
	) (uint64, error)
	TotalSupply(propertyID string, txn *database.Txn) (uint64, error)
	SetNAV(propertyID string, nav uint64, txn *database.Txn) error
}

// StageNotifier is told about every stage transition inside the
// transaction that performs it. An error aborts the transition.
type StageNotifier interface {
	NotifyStageChange(
		propertyID string,
		newStage common.Stage,
		txn *database.Txn,
	) error
}

// DAO owns the lifecycle of every registered property and its proposals
type DAO struct {
	config     Config
	db         *database.Database
	shares     ShareLedger
	notifier   StageNotifier
	thresholds *ThresholdRegistry
	tracer     trace.Tracer
	metrics    *daoMetrics
}

func New(
	cfg Config,
	db *database.Database,
	shares ShareLedger,
	notifier StageNotifier,
) (*DAO, error) {
	if db == nil {
		return nil, errors.New("governance: database is required")
	}
	if shares == nil {
		return nil, errors.New("governance: share ledger is required")
	}
	if notifier == nil {
		return nil, errors.New("governance: stage notifier is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.VotingPeriod <= 0 {
		cfg.VotingPeriod = DefaultVotingPeriod
	}
	d := &DAO{
		config:     cfg,
		db:         db,
		shares:     shares,
		notifier:   notifier,
		thresholds: &ThresholdRegistry{db: db},
		tracer:     telemetry.Tracer("governance"),
	}
	if cfg.PromRegistry != nil {
		d.metrics = newDaoMetrics(cfg.PromRegistry)
	}
	return d, nil
}

// Thresholds returns the registry holding each property's governance
// parameters
func (d *DAO) Thresholds() *ThresholdRegistry {
	return d.thresholds
}

func (d *DAO) requirePlatform(caller common.Address, action string) error {
	if caller.IsZero() || caller != d.config.Platform {
		return fmt.Errorf(
			"%w: only the platform may %s",
			common.ErrNotAuthorized,
			action,
		)
	}
	return nil
}

func (d *DAO) loadProperty(
	propertyID string,
	txn *database.Txn,
) (*models.Property, error) {
	prop, err := d.db.GetProperty(propertyID, txn)
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	if prop == nil {
		return nil, fmt.Errorf(
			"%w: property %q",
			common.ErrNotFound,
			propertyID,
		)
	}
	return prop, nil
}

func (d *DAO) saveProperty(prop *models.Property, txn *database.Txn) error {
	if err := d.db.SetProperty(prop, txn); err != nil {
		return fmt.Errorf("failed to set property: %w", err)
	}
	return nil
}

// transition moves a property to a new stage, persists it and notifies the
// bridge in the same transaction
func (d *DAO) transition(
	prop *models.Property,
	to common.Stage,
	reason string,
	txn *database.Txn,
) error {
	from := prop.Stage
	if !common.CanTransition(from, to) {
		return fmt.Errorf(
			"%w: %s -> %s",
			common.ErrInvalidStageTransition,
			from,
			to,
		)
	}
	prop.Stage = to
	if err := d.saveProperty(prop, txn); err != nil {
		return err
	}
	if err := d.notifier.NotifyStageChange(prop.PropertyID, to, txn); err != nil {
		return fmt.Errorf("failed to notify stage change: %w", err)
	}
	evt := StageChangedEvent{
		PropertyID: prop.PropertyID,
		From:       from,
		To:         to,
		Reason:     reason,
		Timestamp:  d.config.Clock.Time(),
	}
	txn.OnCommit(func() { d.stageChanged(evt) })
	return nil
}
