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

package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/blinklabs-io/deedbridge/common"
	"github.com/blinklabs-io/deedbridge/database"
	"github.com/blinklabs-io/deedbridge/database/models"
	"github.com/blinklabs-io/deedbridge/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// PendingStageChange is the bridge's view of an announced transition.
// IsPending is false when nothing awaits acknowledgment.
type PendingStageChange struct {
	PropertyID     string       `json:"propertyId"`
	IsPending      bool         `json:"isPending"`
	TargetStage    common.Stage `json:"targetStage"`
	InitiatedAt    time.Time    `json:"initiatedAt"`
	RetryCount     uint         `json:"retryCount"`
	LastRetryAt    *time.Time   `json:"lastRetryAt,omitempty"`
	AcknowledgedAt *time.Time   `json:"acknowledgedAt,omitempty"`
}

// NotifyStageChange records a transition awaiting acknowledgment from the
// secondary ledger and announces it once txn commits. A newer transition
// replaces any unacknowledged one.
func (b *Bridge) NotifyStageChange(
	propertyID string,
	newStage common.Stage,
	txn *database.Txn,
) error {
	if txn == nil {
		return b.db.Transaction(true).Do(func(txn *database.Txn) error {
			return b.NotifyStageChange(propertyID, newStage, txn)
		})
	}
	pending, err := b.db.GetPendingStageChange(propertyID, txn)
	if err != nil {
		return fmt.Errorf("failed to get pending stage change: %w", err)
	}
	var superseded *common.Stage
	if pending == nil {
		pending = &models.PendingStageChange{PropertyID: propertyID}
	} else if pending.IsPending {
		prev := pending.TargetStage
		superseded = &prev
	}
	now := b.config.Clock.Time()
	pending.IsPending = true
	pending.TargetStage = newStage
	pending.InitiatedAt = now
	pending.RetryCount = 0
	pending.LastRetryAt = nil
	pending.AcknowledgedAt = nil
	if err := b.db.SetPendingStageChange(pending, txn); err != nil {
		return fmt.Errorf("failed to set pending stage change: %w", err)
	}
	evt := StageChangeNotificationEvent{
		PropertyID:  propertyID,
		TargetStage: newStage,
		InitiatedAt: now,
		Superseded:  superseded,
	}
	txn.OnCommit(func() { b.stageChangeNotified(evt) })
	return nil
}

// RetryStageChangeNotification re-announces a pending transition once the
// retry cooldown has elapsed since it was initiated. Any caller may retry.
func (b *Bridge) RetryStageChangeNotification(
	ctx context.Context,
	propertyID string,
) (ret *PendingStageChange, err error) {
	_, span := b.tracer.Start(
		ctx,
		"Bridge.RetryStageChangeNotification",
		trace.WithAttributes(attribute.String("property_id", propertyID)),
	)
	defer func() { telemetry.End(span, err) }()

	txn := b.db.Transaction(true)
	err = txn.Do(func(txn *database.Txn) error {
		pending, err := b.db.GetPendingStageChange(propertyID, txn)
		if err != nil {
			return fmt.Errorf("failed to get pending stage change: %w", err)
		}
		if pending == nil || !pending.IsPending {
			return fmt.Errorf(
				"%w: property %q",
				common.ErrNoPendingChange,
				propertyID,
			)
		}
		now := b.config.Clock.Time()
		if elapsed := now.Sub(pending.InitiatedAt); elapsed < b.config.RetryCooldown {
			return fmt.Errorf(
				"%w: %s remaining",
				common.ErrTooSoon,
				(b.config.RetryCooldown - elapsed).String(),
			)
		}
		pending.RetryCount++
		pending.LastRetryAt = &now
		if b.config.RefreshInitiatedAtOnRetry {
			pending.InitiatedAt = now
		}
		if err := b.db.SetPendingStageChange(pending, txn); err != nil {
			return fmt.Errorf("failed to set pending stage change: %w", err)
		}
		ret = pendingFromModel(pending)
		evt := StageChangeNotificationEvent{
			PropertyID:  propertyID,
			TargetStage: pending.TargetStage,
			InitiatedAt: pending.InitiatedAt,
			Retry:       true,
			RetryCount:  pending.RetryCount,
		}
		txn.OnCommit(func() { b.stageChangeNotified(evt) })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func pendingFromModel(m *models.PendingStageChange) *PendingStageChange {
	return &PendingStageChange{
		PropertyID:     m.PropertyID,
		IsPending:      m.IsPending,
		TargetStage:    m.TargetStage,
		InitiatedAt:    m.InitiatedAt,
		RetryCount:     m.RetryCount,
		LastRetryAt:    m.LastRetryAt,
		AcknowledgedAt: m.AcknowledgedAt,
	}
}

// GetPendingStageChange returns the pending transition record of a property
func (b *Bridge) GetPendingStageChange(
	ctx context.Context,
	propertyID string,
) (*PendingStageChange, error) {
	_, span := b.tracer.Start(ctx, "Bridge.GetPendingStageChange")
	defer span.End()
	pending, err := b.db.GetPendingStageChange(propertyID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending stage change: %w", err)
	}
	if pending == nil {
		return &PendingStageChange{PropertyID: propertyID}, nil
	}
	return pendingFromModel(pending), nil
}
