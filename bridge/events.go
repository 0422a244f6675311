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
	"time"

	"github.com/blinklabs-io/deedbridge/common"
	"github.com/blinklabs-io/deedbridge/event"
)

const (
	StageChangeNotificationEventType event.EventType = "bridge.stage_change_notification"
	StageAcknowledgedEventType       event.EventType = "bridge.stage_acknowledged"
	MessageProcessedEventType        event.EventType = "bridge.message_processed"
	CustodianChangedEventType        event.EventType = "bridge.custodian_changed"
)

// StageChangeNotificationEvent asks the relayer to apply a stage on the
// secondary ledger. Retry is set when the announcement repeats a pending
// change.
type StageChangeNotificationEvent struct {
	PropertyID  string
	TargetStage common.Stage
	InitiatedAt time.Time
	Retry       bool
	RetryCount  uint
	// Superseded is the unacknowledged target this notification replaced
	Superseded *common.Stage
}

type StageAcknowledgedEvent struct {
	PropertyID string
	Stage      common.Stage
	MessageID  string
}

type MessageProcessedEvent struct {
	MessageID    string
	PropertyID   string
	Type         common.MessageType
	Custodian    common.Address
	SharesMinted uint64
	SharesBurned uint64
}

type CustodianChangedEvent struct {
	ForeignAddresses []string
	Custodian        common.Address
	Previous         common.Address
}

func (b *Bridge) publish(eventType event.EventType, data any) {
	if b.config.EventBus == nil {
		return
	}
	b.config.EventBus.Publish(eventType, event.NewEvent(eventType, data))
}

func (b *Bridge) updatePendingGauge() {
	if b.metrics == nil {
		return
	}
	count, err := b.db.CountPendingStageChanges(nil)
	if err != nil {
		b.config.Logger.Warn(
			"failed to count pending stage changes",
			"component", "bridge",
			"error", err,
		)
		return
	}
	b.metrics.pending.Set(float64(count))
}

func (b *Bridge) stageChangeNotified(evt StageChangeNotificationEvent) {
	if evt.Superseded != nil {
		b.config.Logger.Warn(
			"unacknowledged stage change superseded",
			"component", "bridge",
			"property_id", evt.PropertyID,
			"superseded", evt.Superseded.String(),
			"target", evt.TargetStage.String(),
		)
	}
	b.config.Logger.Info(
		"stage change notification",
		"component", "bridge",
		"property_id", evt.PropertyID,
		"target", evt.TargetStage.String(),
		"retry", evt.Retry,
		"retry_count", evt.RetryCount,
	)
	if b.metrics != nil && evt.Retry {
		b.metrics.retries.Inc()
	}
	b.updatePendingGauge()
	b.publish(StageChangeNotificationEventType, evt)
}

func (b *Bridge) stageAcknowledged(evt StageAcknowledgedEvent) {
	b.config.Logger.Info(
		"stage change acknowledged",
		"component", "bridge",
		"property_id", evt.PropertyID,
		"stage", evt.Stage.String(),
		"message_id", evt.MessageID,
	)
	b.updatePendingGauge()
	b.publish(StageAcknowledgedEventType, evt)
}

func (b *Bridge) messageProcessed(evt MessageProcessedEvent) {
	b.config.Logger.Info(
		"message processed",
		"component", "bridge",
		"message_id", evt.MessageID,
		"property_id", evt.PropertyID,
		"type", evt.Type.String(),
		"custodian", evt.Custodian.String(),
	)
	if b.metrics != nil {
		b.metrics.processed.WithLabelValues(evt.Type.String()).Inc()
		b.metrics.sharesMinted.Add(float64(evt.SharesMinted))
		b.metrics.sharesBurned.Add(float64(evt.SharesBurned))
	}
	b.publish(MessageProcessedEventType, evt)
}

func (b *Bridge) messageRejected(msg *Message, err error) {
	kind := common.ErrorKind(err)
	// Replays are expected from relayers resubmitting after a timeout
	level := b.config.Logger.Warn
	if kind == "AlreadyProcessed" {
		level = b.config.Logger.Debug
	}
	level(
		"message rejected",
		"component", "bridge",
		"message_id", msg.ID,
		"property_id", msg.PropertyID,
		"kind", kind,
		"error", err,
	)
	if b.metrics != nil {
		b.metrics.rejected.WithLabelValues(kind).Inc()
	}
}

func (b *Bridge) custodianChanged(evt CustodianChangedEvent) {
	b.config.Logger.Info(
		"custodian mapping changed",
		"component", "bridge",
		"custodian", evt.Custodian.String(),
		"previous", evt.Previous.String(),
		"foreign_addresses", evt.ForeignAddresses,
	)
	b.publish(CustodianChangedEventType, evt)
}
