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
	"time"

	"github.com/blinklabs-io/deedbridge/common"
	"github.com/blinklabs-io/deedbridge/event"
	"github.com/shopspring/decimal"
)

const (
	PriceUpdatedEventType   event.EventType = "oracle.price_updated"
	CircuitBreakerEventType event.EventType = "oracle.circuit_breaker"
	EmergencyPauseEventType event.EventType = "oracle.emergency_pause"
)

type PriceUpdatedEvent struct {
	Asset     string
	Price     decimal.Decimal
	Timestamp time.Time
}

// CircuitBreakerEvent is published when an update is refused for moving
// too far from the stored price
type CircuitBreakerEvent struct {
	Asset         string
	StoredPrice   decimal.Decimal
	RejectedPrice decimal.Decimal
	Movement      decimal.Decimal
	Timestamp     time.Time
}

type EmergencyPauseEvent struct {
	Asset     string
	Paused    bool
	Caller    common.Address
	Timestamp time.Time
}

func (o *Oracle) publish(eventType event.EventType, data any) {
	if o.config.EventBus == nil {
		return
	}
	o.config.EventBus.Publish(eventType, event.NewEvent(eventType, data))
}

func (o *Oracle) priceUpdated(evt PriceUpdatedEvent) {
	o.config.Logger.Debug(
		"price updated",
		"component", "oracle",
		"asset", evt.Asset,
		"price", evt.Price.String(),
	)
	if o.metrics != nil {
		o.metrics.updates.WithLabelValues(evt.Asset).Inc()
		o.metrics.price.WithLabelValues(evt.Asset).Set(evt.Price.InexactFloat64())
	}
	o.publish(PriceUpdatedEventType, evt)
}

func (o *Oracle) circuitBreakerTripped(evt CircuitBreakerEvent) {
	o.config.Logger.Warn(
		"circuit breaker tripped, price updates paused",
		"component", "oracle",
		"asset", evt.Asset,
		"stored_price", evt.StoredPrice.String(),
		"rejected_price", evt.RejectedPrice.String(),
		"movement", evt.Movement.StringFixed(4),
	)
	if o.metrics != nil {
		o.metrics.trips.WithLabelValues(evt.Asset).Inc()
		o.metrics.paused.WithLabelValues(evt.Asset).Set(1)
	}
	o.publish(CircuitBreakerEventType, evt)
}

func (o *Oracle) emergencyPauseChanged(evt EmergencyPauseEvent) {
	o.config.Logger.Info(
		"emergency pause changed",
		"component", "oracle",
		"asset", evt.Asset,
		"paused", evt.Paused,
		"caller", evt.Caller.String(),
	)
	if o.metrics != nil {
		var val float64
		if evt.Paused {
			val = 1
		}
		o.metrics.paused.WithLabelValues(evt.Asset).Set(val)
	}
	o.publish(EmergencyPauseEventType, evt)
}
