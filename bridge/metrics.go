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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type bridgeMetrics struct {
	processed    *prometheus.CounterVec
	rejected     *prometheus.CounterVec
	pending      prometheus.Gauge
	retries      prometheus.Counter
	sharesMinted prometheus.Counter
	sharesBurned prometheus.Counter
}

func newBridgeMetrics(promRegistry prometheus.Registerer) *bridgeMetrics {
	promautoFactory := promauto.With(promRegistry)
	return &bridgeMetrics{
		processed: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_messages_processed_total",
				Help: "inbound messages applied by type",
			},
			[]string{"type"},
		),
		rejected: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_messages_rejected_total",
				Help: "inbound messages rejected by error kind",
			},
			[]string{"kind"},
		),
		pending: promautoFactory.NewGauge(
			prometheus.GaugeOpts{
				Name: "bridge_pending_stage_changes",
				Help: "stage changes awaiting acknowledgment",
			},
		),
		retries: promautoFactory.NewCounter(
			prometheus.CounterOpts{
				Name: "bridge_notification_retries_total",
				Help: "stage change notifications re-announced",
			},
		),
		sharesMinted: promautoFactory.NewCounter(
			prometheus.CounterOpts{
				Name: "bridge_shares_minted_total",
				Help: "shares minted for bridged deposits",
			},
		),
		sharesBurned: promautoFactory.NewCounter(
			prometheus.CounterOpts{
				Name: "bridge_shares_burned_total",
				Help: "shares burned for bridged withdrawals",
			},
		),
	}
}
