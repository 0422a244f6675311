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

package relay

import (
	"github.com/blinklabs-io/deedbridge/bridge"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func registerMetrics(
	promRegistry prometheus.Registerer,
	outbound *Channel[*bridge.Message],
) {
	promautoFactory := promauto.With(promRegistry)
	promautoFactory.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "relay_envelopes_delivered_total",
			Help: "envelopes accepted by the relay channel",
		},
		func() float64 { return float64(outbound.Delivered()) },
	)
	promautoFactory.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "relay_envelopes_dropped_total",
			Help: "duplicate envelopes dropped by the relay channel",
		},
		func() float64 { return float64(outbound.Dropped()) },
	)
	promautoFactory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "relay_envelopes_held",
			Help: "envelopes waiting for delivery",
		},
		func() float64 { return float64(outbound.Len()) },
	)
}
