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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type oracleMetrics struct {
	price   *prometheus.GaugeVec
	updates *prometheus.CounterVec
	trips   *prometheus.CounterVec
	paused  *prometheus.GaugeVec
}

func newOracleMetrics(promRegistry prometheus.Registerer) *oracleMetrics {
	promautoFactory := promauto.With(promRegistry)
	return &oracleMetrics{
		price: promautoFactory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "oracle_price",
				Help: "last accepted price by asset",
			},
			[]string{"asset"},
		),
		updates: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oracle_updates_total",
				Help: "accepted price updates by asset",
			},
			[]string{"asset"},
		),
		trips: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oracle_circuit_breaker_trips_total",
				Help: "price updates refused for extreme movement by asset",
			},
			[]string{"asset"},
		),
		paused: promautoFactory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "oracle_emergency_paused",
				Help: "1 while price updates for the asset are paused",
			},
			[]string{"asset"},
		),
	}
}
