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

package governance

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type daoMetrics struct {
	transitions        *prometheus.CounterVec
	proposalsCreated   *prometheus.CounterVec
	proposalsFinalized *prometheus.CounterVec
	votes              prometheus.Counter
}

func newDaoMetrics(promRegistry prometheus.Registerer) *daoMetrics {
	promautoFactory := promauto.With(promRegistry)
	return &daoMetrics{
		transitions: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "governance_stage_transitions_total",
				Help: "property stage transitions by target stage",
			},
			[]string{"stage"},
		),
		proposalsCreated: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "governance_proposals_created_total",
				Help: "proposals created by type",
			},
			[]string{"type"},
		),
		proposalsFinalized: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "governance_proposals_finalized_total",
				Help: "proposals finalized by type and outcome",
			},
			[]string{"type", "status"},
		),
		votes: promautoFactory.NewCounter(
			prometheus.CounterOpts{
				Name: "governance_votes_total",
				Help: "votes cast",
			},
		),
	}
}
