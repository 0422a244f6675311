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
	"time"

	"github.com/blinklabs-io/deedbridge/common"
	"github.com/blinklabs-io/deedbridge/event"
)

const (
	PropertyRegisteredEventType event.EventType = "governance.property_registered"
	StageChangedEventType       event.EventType = "governance.stage_changed"
	FundingUpdatedEventType     event.EventType = "governance.funding_updated"
	ProposalCreatedEventType    event.EventType = "governance.proposal_created"
	VoteCastEventType           event.EventType = "governance.vote_cast"
	ProposalFinalizedEventType  event.EventType = "governance.proposal_finalized"
)

type PropertyRegisteredEvent struct {
	PropertyID      string
	Manager         common.Address
	FundingTarget   uint64
	FundingDeadline time.Time
}

// StageChangedEvent is published after a stage transition commits
type StageChangedEvent struct {
	PropertyID string
	From       common.Stage
	To         common.Stage
	Reason     string
	Timestamp  time.Time
}

type FundingUpdatedEvent struct {
	PropertyID    string
	Amount        uint64
	TotalInvested uint64
	IsFullyFunded bool
}

type ProposalCreatedEvent struct {
	PropertyID string
	ProposalID uint64
	Type       common.ProposalType
	Proposer   common.Address
	Deadline   time.Time
}

type VoteCastEvent struct {
	PropertyID string
	ProposalID uint64
	Voter      common.Address
	Support    bool
	Weight     uint64
}

type ProposalFinalizedEvent struct {
	PropertyID   string
	ProposalID   uint64
	Type         common.ProposalType
	Status       common.ProposalStatus
	VotesFor     uint64
	VotesAgainst uint64
}

func (d *DAO) publish(eventType event.EventType, data any) {
	if d.config.EventBus == nil {
		return
	}
	d.config.EventBus.Publish(eventType, event.NewEvent(eventType, data))
}

func (d *DAO) propertyRegistered(evt PropertyRegisteredEvent) {
	d.config.Logger.Info(
		"property registered",
		"component", "governance",
		"property_id", evt.PropertyID,
		"manager", evt.Manager.String(),
		"funding_target", evt.FundingTarget,
	)
	d.publish(PropertyRegisteredEventType, evt)
}

func (d *DAO) stageChanged(evt StageChangedEvent) {
	d.config.Logger.Info(
		"property stage changed",
		"component", "governance",
		"property_id", evt.PropertyID,
		"from", evt.From.String(),
		"to", evt.To.String(),
		"reason", evt.Reason,
	)
	if d.metrics != nil {
		d.metrics.transitions.WithLabelValues(evt.To.String()).Inc()
	}
	d.publish(StageChangedEventType, evt)
}

func (d *DAO) fundingUpdated(evt FundingUpdatedEvent) {
	d.config.Logger.Debug(
		"funding updated",
		"component", "governance",
		"property_id", evt.PropertyID,
		"amount", evt.Amount,
		"total_invested", evt.TotalInvested,
		"fully_funded", evt.IsFullyFunded,
	)
	d.publish(FundingUpdatedEventType, evt)
}

func (d *DAO) proposalCreated(evt ProposalCreatedEvent) {
	d.config.Logger.Info(
		"proposal created",
		"component", "governance",
		"property_id", evt.PropertyID,
		"proposal_id", evt.ProposalID,
		"type", evt.Type.String(),
		"proposer", evt.Proposer.String(),
	)
	if d.metrics != nil {
		d.metrics.proposalsCreated.WithLabelValues(evt.Type.String()).Inc()
	}
	d.publish(ProposalCreatedEventType, evt)
}

func (d *DAO) voteCast(evt VoteCastEvent) {
	d.config.Logger.Debug(
		"vote cast",
		"component", "governance",
		"property_id", evt.PropertyID,
		"proposal_id", evt.ProposalID,
		"voter", evt.Voter.String(),
		"support", evt.Support,
		"weight", evt.Weight,
	)
	if d.metrics != nil {
		d.metrics.votes.Inc()
	}
	d.publish(VoteCastEventType, evt)
}

func (d *DAO) proposalFinalized(evt ProposalFinalizedEvent) {
	d.config.Logger.Info(
		"proposal finalized",
		"component", "governance",
		"property_id", evt.PropertyID,
		"proposal_id", evt.ProposalID,
		"type", evt.Type.String(),
		"status", evt.Status.String(),
		"votes_for", evt.VotesFor,
		"votes_against", evt.VotesAgainst,
	)
	if d.metrics != nil {
		d.metrics.proposalsFinalized.WithLabelValues(
			evt.Type.String(),
			evt.Status.String(),
		).Inc()
	}
	d.publish(ProposalFinalizedEventType, evt)
}
