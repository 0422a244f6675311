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
	"context"
	"fmt"
	"time"

	"github.com/blinklabs-io/deedbridge/common"
	"github.com/blinklabs-io/deedbridge/database"
	"github.com/blinklabs-io/deedbridge/database/models"
	"github.com/blinklabs-io/deedbridge/database/types"
	"github.com/blinklabs-io/deedbridge/internal/telemetry"
	"github.com/blinklabs-io/gouroboros/cbor"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Proposal is a snapshot of a governance action and its tally
type Proposal struct {
	PropertyID   string                `json:"propertyId"`
	ID           uint64                `json:"id"`
	Proposer     common.Address        `json:"proposer"`
	Type         common.ProposalType   `json:"type"`
	Description  string                `json:"description"`
	Data         []byte                `json:"data,omitempty"`
	Deadline     time.Time             `json:"deadline"`
	VotesFor     uint64                `json:"votesFor"`
	VotesAgainst uint64                `json:"votesAgainst"`
	Status       common.ProposalStatus `json:"status"`
	Executed     bool                  `json:"executed"`
	CreatedAt    time.Time             `json:"createdAt"`
	FinalizedAt  *time.Time            `json:"finalizedAt,omitempty"`
}

func proposalFromModel(m *models.Proposal) *Proposal {
	return &Proposal{
		PropertyID:   m.PropertyID,
		ID:           m.ProposalID,
		Proposer:     m.Proposer,
		Type:         m.ProposalType,
		Description:  m.Description,
		Data:         m.Data,
		Deadline:     m.Deadline,
		VotesFor:     uint64(m.VotesFor),
		VotesAgainst: uint64(m.VotesAgainst),
		Status:       m.Status,
		Executed:     m.Executed,
		CreatedAt:    m.CreatedAt,
		FinalizedAt:  m.FinalizedAt,
	}
}

// Vote is a voter's ballot on a proposal. HasVoted is false for a voter who
// has not voted.
type Vote struct {
	HasVoted bool   `json:"hasVoted"`
	Support  bool   `json:"support"`
	Weight   uint64 `json:"weight"`
}

// proposalArchive is the blob store record of a proposal, rewritten when
// the proposal is finalized
type proposalArchive struct {
	cbor.StructAsArray
	PropertyID   string
	ProposalID   uint64
	Proposer     string
	ProposalType uint8
	Description  string
	Data         []byte
	Deadline     int64
	VotesFor     uint64
	VotesAgainst uint64
	Status       uint8
}

func (d *DAO) archiveProposal(p *models.Proposal, txn *database.Txn) error {
	record := proposalArchive{
		PropertyID:   p.PropertyID,
		ProposalID:   p.ProposalID,
		Proposer:     p.Proposer.String(),
		ProposalType: uint8(p.ProposalType),
		Description:  p.Description,
		Data:         p.Data,
		Deadline:     p.Deadline.Unix(),
		VotesFor:     uint64(p.VotesFor),
		VotesAgainst: uint64(p.VotesAgainst),
		Status:       uint8(p.Status),
	}
	recordCbor, err := cbor.Encode(&record)
	if err != nil {
		return fmt.Errorf("failed to encode proposal archive: %w", err)
	}
	if err := d.db.SetBlob(
		types.ProposalBlobKey(p.PropertyID, p.ProposalID),
		recordCbor,
		txn,
	); err != nil {
		return fmt.Errorf("failed to archive proposal: %w", err)
	}
	return nil
}

// addProposal appends a proposal to the ledger without any permission or
// stage checks
func (d *DAO) addProposal(
	prop *models.Property,
	proposer common.Address,
	proposalType common.ProposalType,
	description string,
	data []byte,
	txn *database.Txn,
) (*models.Proposal, error) {
	now := d.config.Clock.Time()
	prop.ProposalSeq++
	if err := d.saveProperty(prop, txn); err != nil {
		return nil, err
	}
	proposal := &models.Proposal{
		PropertyID:   prop.PropertyID,
		ProposalID:   prop.ProposalSeq,
		Proposer:     proposer,
		ProposalType: proposalType,
		Description:  description,
		Data:         data,
		Deadline:     now.Add(d.config.VotingPeriod),
		Status:       common.ProposalStatusActive,
		CreatedAt:    now,
	}
	if err := d.db.SetProposal(proposal, txn); err != nil {
		return nil, fmt.Errorf("failed to add proposal: %w", err)
	}
	if err := d.archiveProposal(proposal, txn); err != nil {
		return nil, err
	}
	evt := ProposalCreatedEvent{
		PropertyID: proposal.PropertyID,
		ProposalID: proposal.ProposalID,
		Type:       proposalType,
		Proposer:   proposer,
		Deadline:   proposal.Deadline,
	}
	txn.OnCommit(func() { d.proposalCreated(evt) })
	return proposal, nil
}

// CreateProposal submits a governance action for vote. Shareholders may
// create user proposals and the platform may create platform-only ones.
// Outside the automatic purchase proposal, proposals are created while the
// property is UnderManagement, except PropertyStageChange which may be
// created in any stage for the next forward stage.
func (d *DAO) CreateProposal(
	ctx context.Context,
	caller common.Address,
	propertyID string,
	proposalType common.ProposalType,
	description string,
	data []byte,
) (ret *Proposal, err error) {
	_, span := d.tracer.Start(
		ctx,
		"DAO.CreateProposal",
		trace.WithAttributes(
			attribute.String("property_id", propertyID),
			attribute.String("type", proposalType.String()),
		),
	)
	defer func() { telemetry.End(span, err) }()

	if !proposalType.Valid() {
		return nil, fmt.Errorf(
			"%w: unknown proposal type %d",
			common.ErrInvalidParameter,
			proposalType,
		)
	}
	if len(description) > maxDescriptionLength {
		return nil, fmt.Errorf(
			"%w: description longer than %d bytes",
			common.ErrInvalidParameter,
			maxDescriptionLength,
		)
	}
	if proposalType.PlatformOnly() {
		if err := d.requirePlatform(caller, "create "+proposalType.String()+" proposals"); err != nil {
			return nil, err
		}
	}
	payload, err := DecodePayload(proposalType, data)
	if err != nil {
		return nil, err
	}
	txn := d.db.Transaction(true)
	err = txn.Do(func(txn *database.Txn) error {
		prop, err := d.loadProperty(propertyID, txn)
		if err != nil {
			return err
		}
		if err := checkPaused(prop, proposalType); err != nil {
			return err
		}
		if err := checkProposalStage(prop, proposalType, payload); err != nil {
			return err
		}
		if !proposalType.PlatformOnly() {
			power, err := d.shares.BalanceOf(propertyID, caller, txn)
			if err != nil {
				return fmt.Errorf("failed to get voting power: %w", err)
			}
			if power == 0 {
				return fmt.Errorf(
					"%w: %s holds no shares of %q",
					common.ErrInsufficientVotingPower,
					caller,
					propertyID,
				)
			}
		}
		proposal, err := d.addProposal(
			prop,
			caller,
			proposalType,
			description,
			data,
			txn,
		)
		if err != nil {
			return err
		}
		ret = proposalFromModel(proposal)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

const maxDescriptionLength = 1024

// checkPaused allows only unpause proposals on a paused property
func checkPaused(prop *models.Property, proposalType common.ProposalType) error {
	if proposalType == common.ProposalTypeEmergencyUnpause {
		if !prop.Paused {
			return fmt.Errorf(
				"%w: property %q is not paused",
				common.ErrInvalidParameter,
				prop.PropertyID,
			)
		}
		return nil
	}
	if prop.Paused {
		return fmt.Errorf(
			"%w: property %q is paused",
			common.ErrPaused,
			prop.PropertyID,
		)
	}
	return nil
}

// proposalStageTargets are the stages a PropertyStageChange may move to.
// Funded and UnderManagement are only reached through funding and the
// purchase proposal.
var proposalStageTargets = map[common.Stage]bool{
	common.StageLiquidating: true,
	common.StageLiquidated:  true,
}

func checkProposalStage(
	prop *models.Property,
	proposalType common.ProposalType,
	payload any,
) error {
	if proposalType == common.ProposalTypePropertyStageChange {
		target := payload.(*StageChange).Stage()
		if !proposalStageTargets[target] || !prop.Stage.CanAdvanceTo(target) {
			return fmt.Errorf(
				"%w: stage change proposal cannot move %s to %s",
				common.ErrInvalidStageTransition,
				prop.Stage,
				target,
			)
		}
		return nil
	}
	if prop.Stage != common.StageUnderManagement {
		return fmt.Errorf(
			"%w: %s proposals require UnderManagement, property is %s",
			common.ErrWrongStage,
			proposalType,
			prop.Stage,
		)
	}
	return nil
}

// Vote casts the caller's full share balance for or against a proposal. A
// voter may vote once per proposal and the weight is fixed at vote time.
func (d *DAO) Vote(
	ctx context.Context,
	caller common.Address,
	propertyID string,
	proposalID uint64,
	support bool,
) (ret *Vote, err error) {
	_, span := d.tracer.Start(
		ctx,
		"DAO.Vote",
		trace.WithAttributes(
			attribute.String("property_id", propertyID),
			attribute.Int64("proposal_id", int64(proposalID)), //nolint:gosec // attribute only
			attribute.Bool("support", support),
		),
	)
	defer func() { telemetry.End(span, err) }()

	if caller.IsZero() {
		return nil, fmt.Errorf("%w: voter is required", common.ErrNotAuthorized)
	}
	txn := d.db.Transaction(true)
	err = txn.Do(func(txn *database.Txn) error {
		prop, err := d.loadProperty(propertyID, txn)
		if err != nil {
			return err
		}
		proposal, err := d.loadProposal(propertyID, proposalID, txn)
		if err != nil {
			return err
		}
		if proposal.Status != common.ProposalStatusActive {
			return fmt.Errorf(
				"%w: proposal %d is %s",
				common.ErrProposalNotActive,
				proposalID,
				proposal.Status,
			)
		}
		if !d.config.Clock.Time().Before(proposal.Deadline) {
			return fmt.Errorf(
				"%w: voting on proposal %d closed at %s",
				common.ErrDeadlinePassed,
				proposalID,
				proposal.Deadline.Format(time.RFC3339),
			)
		}
		if prop.Paused && proposal.ProposalType != common.ProposalTypeEmergencyUnpause {
			return fmt.Errorf(
				"%w: property %q is paused",
				common.ErrPaused,
				propertyID,
			)
		}
		existing, err := d.db.GetVote(propertyID, proposalID, caller, txn)
		if err != nil {
			return fmt.Errorf("failed to get vote: %w", err)
		}
		if existing != nil {
			return fmt.Errorf(
				"%w: %s on proposal %d",
				common.ErrAlreadyVoted,
				caller,
				proposalID,
			)
		}
		weight, err := d.shares.BalanceOf(propertyID, caller, txn)
		if err != nil {
			return fmt.Errorf("failed to get voting power: %w", err)
		}
		if weight == 0 {
			return fmt.Errorf(
				"%w: %s holds no shares of %q",
				common.ErrInsufficientVotingPower,
				caller,
				propertyID,
			)
		}
		if err := d.db.AddVote(
			&models.Vote{
				PropertyID: propertyID,
				ProposalID: proposalID,
				Voter:      caller,
				Support:    support,
				Weight:     types.Uint64(weight),
				CreatedAt:  d.config.Clock.Time(),
			},
			txn,
		); err != nil {
			return fmt.Errorf("failed to add vote: %w", err)
		}
		if support {
			proposal.VotesFor += types.Uint64(weight)
		} else {
			proposal.VotesAgainst += types.Uint64(weight)
		}
		if err := d.db.SetProposal(proposal, txn); err != nil {
			return fmt.Errorf("failed to set proposal: %w", err)
		}
		ret = &Vote{HasVoted: true, Support: support, Weight: weight}
		evt := VoteCastEvent{
			PropertyID: propertyID,
			ProposalID: proposalID,
			Voter:      caller,
			Support:    support,
			Weight:     weight,
		}
		txn.OnCommit(func() { d.voteCast(evt) })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (d *DAO) loadProposal(
	propertyID string,
	proposalID uint64,
	txn *database.Txn,
) (*models.Proposal, error) {
	proposal, err := d.db.GetProposal(propertyID, proposalID, txn)
	if err != nil {
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}
	if proposal == nil {
		return nil, fmt.Errorf(
			"%w: proposal %d of %q",
			common.ErrNotFound,
			proposalID,
			propertyID,
		)
	}
	return proposal, nil
}

// expireProposals finalizes every active proposal of a type as Expired
func (d *DAO) expireProposals(
	propertyID string,
	proposalType common.ProposalType,
	txn *database.Txn,
) error {
	active := common.ProposalStatusActive
	proposals, err := d.db.GetProposals(propertyID, &active, txn)
	if err != nil {
		return fmt.Errorf("failed to get proposals: %w", err)
	}
	for i := range proposals {
		proposal := &proposals[i]
		if proposal.ProposalType != proposalType {
			continue
		}
		if err := d.finalize(proposal, common.ProposalStatusExpired, txn); err != nil {
			return err
		}
	}
	return nil
}

// finalize records a proposal's terminal status
func (d *DAO) finalize(
	proposal *models.Proposal,
	status common.ProposalStatus,
	txn *database.Txn,
) error {
	now := d.config.Clock.Time()
	proposal.Status = status
	proposal.Executed = status == common.ProposalStatusExecuted
	proposal.FinalizedAt = &now
	if err := d.db.SetProposal(proposal, txn); err != nil {
		return fmt.Errorf("failed to set proposal: %w", err)
	}
	if err := d.archiveProposal(proposal, txn); err != nil {
		return err
	}
	evt := ProposalFinalizedEvent{
		PropertyID:   proposal.PropertyID,
		ProposalID:   proposal.ProposalID,
		Type:         proposal.ProposalType,
		Status:       status,
		VotesFor:     uint64(proposal.VotesFor),
		VotesAgainst: uint64(proposal.VotesAgainst),
	}
	txn.OnCommit(func() { d.proposalFinalized(evt) })
	return nil
}

// GetProposal returns a proposal snapshot
func (d *DAO) GetProposal(
	ctx context.Context,
	propertyID string,
	proposalID uint64,
) (*Proposal, error) {
	_, span := d.tracer.Start(ctx, "DAO.GetProposal")
	defer span.End()
	proposal, err := d.loadProposal(propertyID, proposalID, nil)
	if err != nil {
		return nil, err
	}
	return proposalFromModel(proposal), nil
}

// GetProposals returns a property's proposals in ID order, optionally
// filtered by status
func (d *DAO) GetProposals(
	ctx context.Context,
	propertyID string,
	status *common.ProposalStatus,
) ([]*Proposal, error) {
	_, span := d.tracer.Start(ctx, "DAO.GetProposals")
	defer span.End()
	proposals, err := d.db.GetProposals(propertyID, status, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get proposals: %w", err)
	}
	ret := make([]*Proposal, 0, len(proposals))
	for i := range proposals {
		ret = append(ret, proposalFromModel(&proposals[i]))
	}
	return ret, nil
}

// GetVote returns a voter's ballot on a proposal
func (d *DAO) GetVote(
	ctx context.Context,
	propertyID string,
	proposalID uint64,
	voter common.Address,
) (*Vote, error) {
	_, span := d.tracer.Start(ctx, "DAO.GetVote")
	defer span.End()
	if _, err := d.loadProposal(propertyID, proposalID, nil); err != nil {
		return nil, err
	}
	vote, err := d.db.GetVote(propertyID, proposalID, voter, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get vote: %w", err)
	}
	if vote == nil {
		return &Vote{}, nil
	}
	return &Vote{
		HasVoted: true,
		Support:  vote.Support,
		Weight:   uint64(vote.Weight),
	}, nil
}
