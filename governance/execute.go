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
	"errors"
	"fmt"
	"time"

	"github.com/blinklabs-io/deedbridge/common"
	"github.com/blinklabs-io/deedbridge/database"
	"github.com/blinklabs-io/deedbridge/database/models"
	"github.com/blinklabs-io/deedbridge/database/types"
	"github.com/blinklabs-io/deedbridge/internal/telemetry"
	"github.com/holiman/uint256"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ExecutionResult is the outcome of executing a proposal. Rejected and
// expired proposals are reported here rather than as errors.
type ExecutionResult struct {
	PropertyID   string                `json:"propertyId"`
	ProposalID   uint64                `json:"proposalId"`
	Status       common.ProposalStatus `json:"status"`
	VotesFor     uint64                `json:"votesFor"`
	VotesAgainst uint64                `json:"votesAgainst"`
	TotalSupply  uint64                `json:"totalSupply"`
	QuorumMet    bool                  `json:"quorumMet"`
	// Reason is set when a passing proposal could not take effect
	Reason string `json:"reason,omitempty"`
}

type tally struct {
	quorumMet bool
	passed    bool
}

// tallyVotes applies the quorum and majority rules. Quorum requires
// (for+against)*100 >= quorum*supply. Liquidation also requires a
// supermajority of for*100 >= liquidationThreshold*(for+against).
func tallyVotes(
	votesFor uint64,
	votesAgainst uint64,
	totalSupply uint64,
	quorum uint64,
	supermajority uint64,
) tally {
	var ret tally
	if totalSupply == 0 {
		return ret
	}
	hundred := uint256.NewInt(100)
	participation := new(uint256.Int).Add(
		uint256.NewInt(votesFor),
		uint256.NewInt(votesAgainst),
	)
	required := new(uint256.Int).Mul(
		uint256.NewInt(quorum),
		uint256.NewInt(totalSupply),
	)
	ret.quorumMet = new(uint256.Int).Mul(participation, hundred).Cmp(required) >= 0
	if !ret.quorumMet || votesFor <= votesAgainst {
		return ret
	}
	if supermajority > 0 {
		forPct := new(uint256.Int).Mul(uint256.NewInt(votesFor), hundred)
		needed := new(uint256.Int).Mul(uint256.NewInt(supermajority), participation)
		if forPct.Cmp(needed) < 0 {
			return ret
		}
	}
	ret.passed = true
	return ret
}

// ExecuteProposal finalizes a proposal once voting has closed. A passing
// proposal has its effect applied in the same transaction. When the property
// has since moved to a stage where the effect no longer applies, the proposal
// is finalized as Rejected and the stage is left alone. Any other effect
// failure rolls back and the proposal stays Active.
func (d *DAO) ExecuteProposal(
	ctx context.Context,
	caller common.Address,
	propertyID string,
	proposalID uint64,
) (ret *ExecutionResult, err error) {
	_, span := d.tracer.Start(
		ctx,
		"DAO.ExecuteProposal",
		trace.WithAttributes(
			attribute.String("property_id", propertyID),
			attribute.Int64("proposal_id", int64(proposalID)), //nolint:gosec // attribute only
		),
	)
	defer func() { telemetry.End(span, err) }()

	txn := d.db.Transaction(true)
	err = txn.Do(func(txn *database.Txn) error {
		prop, err := d.loadProperty(propertyID, txn)
		if err != nil {
			return err
		}
		if caller.IsZero() ||
			(caller != d.config.Platform && caller != prop.Manager) {
			return fmt.Errorf(
				"%w: only the platform or the property manager may execute proposals",
				common.ErrNotAuthorized,
			)
		}
		proposal, err := d.loadProposal(propertyID, proposalID, txn)
		if err != nil {
			return err
		}
		if proposal.Status != common.ProposalStatusActive {
			return fmt.Errorf(
				"%w: proposal %d is %s",
				common.ErrAlreadyProcessed,
				proposalID,
				proposal.Status,
			)
		}
		if d.config.Clock.Time().Before(proposal.Deadline) {
			return fmt.Errorf(
				"%w: voting on proposal %d closes at %s",
				common.ErrDeadlineNotReached,
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
		totalSupply, err := d.shares.TotalSupply(propertyID, txn)
		if err != nil {
			return fmt.Errorf("failed to get total supply: %w", err)
		}
		quorum, err := d.thresholds.get(propertyID, ThresholdApprovalQuorum, txn)
		if err != nil {
			return err
		}
		var supermajority uint64
		if proposal.ProposalType == common.ProposalTypePropertyLiquidation {
			supermajority, err = d.thresholds.get(propertyID, ThresholdLiquidation, txn)
			if err != nil {
				return err
			}
		}
		result := tallyVotes(
			uint64(proposal.VotesFor),
			uint64(proposal.VotesAgainst),
			totalSupply,
			quorum,
			supermajority,
		)
		status := common.ProposalStatusRejected
		var reason string
		switch {
		case result.passed:
			status = common.ProposalStatusExecuted
			if err := d.applyEffect(prop, proposal, txn); err != nil {
				if !isStaleEffect(err) {
					return err
				}
				status = common.ProposalStatusRejected
				reason = err.Error()
				d.config.Logger.Info(
					"proposal passed but no longer applies",
					"component", "governance",
					"property_id", propertyID,
					"proposal_id", proposalID,
					"reason", reason,
				)
			}
		case !result.quorumMet:
			status = common.ProposalStatusExpired
		}
		if err := d.finalize(proposal, status, txn); err != nil {
			return err
		}
		ret = &ExecutionResult{
			PropertyID:   propertyID,
			ProposalID:   proposalID,
			Status:       status,
			VotesFor:     uint64(proposal.VotesFor),
			VotesAgainst: uint64(proposal.VotesAgainst),
			TotalSupply:  totalSupply,
			QuorumMet:    result.quorumMet,
			Reason:       reason,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// isStaleEffect reports whether an effect failed only because the property
// stage moved on after the proposal was created
func isStaleEffect(err error) bool {
	return errors.Is(err, common.ErrInvalidStageTransition) ||
		errors.Is(err, common.ErrWrongStage)
}

func (d *DAO) applyEffect(
	prop *models.Property,
	proposal *models.Proposal,
	txn *database.Txn,
) error {
	payload, err := DecodePayload(proposal.ProposalType, proposal.Data)
	if err != nil {
		return err
	}
	reason := fmt.Sprintf("proposal %d executed", proposal.ProposalID)
	switch p := payload.(type) {
	case *LiquidationTerms:
		prop.SalePrice = types.Uint64(p.SalePrice)
		prop.Buyer = p.Buyer
		return d.transition(prop, common.StageLiquidating, reason, txn)
	case *PurchaseTerms:
		prop.PurchasePrice = types.Uint64(p.PurchasePrice)
		switch prop.Stage {
		case common.StageFunded:
			return d.transition(prop, common.StageUnderManagement, reason, txn)
		case common.StageUnderManagement:
			return d.saveProperty(prop, txn)
		default:
			return fmt.Errorf(
				"%w: purchase cannot complete while %s",
				common.ErrWrongStage,
				prop.Stage,
			)
		}
	case *ThresholdChange:
		return d.thresholds.set(prop.PropertyID, p.Name, p.Value, txn)
	case *ManagementChange:
		prop.Manager = common.NewAddress(p.NewManager)
		return d.saveProperty(prop, txn)
	case *NAVChange:
		if err := d.shares.SetNAV(prop.PropertyID, p.NAV, txn); err != nil {
			return fmt.Errorf("failed to set NAV: %w", err)
		}
		return nil
	case *StageChange:
		return d.transition(prop, p.Stage(), reason, txn)
	}
	switch proposal.ProposalType {
	case common.ProposalTypeEmergencyPause:
		prop.Paused = true
	case common.ProposalTypeEmergencyUnpause:
		prop.Paused = false
	default:
		return fmt.Errorf(
			"%w: no effect for %s",
			common.ErrInvalidParameter,
			proposal.ProposalType,
		)
	}
	return d.saveProperty(prop, txn)
}
