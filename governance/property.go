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
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Property is a snapshot of a managed asset's lifecycle state
type Property struct {
	ID                  string         `json:"id"`
	Stage               common.Stage   `json:"stage"`
	Manager             common.Address `json:"manager"`
	FundingTarget       uint64         `json:"fundingTarget"`
	FundingDeadline     time.Time      `json:"fundingDeadline"`
	TotalInvested       uint64         `json:"totalInvested"`
	IsFullyFunded       bool           `json:"isFullyFunded"`
	Reverted            bool           `json:"reverted"`
	Paused              bool           `json:"paused"`
	SalePrice           uint64         `json:"salePrice,omitempty"`
	Buyer               string         `json:"buyer,omitempty"`
	PurchasePrice       uint64         `json:"purchasePrice,omitempty"`
	LiquidationProceeds uint64         `json:"liquidationProceeds,omitempty"`
	ProposalCount       uint64         `json:"proposalCount"`
}

func propertyFromModel(m *models.Property) *Property {
	return &Property{
		ID:                  m.PropertyID,
		Stage:               m.Stage,
		Manager:             m.Manager,
		FundingTarget:       uint64(m.FundingTarget),
		FundingDeadline:     m.FundingDeadline,
		TotalInvested:       uint64(m.TotalInvested),
		IsFullyFunded:       m.IsFullyFunded,
		Reverted:            m.Reverted,
		Paused:              m.Paused,
		SalePrice:           uint64(m.SalePrice),
		Buyer:               m.Buyer,
		PurchasePrice:       uint64(m.PurchasePrice),
		LiquidationProceeds: uint64(m.LiquidationProceeds),
		ProposalCount:       m.ProposalSeq,
	}
}

// PropertyParams describes a property to register
type PropertyParams struct {
	ID              string
	Manager         common.Address
	FundingTarget   uint64
	FundingDeadline time.Time
}

// FundingResult enumerates every side effect of a funding update so callers
// can verify they happened together
type FundingResult struct {
	TotalInvested uint64       `json:"totalInvested"`
	IsFullyFunded bool         `json:"isFullyFunded"`
	StageChanged  bool         `json:"stageChanged"`
	NewStage      common.Stage `json:"newStage"`
	// ProposalID is the automatically created purchase proposal, or 0
	ProposalID uint64 `json:"proposalId,omitempty"`
}

// RegisterProperty creates a property in OpenToFund and seeds its default
// thresholds. Registration is not a stage transition.
func (d *DAO) RegisterProperty(
	ctx context.Context,
	caller common.Address,
	params PropertyParams,
) (ret *Property, err error) {
	_, span := d.tracer.Start(
		ctx,
		"DAO.RegisterProperty",
		trace.WithAttributes(attribute.String("property_id", params.ID)),
	)
	defer func() { telemetry.End(span, err) }()

	if err := d.requirePlatform(caller, "register properties"); err != nil {
		return nil, err
	}
	if params.ID == "" {
		return nil, fmt.Errorf("%w: property ID is required", common.ErrInvalidParameter)
	}
	if err := d.validateFunding(params.FundingTarget, params.FundingDeadline); err != nil {
		return nil, err
	}
	txn := d.db.Transaction(true)
	err = txn.Do(func(txn *database.Txn) error {
		existing, err := d.db.GetProperty(params.ID, txn)
		if err != nil {
			return fmt.Errorf("failed to get property: %w", err)
		}
		if existing != nil {
			return fmt.Errorf(
				"%w: property %q",
				common.ErrAlreadyRegistered,
				params.ID,
			)
		}
		prop := &models.Property{
			PropertyID:      params.ID,
			Stage:           common.StageOpenToFund,
			Manager:         params.Manager,
			FundingTarget:   types.Uint64(params.FundingTarget),
			FundingDeadline: params.FundingDeadline,
		}
		if err := d.saveProperty(prop, txn); err != nil {
			return err
		}
		if err := d.thresholds.seed(params.ID, txn); err != nil {
			return err
		}
		ret = propertyFromModel(prop)
		evt := PropertyRegisteredEvent{
			PropertyID:      params.ID,
			Manager:         params.Manager,
			FundingTarget:   params.FundingTarget,
			FundingDeadline: params.FundingDeadline,
		}
		txn.OnCommit(func() { d.propertyRegistered(evt) })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (d *DAO) validateFunding(target uint64, deadline time.Time) error {
	if target == 0 {
		return fmt.Errorf(
			"%w: funding target must be positive",
			common.ErrInvalidParameter,
		)
	}
	if !deadline.After(d.config.Clock.Time()) {
		return fmt.Errorf(
			"%w: funding deadline must be in the future",
			common.ErrInvalidParameter,
		)
	}
	return nil
}

// SetFundingTarget replaces the funding target and deadline of a property
// that is still open to funding
func (d *DAO) SetFundingTarget(
	ctx context.Context,
	caller common.Address,
	propertyID string,
	target uint64,
	deadline time.Time,
) (err error) {
	_, span := d.tracer.Start(
		ctx,
		"DAO.SetFundingTarget",
		trace.WithAttributes(attribute.String("property_id", propertyID)),
	)
	defer func() { telemetry.End(span, err) }()

	if err := d.requirePlatform(caller, "set the funding target"); err != nil {
		return err
	}
	if err := d.validateFunding(target, deadline); err != nil {
		return err
	}
	txn := d.db.Transaction(true)
	return txn.Do(func(txn *database.Txn) error {
		prop, err := d.loadProperty(propertyID, txn)
		if err != nil {
			return err
		}
		if prop.Stage != common.StageOpenToFund {
			return fmt.Errorf(
				"%w: funding target is fixed once %s",
				common.ErrWrongStage,
				prop.Stage,
			)
		}
		prop.FundingTarget = types.Uint64(target)
		prop.FundingDeadline = deadline
		return d.saveProperty(prop, txn)
	})
}

// UpdateTotalInvested adds newly invested funds to a property. When the
// total first reaches the funding target the property moves to Funded and a
// PropertyPurchase proposal is created, all in one transaction.
func (d *DAO) UpdateTotalInvested(
	ctx context.Context,
	caller common.Address,
	propertyID string,
	amount uint64,
) (ret *FundingResult, err error) {
	_, span := d.tracer.Start(
		ctx,
		"DAO.UpdateTotalInvested",
		trace.WithAttributes(
			attribute.String("property_id", propertyID),
			attribute.Int64("amount", int64(amount)), //nolint:gosec // attribute only
		),
	)
	defer func() { telemetry.End(span, err) }()

	if err := d.requirePlatform(caller, "update total invested"); err != nil {
		return nil, err
	}
	txn := d.db.Transaction(true)
	err = txn.Do(func(txn *database.Txn) error {
		prop, err := d.loadProperty(propertyID, txn)
		if err != nil {
			return err
		}
		if prop.Stage != common.StageOpenToFund {
			return fmt.Errorf(
				"%w: investments are only recorded while OpenToFund, property is %s",
				common.ErrWrongStage,
				prop.Stage,
			)
		}
		newTotal, ok := prop.TotalInvested.Add(amount)
		if !ok {
			return fmt.Errorf(
				"%w: total invested overflows",
				common.ErrInvalidParameter,
			)
		}
		prop.TotalInvested = newTotal
		total := uint64(newTotal)
		wasFunded := prop.IsFullyFunded
		prop.IsFullyFunded = total >= uint64(prop.FundingTarget)
		result := &FundingResult{
			TotalInvested: total,
			IsFullyFunded: prop.IsFullyFunded,
			NewStage:      prop.Stage,
		}
		if prop.IsFullyFunded && !wasFunded {
			if err := d.transition(prop, common.StageFunded, "funding target reached", txn); err != nil {
				return err
			}
			terms := PurchaseTerms{PurchasePrice: uint64(prop.FundingTarget)}
			data, err := EncodePayload(&terms)
			if err != nil {
				return err
			}
			proposal, err := d.addProposal(
				prop,
				d.config.Platform,
				common.ProposalTypePropertyPurchase,
				"purchase of fully funded property",
				data,
				txn,
			)
			if err != nil {
				return err
			}
			result.StageChanged = true
			result.NewStage = prop.Stage
			result.ProposalID = proposal.ProposalID
		} else if err := d.saveProperty(prop, txn); err != nil {
			return err
		}
		ret = result
		evt := FundingUpdatedEvent{
			PropertyID:    propertyID,
			Amount:        amount,
			TotalInvested: total,
			IsFullyFunded: result.IsFullyFunded,
		}
		txn.OnCommit(func() { d.fundingUpdated(evt) })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// RevertToOpenToFund moves a Funded property back to OpenToFund. A property
// may be reverted once. Investments are kept, the fully funded flag is
// cleared and any pending purchase proposal expires.
func (d *DAO) RevertToOpenToFund(
	ctx context.Context,
	caller common.Address,
	propertyID string,
) (err error) {
	_, span := d.tracer.Start(
		ctx,
		"DAO.RevertToOpenToFund",
		trace.WithAttributes(attribute.String("property_id", propertyID)),
	)
	defer func() { telemetry.End(span, err) }()

	if err := d.requirePlatform(caller, "revert funding"); err != nil {
		return err
	}
	txn := d.db.Transaction(true)
	return txn.Do(func(txn *database.Txn) error {
		prop, err := d.loadProperty(propertyID, txn)
		if err != nil {
			return err
		}
		if prop.Stage != common.StageFunded {
			return fmt.Errorf(
				"%w: only a Funded property can be reverted, property is %s",
				common.ErrInvalidStageTransition,
				prop.Stage,
			)
		}
		if prop.Reverted {
			return fmt.Errorf(
				"%w: property %q was already reverted once",
				common.ErrInvalidStageTransition,
				propertyID,
			)
		}
		prop.Reverted = true
		prop.IsFullyFunded = false
		if err := d.transition(prop, common.StageOpenToFund, "funding reverted", txn); err != nil {
			return err
		}
		return d.expireProposals(
			propertyID,
			common.ProposalTypePropertyPurchase,
			txn,
		)
	})
}

// CompleteLiquidation records the sale proceeds and moves a Liquidating
// property to its terminal stage
func (d *DAO) CompleteLiquidation(
	ctx context.Context,
	caller common.Address,
	propertyID string,
	proceeds uint64,
) (err error) {
	_, span := d.tracer.Start(
		ctx,
		"DAO.CompleteLiquidation",
		trace.WithAttributes(attribute.String("property_id", propertyID)),
	)
	defer func() { telemetry.End(span, err) }()

	if err := d.requirePlatform(caller, "complete liquidation"); err != nil {
		return err
	}
	txn := d.db.Transaction(true)
	return txn.Do(func(txn *database.Txn) error {
		prop, err := d.loadProperty(propertyID, txn)
		if err != nil {
			return err
		}
		prop.LiquidationProceeds = types.Uint64(proceeds)
		return d.transition(prop, common.StageLiquidated, "liquidation completed", txn)
	})
}

// GetProperty returns a property snapshot
func (d *DAO) GetProperty(
	ctx context.Context,
	propertyID string,
) (*Property, error) {
	_, span := d.tracer.Start(ctx, "DAO.GetProperty")
	defer span.End()
	prop, err := d.loadProperty(propertyID, nil)
	if err != nil {
		return nil, err
	}
	return propertyFromModel(prop), nil
}

// GetProperties returns a snapshot of every registered property
func (d *DAO) GetProperties(ctx context.Context) ([]*Property, error) {
	_, span := d.tracer.Start(ctx, "DAO.GetProperties")
	defer span.End()
	props, err := d.db.GetProperties(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get properties: %w", err)
	}
	ret := make([]*Property, 0, len(props))
	for i := range props {
		ret = append(ret, propertyFromModel(&props[i]))
	}
	return ret, nil
}

// GetCurrentStage returns the lifecycle stage of a property
func (d *DAO) GetCurrentStage(
	ctx context.Context,
	propertyID string,
) (common.Stage, error) {
	prop, err := d.GetProperty(ctx, propertyID)
	if err != nil {
		return 0, err
	}
	return prop.Stage, nil
}
