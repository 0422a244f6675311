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
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/blinklabs-io/deedbridge/common"
	"github.com/blinklabs-io/deedbridge/database"
	"github.com/blinklabs-io/deedbridge/database/models"
	"github.com/blinklabs-io/deedbridge/database/types"
	"github.com/blinklabs-io/deedbridge/internal/telemetry"
	"github.com/blinklabs-io/deedbridge/vault"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MessageResult describes the effect of a processed message
type MessageResult struct {
	MessageID         string             `json:"messageId"`
	PropertyID        string             `json:"propertyId"`
	Type              common.MessageType `json:"type"`
	Custodian         common.Address     `json:"custodian,omitempty"`
	UsdValue          decimal.Decimal    `json:"usdValue"`
	SharesMinted      uint64             `json:"sharesMinted,omitempty"`
	SharesBurned      uint64             `json:"sharesBurned,omitempty"`
	AssetsReleased    uint64             `json:"assetsReleased,omitempty"`
	AcknowledgedStage common.Stage       `json:"acknowledgedStage"`
}

// ProcessMessage applies an inbound message exactly once. Only the relayer
// may submit messages and a message ID that was already consumed fails with
// ErrAlreadyProcessed, which the relayer treats as success.
func (b *Bridge) ProcessMessage(
	ctx context.Context,
	caller common.Address,
	msg *Message,
) (ret *MessageResult, err error) {
	if msg == nil {
		return nil, fmt.Errorf("%w: message is required", common.ErrInvalidMessage)
	}
	// Work on a copy so the caller's message keeps its original hash
	tmpMsg := *msg
	tmpMsg.ForeignTxHash = NormalizeTxHash(msg.ForeignTxHash)
	msg = &tmpMsg
	_, span := b.tracer.Start(
		ctx,
		"Bridge.ProcessMessage",
		trace.WithAttributes(
			attribute.String("message_id", msg.ID),
			attribute.String("property_id", msg.PropertyID),
			attribute.String("type", msg.Type.String()),
		),
	)
	defer func() {
		telemetry.End(span, err)
		if err != nil {
			b.messageRejected(msg, err)
		}
	}()

	txn := b.db.Transaction(true)
	err = txn.Do(func(txn *database.Txn) error {
		processed, err := b.db.GetProcessedMessage(msg.ID, txn)
		if err != nil {
			return fmt.Errorf("failed to get processed message: %w", err)
		}
		if processed != nil {
			return fmt.Errorf(
				"%w: message %q",
				common.ErrAlreadyProcessed,
				msg.ID,
			)
		}
		if caller.IsZero() || caller != b.config.Relayer {
			return fmt.Errorf(
				"%w: only the relayer may submit messages",
				common.ErrNotAuthorized,
			)
		}
		if err := msg.validate(); err != nil {
			return err
		}
		if b.config.ProofVerifier != nil {
			if err := b.config.ProofVerifier.VerifyProof(msg); err != nil {
				return fmt.Errorf(
					"%w: proof rejected: %w",
					common.ErrInvalidMessage,
					err,
				)
			}
		}
		var result *MessageResult
		switch msg.Type {
		case common.MessageTypeDeposit:
			result, err = b.deposit(msg, txn)
		case common.MessageTypeWithdrawal:
			result, err = b.withdraw(msg, txn)
		case common.MessageTypeStageAcknowledgment:
			result, err = b.acknowledge(msg, txn)
		}
		if err != nil {
			return err
		}
		now := b.config.Clock.Time()
		if err := b.db.AddProcessedMessage(
			&models.ProcessedMessage{
				MessageID:      msg.ID,
				PropertyID:     msg.PropertyID,
				MessageType:    msg.Type,
				Custodian:      result.Custodian,
				ForeignAddress: msg.ForeignAddress,
				Amount:         types.Uint64(msg.Amount),
				ForeignTxHash:  msg.ForeignTxHash,
				ProcessedAt:    now,
			},
			txn,
		); err != nil {
			return fmt.Errorf("failed to add processed message: %w", err)
		}
		envCbor, err := encodeEnvelope(msg, result.Custodian, now)
		if err != nil {
			return err
		}
		if err := b.db.SetBlob(types.MessageBlobKey(msg.ID), envCbor, txn); err != nil {
			return fmt.Errorf("failed to archive message: %w", err)
		}
		ret = result
		evt := MessageProcessedEvent{
			MessageID:    msg.ID,
			PropertyID:   msg.PropertyID,
			Type:         msg.Type,
			Custodian:    result.Custodian,
			SharesMinted: result.SharesMinted,
			SharesBurned: result.SharesBurned,
		}
		txn.OnCommit(func() { b.messageProcessed(evt) })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// resolveCustodian returns the registered custodian for the message's
// foreign address, falling back to the custodian named in the message
func (b *Bridge) resolveCustodian(msg *Message, txn *database.Txn) (common.Address, error) {
	if msg.ForeignAddress != "" {
		mapping, err := b.db.GetCustodianMapping(msg.ForeignAddress, txn)
		if err != nil {
			return "", fmt.Errorf("failed to get custodian mapping: %w", err)
		}
		if mapping != nil {
			return mapping.Custodian, nil
		}
	}
	if !msg.Custodian.IsZero() {
		return common.NewAddress(msg.Custodian.String()), nil
	}
	return "", fmt.Errorf(
		"%w: no custodian for foreign address %q",
		common.ErrInvalidMessage,
		msg.ForeignAddress,
	)
}

// openProperty loads a property that accepts bridged value
func (b *Bridge) openProperty(propertyID string, txn *database.Txn) error {
	prop, err := b.db.GetProperty(propertyID, txn)
	if err != nil {
		return fmt.Errorf("failed to get property: %w", err)
	}
	if prop == nil {
		return fmt.Errorf("%w: property %q", common.ErrNotFound, propertyID)
	}
	if prop.Paused {
		return fmt.Errorf("%w: property %q is paused", common.ErrPaused, propertyID)
	}
	if prop.Stage != common.StageOpenToFund {
		return fmt.Errorf(
			"%w: bridged value is only accepted while OpenToFund, property is %s",
			common.ErrWrongStage,
			prop.Stage,
		)
	}
	return nil
}

// usdValue prices a foreign amount with a valid oracle reading
func (b *Bridge) usdValue(amount uint64, txn *database.Txn) (decimal.Decimal, error) {
	reading, err := b.prices.ReadPrice(b.config.PriceAsset, txn)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return decimal.Zero, fmt.Errorf(
				"%w: no price for %s",
				common.ErrStalePrice,
				b.config.PriceAsset,
			)
		}
		return decimal.Zero, err
	}
	if reading.EmergencyPaused {
		return decimal.Zero, fmt.Errorf(
			"%w: price feed for %s is paused",
			common.ErrPaused,
			b.config.PriceAsset,
		)
	}
	if !reading.IsValid {
		return decimal.Zero, fmt.Errorf(
			"%w: %s price last updated %s",
			common.ErrStalePrice,
			b.config.PriceAsset,
			reading.LastUpdated,
		)
	}
	return decimal.NewFromBigInt(
		new(big.Int).SetUint64(amount),
		-b.config.ForeignAssetDecimals,
	).Mul(reading.Price), nil
}

func (b *Bridge) deposit(msg *Message, txn *database.Txn) (*MessageResult, error) {
	if err := b.openProperty(msg.PropertyID, txn); err != nil {
		return nil, err
	}
	if msg.ForeignTxHash == "" {
		return nil, fmt.Errorf(
			"%w: deposits require a foreign transaction hash",
			common.ErrInvalidMessage,
		)
	}
	foreignTx, err := b.db.GetForeignTx(msg.ForeignTxHash, txn)
	if err != nil {
		return nil, fmt.Errorf("failed to get foreign tx: %w", err)
	}
	if foreignTx != nil {
		return nil, fmt.Errorf(
			"%w: foreign transaction %s already credited by message %q",
			common.ErrAlreadyProcessed,
			msg.ForeignTxHash,
			foreignTx.MessageID,
		)
	}
	custodian, err := b.resolveCustodian(msg, txn)
	if err != nil {
		return nil, err
	}
	usd, err := b.usdValue(msg.Amount, txn)
	if err != nil {
		return nil, err
	}
	assetsDec := usd.Shift(vault.AssetDecimals).Floor()
	if !assetsDec.IsPositive() || !assetsDec.BigInt().IsUint64() {
		return nil, fmt.Errorf(
			"%w: deposit value %s USD cannot be credited",
			common.ErrInvalidMessage,
			usd.String(),
		)
	}
	shares, err := b.vault.Deposit(
		msg.PropertyID,
		custodian,
		assetsDec.BigInt().Uint64(),
		txn,
	)
	if err != nil {
		if errors.Is(err, common.ErrInvalidParameter) {
			return nil, fmt.Errorf("%w: %w", common.ErrInvalidMessage, err)
		}
		return nil, err
	}
	deposit, err := b.db.GetDeposit(msg.PropertyID, custodian, txn)
	if err != nil {
		return nil, fmt.Errorf("failed to get deposit: %w", err)
	}
	if deposit == nil {
		deposit = &models.Deposit{
			PropertyID: msg.PropertyID,
			Custodian:  custodian,
		}
	}
	deposit.SbtcDeposited += types.Uint64(msg.Amount)
	deposit.UsdValueAtDeposit = deposit.UsdValueAtDeposit.Add(usd)
	deposit.SharesMinted += types.Uint64(shares)
	deposit.DepositTimestamp = b.config.Clock.Time()
	deposit.ForeignTxHash = msg.ForeignTxHash
	deposit.ForeignAddress = msg.ForeignAddress
	if err := b.db.SetDeposit(deposit, txn); err != nil {
		return nil, fmt.Errorf("failed to set deposit: %w", err)
	}
	if err := b.db.AddForeignTx(
		&models.ForeignTx{
			ForeignTxHash: msg.ForeignTxHash,
			MessageID:     msg.ID,
			PropertyID:    msg.PropertyID,
			CreatedAt:     b.config.Clock.Time(),
		},
		txn,
	); err != nil {
		return nil, fmt.Errorf("failed to add foreign tx: %w", err)
	}
	return &MessageResult{
		MessageID:    msg.ID,
		PropertyID:   msg.PropertyID,
		Type:         msg.Type,
		Custodian:    custodian,
		UsdValue:     usd,
		SharesMinted: shares,
	}, nil
}

func (b *Bridge) withdraw(msg *Message, txn *database.Txn) (*MessageResult, error) {
	if err := b.openProperty(msg.PropertyID, txn); err != nil {
		return nil, err
	}
	custodian, err := b.resolveCustodian(msg, txn)
	if err != nil {
		return nil, err
	}
	assets, err := b.vault.Redeem(msg.PropertyID, custodian, msg.Amount, txn)
	if err != nil {
		return nil, err
	}
	deposit, err := b.db.GetDeposit(msg.PropertyID, custodian, txn)
	if err != nil {
		return nil, fmt.Errorf("failed to get deposit: %w", err)
	}
	if deposit != nil {
		deposit.SbtcDeposited = 0
		deposit.UsdValueAtDeposit = decimal.Zero
		deposit.SharesMinted = 0
		if err := b.db.SetDeposit(deposit, txn); err != nil {
			return nil, fmt.Errorf("failed to set deposit: %w", err)
		}
	}
	return &MessageResult{
		MessageID:      msg.ID,
		PropertyID:     msg.PropertyID,
		Type:           msg.Type,
		Custodian:      custodian,
		UsdValue:       decimal.New(int64(assets), -vault.AssetDecimals), //nolint:gosec // bounded by NAV
		SharesBurned:   msg.Amount,
		AssetsReleased: assets,
	}, nil
}

func (b *Bridge) acknowledge(msg *Message, txn *database.Txn) (*MessageResult, error) {
	pending, err := b.db.GetPendingStageChange(msg.PropertyID, txn)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending stage change: %w", err)
	}
	if pending == nil || !pending.IsPending {
		return nil, fmt.Errorf(
			"%w: property %q",
			common.ErrNoPendingChange,
			msg.PropertyID,
		)
	}
	if pending.TargetStage != msg.AcknowledgedStage {
		return nil, fmt.Errorf(
			"%w: pending %s, acknowledged %s",
			common.ErrStageMismatch,
			pending.TargetStage,
			msg.AcknowledgedStage,
		)
	}
	now := b.config.Clock.Time()
	pending.IsPending = false
	pending.AcknowledgedAt = &now
	if err := b.db.SetPendingStageChange(pending, txn); err != nil {
		return nil, fmt.Errorf("failed to set pending stage change: %w", err)
	}
	evt := StageAcknowledgedEvent{
		PropertyID: msg.PropertyID,
		Stage:      msg.AcknowledgedStage,
		MessageID:  msg.ID,
	}
	txn.OnCommit(func() { b.stageAcknowledged(evt) })
	return &MessageResult{
		MessageID:         msg.ID,
		PropertyID:        msg.PropertyID,
		Type:              msg.Type,
		AcknowledgedStage: msg.AcknowledgedStage,
	}, nil
}
