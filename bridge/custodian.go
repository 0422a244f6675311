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
	"fmt"
	"strings"
	"time"

	"github.com/blinklabs-io/deedbridge/common"
	"github.com/blinklabs-io/deedbridge/database"
	"github.com/blinklabs-io/deedbridge/database/models"
	"github.com/blinklabs-io/deedbridge/internal/telemetry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Deposit is a custodian's bridged deposit ledger entry for a property
type Deposit struct {
	PropertyID        string          `json:"propertyId"`
	Custodian         common.Address  `json:"custodian"`
	SbtcDeposited     uint64          `json:"sbtcDeposited"`
	UsdValueAtDeposit decimal.Decimal `json:"usdValueAtDeposit"`
	SharesMinted      uint64          `json:"sharesMinted"`
	DepositTimestamp  time.Time       `json:"depositTimestamp"`
	ForeignTxHash     string          `json:"foreignTxHash"`
	ForeignAddress    string          `json:"foreignAddress"`
}

// RegisterAddress maps a foreign address to the caller as its custodian.
// A foreign address can only be registered once.
func (b *Bridge) RegisterAddress(
	ctx context.Context,
	caller common.Address,
	foreignAddress string,
) (err error) {
	_, span := b.tracer.Start(
		ctx,
		"Bridge.RegisterAddress",
		trace.WithAttributes(attribute.String("foreign_address", foreignAddress)),
	)
	defer func() { telemetry.End(span, err) }()

	if caller.IsZero() {
		return fmt.Errorf("%w: custodian is required", common.ErrNotAuthorized)
	}
	foreignAddress = strings.TrimSpace(foreignAddress)
	if foreignAddress == "" {
		return fmt.Errorf(
			"%w: foreign address is required",
			common.ErrInvalidParameter,
		)
	}
	txn := b.db.Transaction(true)
	return txn.Do(func(txn *database.Txn) error {
		existing, err := b.db.GetCustodianMapping(foreignAddress, txn)
		if err != nil {
			return fmt.Errorf("failed to get custodian mapping: %w", err)
		}
		if existing != nil {
			return fmt.Errorf(
				"%w: foreign address %q",
				common.ErrAlreadyRegistered,
				foreignAddress,
			)
		}
		if err := b.db.SetCustodianMapping(
			&models.CustodianMapping{
				ForeignAddress: foreignAddress,
				Custodian:      caller,
			},
			txn,
		); err != nil {
			return fmt.Errorf("failed to set custodian mapping: %w", err)
		}
		evt := CustodianChangedEvent{
			ForeignAddresses: []string{foreignAddress},
			Custodian:        caller,
		}
		txn.OnCommit(func() { b.custodianChanged(evt) })
		return nil
	})
}

// UpdateCustodian repoints every foreign address registered to the caller
// at a new custodian. Deposits already credited are not moved.
func (b *Bridge) UpdateCustodian(
	ctx context.Context,
	caller common.Address,
	newCustodian common.Address,
) (err error) {
	_, span := b.tracer.Start(ctx, "Bridge.UpdateCustodian")
	defer func() { telemetry.End(span, err) }()

	if caller.IsZero() {
		return fmt.Errorf("%w: custodian is required", common.ErrNotAuthorized)
	}
	if newCustodian.IsZero() {
		return fmt.Errorf(
			"%w: new custodian is required",
			common.ErrInvalidParameter,
		)
	}
	txn := b.db.Transaction(true)
	return txn.Do(func(txn *database.Txn) error {
		mappings, err := b.db.GetCustodianMappingsByCustodian(caller, txn)
		if err != nil {
			return fmt.Errorf("failed to get custodian mappings: %w", err)
		}
		if len(mappings) == 0 {
			return fmt.Errorf(
				"%w: %s has no registered foreign address",
				common.ErrNotAuthorized,
				caller,
			)
		}
		addrs := make([]string, 0, len(mappings))
		for i := range mappings {
			mapping := &mappings[i]
			mapping.Custodian = newCustodian
			if err := b.db.SetCustodianMapping(mapping, txn); err != nil {
				return fmt.Errorf("failed to set custodian mapping: %w", err)
			}
			addrs = append(addrs, mapping.ForeignAddress)
		}
		evt := CustodianChangedEvent{
			ForeignAddresses: addrs,
			Custodian:        newCustodian,
			Previous:         caller,
		}
		txn.OnCommit(func() { b.custodianChanged(evt) })
		return nil
	})
}

// GetCustodian returns the custodian registered for a foreign address
func (b *Bridge) GetCustodian(
	ctx context.Context,
	foreignAddress string,
) (common.Address, error) {
	_, span := b.tracer.Start(ctx, "Bridge.GetCustodian")
	defer span.End()
	mapping, err := b.db.GetCustodianMapping(strings.TrimSpace(foreignAddress), nil)
	if err != nil {
		return "", fmt.Errorf("failed to get custodian mapping: %w", err)
	}
	if mapping == nil {
		return "", fmt.Errorf(
			"%w: foreign address %q",
			common.ErrNotFound,
			foreignAddress,
		)
	}
	return mapping.Custodian, nil
}

// GetDeposit returns a custodian's deposit ledger entry for a property
func (b *Bridge) GetDeposit(
	ctx context.Context,
	propertyID string,
	custodian common.Address,
) (*Deposit, error) {
	_, span := b.tracer.Start(ctx, "Bridge.GetDeposit")
	defer span.End()
	deposit, err := b.db.GetDeposit(propertyID, custodian, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get deposit: %w", err)
	}
	if deposit == nil {
		return nil, fmt.Errorf(
			"%w: no deposit by %s in %q",
			common.ErrNotFound,
			custodian,
			propertyID,
		)
	}
	return &Deposit{
		PropertyID:        deposit.PropertyID,
		Custodian:         deposit.Custodian,
		SbtcDeposited:     uint64(deposit.SbtcDeposited),
		UsdValueAtDeposit: deposit.UsdValueAtDeposit,
		SharesMinted:      uint64(deposit.SharesMinted),
		DepositTimestamp:  deposit.DepositTimestamp,
		ForeignTxHash:     deposit.ForeignTxHash,
		ForeignAddress:    deposit.ForeignAddress,
	}, nil
}
