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

// Package vault is the per-property share ledger. Asset amounts are USD
// micro-units and shares are the voting power used by governance.
package vault

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/blinklabs-io/deedbridge/clock"
	"github.com/blinklabs-io/deedbridge/common"
	"github.com/blinklabs-io/deedbridge/database"
	"github.com/blinklabs-io/deedbridge/database/models"
	"github.com/blinklabs-io/deedbridge/database/types"
	"github.com/holiman/uint256"
)

// AssetDecimals is the number of decimal places of one asset unit
const AssetDecimals = 6

type Vault struct {
	db     *database.Database
	logger *slog.Logger
	clock  *clock.Clock
}

func New(
	db *database.Database,
	logger *slog.Logger,
	clk *clock.Clock,
) (*Vault, error) {
	if db == nil {
		return nil, errors.New("vault: database is required")
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Vault{db: db, logger: logger, clock: clk}, nil
}

func (v *Vault) state(
	propertyID string,
	txn *database.Txn,
) (*models.VaultState, error) {
	state, err := v.db.GetVaultState(propertyID, txn)
	if err != nil {
		return nil, fmt.Errorf("failed to get vault state: %w", err)
	}
	if state == nil {
		state = &models.VaultState{PropertyID: propertyID}
	}
	return state, nil
}

func (v *Vault) setState(state *models.VaultState, txn *database.Txn) error {
	state.UpdatedAt = v.clock.Time()
	if err := v.db.SetVaultState(state, txn); err != nil {
		return fmt.Errorf("failed to set vault state: %w", err)
	}
	return nil
}

func (v *Vault) balance(
	propertyID string,
	holder common.Address,
	txn *database.Txn,
) (*models.ShareBalance, error) {
	balance, err := v.db.GetShareBalance(propertyID, holder, txn)
	if err != nil {
		return nil, fmt.Errorf("failed to get share balance: %w", err)
	}
	if balance == nil {
		balance = &models.ShareBalance{PropertyID: propertyID, Holder: holder}
	}
	return balance, nil
}

// BalanceOf returns a holder's share balance
func (v *Vault) BalanceOf(
	propertyID string,
	holder common.Address,
	txn *database.Txn,
) (uint64, error) {
	balance, err := v.balance(propertyID, holder, txn)
	if err != nil {
		return 0, err
	}
	return uint64(balance.Balance), nil
}

// TotalSupply returns the number of shares issued for a property
func (v *Vault) TotalSupply(
	propertyID string,
	txn *database.Txn,
) (uint64, error) {
	state, err := v.state(propertyID, txn)
	if err != nil {
		return 0, err
	}
	return uint64(state.TotalSupply), nil
}

// NAV returns the net asset value backing a property's shares
func (v *Vault) NAV(propertyID string, txn *database.Txn) (uint64, error) {
	state, err := v.state(propertyID, txn)
	if err != nil {
		return 0, err
	}
	return uint64(state.NAV), nil
}

// SetNAV replaces the net asset value of a property. NAV may only be zero
// while no shares are outstanding.
func (v *Vault) SetNAV(
	propertyID string,
	nav uint64,
	txn *database.Txn,
) error {
	state, err := v.state(propertyID, txn)
	if err != nil {
		return err
	}
	if nav == 0 && state.TotalSupply > 0 {
		return fmt.Errorf(
			"%w: NAV cannot be zero with %d shares outstanding",
			common.ErrInvalidParameter,
			uint64(state.TotalSupply),
		)
	}
	state.NAV = types.Uint64(nav)
	return v.setState(state, txn)
}

// ConvertToShares returns the shares worth the given assets at the current
// NAV. An empty vault issues shares one-to-one with assets. Outstanding
// shares with no NAV behind them cannot be priced.
func (v *Vault) ConvertToShares(
	propertyID string,
	assets uint64,
	txn *database.Txn,
) (uint64, error) {
	state, err := v.state(propertyID, txn)
	if err != nil {
		return 0, err
	}
	if state.TotalSupply == 0 {
		return assets, nil
	}
	if state.NAV == 0 {
		return 0, fmt.Errorf(
			"%w: %d shares outstanding with zero NAV",
			common.ErrInvalidParameter,
			uint64(state.TotalSupply),
		)
	}
	return mulDiv(assets, uint64(state.TotalSupply), uint64(state.NAV), 0)
}

// ConvertToAssets returns the assets the given shares are worth at the
// current NAV
func (v *Vault) ConvertToAssets(
	propertyID string,
	shares uint64,
	txn *database.Txn,
) (uint64, error) {
	state, err := v.state(propertyID, txn)
	if err != nil {
		return 0, err
	}
	return mulDiv(shares, uint64(state.NAV), uint64(state.TotalSupply), 0)
}

// mulDiv returns x*y/z rounded down, or empty when either y or z is zero
func mulDiv(x, y, z, empty uint64) (uint64, error) {
	if y == 0 || z == 0 {
		return empty, nil
	}
	result := new(uint256.Int).Mul(
		uint256.NewInt(x),
		uint256.NewInt(y),
	)
	result.Div(result, uint256.NewInt(z))
	if !result.IsUint64() {
		return 0, fmt.Errorf(
			"%w: share conversion overflows",
			common.ErrInvalidParameter,
		)
	}
	return result.Uint64(), nil
}

// Mint issues new shares to a holder
func (v *Vault) Mint(
	propertyID string,
	to common.Address,
	shares uint64,
	txn *database.Txn,
) error {
	if shares == 0 {
		return fmt.Errorf("%w: cannot mint zero shares", common.ErrInvalidParameter)
	}
	if to.IsZero() {
		return fmt.Errorf("%w: cannot mint to empty address", common.ErrInvalidParameter)
	}
	state, err := v.state(propertyID, txn)
	if err != nil {
		return err
	}
	balance, err := v.balance(propertyID, to, txn)
	if err != nil {
		return err
	}
	newSupply, ok := state.TotalSupply.Add(shares)
	if !ok {
		return fmt.Errorf("%w: share supply overflows", common.ErrInvalidParameter)
	}
	state.TotalSupply = newSupply
	// A holder balance never exceeds the total supply
	balance.Balance += types.Uint64(shares)
	if err := v.db.SetShareBalance(balance, txn); err != nil {
		return fmt.Errorf("failed to set share balance: %w", err)
	}
	return v.setState(state, txn)
}

// Burn destroys shares held by a holder
func (v *Vault) Burn(
	propertyID string,
	from common.Address,
	shares uint64,
	txn *database.Txn,
) error {
	if shares == 0 {
		return fmt.Errorf("%w: cannot burn zero shares", common.ErrInvalidParameter)
	}
	state, err := v.state(propertyID, txn)
	if err != nil {
		return err
	}
	balance, err := v.balance(propertyID, from, txn)
	if err != nil {
		return err
	}
	if uint64(balance.Balance) < shares {
		return fmt.Errorf(
			"%w: %s holds %d shares, cannot burn %d",
			common.ErrInsufficientShares,
			from,
			balance.Balance,
			shares,
		)
	}
	balance.Balance -= types.Uint64(shares)
	state.TotalSupply -= types.Uint64(shares)
	if err := v.db.SetShareBalance(balance, txn); err != nil {
		return fmt.Errorf("failed to set share balance: %w", err)
	}
	return v.setState(state, txn)
}

// Deposit converts assets to shares at the current NAV, mints them to the
// holder and adds the assets to the NAV. It returns the shares minted.
func (v *Vault) Deposit(
	propertyID string,
	to common.Address,
	assets uint64,
	txn *database.Txn,
) (uint64, error) {
	shares, err := v.ConvertToShares(propertyID, assets, txn)
	if err != nil {
		return 0, err
	}
	if shares == 0 {
		return 0, fmt.Errorf(
			"%w: deposit of %d assets is worth no shares",
			common.ErrInvalidParameter,
			assets,
		)
	}
	if err := v.Mint(propertyID, to, shares, txn); err != nil {
		return 0, err
	}
	state, err := v.state(propertyID, txn)
	if err != nil {
		return 0, err
	}
	newNAV, ok := state.NAV.Add(assets)
	if !ok {
		return 0, fmt.Errorf("%w: NAV overflows", common.ErrInvalidParameter)
	}
	state.NAV = newNAV
	if err := v.setState(state, txn); err != nil {
		return 0, err
	}
	v.logger.Debug(
		"vault deposit",
		"component", "vault",
		"property_id", propertyID,
		"holder", to.String(),
		"assets", assets,
		"shares", shares,
	)
	return shares, nil
}

// Redeem burns shares from the holder and removes the assets they are worth
// from the NAV. It returns the assets released.
func (v *Vault) Redeem(
	propertyID string,
	from common.Address,
	shares uint64,
	txn *database.Txn,
) (uint64, error) {
	assets, err := v.ConvertToAssets(propertyID, shares, txn)
	if err != nil {
		return 0, err
	}
	if err := v.Burn(propertyID, from, shares, txn); err != nil {
		return 0, err
	}
	state, err := v.state(propertyID, txn)
	if err != nil {
		return 0, err
	}
	// Rounding down keeps assets within the NAV
	state.NAV -= types.Uint64(min(assets, uint64(state.NAV)))
	if err := v.setState(state, txn); err != nil {
		return 0, err
	}
	v.logger.Debug(
		"vault redeem",
		"component", "vault",
		"property_id", propertyID,
		"holder", from.String(),
		"assets", assets,
		"shares", shares,
	)
	return assets, nil
}
