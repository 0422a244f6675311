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

package vault_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/deedbridge/common"
	"github.com/blinklabs-io/deedbridge/database"
	"github.com/blinklabs-io/deedbridge/vault"
)

const testProperty = "prop-1"

func newTestVault(t *testing.T) (*vault.Vault, *database.Database) {
	t.Helper()
	db, err := database.New(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	v, err := vault.New(db, nil, nil)
	require.NoError(t, err)
	return v, db
}

func TestMintBurn(t *testing.T) {
	v, db := newTestVault(t)
	err := db.Transaction(true).Do(func(txn *database.Txn) error {
		if err := v.Mint(testProperty, "0xa", 100, txn); err != nil {
			return err
		}
		if err := v.Mint(testProperty, "0xb", 50, txn); err != nil {
			return err
		}
		return v.Burn(testProperty, "0xa", 30, txn)
	})
	require.NoError(t, err)

	balance, err := v.BalanceOf(testProperty, "0xa", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(70), balance)
	supply, err := v.TotalSupply(testProperty, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(120), supply)

	err = db.Transaction(true).Do(func(txn *database.Txn) error {
		return v.Burn(testProperty, "0xb", 51, txn)
	})
	require.ErrorIs(t, err, common.ErrInsufficientShares)
	err = db.Transaction(true).Do(func(txn *database.Txn) error {
		return v.Mint(testProperty, "0xb", 0, txn)
	})
	require.ErrorIs(t, err, common.ErrInvalidParameter)

	// Unknown holders and properties read as zero
	balance, err = v.BalanceOf("other", "0xa", nil)
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestConvertToShares(t *testing.T) {
	v, db := newTestVault(t)
	// Empty vault converts one-to-one
	shares, err := v.ConvertToShares(testProperty, 1_000_000, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), shares)

	err = db.Transaction(true).Do(func(txn *database.Txn) error {
		if err := v.Mint(testProperty, "0xa", 1000, txn); err != nil {
			return err
		}
		return v.SetNAV(testProperty, 2000, txn)
	})
	require.NoError(t, err)
	shares, err = v.ConvertToShares(testProperty, 500, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(250), shares)
	assets, err := v.ConvertToAssets(testProperty, 250, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), assets)

	// Intermediate products wider than 64 bits do not overflow
	err = db.Transaction(true).Do(func(txn *database.Txn) error {
		if err := v.Mint(testProperty, "0xa", math.MaxUint64/4, txn); err != nil {
			return err
		}
		return v.SetNAV(testProperty, math.MaxUint64/2, txn)
	})
	require.NoError(t, err)
	shares, err = v.ConvertToShares(testProperty, math.MaxUint64/2, nil)
	require.NoError(t, err)
	assert.Positive(t, shares)
}

func TestZeroNAVWithSupply(t *testing.T) {
	v, db := newTestVault(t)
	err := db.Transaction(true).Do(func(txn *database.Txn) error {
		return v.Mint(testProperty, "0xa", 1000, txn)
	})
	require.NoError(t, err)

	// Minted shares with nothing behind them must not be priced at par
	_, err = v.ConvertToShares(testProperty, 500, nil)
	require.ErrorIs(t, err, common.ErrInvalidParameter)
	err = db.Transaction(true).Do(func(txn *database.Txn) error {
		_, err := v.Deposit(testProperty, "0xb", 500, txn)
		return err
	})
	require.ErrorIs(t, err, common.ErrInvalidParameter)
	balance, err := v.BalanceOf(testProperty, "0xb", nil)
	require.NoError(t, err)
	assert.Zero(t, balance)
	assets, err := v.ConvertToAssets(testProperty, 100, nil)
	require.NoError(t, err)
	assert.Zero(t, assets)

	require.NoError(t, v.SetNAV(testProperty, 2000, nil))
	err = v.SetNAV(testProperty, 0, nil)
	require.ErrorIs(t, err, common.ErrInvalidParameter)
	nav, err := v.NAV(testProperty, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(2000), nav)

	// Once every share is gone NAV may be cleared
	err = db.Transaction(true).Do(func(txn *database.Txn) error {
		return v.Burn(testProperty, "0xa", 1000, txn)
	})
	require.NoError(t, err)
	require.NoError(t, v.SetNAV(testProperty, 0, nil))
}

func TestDepositRedeem(t *testing.T) {
	v, db := newTestVault(t)
	var minted uint64
	err := db.Transaction(true).Do(func(txn *database.Txn) error {
		var err error
		minted, err = v.Deposit(testProperty, "0xa", 5_000_000, txn)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000_000), minted)
	nav, err := v.NAV(testProperty, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000_000), nav)

	// NAV doubles, so the next deposit buys half as many shares
	require.NoError(t, v.SetNAV(testProperty, 10_000_000, nil))
	err = db.Transaction(true).Do(func(txn *database.Txn) error {
		var err error
		minted, err = v.Deposit(testProperty, "0xb", 2_000_000, txn)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), minted)

	var released uint64
	err = db.Transaction(true).Do(func(txn *database.Txn) error {
		var err error
		released, err = v.Redeem(testProperty, "0xb", 1_000_000, txn)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2_000_000), released)
	nav, err = v.NAV(testProperty, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000_000), nav)
	supply, err := v.TotalSupply(testProperty, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000_000), supply)
}
