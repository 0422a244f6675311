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

package database

import (
	"github.com/blinklabs-io/deedbridge/common"
	"github.com/blinklabs-io/deedbridge/database/models"
)

func (d *Database) GetPriceState(
	asset string,
	txn *Txn,
) (*models.PriceState, error) {
	return readTxn(d, txn, func(txn *Txn) (*models.PriceState, error) {
		return d.metadata.GetPriceState(asset, txn.Metadata())
	})
}

func (d *Database) SetPriceState(state *models.PriceState, txn *Txn) error {
	return d.writeTxn(txn, func(txn *Txn) error {
		return d.metadata.SetPriceState(state, txn.Metadata())
	})
}

func (d *Database) GetShareBalance(
	propertyID string,
	holder common.Address,
	txn *Txn,
) (*models.ShareBalance, error) {
	return readTxn(d, txn, func(txn *Txn) (*models.ShareBalance, error) {
		return d.metadata.GetShareBalance(propertyID, holder, txn.Metadata())
	})
}

func (d *Database) SetShareBalance(
	balance *models.ShareBalance,
	txn *Txn,
) error {
	return d.writeTxn(txn, func(txn *Txn) error {
		return d.metadata.SetShareBalance(balance, txn.Metadata())
	})
}

func (d *Database) GetVaultState(
	propertyID string,
	txn *Txn,
) (*models.VaultState, error) {
	return readTxn(d, txn, func(txn *Txn) (*models.VaultState, error) {
		return d.metadata.GetVaultState(propertyID, txn.Metadata())
	})
}

func (d *Database) SetVaultState(state *models.VaultState, txn *Txn) error {
	return d.writeTxn(txn, func(txn *Txn) error {
		return d.metadata.SetVaultState(state, txn.Metadata())
	})
}
