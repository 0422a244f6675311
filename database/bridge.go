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

func (d *Database) GetProcessedMessage(
	messageID string,
	txn *Txn,
) (*models.ProcessedMessage, error) {
	return readTxn(d, txn, func(txn *Txn) (*models.ProcessedMessage, error) {
		return d.metadata.GetProcessedMessage(messageID, txn.Metadata())
	})
}

func (d *Database) AddProcessedMessage(
	msg *models.ProcessedMessage,
	txn *Txn,
) error {
	return d.writeTxn(txn, func(txn *Txn) error {
		return d.metadata.AddProcessedMessage(msg, txn.Metadata())
	})
}

func (d *Database) GetForeignTx(
	foreignTxHash string,
	txn *Txn,
) (*models.ForeignTx, error) {
	return readTxn(d, txn, func(txn *Txn) (*models.ForeignTx, error) {
		return d.metadata.GetForeignTx(foreignTxHash, txn.Metadata())
	})
}

func (d *Database) AddForeignTx(foreignTx *models.ForeignTx, txn *Txn) error {
	return d.writeTxn(txn, func(txn *Txn) error {
		return d.metadata.AddForeignTx(foreignTx, txn.Metadata())
	})
}

func (d *Database) GetCustodianMapping(
	foreignAddress string,
	txn *Txn,
) (*models.CustodianMapping, error) {
	return readTxn(d, txn, func(txn *Txn) (*models.CustodianMapping, error) {
		return d.metadata.GetCustodianMapping(foreignAddress, txn.Metadata())
	})
}

func (d *Database) GetCustodianMappingsByCustodian(
	custodian common.Address,
	txn *Txn,
) ([]models.CustodianMapping, error) {
	return readTxn(d, txn, func(txn *Txn) ([]models.CustodianMapping, error) {
		return d.metadata.GetCustodianMappingsByCustodian(
			custodian,
			txn.Metadata(),
		)
	})
}

func (d *Database) SetCustodianMapping(
	mapping *models.CustodianMapping,
	txn *Txn,
) error {
	return d.writeTxn(txn, func(txn *Txn) error {
		return d.metadata.SetCustodianMapping(mapping, txn.Metadata())
	})
}

func (d *Database) GetDeposit(
	propertyID string,
	custodian common.Address,
	txn *Txn,
) (*models.Deposit, error) {
	return readTxn(d, txn, func(txn *Txn) (*models.Deposit, error) {
		return d.metadata.GetDeposit(propertyID, custodian, txn.Metadata())
	})
}

func (d *Database) SetDeposit(deposit *models.Deposit, txn *Txn) error {
	return d.writeTxn(txn, func(txn *Txn) error {
		return d.metadata.SetDeposit(deposit, txn.Metadata())
	})
}

func (d *Database) GetPendingStageChange(
	propertyID string,
	txn *Txn,
) (*models.PendingStageChange, error) {
	return readTxn(d, txn, func(txn *Txn) (*models.PendingStageChange, error) {
		return d.metadata.GetPendingStageChange(propertyID, txn.Metadata())
	})
}

func (d *Database) SetPendingStageChange(
	pending *models.PendingStageChange,
	txn *Txn,
) error {
	return d.writeTxn(txn, func(txn *Txn) error {
		return d.metadata.SetPendingStageChange(pending, txn.Metadata())
	})
}

func (d *Database) CountPendingStageChanges(txn *Txn) (int64, error) {
	return readTxn(d, txn, func(txn *Txn) (int64, error) {
		return d.metadata.CountPendingStageChanges(txn.Metadata())
	})
}
