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

package sqlite

import (
	"errors"

	"github.com/blinklabs-io/deedbridge/common"
	"github.com/blinklabs-io/deedbridge/database/models"
	"gorm.io/gorm"
)

// GetProcessedMessage returns the processed record for a message ID, or nil
// if the message has not been processed
func (d *MetadataStoreSqlite) GetProcessedMessage(
	messageID string,
	txn *gorm.DB,
) (*models.ProcessedMessage, error) {
	ret := &models.ProcessedMessage{}
	db := d.resolveDB(txn)
	result := db.Where("message_id = ?", messageID).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// AddProcessedMessage marks a message as processed
func (d *MetadataStoreSqlite) AddProcessedMessage(
	msg *models.ProcessedMessage,
	txn *gorm.DB,
) error {
	db := d.resolveDB(txn)
	if result := db.Create(msg); result.Error != nil {
		return result.Error
	}
	return nil
}

// GetForeignTx returns the record for a consumed foreign transaction hash,
// or nil if the hash has not been consumed
func (d *MetadataStoreSqlite) GetForeignTx(
	foreignTxHash string,
	txn *gorm.DB,
) (*models.ForeignTx, error) {
	ret := &models.ForeignTx{}
	db := d.resolveDB(txn)
	result := db.Where("foreign_tx_hash = ?", foreignTxHash).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// AddForeignTx records a consumed foreign transaction hash
func (d *MetadataStoreSqlite) AddForeignTx(
	foreignTx *models.ForeignTx,
	txn *gorm.DB,
) error {
	db := d.resolveDB(txn)
	if result := db.Create(foreignTx); result.Error != nil {
		return result.Error
	}
	return nil
}

// GetCustodianMapping returns the custodian mapping for a foreign address,
// or nil if the address is not registered
func (d *MetadataStoreSqlite) GetCustodianMapping(
	foreignAddress string,
	txn *gorm.DB,
) (*models.CustodianMapping, error) {
	ret := &models.CustodianMapping{}
	db := d.resolveDB(txn)
	result := db.Where("foreign_address = ?", foreignAddress).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetCustodianMappingsByCustodian returns every mapping owned by a custodian
func (d *MetadataStoreSqlite) GetCustodianMappingsByCustodian(
	custodian common.Address,
	txn *gorm.DB,
) ([]models.CustodianMapping, error) {
	var ret []models.CustodianMapping
	db := d.resolveDB(txn)
	result := db.Where("custodian = ?", custodian).
		Order("id ASC").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// SetCustodianMapping creates or updates a custodian mapping
func (d *MetadataStoreSqlite) SetCustodianMapping(
	mapping *models.CustodianMapping,
	txn *gorm.DB,
) error {
	db := d.resolveDB(txn)
	if result := db.Save(mapping); result.Error != nil {
		return result.Error
	}
	return nil
}

// GetDeposit returns the bridged deposit entry for a custodian on a
// property, or nil if there is none
func (d *MetadataStoreSqlite) GetDeposit(
	propertyID string,
	custodian common.Address,
	txn *gorm.DB,
) (*models.Deposit, error) {
	ret := &models.Deposit{}
	db := d.resolveDB(txn)
	result := db.Where(
		"property_id = ? AND custodian = ?",
		propertyID,
		custodian,
	).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// SetDeposit creates or updates a bridged deposit entry
func (d *MetadataStoreSqlite) SetDeposit(
	deposit *models.Deposit,
	txn *gorm.DB,
) error {
	db := d.resolveDB(txn)
	if result := db.Save(deposit); result.Error != nil {
		return result.Error
	}
	return nil
}

// GetPendingStageChange returns the stage change record for a property, or
// nil if no stage change was ever announced for it
func (d *MetadataStoreSqlite) GetPendingStageChange(
	propertyID string,
	txn *gorm.DB,
) (*models.PendingStageChange, error) {
	ret := &models.PendingStageChange{}
	db := d.resolveDB(txn)
	result := db.Where("property_id = ?", propertyID).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// SetPendingStageChange creates or updates a property's stage change record
func (d *MetadataStoreSqlite) SetPendingStageChange(
	pending *models.PendingStageChange,
	txn *gorm.DB,
) error {
	db := d.resolveDB(txn)
	if result := db.Save(pending); result.Error != nil {
		return result.Error
	}
	return nil
}

// CountPendingStageChanges returns the number of unacknowledged stage changes
func (d *MetadataStoreSqlite) CountPendingStageChanges(
	txn *gorm.DB,
) (int64, error) {
	var count int64
	db := d.resolveDB(txn)
	result := db.Model(&models.PendingStageChange{}).
		Where("is_pending = ?", true).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}
