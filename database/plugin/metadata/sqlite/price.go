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

// GetPriceState returns the stored price state for an asset, or nil if no
// price was ever accepted for it
func (d *MetadataStoreSqlite) GetPriceState(
	asset string,
	txn *gorm.DB,
) (*models.PriceState, error) {
	ret := &models.PriceState{}
	db := d.resolveDB(txn)
	result := db.Where("asset = ?", asset).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// SetPriceState creates or updates an asset's price state
func (d *MetadataStoreSqlite) SetPriceState(
	state *models.PriceState,
	txn *gorm.DB,
) error {
	db := d.resolveDB(txn)
	if result := db.Save(state); result.Error != nil {
		return result.Error
	}
	return nil
}

// GetShareBalance returns a holder's share balance record for a property,
// or nil if the holder has never held shares
func (d *MetadataStoreSqlite) GetShareBalance(
	propertyID string,
	holder common.Address,
	txn *gorm.DB,
) (*models.ShareBalance, error) {
	ret := &models.ShareBalance{}
	db := d.resolveDB(txn)
	result := db.Where(
		"property_id = ? AND holder = ?",
		propertyID,
		holder,
	).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// SetShareBalance creates or updates a holder's share balance record
func (d *MetadataStoreSqlite) SetShareBalance(
	balance *models.ShareBalance,
	txn *gorm.DB,
) error {
	db := d.resolveDB(txn)
	if result := db.Save(balance); result.Error != nil {
		return result.Error
	}
	return nil
}

// GetVaultState returns the vault aggregate for a property, or nil if no
// shares were ever issued and no NAV was ever set
func (d *MetadataStoreSqlite) GetVaultState(
	propertyID string,
	txn *gorm.DB,
) (*models.VaultState, error) {
	ret := &models.VaultState{}
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

// SetVaultState creates or updates a property's vault aggregate
func (d *MetadataStoreSqlite) SetVaultState(
	state *models.VaultState,
	txn *gorm.DB,
) error {
	db := d.resolveDB(txn)
	if result := db.Save(state); result.Error != nil {
		return result.Error
	}
	return nil
}
