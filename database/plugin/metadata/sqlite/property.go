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

	"github.com/blinklabs-io/deedbridge/database/models"
	"gorm.io/gorm"
)

// GetProperty returns the property with the given ID, or nil if it does not exist
func (d *MetadataStoreSqlite) GetProperty(
	propertyID string,
	txn *gorm.DB,
) (*models.Property, error) {
	ret := &models.Property{}
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

// GetProperties returns all properties ordered by registration
func (d *MetadataStoreSqlite) GetProperties(
	txn *gorm.DB,
) ([]models.Property, error) {
	var ret []models.Property
	db := d.resolveDB(txn)
	result := db.Order("id ASC").Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// SetProperty creates or updates a property record
func (d *MetadataStoreSqlite) SetProperty(
	property *models.Property,
	txn *gorm.DB,
) error {
	db := d.resolveDB(txn)
	if result := db.Save(property); result.Error != nil {
		return result.Error
	}
	return nil
}
