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
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// metaKeyCommitTimestamp holds the last commit time shared with the blob
// store. Both stores must agree on it at startup.
const metaKeyCommitTimestamp = "commit_timestamp"

// StoreMeta is a keyed integer describing the store itself rather than
// ledger state
type StoreMeta struct {
	Name  string `gorm:"primaryKey;size:64"`
	Value int64
}

func (StoreMeta) TableName() string {
	return "store_meta"
}

func (d *MetadataStoreSqlite) getMeta(key string, txn *gorm.DB) (int64, error) {
	var tmpMeta StoreMeta
	result := d.resolveDB(txn).Where("name = ?", key).First(&tmpMeta)
	if result.Error != nil {
		// A missing key reads as zero
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read store meta %s: %w", key, result.Error)
	}
	return tmpMeta.Value, nil
}

func (d *MetadataStoreSqlite) setMeta(key string, value int64, txn *gorm.DB) error {
	result := d.resolveDB(txn).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&StoreMeta{Name: key, Value: value})
	if result.Error != nil {
		return fmt.Errorf("failed to write store meta %s: %w", key, result.Error)
	}
	return nil
}

// GetCommitTimestamp returns the last recorded commit time in unix
// milliseconds, or zero for a fresh store
func (d *MetadataStoreSqlite) GetCommitTimestamp() (int64, error) {
	return d.getMeta(metaKeyCommitTimestamp, nil)
}

func (d *MetadataStoreSqlite) SetCommitTimestamp(
	timestamp int64,
	txn *gorm.DB,
) error {
	return d.setMeta(metaKeyCommitTimestamp, timestamp, txn)
}
