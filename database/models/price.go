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

package models

import (
	"time"

	"github.com/blinklabs-io/deedbridge/common"
	"github.com/blinklabs-io/deedbridge/database/types"
	"github.com/shopspring/decimal"
)

// PriceState is the last accepted oracle price for an asset
type PriceState struct {
	ID              uint   `gorm:"primarykey"`
	Asset           string `gorm:"uniqueIndex;size:32;not null"`
	Price           decimal.Decimal
	LastUpdated     time.Time
	EmergencyPaused bool
	PausedAt        *time.Time
}

// TableName returns the table name
func (PriceState) TableName() string {
	return "price_state"
}

// ShareBalance is a holder's vault share balance for a property
type ShareBalance struct {
	ID         uint           `gorm:"primarykey"`
	PropertyID string         `gorm:"uniqueIndex:idx_share_property_holder,priority:1;size:64;not null"`
	Holder     common.Address `gorm:"uniqueIndex:idx_share_property_holder,priority:2;size:64;not null"`
	Balance    types.Uint64   `gorm:"not null"`
}

// TableName returns the table name
func (ShareBalance) TableName() string {
	return "share_balance"
}

// VaultState holds the aggregate share supply and net asset value of a
// property's vault
type VaultState struct {
	ID          uint         `gorm:"primarykey"`
	PropertyID  string       `gorm:"uniqueIndex;size:64;not null"`
	TotalSupply types.Uint64 `gorm:"not null"`
	NAV         types.Uint64 `gorm:"not null"`
	UpdatedAt   time.Time
}

// TableName returns the table name
func (VaultState) TableName() string {
	return "vault_state"
}
