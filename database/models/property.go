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
)

// Property is one managed real-estate asset and its lifecycle state
type Property struct {
	ID                  uint           `gorm:"primarykey"`
	PropertyID          string         `gorm:"uniqueIndex;size:64;not null"`
	Stage               common.Stage   `gorm:"index;not null"`
	Manager             common.Address `gorm:"size:64"`
	FundingTarget       types.Uint64   `gorm:"not null"`
	FundingDeadline     time.Time
	TotalInvested       types.Uint64 `gorm:"not null"`
	IsFullyFunded       bool
	Reverted            bool
	Paused              bool
	SalePrice           types.Uint64
	Buyer               string
	PurchasePrice       types.Uint64
	LiquidationProceeds types.Uint64
	// Last proposal sequence number issued for this property
	ProposalSeq uint64 `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName returns the table name
func (Property) TableName() string {
	return "property"
}
