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

// ProcessedMessage marks an inbound cross-chain message as consumed
type ProcessedMessage struct {
	ID             uint               `gorm:"primarykey"`
	MessageID      string             `gorm:"uniqueIndex;size:128;not null"`
	PropertyID     string             `gorm:"index;size:64;not null"`
	MessageType    common.MessageType `gorm:"not null"`
	Custodian      common.Address     `gorm:"size:64"`
	ForeignAddress string             `gorm:"size:128"`
	Amount         types.Uint64
	ForeignTxHash  string `gorm:"size:128"`
	ProcessedAt    time.Time
}

// TableName returns the table name
func (ProcessedMessage) TableName() string {
	return "processed_message"
}

// ForeignTx records a foreign transaction hash consumed by a deposit
type ForeignTx struct {
	ID            uint   `gorm:"primarykey"`
	ForeignTxHash string `gorm:"uniqueIndex;size:128;not null"`
	MessageID     string `gorm:"size:128;not null"`
	PropertyID    string `gorm:"size:64;not null"`
	CreatedAt     time.Time
}

// TableName returns the table name
func (ForeignTx) TableName() string {
	return "foreign_tx"
}

// CustodianMapping maps a secondary-ledger address to the custodian that
// receives minted value on its behalf
type CustodianMapping struct {
	ID             uint           `gorm:"primarykey"`
	ForeignAddress string         `gorm:"uniqueIndex;size:128;not null"`
	Custodian      common.Address `gorm:"index;size:64;not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName returns the table name
func (CustodianMapping) TableName() string {
	return "custodian_mapping"
}

// Deposit is the per-custodian bridged deposit ledger entry for a property
type Deposit struct {
	ID                uint           `gorm:"primarykey"`
	PropertyID        string         `gorm:"uniqueIndex:idx_deposit_property_custodian,priority:1;size:64;not null"`
	Custodian         common.Address `gorm:"uniqueIndex:idx_deposit_property_custodian,priority:2;size:64;not null"`
	SbtcDeposited     types.Uint64   `gorm:"not null"`
	UsdValueAtDeposit decimal.Decimal
	SharesMinted      types.Uint64 `gorm:"not null"`
	DepositTimestamp  time.Time
	ForeignTxHash     string `gorm:"size:128"`
	ForeignAddress    string `gorm:"size:128"`
}

// TableName returns the table name
func (Deposit) TableName() string {
	return "deposit"
}

// PendingStageChange is the announced but unacknowledged stage transition
// for a property. There is at most one row per property.
type PendingStageChange struct {
	ID             uint         `gorm:"primarykey"`
	PropertyID     string       `gorm:"uniqueIndex;size:64;not null"`
	IsPending      bool         `gorm:"index"`
	TargetStage    common.Stage `gorm:"not null"`
	InitiatedAt    time.Time
	RetryCount     uint
	LastRetryAt    *time.Time
	AcknowledgedAt *time.Time
}

// TableName returns the table name
func (PendingStageChange) TableName() string {
	return "pending_stage_change"
}
