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

// Proposal is a governance action submitted for shareholder vote. ProposalID
// is the per-property sequence number and is never reused.
type Proposal struct {
	ID           uint                  `gorm:"primarykey"`
	PropertyID   string                `gorm:"uniqueIndex:idx_proposal_property_seq,priority:1;size:64;not null"`
	ProposalID   uint64                `gorm:"uniqueIndex:idx_proposal_property_seq,priority:2;not null"`
	Proposer     common.Address        `gorm:"size:64;not null"`
	ProposalType common.ProposalType   `gorm:"index;not null"`
	Description  string                `gorm:"size:1024"`
	Data         []byte                `gorm:"type:blob"`
	Deadline     time.Time             `gorm:"index;not null"`
	VotesFor     types.Uint64          `gorm:"not null"`
	VotesAgainst types.Uint64          `gorm:"not null"`
	Status       common.ProposalStatus `gorm:"index;not null"`
	Executed     bool
	CreatedAt    time.Time
	FinalizedAt  *time.Time
}

// TableName returns the table name
func (Proposal) TableName() string {
	return "proposal"
}

// Vote records a single voter's ballot on a proposal
type Vote struct {
	ID         uint           `gorm:"primarykey"`
	PropertyID string         `gorm:"uniqueIndex:idx_vote_property_proposal_voter,priority:1;size:64;not null"`
	ProposalID uint64         `gorm:"uniqueIndex:idx_vote_property_proposal_voter,priority:2;not null"`
	Voter      common.Address `gorm:"uniqueIndex:idx_vote_property_proposal_voter,priority:3;size:64;not null"`
	Support    bool
	Weight     types.Uint64 `gorm:"not null"`
	CreatedAt  time.Time
}

// TableName returns the table name
func (Vote) TableName() string {
	return "vote"
}

// Threshold is a named governance parameter for a property
type Threshold struct {
	ID         uint   `gorm:"primarykey"`
	PropertyID string `gorm:"uniqueIndex:idx_threshold_property_name,priority:1;size:64;not null"`
	Name       string `gorm:"uniqueIndex:idx_threshold_property_name,priority:2;size:64;not null"`
	Value      uint64 `gorm:"not null"`
	UpdatedAt  time.Time
}

// TableName returns the table name
func (Threshold) TableName() string {
	return "threshold"
}
