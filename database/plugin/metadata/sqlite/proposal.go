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

// GetProposal returns a proposal by property and sequence number, or nil if
// it does not exist
func (d *MetadataStoreSqlite) GetProposal(
	propertyID string,
	proposalID uint64,
	txn *gorm.DB,
) (*models.Proposal, error) {
	ret := &models.Proposal{}
	db := d.resolveDB(txn)
	result := db.Where(
		"property_id = ? AND proposal_id = ?",
		propertyID,
		proposalID,
	).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetProposals returns the proposals for a property in creation order. When
// status is non-nil only proposals with that status are returned.
func (d *MetadataStoreSqlite) GetProposals(
	propertyID string,
	status *common.ProposalStatus,
	txn *gorm.DB,
) ([]models.Proposal, error) {
	var ret []models.Proposal
	db := d.resolveDB(txn)
	query := db.Where("property_id = ?", propertyID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	result := query.Order("proposal_id ASC").Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// SetProposal creates or updates a proposal record
func (d *MetadataStoreSqlite) SetProposal(
	proposal *models.Proposal,
	txn *gorm.DB,
) error {
	db := d.resolveDB(txn)
	if result := db.Save(proposal); result.Error != nil {
		return result.Error
	}
	return nil
}

// GetVote returns the ballot cast by voter on a proposal, or nil if the
// voter has not voted
func (d *MetadataStoreSqlite) GetVote(
	propertyID string,
	proposalID uint64,
	voter common.Address,
	txn *gorm.DB,
) (*models.Vote, error) {
	ret := &models.Vote{}
	db := d.resolveDB(txn)
	result := db.Where(
		"property_id = ? AND proposal_id = ? AND voter = ?",
		propertyID,
		proposalID,
		voter,
	).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// AddVote records a ballot. The unique index on (property, proposal, voter)
// rejects a second ballot from the same voter.
func (d *MetadataStoreSqlite) AddVote(
	vote *models.Vote,
	txn *gorm.DB,
) error {
	db := d.resolveDB(txn)
	if result := db.Create(vote); result.Error != nil {
		return result.Error
	}
	return nil
}

// GetThreshold returns a named threshold for a property, or nil if unset
func (d *MetadataStoreSqlite) GetThreshold(
	propertyID string,
	name string,
	txn *gorm.DB,
) (*models.Threshold, error) {
	ret := &models.Threshold{}
	db := d.resolveDB(txn)
	result := db.Where(
		"property_id = ? AND name = ?",
		propertyID,
		name,
	).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetThresholds returns every threshold set for a property, ordered by name
func (d *MetadataStoreSqlite) GetThresholds(
	propertyID string,
	txn *gorm.DB,
) ([]models.Threshold, error) {
	var ret []models.Threshold
	db := d.resolveDB(txn)
	result := db.Where("property_id = ?", propertyID).
		Order("name ASC").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// SetThreshold replaces the value of a named threshold
func (d *MetadataStoreSqlite) SetThreshold(
	propertyID string,
	name string,
	value uint64,
	txn *gorm.DB,
) error {
	tmpThreshold, err := d.GetThreshold(propertyID, name, txn)
	if err != nil {
		return err
	}
	if tmpThreshold == nil {
		tmpThreshold = &models.Threshold{
			PropertyID: propertyID,
			Name:       name,
		}
	}
	tmpThreshold.Value = value
	db := d.resolveDB(txn)
	if result := db.Save(tmpThreshold); result.Error != nil {
		return result.Error
	}
	return nil
}
