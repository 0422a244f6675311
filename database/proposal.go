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

func (d *Database) GetProposal(
	propertyID string,
	proposalID uint64,
	txn *Txn,
) (*models.Proposal, error) {
	return readTxn(d, txn, func(txn *Txn) (*models.Proposal, error) {
		return d.metadata.GetProposal(propertyID, proposalID, txn.Metadata())
	})
}

func (d *Database) GetProposals(
	propertyID string,
	status *common.ProposalStatus,
	txn *Txn,
) ([]models.Proposal, error) {
	return readTxn(d, txn, func(txn *Txn) ([]models.Proposal, error) {
		return d.metadata.GetProposals(propertyID, status, txn.Metadata())
	})
}

func (d *Database) SetProposal(proposal *models.Proposal, txn *Txn) error {
	return d.writeTxn(txn, func(txn *Txn) error {
		return d.metadata.SetProposal(proposal, txn.Metadata())
	})
}

func (d *Database) GetVote(
	propertyID string,
	proposalID uint64,
	voter common.Address,
	txn *Txn,
) (*models.Vote, error) {
	return readTxn(d, txn, func(txn *Txn) (*models.Vote, error) {
		return d.metadata.GetVote(
			propertyID,
			proposalID,
			voter,
			txn.Metadata(),
		)
	})
}

func (d *Database) AddVote(vote *models.Vote, txn *Txn) error {
	return d.writeTxn(txn, func(txn *Txn) error {
		return d.metadata.AddVote(vote, txn.Metadata())
	})
}

func (d *Database) GetThreshold(
	propertyID string,
	name string,
	txn *Txn,
) (*models.Threshold, error) {
	return readTxn(d, txn, func(txn *Txn) (*models.Threshold, error) {
		return d.metadata.GetThreshold(propertyID, name, txn.Metadata())
	})
}

func (d *Database) GetThresholds(
	propertyID string,
	txn *Txn,
) ([]models.Threshold, error) {
	return readTxn(d, txn, func(txn *Txn) ([]models.Threshold, error) {
		return d.metadata.GetThresholds(propertyID, txn.Metadata())
	})
}

func (d *Database) SetThreshold(
	propertyID string,
	name string,
	value uint64,
	txn *Txn,
) error {
	return d.writeTxn(txn, func(txn *Txn) error {
		return d.metadata.SetThreshold(propertyID, name, value, txn.Metadata())
	})
}
