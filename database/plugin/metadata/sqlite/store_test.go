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
	"testing"
	"time"

	"github.com/blinklabs-io/deedbridge/common"
	"github.com/blinklabs-io/deedbridge/database/models"
	"github.com/blinklabs-io/deedbridge/database/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *MetadataStoreSqlite {
	t.Helper()
	store, err := New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestInMemoryStoresAreIsolated(t *testing.T) {
	first := newTestStore(t)
	second := newTestStore(t)
	require.NoError(
		t,
		first.SetProperty(&models.Property{PropertyID: "prop-1"}, nil),
	)
	tmpProperty, err := second.GetProperty("prop-1", nil)
	require.NoError(t, err)
	assert.Nil(t, tmpProperty)
}

func TestCommitTimestamp(t *testing.T) {
	store := newTestStore(t)
	ts, err := store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Zero(t, ts)
	require.NoError(t, store.SetCommitTimestamp(100, nil))
	require.NoError(t, store.SetCommitTimestamp(200, nil))
	ts, err = store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(200), ts)
}

func TestPropertyRoundTrip(t *testing.T) {
	store := newTestStore(t)
	deadline := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	tmpProperty := &models.Property{
		PropertyID:      "prop-1",
		Stage:           common.StageOpenToFund,
		Manager:         common.NewAddress("0xManager"),
		FundingTarget:   types.Uint64(^uint64(0)),
		FundingDeadline: deadline,
	}
	txn := store.Transaction()
	require.NoError(t, store.SetProperty(tmpProperty, txn))
	tmpProperty.Stage = common.StageFunded
	tmpProperty.TotalInvested = 42
	require.NoError(t, store.SetProperty(tmpProperty, txn))
	require.NoError(t, txn.Commit().Error)

	got, err := store.GetProperty("prop-1", nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, common.StageFunded, got.Stage)
	assert.Equal(t, types.Uint64(42), got.TotalInvested)
	assert.Equal(t, types.Uint64(^uint64(0)), got.FundingTarget)
	assert.True(t, deadline.Equal(got.FundingDeadline))

	all, err := store.GetProperties(nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRollbackDiscardsWrites(t *testing.T) {
	store := newTestStore(t)
	txn := store.Transaction()
	require.NoError(
		t,
		store.SetProperty(&models.Property{PropertyID: "prop-1"}, txn),
	)
	require.NoError(t, txn.Rollback().Error)
	got, err := store.GetProperty("prop-1", nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestProposalsAndVotes(t *testing.T) {
	store := newTestStore(t)
	for i := uint64(1); i <= 3; i++ {
		tmpProposal := &models.Proposal{
			PropertyID:   "prop-1",
			ProposalID:   i,
			Proposer:     "0xabc",
			ProposalType: common.ProposalTypeThresholdUpdate,
			Data:         []byte{0x01},
			Deadline:     time.Now().Add(time.Hour),
		}
		if i == 2 {
			tmpProposal.Status = common.ProposalStatusExecuted
		}
		require.NoError(t, store.SetProposal(tmpProposal, nil))
	}
	// Sequence numbers are unique per property
	require.Error(
		t,
		store.SetProposal(
			&models.Proposal{PropertyID: "prop-1", ProposalID: 1},
			nil,
		),
	)

	active := common.ProposalStatusActive
	tmpProposals, err := store.GetProposals("prop-1", &active, nil)
	require.NoError(t, err)
	require.Len(t, tmpProposals, 2)
	assert.Equal(t, uint64(1), tmpProposals[0].ProposalID)
	assert.Equal(t, uint64(3), tmpProposals[1].ProposalID)

	tmpProposal, err := store.GetProposal("prop-1", 2, nil)
	require.NoError(t, err)
	require.NotNil(t, tmpProposal)
	assert.Equal(t, common.ProposalStatusExecuted, tmpProposal.Status)
	missing, err := store.GetProposal("prop-1", 9, nil)
	require.NoError(t, err)
	assert.Nil(t, missing)

	vote := &models.Vote{
		PropertyID: "prop-1",
		ProposalID: 1,
		Voter:      "0xabc",
		Support:    true,
		Weight:     10,
	}
	require.NoError(t, store.AddVote(vote, nil))
	require.Error(
		t,
		store.AddVote(
			&models.Vote{PropertyID: "prop-1", ProposalID: 1, Voter: "0xabc"},
			nil,
		),
	)
	got, err := store.GetVote("prop-1", 1, "0xabc", nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, types.Uint64(10), got.Weight)
}

func TestThresholds(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.SetThreshold("prop-1", "approvalQuorum", 25, nil))
	require.NoError(t, store.SetThreshold("prop-1", "approvalQuorum", 40, nil))
	require.NoError(
		t,
		store.SetThreshold("prop-1", "liquidationThreshold", 66, nil),
	)
	tmpThreshold, err := store.GetThreshold("prop-1", "approvalQuorum", nil)
	require.NoError(t, err)
	require.NotNil(t, tmpThreshold)
	assert.Equal(t, uint64(40), tmpThreshold.Value)
	all, err := store.GetThresholds("prop-1", nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "approvalQuorum", all[0].Name)
}

func TestBridgeRecords(t *testing.T) {
	store := newTestStore(t)
	require.NoError(
		t,
		store.AddProcessedMessage(
			&models.ProcessedMessage{MessageID: "m1", PropertyID: "prop-1"},
			nil,
		),
	)
	require.Error(
		t,
		store.AddProcessedMessage(
			&models.ProcessedMessage{MessageID: "m1", PropertyID: "prop-1"},
			nil,
		),
	)
	msg, err := store.GetProcessedMessage("m1", nil)
	require.NoError(t, err)
	assert.NotNil(t, msg)

	require.NoError(
		t,
		store.AddForeignTx(
			&models.ForeignTx{
				ForeignTxHash: "0xfeed",
				MessageID:     "m1",
				PropertyID:    "prop-1",
			},
			nil,
		),
	)
	foreignTx, err := store.GetForeignTx("0xfeed", nil)
	require.NoError(t, err)
	require.NotNil(t, foreignTx)
	assert.Equal(t, "m1", foreignTx.MessageID)

	require.NoError(
		t,
		store.SetCustodianMapping(
			&models.CustodianMapping{ForeignAddress: "SP1", Custodian: "0xa"},
			nil,
		),
	)
	require.NoError(
		t,
		store.SetCustodianMapping(
			&models.CustodianMapping{ForeignAddress: "SP2", Custodian: "0xa"},
			nil,
		),
	)
	mappings, err := store.GetCustodianMappingsByCustodian("0xa", nil)
	require.NoError(t, err)
	assert.Len(t, mappings, 2)

	deposit := &models.Deposit{
		PropertyID:        "prop-1",
		Custodian:         "0xa",
		SbtcDeposited:     100000000,
		UsdValueAtDeposit: decimal.RequireFromString("50000.25"),
		SharesMinted:      50000250000,
	}
	require.NoError(t, store.SetDeposit(deposit, nil))
	gotDeposit, err := store.GetDeposit("prop-1", "0xa", nil)
	require.NoError(t, err)
	require.NotNil(t, gotDeposit)
	assert.True(
		t,
		decimal.RequireFromString("50000.25").
			Equal(gotDeposit.UsdValueAtDeposit),
	)

	pending := &models.PendingStageChange{
		PropertyID:  "prop-1",
		IsPending:   true,
		TargetStage: common.StageFunded,
		InitiatedAt: time.Now(),
	}
	require.NoError(t, store.SetPendingStageChange(pending, nil))
	count, err := store.CountPendingStageChanges(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	pending.IsPending = false
	require.NoError(t, store.SetPendingStageChange(pending, nil))
	count, err = store.CountPendingStageChanges(nil)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPriceAndVault(t *testing.T) {
	store, err := New(WithPromRegistry(prometheus.NewRegistry()))
	require.NoError(t, err)
	defer store.Close()

	missing, err := store.GetPriceState("SBTC", nil)
	require.NoError(t, err)
	assert.Nil(t, missing)
	require.NoError(
		t,
		store.SetPriceState(
			&models.PriceState{
				Asset: "SBTC",
				Price: decimal.NewFromInt(50000),
			},
			nil,
		),
	)
	price, err := store.GetPriceState("SBTC", nil)
	require.NoError(t, err)
	require.NotNil(t, price)
	assert.True(t, decimal.NewFromInt(50000).Equal(price.Price))

	require.NoError(
		t,
		store.SetShareBalance(
			&models.ShareBalance{
				PropertyID: "prop-1",
				Holder:     "0xa",
				Balance:    7,
			},
			nil,
		),
	)
	balance, err := store.GetShareBalance("prop-1", "0xa", nil)
	require.NoError(t, err)
	require.NotNil(t, balance)
	assert.Equal(t, types.Uint64(7), balance.Balance)

	require.NoError(
		t,
		store.SetVaultState(
			&models.VaultState{PropertyID: "prop-1", TotalSupply: 7, NAV: 9},
			nil,
		),
	)
	vaultState, err := store.GetVaultState("prop-1", nil)
	require.NoError(t, err)
	require.NotNil(t, vaultState)
	assert.Equal(t, types.Uint64(9), vaultState.NAV)
}
