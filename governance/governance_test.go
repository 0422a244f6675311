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

package governance_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/deedbridge/clock"
	"github.com/blinklabs-io/deedbridge/common"
	"github.com/blinklabs-io/deedbridge/database"
	"github.com/blinklabs-io/deedbridge/event"
	"github.com/blinklabs-io/deedbridge/governance"
	"github.com/blinklabs-io/deedbridge/vault"
)

const (
	testPlatform common.Address = "0xplatform"
	testManager  common.Address = "0xmanager"
	testHolderA  common.Address = "0xa"
	testHolderB  common.Address = "0xb"
	testProperty                = "prop-1"
	testTarget                  = 100000
)

type stageCall struct {
	propertyID string
	stage      common.Stage
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []stageCall
	fail  error
}

func (f *fakeNotifier) NotifyStageChange(
	propertyID string,
	newStage common.Stage,
	_ *database.Txn,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.calls = append(f.calls, stageCall{propertyID, newStage})
	return nil
}

func (f *fakeNotifier) Calls() []stageCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]stageCall(nil), f.calls...)
}

type testDAO struct {
	*governance.DAO
	db       *database.Database
	vault    *vault.Vault
	clock    *clock.Clock
	notifier *fakeNotifier
	eventBus *event.EventBus
}

func newTestDAO(t *testing.T) *testDAO {
	t.Helper()
	db, err := database.New(nil)
	require.NoError(t, err)
	eventBus := event.NewEventBus(nil, nil)
	t.Cleanup(func() {
		eventBus.Stop()
		_ = db.Close()
	})
	testClock := clock.NewFixed(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	v, err := vault.New(db, nil, testClock)
	require.NoError(t, err)
	notifier := &fakeNotifier{}
	dao, err := governance.New(
		governance.Config{
			Clock:        testClock,
			EventBus:     eventBus,
			Platform:     testPlatform,
			PromRegistry: prometheus.NewRegistry(),
		},
		db,
		v,
		notifier,
	)
	require.NoError(t, err)
	return &testDAO{
		DAO:      dao,
		db:       db,
		vault:    v,
		clock:    testClock,
		notifier: notifier,
		eventBus: eventBus,
	}
}

func (d *testDAO) register(t *testing.T) {
	t.Helper()
	_, err := d.RegisterProperty(
		context.Background(),
		testPlatform,
		governance.PropertyParams{
			ID:              testProperty,
			Manager:         testManager,
			FundingTarget:   testTarget,
			FundingDeadline: d.clock.Time().Add(30 * 24 * time.Hour),
		},
	)
	require.NoError(t, err)
}

func (d *testDAO) mint(t *testing.T, holder common.Address, shares uint64) {
	t.Helper()
	err := d.db.Transaction(true).Do(func(txn *database.Txn) error {
		return d.vault.Mint(testProperty, holder, shares, txn)
	})
	require.NoError(t, err)
}

// pass votes a proposal through with every share in favor and executes it
func (d *testDAO) pass(t *testing.T, proposalID uint64) *governance.ExecutionResult {
	t.Helper()
	ctx := context.Background()
	_, err := d.Vote(ctx, testHolderA, testProperty, proposalID, true)
	require.NoError(t, err)
	_, err = d.Vote(ctx, testHolderB, testProperty, proposalID, true)
	require.NoError(t, err)
	d.clock.Advance(governance.DefaultVotingPeriod)
	result, err := d.ExecuteProposal(ctx, testPlatform, testProperty, proposalID)
	require.NoError(t, err)
	return result
}

// managed returns a DAO with a property that completed its purchase and is
// UnderManagement, with 60 shares held by A and 40 by B
func managed(t *testing.T) *testDAO {
	t.Helper()
	d := newTestDAO(t)
	d.register(t)
	d.mint(t, testHolderA, 60)
	d.mint(t, testHolderB, 40)
	result, err := d.UpdateTotalInvested(
		context.Background(),
		testPlatform,
		testProperty,
		testTarget,
	)
	require.NoError(t, err)
	exec := d.pass(t, result.ProposalID)
	require.Equal(t, common.ProposalStatusExecuted, exec.Status)
	return d
}

func (d *testDAO) propose(
	t *testing.T,
	caller common.Address,
	proposalType common.ProposalType,
	payload any,
) (*governance.Proposal, error) {
	t.Helper()
	var data []byte
	if payload != nil {
		var err error
		data, err = governance.EncodePayload(payload)
		require.NoError(t, err)
	}
	return d.CreateProposal(
		context.Background(),
		caller,
		testProperty,
		proposalType,
		"test proposal",
		data,
	)
}

func TestRegisterProperty(t *testing.T) {
	d := newTestDAO(t)
	ctx := context.Background()
	params := governance.PropertyParams{
		ID:              testProperty,
		Manager:         testManager,
		FundingTarget:   testTarget,
		FundingDeadline: d.clock.Time().Add(time.Hour),
	}
	_, err := d.RegisterProperty(ctx, testHolderA, params)
	require.ErrorIs(t, err, common.ErrNotAuthorized)

	prop, err := d.RegisterProperty(ctx, testPlatform, params)
	require.NoError(t, err)
	assert.Equal(t, common.StageOpenToFund, prop.Stage)
	_, err = d.RegisterProperty(ctx, testPlatform, params)
	require.ErrorIs(t, err, common.ErrAlreadyRegistered)

	thresholds, err := d.Thresholds().All(ctx, testProperty)
	require.NoError(t, err)
	assert.Equal(
		t,
		map[string]uint64{
			governance.ThresholdLiquidation:    66,
			governance.ThresholdApprovalQuorum: 25,
		},
		thresholds,
	)
	// Registration is not a transition
	assert.Empty(t, d.notifier.Calls())

	params.ID = "prop-2"
	params.FundingDeadline = d.clock.Time()
	_, err = d.RegisterProperty(ctx, testPlatform, params)
	require.ErrorIs(t, err, common.ErrInvalidParameter)

	_, err = d.GetProperty(ctx, "missing")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestFundingCompletesAtomically(t *testing.T) {
	d := newTestDAO(t)
	d.register(t)
	ctx := context.Background()
	_, stageCh := d.eventBus.Subscribe(governance.StageChangedEventType)

	first, err := d.UpdateTotalInvested(ctx, testPlatform, testProperty, 60000)
	require.NoError(t, err)
	assert.Equal(
		t,
		&governance.FundingResult{
			TotalInvested: 60000,
			NewStage:      common.StageOpenToFund,
		},
		first,
	)

	second, err := d.UpdateTotalInvested(ctx, testPlatform, testProperty, 40000)
	require.NoError(t, err)
	assert.Equal(t, uint64(testTarget), second.TotalInvested)
	assert.True(t, second.IsFullyFunded)
	assert.True(t, second.StageChanged)
	assert.Equal(t, common.StageFunded, second.NewStage)
	assert.Equal(t, uint64(1), second.ProposalID)

	proposal, err := d.GetProposal(ctx, testProperty, second.ProposalID)
	require.NoError(t, err)
	assert.Equal(t, common.ProposalTypePropertyPurchase, proposal.Type)
	assert.Equal(t, common.ProposalStatusActive, proposal.Status)
	assert.Equal(t, testPlatform, proposal.Proposer)
	payload, err := governance.DecodePayload(proposal.Type, proposal.Data)
	require.NoError(t, err)
	assert.Equal(t, uint64(testTarget), payload.(*governance.PurchaseTerms).PurchasePrice)

	assert.Equal(
		t,
		[]stageCall{{testProperty, common.StageFunded}},
		d.notifier.Calls(),
	)
	select {
	case evt := <-stageCh:
		data := evt.Data.(governance.StageChangedEvent)
		assert.Equal(t, common.StageOpenToFund, data.From)
		assert.Equal(t, common.StageFunded, data.To)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for stage change event")
	}

	_, err = d.UpdateTotalInvested(ctx, testPlatform, testProperty, 1)
	require.ErrorIs(t, err, common.ErrWrongStage)
	_, err = d.UpdateTotalInvested(ctx, testHolderA, testProperty, 1)
	require.ErrorIs(t, err, common.ErrNotAuthorized)
}

func TestNotifierFailureRollsBack(t *testing.T) {
	d := newTestDAO(t)
	d.register(t)
	ctx := context.Background()
	d.notifier.fail = errors.New("bridge unavailable")
	_, err := d.UpdateTotalInvested(ctx, testPlatform, testProperty, testTarget)
	require.Error(t, err)

	prop, err := d.GetProperty(ctx, testProperty)
	require.NoError(t, err)
	assert.Equal(t, common.StageOpenToFund, prop.Stage)
	assert.Zero(t, prop.TotalInvested)
	assert.False(t, prop.IsFullyFunded)
	assert.Zero(t, prop.ProposalCount)
	proposals, err := d.GetProposals(ctx, testProperty, nil)
	require.NoError(t, err)
	assert.Empty(t, proposals)
}

func TestRevertToOpenToFund(t *testing.T) {
	d := newTestDAO(t)
	d.register(t)
	ctx := context.Background()
	err := d.RevertToOpenToFund(ctx, testPlatform, testProperty)
	require.ErrorIs(t, err, common.ErrInvalidStageTransition)

	funded, err := d.UpdateTotalInvested(ctx, testPlatform, testProperty, testTarget)
	require.NoError(t, err)
	require.NoError(t, d.RevertToOpenToFund(ctx, testPlatform, testProperty))

	prop, err := d.GetProperty(ctx, testProperty)
	require.NoError(t, err)
	assert.Equal(t, common.StageOpenToFund, prop.Stage)
	assert.Equal(t, uint64(testTarget), prop.TotalInvested)
	assert.False(t, prop.IsFullyFunded)
	assert.True(t, prop.Reverted)
	proposal, err := d.GetProposal(ctx, testProperty, funded.ProposalID)
	require.NoError(t, err)
	assert.Equal(t, common.ProposalStatusExpired, proposal.Status)

	// Funding again creates a fresh purchase proposal
	refunded, err := d.UpdateTotalInvested(ctx, testPlatform, testProperty, 0)
	require.NoError(t, err)
	assert.True(t, refunded.StageChanged)
	assert.Equal(t, uint64(2), refunded.ProposalID)

	err = d.RevertToOpenToFund(ctx, testPlatform, testProperty)
	require.ErrorIs(t, err, common.ErrInvalidStageTransition)
	assert.Equal(
		t,
		[]stageCall{
			{testProperty, common.StageFunded},
			{testProperty, common.StageOpenToFund},
			{testProperty, common.StageFunded},
		},
		d.notifier.Calls(),
	)
}

func TestVoteRules(t *testing.T) {
	d := managed(t)
	ctx := context.Background()
	proposal, err := d.propose(
		t,
		testHolderA,
		common.ProposalTypeManagementChange,
		&governance.ManagementChange{NewManager: "0xnew"},
	)
	require.NoError(t, err)

	vote, err := d.Vote(ctx, testHolderA, testProperty, proposal.ID, false)
	require.NoError(t, err)
	assert.Equal(t, &governance.Vote{HasVoted: true, Weight: 60}, vote)
	_, err = d.Vote(ctx, testHolderA, testProperty, proposal.ID, true)
	require.ErrorIs(t, err, common.ErrAlreadyVoted)
	_, err = d.Vote(ctx, "0xnobody", testProperty, proposal.ID, true)
	require.ErrorIs(t, err, common.ErrInsufficientVotingPower)
	_, err = d.Vote(ctx, testHolderB, testProperty, 99, true)
	require.ErrorIs(t, err, common.ErrNotFound)

	stored, err := d.GetProposal(ctx, testProperty, proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(60), stored.VotesAgainst)
	assert.Zero(t, stored.VotesFor)

	ballot, err := d.GetVote(ctx, testProperty, proposal.ID, testHolderB)
	require.NoError(t, err)
	assert.False(t, ballot.HasVoted)

	d.clock.Advance(governance.DefaultVotingPeriod)
	_, err = d.Vote(ctx, testHolderB, testProperty, proposal.ID, true)
	require.ErrorIs(t, err, common.ErrDeadlinePassed)

	result, err := d.ExecuteProposal(ctx, testManager, testProperty, proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, common.ProposalStatusRejected, result.Status)
	_, err = d.Vote(ctx, testHolderB, testProperty, proposal.ID, true)
	require.ErrorIs(t, err, common.ErrProposalNotActive)
}

func TestCreateProposalRules(t *testing.T) {
	d := newTestDAO(t)
	d.register(t)
	d.mint(t, testHolderA, 10)
	_, err := d.propose(
		t,
		testHolderA,
		common.ProposalTypeManagementChange,
		&governance.ManagementChange{NewManager: "0xnew"},
	)
	require.ErrorIs(t, err, common.ErrWrongStage)

	d = managed(t)
	_, err = d.propose(
		t,
		"0xnobody",
		common.ProposalTypeManagementChange,
		&governance.ManagementChange{NewManager: "0xnew"},
	)
	require.ErrorIs(t, err, common.ErrInsufficientVotingPower)
	_, err = d.propose(t, testHolderA, common.ProposalTypeNAVUpdate, &governance.NAVChange{NAV: 1})
	require.ErrorIs(t, err, common.ErrNotAuthorized)
	_, err = d.propose(t, testPlatform, common.ProposalTypeNAVUpdate, &governance.NAVChange{NAV: 0})
	require.ErrorIs(t, err, common.ErrInvalidParameter)
	_, err = d.propose(
		t,
		testHolderA,
		common.ProposalTypeThresholdUpdate,
		&governance.ThresholdChange{Name: governance.ThresholdApprovalQuorum, Value: 101},
	)
	require.ErrorIs(t, err, common.ErrInvalidParameter)
	_, err = d.propose(t, testHolderA, common.ProposalTypeManagementChange, nil)
	require.ErrorIs(t, err, common.ErrInvalidParameter)
	_, err = d.propose(t, testPlatform, common.ProposalTypeEmergencyUnpause, nil)
	require.ErrorIs(t, err, common.ErrInvalidParameter)
}

func TestExecuteRules(t *testing.T) {
	d := managed(t)
	ctx := context.Background()
	prop, err := d.GetProperty(ctx, testProperty)
	require.NoError(t, err)
	assert.Equal(t, common.StageUnderManagement, prop.Stage)
	assert.Equal(t, uint64(testTarget), prop.PurchasePrice)

	_, err = d.ExecuteProposal(ctx, testPlatform, testProperty, 1)
	require.ErrorIs(t, err, common.ErrAlreadyProcessed)

	proposal, err := d.propose(t, testPlatform, common.ProposalTypeNAVUpdate, &governance.NAVChange{NAV: 250000})
	require.NoError(t, err)
	_, err = d.ExecuteProposal(ctx, testPlatform, testProperty, proposal.ID)
	require.ErrorIs(t, err, common.ErrDeadlineNotReached)
	_, err = d.ExecuteProposal(ctx, testHolderA, testProperty, proposal.ID)
	require.ErrorIs(t, err, common.ErrNotAuthorized)

	result := d.pass(t, proposal.ID)
	assert.Equal(t, common.ProposalStatusExecuted, result.Status)
	assert.True(t, result.QuorumMet)
	nav, err := d.vault.NAV(testProperty, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(250000), nav)
}

func TestExecuteOutcomes(t *testing.T) {
	testDefs := []struct {
		name     string
		votes    map[common.Address]bool
		expected common.ProposalStatus
	}{
		{
			name:     "no votes",
			expected: common.ProposalStatusExpired,
		},
		{
			name:     "majority against",
			votes:    map[common.Address]bool{testHolderA: false, testHolderB: true},
			expected: common.ProposalStatusRejected,
		},
		{
			name:     "majority for",
			votes:    map[common.Address]bool{testHolderA: true, testHolderB: false},
			expected: common.ProposalStatusExecuted,
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			d := managed(t)
			ctx := context.Background()
			proposal, err := d.propose(
				t,
				testHolderB,
				common.ProposalTypeManagementChange,
				&governance.ManagementChange{NewManager: "0xNEW"},
			)
			require.NoError(t, err)
			for voter, support := range testDef.votes {
				_, err := d.Vote(ctx, voter, testProperty, proposal.ID, support)
				require.NoError(t, err)
			}
			d.clock.Advance(governance.DefaultVotingPeriod)
			result, err := d.ExecuteProposal(ctx, testManager, testProperty, proposal.ID)
			require.NoError(t, err)
			assert.Equal(t, testDef.expected, result.Status)
			stored, err := d.GetProposal(ctx, testProperty, proposal.ID)
			require.NoError(t, err)
			assert.Equal(t, testDef.expected, stored.Status)
			prop, err := d.GetProperty(ctx, testProperty)
			require.NoError(t, err)
			if testDef.expected == common.ProposalStatusExecuted {
				assert.Equal(t, common.Address("0xnew"), prop.Manager)
			} else {
				assert.Equal(t, testManager, prop.Manager)
			}
		})
	}
}

func TestLiquidationSupermajority(t *testing.T) {
	d := managed(t)
	ctx := context.Background()
	terms := &governance.LiquidationTerms{SalePrice: 150000, Buyer: "buyer-1"}

	// 60% in favor misses the default 66% threshold
	proposal, err := d.propose(t, testHolderA, common.ProposalTypePropertyLiquidation, terms)
	require.NoError(t, err)
	_, err = d.Vote(ctx, testHolderA, testProperty, proposal.ID, true)
	require.NoError(t, err)
	_, err = d.Vote(ctx, testHolderB, testProperty, proposal.ID, false)
	require.NoError(t, err)
	d.clock.Advance(governance.DefaultVotingPeriod)
	result, err := d.ExecuteProposal(ctx, testPlatform, testProperty, proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, common.ProposalStatusRejected, result.Status)

	lower, err := d.propose(
		t,
		testHolderB,
		common.ProposalTypeThresholdUpdate,
		&governance.ThresholdChange{Name: governance.ThresholdLiquidation, Value: 55},
	)
	require.NoError(t, err)
	d.pass(t, lower.ID)
	value, err := d.Thresholds().Get(ctx, testProperty, governance.ThresholdLiquidation)
	require.NoError(t, err)
	assert.Equal(t, uint64(55), value)

	proposal, err = d.propose(t, testHolderA, common.ProposalTypePropertyLiquidation, terms)
	require.NoError(t, err)
	_, err = d.Vote(ctx, testHolderA, testProperty, proposal.ID, true)
	require.NoError(t, err)
	_, err = d.Vote(ctx, testHolderB, testProperty, proposal.ID, false)
	require.NoError(t, err)
	d.clock.Advance(governance.DefaultVotingPeriod)
	result, err = d.ExecuteProposal(ctx, testPlatform, testProperty, proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, common.ProposalStatusExecuted, result.Status)

	prop, err := d.GetProperty(ctx, testProperty)
	require.NoError(t, err)
	assert.Equal(t, common.StageLiquidating, prop.Stage)
	assert.Equal(t, uint64(150000), prop.SalePrice)
	assert.Equal(t, "buyer-1", prop.Buyer)

	err = d.CompleteLiquidation(ctx, testHolderA, testProperty, 149000)
	require.ErrorIs(t, err, common.ErrNotAuthorized)
	require.NoError(t, d.CompleteLiquidation(ctx, testPlatform, testProperty, 149000))
	stage, err := d.GetCurrentStage(ctx, testProperty)
	require.NoError(t, err)
	assert.Equal(t, common.StageLiquidated, stage)
}

func TestCompetingLiquidations(t *testing.T) {
	d := managed(t)
	ctx := context.Background()
	first, err := d.propose(
		t,
		testHolderA,
		common.ProposalTypePropertyLiquidation,
		&governance.LiquidationTerms{SalePrice: 150000, Buyer: "buyer-1"},
	)
	require.NoError(t, err)
	second, err := d.propose(
		t,
		testHolderB,
		common.ProposalTypePropertyLiquidation,
		&governance.LiquidationTerms{SalePrice: 120000, Buyer: "buyer-2"},
	)
	require.NoError(t, err)
	for _, id := range []uint64{first.ID, second.ID} {
		_, err = d.Vote(ctx, testHolderA, testProperty, id, true)
		require.NoError(t, err)
		_, err = d.Vote(ctx, testHolderB, testProperty, id, true)
		require.NoError(t, err)
	}
	d.clock.Advance(governance.DefaultVotingPeriod)

	result, err := d.ExecuteProposal(ctx, testPlatform, testProperty, first.ID)
	require.NoError(t, err)
	assert.Equal(t, common.ProposalStatusExecuted, result.Status)
	assert.Empty(t, result.Reason)

	// The second sale passed too but the property is already liquidating
	result, err = d.ExecuteProposal(ctx, testPlatform, testProperty, second.ID)
	require.NoError(t, err)
	assert.Equal(t, common.ProposalStatusRejected, result.Status)
	assert.True(t, result.QuorumMet)
	assert.NotEmpty(t, result.Reason)

	prop, err := d.GetProperty(ctx, testProperty)
	require.NoError(t, err)
	assert.Equal(t, common.StageLiquidating, prop.Stage)
	assert.Equal(t, uint64(150000), prop.SalePrice)
	assert.Equal(t, "buyer-1", prop.Buyer)

	active := common.ProposalStatusActive
	proposals, err := d.GetProposals(ctx, testProperty, &active)
	require.NoError(t, err)
	assert.Empty(t, proposals)
	proposal, err := d.GetProposal(ctx, testProperty, second.ID)
	require.NoError(t, err)
	assert.Equal(t, common.ProposalStatusRejected, proposal.Status)
	assert.False(t, proposal.Executed)

	_, err = d.ExecuteProposal(ctx, testPlatform, testProperty, second.ID)
	require.ErrorIs(t, err, common.ErrAlreadyProcessed)
}

func TestEmergencyPause(t *testing.T) {
	d := managed(t)
	ctx := context.Background()
	pause, err := d.propose(t, testPlatform, common.ProposalTypeEmergencyPause, nil)
	require.NoError(t, err)
	pending, err := d.propose(
		t,
		testHolderA,
		common.ProposalTypeManagementChange,
		&governance.ManagementChange{NewManager: "0xnew"},
	)
	require.NoError(t, err)
	d.pass(t, pause.ID)
	prop, err := d.GetProperty(ctx, testProperty)
	require.NoError(t, err)
	assert.True(t, prop.Paused)

	_, err = d.propose(
		t,
		testHolderA,
		common.ProposalTypeManagementChange,
		&governance.ManagementChange{NewManager: "0xnew"},
	)
	require.ErrorIs(t, err, common.ErrPaused)
	_, err = d.ExecuteProposal(ctx, testPlatform, testProperty, pending.ID)
	require.ErrorIs(t, err, common.ErrPaused)

	unpause, err := d.propose(t, testPlatform, common.ProposalTypeEmergencyUnpause, nil)
	require.NoError(t, err)
	d.pass(t, unpause.ID)
	prop, err = d.GetProperty(ctx, testProperty)
	require.NoError(t, err)
	assert.False(t, prop.Paused)
}

func TestStageChangeProposal(t *testing.T) {
	d := managed(t)
	ctx := context.Background()
	_, err := d.propose(
		t,
		testPlatform,
		common.ProposalTypePropertyStageChange,
		&governance.StageChange{Target: uint8(common.StageFunded)},
	)
	require.ErrorIs(t, err, common.ErrInvalidStageTransition)
	_, err = d.propose(
		t,
		testPlatform,
		common.ProposalTypePropertyStageChange,
		&governance.StageChange{Target: uint8(common.StageLiquidated)},
	)
	require.ErrorIs(t, err, common.ErrInvalidStageTransition)
	_, err = d.propose(
		t,
		testHolderA,
		common.ProposalTypePropertyStageChange,
		&governance.StageChange{Target: uint8(common.StageLiquidating)},
	)
	require.ErrorIs(t, err, common.ErrNotAuthorized)

	proposal, err := d.propose(
		t,
		testPlatform,
		common.ProposalTypePropertyStageChange,
		&governance.StageChange{Target: uint8(common.StageLiquidating)},
	)
	require.NoError(t, err)
	d.pass(t, proposal.ID)
	stage, err := d.GetCurrentStage(ctx, testProperty)
	require.NoError(t, err)
	assert.Equal(t, common.StageLiquidating, stage)
	calls := d.notifier.Calls()
	assert.Equal(
		t,
		stageCall{testProperty, common.StageLiquidating},
		calls[len(calls)-1],
	)
}

func TestStageChangeProposalSkipsFunding(t *testing.T) {
	d := newTestDAO(t)
	d.register(t)
	d.mint(t, testHolderA, 60)
	_, err := d.propose(
		t,
		testPlatform,
		common.ProposalTypePropertyStageChange,
		&governance.StageChange{Target: uint8(common.StageFunded)},
	)
	require.ErrorIs(t, err, common.ErrInvalidStageTransition)

	// Funded to UnderManagement belongs to the purchase proposal
	result, err := d.UpdateTotalInvested(
		context.Background(),
		testPlatform,
		testProperty,
		testTarget,
	)
	require.NoError(t, err)
	require.True(t, result.StageChanged)
	_, err = d.propose(
		t,
		testPlatform,
		common.ProposalTypePropertyStageChange,
		&governance.StageChange{Target: uint8(common.StageUnderManagement)},
	)
	require.ErrorIs(t, err, common.ErrInvalidStageTransition)

	proposals, err := d.GetProposals(context.Background(), testProperty, nil)
	require.NoError(t, err)
	require.Len(t, proposals, 1)
	assert.Equal(t, common.ProposalTypePropertyPurchase, proposals[0].Type)
}

func TestGetProposalsByStatus(t *testing.T) {
	d := managed(t)
	ctx := context.Background()
	_, err := d.propose(t, testPlatform, common.ProposalTypeNAVUpdate, &governance.NAVChange{NAV: 5})
	require.NoError(t, err)
	active := common.ProposalStatusActive
	proposals, err := d.GetProposals(ctx, testProperty, &active)
	require.NoError(t, err)
	require.Len(t, proposals, 1)
	assert.Equal(t, uint64(2), proposals[0].ID)
	all, err := d.GetProposals(ctx, testProperty, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
