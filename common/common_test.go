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

package common_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/deedbridge/common"
)

func TestCanTransition(t *testing.T) {
	testDefs := []struct {
		from  common.Stage
		to    common.Stage
		legal bool
	}{
		{common.StageOpenToFund, common.StageFunded, true},
		{common.StageFunded, common.StageUnderManagement, true},
		{common.StageUnderManagement, common.StageLiquidating, true},
		{common.StageLiquidating, common.StageLiquidated, true},
		{common.StageFunded, common.StageOpenToFund, true},
		{common.StageOpenToFund, common.StageUnderManagement, false},
		{common.StageUnderManagement, common.StageFunded, false},
		{common.StageUnderManagement, common.StageOpenToFund, false},
		{common.StageLiquidated, common.StageOpenToFund, false},
		{common.StageLiquidated, common.Stage(5), false},
		{common.StageFunded, common.StageFunded, false},
	}
	for _, testDef := range testDefs {
		t.Run(
			fmt.Sprintf("%s->%s", testDef.from, testDef.to),
			func(t *testing.T) {
				assert.Equal(
					t,
					testDef.legal,
					common.CanTransition(testDef.from, testDef.to),
				)
			},
		)
	}
}

func TestStageText(t *testing.T) {
	data, err := json.Marshal(
		map[string]common.Stage{"stage": common.StageLiquidating},
	)
	require.NoError(t, err)
	assert.JSONEq(t, `{"stage":"Liquidating"}`, string(data))
	var out map[string]common.Stage
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, common.StageLiquidating, out["stage"])
	_, err = common.ParseStage("Sold")
	require.ErrorIs(t, err, common.ErrInvalidParameter)
}

func TestProposalTypePlatformOnly(t *testing.T) {
	platformOnly := map[common.ProposalType]bool{
		common.ProposalTypePropertyLiquidation: false,
		common.ProposalTypePropertyPurchase:    false,
		common.ProposalTypeThresholdUpdate:     false,
		common.ProposalTypeManagementChange:    false,
		common.ProposalTypeNAVUpdate:           true,
		common.ProposalTypeEmergencyPause:      true,
		common.ProposalTypeEmergencyUnpause:    true,
		common.ProposalTypePropertyStageChange: true,
	}
	for proposalType, expected := range platformOnly {
		assert.Equal(
			t,
			expected,
			proposalType.PlatformOnly(),
			proposalType.String(),
		)
	}
}

func TestErrorKind(t *testing.T) {
	err := fmt.Errorf(
		"%w: caller is not the relayer",
		common.ErrNotAuthorized,
	)
	assert.Equal(t, "NotAuthorized", common.ErrorKind(err))
	assert.Equal(
		t,
		"AlreadyProcessed",
		common.ErrorKind(fmt.Errorf("wrap: %w", common.ErrAlreadyProcessed)),
	)
	assert.Equal(t, "Internal", common.ErrorKind(errors.New("boom")))
	assert.Empty(t, common.ErrorKind(nil))
}

func TestNewAddress(t *testing.T) {
	assert.Equal(
		t,
		common.Address("0xabcdef"),
		common.NewAddress(" 0xABCdef "),
	)
	assert.True(t, common.NewAddress("").IsZero())
}
