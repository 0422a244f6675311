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

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/blinklabs-io/deedbridge/api"
	"github.com/blinklabs-io/deedbridge/bridge"
	"github.com/blinklabs-io/deedbridge/clock"
	"github.com/blinklabs-io/deedbridge/common"
	"github.com/blinklabs-io/deedbridge/database"
	"github.com/blinklabs-io/deedbridge/event"
	"github.com/blinklabs-io/deedbridge/governance"
	"github.com/blinklabs-io/deedbridge/oracle"
	"github.com/blinklabs-io/deedbridge/vault"
)

const (
	testPlatform  = "0xplatform"
	testRelayer   = "0xrelayer"
	testCustodian = "0xcustodian"
	testProperty  = "prop-1"
)

type testServer struct {
	handler http.Handler
	clock   *clock.Clock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := database.New(nil)
	require.NoError(t, err)
	eventBus := event.NewEventBus(nil, nil)
	t.Cleanup(func() {
		eventBus.Stop()
		_ = db.Close()
	})
	testClock := clock.NewFixed(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	o, err := oracle.New(
		oracle.Config{Clock: testClock, Owner: testPlatform},
		db,
	)
	require.NoError(t, err)
	v, err := vault.New(db, nil, testClock)
	require.NoError(t, err)
	b, err := bridge.New(
		bridge.Config{
			Clock:        testClock,
			EventBus:     eventBus,
			Relayer:      testRelayer,
			PromRegistry: prometheus.NewRegistry(),
		},
		db,
		o,
		v,
	)
	require.NoError(t, err)
	dao, err := governance.New(
		governance.Config{
			Clock:    testClock,
			EventBus: eventBus,
			Platform: testPlatform,
		},
		db,
		v,
		b,
	)
	require.NoError(t, err)
	a := api.New(
		api.Config{},
		api.Services{DAO: dao, Bridge: b, Oracle: o, Vault: v},
		nil,
	)
	return &testServer{handler: a.Handler(), clock: testClock}
}

// do sends a request as caller and decodes a JSON response into out when
// out is not nil
func (s *testServer) do(
	t *testing.T,
	method string,
	path string,
	caller string,
	body any,
	out any,
) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reqBody).Encode(body))
	}
	req := httptest.NewRequest(method, path, &reqBody)
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		req.Header.Set(api.CallerHeader, caller)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec
}

func (s *testServer) errorKind(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp.Error
}

func (s *testServer) register(t *testing.T) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/properties", testPlatform,
		map[string]any{
			"id":              testProperty,
			"manager":         testPlatform,
			"fundingTarget":   100000,
			"fundingDeadline": s.clock.Time().Add(30 * 24 * time.Hour),
		},
		nil,
	)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

// fund prices the foreign asset, deposits one unit for the custodian and
// then marks the property fully invested. It returns the purchase
// proposal ID.
func (s *testServer) fund(t *testing.T) uint64 {
	t.Helper()
	rec := s.do(t, http.MethodPut, "/api/v1/oracle/prices/"+oracle.DefaultAsset,
		testPlatform, map[string]any{"price": "50000"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var deposit bridge.MessageResult
	rec = s.do(t, http.MethodPost, "/api/v1/bridge/messages", testRelayer,
		map[string]any{
			"propertyId":    testProperty,
			"type":          "Deposit",
			"custodian":     testCustodian,
			"amount":        100_000_000,
			"foreignTxHash": "0xabc",
		},
		&deposit,
	)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Positive(t, deposit.SharesMinted)
	assert.Equal(
		t,
		bridge.DeriveMessageID("0xabc", common.MessageTypeDeposit),
		deposit.MessageID,
	)
	var funding governance.FundingResult
	rec = s.do(t, http.MethodPost, "/api/v1/properties/"+testProperty+"/investments",
		testPlatform, map[string]any{"amount": 100000}, &funding)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, common.StageFunded, funding.NewStage)
	require.NotZero(t, funding.ProposalID)
	return funding.ProposalID
}

func proposalPath(proposalID uint64) string {
	return "/api/v1/properties/" + testProperty + "/proposals/" +
		strconv.FormatUint(proposalID, 10)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/health", "", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"healthy":true}`, rec.Body.String())
}

func TestRegisterAndGetProperty(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/v1/properties", "0xstranger",
		map[string]any{
			"id":              testProperty,
			"manager":         testPlatform,
			"fundingTarget":   100000,
			"fundingDeadline": s.clock.Time().Add(time.Hour),
		},
		nil,
	)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "NotAuthorized", s.errorKind(t, rec))

	s.register(t)
	var prop governance.Property
	rec = s.do(t, http.MethodGet, "/api/v1/properties/"+testProperty, "", nil, &prop)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, common.StageOpenToFund, prop.Stage)
	assert.Equal(t, uint64(100000), prop.FundingTarget)

	rec = s.do(t, http.MethodGet, "/api/v1/properties/"+testProperty+"/stage", "", nil, nil)
	assert.JSONEq(t, `{"propertyId":"prop-1","stage":"OpenToFund"}`, rec.Body.String())

	var thresholds map[string]uint64
	rec = s.do(t, http.MethodGet, "/api/v1/properties/"+testProperty+"/thresholds", "", nil, &thresholds)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(66), thresholds[governance.ThresholdLiquidation])

	rec = s.do(t, http.MethodGet, "/api/v1/properties/nope", "", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NotFound", s.errorKind(t, rec))

	var props []governance.Property
	rec = s.do(t, http.MethodGet, "/api/v1/properties?count=10", "", nil, &props)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, props, 1)
	assert.Equal(t, "1", rec.Header().Get("X-Pagination-Count-Total"))
}

func TestMalformedRequest(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(
		http.MethodPost,
		"/api/v1/properties",
		bytes.NewBufferString(`{"id":`),
	)
	req.Header.Set(api.CallerHeader, testPlatform)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "InvalidParameter", s.errorKind(t, rec))

	s.register(t)
	rec = s.do(t, http.MethodGet, "/api/v1/properties/"+testProperty+"/proposals/abc", "", nil, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/v1/properties/"+testProperty+"/proposals?status=Pending", "", nil, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestPurchaseProposalLifecycle(t *testing.T) {
	s := newTestServer(t)
	s.register(t)
	proposalID := s.fund(t)

	var shares map[string]any
	rec := s.do(t, http.MethodGet, "/api/v1/properties/"+testProperty+"/shares/"+testCustodian, "", nil, &shares)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, shares["balance"], shares["totalSupply"])

	rec = s.do(t, http.MethodPost, proposalPath(proposalID)+"/votes", "0xstranger",
		map[string]any{"support": true}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "InsufficientVotingPower", s.errorKind(t, rec))

	var vote governance.Vote
	rec = s.do(t, http.MethodPost, proposalPath(proposalID)+"/votes", testCustodian,
		map[string]any{"support": true}, &vote)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, vote.HasVoted)
	assert.Positive(t, vote.Weight)

	rec = s.do(t, http.MethodPost, proposalPath(proposalID)+"/votes", testCustodian,
		map[string]any{"support": false}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "AlreadyVoted", s.errorKind(t, rec))

	rec = s.do(t, http.MethodGet, proposalPath(proposalID)+"/votes/"+testCustodian, "", nil, &vote)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, vote.Support)

	rec = s.do(t, http.MethodPost, proposalPath(proposalID)+"/execute", testPlatform, nil, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "DeadlineNotReached", s.errorKind(t, rec))

	s.clock.Advance(governance.DefaultVotingPeriod)
	var result governance.ExecutionResult
	rec = s.do(t, http.MethodPost, proposalPath(proposalID)+"/execute", testPlatform, nil, &result)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, common.ProposalStatusExecuted, result.Status)
	assert.True(t, result.QuorumMet)

	var proposals []governance.Proposal
	rec = s.do(t, http.MethodGet, "/api/v1/properties/"+testProperty+"/proposals?status=Executed", "", nil, &proposals)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, proposals, 1)
	assert.Equal(t, common.ProposalTypePropertyPurchase, proposals[0].Type)

	var pending bridge.PendingStageChange
	rec = s.do(t, http.MethodGet, "/api/v1/bridge/properties/"+testProperty+"/stage-change", "", nil, &pending)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, pending.IsPending)
	assert.Equal(t, common.StageUnderManagement, pending.TargetStage)

	rec = s.do(t, http.MethodPost, "/api/v1/bridge/properties/"+testProperty+"/stage-change/retry", "", nil, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "TooSoon", s.errorKind(t, rec))

	var ack bridge.MessageResult
	rec = s.do(t, http.MethodPost, "/api/v1/bridge/messages", testRelayer,
		map[string]any{
			"id":                "ack-1",
			"propertyId":        testProperty,
			"type":              "StageAcknowledgment",
			"acknowledgedStage": "UnderManagement",
		},
		&ack,
	)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, common.StageUnderManagement, ack.AcknowledgedStage)
}

func TestCreateProposalPayload(t *testing.T) {
	s := newTestServer(t)
	s.register(t)
	purchaseID := s.fund(t)
	s.do(t, http.MethodPost, proposalPath(purchaseID)+"/votes", testCustodian,
		map[string]any{"support": true}, nil)
	s.clock.Advance(governance.DefaultVotingPeriod)
	rec := s.do(t, http.MethodPost, proposalPath(purchaseID)+"/execute", testPlatform, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	proposalsPath := "/api/v1/properties/" + testProperty + "/proposals"
	var proposal governance.Proposal
	rec = s.do(t, http.MethodPost, proposalsPath, testCustodian,
		map[string]any{
			"type":        "ThresholdUpdate",
			"description": "raise quorum",
			"payload": map[string]any{
				"name":  governance.ThresholdApprovalQuorum,
				"value": 30,
			},
		},
		&proposal,
	)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, common.ProposalTypeThresholdUpdate, proposal.Type)
	assert.Equal(t, common.ProposalStatusActive, proposal.Status)

	rec = s.do(t, http.MethodPost, proposalsPath, testCustodian,
		map[string]any{
			"type":    "ThresholdUpdate",
			"data":    []byte{0x80},
			"payload": map[string]any{"name": "x", "value": 1},
		},
		nil,
	)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodPost, proposalsPath, testCustodian,
		map[string]any{
			"type":    "PropertyStageChange",
			"payload": map[string]any{"target": "Liquidating"},
		},
		nil,
	)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, proposalsPath, testCustodian,
		map[string]any{"type": "Bogus"},
		nil,
	)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestBridgeCustodians(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/v1/bridge/custodians", testCustodian,
		map[string]any{"foreignAddress": "sp-foreign-1"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = s.do(t, http.MethodPost, "/api/v1/bridge/custodians", "0xother",
		map[string]any{"foreignAddress": "sp-foreign-1"}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "AlreadyRegistered", s.errorKind(t, rec))

	rec = s.do(t, http.MethodPut, "/api/v1/bridge/custodians", testCustodian,
		map[string]any{"newCustodian": "0xNEW"}, nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/v1/bridge/custodians/sp-foreign-1", "", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(
		t,
		`{"foreignAddress":"sp-foreign-1","custodian":"0xnew"}`,
		rec.Body.String(),
	)

	rec = s.do(t, http.MethodGet, "/api/v1/bridge/messages/missing/status", "", nil, nil)
	assert.JSONEq(t, `{"messageId":"missing","processed":false}`, rec.Body.String())
	rec = s.do(t, http.MethodGet, "/api/v1/bridge/messages/missing", "", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBridgeRejectsNonRelayer(t *testing.T) {
	s := newTestServer(t)
	s.register(t)
	rec := s.do(t, http.MethodPost, "/api/v1/bridge/messages", testCustodian,
		map[string]any{
			"id":            "m-1",
			"propertyId":    testProperty,
			"type":          "Deposit",
			"custodian":     testCustodian,
			"amount":        1,
			"foreignTxHash": "0xdef",
		},
		nil,
	)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOraclePrices(t *testing.T) {
	s := newTestServer(t)
	path := "/api/v1/oracle/prices/" + oracle.DefaultAsset
	rec := s.do(t, http.MethodGet, path, "", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPut, path, "0xstranger", map[string]any{"price": "1"}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var price struct {
		Asset           string          `json:"asset"`
		Price           decimal.Decimal `json:"price"`
		IsValid         bool            `json:"isValid"`
		EmergencyPaused bool            `json:"emergencyPaused"`
	}
	rec = s.do(t, http.MethodPut, path, testPlatform, map[string]any{"price": "64000.5"}, &price)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, price.Price.Equal(decimal.RequireFromString("64000.5")))
	assert.True(t, price.IsValid)

	rec = s.do(t, http.MethodPut, path+"/pause", testPlatform, map[string]any{"paused": true}, &price)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, price.EmergencyPaused)
}

func TestStartStop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	a := api.New(api.Config{ListenAddress: "127.0.0.1:0"}, api.Services{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, a.Start(ctx))
	require.Error(t, a.Start(ctx))
	require.NoError(t, a.Stop(context.Background()))
	require.NoError(t, a.Stop(context.Background()))
	// Releases the shutdown watcher
	cancel()
}
