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

package oracle_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/deedbridge/clock"
	"github.com/blinklabs-io/deedbridge/common"
	"github.com/blinklabs-io/deedbridge/database"
	"github.com/blinklabs-io/deedbridge/event"
	"github.com/blinklabs-io/deedbridge/oracle"
)

const (
	testOwner   common.Address = "0xowner"
	testUpdater common.Address = "0xupdater"
)

type testOracle struct {
	*oracle.Oracle
	clock    *clock.Clock
	eventBus *event.EventBus
}

func newTestOracle(t *testing.T) *testOracle {
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
		oracle.Config{
			Clock:        testClock,
			EventBus:     eventBus,
			Owner:        testOwner,
			Updater:      testUpdater,
			PromRegistry: prometheus.NewRegistry(),
		},
		db,
	)
	require.NoError(t, err)
	return &testOracle{Oracle: o, clock: testClock, eventBus: eventBus}
}

func TestUpdatePriceAuthorization(t *testing.T) {
	o := newTestOracle(t)
	ctx := context.Background()
	err := o.UpdatePrice(ctx, "0xstranger", oracle.DefaultAsset, decimal.NewFromInt(1))
	require.ErrorIs(t, err, common.ErrNotAuthorized)
	require.NoError(
		t,
		o.UpdatePrice(ctx, testUpdater, oracle.DefaultAsset, decimal.NewFromInt(50000)),
	)
	require.NoError(
		t,
		o.UpdatePrice(ctx, testOwner, oracle.DefaultAsset, decimal.NewFromInt(51000)),
	)
	reading, err := o.GetPrice(ctx, oracle.DefaultAsset)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(51000).Equal(reading.Price))
	assert.True(t, reading.IsValid)
}

func TestUpdatePriceRejectsNonPositive(t *testing.T) {
	o := newTestOracle(t)
	for _, price := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
		err := o.UpdatePrice(context.Background(), testOwner, oracle.DefaultAsset, price)
		require.ErrorIs(t, err, common.ErrInvalidParameter)
	}
}

func TestGetPriceMissing(t *testing.T) {
	o := newTestOracle(t)
	_, err := o.GetPrice(context.Background(), "XYZ")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestPriceStaleness(t *testing.T) {
	o := newTestOracle(t)
	ctx := context.Background()
	require.NoError(
		t,
		o.UpdatePrice(ctx, testOwner, oracle.DefaultAsset, decimal.NewFromInt(50000)),
	)
	o.clock.Advance(oracle.DefaultStalenessWindow - time.Second)
	reading, err := o.GetPrice(ctx, oracle.DefaultAsset)
	require.NoError(t, err)
	assert.True(t, reading.IsValid)

	o.clock.Advance(2 * time.Second)
	reading, err = o.GetPrice(ctx, oracle.DefaultAsset)
	require.NoError(t, err)
	assert.False(t, reading.IsValid)
	assert.True(t, decimal.NewFromInt(50000).Equal(reading.Price))
}

func TestCircuitBreaker(t *testing.T) {
	o := newTestOracle(t)
	ctx := context.Background()
	_, tripCh := o.eventBus.Subscribe(oracle.CircuitBreakerEventType)
	require.NoError(
		t,
		o.UpdatePrice(ctx, testOwner, oracle.DefaultAsset, decimal.NewFromInt(50000)),
	)
	err := o.UpdatePrice(ctx, testOwner, oracle.DefaultAsset, decimal.NewFromInt(100000))
	require.ErrorIs(t, err, common.ErrExtremeMovement)

	reading, err := o.GetPrice(ctx, oracle.DefaultAsset)
	require.NoError(t, err)
	assert.True(t, reading.EmergencyPaused)
	assert.True(t, decimal.NewFromInt(50000).Equal(reading.Price))

	select {
	case evt := <-tripCh:
		data := evt.Data.(oracle.CircuitBreakerEvent)
		assert.True(t, decimal.NewFromInt(100000).Equal(data.RejectedPrice))
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for circuit breaker event")
	}

	// Every update is refused until the owner clears the pause
	err = o.UpdatePrice(ctx, testOwner, oracle.DefaultAsset, decimal.NewFromInt(50001))
	require.ErrorIs(t, err, common.ErrPaused)
	err = o.SetEmergencyPaused(ctx, testUpdater, oracle.DefaultAsset, false)
	require.ErrorIs(t, err, common.ErrNotAuthorized)
	require.NoError(t, o.SetEmergencyPaused(ctx, testOwner, oracle.DefaultAsset, false))
	require.NoError(
		t,
		o.UpdatePrice(ctx, testOwner, oracle.DefaultAsset, decimal.NewFromInt(50001)),
	)
}

func TestCircuitBreakerBound(t *testing.T) {
	testDefs := []struct {
		name     string
		newPrice int64
		trips    bool
	}{
		{"exactly at bound up", 150, false},
		{"exactly at bound down", 50, false},
		{"just above bound", 151, true},
		{"crash", 10, true},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			o := newTestOracle(t)
			ctx := context.Background()
			require.NoError(
				t,
				o.UpdatePrice(ctx, testOwner, "ASSET", decimal.NewFromInt(100)),
			)
			err := o.UpdatePrice(
				ctx,
				testOwner,
				"ASSET",
				decimal.NewFromInt(testDef.newPrice),
			)
			if testDef.trips {
				require.ErrorIs(t, err, common.ErrExtremeMovement)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestManualPauseBeforeFirstPrice(t *testing.T) {
	o := newTestOracle(t)
	ctx := context.Background()
	require.NoError(t, o.SetEmergencyPaused(ctx, testOwner, "NEW", true))
	reading, err := o.GetPrice(ctx, "NEW")
	require.NoError(t, err)
	assert.True(t, reading.EmergencyPaused)
	assert.False(t, reading.IsValid)
	err = o.UpdatePrice(ctx, testOwner, "NEW", decimal.NewFromInt(10))
	require.ErrorIs(t, err, common.ErrPaused)
	require.NoError(t, o.SetEmergencyPaused(ctx, testOwner, "NEW", false))
	require.NoError(t, o.UpdatePrice(ctx, testOwner, "NEW", decimal.NewFromInt(10)))
}
