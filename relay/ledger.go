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

package relay

import (
	"encoding/binary"
	"encoding/hex"
	"sync"
	"time"

	"github.com/blinklabs-io/deedbridge/clock"
	"github.com/blinklabs-io/deedbridge/common"
	"golang.org/x/crypto/blake2b"
)

// RemoteDeposit is a custodial deposit made on the secondary ledger
type RemoteDeposit struct {
	TxHash         string
	PropertyID     string
	ForeignAddress string
	Amount         uint64
	Timestamp      time.Time
}

// RemoteLedger is an in-memory secondary ledger. It mirrors the stage of
// each property as announced by the bridge and records deposits.
type RemoteLedger struct {
	mu       sync.Mutex
	clock    *clock.Clock
	stages   map[string]common.Stage
	history  map[string][]common.Stage
	deposits []RemoteDeposit
	seq      uint64
}

func NewRemoteLedger(clk *clock.Clock) *RemoteLedger {
	return &RemoteLedger{
		clock:   clk,
		stages:  make(map[string]common.Stage),
		history: make(map[string][]common.Stage),
	}
}

// ApplyStage sets the mirrored stage of a property. It returns false when
// the property was already at that stage.
func (l *RemoteLedger) ApplyStage(propertyID string, stage common.Stage) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if current, ok := l.stages[propertyID]; ok && current == stage {
		return false
	}
	l.stages[propertyID] = stage
	l.history[propertyID] = append(l.history[propertyID], stage)
	return true
}

// Stage returns the mirrored stage of a property
func (l *RemoteLedger) Stage(propertyID string) (common.Stage, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	stage, ok := l.stages[propertyID]
	return stage, ok
}

// History returns every stage applied to a property in order
func (l *RemoteLedger) History(propertyID string) []common.Stage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]common.Stage(nil), l.history[propertyID]...)
}

// Deposit records a custodial deposit and returns it with its transaction
// hash
func (l *RemoteLedger) Deposit(
	propertyID string,
	foreignAddress string,
	amount uint64,
) RemoteDeposit {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	h, _ := blake2b.New256(nil)
	var seqBytes [8]byte
	binary.BigEndian.PutUint64(seqBytes[:], l.seq)
	h.Write(seqBytes[:])
	h.Write([]byte(propertyID))
	h.Write([]byte(foreignAddress))
	deposit := RemoteDeposit{
		TxHash:         hex.EncodeToString(h.Sum(nil)),
		PropertyID:     propertyID,
		ForeignAddress: foreignAddress,
		Amount:         amount,
		Timestamp:      l.clock.Time(),
	}
	l.deposits = append(l.deposits, deposit)
	return deposit
}

// Deposits returns every recorded deposit in order
func (l *RemoteLedger) Deposits() []RemoteDeposit {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]RemoteDeposit(nil), l.deposits...)
}
