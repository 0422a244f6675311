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

package bridge

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/blinklabs-io/deedbridge/common"
	"github.com/blinklabs-io/deedbridge/database/types"
	"github.com/blinklabs-io/gouroboros/cbor"
	"golang.org/x/crypto/blake2b"
)

// Message is an inbound cross-chain message submitted by the relayer.
// Amount is in foreign base units for deposits and in shares for
// withdrawals.
type Message struct {
	ID                string             `json:"id"`
	PropertyID        string             `json:"propertyId"`
	Type              common.MessageType `json:"type"`
	Custodian         common.Address     `json:"custodian,omitempty"`
	ForeignAddress    string             `json:"foreignAddress,omitempty"`
	Amount            uint64             `json:"amount,omitempty"`
	ForeignTxHash     string             `json:"foreignTxHash,omitempty"`
	Proof             []byte             `json:"proof,omitempty"`
	AcknowledgedStage common.Stage       `json:"acknowledgedStage,omitempty"`
}

// NormalizeTxHash returns the canonical form of a foreign transaction hash.
// Hashes are hex and compared case-insensitively.
func NormalizeTxHash(foreignTxHash string) string {
	return strings.ToLower(strings.TrimSpace(foreignTxHash))
}

// DeriveMessageID returns the deterministic ID of the message carried by a
// foreign transaction
func DeriveMessageID(foreignTxHash string, msgType common.MessageType) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(NormalizeTxHash(foreignTxHash)))
	h.Write([]byte{byte(msgType)})
	return hex.EncodeToString(h.Sum(nil))
}

func (m *Message) validate() error {
	if m.ID == "" {
		return fmt.Errorf("%w: message ID is required", common.ErrInvalidMessage)
	}
	if m.PropertyID == "" {
		return fmt.Errorf("%w: property ID is required", common.ErrInvalidMessage)
	}
	if !m.Type.Valid() {
		return fmt.Errorf(
			"%w: unknown message type %d",
			common.ErrInvalidMessage,
			m.Type,
		)
	}
	if m.Type == common.MessageTypeStageAcknowledgment {
		if !m.AcknowledgedStage.Valid() {
			return fmt.Errorf(
				"%w: unknown acknowledged stage %d",
				common.ErrInvalidMessage,
				m.AcknowledgedStage,
			)
		}
		return nil
	}
	if m.Amount == 0 {
		return fmt.Errorf("%w: amount must be positive", common.ErrInvalidMessage)
	}
	return nil
}

// envelope is the archived form of a processed message
type envelope struct {
	cbor.StructAsArray
	ID                string
	PropertyID        string
	Type              uint8
	Custodian         string
	ForeignAddress    string
	Amount            uint64
	ForeignTxHash     string
	Proof             []byte
	AcknowledgedStage uint8
	ProcessedAt       int64
}

func encodeEnvelope(msg *Message, custodian common.Address, processedAt time.Time) ([]byte, error) {
	env := envelope{
		ID:                msg.ID,
		PropertyID:        msg.PropertyID,
		Type:              uint8(msg.Type),
		Custodian:         custodian.String(),
		ForeignAddress:    msg.ForeignAddress,
		Amount:            msg.Amount,
		ForeignTxHash:     msg.ForeignTxHash,
		Proof:             msg.Proof,
		AcknowledgedStage: uint8(msg.AcknowledgedStage),
		ProcessedAt:       processedAt.Unix(),
	}
	data, err := cbor.Encode(&env)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message envelope: %w", err)
	}
	return data, nil
}

// GetMessage returns an archived processed message. The custodian is the
// one the message was credited to.
func (b *Bridge) GetMessage(ctx context.Context, messageID string) (*Message, error) {
	_, span := b.tracer.Start(ctx, "Bridge.GetMessage")
	defer span.End()
	data, err := b.db.GetBlob(types.MessageBlobKey(messageID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get message envelope: %w", err)
	}
	if data == nil {
		return nil, fmt.Errorf("%w: message %q", common.ErrNotFound, messageID)
	}
	var env envelope
	if _, err := cbor.Decode(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode message envelope: %w", err)
	}
	return &Message{
		ID:                env.ID,
		PropertyID:        env.PropertyID,
		Type:              common.MessageType(env.Type),
		Custodian:         common.Address(env.Custodian),
		ForeignAddress:    env.ForeignAddress,
		Amount:            env.Amount,
		ForeignTxHash:     env.ForeignTxHash,
		Proof:             env.Proof,
		AcknowledgedStage: common.Stage(env.AcknowledgedStage),
	}, nil
}

// IsMessageProcessed reports whether a message ID has been consumed
func (b *Bridge) IsMessageProcessed(ctx context.Context, messageID string) (bool, error) {
	_, span := b.tracer.Start(ctx, "Bridge.IsMessageProcessed")
	defer span.End()
	msg, err := b.db.GetProcessedMessage(messageID, nil)
	if err != nil {
		return false, fmt.Errorf("failed to get processed message: %w", err)
	}
	return msg != nil, nil
}
