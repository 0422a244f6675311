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

package common

import (
	"fmt"
	"strings"
)

// MessageType identifies an inbound cross-chain message
type MessageType uint8

const (
	MessageTypeDeposit MessageType = iota
	MessageTypeWithdrawal
	MessageTypeStageAcknowledgment
)

var messageTypeNames = map[MessageType]string{
	MessageTypeDeposit:             "Deposit",
	MessageTypeWithdrawal:          "Withdrawal",
	MessageTypeStageAcknowledgment: "StageAcknowledgment",
}

func (t MessageType) String() string {
	if name, ok := messageTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("MessageType(%d)", uint8(t))
}

func (t MessageType) Valid() bool {
	_, ok := messageTypeNames[t]
	return ok
}

func ParseMessageType(name string) (MessageType, error) {
	for msgType, typeName := range messageTypeNames {
		if typeName == name {
			return msgType, nil
		}
	}
	return 0, fmt.Errorf(
		"%w: unknown message type %q",
		ErrInvalidParameter,
		name,
	)
}

func (t MessageType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf(
			"%w: unknown message type %d",
			ErrInvalidParameter,
			t,
		)
	}
	return []byte(t.String()), nil
}

func (t *MessageType) UnmarshalText(data []byte) error {
	tmpType, err := ParseMessageType(string(data))
	if err != nil {
		return err
	}
	*t = tmpType
	return nil
}

// Address is an account identity on the primary ledger. Addresses are
// compared case-insensitively, so they are always stored lowercased.
type Address string

func NewAddress(addr string) Address {
	return Address(strings.ToLower(strings.TrimSpace(addr)))
}

func (a Address) IsZero() bool {
	return a == ""
}

func (a Address) String() string {
	return string(a)
}
