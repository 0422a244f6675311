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
)

// ProposalType identifies the governance action carried by a proposal
type ProposalType uint8

const (
	ProposalTypePropertyLiquidation ProposalType = iota
	ProposalTypePropertyPurchase
	ProposalTypeThresholdUpdate
	ProposalTypeManagementChange
	ProposalTypeNAVUpdate
	ProposalTypeEmergencyPause
	ProposalTypeEmergencyUnpause
	ProposalTypePropertyStageChange
)

var proposalTypeNames = map[ProposalType]string{
	ProposalTypePropertyLiquidation: "PropertyLiquidation",
	ProposalTypePropertyPurchase:    "PropertyPurchase",
	ProposalTypeThresholdUpdate:     "ThresholdUpdate",
	ProposalTypeManagementChange:    "ManagementChange",
	ProposalTypeNAVUpdate:           "NAVUpdate",
	ProposalTypeEmergencyPause:      "EmergencyPause",
	ProposalTypeEmergencyUnpause:    "EmergencyUnpause",
	ProposalTypePropertyStageChange: "PropertyStageChange",
}

func (t ProposalType) String() string {
	if name, ok := proposalTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ProposalType(%d)", uint8(t))
}

func (t ProposalType) Valid() bool {
	_, ok := proposalTypeNames[t]
	return ok
}

// PlatformOnly returns true for proposal types only the platform may create
func (t ProposalType) PlatformOnly() bool {
	switch t {
	case ProposalTypeNAVUpdate,
		ProposalTypeEmergencyPause,
		ProposalTypeEmergencyUnpause,
		ProposalTypePropertyStageChange:
		return true
	default:
		return false
	}
}

func ParseProposalType(name string) (ProposalType, error) {
	for proposalType, typeName := range proposalTypeNames {
		if typeName == name {
			return proposalType, nil
		}
	}
	return 0, fmt.Errorf(
		"%w: unknown proposal type %q",
		ErrInvalidParameter,
		name,
	)
}

func (t ProposalType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf(
			"%w: unknown proposal type %d",
			ErrInvalidParameter,
			t,
		)
	}
	return []byte(t.String()), nil
}

func (t *ProposalType) UnmarshalText(data []byte) error {
	tmpType, err := ParseProposalType(string(data))
	if err != nil {
		return err
	}
	*t = tmpType
	return nil
}

// ProposalStatus is the outcome state of a proposal
type ProposalStatus uint8

const (
	ProposalStatusActive ProposalStatus = iota
	ProposalStatusExecuted
	ProposalStatusRejected
	ProposalStatusExpired
)

var proposalStatusNames = map[ProposalStatus]string{
	ProposalStatusActive:   "Active",
	ProposalStatusExecuted: "Executed",
	ProposalStatusRejected: "Rejected",
	ProposalStatusExpired:  "Expired",
}

func (s ProposalStatus) String() string {
	if name, ok := proposalStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("ProposalStatus(%d)", uint8(s))
}

func (s ProposalStatus) MarshalText() ([]byte, error) {
	if _, ok := proposalStatusNames[s]; !ok {
		return nil, fmt.Errorf(
			"%w: unknown proposal status %d",
			ErrInvalidParameter,
			s,
		)
	}
	return []byte(s.String()), nil
}

func (s *ProposalStatus) UnmarshalText(data []byte) error {
	for status, name := range proposalStatusNames {
		if name == string(data) {
			*s = status
			return nil
		}
	}
	return fmt.Errorf(
		"%w: unknown proposal status %q",
		ErrInvalidParameter,
		string(data),
	)
}
