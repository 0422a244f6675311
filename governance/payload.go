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

package governance

import (
	"fmt"

	"github.com/blinklabs-io/deedbridge/common"
	"github.com/blinklabs-io/gouroboros/cbor"
)

// LiquidationTerms is the payload of a PropertyLiquidation proposal
type LiquidationTerms struct {
	cbor.StructAsArray
	SalePrice uint64
	Buyer     string
}

// PurchaseTerms is the payload of a PropertyPurchase proposal
type PurchaseTerms struct {
	cbor.StructAsArray
	PurchasePrice uint64
	Seller        string
}

// ThresholdChange is the payload of a ThresholdUpdate proposal
type ThresholdChange struct {
	cbor.StructAsArray
	Name  string
	Value uint64
}

// ManagementChange is the payload of a ManagementChange proposal
type ManagementChange struct {
	cbor.StructAsArray
	NewManager string
}

// NAVChange is the payload of a NAVUpdate proposal
type NAVChange struct {
	cbor.StructAsArray
	NAV uint64
}

// StageChange is the payload of a PropertyStageChange proposal
type StageChange struct {
	cbor.StructAsArray
	Target uint8
}

func (s *StageChange) Stage() common.Stage {
	return common.Stage(s.Target)
}

// EncodePayload returns the CBOR encoding of a proposal payload
func EncodePayload(payload any) ([]byte, error) {
	data, err := cbor.Encode(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode proposal payload: %w", err)
	}
	return data, nil
}

// DecodePayload decodes and validates the payload for a proposal type. It
// returns nil for types that carry no payload.
func DecodePayload(proposalType common.ProposalType, data []byte) (any, error) {
	var payload any
	switch proposalType {
	case common.ProposalTypePropertyLiquidation:
		payload = &LiquidationTerms{}
	case common.ProposalTypePropertyPurchase:
		payload = &PurchaseTerms{}
	case common.ProposalTypeThresholdUpdate:
		payload = &ThresholdChange{}
	case common.ProposalTypeManagementChange:
		payload = &ManagementChange{}
	case common.ProposalTypeNAVUpdate:
		payload = &NAVChange{}
	case common.ProposalTypePropertyStageChange:
		payload = &StageChange{}
	case common.ProposalTypeEmergencyPause, common.ProposalTypeEmergencyUnpause:
		if len(data) > 0 {
			return nil, fmt.Errorf(
				"%w: %s proposals carry no payload",
				common.ErrInvalidParameter,
				proposalType,
			)
		}
		return nil, nil
	default:
		return nil, fmt.Errorf(
			"%w: unknown proposal type %d",
			common.ErrInvalidParameter,
			proposalType,
		)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf(
			"%w: %s proposals require a payload",
			common.ErrInvalidParameter,
			proposalType,
		)
	}
	if _, err := cbor.Decode(data, payload); err != nil {
		return nil, fmt.Errorf(
			"%w: malformed %s payload: %w",
			common.ErrInvalidParameter,
			proposalType,
			err,
		)
	}
	if err := validatePayload(payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func validatePayload(payload any) error {
	switch p := payload.(type) {
	case *LiquidationTerms:
		if p.SalePrice == 0 {
			return fmt.Errorf(
				"%w: sale price must be positive",
				common.ErrInvalidParameter,
			)
		}
	case *PurchaseTerms:
		if p.PurchasePrice == 0 {
			return fmt.Errorf(
				"%w: purchase price must be positive",
				common.ErrInvalidParameter,
			)
		}
	case *ThresholdChange:
		return validateThreshold(p.Name, p.Value)
	case *NAVChange:
		if p.NAV == 0 {
			return fmt.Errorf(
				"%w: NAV must be positive",
				common.ErrInvalidParameter,
			)
		}
	case *ManagementChange:
		if common.NewAddress(p.NewManager).IsZero() {
			return fmt.Errorf(
				"%w: new manager is required",
				common.ErrInvalidParameter,
			)
		}
	case *StageChange:
		if !p.Stage().Valid() {
			return fmt.Errorf(
				"%w: unknown target stage %d",
				common.ErrInvalidParameter,
				p.Target,
			)
		}
	}
	return nil
}
