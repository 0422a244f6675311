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

// Stage is a property's position in its investment lifecycle
type Stage uint8

const (
	StageOpenToFund Stage = iota
	StageFunded
	StageUnderManagement
	StageLiquidating
	StageLiquidated
)

var stageNames = map[Stage]string{
	StageOpenToFund:      "OpenToFund",
	StageFunded:          "Funded",
	StageUnderManagement: "UnderManagement",
	StageLiquidating:     "Liquidating",
	StageLiquidated:      "Liquidated",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Stage(%d)", uint8(s))
}

// Valid returns true if the stage is one of the known lifecycle stages
func (s Stage) Valid() bool {
	_, ok := stageNames[s]
	return ok
}

// CanAdvanceTo reports whether next is the single forward step from s
func (s Stage) CanAdvanceTo(next Stage) bool {
	return s.Valid() && next.Valid() && next == s+1
}

// CanTransition reports whether moving from one stage to another is legal.
// The only backward move is the platform reversal from Funded to OpenToFund.
func CanTransition(from Stage, to Stage) bool {
	if from.CanAdvanceTo(to) {
		return true
	}
	return from == StageFunded && to == StageOpenToFund
}

// ParseStage returns the stage with the given name
func ParseStage(name string) (Stage, error) {
	for stage, stageName := range stageNames {
		if stageName == name {
			return stage, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown stage %q", ErrInvalidParameter, name)
}

func (s Stage) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: unknown stage %d", ErrInvalidParameter, s)
	}
	return []byte(s.String()), nil
}

func (s *Stage) UnmarshalText(data []byte) error {
	tmpStage, err := ParseStage(string(data))
	if err != nil {
		return err
	}
	*s = tmpStage
	return nil
}
