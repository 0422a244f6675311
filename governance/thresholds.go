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
	"context"
	"fmt"

	"github.com/blinklabs-io/deedbridge/common"
	"github.com/blinklabs-io/deedbridge/database"
)

const (
	ThresholdLiquidation    = "liquidationThreshold"
	ThresholdApprovalQuorum = "approvalQuorum"
)

// defaultThresholds are seeded for every newly registered property
var defaultThresholds = map[string]uint64{
	ThresholdLiquidation:    66,
	ThresholdApprovalQuorum: 25,
}

// percentThresholds are the thresholds expressed as a percentage
var percentThresholds = map[string]bool{
	ThresholdLiquidation:    true,
	ThresholdApprovalQuorum: true,
}

// ThresholdRegistry holds the named governance parameters of each property.
// Values are only changed by executing a ThresholdUpdate proposal, and each
// update replaces the stored value.
type ThresholdRegistry struct {
	db *database.Database
}

func (r *ThresholdRegistry) seed(propertyID string, txn *database.Txn) error {
	for name, value := range defaultThresholds {
		if err := r.db.SetThreshold(propertyID, name, value, txn); err != nil {
			return fmt.Errorf("failed to seed threshold %s: %w", name, err)
		}
	}
	return nil
}

// Get returns the value of a named threshold
func (r *ThresholdRegistry) Get(
	_ context.Context,
	propertyID string,
	name string,
) (uint64, error) {
	return r.get(propertyID, name, nil)
}

func (r *ThresholdRegistry) get(
	propertyID string,
	name string,
	txn *database.Txn,
) (uint64, error) {
	threshold, err := r.db.GetThreshold(propertyID, name, txn)
	if err != nil {
		return 0, fmt.Errorf("failed to get threshold: %w", err)
	}
	if threshold == nil {
		return 0, fmt.Errorf(
			"%w: threshold %q of %q",
			common.ErrNotFound,
			name,
			propertyID,
		)
	}
	return threshold.Value, nil
}

// All returns every threshold of a property by name
func (r *ThresholdRegistry) All(
	_ context.Context,
	propertyID string,
) (map[string]uint64, error) {
	thresholds, err := r.db.GetThresholds(propertyID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get thresholds: %w", err)
	}
	ret := make(map[string]uint64, len(thresholds))
	for _, threshold := range thresholds {
		ret[threshold.Name] = threshold.Value
	}
	return ret, nil
}

func validateThreshold(name string, value uint64) error {
	if name == "" {
		return fmt.Errorf(
			"%w: threshold name is required",
			common.ErrInvalidParameter,
		)
	}
	if percentThresholds[name] && value > 100 {
		return fmt.Errorf(
			"%w: %s is a percentage, got %d",
			common.ErrInvalidParameter,
			name,
			value,
		)
	}
	return nil
}

func (r *ThresholdRegistry) set(
	propertyID string,
	name string,
	value uint64,
	txn *database.Txn,
) error {
	if err := validateThreshold(name, value); err != nil {
		return err
	}
	if err := r.db.SetThreshold(propertyID, name, value, txn); err != nil {
		return fmt.Errorf("failed to set threshold: %w", err)
	}
	return nil
}
