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

import "errors"

var (
	ErrInvalidStageTransition  = errors.New("invalid stage transition")
	ErrWrongStage              = errors.New("action not permitted in current stage")
	ErrNotAuthorized           = errors.New("not authorized")
	ErrAlreadyProcessed        = errors.New("already processed")
	ErrAlreadyRegistered       = errors.New("already registered")
	ErrStalePrice              = errors.New("stale price")
	ErrExtremeMovement         = errors.New("extreme price movement")
	ErrNoPendingChange         = errors.New("no pending stage change")
	ErrStageMismatch           = errors.New("stage mismatch")
	ErrTooSoon                 = errors.New("retry cooldown not elapsed")
	ErrAlreadyVoted            = errors.New("already voted")
	ErrDeadlineNotReached      = errors.New("deadline not reached")
	ErrDeadlinePassed          = errors.New("deadline passed")
	ErrInsufficientVotingPower = errors.New("insufficient voting power")

	ErrNotFound           = errors.New("not found")
	ErrPaused             = errors.New("paused")
	ErrInvalidParameter   = errors.New("invalid parameter")
	ErrInvalidMessage     = errors.New("invalid message")
	ErrProposalNotActive  = errors.New("proposal not active")
	ErrInsufficientShares = errors.New("insufficient shares")
)

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrInvalidStageTransition, "InvalidStageTransition"},
	{ErrWrongStage, "WrongStage"},
	{ErrNotAuthorized, "NotAuthorized"},
	{ErrAlreadyProcessed, "AlreadyProcessed"},
	{ErrAlreadyRegistered, "AlreadyRegistered"},
	{ErrStalePrice, "StalePrice"},
	{ErrExtremeMovement, "ExtremeMovement"},
	{ErrNoPendingChange, "NoPendingChange"},
	{ErrStageMismatch, "StageMismatch"},
	{ErrTooSoon, "TooSoon"},
	{ErrAlreadyVoted, "AlreadyVoted"},
	{ErrDeadlineNotReached, "DeadlineNotReached"},
	{ErrDeadlinePassed, "DeadlinePassed"},
	{ErrInsufficientVotingPower, "InsufficientVotingPower"},
	{ErrNotFound, "NotFound"},
	{ErrPaused, "Paused"},
	{ErrInvalidParameter, "InvalidParameter"},
	{ErrInvalidMessage, "InvalidMessage"},
	{ErrProposalNotActive, "ProposalNotActive"},
	{ErrInsufficientShares, "InsufficientShares"},
}

// ErrorKind returns the stable name of the error kind wrapped by err, or
// "Internal" when err does not wrap any known kind
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, tmpKind := range errorKinds {
		if errors.Is(err, tmpKind.err) {
			return tmpKind.kind
		}
	}
	return "Internal"
}
