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

package types

import (
	"fmt"
	"slices"
)

const (
	MessageBlobKeyPrefix  = "msg/"
	ProposalBlobKeyPrefix = "proposal/"
)

// MessageBlobKey returns the blob key for an archived cross-chain message
func MessageBlobKey(messageID string) []byte {
	return slices.Concat(
		[]byte(MessageBlobKeyPrefix),
		[]byte(messageID),
	)
}

// ProposalBlobKey returns the blob key for an archived proposal payload
func ProposalBlobKey(propertyID string, proposalID uint64) []byte {
	return fmt.Appendf(
		[]byte(ProposalBlobKeyPrefix),
		"%s/%020d",
		propertyID,
		proposalID,
	)
}
