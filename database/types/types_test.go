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

package types_test

import (
	"database/sql"
	"database/sql/driver"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/deedbridge/database/types"
)

func TestUint64ScanValue(t *testing.T) {
	testDefs := []struct {
		value    types.Uint64
		expected string
	}{
		{value: 0, expected: "0"},
		{value: 123, expected: "123"},
		{value: types.Uint64(^uint64(0)), expected: "18446744073709551615"},
	}
	for _, testDef := range testDefs {
		var valuer driver.Valuer = testDef.value
		out, err := valuer.Value()
		require.NoError(t, err)
		require.Equal(t, testDef.expected, out)
		var tmpVal types.Uint64
		var scanner sql.Scanner = &tmpVal
		require.NoError(t, scanner.Scan(out))
		require.Equal(t, testDef.value, tmpVal)
		require.NoError(t, scanner.Scan([]byte(testDef.expected)))
		require.Equal(t, testDef.value, tmpVal)
	}
}

func TestUint64ScanWrongType(t *testing.T) {
	var tmpVal types.Uint64
	require.Error(t, tmpVal.Scan(int64(5)))
}

func TestBlobKeys(t *testing.T) {
	require.Equal(t, []byte("msg/abc"), types.MessageBlobKey("abc"))
	require.Equal(
		t,
		[]byte("proposal/prop-1/00000000000000000007"),
		types.ProposalBlobKey("prop-1", 7),
	)
}

func TestUint64Add(t *testing.T) {
	sum, ok := types.Uint64(40).Add(2)
	require.True(t, ok)
	require.Equal(t, types.Uint64(42), sum)
	sum, ok = types.Uint64(^uint64(0)).Add(0)
	require.True(t, ok)
	require.Equal(t, types.Uint64(^uint64(0)), sum)
	_, ok = types.Uint64(^uint64(0)).Add(1)
	require.False(t, ok)
}
