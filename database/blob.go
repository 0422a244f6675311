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

package database

import (
	"errors"

	"github.com/blinklabs-io/deedbridge/database/types"
)

// GetBlob returns the value stored under key, or nil if there is none
func (d *Database) GetBlob(key []byte, txn *Txn) ([]byte, error) {
	return readTxn(d, txn, func(txn *Txn) ([]byte, error) {
		val, err := d.blob.Get(txn.Blob(), key)
		if err != nil {
			if errors.Is(err, types.ErrBlobKeyNotFound) {
				return nil, nil
			}
			return nil, err
		}
		return val, nil
	})
}

func (d *Database) SetBlob(key []byte, val []byte, txn *Txn) error {
	return d.writeTxn(txn, func(txn *Txn) error {
		return d.blob.Set(txn.Blob(), key, val)
	})
}

// IterateBlobs calls fn for every blob whose key starts with prefix
func (d *Database) IterateBlobs(
	prefix []byte,
	fn func(key []byte, val []byte) error,
	txn *Txn,
) error {
	_, err := readTxn(d, txn, func(txn *Txn) (struct{}, error) {
		return struct{}{}, d.blob.Iterate(txn.Blob(), prefix, fn)
	})
	return err
}
