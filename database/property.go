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
	"github.com/blinklabs-io/deedbridge/database/models"
)

// readTxn runs fn against txn, or against a short-lived read-only
// transaction when txn is nil
func readTxn[T any](d *Database, txn *Txn, fn func(*Txn) (T, error)) (T, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return fn(txn)
}

// writeTxn runs fn against txn, or in its own read-write transaction when
// txn is nil
func (d *Database) writeTxn(txn *Txn, fn func(*Txn) error) error {
	if txn == nil {
		return d.Transaction(true).Do(fn)
	}
	return fn(txn)
}

// GetProperty returns a property by ID, or nil if it is not registered
func (d *Database) GetProperty(
	propertyID string,
	txn *Txn,
) (*models.Property, error) {
	return readTxn(d, txn, func(txn *Txn) (*models.Property, error) {
		return d.metadata.GetProperty(propertyID, txn.Metadata())
	})
}

// GetProperties returns every registered property
func (d *Database) GetProperties(txn *Txn) ([]models.Property, error) {
	return readTxn(d, txn, func(txn *Txn) ([]models.Property, error) {
		return d.metadata.GetProperties(txn.Metadata())
	})
}

// SetProperty creates or updates a property
func (d *Database) SetProperty(property *models.Property, txn *Txn) error {
	return d.writeTxn(txn, func(txn *Txn) error {
		return d.metadata.SetProperty(property, txn.Metadata())
	})
}
