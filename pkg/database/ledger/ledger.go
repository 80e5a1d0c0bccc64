// Daystreak Core
// Copyright (c) 2026 The Daystreak Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Daystreak Core.
//
// Daystreak Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Daystreak Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Daystreak Core.  If not, see <http://www.gnu.org/licenses/>.

// Package ledger is the durable key-value store backing claim history and the
// clock debug offset. Values are plain strings; timestamps are stored in
// RFC 3339 form. Keys are namespaced by their owners, e.g.
// "rewards.daily.last_index".
package ledger

import (
	"fmt"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

// DBFile is the name of the ledger database inside the data directory.
const DBFile = "daystreak.db"

const bucketLedger = "ledger"

type Ledger struct {
	bdb *bolt.DB
}

// Open opens (creating if needed) the ledger database at path.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}

	err = db.Update(func(txn *bolt.Tx) error {
		_, err := txn.CreateBucketIfNotExists([]byte(bucketLedger))
		if err != nil {
			return fmt.Errorf("failed to create ledger bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to close ledger after setup error: %w", closeErr)
		}
		return nil, err
	}

	return &Ledger{bdb: db}, nil
}

func (l *Ledger) Close() error {
	if err := l.bdb.Close(); err != nil {
		return fmt.Errorf("failed to close ledger database: %w", err)
	}
	return nil
}

// Get returns the value for key and whether it exists.
func (l *Ledger) Get(key string) (string, bool, error) {
	var value string
	var found bool

	err := l.bdb.View(func(txn *bolt.Tx) error {
		v := txn.Bucket([]byte(bucketLedger)).Get([]byte(key))
		if v != nil {
			value = string(v)
			found = true
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to read ledger key %q: %w", key, err)
	}

	return value, found, nil
}

// Set writes a single key.
func (l *Ledger) Set(key, value string) error {
	return l.SetAll(map[string]string{key: value})
}

// SetAll writes every pair in a single transaction. Either all keys are
// persisted or none are; callers rely on this for multi-field records that
// must never be partially written.
func (l *Ledger) SetAll(pairs map[string]string) error {
	err := l.bdb.Update(func(txn *bolt.Tx) error {
		b := txn.Bucket([]byte(bucketLedger))
		for k, v := range pairs {
			if err := b.Put([]byte(k), []byte(v)); err != nil {
				return fmt.Errorf("failed to put ledger key %q: %w", k, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	return nil
}

// Delete removes the given keys in a single transaction. Missing keys are
// not an error.
func (l *Ledger) Delete(keys ...string) error {
	err := l.bdb.Update(func(txn *bolt.Tx) error {
		b := txn.Bucket([]byte(bucketLedger))
		for _, k := range keys {
			if err := b.Delete([]byte(k)); err != nil {
				return fmt.Errorf("failed to delete ledger key %q: %w", k, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete from ledger: %w", err)
	}
	return nil
}

// Flush forces a sync of the database file to disk.
func (l *Ledger) Flush() error {
	if err := l.bdb.Sync(); err != nil {
		return fmt.Errorf("failed to sync ledger database: %w", err)
	}
	return nil
}
