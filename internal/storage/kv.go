// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const kvKeyPrefix = "kv:"

// KVStore is a string key/value store on badger. Entries optionally expire.
type KVStore struct {
	db  *DB
	ttl time.Duration
}

// NewKVStore creates a KVStore. A positive ttl makes every entry expire
// after that long; zero keeps entries forever.
func NewKVStore(db *DB, ttl time.Duration) *KVStore {
	return &KVStore{db: db, ttl: ttl}
}

// Get returns the value for key and whether it exists.
func (s *KVStore) Get(_ context.Context, key string) (string, bool, error) {
	var value string
	found := false
	err := s.db.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(kvKeyPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get %q: %w", key, err)
		}
		found = true
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	if err != nil {
		return "", false, err
	}
	return value, found, nil
}

// Set stores value under key.
func (s *KVStore) Set(_ context.Context, key, value string) error {
	return s.db.update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(kvKeyPrefix+key), []byte(value))
		if s.ttl > 0 {
			entry = entry.WithTTL(s.ttl)
		}
		if err := txn.SetEntry(entry); err != nil {
			return fmt.Errorf("set %q: %w", key, err)
		}
		return nil
	})
}

// Delete removes key. Deleting a missing key is not an error.
func (s *KVStore) Delete(_ context.Context, key string) error {
	return s.db.update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(kvKeyPrefix + key))
	})
}
