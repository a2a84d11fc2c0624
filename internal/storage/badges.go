// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/tastemirror/internal/badges"
)

const badgeKeyPrefix = "badges:"

// BadgeStore implements badges.Repository on badger.
type BadgeStore struct {
	db *DB
}

var _ badges.Repository = (*BadgeStore)(nil)

// NewBadgeStore creates a BadgeStore on db.
func NewBadgeStore(db *DB) *BadgeStore {
	return &BadgeStore{db: db}
}

func badgeKey(userID string) []byte {
	return []byte(badgeKeyPrefix + userID)
}

// GetBadgeState returns the user's badge document. A user with no document
// gets a nil Document and no error.
func (s *BadgeStore) GetBadgeState(_ context.Context, userID string) (badges.Document, error) {
	var doc badges.Document
	err := s.db.db.View(func(txn *badger.Txn) error {
		var err error
		doc, err = readDocument(txn, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// MergeBadgeState merges partial into the user's document inside a single
// transaction. Conflicting concurrent merges are retried.
func (s *BadgeStore) MergeBadgeState(_ context.Context, userID string, partial badges.Document) error {
	return s.db.update(func(txn *badger.Txn) error {
		doc, err := readDocument(txn, userID)
		if err != nil {
			return err
		}
		if doc == nil {
			doc = make(badges.Document, len(partial))
		}
		for id, rec := range partial {
			doc[id] = doc[id].Merge(rec)
		}

		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("marshal badge document: %w", err)
		}
		if err := txn.Set(badgeKey(userID), data); err != nil {
			return fmt.Errorf("set badge document: %w", err)
		}
		return nil
	})
}

func readDocument(txn *badger.Txn, userID string) (badges.Document, error) {
	item, err := txn.Get(badgeKey(userID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get badge document: %w", err)
	}

	var doc badges.Document
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &doc)
	}); err != nil {
		return nil, fmt.Errorf("decode badge document: %w", err)
	}
	return doc, nil
}
