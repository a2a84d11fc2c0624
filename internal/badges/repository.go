// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

package badges

import (
	"context"
	"sync"
	"time"
)

// Record is the persisted per-user state of one badge.
type Record struct {
	Progress    int       `json:"progress"`
	Unlocked    bool      `json:"unlocked"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Document is a user's badge state keyed by badge ID. A missing key means
// the badge is locked with no progress.
type Document map[string]Record

// Merge folds next into r. Unlocked is sticky: once r is unlocked a later
// write cannot lock it again or lower its progress.
func (r Record) Merge(next Record) Record {
	merged := Record{
		Progress:    next.Progress,
		Unlocked:    r.Unlocked || next.Unlocked,
		LastUpdated: next.LastUpdated,
	}
	if r.Unlocked {
		merged.Progress = max(r.Progress, next.Progress)
	}
	return merged
}

// Repository persists badge documents.
//
// MergeBadgeState must apply each entry of partial with Record.Merge
// atomically with respect to concurrent merges for the same user, and must
// leave badges absent from partial untouched.
type Repository interface {
	GetBadgeState(ctx context.Context, userID string) (Document, error)
	MergeBadgeState(ctx context.Context, userID string, partial Document) error
}

// MemoryRepository is an in-process Repository, used in tests and when
// persistence is disabled.
type MemoryRepository struct {
	mu   sync.Mutex
	docs map[string]Document
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{docs: make(map[string]Document)}
}

// GetBadgeState returns a copy of the user's document, or nil if absent.
func (m *MemoryRepository) GetBadgeState(_ context.Context, userID string) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[userID]
	if !ok {
		return nil, nil
	}
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out, nil
}

// MergeBadgeState merges partial into the user's document.
func (m *MemoryRepository) MergeBadgeState(_ context.Context, userID string, partial Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[userID]
	if !ok {
		doc = make(Document, len(partial))
		m.docs[userID] = doc
	}
	for id, rec := range partial {
		doc[id] = doc[id].Merge(rec)
	}
	return nil
}
