// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

// Package storage provides BadgerDB-backed persistence for badge documents
// and the day-scoped recommendation key/value cache.
//
// Both stores share one badger instance and are separated by key prefix:
//
//	badges:<uid>   JSON badge document
//	kv:<key>       raw string value
package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/tastemirror/internal/config"
	"github.com/tomtom215/tastemirror/internal/metrics"
)

// ErrClosed is returned by operations on a closed DB.
var ErrClosed = errors.New("storage is closed")

// maxTxnRetries bounds retries of read-merge-write transactions that lose
// a conflict to a concurrent writer.
const maxTxnRetries = 10

// DB wraps a badger database.
type DB struct {
	db           *badger.DB
	inMemory     bool
	discardRatio float64
}

// Open opens the badger database described by cfg.
func Open(cfg config.StorageConfig) (*DB, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", cfg.Path, err)
	}

	ratio := cfg.GCDiscardRatio
	if ratio <= 0 || ratio >= 1 {
		ratio = 0.5
	}
	return &DB{db: db, inMemory: cfg.InMemory, discardRatio: ratio}, nil
}

// OpenInMemory opens a throwaway in-memory database.
func OpenInMemory() (*DB, error) {
	return Open(config.StorageConfig{InMemory: true, GCDiscardRatio: 0.5})
}

// Close flushes and closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// RunGC runs value-log garbage collection until nothing is left to rewrite.
// In-memory databases have no value log and return immediately.
func (d *DB) RunGC() error {
	if d.inMemory {
		return nil
	}
	if d.db.IsClosed() {
		return ErrClosed
	}

	rewrites := 0
	for {
		err := d.db.RunValueLogGC(d.discardRatio)
		if errors.Is(err, badger.ErrNoRewrite) {
			break
		}
		if err != nil {
			metrics.StorageGCRuns.WithLabelValues("error").Inc()
			return fmt.Errorf("run value log GC: %w", err)
		}
		rewrites++
	}

	if rewrites > 0 {
		metrics.StorageGCRuns.WithLabelValues("rewritten").Inc()
	} else {
		metrics.StorageGCRuns.WithLabelValues("noop").Inc()
	}
	return nil
}

// update runs fn in a read-write transaction, retrying on conflicts.
func (d *DB) update(fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxTxnRetries; attempt++ {
		err = d.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * time.Millisecond)
	}
	return err
}
