// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

package services

import (
	"context"
	"time"

	"github.com/tomtom215/tastemirror/internal/logging"
)

// GarbageCollector is satisfied by *storage.DB.
type GarbageCollector interface {
	RunGC() error
}

// GCService runs badger value-log GC on a fixed interval.
type GCService struct {
	db       GarbageCollector
	interval time.Duration
}

// NewGCService returns a service collecting db every interval.
// A non-positive interval means 10 minutes.
func NewGCService(db GarbageCollector, interval time.Duration) *GCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &GCService{db: db, interval: interval}
}

// Serve implements suture.Service. GC errors are logged and the loop keeps
// going; the next tick retries.
func (s *GCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.db.RunGC(); err != nil {
				logging.Warn().Err(err).Msg("Storage GC failed")
			}
		}
	}
}

func (s *GCService) String() string {
	return "storage-gc"
}
