// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordDailyCache(t *testing.T) {
	hits := testutil.ToFloat64(DailyCacheHits)
	misses := testutil.ToFloat64(DailyCacheMisses)

	RecordDailyCache(true)
	RecordDailyCache(false)
	RecordDailyCache(false)

	if got := testutil.ToFloat64(DailyCacheHits) - hits; got != 1 {
		t.Errorf("hits delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(DailyCacheMisses) - misses; got != 2 {
		t.Errorf("misses delta = %v, want 2", got)
	}
}

func TestRecordBadgeUnlock(t *testing.T) {
	before := testutil.ToFloat64(BadgeUnlocks.WithLabelValues("curator"))
	RecordBadgeUnlock("curator")
	if got := testutil.ToFloat64(BadgeUnlocks.WithLabelValues("curator")) - before; got != 1 {
		t.Errorf("unlock delta = %v, want 1", got)
	}
}

func TestRecordUpstreamRequest(t *testing.T) {
	before := testutil.ToFloat64(UpstreamRequestsTotal.WithLabelValues("details", "success"))
	RecordUpstreamRequest("details", "success", 120*time.Millisecond)
	if got := testutil.ToFloat64(UpstreamRequestsTotal.WithLabelValues("details", "success")) - before; got != 1 {
		t.Errorf("request delta = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(UpstreamRequestDuration); n == 0 {
		t.Error("expected latency histogram to have series")
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/badges", "200"))
	RecordAPIRequest("GET", "/api/v1/badges", "200", 5*time.Millisecond)
	if got := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/badges", "200")) - before; got != 1 {
		t.Errorf("api delta = %v, want 1", got)
	}
}
