// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

// Package daily manages the once-per-day mood recommendations.
//
// Recommendations for a mood are fetched at most once per calendar day and
// cached under recommendations_<M/D/YYYY>_<mood>. Every innermost list is
// shuffled once, when the fresh result is written; later reads return the
// stored order unchanged. Failed fetches write nothing.
package daily

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/tastemirror/internal/archetype"
	"github.com/tomtom215/tastemirror/internal/logging"
	"github.com/tomtom215/tastemirror/internal/metrics"
)

// Well-known keys for the user's current daily selection.
const (
	KeySelectionDate   = "dailyRecommendationsDate"
	KeySelectionRecs   = "dailyRecommendations"
	KeySelectionMood   = "dailyMood"
	recommendationsKey = "recommendations_"
	dateLayout         = "1/2/2006"
)

// CacheKey returns the cache key for mood on the calendar day of t.
func CacheKey(t time.Time, mood string) string {
	return recommendationsKey + t.Format(dateLayout) + "_" + mood
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLocation sets the zone that decides the calendar day.
func WithLocation(loc *time.Location) Option {
	return func(m *Manager) { m.loc = loc }
}

// WithRand sets the shuffle source.
func WithRand(rng Rand) Option {
	return func(m *Manager) { m.rng = rng }
}

// WithObserver sets who is told about viewed categories.
func WithObserver(o CategoryObserver) Option {
	return func(m *Manager) { m.observer = o }
}

// Manager serves daily recommendations from a Store.
type Manager struct {
	store    Store
	observer CategoryObserver
	now      func() time.Time
	loc      *time.Location
	logger   zerolog.Logger
	group    singleflight.Group

	rngMu sync.Mutex
	rng   Rand
}

// NewManager creates a Manager on store.
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		now:    time.Now,
		loc:    time.Local,
		logger: logging.WithComponent("daily"),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // shuffle order, not security
	}
	return m
}

func (m *Manager) today() time.Time {
	return m.now().In(m.loc)
}

// GetOrFetch returns today's recommendations for mood.
//
// A cached entry is returned unchanged. On a miss, fetcher is called with
// mood and prefs; a successful result has each inner list shuffled, is
// stored, and then returned. Concurrent misses for the same key share one
// fetch. A failed fetch leaves the cache untouched and returns the error.
// Every category in the returned result is reported to the observer.
func (m *Manager) GetOrFetch(ctx context.Context, mood string, prefs archetype.Preferences, fetcher Fetcher) (Recommendations, error) {
	key := CacheKey(m.today(), mood)

	data, hit, err := m.store.Get(ctx, key)
	if err != nil {
		m.logger.Warn().Err(err).Str("key", key).Msg("Day cache read failed, fetching")
		hit = false
	}
	metrics.RecordDailyCache(hit)

	if !hit {
		// The shared fetch outlives a caller that gives up so the result
		// can still be cached for the next request.
		flightCtx := context.WithoutCancel(ctx)
		ch := m.group.DoChan(key, func() (interface{}, error) {
			return m.fetchAndStore(flightCtx, key, Request{Mood: mood, Preferences: prefs}, fetcher)
		})
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-ch:
			if res.Err != nil {
				return nil, res.Err
			}
			data = res.Val.(string) //nolint:forcetypeassert // fetchAndStore always returns string
		}
	}

	var recs Recommendations
	if err := json.Unmarshal([]byte(data), &recs); err != nil {
		return nil, fmt.Errorf("decode cached recommendations: %w", err)
	}

	m.observe(ctx, recs)
	return recs, nil
}

func (m *Manager) fetchAndStore(ctx context.Context, key string, req Request, fetcher Fetcher) (string, error) {
	if data, ok, err := m.store.Get(ctx, key); err == nil && ok {
		return data, nil
	}

	recs, err := fetcher.FetchRecommendations(ctx, req)
	if err != nil {
		reason := "transport"
		if errors.Is(err, ErrUnsuccessful) {
			reason = "unsuccessful"
		}
		metrics.DailyFetchFailures.WithLabelValues(reason).Inc()
		return "", fmt.Errorf("fetch recommendations for %q: %w", req.Mood, err)
	}

	m.shuffleAll(recs)

	encoded, err := json.Marshal(recs)
	if err != nil {
		return "", fmt.Errorf("encode recommendations: %w", err)
	}
	if err := m.store.Set(ctx, key, string(encoded)); err != nil {
		metrics.DailyCacheWriteErrors.Inc()
		m.logger.Error().Err(err).Str("key", key).Msg("Day cache write failed")
	}
	return string(encoded), nil
}

func (m *Manager) shuffleAll(recs Recommendations) {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	for _, groups := range recs {
		for _, group := range groups {
			Shuffle(m.rng, group)
		}
	}
}

func (m *Manager) observe(ctx context.Context, recs Recommendations) {
	if m.observer == nil || len(recs) == 0 {
		return
	}
	if err := m.observer.ViewCategories(ctx, recs.Categories()...); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Category view signal failed")
	}
}

// Selection is the user's chosen mood and recommendations for a day.
type Selection struct {
	Date            string          `json:"date"`
	Mood            string          `json:"mood"`
	Recommendations Recommendations `json:"recommendations"`
}

// SaveSelection records mood and recs as today's selection.
func (m *Manager) SaveSelection(ctx context.Context, mood string, recs Recommendations) error {
	encoded, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("encode selection: %w", err)
	}
	today := m.today().Format(dateLayout)
	for _, kv := range [][2]string{
		{KeySelectionRecs, string(encoded)},
		{KeySelectionMood, mood},
		{KeySelectionDate, today},
	} {
		if err := m.store.Set(ctx, kv[0], kv[1]); err != nil {
			return fmt.Errorf("save %s: %w", kv[0], err)
		}
	}
	return nil
}

// RestoreSelection returns today's saved selection. ok is false when
// nothing was saved or the saved selection is from another day.
func (m *Manager) RestoreSelection(ctx context.Context) (sel Selection, ok bool, err error) {
	date, found, err := m.store.Get(ctx, KeySelectionDate)
	if err != nil || !found || date != m.today().Format(dateLayout) {
		return Selection{}, false, err
	}

	mood, _, err := m.store.Get(ctx, KeySelectionMood)
	if err != nil {
		return Selection{}, false, err
	}
	data, found, err := m.store.Get(ctx, KeySelectionRecs)
	if err != nil || !found {
		return Selection{}, false, err
	}

	var recs Recommendations
	if err := json.Unmarshal([]byte(data), &recs); err != nil {
		return Selection{}, false, fmt.Errorf("decode selection: %w", err)
	}
	return Selection{Date: date, Mood: mood, Recommendations: recs}, true, nil
}
