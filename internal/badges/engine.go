// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

package badges

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/tastemirror/internal/logging"
	"github.com/tomtom215/tastemirror/internal/metrics"
)

// ErrUnknownBadge is returned for badge IDs outside the registry.
var ErrUnknownBadge = errors.New("unknown badge")

// Badge is a definition together with one user's state.
type Badge struct {
	Definition
	Unlocked    bool      `json:"unlocked"`
	Progress    int       `json:"progress"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// IdentityFunc reports the session user ID. ok is false when no user is
// signed in, which turns every persistence call into a no-op.
type IdentityFunc func(ctx context.Context) (uid string, ok bool)

// StaticIdentity returns an IdentityFunc for a fixed user. An empty uid
// means no session.
func StaticIdentity(uid string) IdentityFunc {
	return func(context.Context) (string, bool) {
		return uid, uid != ""
	}
}

// UnlockEvent describes a badge transitioning from locked to unlocked.
type UnlockEvent struct {
	UserID     string    `json:"user_id"`
	BadgeID    string    `json:"badge_id"`
	Name       string    `json:"name"`
	Emoji      string    `json:"emoji"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

// Publisher forwards unlock events beyond the in-process callback.
type Publisher interface {
	PublishUnlock(ctx context.Context, ev UnlockEvent) error
}

// Option configures an Engine.
type Option func(*Engine)

// WithUnlockCallback sets the function invoked once per unlock transition.
// It runs synchronously on the goroutine that caused the unlock.
func WithUnlockCallback(fn func(Badge)) Option {
	return func(e *Engine) { e.onUnlock = fn }
}

// WithPublisher sets a Publisher for unlock events.
func WithPublisher(p Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the zone used to decide calendar days for streaks.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) { e.loc = loc }
}

// WithLogger sets the engine logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// Engine tracks one session's badges.
//
// In-memory state is guarded by mu; repository calls happen outside it.
// Unlock detection is done when a write is applied to memory, so two
// updates racing to unlock the same badge fire the callback once.
type Engine struct {
	repo      Repository
	identity  IdentityFunc
	onUnlock  func(Badge)
	publisher Publisher
	now       func() time.Time
	loc       *time.Location
	logger    zerolog.Logger

	mu     sync.Mutex
	state  map[string]Record
	viewed map[string]struct{}

	// triggerMu serializes read-compute-write trigger sequences (likes,
	// streaks) so increments are not lost.
	triggerMu sync.Mutex

	// hunterMu keeps the Badge Hunter count and its write together so a
	// stale count never lands after a newer one.
	hunterMu sync.Mutex
}

// NewEngine creates an Engine with all badges locked. Call Load to pull
// stored state.
func NewEngine(repo Repository, identity IdentityFunc, opts ...Option) *Engine {
	e := &Engine{
		repo:     repo,
		identity: identity,
		now:      time.Now,
		loc:      time.Local,
		logger:   logging.WithComponent("badges"),
		state:    make(map[string]Record, len(definitions)),
		viewed:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.identity == nil {
		e.identity = StaticIdentity("")
	}
	return e
}

// Load reads the user's document and merges it over the registry defaults.
// Read failures and a missing session leave every badge at its default.
func (e *Engine) Load(ctx context.Context) []Badge {
	uid, ok := e.identity(ctx)
	if !ok {
		return e.Badges()
	}

	doc, err := e.repo.GetBadgeState(ctx, uid)
	if err != nil {
		metrics.BadgeReadErrors.Inc()
		e.logger.Warn().Err(err).Str("user_id", uid).Msg("Badge read failed, using defaults")
		return e.Badges()
	}

	e.mu.Lock()
	for _, d := range definitions {
		rec, found := doc[d.ID]
		if !found {
			continue
		}
		rec.Progress = d.clampProgress(rec.Progress)
		e.state[d.ID] = rec
	}
	e.mu.Unlock()

	// The stored Hunter record can lag behind if its write failed earlier.
	if err := e.refreshHunter(ctx); err != nil {
		e.logger.Warn().Err(err).Str("user_id", uid).Msg("Badge Hunter refresh failed")
	}

	return e.Badges()
}

// Badges returns every badge with current state, in registry order.
func (e *Engine) Badges() []Badge {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Badge, len(definitions))
	for i, d := range definitions {
		out[i] = e.badgeLocked(d)
	}
	return out
}

// Badge returns one badge with current state.
func (e *Engine) Badge(id string) (Badge, bool) {
	d, ok := Lookup(id)
	if !ok {
		return Badge{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.badgeLocked(d), true
}

// UnlockedCount returns how many non-meta badges are unlocked.
func (e *Engine) UnlockedCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.unlockedCountLocked()
}

func (e *Engine) badgeLocked(d Definition) Badge {
	rec := e.state[d.ID]
	return Badge{
		Definition:  d,
		Unlocked:    rec.Unlocked,
		Progress:    rec.Progress,
		LastUpdated: rec.LastUpdated,
	}
}

func (e *Engine) unlockedCountLocked() int {
	n := 0
	for _, d := range definitions {
		if d.Kind != KindMeta && e.state[d.ID].Unlocked {
			n++
		}
	}
	return n
}

// UpdateProgress sets one badge's progress and unlocked flag.
//
// The record is merged into the user's document first, then applied to
// memory. A failed merge is logged and the in-memory update still happens.
// Without a session the call does nothing. Unlocking a non-meta badge
// recomputes Badge Hunter.
func (e *Engine) UpdateProgress(ctx context.Context, id string, progress int, unlocked bool) error {
	d, ok := Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownBadge, id)
	}

	uid, ok := e.identity(ctx)
	if !ok {
		logging.Ctx(ctx).Debug().Str("badge", id).Msg("No session, badge update skipped")
		return nil
	}

	progress = d.clampProgress(progress)
	if unlocked && d.Kind != KindFlag {
		progress = d.MaxProgress
	}
	rec := Record{Progress: progress, Unlocked: unlocked, LastUpdated: e.now()}

	if err := e.repo.MergeBadgeState(ctx, uid, Document{id: rec}); err != nil {
		metrics.RecordBadgeWriteError(id)
		e.logger.Error().Err(err).Str("user_id", uid).Str("badge", id).Msg("Badge write failed, keeping in-memory state")
	}

	badge, newlyUnlocked := e.apply(d, rec)
	if !newlyUnlocked {
		return nil
	}

	e.notifyUnlock(ctx, uid, badge)
	if d.Kind != KindMeta {
		return e.refreshHunter(ctx)
	}
	return nil
}

// apply writes rec into memory and reports whether it unlocked the badge.
func (e *Engine) apply(d Definition, rec Record) (Badge, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cur := e.state[d.ID]
	next := cur.Merge(rec)
	e.state[d.ID] = next
	return e.badgeLocked(d), !cur.Unlocked && next.Unlocked
}

// refreshHunter derives Badge Hunter from the unlocked count and writes it
// when it differs from the current record.
func (e *Engine) refreshHunter(ctx context.Context) error {
	e.hunterMu.Lock()
	defer e.hunterMu.Unlock()

	e.mu.Lock()
	count := e.unlockedCountLocked()
	cur := e.state[BadgeHunter]
	e.mu.Unlock()

	want := min(count, HunterUnlockTarget)
	unlock := count >= HunterUnlockTarget
	if cur.Unlocked || (cur.Progress == want && !unlock) {
		return nil
	}
	return e.UpdateProgress(ctx, BadgeHunter, want, unlock)
}

func (e *Engine) notifyUnlock(ctx context.Context, uid string, b Badge) {
	metrics.RecordBadgeUnlock(b.ID)
	e.logger.Info().Str("user_id", uid).Str("badge", b.ID).Msg("Badge unlocked")

	if e.onUnlock != nil {
		e.onUnlock(b)
	}
	if e.publisher == nil {
		return
	}
	ev := UnlockEvent{
		UserID:     uid,
		BadgeID:    b.ID,
		Name:       b.Name,
		Emoji:      b.Emoji,
		UnlockedAt: b.LastUpdated,
	}
	if err := e.publisher.PublishUnlock(ctx, ev); err != nil {
		e.logger.Warn().Err(err).Str("badge", b.ID).Msg("Unlock event publish failed")
	}
}
