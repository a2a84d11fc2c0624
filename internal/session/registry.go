// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/tastemirror/internal/archetype"
	"github.com/tomtom215/tastemirror/internal/badges"
	"github.com/tomtom215/tastemirror/internal/daily"
	"github.com/tomtom215/tastemirror/internal/logging"
	"github.com/tomtom215/tastemirror/internal/metrics"
)

// Context is one user's live session state.
type Context struct {
	UID    string
	Badges *badges.Engine
	Daily  *daily.Manager

	// loaded gates every Get on the first badge load.
	loaded sync.Once

	mu        sync.RWMutex
	prefs     archetype.Preferences
	archetype string
	lastSeen  time.Time
}

// SetProfile stores the quiz answers and the archetype resolved from them.
func (c *Context) SetProfile(prefs archetype.Preferences, archetypeName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prefs = prefs
	c.archetype = archetypeName
}

// Profile returns the stored preferences and archetype name. ok is false
// until SetProfile has been called.
func (c *Context) Profile() (prefs archetype.Preferences, archetypeName string, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.prefs, c.archetype, c.archetype != ""
}

func (c *Context) touch(now time.Time) {
	c.mu.Lock()
	c.lastSeen = now
	c.mu.Unlock()
}

func (c *Context) idleSince() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSeen
}

// RegistryConfig holds what every session is built from.
type RegistryConfig struct {
	Badges      badges.Repository
	Store       daily.Store
	Location    *time.Location
	IdleTimeout time.Duration
	Publisher   badges.Publisher
	// OnUnlock, if set, is called once per badge unlock.
	OnUnlock func(uid string, b badges.Badge)
}

// Registry creates session contexts on first use and drops them on End or
// after IdleTimeout without activity.
type Registry struct {
	cfg    RegistryConfig
	now    func() time.Time
	logger zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Context
}

// NewRegistry creates an empty Registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Registry{
		cfg:      cfg,
		now:      time.Now,
		logger:   logging.WithComponent("session"),
		sessions: make(map[string]*Context),
	}
}

// Get returns the context for uid, creating it and loading its badges on
// first use.
func (r *Registry) Get(ctx context.Context, uid string) *Context {
	now := r.now()

	r.mu.Lock()
	sc, ok := r.sessions[uid]
	if !ok {
		sc = r.newContext(uid)
		sc.lastSeen = now
		r.sessions[uid] = sc
		metrics.ActiveSessions.Set(float64(len(r.sessions)))
	}
	r.mu.Unlock()

	if ok {
		sc.touch(now)
	}
	sc.loaded.Do(func() {
		sc.Badges.Load(ctx)
		r.logger.Debug().Str("user_id", uid).Msg("Session started")
	})
	return sc
}

func (r *Registry) newContext(uid string) *Context {
	opts := []badges.Option{badges.WithLocation(r.cfg.Location)}
	if r.cfg.Publisher != nil {
		opts = append(opts, badges.WithPublisher(r.cfg.Publisher))
	}
	if r.cfg.OnUnlock != nil {
		onUnlock := r.cfg.OnUnlock
		opts = append(opts, badges.WithUnlockCallback(func(b badges.Badge) { onUnlock(uid, b) }))
	}
	engine := badges.NewEngine(r.cfg.Badges, badges.StaticIdentity(uid), opts...)

	manager := daily.NewManager(
		daily.Namespace(r.cfg.Store, uid+":"),
		daily.WithLocation(r.cfg.Location),
		daily.WithObserver(engine),
	)

	return &Context{UID: uid, Badges: engine, Daily: manager}
}

// End drops the context for uid. It reports whether one existed.
func (r *Registry) End(uid string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[uid]; !ok {
		return false
	}
	delete(r.sessions, uid)
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	r.logger.Debug().Str("user_id", uid).Msg("Session ended")
	return true
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than IdleTimeout and returns how
// many were dropped. A zero IdleTimeout disables expiry.
func (r *Registry) Sweep() int {
	if r.cfg.IdleTimeout <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.cfg.IdleTimeout)

	r.mu.Lock()
	defer r.mu.Unlock()

	dropped := 0
	for uid, sc := range r.sessions {
		if sc.idleSince().Before(cutoff) {
			delete(r.sessions, uid)
			dropped++
		}
	}
	if dropped > 0 {
		metrics.ActiveSessions.Set(float64(len(r.sessions)))
		r.logger.Info().Int("expired", dropped).Msg("Expired idle sessions")
	}
	return dropped
}

// Serve sweeps idle sessions until ctx is cancelled. It satisfies
// suture.Service.
func (r *Registry) Serve(ctx context.Context) error {
	interval := r.cfg.IdleTimeout / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// String names the sweeper in supervisor logs.
func (r *Registry) String() string {
	return "session-sweeper"
}
