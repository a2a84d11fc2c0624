// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

package badges

import (
	"context"
	"time"
)

// ViewCategories records that recommendation categories were shown. The
// observed set is cumulative for the life of the engine; once every
// Explorer category has been seen, Explorer unlocks.
func (e *Engine) ViewCategories(ctx context.Context, categories ...string) error {
	e.mu.Lock()
	for _, c := range categories {
		e.viewed[c] = struct{}{}
	}
	complete := true
	for _, c := range ExplorerCategories {
		if _, ok := e.viewed[c]; !ok {
			complete = false
			break
		}
	}
	already := e.state[Explorer].Unlocked
	e.mu.Unlock()

	if !complete || already {
		return nil
	}
	return e.UpdateProgress(ctx, Explorer, 0, true)
}

// ViewedCategories returns how many Explorer categories have been observed.
func (e *Engine) ViewedCategories() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0
	for _, c := range ExplorerCategories {
		if _, ok := e.viewed[c]; ok {
			n++
		}
	}
	return n
}

// Play unlocks Daily Listener.
func (e *Engine) Play(ctx context.Context) error {
	return e.unlockFlag(ctx, DailyListener)
}

// MoodVote unlocks Cultural Critic.
func (e *Engine) MoodVote(ctx context.Context) error {
	return e.unlockFlag(ctx, CulturalCritic)
}

// Share unlocks Social Butterfly.
func (e *Engine) Share(ctx context.Context) error {
	return e.unlockFlag(ctx, SocialButterfly)
}

func (e *Engine) unlockFlag(ctx context.Context, id string) error {
	if b, _ := e.Badge(id); b.Unlocked {
		return nil
	}
	return e.UpdateProgress(ctx, id, 0, true)
}

// Like counts one liked recommendation toward Curator.
func (e *Engine) Like(ctx context.Context) error {
	e.triggerMu.Lock()
	defer e.triggerMu.Unlock()

	b, _ := e.Badge(Curator)
	if b.Unlocked {
		return nil
	}
	next := b.Progress + 1
	return e.UpdateProgress(ctx, Curator, next, next >= CuratorLikes)
}

// RecordEngagement marks today as an engaged day for Streak Seeker.
//
// The streak's last engaged day is the badge's LastUpdated time. A second
// engagement on the same day is ignored; engagement on the following day
// extends the streak; any longer gap restarts it at 1.
func (e *Engine) RecordEngagement(ctx context.Context) error {
	e.triggerMu.Lock()
	defer e.triggerMu.Unlock()

	b, _ := e.Badge(StreakSeeker)
	if b.Unlocked {
		return nil
	}

	run := 1
	if b.Progress > 0 && !b.LastUpdated.IsZero() {
		switch daysBetween(b.LastUpdated, e.now(), e.loc) {
		case 0:
			return nil
		case 1:
			run = b.Progress + 1
		}
	}
	return e.UpdateProgress(ctx, StreakSeeker, run, run >= StreakDays)
}

// daysBetween counts calendar days from a to b in loc.
func daysBetween(a, b time.Time, loc *time.Location) int {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
