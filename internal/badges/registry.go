// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

// Package badges implements the gamified badge progression engine.
//
// Badges come in three kinds. Flag badges unlock on a single qualifying
// event. Progress badges count toward a maximum and unlock on reaching it.
// The single meta badge, Badge Hunter, is derived from how many other
// badges are unlocked and is recomputed after every unlock.
//
// Per-user state lives in a Repository document keyed by badge ID. The
// Engine keeps an in-memory copy for one session, merges one badge at a
// time into the document, and fires unlock notifications exactly once per
// locked-to-unlocked transition.
package badges

import "fmt"

// Kind discriminates how a badge progresses.
type Kind int

const (
	// KindFlag badges unlock on one qualifying event and carry no progress.
	KindFlag Kind = iota
	// KindProgress badges unlock when progress reaches MaxProgress.
	KindProgress
	// KindMeta badges derive their progress from other badges.
	KindMeta
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindFlag:
		return "flag"
	case KindProgress:
		return "progress"
	case KindMeta:
		return "meta"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "flag":
		*k = KindFlag
	case "progress":
		*k = KindProgress
	case "meta":
		*k = KindMeta
	default:
		return fmt.Errorf("unknown badge kind %q", text)
	}
	return nil
}

// Badge IDs.
const (
	Explorer        = "explorer"
	DailyListener   = "daily_listener"
	CulturalCritic  = "cultural_critic"
	SocialButterfly = "social_butterfly"
	Curator         = "curator"
	StreakSeeker    = "streak_seeker"
	BadgeHunter     = "badge_hunter"
)

// Progress targets.
const (
	CuratorLikes       = 10
	StreakDays         = 3
	HunterUnlockTarget = 5
)

// ExplorerCategories must all be viewed to unlock Explorer.
var ExplorerCategories = []string{"music", "movies", "books", "podcasts"}

// Definition is the immutable description of a badge. None of its fields
// are persisted.
type Definition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Emoji       string `json:"emoji"`
	Description string `json:"description"`
	Trigger     string `json:"trigger"`
	Kind        Kind   `json:"kind"`

	// MaxProgress is the unlock target for progress and meta badges, 0 for flags.
	MaxProgress int `json:"maxProgress,omitempty"`
}

var definitions = []Definition{
	{
		ID:          Explorer,
		Name:        "Explorer",
		Emoji:       "🧭",
		Description: "Explore recommendations across every category.",
		Trigger:     "View music, movies, books and podcasts recommendations",
		Kind:        KindFlag,
	},
	{
		ID:          DailyListener,
		Name:        "Daily Listener",
		Emoji:       "🎧",
		Description: "Play something from your daily recommendations.",
		Trigger:     "Play a recommended track",
		Kind:        KindFlag,
	},
	{
		ID:          CulturalCritic,
		Name:        "Cultural Critic",
		Emoji:       "🎭",
		Description: "Tell us how you feel today.",
		Trigger:     "Vote on your daily mood",
		Kind:        KindFlag,
	},
	{
		ID:          SocialButterfly,
		Name:        "Social Butterfly",
		Emoji:       "🦋",
		Description: "Share a recommendation with a friend.",
		Trigger:     "Share a recommendation",
		Kind:        KindFlag,
	},
	{
		ID:          Curator,
		Name:        "Curator",
		Emoji:       "🗂️",
		Description: "Build a collection of favourites.",
		Trigger:     "Like 10 recommendations",
		Kind:        KindProgress,
		MaxProgress: CuratorLikes,
	},
	{
		ID:          StreakSeeker,
		Name:        "Streak Seeker",
		Emoji:       "🔥",
		Description: "Come back day after day.",
		Trigger:     "Engage 3 days in a row",
		Kind:        KindProgress,
		MaxProgress: StreakDays,
	},
	{
		ID:          BadgeHunter,
		Name:        "Badge Hunter",
		Emoji:       "🏆",
		Description: "Collect a cabinet full of badges.",
		Trigger:     "Unlock 5 other badges",
		Kind:        KindMeta,
		MaxProgress: HunterUnlockTarget,
	},
}

// Definitions returns all badge definitions in display order.
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// Lookup returns the definition for id.
func Lookup(id string) (Definition, bool) {
	for _, d := range definitions {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}

// clampProgress keeps progress within [0, MaxProgress]. Flag badges have no
// progress.
func (d Definition) clampProgress(progress int) int {
	if d.Kind == KindFlag || progress < 0 {
		return 0
	}
	return min(progress, d.MaxProgress)
}
