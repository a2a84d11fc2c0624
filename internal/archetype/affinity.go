// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

package archetype

import (
	"fmt"
	"sort"
)

// MaxWeight is the strongest affinity an option can have for an archetype.
const MaxWeight = 3

// Weights maps an archetype name to an affinity weight in [0, MaxWeight].
type Weights map[string]int

// Affinity maps an option label to its per-archetype weights.
// Missing options and missing archetypes both read as weight 0.
type Affinity map[string]Weights

// Weight returns the affinity of option for the named archetype, clamped to
// [0, MaxWeight].
func (a Affinity) Weight(option, archetype string) int {
	w := a[option][archetype]
	switch {
	case w < 0:
		return 0
	case w > MaxWeight:
		return MaxWeight
	default:
		return w
	}
}

// Validate reports the first weight outside [0, MaxWeight] or archetype name
// unknown to r. Options are checked in sorted order so errors are stable.
func (a Affinity) Validate(r *Registry) error {
	options := make([]string, 0, len(a))
	for opt := range a {
		options = append(options, opt)
	}
	sort.Strings(options)

	for _, opt := range options {
		for name, w := range a[opt] {
			if _, ok := r.Lookup(name); !ok {
				return fmt.Errorf("option %q references unknown archetype %q", opt, name)
			}
			if w < 0 || w > MaxWeight {
				return fmt.Errorf("option %q weight %d for %s out of range [0,%d]", opt, w, name, MaxWeight)
			}
		}
	}
	return nil
}

// Quiz category IDs, in the order they are asked and scored.
const (
	CategoryGenre     = "genre"
	CategoryEra       = "era"
	CategoryVibe      = "vibe"
	CategoryFormat    = "format"
	CategoryDiscovery = "discovery"
)

var categories = []Category{
	{
		ID:      CategoryGenre,
		Title:   "Which genres do you reach for?",
		Options: []string{"Jazz", "Pop", "Indie", "Classical", "Hip-Hop", "Folk", "World", "Electronic"},
	},
	{
		ID:      CategoryEra,
		Title:   "Which era feels like home?",
		Options: []string{"Golden Age", "80s & 90s", "2000s", "Brand New", "Timeless"},
	},
	{
		ID:      CategoryVibe,
		Title:   "Pick the vibe you want more of.",
		Options: []string{"Nostalgic", "Energetic", "Thoughtful", "Comforting", "Adventurous"},
	},
	{
		ID:      CategoryFormat,
		Title:   "How do you like to consume?",
		Options: []string{"Vinyl & Print", "Streaming", "Long-form", "Bite-size", "Live"},
	},
	{
		ID:      CategoryDiscovery,
		Title:   "Where do you find new favourites?",
		Options: []string{"Friends", "Charts", "Critics", "Crate Digging", "Algorithms"},
	},
}

// Categories returns the quiz categories in their fixed order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// CategoryIDs returns the ordered category IDs.
func CategoryIDs() []string {
	ids := make([]string, len(categories))
	for i, c := range categories {
		ids[i] = c.ID
	}
	return ids
}

// IsCategory reports whether id is a known quiz category.
func IsCategory(id string) bool {
	for _, c := range categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

var defaultAffinity = Affinity{
	// genre
	"Jazz":       {RetroReviver: 3, DeepDiver: 2, CozyCurator: 1},
	"Pop":        {TrendSetter: 3, CozyCurator: 1},
	"Indie":      {WildWanderer: 2, DeepDiver: 2, TrendSetter: 1},
	"Classical":  {RetroReviver: 2, DeepDiver: 3},
	"Hip-Hop":    {TrendSetter: 3, WildWanderer: 1},
	"Folk":       {CozyCurator: 3, RetroReviver: 2},
	"World":      {WildWanderer: 3, DeepDiver: 1},
	"Electronic": {TrendSetter: 2, WildWanderer: 2},

	// era
	"Golden Age": {RetroReviver: 3, CozyCurator: 1},
	"80s & 90s":  {RetroReviver: 2, CozyCurator: 2},
	"2000s":      {TrendSetter: 1, CozyCurator: 1},
	"Brand New":  {TrendSetter: 3},
	"Timeless":   {DeepDiver: 2, WildWanderer: 1},

	// vibe
	"Nostalgic":   {RetroReviver: 3, CozyCurator: 2},
	"Energetic":   {TrendSetter: 3, WildWanderer: 1},
	"Thoughtful":  {DeepDiver: 3},
	"Comforting":  {CozyCurator: 3},
	"Adventurous": {WildWanderer: 3, TrendSetter: 1},

	// format
	"Vinyl & Print": {RetroReviver: 3, DeepDiver: 1},
	"Streaming":     {TrendSetter: 2, WildWanderer: 1},
	"Long-form":     {DeepDiver: 3, CozyCurator: 1},
	"Bite-size":     {TrendSetter: 2},
	"Live":          {WildWanderer: 2, TrendSetter: 1},

	// discovery
	"Friends":       {CozyCurator: 2, TrendSetter: 1},
	"Charts":        {TrendSetter: 3},
	"Critics":       {DeepDiver: 3, RetroReviver: 1},
	"Crate Digging": {RetroReviver: 3, WildWanderer: 2},
	"Algorithms":    {TrendSetter: 1, WildWanderer: 1},
}

// DefaultAffinity returns the built-in affinity table. Callers must not
// modify it.
func DefaultAffinity() Affinity {
	return defaultAffinity
}
