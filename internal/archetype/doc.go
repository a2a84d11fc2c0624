// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

// Package archetype holds the fixed taste archetypes, the option affinity
// table and the resolver that scores quiz answers against an archetype.
//
// The affinity table maps every quiz option to an integer weight in [0,3]
// per archetype. Resolve turns a user's selections into one normalized
// score per selection (weight / 3) for a single archetype; Rank sums raw
// weights across all archetypes to pick the closest match locally.
//
//	scored := archetype.Resolve(prefs, retro, archetype.DefaultAffinity())
//	ranked := archetype.Rank(prefs, archetype.DefaultRegistry(), archetype.DefaultAffinity())
//
// Everything in this package is pure and safe for concurrent use; the
// registry and table are never mutated after construction.
package archetype
