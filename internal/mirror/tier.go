// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

// Package mirror turns scored quiz selections into the "taste mirror": each
// selection is classified into a strength tier with a short narrative line,
// weak matches are split into a mismatch bucket, and the whole reflection
// gets a clarity percentage.
package mirror

import "math"

// Tier is the discrete strength of a selection's match, 0 through 3.
type Tier int

const (
	// TierMismatch marks selections that do not reflect the archetype.
	TierMismatch Tier = iota
	// TierFaint marks a weak but present match.
	TierFaint
	// TierClear marks a solid match.
	TierClear
	// TierStrong marks a defining match.
	TierStrong
)

// Lower bounds for each tier, inclusive.
const (
	faintThreshold  = 0.3
	clearThreshold  = 0.5
	strongThreshold = 0.75
)

// TierFor maps a raw score in [0,1] to its tier.
func TierFor(score float64) Tier {
	switch {
	case score >= strongThreshold:
		return TierStrong
	case score >= clearThreshold:
		return TierClear
	case score >= faintThreshold:
		return TierFaint
	default:
		return TierMismatch
	}
}

// String returns a human-readable name for the tier.
func (t Tier) String() string {
	switch t {
	case TierMismatch:
		return "mismatch"
	case TierFaint:
		return "faint"
	case TierClear:
		return "clear"
	case TierStrong:
		return "strong"
	default:
		return "unknown"
	}
}

// clarity is round(100 * mean(scores)) clamped to [0,100]; 0 for no scores.
func clarity(scores []float64) int {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	c := int(math.Round(100 * sum / float64(len(scores))))
	return min(max(c, 0), 100)
}
