// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

package mirror

import "fmt"

// Templates take the option label as %[1]s and the archetype name as %[2]s.
var templates = map[Tier][]string{
	TierStrong: {
		"%[1]s is pure %[2]s. This one defines you.",
		"Nothing says %[2]s quite like %[1]s.",
		"%[1]s sits at the very heart of your %[2]s taste.",
	},
	TierClear: {
		"%[1]s shows a clear %[2]s streak.",
		"Your pick of %[1]s lines up well with a %[2]s.",
		"%[1]s fits comfortably in the %[2]s world.",
	},
	TierFaint: {
		"%[1]s hints at your %[2]s side.",
		"There's a little %[2]s in choosing %[1]s.",
		"%[1]s brushes against %[2]s territory.",
	},
	TierMismatch: {
		"%[1]s pulls you away from %[2]s.",
		"%[1]s is a surprising pick for a %[2]s.",
		"%[1]s shows a side of you beyond %[2]s.",
	},
}

// PickTemplate returns the narrative template for tier selected by seed.
// It is pure: the same tier and seed always yield the same template.
// Unknown tiers fall back to the mismatch set.
func PickTemplate(tier Tier, seed int64) string {
	set, ok := templates[tier]
	if !ok {
		set = templates[TierMismatch]
	}
	i := seed % int64(len(set))
	if i < 0 {
		i += int64(len(set))
	}
	return set[i]
}

// Narrate renders the template chosen by tier and seed for an option.
func Narrate(tier Tier, seed int64, option, archetypeName string) string {
	return fmt.Sprintf(PickTemplate(tier, seed), option, archetypeName)
}
