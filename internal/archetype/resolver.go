// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

package archetype

import "sort"

// Resolve scores every selected option against arch.
//
// Categories are visited in the fixed quiz order and options in selection
// order, so the output is deterministic for a given input. Every selection
// yields exactly one ScoredOption, duplicates included. Options missing from
// the table score 0; categories outside the quiz are ignored.
func Resolve(prefs Preferences, arch Archetype, table Affinity) []ScoredOption {
	scored := make([]ScoredOption, 0, prefs.Count())
	for _, c := range categories {
		for _, opt := range prefs[c.ID] {
			scored = append(scored, ScoredOption{
				Category: c.ID,
				Option:   opt,
				RawScore: float64(table.Weight(opt, arch.Name)) / MaxWeight,
			})
		}
	}
	return scored
}

// Rank totals the affinity weights of all selections per archetype and
// returns every archetype in r ordered by total, highest first. Ties keep
// registry order.
func Rank(prefs Preferences, r *Registry, table Affinity) []ArchetypeScore {
	all := r.All()
	ranked := make([]ArchetypeScore, len(all))

	selections := 0
	for _, c := range categories {
		selections += len(prefs[c.ID])
	}
	best := float64(selections * MaxWeight)

	for i, a := range all {
		total := 0
		for _, c := range categories {
			for _, opt := range prefs[c.ID] {
				total += table.Weight(opt, a.Name)
			}
		}
		ranked[i] = ArchetypeScore{Archetype: a, Total: total}
		if best > 0 {
			ranked[i].Match = float64(total) / best
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Total > ranked[j].Total
	})
	return ranked
}

// Best returns the top-ranked archetype and the full ranking. It reports
// false when no selection carries weight for any archetype, as with no
// selections or only options missing from table.
func Best(prefs Preferences, r *Registry, table Affinity) (Archetype, []ArchetypeScore, bool) {
	ranked := Rank(prefs, r, table)
	if len(ranked) == 0 || ranked[0].Total == 0 {
		return Archetype{}, ranked, false
	}
	return ranked[0].Archetype, ranked, true
}
