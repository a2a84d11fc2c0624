// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

package archetype

// Archetype is a named taste profile. Name is the unique key used by the
// affinity table and by the remote archetype service.
type Archetype struct {
	// Name is the unique key, e.g. "RetroReviver".
	Name string `json:"name"`

	// Color is the primary display color as a hex string.
	Color string `json:"color"`

	// Gradient is the start and end color used behind the archetype card.
	Gradient [2]string `json:"gradient"`

	// Description is a one-sentence summary shown to the user.
	Description string `json:"description"`
}

// Category is one quiz question and the options a user may select.
type Category struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Options []string `json:"options"`
}

// Preferences maps a category ID to the option labels selected for it, in
// the order the user picked them. Labels may repeat.
type Preferences map[string][]string

// ScoredOption is one selected option scored against a single archetype.
type ScoredOption struct {
	Category string `json:"category"`
	Option   string `json:"option"`

	// RawScore is weight / MaxWeight, in [0,1].
	RawScore float64 `json:"raw_score"`
}

// ArchetypeScore is an archetype's total affinity over all selections.
type ArchetypeScore struct {
	Archetype Archetype `json:"archetype"`

	// Total is the sum of integer weights over every selection.
	Total int `json:"total"`

	// Match is Total divided by the best possible total, in [0,1].
	Match float64 `json:"match"`
}

// Count returns the number of selections across all categories.
func (p Preferences) Count() int {
	n := 0
	for _, opts := range p {
		n += len(opts)
	}
	return n
}
