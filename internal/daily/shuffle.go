// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

package daily

// Rand is the randomness Shuffle needs. *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// Shuffle permutes items in place with a Fisher-Yates shuffle and returns
// the same slice. For i from the last index down to 1 it swaps items[i]
// with items[j], j drawn uniformly from [0, i].
func Shuffle[T any](rng Rand, items []T) []T {
	for i := len(items) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
	return items
}
