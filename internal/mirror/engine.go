// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

package mirror

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/tastemirror/internal/archetype"
)

// Item is one reflected selection.
type Item struct {
	Category string  `json:"category"`
	Option   string  `json:"option"`
	RawScore float64 `json:"raw_score"`
	Tier     Tier    `json:"tier"`
	Text     string  `json:"text"`
}

// Result is the full mirror for one archetype.
type Result struct {
	Archetype string `json:"archetype"`

	// Items holds selections with tier > 0, strongest tier first. Items of
	// equal tier keep their resolver order.
	Items []Item `json:"items"`

	// Mismatches holds tier 0 selections in resolver order.
	Mismatches []Item `json:"mismatches"`

	// Clarity is round(100 * mean raw score) over all selections, 0..100.
	Clarity int `json:"clarity"`
}

// Classify builds the mirror for scored selections. Item i draws its
// narrative with seed+i, so Classify is deterministic for a given seed.
func Classify(archetypeName string, scored []archetype.ScoredOption, seed int64) Result {
	res := Result{
		Archetype:  archetypeName,
		Items:      make([]Item, 0, len(scored)),
		Mismatches: make([]Item, 0),
	}

	scores := make([]float64, len(scored))
	for i, s := range scored {
		scores[i] = s.RawScore
		tier := TierFor(s.RawScore)
		item := Item{
			Category: s.Category,
			Option:   s.Option,
			RawScore: s.RawScore,
			Tier:     tier,
			Text:     Narrate(tier, seed+int64(i), s.Option, archetypeName),
		}
		if tier == TierMismatch {
			res.Mismatches = append(res.Mismatches, item)
			continue
		}
		res.Items = append(res.Items, item)
	}

	sort.SliceStable(res.Items, func(i, j int) bool {
		return res.Items[i].Tier > res.Items[j].Tier
	})
	res.Clarity = clarity(scores)
	return res
}

// Engine produces mirrors with varied narrative text. A fixed seed makes
// the sequence of mirrors reproducible.
type Engine struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine creates an Engine. A zero seed seeds from the clock.
func NewEngine(seed int64) *Engine {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Engine{
		rng: rand.New(rand.NewSource(seed)), //nolint:gosec // narrative variety, not security
	}
}

// Reflect resolves prefs against arch with table and classifies the result.
func (e *Engine) Reflect(prefs archetype.Preferences, arch archetype.Archetype, table archetype.Affinity) Result {
	e.mu.Lock()
	seed := e.rng.Int63()
	e.mu.Unlock()

	return Classify(arch.Name, archetype.Resolve(prefs, arch, table), seed)
}
