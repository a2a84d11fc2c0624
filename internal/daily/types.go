// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

package daily

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tastemirror/internal/archetype"
)

// ErrUnsuccessful is returned when the recommendation service answers with
// a status other than "success".
var ErrUnsuccessful = errors.New("recommendation service reported failure")

// Recommendations maps a top-level category (music, movies, ...) to groups
// of items. Items are kept as raw JSON so cached and fresh results are
// byte-for-byte the same.
type Recommendations map[string][][]json.RawMessage

// Categories returns the top-level category names, sorted.
func (r Recommendations) Categories() []string {
	out := make([]string, 0, len(r))
	for c := range r {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Request is the recommendation fetch payload.
type Request struct {
	Mood        string                `json:"mood"`
	Preferences archetype.Preferences `json:"preferences"`
}

// Fetcher retrieves fresh recommendations. Implementations return an error
// wrapping ErrUnsuccessful when the service reports a non-success status.
type Fetcher interface {
	FetchRecommendations(ctx context.Context, req Request) (Recommendations, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, req Request) (Recommendations, error)

// FetchRecommendations calls f.
func (f FetcherFunc) FetchRecommendations(ctx context.Context, req Request) (Recommendations, error) {
	return f(ctx, req)
}

// CategoryObserver is told which categories a user was shown.
type CategoryObserver interface {
	ViewCategories(ctx context.Context, categories ...string) error
}

// Normalize converts a raw category map into Recommendations. A category
// holding a flat list of items becomes a single group; a list of lists is
// kept as is. An empty list yields no groups.
func Normalize(raw map[string]json.RawMessage) (Recommendations, error) {
	out := make(Recommendations, len(raw))
	for category, data := range raw {
		var elems []json.RawMessage
		if err := json.Unmarshal(data, &elems); err != nil {
			return nil, fmt.Errorf("category %q is not a list: %w", category, err)
		}
		if len(elems) == 0 {
			out[category] = [][]json.RawMessage{}
			continue
		}
		if !isArray(elems[0]) {
			out[category] = [][]json.RawMessage{elems}
			continue
		}

		groups := make([][]json.RawMessage, 0, len(elems))
		for i, e := range elems {
			var group []json.RawMessage
			if err := json.Unmarshal(e, &group); err != nil {
				return nil, fmt.Errorf("category %q group %d is not a list: %w", category, i, err)
			}
			groups = append(groups, group)
		}
		out[category] = groups
	}
	return out, nil
}

func isArray(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}
