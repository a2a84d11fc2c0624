// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

package archetype

import "fmt"

// Archetype names in the default registry.
const (
	RetroReviver = "RetroReviver"
	TrendSetter  = "TrendSetter"
	DeepDiver    = "DeepDiver"
	CozyCurator  = "CozyCurator"
	WildWanderer = "WildWanderer"
)

// Registry is an immutable, ordered set of archetypes.
type Registry struct {
	list   []Archetype
	byName map[string]int
}

// NewRegistry builds a registry. Names must be non-empty and unique.
func NewRegistry(archetypes ...Archetype) (*Registry, error) {
	r := &Registry{
		list:   make([]Archetype, 0, len(archetypes)),
		byName: make(map[string]int, len(archetypes)),
	}
	for _, a := range archetypes {
		if a.Name == "" {
			return nil, fmt.Errorf("archetype name must not be empty")
		}
		if _, dup := r.byName[a.Name]; dup {
			return nil, fmt.Errorf("duplicate archetype %q", a.Name)
		}
		r.byName[a.Name] = len(r.list)
		r.list = append(r.list, a)
	}
	return r, nil
}

// Lookup returns the archetype with the given name.
func (r *Registry) Lookup(name string) (Archetype, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Archetype{}, false
	}
	return r.list[i], true
}

// All returns the archetypes in registry order. The slice is a copy.
func (r *Registry) All() []Archetype {
	out := make([]Archetype, len(r.list))
	copy(out, r.list)
	return out
}

// Names returns archetype names in registry order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.list))
	for i, a := range r.list {
		out[i] = a.Name
	}
	return out
}

// Len returns the number of archetypes.
func (r *Registry) Len() int {
	return len(r.list)
}

var defaultRegistry = mustRegistry(
	Archetype{
		Name:        RetroReviver,
		Color:       "#C9733B",
		Gradient:    [2]string{"#F2A65A", "#C9733B"},
		Description: "Finds new life in classic sounds, stories and styles.",
	},
	Archetype{
		Name:        TrendSetter,
		Color:       "#E8457A",
		Gradient:    [2]string{"#FF8FB1", "#E8457A"},
		Description: "First in line for the newest release and the next big thing.",
	},
	Archetype{
		Name:        DeepDiver,
		Color:       "#3B5BC9",
		Gradient:    [2]string{"#7B9BFF", "#3B5BC9"},
		Description: "Goes past the surface into niche and cerebral work.",
	},
	Archetype{
		Name:        CozyCurator,
		Color:       "#7BA05B",
		Gradient:    [2]string{"#B8D99A", "#7BA05B"},
		Description: "Collects warm, comforting favourites for slow evenings.",
	},
	Archetype{
		Name:        WildWanderer,
		Color:       "#8E44AD",
		Gradient:    [2]string{"#C39BD3", "#8E44AD"},
		Description: "Roams across genres and cultures chasing the unfamiliar.",
	},
)

func mustRegistry(archetypes ...Archetype) *Registry {
	r, err := NewRegistry(archetypes...)
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultRegistry returns the built-in archetype registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}
