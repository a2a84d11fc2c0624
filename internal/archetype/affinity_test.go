// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

package archetype

import (
	"strings"
	"testing"
)

func TestDefaultAffinityIsValid(t *testing.T) {
	t.Parallel()

	if err := DefaultAffinity().Validate(DefaultRegistry()); err != nil {
		t.Fatalf("default affinity invalid: %v", err)
	}
}

func TestEveryQuizOptionHasAffinity(t *testing.T) {
	t.Parallel()

	table := DefaultAffinity()
	for _, c := range Categories() {
		for _, opt := range c.Options {
			if _, ok := table[opt]; !ok {
				t.Errorf("option %q in %s has no affinity row", opt, c.ID)
			}
		}
	}
}

func TestAffinityWeight(t *testing.T) {
	t.Parallel()

	table := Affinity{
		"Jazz":  {RetroReviver: 3},
		"Noise": {RetroReviver: 7, DeepDiver: -2},
	}
	tests := []struct {
		option, archetype string
		want              int
	}{
		{"Jazz", RetroReviver, 3},
		{"Jazz", DeepDiver, 0},
		{"Missing", RetroReviver, 0},
		{"Noise", RetroReviver, MaxWeight},
		{"Noise", DeepDiver, 0},
	}
	for _, tt := range tests {
		if got := table.Weight(tt.option, tt.archetype); got != tt.want {
			t.Errorf("Weight(%q, %q) = %d, want %d", tt.option, tt.archetype, got, tt.want)
		}
	}
}

func TestAffinityValidateRejects(t *testing.T) {
	t.Parallel()

	err := Affinity{"Jazz": {RetroReviver: 4}}.Validate(DefaultRegistry())
	if err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Errorf("expected range error, got %v", err)
	}
	err = Affinity{"Jazz": {"Nobody": 1}}.Validate(DefaultRegistry())
	if err == nil || !strings.Contains(err.Error(), "unknown archetype") {
		t.Errorf("expected unknown archetype error, got %v", err)
	}
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	t.Parallel()

	if _, err := NewRegistry(Archetype{Name: "A"}, Archetype{Name: "A"}); err == nil {
		t.Error("expected duplicate error")
	}
	if _, err := NewRegistry(Archetype{}); err == nil {
		t.Error("expected empty name error")
	}
}

func TestCategoryIDsOrder(t *testing.T) {
	t.Parallel()

	want := []string{CategoryGenre, CategoryEra, CategoryVibe, CategoryFormat, CategoryDiscovery}
	got := CategoryIDs()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("CategoryIDs()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if !IsCategory(CategoryVibe) || IsCategory("shoe_size") {
		t.Error("IsCategory mismatch")
	}
}
