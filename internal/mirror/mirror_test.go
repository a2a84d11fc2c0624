// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

package mirror

import (
	"strings"
	"testing"

	"github.com/tomtom215/tastemirror/internal/archetype"
)

func TestTierFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score float64
		want  Tier
	}{
		{0, TierMismatch},
		{0.2999, TierMismatch},
		{0.3, TierFaint},
		{1.0 / 3, TierFaint},
		{0.4999, TierFaint},
		{0.5, TierClear},
		{2.0 / 3, TierClear},
		{0.7499, TierClear},
		{0.75, TierStrong},
		{1, TierStrong},
	}
	for _, tt := range tests {
		if got := TierFor(tt.score); got != tt.want {
			t.Errorf("TierFor(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestClarity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		scores []float64
		want   int
	}{
		{"empty", nil, 0},
		{"all zero", []float64{0, 0}, 0},
		{"all one", []float64{1, 1, 1}, 100},
		{"thirds", []float64{1.0 / 3, 2.0 / 3}, 50},
		{"rounds half up", []float64{0.125, 0.125}, 13},
		{"clamped high", []float64{3}, 100},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := clarity(tt.scores); got != tt.want {
				t.Errorf("clarity(%v) = %d, want %d", tt.scores, got, tt.want)
			}
		})
	}
}

func TestClassify_JazzRetroReviver(t *testing.T) {
	t.Parallel()

	retro, _ := archetype.DefaultRegistry().Lookup(archetype.RetroReviver)
	scored := archetype.Resolve(archetype.Preferences{archetype.CategoryGenre: {"Jazz"}}, retro, archetype.DefaultAffinity())

	res := Classify(retro.Name, scored, 7)

	if len(res.Items) != 1 || len(res.Mismatches) != 0 {
		t.Fatalf("expected one primary item and no mismatches, got %d/%d", len(res.Items), len(res.Mismatches))
	}
	item := res.Items[0]
	if item.RawScore != 1.0 || item.Tier != TierStrong {
		t.Errorf("Jazz item = score %v tier %v, want 1.0 / strong", item.RawScore, item.Tier)
	}
	if res.Clarity != 100 {
		t.Errorf("Clarity = %d, want 100", res.Clarity)
	}
	if !strings.Contains(item.Text, "Jazz") {
		t.Errorf("narrative should mention the option, got %q", item.Text)
	}
}

func TestClassify_PartitionAndStableOrder(t *testing.T) {
	t.Parallel()

	scored := []archetype.ScoredOption{
		{Category: "genre", Option: "A", RawScore: 1.0 / 3},
		{Category: "genre", Option: "B", RawScore: 0},
		{Category: "era", Option: "C", RawScore: 1},
		{Category: "era", Option: "D", RawScore: 1.0 / 3},
		{Category: "vibe", Option: "E", RawScore: 2.0 / 3},
		{Category: "vibe", Option: "F", RawScore: 1},
		{Category: "format", Option: "G", RawScore: 0},
	}
	res := Classify("RetroReviver", scored, 0)

	gotPrimary := make([]string, len(res.Items))
	for i, it := range res.Items {
		gotPrimary[i] = it.Option
	}
	if strings.Join(gotPrimary, "") != "CFEAD" {
		t.Errorf("primary order = %v, want [C F E A D]", gotPrimary)
	}

	gotMismatch := make([]string, len(res.Mismatches))
	for i, it := range res.Mismatches {
		gotMismatch[i] = it.Option
		if it.Tier != TierMismatch {
			t.Errorf("mismatch bucket holds tier %v", it.Tier)
		}
	}
	if strings.Join(gotMismatch, "") != "BG" {
		t.Errorf("mismatch order = %v, want [B G]", gotMismatch)
	}

	if res.Clarity < 0 || res.Clarity > 100 {
		t.Errorf("Clarity %d out of range", res.Clarity)
	}
}

func TestClassify_Empty(t *testing.T) {
	t.Parallel()

	res := Classify("DeepDiver", nil, 1)
	if res.Clarity != 0 || len(res.Items) != 0 || len(res.Mismatches) != 0 {
		t.Errorf("empty classify = %+v", res)
	}
}

func TestPickTemplate_Pure(t *testing.T) {
	t.Parallel()

	for tier := TierMismatch; tier <= TierStrong; tier++ {
		for seed := int64(-5); seed < 10; seed++ {
			a, b := PickTemplate(tier, seed), PickTemplate(tier, seed)
			if a != b || a == "" {
				t.Fatalf("PickTemplate(%v, %d) not stable: %q vs %q", tier, seed, a, b)
			}
		}
	}
	if PickTemplate(Tier(42), 0) != PickTemplate(TierMismatch, 0) {
		t.Error("unknown tier should fall back to mismatch templates")
	}
}

func TestEngine_SeededIsReproducible(t *testing.T) {
	t.Parallel()

	prefs := archetype.Preferences{
		archetype.CategoryGenre: {"Jazz", "Pop", "Folk"},
		archetype.CategoryVibe:  {"Nostalgic"},
	}
	retro, _ := archetype.DefaultRegistry().Lookup(archetype.RetroReviver)

	a := NewEngine(99).Reflect(prefs, retro, archetype.DefaultAffinity())
	b := NewEngine(99).Reflect(prefs, retro, archetype.DefaultAffinity())

	if len(a.Items) != len(b.Items) {
		t.Fatal("item counts differ between identically seeded engines")
	}
	for i := range a.Items {
		if a.Items[i].Text != b.Items[i].Text {
			t.Errorf("item %d text differs: %q vs %q", i, a.Items[i].Text, b.Items[i].Text)
		}
	}
	if a.Clarity != b.Clarity {
		t.Errorf("clarity differs: %d vs %d", a.Clarity, b.Clarity)
	}
}
