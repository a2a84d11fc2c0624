// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/tastemirror/internal/badges"
	"github.com/tomtom215/tastemirror/internal/config"
)

func createTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("open in-memory badger: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestBadgeStore_MissingDocument(t *testing.T) {
	store := NewBadgeStore(createTestDB(t))

	doc, err := store.GetBadgeState(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc != nil {
		t.Errorf("expected nil document, got %v", doc)
	}
}

func TestBadgeStore_MergeTouchesOnlyGivenBadges(t *testing.T) {
	ctx := context.Background()
	store := NewBadgeStore(createTestDB(t))
	at := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)

	if err := store.MergeBadgeState(ctx, "u1", badges.Document{
		badges.Curator: {Progress: 4, LastUpdated: at},
	}); err != nil {
		t.Fatal(err)
	}
	if err := store.MergeBadgeState(ctx, "u1", badges.Document{
		badges.SocialButterfly: {Unlocked: true, LastUpdated: at.Add(time.Hour)},
	}); err != nil {
		t.Fatal(err)
	}

	doc, err := store.GetBadgeState(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got := doc[badges.Curator]; got.Progress != 4 || !got.LastUpdated.Equal(at) {
		t.Errorf("curator record = %+v", got)
	}
	if !doc[badges.SocialButterfly].Unlocked {
		t.Error("social butterfly should be unlocked")
	}
	if len(doc) != 2 {
		t.Errorf("expected 2 badges in document, got %d", len(doc))
	}

	other, _ := store.GetBadgeState(ctx, "u2")
	if other != nil {
		t.Error("documents must be per user")
	}
}

func TestBadgeStore_UnlockIsSticky(t *testing.T) {
	ctx := context.Background()
	store := NewBadgeStore(createTestDB(t))

	_ = store.MergeBadgeState(ctx, "u1", badges.Document{badges.Curator: {Progress: 10, Unlocked: true}})
	_ = store.MergeBadgeState(ctx, "u1", badges.Document{badges.Curator: {Progress: 3}})

	doc, _ := store.GetBadgeState(ctx, "u1")
	if rec := doc[badges.Curator]; !rec.Unlocked || rec.Progress != 10 {
		t.Errorf("curator regressed: %+v", rec)
	}
}

func TestBadgeStore_ConcurrentMergesAreAtomic(t *testing.T) {
	ctx := context.Background()
	store := NewBadgeStore(createTestDB(t))
	ids := []string{
		badges.Explorer, badges.DailyListener, badges.CulturalCritic,
		badges.SocialButterfly, badges.Curator, badges.StreakSeeker,
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(ids))
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			errs <- store.MergeBadgeState(ctx, "u1", badges.Document{id: {Unlocked: true}})
		}(id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("merge failed: %v", err)
		}
	}

	doc, _ := store.GetBadgeState(ctx, "u1")
	for _, id := range ids {
		if !doc[id].Unlocked {
			t.Errorf("lost concurrent merge for %s", id)
		}
	}
}

func TestBadgeStore_BacksEngine(t *testing.T) {
	ctx := context.Background()
	store := NewBadgeStore(createTestDB(t))

	e := badges.NewEngine(store, badges.StaticIdentity("u1"))
	for i := 0; i < 3; i++ {
		if err := e.Like(ctx); err != nil {
			t.Fatal(err)
		}
	}

	reloaded := badges.NewEngine(store, badges.StaticIdentity("u1"))
	reloaded.Load(ctx)
	if b, _ := reloaded.Badge(badges.Curator); b.Progress != 3 {
		t.Errorf("reloaded curator progress = %d, want 3", b.Progress)
	}
}

func TestKVStore(t *testing.T) {
	ctx := context.Background()
	kv := NewKVStore(createTestDB(t), 0)

	if _, ok, err := kv.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok=%v err=%v", ok, err)
	}

	if err := kv.Set(ctx, "dailyMood", "calm"); err != nil {
		t.Fatal(err)
	}
	v, ok, err := kv.Get(ctx, "dailyMood")
	if err != nil || !ok || v != "calm" {
		t.Fatalf("Get(dailyMood) = %q, %v, %v", v, ok, err)
	}

	if err := kv.Set(ctx, "dailyMood", "happy"); err != nil {
		t.Fatal(err)
	}
	if v, _, _ := kv.Get(ctx, "dailyMood"); v != "happy" {
		t.Errorf("overwrite failed, got %q", v)
	}

	if err := kv.Delete(ctx, "dailyMood"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := kv.Get(ctx, "dailyMood"); ok {
		t.Error("expected key to be deleted")
	}
}

func TestKVStore_DoesNotSeeBadgeKeys(t *testing.T) {
	ctx := context.Background()
	db := createTestDB(t)
	_ = NewBadgeStore(db).MergeBadgeState(ctx, "u1", badges.Document{badges.Explorer: {Unlocked: true}})

	if _, ok, _ := NewKVStore(db, 0).Get(ctx, "u1"); ok {
		t.Error("kv store must not read badge documents")
	}
	if _, ok, _ := NewKVStore(db, 0).Get(ctx, fmt.Sprintf("%s%s", badgeKeyPrefix, "u1")); ok {
		t.Error("kv keys are prefixed separately from badge keys")
	}
}

func TestRunGC(t *testing.T) {
	mem := createTestDB(t)
	if err := mem.RunGC(); err != nil {
		t.Errorf("in-memory GC should be a no-op, got %v", err)
	}

	disk, err := Open(config.StorageConfig{Path: t.TempDir(), GCDiscardRatio: 0.5})
	if err != nil {
		t.Fatalf("open on-disk badger: %v", err)
	}
	defer disk.Close()

	if err := NewKVStore(disk, 0).Set(context.Background(), "k", "v"); err != nil {
		t.Fatal(err)
	}
	if err := disk.RunGC(); err != nil {
		t.Errorf("RunGC on fresh database: %v", err)
	}
}
