// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

package session

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/tastemirror/internal/archetype"
	"github.com/tomtom215/tastemirror/internal/badges"
	"github.com/tomtom215/tastemirror/internal/daily"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestStaticProvider(t *testing.T) {
	t.Parallel()

	if id := (Static{UID: "u1"}).Session(context.Background()); id == nil || id.UID != "u1" {
		t.Errorf("expected u1, got %+v", id)
	}
	if id := (Static{}).Session(context.Background()); id != nil {
		t.Errorf("expected no session, got %+v", id)
	}
}

func TestContextProvider(t *testing.T) {
	t.Parallel()

	var p ContextProvider
	if p.Session(context.Background()) != nil {
		t.Error("expected no identity in bare context")
	}
	ctx := WithIdentity(context.Background(), &Identity{UID: "u2"})
	if id := p.Session(ctx); id == nil || id.UID != "u2" {
		t.Errorf("expected u2, got %+v", id)
	}
	if p.Session(WithIdentity(context.Background(), &Identity{})) != nil {
		t.Error("expected empty uid to mean no session")
	}
}

func TestJWTIssueAndVerify(t *testing.T) {
	t.Parallel()

	v, err := NewJWTVerifier(testSecret)
	if err != nil {
		t.Fatal(err)
	}
	token, err := v.Issue("alice", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	id, err := v.Authenticate(r)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if id.UID != "alice" {
		t.Errorf("expected alice, got %q", id.UID)
	}
}

func TestJWTRejections(t *testing.T) {
	t.Parallel()

	v, _ := NewJWTVerifier(testSecret)
	other, _ := NewJWTVerifier("another-secret-another-secret-xx")
	foreign, _ := other.Issue("mallory", time.Hour)

	expired, _ := NewJWTVerifier(testSecret)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _ := expired.Issue("bob", time.Hour)
	elapsed, _ := v.Issue("carol", -time.Minute)

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "eve"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))

	tests := []struct {
		name   string
		header string
		want   error
	}{
		{"missing header", "", ErrNoCredentials},
		{"wrong scheme", "Basic abc", ErrNoCredentials},
		{"garbage", "Bearer not.a.token", ErrInvalidToken},
		{"wrong secret", "Bearer " + foreign, ErrInvalidToken},
		{"expired", "Bearer " + old, ErrExpiredToken},
		{"ttl elapsed", "Bearer " + elapsed, ErrExpiredToken},
		{"alg none", "Bearer " + none, ErrInvalidToken},
		{"no subject", "Bearer " + noSubject, ErrInvalidToken},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			if _, err := v.Authenticate(r); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestNewJWTVerifierRequiresSecret(t *testing.T) {
	t.Parallel()

	if _, err := NewJWTVerifier(""); err == nil {
		t.Error("expected error for empty secret")
	}
}

func newTestRegistry(idle time.Duration) (*Registry, *badges.MemoryRepository) {
	repo := badges.NewMemoryRepository()
	r := NewRegistry(RegistryConfig{
		Badges:      repo,
		Store:       daily.NewMemoryStore(),
		Location:    time.UTC,
		IdleTimeout: idle,
	})
	return r, repo
}

func TestRegistryGetCreatesOnce(t *testing.T) {
	t.Parallel()

	r, _ := newTestRegistry(time.Hour)
	ctx := context.Background()

	var wg sync.WaitGroup
	got := make([]*Context, 10)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = r.Get(ctx, "alice")
		}(i)
	}
	wg.Wait()

	for i := range got {
		if got[i] != got[0] {
			t.Fatal("expected every caller to share one context")
		}
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 session, got %d", r.Len())
	}
	if r.Get(ctx, "bob") == got[0] {
		t.Error("expected distinct users to get distinct contexts")
	}
}

func TestRegistryLoadsStoredBadges(t *testing.T) {
	t.Parallel()

	r, repo := newTestRegistry(time.Hour)
	ctx := context.Background()
	err := repo.MergeBadgeState(ctx, "alice", badges.Document{
		badges.DailyListener: {Unlocked: true, LastUpdated: time.Now()},
	})
	if err != nil {
		t.Fatal(err)
	}

	sc := r.Get(ctx, "alice")
	if b, _ := sc.Badges.Badge(badges.DailyListener); !b.Unlocked {
		t.Error("expected stored unlock to be loaded")
	}
}

func TestRegistryViewsReachBadgeEngine(t *testing.T) {
	t.Parallel()

	r, repo := newTestRegistry(time.Hour)
	ctx := context.Background()
	sc := r.Get(ctx, "alice")

	fetcher := daily.FetcherFunc(func(context.Context, daily.Request) (daily.Recommendations, error) {
		return daily.Recommendations{"music": {}, "movies": {}, "books": {}, "podcasts": {}}, nil
	})
	if _, err := sc.Daily.GetOrFetch(ctx, "happy", nil, fetcher); err != nil {
		t.Fatal(err)
	}

	if b, _ := sc.Badges.Badge(badges.Explorer); !b.Unlocked {
		t.Error("expected Explorer to unlock after viewing all categories")
	}
	doc, _ := repo.GetBadgeState(ctx, "alice")
	if !doc[badges.Explorer].Unlocked {
		t.Error("expected Explorer unlock to be persisted")
	}
}

func TestRegistryProfile(t *testing.T) {
	t.Parallel()

	r, _ := newTestRegistry(time.Hour)
	sc := r.Get(context.Background(), "alice")
	if _, _, ok := sc.Profile(); ok {
		t.Error("expected no profile before quiz")
	}

	prefs := archetype.Preferences{"genre": {"jazz"}}
	sc.SetProfile(prefs, archetype.RetroReviver)
	got, name, ok := sc.Profile()
	if !ok || name != archetype.RetroReviver || len(got["genre"]) != 1 {
		t.Errorf("unexpected profile %v %q %v", got, name, ok)
	}
}

func TestRegistryEndAndSweep(t *testing.T) {
	t.Parallel()

	r, _ := newTestRegistry(time.Hour)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }
	ctx := context.Background()

	r.Get(ctx, "alice")
	r.Get(ctx, "bob")

	if !r.End("alice") {
		t.Error("expected End to report existing session")
	}
	if r.End("alice") {
		t.Error("expected second End to report nothing")
	}

	now = now.Add(30 * time.Minute)
	r.Get(ctx, "carol")
	now = now.Add(45 * time.Minute)

	if dropped := r.Sweep(); dropped != 1 {
		t.Errorf("expected only bob to expire, dropped %d", dropped)
	}
	if r.Len() != 1 {
		t.Errorf("expected carol to remain, have %d sessions", r.Len())
	}
}
