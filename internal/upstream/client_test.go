// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

package upstream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/tastemirror/internal/archetype"
	"github.com/tomtom215/tastemirror/internal/config"
	"github.com/tomtom215/tastemirror/internal/daily"
)

func testConfig(url string) config.UpstreamConfig {
	return config.UpstreamConfig{
		BaseURL:         url,
		Timeout:         2 * time.Second,
		DetailCacheTTL:  time.Minute,
		BreakerFailures: 3,
		BreakerTimeout:  time.Minute,
	}
}

func TestFetchRecommendations(t *testing.T) {
	t.Parallel()

	var got daily.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/recommendations" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"status":"success","recommendations":{
			"music":[{"name":"Kind of Blue"},{"name":"Blue Train"}],
			"movies":[[{"name":"Heat"}],[{"name":"Ran"},{"name":"Alien"}]]}}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	prefs := archetype.Preferences{"genre": {"jazz"}}
	recs, err := c.FetchRecommendations(context.Background(), daily.Request{Mood: "calm", Preferences: prefs})
	if err != nil {
		t.Fatalf("FetchRecommendations: %v", err)
	}

	if got.Mood != "calm" {
		t.Errorf("expected mood calm in request, got %q", got.Mood)
	}
	if diff := cmp.Diff(prefs, got.Preferences); diff != "" {
		t.Errorf("preferences mismatch (-want +got):\n%s", diff)
	}
	if len(recs["music"]) != 1 || len(recs["music"][0]) != 2 {
		t.Errorf("expected flat music list wrapped as one group, got %v", recs["music"])
	}
	if len(recs["movies"]) != 2 {
		t.Errorf("expected 2 movie groups, got %d", len(recs["movies"]))
	}
}

func TestFetchRecommendationsFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"status error", http.StatusOK, `{"status":"error"}`, daily.ErrUnsuccessful},
		{"missing payload", http.StatusOK, `{"status":"success"}`, daily.ErrUnsuccessful},
		{"server error", http.StatusInternalServerError, `boom`, ErrStatus},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(testConfig(srv.URL)).FetchRecommendations(context.Background(), daily.Request{Mood: "sad"})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	t.Run("malformed json", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{not json`))
		}))
		defer srv.Close()

		_, err := NewClient(testConfig(srv.URL)).FetchRecommendations(context.Background(), daily.Request{Mood: "sad"})
		if err == nil || errors.Is(err, daily.ErrUnsuccessful) {
			t.Errorf("expected decode error, got %v", err)
		}
	})
}

func TestFetchDetailsNormalizesAndCaches(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req DetailsRequest
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &req)
		if req.Name != "Heat" || req.Category != "movies" {
			t.Errorf("unexpected details request %+v", req)
		}
		_, _ = w.Write([]byte(`{"status":"success","details":{"title":"Heat","genrre":"crime"}}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	for i := 0; i < 2; i++ {
		d, err := c.FetchDetails(context.Background(), "Heat", "movies")
		if err != nil {
			t.Fatalf("FetchDetails: %v", err)
		}
		want := Details{"title": "Heat", "genre": "crime"}
		if diff := cmp.Diff(want, d); diff != "" {
			t.Errorf("details mismatch (-want +got):\n%s", diff)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("expected memoized second lookup, got %d upstream calls", calls.Load())
	}
}

func TestNormalizeDetails(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   Details
		want Details
	}{
		{"typo only", Details{"genrre": "jazz"}, Details{"genre": "jazz"}},
		{"both keys keep genre", Details{"genrre": "x", "genre": "jazz"}, Details{"genre": "jazz"}},
		{"no typo", Details{"genre": "jazz", "year": 1959.0}, Details{"genre": "jazz", "year": 1959.0}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if diff := cmp.Diff(tt.want, NormalizeDetails(tt.in)); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestDetailsOrFallback(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error"}`))
	}))
	defer srv.Close()

	d := NewClient(testConfig(srv.URL)).DetailsOrFallback(context.Background(), "Nope", "books")
	if !d.IsUnavailable() {
		t.Errorf("expected unavailable sentinel, got %v", d)
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	for i := 0; i < 3; i++ {
		if _, err := c.FetchRecommendations(context.Background(), daily.Request{Mood: "x"}); !errors.Is(err, ErrStatus) {
			t.Fatalf("call %d: expected status error, got %v", i, err)
		}
	}

	_, err := c.FetchRecommendations(context.Background(), daily.Request{Mood: "x"})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected open circuit, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected open circuit to short-circuit, got %d calls", calls.Load())
	}
	if c.breaker.state() != gobreaker.StateOpen {
		t.Errorf("expected open state, got %v", c.breaker.state())
	}
}

func TestRateLimitRespectsContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success","recommendations":{}}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.RequestsPerSecond = 0.001
	cfg.Burst = 1
	c := NewClient(cfg)

	if _, err := c.FetchRecommendations(context.Background(), daily.Request{Mood: "a"}); err != nil {
		t.Fatalf("first call should use the burst token: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.FetchRecommendations(ctx, daily.Request{Mood: "b"}); err == nil {
		t.Error("expected rate limiter to refuse the second call")
	}
}
