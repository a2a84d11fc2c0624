// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

// Package upstream is the HTTP client for the recommendation service.
//
// Two endpoints are used, both POST with JSON bodies:
//
//	/recommendations  {mood, preferences}  -> {status, recommendations}
//	/details          {name, category}     -> {status, details}
//
// Only status "success" counts as success. Every call passes through a
// token-bucket limiter and a circuit breaker.
package upstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/tastemirror/internal/cache"
	"github.com/tomtom215/tastemirror/internal/config"
	"github.com/tomtom215/tastemirror/internal/daily"
	"github.com/tomtom215/tastemirror/internal/logging"
	"github.com/tomtom215/tastemirror/internal/metrics"
)

const (
	statusSuccess = "success"

	endpointRecommendations = "/recommendations"
	endpointDetails         = "/details"

	// maxErrorBodySize caps how much of a failed response is read for logs.
	maxErrorBodySize = 64 * 1024

	detailCacheCapacity = 512
)

// ErrStatus is returned for non-2xx responses.
var ErrStatus = errors.New("unexpected upstream status")

// Client talks to the recommendation service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *breaker
	details    *cache.Cache[Details]
	logger     zerolog.Logger
}

// NewClient creates a Client from cfg.
func NewClient(cfg config.UpstreamConfig) *Client {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, burst),
		breaker:    newBreaker("recommendation-service", cfg.BreakerFailures, cfg.BreakerTimeout),
		details:    cache.New[Details](cfg.DetailCacheTTL, detailCacheCapacity),
		logger:     logging.WithComponent("upstream"),
	}
}

// DetailCache exposes the detail memo so its janitor can be supervised.
func (c *Client) DetailCache() *cache.Cache[Details] {
	return c.details
}

type recommendationsResponse struct {
	Status          string                     `json:"status"`
	Recommendations map[string]json.RawMessage `json:"recommendations"`
}

// FetchRecommendations implements daily.Fetcher. A response whose status is
// not "success" yields an error wrapping daily.ErrUnsuccessful.
func (c *Client) FetchRecommendations(ctx context.Context, req daily.Request) (daily.Recommendations, error) {
	start := time.Now()
	body, err := c.post(ctx, endpointRecommendations, req)
	if err != nil {
		metrics.RecordUpstreamRequest(endpointRecommendations, "error", time.Since(start))
		return nil, err
	}

	var resp recommendationsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		metrics.RecordUpstreamRequest(endpointRecommendations, "error", time.Since(start))
		return nil, fmt.Errorf("decode recommendations: %w", err)
	}
	if resp.Status != statusSuccess || resp.Recommendations == nil {
		metrics.RecordUpstreamRequest(endpointRecommendations, "unsuccessful", time.Since(start))
		return nil, fmt.Errorf("%w: status %q", daily.ErrUnsuccessful, resp.Status)
	}

	recs, err := daily.Normalize(resp.Recommendations)
	if err != nil {
		metrics.RecordUpstreamRequest(endpointRecommendations, "error", time.Since(start))
		return nil, err
	}
	metrics.RecordUpstreamRequest(endpointRecommendations, "success", time.Since(start))
	return recs, nil
}

// post sends payload as JSON to path and returns the 2xx response body.
func (c *Client) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", path, err)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	return c.breaker.execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		if id := logging.RequestIDFromContext(ctx); id != "" {
			req.Header.Set("X-Request-ID", id)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("POST %s: %w", path, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			c.logger.Warn().
				Str("path", path).
				Int("status", resp.StatusCode).
				Bytes("body", readBodyForError(resp.Body)).
				Msg("Recommendation service returned an error status")
			return nil, fmt.Errorf("%w: %d from %s", ErrStatus, resp.StatusCode, path)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read %s response: %w", path, err)
		}
		return body, nil
	})
}

func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}
