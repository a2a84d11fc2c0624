// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

package upstream

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tastemirror/internal/cache"
	"github.com/tomtom215/tastemirror/internal/daily"
	"github.com/tomtom215/tastemirror/internal/logging"
	"github.com/tomtom215/tastemirror/internal/metrics"
)

// Details is the free-form description of one recommended item.
type Details map[string]interface{}

// UnavailableMessage is shown in place of details that could not be loaded.
const UnavailableMessage = "Details are unavailable right now."

// Unavailable returns the sentinel payload used when details cannot be
// fetched.
func Unavailable() Details {
	return Details{"error": UnavailableMessage}
}

// IsUnavailable reports whether d is the sentinel payload.
func (d Details) IsUnavailable() bool {
	msg, ok := d["error"].(string)
	return ok && msg == UnavailableMessage && len(d) == 1
}

// DetailsRequest identifies one item.
type DetailsRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

type detailsResponse struct {
	Status  string  `json:"status"`
	Details Details `json:"details"`
}

// FetchDetails returns details for the named item. Successful results are
// memoized for the configured detail TTL.
func (c *Client) FetchDetails(ctx context.Context, name, category string) (Details, error) {
	req := DetailsRequest{Name: name, Category: category}
	key := cache.GenerateKey("details", req)
	if d, ok := c.details.Get(key); ok {
		metrics.DetailCacheHits.Inc()
		return d, nil
	}

	start := time.Now()
	body, err := c.post(ctx, endpointDetails, req)
	if err != nil {
		metrics.RecordUpstreamRequest(endpointDetails, "error", time.Since(start))
		return nil, err
	}

	var resp detailsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		metrics.RecordUpstreamRequest(endpointDetails, "error", time.Since(start))
		return nil, fmt.Errorf("decode details: %w", err)
	}
	if resp.Status != statusSuccess || resp.Details == nil {
		metrics.RecordUpstreamRequest(endpointDetails, "unsuccessful", time.Since(start))
		return nil, fmt.Errorf("%w: details status %q", daily.ErrUnsuccessful, resp.Status)
	}

	d := NormalizeDetails(resp.Details)
	c.details.Set(key, d)
	metrics.RecordUpstreamRequest(endpointDetails, "success", time.Since(start))
	return d, nil
}

// DetailsOrFallback is FetchDetails that never fails: errors are logged and
// the Unavailable payload is returned instead.
func (c *Client) DetailsOrFallback(ctx context.Context, name, category string) Details {
	d, err := c.FetchDetails(ctx, name, category)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("name", name).Str("category", category).Msg("Item details unavailable")
		return Unavailable()
	}
	return d
}

// NormalizeDetails renames the misspelled "genrre" field to "genre". An
// existing "genre" wins and the typo key is dropped either way.
func NormalizeDetails(d Details) Details {
	typo, ok := d["genrre"]
	if !ok {
		return d
	}
	if _, has := d["genre"]; !has {
		d["genre"] = typo
	}
	delete(d, "genrre")
	return d
}
