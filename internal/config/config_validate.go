// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

package config

import (
	"fmt"
	"net/url"
	"slices"
	"time"
)

// MinJWTSecretLength is the shortest accepted HS256 signing secret.
const MinJWTSecretLength = 32

var (
	validLogLevels  = []string{"trace", "debug", "info", "warn", "error"}
	validLogFormats = []string{"json", "console"}
	validAuthModes  = []string{"jwt", "none"}
)

// Validate checks that configuration values are present and consistent.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateUpstream(); err != nil {
		return err
	}
	if err := c.validateDaily(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateStorage() error {
	if !c.Storage.InMemory && c.Storage.Path == "" {
		return fmt.Errorf("STORAGE_PATH is required unless STORAGE_IN_MEMORY=true")
	}
	if c.Storage.GCDiscardRatio <= 0 || c.Storage.GCDiscardRatio >= 1 {
		return fmt.Errorf("STORAGE_GC_DISCARD_RATIO must be between 0 and 1 exclusive")
	}
	return nil
}

func (c *Config) validateUpstream() error {
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("UPSTREAM_URL is required")
	}
	u, err := url.Parse(c.Upstream.BaseURL)
	if err != nil {
		return fmt.Errorf("UPSTREAM_URL is invalid: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("UPSTREAM_URL must use http or https scheme, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("UPSTREAM_URL must include a host")
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must be positive")
	}
	if c.Upstream.RequestsPerSecond <= 0 || c.Upstream.Burst < 1 {
		return fmt.Errorf("UPSTREAM_RPS must be positive and UPSTREAM_BURST at least 1")
	}
	if c.Upstream.BreakerFailures == 0 {
		return fmt.Errorf("UPSTREAM_BREAKER_FAILURES must be at least 1")
	}
	return nil
}

func (c *Config) validateDaily() error {
	if _, err := c.Daily.Location(); err != nil {
		return fmt.Errorf("DAILY_TIMEZONE is invalid: %w", err)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if !slices.Contains(validAuthModes, c.Security.AuthMode) {
		return fmt.Errorf("AUTH_MODE must be one of: jwt, none")
	}
	if c.Security.AuthMode == "jwt" && len(c.Security.JWTSecret) < MinJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters when AUTH_MODE=jwt", MinJWTSecretLength)
	}
	if c.Server.IsProduction() && c.Security.AuthMode == "jwt" && slices.Contains(c.Security.CORSOrigins, "*") {
		return fmt.Errorf("CORS_ORIGINS must not contain '*' in production with authentication enabled")
	}
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQS must be at least 1")
		}
		if c.Security.RateLimitWindow < time.Second {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be at least 1s")
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !slices.Contains(validLogLevels, c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if !slices.Contains(validLogFormats, c.Logging.Format) {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}
