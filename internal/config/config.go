// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

// Package config loads and validates Tastemirror configuration.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in values for every setting
//  2. Config File: optional YAML file (config.yaml or CONFIG_PATH)
//  3. Environment Variables: override any mapped setting
//
// Config is immutable after Load and safe for concurrent reads.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Storage  StorageConfig  `koanf:"storage"`
	Upstream UpstreamConfig `koanf:"upstream"`
	Daily    DailyConfig    `koanf:"daily"`
	Mirror   MirrorConfig   `koanf:"mirror"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development, staging, production
}

// StorageConfig holds the badger settings backing badge documents and the
// day-scoped recommendation cache.
//
// Environment Variables:
//   - STORAGE_PATH: badger directory (default: /data/tastemirror)
//   - STORAGE_IN_MEMORY: keep everything in memory, nothing survives restart
//   - STORAGE_GC_INTERVAL: value-log GC period (default: 10m)
type StorageConfig struct {
	Path           string        `koanf:"path"`
	InMemory       bool          `koanf:"in_memory"`
	GCInterval     time.Duration `koanf:"gc_interval"`
	GCDiscardRatio float64       `koanf:"gc_discard_ratio"`
}

// UpstreamConfig configures the remote recommendation and item-detail service.
type UpstreamConfig struct {
	// BaseURL is the root of the recommendation service, e.g. https://recs.example.com/api.
	BaseURL string `koanf:"base_url"`

	// Timeout bounds a single HTTP request.
	Timeout time.Duration `koanf:"timeout"`

	// RequestsPerSecond and Burst shape outgoing traffic.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`

	// DetailCacheTTL is how long item details are memoized.
	DetailCacheTTL time.Duration `koanf:"detail_cache_ttl"`

	// BreakerFailures is the consecutive failure count that opens the circuit.
	BreakerFailures uint32 `koanf:"breaker_failures"`

	// BreakerTimeout is how long the circuit stays open before probing.
	BreakerTimeout time.Duration `koanf:"breaker_timeout"`
}

// DailyConfig controls the day-scoped recommendation cache.
type DailyConfig struct {
	// Timezone names the IANA zone used to decide the calendar day.
	// "Local" uses the process zone.
	Timezone string `koanf:"timezone"`
}

// MirrorConfig controls narrative text selection.
type MirrorConfig struct {
	// Seed makes template selection reproducible. 0 seeds from the clock.
	Seed int64 `koanf:"seed"`
}

// SecurityConfig holds authentication and rate limiting settings.
type SecurityConfig struct {
	// AuthMode is "jwt" (bearer tokens) or "none". In "none" mode the caller
	// names itself with the X-User-ID header; requests without it are
	// anonymous and session routes answer 401.
	AuthMode           string        `koanf:"auth_mode"`
	JWTSecret          string        `koanf:"jwt_secret"`
	SessionIdleTimeout time.Duration `koanf:"session_idle_timeout"`
	RateLimitReqs      int           `koanf:"rate_limit_reqs"`
	RateLimitWindow    time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled  bool          `koanf:"rate_limit_disabled"`
	CORSOrigins        []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Location resolves the configured timezone.
func (d DailyConfig) Location() (*time.Location, error) {
	if d.Timezone == "" || d.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(d.Timezone)
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// IsProduction reports whether the server runs in production mode.
func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}

// Load reads configuration from defaults, an optional config file, and
// environment variables, in that order.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
