// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

// Package api serves the HTTP API on a chi router.
//
//	GET    /api/v1/health
//	GET    /api/v1/archetypes
//	POST   /api/v1/quiz
//	GET    /api/v1/mirror
//	GET    /api/v1/recommendations?mood=
//	GET    /api/v1/recommendations/today
//	GET    /api/v1/details?name=&category=
//	GET    /api/v1/badges
//	POST   /api/v1/badges/events
//	DELETE /api/v1/session
//	GET    /metrics
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/tastemirror/internal/logging"
	"github.com/tomtom215/tastemirror/internal/middleware"
)

// RouterConfig configures the cross-cutting middleware.
type RouterConfig struct {
	CORSOrigins       []string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool
	RequestTimeout    time.Duration

	// Authenticator resolves callers. AuthRequired rejects anonymous calls
	// to session routes at the middleware instead of the handler.
	Authenticator middleware.Authenticator
	AuthRequired  bool
}

// NewRouter builds the HTTP handler for h.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(AccessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", middleware.RequestIDHeader, UserIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         86400,
	}))
	r.Use(middleware.PrometheusMetrics)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rateLimit(cfg))
		r.Use(chimiddleware.Compress(5, "application/json"))
		if cfg.RequestTimeout > 0 {
			r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
		}

		r.Get("/health", h.Health)
		r.Get("/archetypes", h.Archetypes)
		r.Get("/details", h.Details)

		r.Group(func(r chi.Router) {
			if cfg.Authenticator != nil {
				r.Use(middleware.Authenticate(cfg.Authenticator, cfg.AuthRequired, func(w http.ResponseWriter, r *http.Request, _ error) {
					NewResponseWriter(w, r).Unauthorized("Sign in to continue")
				}))
			}

			r.Post("/quiz", h.Quiz)
			r.Get("/mirror", h.Mirror)
			r.Get("/recommendations", h.Recommendations)
			r.Get("/recommendations/today", h.Today)
			r.Get("/badges", h.Badges)
			r.Post("/badges/events", h.BadgeEvent)
			r.Delete("/session", h.EndSession)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).NotFound("Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).Error(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})

	return r
}

func rateLimit(cfg RouterConfig) func(http.Handler) http.Handler {
	if cfg.RateLimitDisabled || cfg.RateLimitRequests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		cfg.RateLimitRequests,
		cfg.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			NewResponseWriter(w, r).Error(http.StatusTooManyRequests, ErrCodeTooManyRequests, "Too many requests")
		}),
	)
}

// AccessLog logs one line per request at debug level, and at warn level
// for server errors.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		event := logging.Ctx(r.Context()).Debug()
		if ww.Status() >= http.StatusInternalServerError {
			event = logging.Ctx(r.Context()).Warn()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}
