// Mercatus - Marketplace Recommendation and Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mercatus

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/mercatus/internal/config"
)

// Router sets up HTTP routes using the Chi router.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware

	// trustProxies enables X-Forwarded-For resolution. Without a declared
	// proxy tier the remote address is authoritative, so a client cannot
	// spoof its rate-limit identity with a forged header.
	trustProxies bool
}

// NewRouter creates a new router for the given handler. cfg tunes CORS,
// rate limiting, and proxy trust; nil uses the secure defaults.
func NewRouter(handler *Handler, cfg *config.APIConfig) *Router {
	if cfg == nil {
		return &Router{
			handler:       handler,
			chiMiddleware: NewChiMiddleware(nil),
		}
	}
	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddlewareFromConfig(cfg),
		trustProxies:  len(cfg.TrustedProxies) > 0,
	}
}

// Setup configures all HTTP routes and returns the ready handler.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	// Applied to ALL routes in order
	r.Use(RequestIDWithLogging()) // Add X-Request-ID header with logging context
	if router.trustProxies {
		r.Use(chimiddleware.RealIP) // Extract real IP from X-Forwarded-For
	}
	r.Use(chimiddleware.Recoverer)     // Recover from panics
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight

	// ========================
	// Health Endpoints
	// ========================
	// Permissive rate limiting for health endpoints: allows frequent
	// monitoring while preventing abuse
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
		r.Get("/", router.handler.Health)
	})

	// ========================
	// Recommendation Endpoints
	// ========================
	r.Route("/api/v1/recommendations", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(prometheusMetrics)

		r.Get("/personalized/{userID}", router.handler.Personalized)
		r.Get("/session/{sessionKey}", router.handler.SessionBased)
		r.Get("/similar/{productID}", router.handler.SimilarTo)
		r.Get("/bought-together/{productID}", router.handler.BoughtTogether)
		r.Get("/collaborative/{userID}", router.handler.Collaborative)
		r.Get("/best-selling", router.handler.BestSelling)
	})

	// ========================
	// View Tracking
	// ========================
	// Higher limit than the default API groups: browsing emits views in bursts
	r.Route("/api/v1/views", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitViews())
		r.Use(APISecurityHeaders())
		r.Use(prometheusMetrics)

		r.Post("/", router.handler.TrackView)
	})

	// ========================
	// Observability
	// ========================
	r.Handle("/metrics", promhttp.Handler())

	return r
}
