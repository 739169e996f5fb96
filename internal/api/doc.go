// Mercatus - Marketplace Recommendation and Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mercatus

/*
Package api provides the HTTP REST API layer for Mercatus.

This package exposes the recommendation engine's six serving operations plus
view-event ingestion. It is the only interface between the storefront and the
engine; authentication lives upstream in the storefront gateway, so this layer
carries routing, validation, rate limiting, and response shaping.

Key Components:

  - Router: Chi route configuration and middleware stack
  - Handler: Request handlers bound to the recommendation facade
  - Response formatting: Standardized JSON envelope with metadata
  - Rate limiting: Per-group limits via go-chi/httprate
  - CORS: Cross-Origin Resource Sharing for storefront clients

Endpoints:

1. Health (/api/v1/health):
  - GET /            full status (database, cache backend, uptime)
  - GET /live        liveness probe, process-only
  - GET /ready       readiness probe, gates on database connectivity

2. Recommendations (/api/v1/recommendations):
  - GET /personalized/{userID}         per-user ranked list
  - GET /session/{sessionKey}          anonymous session list
  - GET /similar/{productID}           same-category and same-store union
  - GET /bought-together/{productID}   co-purchase list
  - GET /collaborative/{userID}        neighbor-derived list
  - GET /best-selling                  global best sellers

All recommendation endpoints accept ?limit= and never fail a request the
engine can degrade: a broken signal produces the best-selling fallback, not
an error status.

3. Views (/api/v1/views):
  - POST /   records a product view event; 202 Accepted once the body
    validates, regardless of the eventual write outcome

4. Observability (/metrics):
  - Prometheus exposition via promhttp

Usage Example:

	import (
	    "github.com/tomtom215/mercatus/internal/api"
	    "github.com/tomtom215/mercatus/internal/database"
	    "github.com/tomtom215/mercatus/internal/recommend"
	)

	db, _ := database.New(&cfg.Database)
	provider := database.NewProvider(db)
	service, _ := recommend.NewService(provider, provider, cacher, engineCfg, logger)

	handler := api.NewHandler(service, db, cacher, version)
	router := api.NewRouter(handler, &cfg.API)

	http.ListenAndServe(":8880", router.Setup())

Thread Safety:

All handlers are stateless and safe for concurrent requests. Shared
resources (database, cache, recommendation service) carry their own
synchronization.

Security:

  - Rate limiting per client IP (go-chi/httprate)
  - X-Forwarded-For honored only when trusted proxies are configured
  - Security headers on every API group
  - Input validation via go-playground/validator

See Also:

  - internal/recommend: The recommendation facade these handlers call
  - internal/database: Catalog and view storage
  - internal/models: Wire types for requests and responses
*/
package api
