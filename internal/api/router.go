// Playerpulse - Steam Player Count Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playerpulse

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/playerpulse/internal/middleware"
)

// Router wires the handler set into the Chi route tree.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates the router.
func NewRouter(handler *Handler) *Router {
	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddleware(&handler.cfg.Security),
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight

	// Permissive rate limiting for health so monitoring can poll freely.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/", router.handler.Health)
	})

	// Collection triggers. Strictly rate limited; /collect requires the
	// cron secret, /collect/test does not and exists for local checks.
	r.Route("/api/v1/collect", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCollect())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Post("/", router.handler.Collect)
		r.Post("/test", router.handler.CollectTest)
	})

	// Analytics endpoints.
	r.Route("/api/v1/games", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Get("/latest", router.handler.Latest)
		r.Get("/{appid}/history", router.handler.History)
		r.Get("/peaks", router.handler.Peaks)
		r.Get("/trending", router.handler.Trending)
		r.Get("/top", router.handler.Top)
	})

	// Observability.
	r.Handle("/metrics", promhttp.Handler())

	return r
}
