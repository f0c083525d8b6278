// Playerpulse - Steam Player Count Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playerpulse

// Package metrics provides Prometheus instrumentation for:
//   - Database query performance (DuckDB)
//   - API endpoint latency and throughput
//   - Collection cycle outcomes and upstream request health
//   - Circuit breaker state
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of API requests currently in flight",
		},
	)

	// Collection Cycle Metrics
	CollectionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "collection_cycle_duration_seconds",
			Help:    "Duration of collection cycles in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)

	CollectionSamplesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "collection_samples_written_total",
			Help: "Total number of samples written by collection cycles",
		},
	)

	CollectionEntitiesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "collection_entities_skipped_total",
			Help: "Total number of games excluded from a cycle after per-game fetch failures",
		},
	)

	CollectionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collection_errors_total",
			Help: "Total number of failed collection cycles",
		},
		[]string{"error_type"}, // "upstream", "write", "canceled"
	)

	CollectionLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "collection_last_success_timestamp",
			Help: "Unix timestamp of the last successful collection cycle",
		},
	)

	// Upstream (Steam) Request Metrics
	SteamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "steam_requests_total",
			Help: "Total number of requests to Steam APIs",
		},
		[]string{"endpoint", "result"}, // result: "success", "failure"
	)

	SteamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "steam_request_duration_seconds",
			Help:    "Duration of Steam API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordDBQuery records a database query metric.
func RecordDBQuery(operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(start bool) {
	if start {
		APIActiveRequests.Inc()
		return
	}
	APIActiveRequests.Dec()
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordSteamRequest records an upstream request outcome.
func RecordSteamRequest(endpoint string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	SteamRequestsTotal.WithLabelValues(endpoint, result).Inc()
	SteamRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordCollectionCycle records the outcome of one collection cycle.
func RecordCollectionCycle(duration time.Duration, written int64, skipped int, errorType string) {
	CollectionDuration.Observe(duration.Seconds())
	CollectionSamplesWritten.Add(float64(written))
	CollectionEntitiesSkipped.Add(float64(skipped))
	if errorType != "" {
		CollectionErrors.WithLabelValues(errorType).Inc()
		return
	}
	CollectionLastSuccess.Set(float64(time.Now().Unix()))
}
