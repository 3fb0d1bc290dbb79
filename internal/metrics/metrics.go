// Reelmates - Letterboxd Pair Scraping and Recommendation Engine
// Copyright 2026 Reelmates Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelmates/reelmates

// Package metrics provides Prometheus instrumentation for the scrape and
// recommendation pipeline:
//   - Letterboxd scrape progress and failures
//   - TMDB request volume, latency, and circuit breaker state
//   - Resolver cache efficiency
//   - Pipeline run outcomes and durations
//   - API endpoint latency and throughput
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Scrape metrics
	ScrapePagesFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "letterboxd_pages_fetched_total",
			Help: "Total number of Letterboxd profile pages fetched",
		},
		[]string{"user"},
	)

	ScrapeFilmsExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "letterboxd_films_extracted_total",
			Help: "Total number of film entries extracted from profile pages",
		},
		[]string{"user"},
	)

	ScrapeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "letterboxd_scrape_errors_total",
			Help: "Total number of scrape failures by error kind",
		},
		[]string{"user", "kind"}, // "not_found", "forbidden", "timeout", "network", "parse"
	)

	ScrapeRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "letterboxd_scrape_retries_total",
			Help: "Total number of retried page requests",
		},
		[]string{"user"},
	)

	// TMDB client metrics
	TMDBRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tmdb_requests_total",
			Help: "Total number of TMDB API requests",
		},
		[]string{"endpoint", "status"},
	)

	TMDBRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tmdb_request_duration_seconds",
			Help:    "TMDB API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Resolver cache metrics
	ResolverCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "resolver_cache_hits_total",
			Help: "Total number of resolver cache hits",
		},
	)

	ResolverCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "resolver_cache_misses_total",
			Help: "Total number of resolver cache misses",
		},
	)

	ResolverNotFound = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "resolver_titles_not_found_total",
			Help: "Total number of watched titles with no TMDB match",
		},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through the circuit breaker",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	// Pipeline metrics
	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Total number of pipeline runs by outcome",
		},
		[]string{"outcome"}, // "success", "partial", "failure"
	)

	PipelineRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pipeline_run_duration_seconds",
			Help:    "Duration of full pipeline runs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		},
	)

	PipelineLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pipeline_last_success_timestamp_seconds",
			Help: "Unix timestamp of the last successful pipeline run",
		},
	)

	RecommendationsWritten = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "recommendations_written",
			Help: "Number of recommendations written in the last run",
		},
		[]string{"list"}, // "general", "genre", "tv"
	)

	// API endpoint metrics
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
)

// RecordAPIRequest records metrics for an API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordTMDBRequest records metrics for a TMDB API request.
func RecordTMDBRequest(endpoint, status string, duration time.Duration) {
	TMDBRequestsTotal.WithLabelValues(endpoint, status).Inc()
	TMDBRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordPipelineRun records the outcome and duration of a pipeline run.
func RecordPipelineRun(outcome string, duration time.Duration) {
	PipelineRuns.WithLabelValues(outcome).Inc()
	PipelineRunDuration.Observe(duration.Seconds())
	if outcome == "success" {
		PipelineLastSuccess.SetToCurrentTime()
	}
}
