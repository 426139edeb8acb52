// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

// Package metrics provides Prometheus metrics for Feedwise.
//
// All metrics are registered on the default registry via promauto and
// exposed at /metrics. Naming follows the feedwise_<subsystem>_<name>
// convention with base units (seconds, not milliseconds).
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Feed ranking metrics.
var (
	FeedRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedwise_feed_requests_total",
		Help: "Total feed ranking requests by strategy and outcome.",
	}, []string{"strategy", "outcome"})

	FeedRankingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "feedwise_feed_ranking_duration_seconds",
		Help:    "Feed ranking latency by strategy.",
		Buckets: prometheus.DefBuckets,
	}, []string{"strategy"})

	FeedCandidatesRanked = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "feedwise_feed_candidates_ranked",
		Help:    "Number of candidate posts scored per feed request.",
		Buckets: []float64{10, 25, 50, 100, 250, 500},
	})

	TrendingRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedwise_trending_refresh_total",
		Help: "Trending topic recomputations by outcome.",
	}, []string{"outcome"})

	TrendingTopicsDetected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "feedwise_trending_topics_detected",
		Help: "Topics detected in the most recent trending window.",
	})
)

// Moderation metrics.
var (
	ModerationChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedwise_moderation_checks_total",
		Help: "Total moderation checks by action and level.",
	}, []string{"action", "level"})

	ModerationAnalyzerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "feedwise_moderation_analyzer_duration_seconds",
		Help:    "Per-analyzer moderation latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"dimension"})

	ModerationAnalyzerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedwise_moderation_analyzer_errors_total",
		Help: "Analyzer failures by dimension.",
	}, []string{"dimension"})

	ModerationEscalationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feedwise_moderation_escalations_total",
		Help: "Moderation decisions escalated for human review.",
	})
)

// Cache metrics.
var (
	CacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedwise_cache_hits_total",
		Help: "Cache hits by partition.",
	}, []string{"partition"})

	CacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedwise_cache_misses_total",
		Help: "Cache misses by partition.",
	}, []string{"partition"})

	CacheEvictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedwise_cache_evictions_total",
		Help: "Cache evictions by partition and reason (expired, invalidated).",
	}, []string{"partition", "reason"})

	CacheEntries = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "feedwise_cache_entries",
		Help: "Current cache entries by partition.",
	}, []string{"partition"})
)

// A/B testing metrics.
var (
	ABAssignmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedwise_ab_assignments_total",
		Help: "Variant assignments by test and variant (new assignments only).",
	}, []string{"test", "variant"})

	ABImpressionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedwise_ab_impressions_total",
		Help: "Recorded impressions by test and variant.",
	}, []string{"test", "variant"})

	ABConversionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedwise_ab_conversions_total",
		Help: "Recorded conversions by test and variant.",
	}, []string{"test", "variant"})
)

// API metrics.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedwise_http_requests_total",
		Help: "Total HTTP requests by method, route and status code.",
	}, []string{"method", "route", "code"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "feedwise_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// Store / circuit breaker metrics.
var (
	StoreBreakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "feedwise_store_breaker_state",
		Help: "Store circuit breaker state (0=closed, 1=half-open, 2=open).",
	})

	StoreOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedwise_store_operations_total",
		Help: "Store operations by operation and outcome.",
	}, []string{"operation", "outcome"})
)

// ObserveFeedRequest records a completed feed ranking request.
func ObserveFeedRequest(strategy, outcome string, candidates int, elapsed time.Duration) {
	FeedRequestsTotal.WithLabelValues(strategy, outcome).Inc()
	FeedRankingDuration.WithLabelValues(strategy).Observe(elapsed.Seconds())
	if candidates > 0 {
		FeedCandidatesRanked.Observe(float64(candidates))
	}
}

// ObserveModerationCheck records a completed moderation decision.
func ObserveModerationCheck(action, level string, escalated bool) {
	ModerationChecksTotal.WithLabelValues(action, level).Inc()
	if escalated {
		ModerationEscalationsTotal.Inc()
	}
}

// ObserveHTTPRequest records a completed HTTP request.
func ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
