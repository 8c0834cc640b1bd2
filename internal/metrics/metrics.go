// SC2 Match Briefer - Live Match Intelligence and Smurf Detection
// Copyright 2026 Jamin B. (JaminB)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JaminB/sc2-match-briefer

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the briefer pipeline:
// - Stat provider fetch latency, errors, retries, breaker state
// - Scoring outcomes by classification
// - Session cache efficiency
// - Overlay scheduler activity
// - Match lifecycle counts
// - WebSocket overlay connections
// - HTTP endpoint latency

var (
	// Provider Metrics
	ProviderFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "briefer_provider_fetch_duration_seconds",
			Help:    "Duration of full provider history fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ProviderFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "briefer_provider_fetch_errors_total",
			Help: "Total provider fetch failures by error kind",
		},
		[]string{"kind"},
	)

	ProviderFetchRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "briefer_provider_fetch_retries_total",
			Help: "Total provider fetch retry attempts",
		},
	)

	ProviderBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "briefer_provider_breaker_transitions_total",
			Help: "Circuit breaker state transitions by target state",
		},
		[]string{"state"},
	)

	// Scoring Metrics
	ScoresComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "briefer_scores_computed_total",
			Help: "Total smurf-likelihood scores by resulting classification",
		},
		[]string{"classification"},
	)

	ScoreComputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "briefer_score_compute_duration_seconds",
			Help:    "Duration of analyze+score computation in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		},
	)

	// Session Cache Metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "briefer_session_cache_hits_total",
			Help: "Total session cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "briefer_session_cache_misses_total",
			Help: "Total session cache misses",
		},
	)

	CacheCoalesced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "briefer_session_cache_coalesced_total",
			Help: "Total fetches coalesced into an in-flight request",
		},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "briefer_session_cache_entries",
			Help: "Current number of live session cache entries",
		},
	)

	// Scheduler Metrics
	OverlayCommands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "briefer_overlay_commands_total",
			Help: "Total overlay commands emitted by action",
		},
		[]string{"action"},
	)

	OverlayEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "briefer_overlay_events_dropped_total",
			Help: "Total score events dropped for unknown or disabled slots",
		},
	)

	OverlayTimersSuperseded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "briefer_overlay_timers_superseded_total",
			Help: "Total pending overlay timers cancelled by a newer event",
		},
	)

	// Match Lifecycle Metrics
	MatchesStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "briefer_matches_started_total",
			Help: "Total matches observed entering the in-progress phase",
		},
	)

	MatchesEnded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "briefer_matches_ended_total",
			Help: "Total matches observed ending",
		},
	)

	MonitorStateErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "briefer_monitor_state_errors_total",
			Help: "Total invalid match-state transitions recovered by reset",
		},
	)

	ObserverPollErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "briefer_observer_poll_errors_total",
			Help: "Total failed polls of the local game client",
		},
	)

	// WebSocket Metrics
	WSConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "briefer_websocket_connections_active",
			Help: "Current number of connected overlay clients",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "briefer_websocket_messages_sent_total",
			Help: "Total overlay command messages broadcast over WebSocket",
		},
	)

	WSMessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "briefer_websocket_messages_dropped_total",
			Help: "Total messages dropped due to slow overlay clients",
		},
	)

	// API Metrics
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "briefer_api_request_duration_seconds",
			Help:    "Duration of HTTP API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status_code"},
	)
)

// RecordScore increments the score counter and observes compute latency.
func RecordScore(classification string, duration time.Duration) {
	ScoresComputed.WithLabelValues(classification).Inc()
	ScoreComputeDuration.Observe(duration.Seconds())
}

// RecordAPIRequest records latency for one HTTP request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestDuration.WithLabelValues(method, endpoint, statusCode).Observe(duration.Seconds())
}

// RecordCacheLookup records the outcome of one session cache lookup.
func RecordCacheLookup(hit, coalesced bool) {
	switch {
	case hit:
		CacheHits.Inc()
	case coalesced:
		CacheCoalesced.Inc()
	default:
		CacheMisses.Inc()
	}
}
