// SC2 Match Briefer - Live Match Intelligence and Smurf Detection
// Copyright 2026 Jamin B. (JaminB)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JaminB/sc2-match-briefer

/*
Package metrics provides Prometheus metrics collection and export for observability.

This package instruments the briefer pipeline using the Prometheus client
library, exposing metrics for provider health, scoring outcomes, cache
efficiency, and overlay delivery.

# Overview

The package provides metrics for:
  - Stat provider fetch latency, errors, retries, and breaker state
  - Smurf-likelihood scoring outcomes by classification
  - Session cache hit/miss/coalesce rates
  - Overlay scheduler command emission and timer supersession
  - Match lifecycle counts and monitor state errors
  - WebSocket overlay connection counts
  - HTTP API request latency

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:6118/metrics

# Available Metrics

Provider Metrics:
  - briefer_provider_fetch_duration_seconds: Full history fetch latency (histogram)
  - briefer_provider_fetch_errors_total: Fetch failures (counter)
    Labels: kind (timeout, not_found, rate_limited, unknown)
  - briefer_provider_fetch_retries_total: Retry attempts (counter)
  - briefer_provider_breaker_transitions_total: Breaker transitions (counter)
    Labels: state (closed, open, half-open)

Scoring Metrics:
  - briefer_scores_computed_total: Scores by classification (counter)
    Labels: classification (unknown, normal, suspicious, likely_smurf)
  - briefer_score_compute_duration_seconds: Analyze+score latency (histogram)

Session Cache Metrics:
  - briefer_session_cache_hits_total: Cache hits (counter)
  - briefer_session_cache_misses_total: Cache misses (counter)
  - briefer_session_cache_coalesced_total: Coalesced fetches (counter)
  - briefer_session_cache_entries: Live entries (gauge)

Scheduler Metrics:
  - briefer_overlay_commands_total: Commands by action (counter)
    Labels: action (show, hide, update_content)
  - briefer_overlay_events_dropped_total: Dropped score events (counter)
  - briefer_overlay_timers_superseded_total: Cancelled timers (counter)

Match Lifecycle Metrics:
  - briefer_matches_started_total: Matches entering in-progress (counter)
  - briefer_matches_ended_total: Matches ending (counter)
  - briefer_monitor_state_errors_total: Recovered invalid transitions (counter)
  - briefer_observer_poll_errors_total: Failed game client polls (counter)

WebSocket Metrics:
  - briefer_websocket_connections_active: Connected overlay clients (gauge)
  - briefer_websocket_messages_sent_total: Broadcast messages (counter)
  - briefer_websocket_messages_dropped_total: Drops from slow clients (counter)

API Metrics:
  - briefer_api_request_duration_seconds: HTTP request latency (histogram)
    Labels: method, endpoint, status_code

# Usage

Metrics are registered automatically via promauto at package init. Record
helpers wrap the common multi-metric updates:

	start := time.Now()
	result := scorer.Score(rating, league, stats)
	metrics.RecordScore(string(result.Classification), time.Since(start))

# Cardinality

Label values are drawn from small closed sets (error kinds, classifications,
overlay actions, breaker states). Endpoint labels use chi route patterns, not
raw URLs, so cardinality stays bounded.
*/
package metrics
