// SC2 Match Briefer - Live Match Intelligence and Smurf Detection
// Copyright 2026 Jamin B. (JaminB)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JaminB/sc2-match-briefer

package models

import (
	"time"
)

// RatingSample is one point in a player's rating history.
// Sequences are ordered by timestamp and append-only within a session;
// the external provider is the source of truth.
type RatingSample struct {
	Timestamp time.Time `json:"timestamp"`
	Rating    int       `json:"rating"`
	League    League    `json:"league"`
}

// VolatilityStats is the derived trend/volatility summary for one analysis
// window. It is a value type: recomputed and replaced wholesale whenever new
// samples arrive, never mutated in place.
type VolatilityStats struct {
	// TrendSlope is the least-squares slope of rating over sample index.
	// Positive means the rating is climbing.
	TrendSlope float64 `json:"trend_slope"`

	// Variance is the sample variance of ratings within the window.
	Variance float64 `json:"variance"`

	// SampleCount is the number of samples in the window. A count of 1
	// signals low confidence; there is no separate flag.
	SampleCount int `json:"sample_count"`

	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
}

// WinLoss tallies games won and lost inside one time window. Wins and
// losses are derived from consecutive rating deltas; unchanged ratings
// count as neither.
type WinLoss struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
}

// Games returns the number of counted games in the window.
func (w WinLoss) Games() int {
	return w.Wins + w.Losses
}

// Rate returns the win rate in [0,1], or 0 when no games were counted.
func (w WinLoss) Rate() float64 {
	if w.Games() == 0 {
		return 0
	}
	return float64(w.Wins) / float64(w.Games())
}

// WinLossWindows is the windowed win/loss summary for one player.
type WinLossWindows struct {
	Day       WinLoss `json:"day"`
	ThreeDays WinLoss `json:"three_days"`
	Week      WinLoss `json:"week"`
	Month     WinLoss `json:"month"`
	Lifetime  WinLoss `json:"lifetime"`
}

// Classification labels a likelihood score.
type Classification string

const (
	// ClassificationUnknown means scoring could not run (no usable data).
	ClassificationUnknown Classification = "unknown"

	// ClassificationNormal means performance is consistent with the
	// declared rank.
	ClassificationNormal Classification = "normal"

	// ClassificationSuspicious means performance is somewhat inconsistent
	// with the declared rank.
	ClassificationSuspicious Classification = "suspicious"

	// ClassificationLikelySmurf means performance is strongly inconsistent
	// with the declared rank.
	ClassificationLikelySmurf Classification = "likely_smurf"
)

// ScoreResult is the outcome of scoring one player. Results are immutable;
// a newer result for the same player supersedes the old one, it never
// mutates it.
type ScoreResult struct {
	Player PlayerIdentity `json:"player"`

	// Likelihood is the smurf likelihood in [0,1]. Nil if and only if
	// Classification is ClassificationUnknown.
	Likelihood *float64 `json:"likelihood,omitempty"`

	Classification Classification  `json:"classification"`
	ComputedAt     time.Time       `json:"computed_at"`
	Stats          VolatilityStats `json:"contributing_stats"`

	// Rating and League are the provider-declared current standing at
	// fetch time, kept so the result renders without a second lookup.
	Rating int    `json:"rating,omitempty"`
	League League `json:"league,omitempty"`

	// Sparkline is a compact glyph digest of the analyzed history window.
	Sparkline string `json:"sparkline,omitempty"`

	// WinLoss is the windowed win/loss summary derived from the history.
	WinLoss WinLossWindows `json:"win_loss"`
}

// Known reports whether the result carries a usable likelihood.
func (r ScoreResult) Known() bool {
	return r.Likelihood != nil && r.Classification != ClassificationUnknown
}

// UnknownScoreResult builds the placeholder result used when a player's
// history could not be fetched or analyzed.
func UnknownScoreResult(player PlayerIdentity) ScoreResult {
	return ScoreResult{
		Player:         player,
		Likelihood:     nil,
		Classification: ClassificationUnknown,
		ComputedAt:     time.Now().UTC(),
	}
}

// MatchRecord is the finalized, logical record of one match handed to the
// external log writer when the match ends. Result order follows the frozen
// roster order, with unknown placeholders for players whose lookups never
// completed.
type MatchRecord struct {
	MatchID   string        `json:"match_id"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at"`
	Results   []ScoreResult `json:"results"`
}
