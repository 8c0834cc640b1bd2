// SC2 Match Briefer - Live Match Intelligence and Smurf Detection
// Copyright 2026 Jamin B. (JaminB)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JaminB/sc2-match-briefer

package analyze

import (
	"math"
	"time"

	"github.com/JaminB/sc2-match-briefer/internal/config"
	"github.com/JaminB/sc2-match-briefer/internal/metrics"
	"github.com/JaminB/sc2-match-briefer/internal/models"
)

// Per-league baselines for what a settled account looks like. Slope is
// rating change per recorded game a stable player can sustain; variance
// is the typical spread of their recent ratings. Accounts well above
// either baseline are climbing or swinging harder than their league
// peers, which is the smurf signature.
var (
	leagueSlopeCeiling = map[models.League]float64{
		models.LeagueBronze:      1.2,
		models.LeagueSilver:      1.1,
		models.LeagueGold:        1.0,
		models.LeaguePlatinum:    0.9,
		models.LeagueDiamond:     0.8,
		models.LeagueMaster:      0.6,
		models.LeagueGrandmaster: 0.5,
	}

	leagueVarianceBand = map[models.League]float64{
		models.LeagueBronze:      2500,
		models.LeagueSilver:      2200,
		models.LeagueGold:        2000,
		models.LeaguePlatinum:    1800,
		models.LeagueDiamond:     1600,
		models.LeagueMaster:      1200,
		models.LeagueGrandmaster: 900,
	}
)

// Baselines for leagues outside the table (unknown league codes).
const (
	defaultSlopeCeiling = 1.0
	defaultVarianceBand = 1800
)

// Scorer maps volatility statistics to a smurf-likelihood in [0,1] and a
// classification label. All tunables come from configuration; the scorer
// itself is immutable after construction.
type Scorer struct {
	weights    config.WeightsConfig
	thresholds config.ThresholdsConfig
}

// NewScorer builds a scorer from validated configuration.
func NewScorer(cfg config.ScoringConfig) *Scorer {
	return &Scorer{
		weights:    cfg.Weights,
		thresholds: cfg.Thresholds,
	}
}

// Score computes the likelihood that the account behind player is a
// smurf, given its declared league and analyzed history.
//
// The score blends two normalized components: how far the trend slope
// exceeds the league's sustainable ceiling, and how far the rating
// variance exceeds the league's typical band. The blend is then shrunk
// toward the neutral 0.5 by sample count, so a two-game history can
// never produce a confident verdict in either direction.
//
// Stats with no samples produce the unknown result: nil likelihood and
// ClassificationUnknown.
func (s *Scorer) Score(player models.PlayerIdentity, league models.League, stats models.VolatilityStats) models.ScoreResult {
	start := time.Now()

	if stats.SampleCount == 0 {
		result := models.UnknownScoreResult(player)
		metrics.RecordScore(string(result.Classification), time.Since(start))
		return result
	}

	raw := s.rawScore(league, stats)

	// Confidence shrinkage: n/(n+pivot) grows from 0 toward 1 with
	// sample count, pinning sparse histories near neutral.
	n := float64(stats.SampleCount)
	confidence := n / (n + s.weights.ConfidencePivot)
	likelihood := clamp01(0.5 + confidence*(raw-0.5))

	result := models.ScoreResult{
		Player:         player,
		Likelihood:     &likelihood,
		Classification: s.Classify(likelihood),
		ComputedAt:     time.Now().UTC(),
		Stats:          stats,
	}
	metrics.RecordScore(string(result.Classification), time.Since(start))
	return result
}

// rawScore blends the trend and variance components into [0,1], where
// 0.5 means exactly at the league baseline.
func (s *Scorer) rawScore(league models.League, stats models.VolatilityStats) float64 {
	ceiling, ok := leagueSlopeCeiling[league]
	if !ok {
		ceiling = defaultSlopeCeiling
	}
	band, ok := leagueVarianceBand[league]
	if !ok {
		band = defaultVarianceBand
	}

	// Steep climbs and deliberate tanking both read as abnormal, so the
	// trend component uses the slope magnitude.
	trend := clamp01(0.5 + (math.Abs(stats.TrendSlope)-ceiling)/(4*ceiling))
	variance := clamp01(0.5 + (stats.Variance-band)/(4*band))

	total := s.weights.Trend + s.weights.Volatility
	return (s.weights.Trend*trend + s.weights.Volatility*variance) / total
}

// Classify maps a likelihood in [0,1] to its classification band. The
// thresholds are lower bounds: a likelihood equal to a boundary lands in
// the band above it.
func (s *Scorer) Classify(likelihood float64) models.Classification {
	switch {
	case likelihood >= s.thresholds.LikelySmurf:
		return models.ClassificationLikelySmurf
	case likelihood >= s.thresholds.Suspicious:
		return models.ClassificationSuspicious
	default:
		return models.ClassificationNormal
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
