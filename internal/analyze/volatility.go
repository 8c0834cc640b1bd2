// SC2 Match Briefer - Live Match Intelligence and Smurf Detection
// Copyright 2026 Jamin B. (JaminB)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JaminB/sc2-match-briefer

// Package analyze turns a player's rating history into volatility
// statistics and a smurf-likelihood score. The analysis is pure
// computation: no I/O, no clocks beyond the samples themselves, so every
// function here is deterministic and trivially testable.
package analyze

import (
	"sort"
	"time"

	"github.com/JaminB/sc2-match-briefer/internal/config"
	"github.com/JaminB/sc2-match-briefer/internal/models"
)

// Analyze computes trend and volatility statistics over a rating history.
//
// Samples are sorted by timestamp, then windowed: at most MaxSamples of
// the most recent points, and none older than MaxAge before the newest
// sample. Both limits are optional; zero disables a limit. The trend
// slope is a least-squares fit of rating against sample index, so it
// reads as rating gained per recorded game, independent of how bursty
// the player's ladder activity is.
//
// A single sample yields zero slope and zero variance with SampleCount 1.
// Empty input yields the zero VolatilityStats.
func Analyze(samples []models.RatingSample, window config.WindowConfig) models.VolatilityStats {
	if len(samples) == 0 {
		return models.VolatilityStats{}
	}

	sorted := make([]models.RatingSample, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	windowed := applyWindow(sorted, window)

	stats := models.VolatilityStats{
		SampleCount: len(windowed),
		WindowStart: windowed[0].Timestamp,
		WindowEnd:   windowed[len(windowed)-1].Timestamp,
	}

	if len(windowed) < 2 {
		return stats
	}

	stats.TrendSlope = leastSquaresSlope(windowed)
	stats.Variance = sampleVariance(windowed)
	return stats
}

// applyWindow trims a sorted history to the configured window. The age
// cutoff is anchored at the newest sample, not the wall clock, so replayed
// histories analyze identically.
func applyWindow(sorted []models.RatingSample, window config.WindowConfig) []models.RatingSample {
	out := sorted

	if window.MaxAge > 0 {
		cutoff := out[len(out)-1].Timestamp.Add(-window.MaxAge)
		idx := sort.Search(len(out), func(i int) bool {
			return !out[i].Timestamp.Before(cutoff)
		})
		out = out[idx:]
	}

	if window.MaxSamples > 0 && len(out) > window.MaxSamples {
		out = out[len(out)-window.MaxSamples:]
	}

	return out
}

// leastSquaresSlope fits rating = a + b*index and returns b. Requires at
// least two samples.
func leastSquaresSlope(samples []models.RatingSample) float64 {
	n := float64(len(samples))

	var sumX, sumY, sumXY, sumXX float64
	for i, s := range samples {
		x := float64(i)
		y := float64(s.Rating)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

// sampleVariance returns the n-1 variance of the ratings.
func sampleVariance(samples []models.RatingSample) float64 {
	n := float64(len(samples))

	var sum float64
	for _, s := range samples {
		sum += float64(s.Rating)
	}
	mean := sum / n

	var ss float64
	for _, s := range samples {
		d := float64(s.Rating) - mean
		ss += d * d
	}
	return ss / (n - 1)
}

// WindowSpan is a convenience for logging how much history a stats value
// actually covers.
func WindowSpan(stats models.VolatilityStats) time.Duration {
	if stats.SampleCount < 2 {
		return 0
	}
	return stats.WindowEnd.Sub(stats.WindowStart)
}
