// SC2 Match Briefer - Live Match Intelligence and Smurf Detection
// Copyright 2026 Jamin B. (JaminB)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JaminB/sc2-match-briefer

package analyze

import (
	"strings"

	"github.com/JaminB/sc2-match-briefer/internal/models"
)

// Trend slope boundaries for the overlay glyphs. A slope past the steep
// boundary doubles the arrow.
const (
	trendSteep = 1.5
	trendMild  = 0.4
)

// TrendSymbol renders a trend slope as an overlay glyph.
func TrendSymbol(slope float64) string {
	switch {
	case slope >= trendSteep:
		return "▲▲"
	case slope >= trendMild:
		return "▲"
	case slope > -trendMild:
		return "→"
	case slope > -trendSteep:
		return "▼"
	default:
		return "▼▼"
	}
}

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders up to width recent ratings as a block-character
// sparkline, scaled to the min/max of the rendered window. A flat window
// renders at mid height. Empty input returns the empty string.
func Sparkline(samples []models.RatingSample, width int) string {
	if len(samples) == 0 || width <= 0 {
		return ""
	}

	if len(samples) > width {
		samples = samples[len(samples)-width:]
	}

	lo, hi := samples[0].Rating, samples[0].Rating
	for _, s := range samples[1:] {
		if s.Rating < lo {
			lo = s.Rating
		}
		if s.Rating > hi {
			hi = s.Rating
		}
	}

	var b strings.Builder
	if hi == lo {
		mid := sparkLevels[len(sparkLevels)/2]
		for range samples {
			b.WriteRune(mid)
		}
		return b.String()
	}

	span := float64(hi - lo)
	for _, s := range samples {
		idx := int(float64(s.Rating-lo) / span * float64(len(sparkLevels)-1))
		b.WriteRune(sparkLevels[idx])
	}
	return b.String()
}
