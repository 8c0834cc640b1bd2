// SC2 Match Briefer - Live Match Intelligence and Smurf Detection
// Copyright 2026 Jamin B. (JaminB)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JaminB/sc2-match-briefer

package analyze

import (
	"testing"
	"time"
	"unicode/utf8"
)

func TestTrendSymbol(t *testing.T) {
	tests := []struct {
		slope float64
		want  string
	}{
		{2.0, "▲▲"},
		{1.5, "▲▲"},
		{1.49, "▲"},
		{0.4, "▲"},
		{0.39, "→"},
		{0.0, "→"},
		{-0.39, "→"},
		{-0.4, "▼"},
		{-1.49, "▼"},
		{-1.5, "▼▼"},
		{-3.0, "▼▼"},
	}

	for _, tt := range tests {
		if got := TrendSymbol(tt.slope); got != tt.want {
			t.Errorf("TrendSymbol(%v) = %s, want %s", tt.slope, got, tt.want)
		}
	}
}

func TestSparkline_Empty(t *testing.T) {
	if got := Sparkline(nil, 12); got != "" {
		t.Errorf("Sparkline(nil) = %q, want empty", got)
	}

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	if got := Sparkline(mkSamples(base, 3000), 0); got != "" {
		t.Errorf("Sparkline with width 0 = %q, want empty", got)
	}
}

func TestSparkline_Ramp(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	got := Sparkline(mkSamples(base, 3000, 3100, 3200, 3300), 12)

	runes := []rune(got)
	if len(runes) != 4 {
		t.Fatalf("len = %d, want 4", len(runes))
	}
	if runes[0] != '▁' {
		t.Errorf("first glyph = %c, want ▁", runes[0])
	}
	if runes[3] != '█' {
		t.Errorf("last glyph = %c, want █", runes[3])
	}
}

func TestSparkline_Flat(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	got := Sparkline(mkSamples(base, 3200, 3200, 3200), 12)

	runes := []rune(got)
	if len(runes) != 3 {
		t.Fatalf("len = %d, want 3", len(runes))
	}
	for _, r := range runes {
		if r != runes[0] {
			t.Errorf("flat history should render a uniform line, got %q", got)
		}
	}
}

func TestSparkline_Truncation(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	samples := mkSamples(base, 1000, 2000, 3000, 3100, 3200, 3300)

	got := Sparkline(samples, 3)
	if n := utf8.RuneCountInString(got); n != 3 {
		t.Fatalf("rune count = %d, want 3", n)
	}

	// Only the last three ratings define the scale, so the earliest
	// rendered glyph should be the floor of the truncated window.
	if []rune(got)[0] != '▁' {
		t.Errorf("first glyph = %c, want ▁", []rune(got)[0])
	}
}
