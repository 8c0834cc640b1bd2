// SC2 Match Briefer - Live Match Intelligence and Smurf Detection
// Copyright 2026 Jamin B. (JaminB)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JaminB/sc2-match-briefer

package analyze

import (
	"fmt"
	"sort"
	"time"

	"github.com/JaminB/sc2-match-briefer/internal/models"
)

// Minimum counted games before a window's win rate is trusted, and the
// rate each window must reach to raise a warning.
const (
	warnGames3d   = 5
	warnRate3d    = 0.80
	warnGamesWeek = 8
	warnRateWeek  = 0.75
	warnGamesLife = 30
	warnRateLife  = 0.70
)

// WinLossStats derives windowed win/loss tallies from a rating history.
// A positive delta between consecutive samples counts as a win, a
// negative one as a loss; an unchanged rating counts as neither. Each
// game is attributed to the later sample's timestamp, windowed against
// now.
func WinLossStats(samples []models.RatingSample, now time.Time) models.WinLossWindows {
	if len(samples) < 2 {
		return models.WinLossWindows{}
	}

	sorted := make([]models.RatingSample, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var w models.WinLossWindows
	for i := 1; i < len(sorted); i++ {
		delta := sorted[i].Rating - sorted[i-1].Rating
		if delta == 0 {
			continue
		}

		tally := func(wl *models.WinLoss) {
			if delta > 0 {
				wl.Wins++
			} else {
				wl.Losses++
			}
		}

		tally(&w.Lifetime)
		age := now.Sub(sorted[i].Timestamp)
		if age <= 24*time.Hour {
			tally(&w.Day)
		}
		if age <= 3*24*time.Hour {
			tally(&w.ThreeDays)
		}
		if age <= 7*24*time.Hour {
			tally(&w.Week)
		}
		if age <= 30*24*time.Hour {
			tally(&w.Month)
		}
	}
	return w
}

// WinRateWarning maps windowed win rates to a headline warning. Recent
// windows take precedence: a hot 3-day streak outranks a merely strong
// lifetime record. Returns "" when no window crosses its bar.
func WinRateWarning(w models.WinLossWindows) string {
	if w.ThreeDays.Games() >= warnGames3d && w.ThreeDays.Rate() >= warnRate3d {
		return "likely smurf (3d winrate 80%+)"
	}
	if w.Week.Games() >= warnGamesWeek && w.Week.Rate() >= warnRateWeek {
		return "possible smurf (7d winrate 75%+)"
	}
	if w.Lifetime.Games() >= warnGamesLife && w.Lifetime.Rate() >= warnRateLife {
		return "suspiciously strong lifetime winrate"
	}
	return ""
}

// WinLossLine renders the win/loss summary as one overlay line. Recent
// windows are preferred; a player with no games this week falls back to
// the lifetime tally. Empty when no games were counted at all.
func WinLossLine(w models.WinLossWindows) string {
	if w.ThreeDays.Games() > 0 || w.Week.Games() > 0 {
		return fmt.Sprintf("3d %dW-%dL  7d %dW-%dL",
			w.ThreeDays.Wins, w.ThreeDays.Losses, w.Week.Wins, w.Week.Losses)
	}
	if w.Lifetime.Games() > 0 {
		return fmt.Sprintf("lifetime %dW-%dL", w.Lifetime.Wins, w.Lifetime.Losses)
	}
	return ""
}
