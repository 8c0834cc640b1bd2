// SC2 Match Briefer - Live Match Intelligence and Smurf Detection
// Copyright 2026 Jamin B. (JaminB)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JaminB/sc2-match-briefer

package pulse

import (
	"time"

	"github.com/JaminB/sc2-match-briefer/internal/models"
)

// PlayerHistory is the aggregated provider view of one player: the
// account's stated rating and tier plus the merged rating history used for
// trend analysis.
type PlayerHistory struct {
	Player        models.PlayerIdentity
	CurrentRating int
	League        models.League
	TotalGames    int
	Samples       []models.RatingSample
}

// Wire types below mirror the provider's JSON. Only the fields the briefer
// reads are declared.

// characterSearchEntry is one candidate from the character search endpoint.
type characterSearchEntry struct {
	LeagueMax        int            `json:"leagueMax"`
	RatingMax        int            `json:"ratingMax"`
	TotalGamesPlayed int            `json:"totalGamesPlayed"`
	CurrentStats     periodStats    `json:"currentStats"`
	PreviousStats    periodStats    `json:"previousStats"`
	Members          teamMemberWire `json:"members"`
}

// periodStats is a season-scoped stats block. Fields are pointers because
// the provider omits them for inactive accounts.
type periodStats struct {
	Rating      *int `json:"rating"`
	GamesPlayed *int `json:"gamesPlayed"`
	Rank        *int `json:"rank"`
}

// rating returns the block's rating, or 0 when absent.
func (p periodStats) rating() int {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}

// teamMemberWire carries the character reference inside search results.
type teamMemberWire struct {
	Character characterWire  `json:"character"`
	RaceGames map[string]int `json:"raceGames"`
}

// characterWire identifies a ladder character.
type characterWire struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Region      string `json:"region"`
	Realm       int    `json:"realm"`
	BattlenetID int64  `json:"battlenetId"`
}

// teamWire is one entry from the character-teams endpoint.
type teamWire struct {
	Rating     int    `json:"rating"`
	LegacyUID  string `json:"legacyUid"`
	QueueType  int    `json:"queueType"`
	TeamType   int    `json:"teamType"`
	LeagueType int    `json:"leagueType"`
	LastPlayed string `json:"lastPlayed"`
}

// lastPlayedTime parses the team's lastPlayed timestamp; zero time when
// absent or malformed.
func (t teamWire) lastPlayedTime() time.Time {
	if t.LastPlayed == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339, t.LastPlayed)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// teamHistoryEntry is one entry from the team-histories endpoint; parallel
// TIMESTAMP/RATING arrays keyed by column name.
type teamHistoryEntry struct {
	History map[string][]int64 `json:"history"`
}

// points converts the parallel arrays into samples, skipping ragged tails.
func (t teamHistoryEntry) points(league models.League) []models.RatingSample {
	timestamps := t.History["TIMESTAMP"]
	ratings := t.History["RATING"]

	n := len(timestamps)
	if len(ratings) < n {
		n = len(ratings)
	}

	samples := make([]models.RatingSample, 0, n)
	for i := 0; i < n; i++ {
		samples = append(samples, models.RatingSample{
			Timestamp: time.Unix(timestamps[i], 0).UTC(),
			Rating:    int(ratings[i]),
			League:    league,
		})
	}
	return samples
}
