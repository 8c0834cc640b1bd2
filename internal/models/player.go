// SC2 Match Briefer - Live Match Intelligence and Smurf Detection
// Copyright 2026 Jamin B. (JaminB)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JaminB/sc2-match-briefer

package models

import (
	"fmt"
	"strings"
)

// Region identifies a ladder region using the provider's numeric codes.
type Region int

const (
	RegionUS Region = 1
	RegionEU Region = 2
	RegionKR Region = 3
	RegionCN Region = 5
)

// String returns the short region name (US, EU, KR, CN).
func (r Region) String() string {
	switch r {
	case RegionUS:
		return "US"
	case RegionEU:
		return "EU"
	case RegionKR:
		return "KR"
	case RegionCN:
		return "CN"
	default:
		return fmt.Sprintf("region(%d)", int(r))
	}
}

// ParseRegion converts a region name to its code. Case-insensitive.
func ParseRegion(s string) (Region, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "US":
		return RegionUS, nil
	case "EU":
		return RegionEU, nil
	case "KR":
		return RegionKR, nil
	case "CN":
		return RegionCN, nil
	default:
		return 0, fmt.Errorf("unknown region: %q", s)
	}
}

// League is a ladder league tier using the provider's numeric codes.
type League int

const (
	LeagueBronze      League = 0
	LeagueSilver      League = 1
	LeagueGold        League = 2
	LeaguePlatinum    League = 3
	LeagueDiamond     League = 4
	LeagueMaster      League = 5
	LeagueGrandmaster League = 6
)

var leagueNames = map[League]string{
	LeagueBronze:      "Bronze",
	LeagueSilver:      "Silver",
	LeagueGold:        "Gold",
	LeaguePlatinum:    "Platinum",
	LeagueDiamond:     "Diamond",
	LeagueMaster:      "Master",
	LeagueGrandmaster: "Grandmaster",
}

// String returns the league's display name.
func (l League) String() string {
	if name, ok := leagueNames[l]; ok {
		return name
	}
	return fmt.Sprintf("league(%d)", int(l))
}

// Valid reports whether the league code is a known tier.
func (l League) Valid() bool {
	_, ok := leagueNames[l]
	return ok
}

// TeamFormat identifies the queue format using the provider's numeric codes.
type TeamFormat int

const (
	Format1v1    TeamFormat = 201
	Format2v2    TeamFormat = 202
	Format3v3    TeamFormat = 203
	Format4v4    TeamFormat = 204
	FormatArchon TeamFormat = 206
)

// TeamType distinguishes arranged from random teams.
type TeamType int

const (
	TeamArranged TeamType = 0
	TeamRandom   TeamType = 1
)

// PlayerIdentity uniquely identifies a ladder player. Identities are value
// types and immutable once created; Key() is the canonical cache key.
type PlayerIdentity struct {
	Name      string `json:"name"`
	Region    Region `json:"region"`
	Realm     int    `json:"realm"`
	ProfileID int64  `json:"profile_id"`
}

// Key returns the canonical identity key: region/realm/profile/name.
// Two identities with the same key refer to the same player.
func (p PlayerIdentity) Key() string {
	return fmt.Sprintf("%d/%d/%d/%s", int(p.Region), p.Realm, p.ProfileID, p.Name)
}

// String implements fmt.Stringer for logging.
func (p PlayerIdentity) String() string {
	return fmt.Sprintf("%s (%s)", p.Name, p.Region)
}

// LegacyUID reproduces the provider's team legacy UID format for a solo
// queue entry: {format}-{teamType}-{region}-{realm}.{profileID}.{realm}
func (p PlayerIdentity) LegacyUID(format TeamFormat, teamType TeamType) string {
	legacyID := fmt.Sprintf("%d.%d.%d", p.Realm, p.ProfileID, p.Realm)
	return fmt.Sprintf("%d-%d-%d-%s", int(format), int(teamType), int(p.Region), legacyID)
}
