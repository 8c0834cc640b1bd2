// SC2 Match Briefer - Live Match Intelligence and Smurf Detection
// Copyright 2026 Jamin B. (JaminB)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JaminB/sc2-match-briefer

package models

import (
	"testing"
)

func TestParseRegion(t *testing.T) {
	tests := []struct {
		in      string
		want    Region
		wantErr bool
	}{
		{"US", RegionUS, false},
		{"eu", RegionEU, false},
		{" kr ", RegionKR, false},
		{"CN", RegionCN, false},
		{"MARS", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseRegion(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRegion(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRegion(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRegionRoundTrip(t *testing.T) {
	for _, region := range []Region{RegionUS, RegionEU, RegionKR, RegionCN} {
		parsed, err := ParseRegion(region.String())
		if err != nil {
			t.Errorf("ParseRegion(%s): %v", region, err)
		}
		if parsed != region {
			t.Errorf("round trip %s: got %v", region, parsed)
		}
	}
}

func TestLeagueString(t *testing.T) {
	if LeagueDiamond.String() != "Diamond" {
		t.Errorf("Diamond = %q", LeagueDiamond.String())
	}
	if League(42).Valid() {
		t.Error("league 42 should not be valid")
	}
	if !LeagueGrandmaster.Valid() {
		t.Error("Grandmaster should be valid")
	}
}

func TestPlayerIdentityKey(t *testing.T) {
	a := PlayerIdentity{Name: "Hero", Region: RegionEU, Realm: 1, ProfileID: 12345}
	b := PlayerIdentity{Name: "Hero", Region: RegionEU, Realm: 1, ProfileID: 12345}
	c := PlayerIdentity{Name: "Hero", Region: RegionUS, Realm: 1, ProfileID: 12345}

	if a.Key() != b.Key() {
		t.Error("identical identities must share a key")
	}
	if a.Key() == c.Key() {
		t.Error("different regions must produce distinct keys")
	}
}

func TestLegacyUID(t *testing.T) {
	p := PlayerIdentity{Region: RegionEU, Realm: 1, ProfileID: 12345}
	got := p.LegacyUID(Format1v1, TeamArranged)
	want := "201-0-2-1.12345.1"
	if got != want {
		t.Errorf("LegacyUID = %q, want %q", got, want)
	}
}

func TestInRoster(t *testing.T) {
	session := &MatchSession{
		Roster: []PlayerIdentity{
			{Name: "Hero", Region: RegionEU},
			{Name: "Villain", Region: RegionEU},
		},
	}
	if !session.InRoster(PlayerIdentity{Name: "Villain", Region: RegionEU}) {
		t.Error("Villain should be in roster")
	}
	if session.InRoster(PlayerIdentity{Name: "Villain", Region: RegionUS}) {
		t.Error("same name on another region is a different player")
	}
}

func TestGameEventValidate(t *testing.T) {
	event := NewGameEvent(EventLobbyFormed, "m1")
	if err := event.Validate(); err != nil {
		t.Errorf("constructed event should validate: %v", err)
	}
	if event.EventID == "" {
		t.Error("EventID must be populated")
	}

	missing := &GameEvent{Type: EventLobbyFormed, MatchID: "m1"}
	if err := missing.Validate(); err == nil {
		t.Error("missing event_id should fail validation")
	}

	noMatch := NewGameEvent(EventMatchStarted, "")
	if err := noMatch.Validate(); err == nil {
		t.Error("missing match_id should fail validation")
	}
}

func TestEventTopics(t *testing.T) {
	if got := NewGameEvent(EventMatchStarted, "m1").Topic(); got != GameEventsTopic {
		t.Errorf("game event topic = %q", got)
	}
	if got := NewScoreEvent("m1", "opponent_1", ScoreResult{}).Topic(); got != ScoreEventsTopic {
		t.Errorf("score event topic = %q", got)
	}
}

func TestScoreResultKnown(t *testing.T) {
	unknown := UnknownScoreResult(PlayerIdentity{Name: "Ghost"})
	if unknown.Known() {
		t.Error("unknown result must not report Known")
	}
	if unknown.Likelihood != nil {
		t.Error("unknown result must carry a nil likelihood")
	}
	if unknown.Classification != ClassificationUnknown {
		t.Errorf("classification = %s", unknown.Classification)
	}

	likelihood := 0.7
	known := ScoreResult{
		Player:         PlayerIdentity{Name: "Villain"},
		Likelihood:     &likelihood,
		Classification: ClassificationLikelySmurf,
	}
	if !known.Known() {
		t.Error("scored result must report Known")
	}
}
