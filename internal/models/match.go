// SC2 Match Briefer - Live Match Intelligence and Smurf Detection
// Copyright 2026 Jamin B. (JaminB)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JaminB/sc2-match-briefer

package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchPhase is a match lifecycle state.
type MatchPhase string

const (
	PhaseIdle       MatchPhase = "idle"
	PhaseLobby      MatchPhase = "lobby"
	PhaseInProgress MatchPhase = "in_progress"
	PhaseEnded      MatchPhase = "ended"
)

// MatchSession tracks one observed match. It owns the lifecycle of all
// ScoreResults computed while it is live; the session is discarded after
// the Ended handoff completes.
type MatchSession struct {
	MatchID   string           `json:"match_id"`
	Phase     MatchPhase       `json:"phase"`
	Roster    []PlayerIdentity `json:"roster"`
	StartTime time.Time        `json:"start_time"`
}

// InRoster reports whether the identity is already part of the roster.
func (s *MatchSession) InRoster(p PlayerIdentity) bool {
	for _, member := range s.Roster {
		if member.Key() == p.Key() {
			return true
		}
	}
	return false
}

// GameEventType identifies an inbound game-state event.
type GameEventType string

const (
	// EventLobbyFormed indicates a match is being formed; carries the
	// initially detected roster.
	EventLobbyFormed GameEventType = "lobby_formed"

	// EventMatchStarted indicates the match began; the roster freezes.
	EventMatchStarted GameEventType = "match_started"

	// EventRosterUpdated indicates players were revealed after the lobby
	// formed (for example mid loading screen).
	EventRosterUpdated GameEventType = "roster_updated"

	// EventMatchEnded indicates the match concluded.
	EventMatchEnded GameEventType = "match_ended"
)

// GameEventsTopic is the bus topic carrying game-state events.
const GameEventsTopic = "game.state"

// ScoreEventsTopic is the bus topic carrying completed score results.
const ScoreEventsTopic = "briefing.score"

// GameEvent is the canonical inbound event from the game-state observer.
type GameEvent struct {
	EventID   string           `json:"event_id"`
	Type      GameEventType    `json:"type"`
	MatchID   string           `json:"match_id"`
	Players   []PlayerIdentity `json:"players,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// NewGameEvent creates a game event with a unique ID and UTC timestamp.
func NewGameEvent(eventType GameEventType, matchID string) *GameEvent {
	return &GameEvent{
		EventID:   uuid.New().String(),
		Type:      eventType,
		MatchID:   matchID,
		Timestamp: time.Now().UTC(),
	}
}

// Validate checks required fields.
func (e *GameEvent) Validate() error {
	if e.EventID == "" {
		return &ValidationError{Field: "event_id", Message: "required"}
	}
	if e.Type == "" {
		return &ValidationError{Field: "type", Message: "required"}
	}
	if e.MatchID == "" {
		return &ValidationError{Field: "match_id", Message: "required"}
	}
	return nil
}

// Topic returns the bus topic for this event.
func (e *GameEvent) Topic() string {
	return GameEventsTopic
}

// ScoreEvent is published when one opponent's scoring pipeline completes.
// Slot names the overlay slot the result targets.
type ScoreEvent struct {
	EventID   string      `json:"event_id"`
	MatchID   string      `json:"match_id"`
	Slot      string      `json:"slot"`
	Result    ScoreResult `json:"result"`
	Timestamp time.Time   `json:"timestamp"`

	// Content is the pre-rendered display payload for the slot. The
	// scheduler forwards it untouched.
	Content *SlotContent `json:"content,omitempty"`
}

// NewScoreEvent creates a score event with a unique ID and UTC timestamp.
func NewScoreEvent(matchID, slot string, result ScoreResult) *ScoreEvent {
	return &ScoreEvent{
		EventID:   uuid.New().String(),
		MatchID:   matchID,
		Slot:      slot,
		Result:    result,
		Timestamp: time.Now().UTC(),
	}
}

// Topic returns the bus topic for this event.
func (e *ScoreEvent) Topic() string {
	return ScoreEventsTopic
}

// ValidationError represents a field validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
