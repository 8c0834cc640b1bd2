// SC2 Match Briefer - Live Match Intelligence and Smurf Detection
// Copyright 2026 Jamin B. (JaminB)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JaminB/sc2-match-briefer

// Package observer polls the local game client's UI API and translates
// raw lobby snapshots into game-state events on the bus. It is the only
// component that talks to the game client; everything downstream sees
// events, never polls.
package observer

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/JaminB/sc2-match-briefer/internal/bus"
	"github.com/JaminB/sc2-match-briefer/internal/config"
	"github.com/JaminB/sc2-match-briefer/internal/logging"
	"github.com/JaminB/sc2-match-briefer/internal/metrics"
	"github.com/JaminB/sc2-match-briefer/internal/models"
)

// uiPlayer is one roster entry in the game client's response.
type uiPlayer struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Race   string `json:"race"`
	Result string `json:"result"`
}

// gameState is the client's live game snapshot.
type gameState struct {
	IsReplay    bool       `json:"isReplay"`
	DisplayTime float64    `json:"displayTime"`
	Players     []uiPlayer `json:"players"`
}

const (
	playerTypeUser  = "user"
	resultUndecided = "Undecided"
)

// Observer polls the client and maintains just enough state to emit
// lifecycle events exactly once per transition.
type Observer struct {
	cfg        config.ClientConfig
	bus        *bus.Bus
	httpClient *http.Client
	log        zerolog.Logger

	matchID string
	started bool
	roster  map[string]struct{}
}

// New creates an observer.
func New(cfg config.ClientConfig, eventBus *bus.Bus) *Observer {
	return &Observer{
		cfg:        cfg,
		bus:        eventBus,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logging.With().Str("component", "observer").Logger(),
		roster:     make(map[string]struct{}),
	}
}

// Serve polls the game client until the context is cancelled.
func (o *Observer) Serve(ctx context.Context) error {
	ticker := time.NewTicker(o.cfg.PollInterval)
	defer ticker.Stop()

	o.log.Info().Str("url", o.cfg.URL).Dur("interval", o.cfg.PollInterval).Msg("Game observer started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			o.poll(ctx)
		}
	}
}

// poll runs one observation cycle. Failures are logged and counted; the
// client being unreachable is normal whenever the game is not running.
func (o *Observer) poll(ctx context.Context) {
	state, err := o.fetchState(ctx)
	if err != nil {
		metrics.ObserverPollErrors.Inc()
		o.log.Debug().Err(err).Msg("Game client poll failed")

		// An unreachable client with a live session means the game was
		// closed mid-match.
		if o.matchID != "" {
			o.emitEnded(ctx)
		}
		return
	}

	o.apply(ctx, state)
}

// apply diffs one snapshot against the tracked state and emits events
// for every transition it reveals.
func (o *Observer) apply(ctx context.Context, state *gameState) {
	humans := humanPlayers(state)

	// Replays and empty rosters read as "no live match".
	if state.IsReplay || len(humans) == 0 {
		if o.matchID != "" {
			o.emitEnded(ctx)
		}
		return
	}

	if decided(state) {
		if o.matchID != "" {
			o.emitEnded(ctx)
		}
		return
	}

	if o.matchID == "" {
		o.emitLobby(ctx, humans)
	} else if newcomers := o.newcomers(humans); len(newcomers) > 0 {
		o.emitRoster(ctx, newcomers)
	}

	// A running clock means loading finished and the match is live.
	if !o.started && state.DisplayTime > 0 {
		o.emitStarted(ctx)
	}
}

func (o *Observer) fetchState(ctx context.Context) (*gameState, error) {
	reqCtx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, o.cfg.URL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("game client returned %d", resp.StatusCode)
	}

	var state gameState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return nil, fmt.Errorf("decode game state: %w", err)
	}
	return &state, nil
}

func (o *Observer) emitLobby(ctx context.Context, humans []models.PlayerIdentity) {
	o.matchID = uuid.New().String()
	o.started = false
	o.roster = make(map[string]struct{}, len(humans))
	for _, p := range humans {
		o.roster[p.Name] = struct{}{}
	}

	event := models.NewGameEvent(models.EventLobbyFormed, o.matchID)
	event.Players = humans
	o.publish(ctx, event)

	o.log.Info().Str("match_id", o.matchID).Int("players", len(humans)).Msg("Lobby detected")
}

func (o *Observer) emitRoster(ctx context.Context, newcomers []models.PlayerIdentity) {
	for _, p := range newcomers {
		o.roster[p.Name] = struct{}{}
	}

	event := models.NewGameEvent(models.EventRosterUpdated, o.matchID)
	event.Players = newcomers
	o.publish(ctx, event)
}

func (o *Observer) emitStarted(ctx context.Context) {
	o.started = true
	o.publish(ctx, models.NewGameEvent(models.EventMatchStarted, o.matchID))
	o.log.Info().Str("match_id", o.matchID).Msg("Match running")
}

func (o *Observer) emitEnded(ctx context.Context) {
	o.publish(ctx, models.NewGameEvent(models.EventMatchEnded, o.matchID))
	o.log.Info().Str("match_id", o.matchID).Msg("Match over")

	o.matchID = ""
	o.started = false
	o.roster = make(map[string]struct{})
}

func (o *Observer) publish(ctx context.Context, event *models.GameEvent) {
	if err := o.bus.PublishGameEvent(ctx, event); err != nil {
		o.log.Error().Err(err).Str("type", string(event.Type)).Msg("Failed to publish game event")
	}
}

// newcomers returns the humans not yet in the tracked roster.
func (o *Observer) newcomers(humans []models.PlayerIdentity) []models.PlayerIdentity {
	var out []models.PlayerIdentity
	for _, p := range humans {
		if _, seen := o.roster[p.Name]; !seen {
			out = append(out, p)
		}
	}
	return out
}

// humanPlayers extracts the human roster from a snapshot. AI opponents
// have no ladder history to look up.
func humanPlayers(state *gameState) []models.PlayerIdentity {
	var out []models.PlayerIdentity
	for _, p := range state.Players {
		if p.Type == playerTypeUser && p.Name != "" {
			out = append(out, models.PlayerIdentity{Name: p.Name})
		}
	}
	return out
}

// decided reports whether any human result is final.
func decided(state *gameState) bool {
	for _, p := range state.Players {
		if p.Type == playerTypeUser && p.Result != "" && p.Result != resultUndecided {
			return true
		}
	}
	return false
}
