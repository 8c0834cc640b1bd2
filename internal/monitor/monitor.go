// SC2 Match Briefer - Live Match Intelligence and Smurf Detection
// Copyright 2026 Jamin B. (JaminB)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JaminB/sc2-match-briefer

// Package monitor owns the match lifecycle. It consumes game-state events
// from the bus, drives the idle/lobby/in-progress/ended state machine,
// launches one scoring pipeline per detected opponent, and publishes score
// events as pipelines complete. When a match ends it hands the finalized
// record to the log sink and resets to idle.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/JaminB/sc2-match-briefer/internal/analyze"
	"github.com/JaminB/sc2-match-briefer/internal/bus"
	"github.com/JaminB/sc2-match-briefer/internal/config"
	"github.com/JaminB/sc2-match-briefer/internal/logging"
	"github.com/JaminB/sc2-match-briefer/internal/metrics"
	"github.com/JaminB/sc2-match-briefer/internal/models"
	"github.com/JaminB/sc2-match-briefer/internal/pulse"
	"github.com/JaminB/sc2-match-briefer/internal/session"
)

// sparklineWidth is how many history points the overlay sparkline shows.
const sparklineWidth = 12

// Monitor is the match state machine and pipeline coordinator.
type Monitor struct {
	cfg      *config.Config
	bus      *bus.Bus
	cache    *session.Cache
	provider pulse.Client
	scorer   *analyze.Scorer
	sink     LogSink
	log      zerolog.Logger

	// ownSide holds lowercased names never treated as opponents.
	ownSide map[string]struct{}

	mu       sync.Mutex
	session  *models.MatchSession
	slots    map[string]string                  // player key -> overlay slot
	inFlight map[string]models.PlayerIdentity   // player key -> identity, pipeline running
	wg       sync.WaitGroup
}

// New creates a monitor. A nil sink falls back to the logging sink.
func New(cfg *config.Config, eventBus *bus.Bus, cache *session.Cache, provider pulse.Client, sink LogSink) *Monitor {
	if sink == nil {
		sink = NewLoggingSink()
	}

	ownSide := make(map[string]struct{})
	ownSide[normalizeName(cfg.Me.Name)] = struct{}{}
	for _, member := range cfg.Team.Members {
		ownSide[normalizeName(member)] = struct{}{}
	}

	return &Monitor{
		cfg:      cfg,
		bus:      eventBus,
		cache:    cache,
		provider: provider,
		scorer:   analyze.NewScorer(cfg.Scoring),
		sink:     sink,
		log:      logging.With().Str("component", "monitor").Logger(),
		ownSide:  ownSide,
		slots:    make(map[string]string),
		inFlight: make(map[string]models.PlayerIdentity),
	}
}

// Serve consumes game-state events until the context is cancelled. It
// satisfies the supervision tree's service contract: returning an error
// triggers a restart with fresh idle state.
func (m *Monitor) Serve(ctx context.Context) error {
	msgs, err := m.bus.SubscribeGameEvents(ctx)
	if err != nil {
		return fmt.Errorf("subscribe game events: %w", err)
	}

	m.log.Info().Msg("Match monitor started")

	for {
		select {
		case <-ctx.Done():
			m.drain(ctx)
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("game event stream closed")
			}

			event, err := bus.DecodeGameEvent(msg)
			if err != nil {
				m.log.Warn().Err(err).Str("message_id", msg.UUID).Msg("Discarding malformed game event")
				msg.Ack()
				continue
			}

			m.handleEvent(ctx, event)
			msg.Ack()
		}
	}
}

// Phase returns the current lifecycle phase.
func (m *Monitor) Phase() models.MatchPhase {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return models.PhaseIdle
	}
	return m.session.Phase
}

// Session returns a copy of the current match session, or nil when idle.
func (m *Monitor) Session() *models.MatchSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return nil
	}
	copied := *m.session
	copied.Roster = append([]models.PlayerIdentity(nil), m.session.Roster...)
	return &copied
}

// handleEvent applies one event to the state machine. Invalid transitions
// log a state error, reset to idle, and then replay the event against the
// idle state so a missed match end never wedges the monitor.
func (m *Monitor) handleEvent(ctx context.Context, event *models.GameEvent) {
	m.mu.Lock()
	phase := models.PhaseIdle
	if m.session != nil {
		phase = m.session.Phase
	}

	// An event for a different match means this session's end was missed.
	if m.session != nil && event.MatchID != m.session.MatchID {
		m.stateErrorLocked(event, "event for a different match")
		m.mu.Unlock()
		m.finalize(ctx, time.Now().UTC())
		m.handleEvent(ctx, event)
		return
	}

	switch phase {
	case models.PhaseIdle:
		switch event.Type {
		case models.EventLobbyFormed:
			m.startSessionLocked(ctx, event, models.PhaseLobby)
		case models.EventMatchStarted:
			// Briefer started mid-lobby; join the match directly.
			m.startSessionLocked(ctx, event, models.PhaseInProgress)
			metrics.MatchesStarted.Inc()
		default:
			m.log.Debug().Str("type", string(event.Type)).Msg("Ignoring event while idle")
		}
		m.mu.Unlock()

	case models.PhaseLobby:
		switch event.Type {
		case models.EventRosterUpdated:
			m.admitPlayersLocked(ctx, event.Players)
			m.mu.Unlock()
		case models.EventMatchStarted:
			m.session.Phase = models.PhaseInProgress
			m.session.StartTime = event.Timestamp
			m.admitPlayersLocked(ctx, event.Players)
			metrics.MatchesStarted.Inc()
			m.log.Info().Str("match_id", m.session.MatchID).Int("roster", len(m.session.Roster)).Msg("Match started")
			m.mu.Unlock()
		case models.EventMatchEnded:
			// Lobby dissolved before the match began.
			m.log.Info().Str("match_id", m.session.MatchID).Msg("Lobby abandoned")
			m.mu.Unlock()
			m.finalize(ctx, event.Timestamp)
		case models.EventLobbyFormed:
			m.log.Debug().Str("match_id", event.MatchID).Msg("Duplicate lobby event ignored")
			m.mu.Unlock()
		default:
			m.stateErrorLocked(event, "unexpected event in lobby")
			m.mu.Unlock()
			m.finalize(ctx, time.Now().UTC())
		}

	case models.PhaseInProgress:
		switch event.Type {
		case models.EventRosterUpdated:
			m.admitPlayersLocked(ctx, event.Players)
			m.mu.Unlock()
		case models.EventMatchEnded:
			metrics.MatchesEnded.Inc()
			m.mu.Unlock()
			m.finalize(ctx, event.Timestamp)
		case models.EventMatchStarted:
			m.log.Debug().Str("match_id", event.MatchID).Msg("Duplicate start event ignored")
			m.mu.Unlock()
		default:
			m.stateErrorLocked(event, "unexpected event in progress")
			m.mu.Unlock()
			m.finalize(ctx, time.Now().UTC())
		}

	default:
		m.stateErrorLocked(event, "event in terminal phase")
		m.mu.Unlock()
		m.finalize(ctx, time.Now().UTC())
	}
}

// startSessionLocked opens a new session and admits the initial roster.
// Caller holds the mutex.
func (m *Monitor) startSessionLocked(ctx context.Context, event *models.GameEvent, phase models.MatchPhase) {
	m.session = &models.MatchSession{
		MatchID:   event.MatchID,
		Phase:     phase,
		StartTime: event.Timestamp,
	}
	m.slots = make(map[string]string)
	m.inFlight = make(map[string]models.PlayerIdentity)
	m.cache.BeginMatch(event.MatchID)

	m.log.Info().
		Str("match_id", event.MatchID).
		Str("phase", string(phase)).
		Int("players", len(event.Players)).
		Msg("Match session opened")

	m.admitPlayersLocked(ctx, event.Players)
}

// admitPlayersLocked adds newly revealed players to the roster and starts
// a scoring pipeline for each new opponent. Caller holds the mutex.
func (m *Monitor) admitPlayersLocked(ctx context.Context, players []models.PlayerIdentity) {
	for _, p := range players {
		if p.Name == "" || m.session.InRoster(p) {
			continue
		}
		m.session.Roster = append(m.session.Roster, p)

		if _, own := m.ownSide[normalizeName(p.Name)]; own {
			continue
		}

		slot := fmt.Sprintf("opponent_%d", len(m.slots)+1)
		key := p.Key()
		m.slots[key] = slot
		m.inFlight[key] = p

		m.log.Info().
			Str("match_id", m.session.MatchID).
			Str("player", p.Name).
			Str("slot", slot).
			Msg("Opponent detected, starting lookup")

		m.wg.Add(1)
		go m.runPipeline(ctx, m.session.MatchID, slot, p)
	}
}

// runPipeline fetches, analyzes, and scores one opponent, then publishes
// the result. Failures degrade to the unknown placeholder rather than
// blocking the match flow.
func (m *Monitor) runPipeline(ctx context.Context, matchID, slot string, identity models.PlayerIdentity) {
	defer m.wg.Done()

	result, err := m.cache.GetOrFetch(ctx, matchID, identity, func(ctx context.Context) (models.ScoreResult, error) {
		return m.scoreOpponent(ctx, identity)
	})
	if err != nil {
		m.log.Warn().Err(err).Str("player", identity.Name).Msg("Opponent lookup failed, reporting unknown")
		result = models.UnknownScoreResult(identity)
	}

	m.completePipeline(ctx, matchID, slot, identity, result)
}

// scoreOpponent is the fetch path behind the session cache: provider
// history, volatility analysis, likelihood scoring.
func (m *Monitor) scoreOpponent(ctx context.Context, identity models.PlayerIdentity) (models.ScoreResult, error) {
	history, err := m.provider.FetchHistory(ctx, identity)
	if err != nil {
		return models.ScoreResult{}, err
	}

	stats := analyze.Analyze(history.Samples, m.cfg.Scoring.Window)
	result := m.scorer.Score(history.Player, history.League, stats)

	result.Rating = history.CurrentRating
	result.League = history.League
	result.Sparkline = analyze.Sparkline(history.Samples, sparklineWidth)
	result.WinLoss = analyze.WinLossStats(history.Samples, time.Now().UTC())
	return result, nil
}

// completePipeline publishes the score event if the match is still
// current, and always clears the in-flight marker.
func (m *Monitor) completePipeline(ctx context.Context, matchID, slot string, identity models.PlayerIdentity, result models.ScoreResult) {
	m.mu.Lock()
	current := m.session != nil && m.session.MatchID == matchID
	delete(m.inFlight, identity.Key())
	m.mu.Unlock()

	if !current {
		m.log.Debug().
			Str("player", identity.Name).
			Str("match_id", matchID).
			Msg("Pipeline finished after match ended, result dropped")
		return
	}

	event := models.NewScoreEvent(matchID, slot, result)
	event.Content = buildContent(result)

	if err := m.bus.PublishScoreEvent(ctx, event); err != nil {
		m.log.Error().Err(err).Str("slot", slot).Msg("Failed to publish score event")
		return
	}

	m.log.Info().
		Str("match_id", matchID).
		Str("slot", slot).
		Str("player", result.Player.Name).
		Str("classification", string(result.Classification)).
		Dur("history_span", analyze.WindowSpan(result.Stats)).
		Msg("Opponent scored")
}

// buildContent renders the overlay payload for a score result.
func buildContent(result models.ScoreResult) *models.SlotContent {
	content := &models.SlotContent{
		PlayerName:     result.Player.Name,
		TrendSymbol:    analyze.TrendSymbol(result.Stats.TrendSlope),
		Classification: result.Classification,
		Likelihood:     result.Likelihood,
	}

	if !result.Known() {
		content.Note = "no rating data"
		return content
	}

	content.League = result.League.String()
	content.Rating = result.Rating
	content.Sparkline = result.Sparkline
	content.WinLossLine = analyze.WinLossLine(result.WinLoss)
	content.Warning = analyze.WinRateWarning(result.WinLoss)
	return content
}

// finalize closes the current session: snapshot completed results, fill
// unknown placeholders for pipelines still in flight, hand the record to
// the sink, and reset to idle.
func (m *Monitor) finalize(ctx context.Context, endedAt time.Time) {
	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()
		return
	}

	sess := m.session
	m.session = nil

	scored := make(map[string]models.ScoreResult)
	for _, r := range m.cache.Snapshot(sess.MatchID) {
		scored[r.Player.Key()] = r
	}

	// Results follow the frozen roster order. Every roster entry that got
	// a pipeline appears exactly once: scored if its lookup stored a
	// result, otherwise an unknown placeholder.
	var results []models.ScoreResult
	for _, identity := range sess.Roster {
		key := identity.Key()
		if _, opponent := m.slots[key]; !opponent {
			continue
		}
		if r, ok := scored[key]; ok {
			results = append(results, r)
		} else {
			results = append(results, models.UnknownScoreResult(identity))
		}
	}

	m.inFlight = make(map[string]models.PlayerIdentity)
	m.slots = make(map[string]string)
	m.mu.Unlock()

	m.cache.EndMatch(sess.MatchID)

	record := models.MatchRecord{
		MatchID:   sess.MatchID,
		StartedAt: sess.StartTime,
		EndedAt:   endedAt,
		Results:   results,
	}

	if err := m.sink.RecordMatch(ctx, record); err != nil {
		m.log.Error().Err(err).Str("match_id", sess.MatchID).Msg("Match record handoff failed")
	}

	m.log.Info().
		Str("match_id", sess.MatchID).
		Int("results", len(record.Results)).
		Msg("Match session closed")
}

// drain waits briefly for in-flight pipelines during shutdown.
func (m *Monitor) drain(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		m.log.Warn().Msg("Shutdown with pipelines still in flight")
	}
}

// stateErrorLocked logs an invalid transition. Caller holds the mutex.
func (m *Monitor) stateErrorLocked(event *models.GameEvent, reason string) {
	metrics.MonitorStateErrors.Inc()

	matchID := ""
	phase := models.PhaseIdle
	if m.session != nil {
		matchID = m.session.MatchID
		phase = m.session.Phase
	}

	m.log.Warn().
		Str("reason", reason).
		Str("phase", string(phase)).
		Str("session_match", matchID).
		Str("event_type", string(event.Type)).
		Str("event_match", event.MatchID).
		Msg("Invalid match-state transition, resetting")
}

func normalizeName(name string) string {
	b := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		b = append(b, c)
	}
	return string(b)
}
