// SC2 Match Briefer - Live Match Intelligence and Smurf Detection
// Copyright 2026 Jamin B. (JaminB)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JaminB/sc2-match-briefer

// Package scheduler turns score events into timed overlay commands. Each
// configured slot shows its content after a configured delay, stays up
// for a configured duration, then hides. A newer event for a slot
// supersedes any pending timers, so the renderer only ever sees the
// latest state.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/JaminB/sc2-match-briefer/internal/bus"
	"github.com/JaminB/sc2-match-briefer/internal/config"
	"github.com/JaminB/sc2-match-briefer/internal/logging"
	"github.com/JaminB/sc2-match-briefer/internal/metrics"
	"github.com/JaminB/sc2-match-briefer/internal/models"
)

// CommandSink receives overlay commands. Implementations must not block;
// the scheduler calls from timer goroutines.
type CommandSink interface {
	SendCommand(cmd models.OverlayCommand)
}

// slotState is the runtime state of one configured slot. The generation
// counter invalidates stale timer callbacks: a timer only acts if the
// generation it captured is still current.
type slotState struct {
	cfg        config.OverlaySlotConfig
	generation uint64
	showTimer  *time.Timer
	hideTimer  *time.Timer
	visible    bool
	shownAt    time.Time
	content    *models.SlotContent
}

// Scheduler consumes score events and drives slot visibility.
type Scheduler struct {
	bus  *bus.Bus
	sink CommandSink
	log  zerolog.Logger

	mu    sync.Mutex
	slots map[string]*slotState
}

// New creates a scheduler for the configured slots.
func New(slots map[string]config.OverlaySlotConfig, eventBus *bus.Bus, sink CommandSink) *Scheduler {
	states := make(map[string]*slotState, len(slots))
	for name, cfg := range slots {
		states[name] = &slotState{cfg: cfg}
	}

	return &Scheduler{
		bus:   eventBus,
		sink:  sink,
		log:   logging.With().Str("component", "scheduler").Logger(),
		slots: states,
	}
}

// Serve consumes score events until the context is cancelled. On
// shutdown every visible slot gets a final hide so the renderer is left
// clean.
func (s *Scheduler) Serve(ctx context.Context) error {
	msgs, err := s.bus.SubscribeScoreEvents(ctx)
	if err != nil {
		return fmt.Errorf("subscribe score events: %w", err)
	}

	s.log.Info().Int("slots", len(s.slots)).Msg("Overlay scheduler started")

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("score event stream closed")
			}

			event, err := bus.DecodeScoreEvent(msg)
			if err != nil {
				s.log.Warn().Err(err).Str("message_id", msg.UUID).Msg("Discarding malformed score event")
				msg.Ack()
				continue
			}

			s.Handle(event)
			msg.Ack()
		}
	}
}

// Handle applies one score event to its slot.
func (s *Scheduler) Handle(event *models.ScoreEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.slots[event.Slot]
	if !ok {
		metrics.OverlayEventsDropped.Inc()
		s.log.Warn().Str("slot", event.Slot).Msg("Score event for unconfigured slot dropped")
		return
	}
	if !state.cfg.Visible {
		metrics.OverlayEventsDropped.Inc()
		s.log.Debug().Str("slot", event.Slot).Msg("Slot disabled, event dropped")
		return
	}

	state.generation++
	gen := state.generation
	s.cancelTimersLocked(state)
	state.content = event.Content

	if state.visible {
		// Slot is already on screen: swap content in place and restart
		// the visibility window.
		s.sendLocked(models.OverlayCommand{
			Slot:    event.Slot,
			Action:  models.ActionUpdateContent,
			Content: state.content,
			SentAt:  time.Now().UTC(),
		})
		state.hideTimer = time.AfterFunc(state.cfg.VisibleFor(), func() {
			s.fire(event.Slot, gen, models.ActionHide)
		})
		return
	}

	delay := state.cfg.ShowDelay()
	state.showTimer = time.AfterFunc(delay, func() {
		s.fire(event.Slot, gen, models.ActionShow)
	})
	state.hideTimer = time.AfterFunc(delay+state.cfg.VisibleFor(), func() {
		s.fire(event.Slot, gen, models.ActionHide)
	})

	s.log.Debug().
		Str("slot", event.Slot).
		Dur("show_in", delay).
		Dur("visible_for", state.cfg.VisibleFor()).
		Msg("Slot scheduled")
}

// SlotStates returns a snapshot of every slot's runtime state.
func (s *Scheduler) SlotStates() map[string]models.OverlaySlotState {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]models.OverlaySlotState, len(s.slots))
	for name, state := range s.slots {
		out[name] = models.OverlaySlotState{
			SlotName: name,
			Visible:  state.visible,
			ShownAt:  state.shownAt,
			Content:  state.content,
		}
	}
	return out
}

// fire executes a scheduled transition if its generation is still
// current.
func (s *Scheduler) fire(slot string, gen uint64, action models.OverlayAction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.slots[slot]
	if !ok || state.generation != gen {
		return
	}

	switch action {
	case models.ActionShow:
		state.visible = true
		state.shownAt = time.Now().UTC()
	case models.ActionHide:
		state.visible = false
		state.shownAt = time.Time{}
	}

	cmd := models.OverlayCommand{
		Slot:   slot,
		Action: action,
		SentAt: time.Now().UTC(),
	}
	if action == models.ActionShow {
		cmd.Content = state.content
	}
	s.sendLocked(cmd)
}

// cancelTimersLocked stops both timers. A timer that had not fired yet
// counts as superseded. Caller holds the mutex.
func (s *Scheduler) cancelTimersLocked(state *slotState) {
	if state.showTimer != nil {
		if state.showTimer.Stop() {
			metrics.OverlayTimersSuperseded.Inc()
		}
		state.showTimer = nil
	}
	if state.hideTimer != nil {
		if state.hideTimer.Stop() {
			metrics.OverlayTimersSuperseded.Inc()
		}
		state.hideTimer = nil
	}
}

// sendLocked forwards a command to the sink. Caller holds the mutex.
func (s *Scheduler) sendLocked(cmd models.OverlayCommand) {
	metrics.OverlayCommands.WithLabelValues(string(cmd.Action)).Inc()
	s.sink.SendCommand(cmd)
	s.log.Debug().Str("slot", cmd.Slot).Str("action", string(cmd.Action)).Msg("Overlay command sent")
}

// shutdown cancels all timers and hides anything still visible.
func (s *Scheduler) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, state := range s.slots {
		state.generation++
		s.cancelTimersLocked(state)
		if state.visible {
			state.visible = false
			s.sendLocked(models.OverlayCommand{
				Slot:   name,
				Action: models.ActionHide,
				SentAt: time.Now().UTC(),
			})
		}
	}
}
