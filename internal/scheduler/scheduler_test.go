// SC2 Match Briefer - Live Match Intelligence and Smurf Detection
// Copyright 2026 Jamin B. (JaminB)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JaminB/sc2-match-briefer

package scheduler

import (
	"sync"
	"testing"
	"time"

	"github.com/JaminB/sc2-match-briefer/internal/config"
	"github.com/JaminB/sc2-match-briefer/internal/models"
)

type captureSink struct {
	mu       sync.Mutex
	commands []models.OverlayCommand
	notify   chan models.OverlayCommand
}

func newCaptureSink() *captureSink {
	return &captureSink{notify: make(chan models.OverlayCommand, 16)}
}

func (s *captureSink) SendCommand(cmd models.OverlayCommand) {
	s.mu.Lock()
	s.commands = append(s.commands, cmd)
	s.mu.Unlock()
	s.notify <- cmd
}

func (s *captureSink) wait(t *testing.T, timeout time.Duration) models.OverlayCommand {
	t.Helper()
	select {
	case cmd := <-s.notify:
		return cmd
	case <-time.After(timeout):
		t.Fatal("timed out waiting for overlay command")
		return models.OverlayCommand{}
	}
}

func (s *captureSink) expectSilence(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case cmd := <-s.notify:
		t.Fatalf("unexpected command: %s %s", cmd.Slot, cmd.Action)
	case <-time.After(d):
	}
}

func slotConfig(delay, visible float64) config.OverlaySlotConfig {
	return config.OverlaySlotConfig{
		Visible:                true,
		Position:               "top_left",
		SecondsDelayBeforeShow: delay,
		SecondsVisible:         visible,
	}
}

func scoreEvent(slot, name string) *models.ScoreEvent {
	likelihood := 0.4
	return models.NewScoreEvent("m1", slot, models.ScoreResult{
		Player:         models.PlayerIdentity{Name: name},
		Likelihood:     &likelihood,
		Classification: models.ClassificationSuspicious,
	})
}

func withContent(event *models.ScoreEvent, name string) *models.ScoreEvent {
	event.Content = &models.SlotContent{PlayerName: name, Classification: event.Result.Classification}
	return event
}

func TestShowThenHide(t *testing.T) {
	sink := newCaptureSink()
	s := New(map[string]config.OverlaySlotConfig{
		"opponent_1": slotConfig(0.02, 0.05),
	}, nil, sink)

	s.Handle(withContent(scoreEvent("opponent_1", "Villain"), "Villain"))

	show := sink.wait(t, time.Second)
	if show.Action != models.ActionShow || show.Slot != "opponent_1" {
		t.Fatalf("first command = %s %s, want show opponent_1", show.Slot, show.Action)
	}
	if show.Content == nil || show.Content.PlayerName != "Villain" {
		t.Errorf("show content = %+v, want Villain payload", show.Content)
	}

	hide := sink.wait(t, time.Second)
	if hide.Action != models.ActionHide {
		t.Fatalf("second command = %s, want hide", hide.Action)
	}

	states := s.SlotStates()
	if states["opponent_1"].Visible {
		t.Error("slot still visible after hide")
	}
}

func TestShowDelayRespected(t *testing.T) {
	sink := newCaptureSink()
	s := New(map[string]config.OverlaySlotConfig{
		"opponent_1": slotConfig(0.1, 1),
	}, nil, sink)

	start := time.Now()
	s.Handle(withContent(scoreEvent("opponent_1", "Villain"), "Villain"))

	show := sink.wait(t, time.Second)
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Errorf("show fired after %v, want >= ~100ms delay", elapsed)
	}
	if show.Action != models.ActionShow {
		t.Fatalf("command = %s, want show", show.Action)
	}
}

func TestNewerEventSupersedesPendingTimers(t *testing.T) {
	sink := newCaptureSink()
	s := New(map[string]config.OverlaySlotConfig{
		"opponent_1": slotConfig(0.08, 0.5),
	}, nil, sink)

	s.Handle(withContent(scoreEvent("opponent_1", "Stale"), "Stale"))
	// Before the first show fires, a fresh result arrives.
	time.Sleep(20 * time.Millisecond)
	s.Handle(withContent(scoreEvent("opponent_1", "Fresh"), "Fresh"))

	show := sink.wait(t, time.Second)
	if show.Content == nil || show.Content.PlayerName != "Fresh" {
		t.Errorf("shown content = %+v, want Fresh (stale timer must not fire)", show.Content)
	}

	// Exactly one show: the superseded timers are dead.
	sink.mu.Lock()
	shows := 0
	for _, cmd := range sink.commands {
		if cmd.Action == models.ActionShow {
			shows++
		}
	}
	sink.mu.Unlock()
	if shows != 1 {
		t.Errorf("show commands = %d, want 1", shows)
	}
}

func TestEventWhileVisibleUpdatesInPlace(t *testing.T) {
	sink := newCaptureSink()
	s := New(map[string]config.OverlaySlotConfig{
		"opponent_1": slotConfig(0, 0.5),
	}, nil, sink)

	s.Handle(withContent(scoreEvent("opponent_1", "First"), "First"))
	show := sink.wait(t, time.Second)
	if show.Action != models.ActionShow {
		t.Fatalf("command = %s, want show", show.Action)
	}

	s.Handle(withContent(scoreEvent("opponent_1", "Second"), "Second"))
	update := sink.wait(t, time.Second)
	if update.Action != models.ActionUpdateContent {
		t.Fatalf("command = %s, want update_content while visible", update.Action)
	}
	if update.Content == nil || update.Content.PlayerName != "Second" {
		t.Errorf("update content = %+v, want Second", update.Content)
	}

	hide := sink.wait(t, time.Second)
	if hide.Action != models.ActionHide {
		t.Errorf("final command = %s, want hide", hide.Action)
	}
}

func TestDisabledSlotDropsEvents(t *testing.T) {
	sink := newCaptureSink()
	cfg := slotConfig(0, 0.05)
	cfg.Visible = false
	s := New(map[string]config.OverlaySlotConfig{"opponent_1": cfg}, nil, sink)

	s.Handle(withContent(scoreEvent("opponent_1", "Villain"), "Villain"))
	sink.expectSilence(t, 100*time.Millisecond)
}

func TestUnknownSlotDropped(t *testing.T) {
	sink := newCaptureSink()
	s := New(map[string]config.OverlaySlotConfig{
		"opponent_1": slotConfig(0, 0.05),
	}, nil, sink)

	s.Handle(withContent(scoreEvent("opponent_9", "Villain"), "Villain"))
	sink.expectSilence(t, 100*time.Millisecond)
}

func TestIndependentSlots(t *testing.T) {
	sink := newCaptureSink()
	s := New(map[string]config.OverlaySlotConfig{
		"opponent_1": slotConfig(0, 1),
		"opponent_2": slotConfig(0, 1),
	}, nil, sink)

	s.Handle(withContent(scoreEvent("opponent_1", "A"), "A"))
	s.Handle(withContent(scoreEvent("opponent_2", "B"), "B"))

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		cmd := sink.wait(t, time.Second)
		if cmd.Action != models.ActionShow {
			t.Fatalf("command = %s, want show", cmd.Action)
		}
		seen[cmd.Slot] = true
	}
	if !seen["opponent_1"] || !seen["opponent_2"] {
		t.Errorf("slots shown = %v, want both", seen)
	}
}

func TestShutdownHidesVisibleSlots(t *testing.T) {
	sink := newCaptureSink()
	s := New(map[string]config.OverlaySlotConfig{
		"opponent_1": slotConfig(0, 10),
	}, nil, sink)

	s.Handle(withContent(scoreEvent("opponent_1", "Villain"), "Villain"))
	show := sink.wait(t, time.Second)
	if show.Action != models.ActionShow {
		t.Fatalf("command = %s, want show", show.Action)
	}

	s.shutdown()
	hide := sink.wait(t, time.Second)
	if hide.Action != models.ActionHide {
		t.Errorf("command = %s, want hide on shutdown", hide.Action)
	}
}
