// SC2 Match Briefer - Live Match Intelligence and Smurf Detection
// Copyright 2026 Jamin B. (JaminB)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JaminB/sc2-match-briefer

package observer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/JaminB/sc2-match-briefer/internal/bus"
	"github.com/JaminB/sc2-match-briefer/internal/config"
	"github.com/JaminB/sc2-match-briefer/internal/models"
)

// fakeClient serves a mutable game-state snapshot.
type fakeClient struct {
	mu   sync.Mutex
	body string
	code int
}

func (f *fakeClient) set(body string) {
	f.mu.Lock()
	f.body = body
	f.code = http.StatusOK
	f.mu.Unlock()
}

func (f *fakeClient) fail(code int) {
	f.mu.Lock()
	f.code = code
	f.mu.Unlock()
}

func (f *fakeClient) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	body, code := f.body, f.code
	f.mu.Unlock()

	if code != http.StatusOK {
		w.WriteHeader(code)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(body))
}

const (
	lobbyJSON = `{"isReplay":false,"displayTime":0,"players":[
		{"id":1,"name":"Hero","type":"user","race":"Terr","result":"Undecided"},
		{"id":2,"name":"Villain","type":"user","race":"Zerg","result":"Undecided"}]}`

	runningJSON = `{"isReplay":false,"displayTime":42.5,"players":[
		{"id":1,"name":"Hero","type":"user","race":"Terr","result":"Undecided"},
		{"id":2,"name":"Villain","type":"user","race":"Zerg","result":"Undecided"}]}`

	decidedJSON = `{"isReplay":false,"displayTime":900.1,"players":[
		{"id":1,"name":"Hero","type":"user","race":"Terr","result":"Victory"},
		{"id":2,"name":"Villain","type":"user","race":"Zerg","result":"Defeat"}]}`

	menuJSON = `{"isReplay":false,"displayTime":0,"players":[]}`

	replayJSON = `{"isReplay":true,"displayTime":10,"players":[
		{"id":1,"name":"Someone","type":"user","race":"Prot","result":"Undecided"}]}`

	vsAIJSON = `{"isReplay":false,"displayTime":5,"players":[
		{"id":1,"name":"Hero","type":"user","race":"Terr","result":"Undecided"},
		{"id":2,"name":"A.I. 1 (Very Easy)","type":"computer","race":"Rand","result":"Undecided"}]}`
)

type harness struct {
	observer *Observer
	client   *fakeClient
	events   <-chan *models.GameEvent
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	client := &fakeClient{code: http.StatusOK, body: menuJSON}
	server := httptest.NewServer(client)
	t.Cleanup(server.Close)

	b := bus.New()
	t.Cleanup(func() { b.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	msgs, err := b.SubscribeGameEvents(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	// Publishing blocks until the subscriber acks, so poll() would wedge
	// against an unread subscription; the pump acks as messages arrive and
	// hands tests decoded events in delivery order.
	events := make(chan *models.GameEvent, 16)
	go func() {
		for msg := range msgs {
			event, err := bus.DecodeGameEvent(msg)
			msg.Ack()
			if err != nil {
				continue
			}
			events <- event
		}
	}()

	o := New(config.ClientConfig{
		URL:          server.URL,
		PollInterval: time.Second,
		Timeout:      time.Second,
	}, b)

	return &harness{observer: o, client: client, events: events}
}

func (h *harness) poll() {
	h.observer.poll(context.Background())
}

func (h *harness) next(t *testing.T) *models.GameEvent {
	t.Helper()
	select {
	case event, ok := <-h.events:
		if !ok {
			t.Fatal("event stream closed")
		}
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for game event")
		return nil
	}
}

func (h *harness) expectSilence(t *testing.T) {
	t.Helper()
	select {
	case event := <-h.events:
		t.Fatalf("unexpected event: %+v", event)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestMenuProducesNoEvents(t *testing.T) {
	h := newHarness(t)

	h.client.set(menuJSON)
	h.poll()
	h.poll()

	h.expectSilence(t)
}

func TestLobbyThenStartThenEnd(t *testing.T) {
	h := newHarness(t)

	h.client.set(lobbyJSON)
	h.poll()

	lobby := h.next(t)
	if lobby.Type != models.EventLobbyFormed {
		t.Fatalf("first event = %s, want lobby_formed", lobby.Type)
	}
	if len(lobby.Players) != 2 {
		t.Errorf("lobby players = %d, want 2", len(lobby.Players))
	}

	h.client.set(runningJSON)
	h.poll()

	started := h.next(t)
	if started.Type != models.EventMatchStarted {
		t.Fatalf("second event = %s, want match_started", started.Type)
	}
	if started.MatchID != lobby.MatchID {
		t.Errorf("match ID changed between lobby and start")
	}

	h.client.set(decidedJSON)
	h.poll()

	ended := h.next(t)
	if ended.Type != models.EventMatchEnded {
		t.Fatalf("third event = %s, want match_ended", ended.Type)
	}
	if ended.MatchID != lobby.MatchID {
		t.Errorf("match ID changed at end")
	}
}

func TestStartWithoutLobbyPhase(t *testing.T) {
	h := newHarness(t)

	// Observer comes up while a match is already running: one poll must
	// yield both the lobby (with roster) and the start.
	h.client.set(runningJSON)
	h.poll()

	lobby := h.next(t)
	if lobby.Type != models.EventLobbyFormed {
		t.Fatalf("first event = %s, want lobby_formed", lobby.Type)
	}
	started := h.next(t)
	if started.Type != models.EventMatchStarted {
		t.Fatalf("second event = %s, want match_started", started.Type)
	}
}

func TestSteadyStateEmitsNothing(t *testing.T) {
	h := newHarness(t)

	h.client.set(runningJSON)
	h.poll()
	h.next(t) // lobby
	h.next(t) // started

	h.poll()
	h.poll()
	h.expectSilence(t)
}

func TestReturnToMenuEndsMatch(t *testing.T) {
	h := newHarness(t)

	h.client.set(runningJSON)
	h.poll()
	h.next(t)
	h.next(t)

	h.client.set(menuJSON)
	h.poll()

	ended := h.next(t)
	if ended.Type != models.EventMatchEnded {
		t.Errorf("event = %s, want match_ended on menu return", ended.Type)
	}
}

func TestReplayIgnored(t *testing.T) {
	h := newHarness(t)

	h.client.set(replayJSON)
	h.poll()
	h.expectSilence(t)
}

func TestAIOpponentsFilteredOut(t *testing.T) {
	h := newHarness(t)

	h.client.set(vsAIJSON)
	h.poll()

	// The vs-AI snapshot already has a running clock, so one poll emits
	// both events; the roster-carrying lobby must arrive first.
	lobby := h.next(t)
	if lobby.Type != models.EventLobbyFormed {
		t.Fatalf("first event = %s, want lobby_formed", lobby.Type)
	}
	if len(lobby.Players) != 1 || lobby.Players[0].Name != "Hero" {
		t.Errorf("players = %+v, want only Hero", lobby.Players)
	}

	started := h.next(t)
	if started.Type != models.EventMatchStarted {
		t.Fatalf("second event = %s, want match_started", started.Type)
	}
	if started.MatchID != lobby.MatchID {
		t.Errorf("match ID changed between lobby and start")
	}
}

func TestClientUnreachableMidMatchEndsIt(t *testing.T) {
	h := newHarness(t)

	h.client.set(runningJSON)
	h.poll()
	h.next(t)
	h.next(t)

	h.client.fail(http.StatusBadGateway)
	h.poll()

	ended := h.next(t)
	if ended.Type != models.EventMatchEnded {
		t.Errorf("event = %s, want match_ended when client vanishes", ended.Type)
	}
}

func TestNewMatchAfterEndGetsFreshID(t *testing.T) {
	h := newHarness(t)

	h.client.set(lobbyJSON)
	h.poll()
	first := h.next(t)

	h.client.set(menuJSON)
	h.poll()
	h.next(t) // ended

	h.client.set(lobbyJSON)
	h.poll()
	second := h.next(t)

	if second.MatchID == first.MatchID {
		t.Error("a new match must get a fresh match ID")
	}
}
