// SC2 Match Briefer - Live Match Intelligence and Smurf Detection
// Copyright 2026 Jamin B. (JaminB)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JaminB/sc2-match-briefer

// Package overlay delivers overlay commands to connected renderers over
// WebSocket. The hub fans every command out to all clients; a renderer
// that connects mid-match receives a state snapshot first so it can
// catch up without waiting for the next command.
package overlay

import (
	"context"
	"sort"
	"sync"

	"github.com/JaminB/sc2-match-briefer/internal/logging"
	"github.com/JaminB/sc2-match-briefer/internal/metrics"
	"github.com/JaminB/sc2-match-briefer/internal/models"
)

// Message types for the renderer protocol.
const (
	MessageTypeCommand  = "overlay_command"
	MessageTypeSnapshot = "state_snapshot"
	MessageTypePing     = "ping"
	MessageTypePong     = "pong"
)

// Message is one frame of the renderer protocol.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// StateSource supplies the current slot states for late-joining clients.
type StateSource interface {
	SlotStates() map[string]models.OverlaySlotState
}

// Hub maintains the set of connected renderers and broadcasts commands.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex

	states StateSource
}

// NewHub creates a hub. states may be nil; snapshots are then skipped.
func NewHub(states StateSource) *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		states:     states,
	}
}

// SetStateSource wires the slot-state provider after construction. Must be
// called before Serve; the hub and scheduler reference each other, so one
// side has to be attached late.
func (h *Hub) SetStateSource(states StateSource) {
	h.states = states
}

// SendCommand broadcasts an overlay command to every renderer. It
// satisfies the scheduler's command sink and never blocks: when the
// broadcast buffer is full the command is dropped and counted.
func (h *Hub) SendCommand(cmd models.OverlayCommand) {
	message := Message{Type: MessageTypeCommand, Data: cmd}

	select {
	case h.broadcast <- message:
	default:
		metrics.WSMessagesDropped.Inc()
		logging.Warn().Str("slot", cmd.Slot).Msg("Overlay broadcast buffer full, command dropped")
	}
}

// Serve runs the hub until the context is cancelled. Lifecycle events
// take priority over broadcasts so client state is settled before any
// message goes out.
func (h *Hub) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.register(client)
			continue
		case client := <-h.Unregister:
			h.unregister(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		case client := <-h.Register:
			h.register(client)
		case client := <-h.Unregister:
			h.unregister(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

// ClientCount returns the number of connected renderers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnectionsActive.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("Overlay renderer connected")

	// Bring the late joiner up to date before any live command reaches it.
	if h.states != nil {
		snapshot := Message{Type: MessageTypeSnapshot, Data: h.states.SlotStates()}
		select {
		case client.send <- snapshot:
		default:
		}
	}
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnectionsActive.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("Overlay renderer disconnected")
}

// broadcastToClients fans a message out in client ID order. Slow clients
// whose buffers are full get dropped rather than stalling the rest.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- message:
			metrics.WSMessagesSent.Inc()
		default:
			metrics.WSMessagesDropped.Inc()
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
	}
	metrics.WSConnectionsActive.Set(float64(len(h.clients)))
}

// shutdown closes every client in ID order.
func (h *Hub) shutdown() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
	}
	closed := len(clients)
	h.mu.Unlock()

	metrics.WSConnectionsActive.Set(0)
	logging.Info().
		Str("component", "overlay-hub").
		Int("clients_closed", closed).
		Msg("Overlay hub stopped")
}
