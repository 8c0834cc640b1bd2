// SC2 Match Briefer - Live Match Intelligence and Smurf Detection
// Copyright 2026 Jamin B. (JaminB)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JaminB/sc2-match-briefer

// Package bus is the in-process event backbone. Game-state events and
// score events travel over Watermill topics, keeping the observer, the
// monitor, and the overlay scheduler decoupled: each side sees only
// topics and typed payloads, never each other.
package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/JaminB/sc2-match-briefer/internal/models"
)

// Bus wraps a Watermill Pub/Sub with typed publish and decode helpers
// for the briefer's event types.
type Bus struct {
	pubsub *gochannel.GoChannel

	mu     sync.RWMutex
	closed bool
}

// New creates an in-process bus. The output buffer absorbs bursts from
// per-opponent pipeline goroutines completing together.
//
// Publishing blocks until every subscriber has acked: the match state
// machine depends on events arriving in publish order, and the default
// gochannel delivery races sequential publishes against each other.
func New() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{
				OutputChannelBuffer:            64,
				BlockPublishUntilSubscriberAck: true,
			},
			NewLoggerAdapter(),
		),
	}
}

// PublishGameEvent publishes a game-state event on its topic. The event
// ID doubles as the message UUID.
func (b *Bus) PublishGameEvent(_ context.Context, event *models.GameEvent) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("invalid game event: %w", err)
	}
	return b.publish(event.Topic(), event.EventID, event)
}

// PublishScoreEvent publishes a completed score result on its topic.
func (b *Bus) PublishScoreEvent(_ context.Context, event *models.ScoreEvent) error {
	if event.EventID == "" || event.MatchID == "" || event.Slot == "" {
		return fmt.Errorf("invalid score event: event_id, match_id and slot are required")
	}
	return b.publish(event.Topic(), event.EventID, event)
}

// SubscribeGameEvents returns the game-state event stream. Messages must
// be acked or nacked by the consumer.
func (b *Bus) SubscribeGameEvents(ctx context.Context) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, models.GameEventsTopic)
}

// SubscribeScoreEvents returns the score event stream.
func (b *Bus) SubscribeScoreEvents(ctx context.Context) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, models.ScoreEventsTopic)
}

// Close shuts the underlying Pub/Sub down. Subscribers' channels close.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	return b.pubsub.Close()
}

func (b *Bus) publish(topic, uuid string, payload interface{}) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return fmt.Errorf("bus is closed")
	}
	b.mu.RUnlock()

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", topic, err)
	}

	msg := message.NewMessage(uuid, data)
	if err := b.pubsub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// DecodeGameEvent unmarshals a bus message into a game event.
func DecodeGameEvent(msg *message.Message) (*models.GameEvent, error) {
	var event models.GameEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return nil, fmt.Errorf("decode game event %s: %w", msg.UUID, err)
	}
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("invalid game event %s: %w", msg.UUID, err)
	}
	return &event, nil
}

// DecodeScoreEvent unmarshals a bus message into a score event.
func DecodeScoreEvent(msg *message.Message) (*models.ScoreEvent, error) {
	var event models.ScoreEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return nil, fmt.Errorf("decode score event %s: %w", msg.UUID, err)
	}
	return &event, nil
}
