// SC2 Match Briefer - Live Match Intelligence and Smurf Detection
// Copyright 2026 Jamin B. (JaminB)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JaminB/sc2-match-briefer

package monitor

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/JaminB/sc2-match-briefer/internal/logging"
	"github.com/JaminB/sc2-match-briefer/internal/models"
)

// LogSink receives the finalized record of each match. Implementations
// must tolerate unknown placeholder results and must not block the
// monitor for long; the handoff happens on the event loop.
type LogSink interface {
	RecordMatch(ctx context.Context, record models.MatchRecord) error
}

// LoggingSink is the default sink: it emits the match record as one
// structured log entry.
type LoggingSink struct {
	log zerolog.Logger
}

// NewLoggingSink creates the default sink.
func NewLoggingSink() *LoggingSink {
	return &LoggingSink{
		log: logging.With().Str("component", "match-record").Logger(),
	}
}

// RecordMatch implements LogSink.
func (s *LoggingSink) RecordMatch(_ context.Context, record models.MatchRecord) error {
	known := 0
	for _, r := range record.Results {
		if r.Known() {
			known++
		}
	}

	s.log.Info().
		Str("match_id", record.MatchID).
		Time("started_at", record.StartedAt).
		Time("ended_at", record.EndedAt).
		Int("results", len(record.Results)).
		Int("known", known).
		Interface("record", record).
		Msg("Match record")
	return nil
}
