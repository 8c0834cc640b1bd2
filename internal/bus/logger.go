// SC2 Match Briefer - Live Match Intelligence and Smurf Detection
// Copyright 2026 Jamin B. (JaminB)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JaminB/sc2-match-briefer

package bus

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"

	"github.com/JaminB/sc2-match-briefer/internal/logging"
)

// LoggerAdapter routes Watermill's internal logging through zerolog so
// bus diagnostics land in the same stream as everything else.
type LoggerAdapter struct {
	log zerolog.Logger
}

// NewLoggerAdapter creates an adapter over the global logger.
func NewLoggerAdapter() *LoggerAdapter {
	return &LoggerAdapter{
		log: logging.With().Str("component", "bus").Logger(),
	}
}

// Error implements watermill.LoggerAdapter.
func (a *LoggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.event(a.log.Error().Err(err), fields).Msg(msg)
}

// Info implements watermill.LoggerAdapter.
func (a *LoggerAdapter) Info(msg string, fields watermill.LogFields) {
	a.event(a.log.Info(), fields).Msg(msg)
}

// Debug implements watermill.LoggerAdapter.
func (a *LoggerAdapter) Debug(msg string, fields watermill.LogFields) {
	a.event(a.log.Debug(), fields).Msg(msg)
}

// Trace implements watermill.LoggerAdapter.
func (a *LoggerAdapter) Trace(msg string, fields watermill.LogFields) {
	a.event(a.log.Trace(), fields).Msg(msg)
}

// With implements watermill.LoggerAdapter.
func (a *LoggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	ctx := a.log.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &LoggerAdapter{log: ctx.Logger()}
}

func (a *LoggerAdapter) event(e *zerolog.Event, fields watermill.LogFields) *zerolog.Event {
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	return e
}
