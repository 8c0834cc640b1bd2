// SC2 Match Briefer - Live Match Intelligence and Smurf Detection
// Copyright 2026 Jamin B. (JaminB)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JaminB/sc2-match-briefer

package models

import "time"

// OverlayAction is the kind of instruction sent to the renderer.
type OverlayAction string

const (
	ActionShow          OverlayAction = "show"
	ActionHide          OverlayAction = "hide"
	ActionUpdateContent OverlayAction = "update_content"
)

// SlotContent is the display payload for one overlay slot. It is derived
// from a ScoreResult; the renderer decides how to draw it.
type SlotContent struct {
	PlayerName     string         `json:"player_name"`
	League         string         `json:"league"`
	Rating         int            `json:"rating,omitempty"`
	TrendSymbol    string         `json:"trend_symbol"`
	Sparkline      string         `json:"sparkline,omitempty"`
	Classification Classification `json:"classification"`
	Likelihood     *float64       `json:"likelihood,omitempty"`
	WinLossLine    string         `json:"win_loss_line,omitempty"`
	Warning        string         `json:"warning,omitempty"`
	Note           string         `json:"note,omitempty"`
}

// OverlayCommand is an idempotent "set slot content and visibility"
// instruction for the external renderer. Commands carry full state, so
// replaying one is always safe.
type OverlayCommand struct {
	Slot    string        `json:"slot"`
	Action  OverlayAction `json:"action"`
	Content *SlotContent  `json:"content,omitempty"`
	SentAt  time.Time     `json:"sent_at"`
}

// OverlaySlotState is the scheduler-owned runtime state of one configured
// slot. Visibility transitions happen only through scheduled timer events.
type OverlaySlotState struct {
	SlotName string       `json:"slot_name"`
	Visible  bool         `json:"visible"`
	ShownAt  time.Time    `json:"shown_at,omitempty"`
	Content  *SlotContent `json:"content,omitempty"`
}
