// SC2 Match Briefer - Live Match Intelligence and Smurf Detection
// Copyright 2026 Jamin B. (JaminB)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JaminB/sc2-match-briefer

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

func captureHandler(buf *bytes.Buffer) *SlogHandler {
	return &SlogHandler{logger: NewTestLogger(buf)}
}

func TestSlogHandlerWritesThroughZerolog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(captureHandler(&buf))

	logger.Info("service started", "service", "observer", "attempt", int64(2))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output not JSON: %v (%q)", err, buf.String())
	}
	if entry["message"] != "service started" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry["service"] != "observer" {
		t.Errorf("service = %v", entry["service"])
	}
	if entry["attempt"] != float64(2) {
		t.Errorf("attempt = %v", entry["attempt"])
	}
}

func TestSlogHandlerLevels(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, "debug"},
		{slog.LevelInfo, "info"},
		{slog.LevelWarn, "warn"},
		{slog.LevelError, "error"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		logger := slog.New(captureHandler(&buf))
		logger.Log(context.Background(), tt.level, "msg")

		if !strings.Contains(buf.String(), `"level":"`+tt.want+`"`) {
			t.Errorf("level %v: output %q missing level %q", tt.level, buf.String(), tt.want)
		}
	}
}

func TestSlogHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(captureHandler(&buf)).With("supervisor", "briefer")

	logger.Info("restarting")

	if !strings.Contains(buf.String(), `"supervisor":"briefer"`) {
		t.Errorf("preset attr missing: %q", buf.String())
	}
}

func TestSlogHandlerWithGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(captureHandler(&buf)).WithGroup("tree")

	logger.Info("event", "service", "monitor")

	if !strings.Contains(buf.String(), `"tree.service":"monitor"`) {
		t.Errorf("group prefix missing: %q", buf.String())
	}
}

func TestSlogHandlerAttrKinds(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(captureHandler(&buf))

	logger.Info("kinds",
		"dur", 5*time.Second,
		"ok", true,
		"ratio", 0.5,
	)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output not JSON: %v", err)
	}
	if entry["ok"] != true {
		t.Errorf("ok = %v", entry["ok"])
	}
	if entry["ratio"] != 0.5 {
		t.Errorf("ratio = %v", entry["ratio"])
	}
	if _, present := entry["dur"]; !present {
		t.Error("duration attr missing")
	}
}

func TestSlogHandlerEnabled(t *testing.T) {
	h := &SlogHandler{logger: NewTestLogger(&bytes.Buffer{}).Level(zerolog.WarnLevel)}

	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be disabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled at warn level")
	}
}

func TestNewSlogLoggerUsesGlobal(t *testing.T) {
	t.Cleanup(func() { Init(DefaultConfig()) })

	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "json", Output: &buf})

	NewSlogLogger().Info("through global")

	if !strings.Contains(buf.String(), "through global") {
		t.Errorf("global logger did not receive record: %q", buf.String())
	}
}
