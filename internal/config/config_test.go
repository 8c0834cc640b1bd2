// SC2 Match Briefer - Live Match Intelligence and Smurf Detection
// Copyright 2026 Jamin B. (JaminB)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JaminB/sc2-match-briefer

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Me.Name = "Hero"
	return cfg
}

func TestDefaultsValidateWithPlayerName(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("defaults with a player name should validate: %v", err)
	}
}

func TestValidateRejectsMissingName(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty me.name should fail validation")
	}
}

func TestValidateThresholdOrdering(t *testing.T) {
	cfg := validConfig()
	cfg.Scoring.Thresholds.Suspicious = 0.7
	cfg.Scoring.Thresholds.LikelySmurf = 0.6
	if err := cfg.Validate(); err == nil {
		t.Fatal("inverted thresholds should fail validation")
	}

	cfg.Scoring.Thresholds.Suspicious = 0.5
	cfg.Scoring.Thresholds.LikelySmurf = 0.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("equal thresholds should fail validation")
	}
}

func TestValidateRejectsZeroWeights(t *testing.T) {
	cfg := validConfig()
	cfg.Scoring.Weights.Trend = 0
	cfg.Scoring.Weights.Volatility = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("all-zero weights should fail validation")
	}
}

func TestValidateOverlaySlots(t *testing.T) {
	cfg := validConfig()
	cfg.Overlays["bad"] = OverlaySlotConfig{
		Visible:        true,
		Position:       "middle_of_nowhere",
		SecondsVisible: 60,
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown overlay position should fail validation")
	}
}

func TestOverlaySlotDurations(t *testing.T) {
	slot := OverlaySlotConfig{SecondsDelayBeforeShow: 1.5, SecondsVisible: 180}
	if got := slot.ShowDelay(); got != 1500*time.Millisecond {
		t.Errorf("ShowDelay = %v, want 1.5s", got)
	}
	if got := slot.VisibleFor(); got != 180*time.Second {
		t.Errorf("VisibleFor = %v, want 3m", got)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("BRIEFER_ME__NAME", "Hero")
	t.Setenv("BRIEFER_ME__MMR", "4200")
	t.Setenv("BRIEFER_PROVIDER__RETRY_MAX_ATTEMPTS", "5")
	t.Setenv("BRIEFER_LOGGING__LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Me.Name != "Hero" {
		t.Errorf("Me.Name = %q, want Hero", cfg.Me.Name)
	}
	if cfg.Me.MMR != 4200 {
		t.Errorf("Me.MMR = %d, want 4200", cfg.Me.MMR)
	}
	if cfg.Provider.RetryMaxAttempts != 5 {
		t.Errorf("RetryMaxAttempts = %d, want 5", cfg.Provider.RetryMaxAttempts)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadTeamMembersFromEnv(t *testing.T) {
	t.Setenv("BRIEFER_ME__NAME", "Hero")
	t.Setenv("BRIEFER_TEAM__MEMBERS", "Wingman, Anchor ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"Wingman", "Anchor"}
	if len(cfg.Team.Members) != len(want) {
		t.Fatalf("Team.Members = %v, want %v", cfg.Team.Members, want)
	}
	for i, name := range want {
		if cfg.Team.Members[i] != name {
			t.Errorf("Team.Members[%d] = %q, want %q", i, cfg.Team.Members[i], name)
		}
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("me:\n  name: FilePlayer\n  mmr: 3100\nscoring:\n  thresholds:\n    suspicious: 0.4\n    likely_smurf: 0.7\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Me.Name != "FilePlayer" {
		t.Errorf("Me.Name = %q, want FilePlayer", cfg.Me.Name)
	}
	if cfg.Scoring.Thresholds.Suspicious != 0.4 {
		t.Errorf("Suspicious = %v, want 0.4", cfg.Scoring.Thresholds.Suspicious)
	}
	// Untouched keys keep their defaults.
	if cfg.Server.Port != 6118 {
		t.Errorf("Server.Port = %d, want default 6118", cfg.Server.Port)
	}
}

func TestEnvBeatsConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("me:\n  name: FilePlayer\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("BRIEFER_ME__NAME", "EnvPlayer")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Me.Name != "EnvPlayer" {
		t.Errorf("Me.Name = %q, want env to win over file", cfg.Me.Name)
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"BRIEFER_ME__NAME", "me.name"},
		{"BRIEFER_PROVIDER__RETRY_MAX_ATTEMPTS", "provider.retry_max_attempts"},
		{"BRIEFER_SCORING__THRESHOLDS__LIKELY_SMURF", "scoring.thresholds.likely_smurf"},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.in); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
