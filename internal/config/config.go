// SC2 Match Briefer - Live Match Intelligence and Smurf Detection
// Copyright 2026 Jamin B. (JaminB)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JaminB/sc2-match-briefer

// Package config holds the briefer's configuration model.
//
// Configuration is loaded once at startup via Koanf (see koanf.go) with
// layered precedence: built-in defaults, then an optional YAML file, then
// environment variables. The resulting Config is immutable afterward and is
// passed by value into component constructors; a hot reload replaces the
// whole struct, it never mutates one.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration for the briefer.
type Config struct {
	// Me identifies the local player; used to split detected rosters into
	// own side and opponents.
	Me MeConfig `koanf:"me"`

	// Team lists known teammates, also excluded from opponent lookups.
	Team TeamConfig `koanf:"team"`

	// Client configures the local game-client API poller.
	Client ClientConfig `koanf:"client"`

	// Provider configures the external rating-history API client.
	Provider ProviderConfig `koanf:"provider"`

	// Cache configures the per-session score cache.
	Cache CacheConfig `koanf:"cache"`

	// Scoring configures the analyzer window and the smurf scorer.
	Scoring ScoringConfig `koanf:"scoring"`

	// Overlays maps slot names to their display timing and placement.
	Overlays map[string]OverlaySlotConfig `koanf:"overlays"`

	Server  ServerConfig  `koanf:"server"`
	Logging LoggingConfig `koanf:"logging"`
}

// MeConfig declares the local player's identity and self-reported rating.
type MeConfig struct {
	Name string `koanf:"name" validate:"required"`
	MMR  int    `koanf:"mmr" validate:"min=0,max=8000"`
}

// TeamConfig declares the regular teammates to exclude from lookups.
type TeamConfig struct {
	Name    string   `koanf:"name"`
	MMR     int      `koanf:"mmr" validate:"min=0,max=8000"`
	Members []string `koanf:"members"`
}

// ClientConfig configures polling of the local game client's UI API.
type ClientConfig struct {
	// URL is the game client endpoint exposing the current lobby state.
	URL string `koanf:"url" validate:"required,url"`

	// PollInterval is how often the observer samples the endpoint.
	PollInterval time.Duration `koanf:"poll_interval" validate:"min=1s"`

	// Timeout bounds a single poll request.
	Timeout time.Duration `koanf:"timeout" validate:"min=100ms"`
}

// ProviderConfig configures the rating-history provider client.
type ProviderConfig struct {
	BaseURL string `koanf:"base_url" validate:"required,url"`

	// Timeout bounds a single provider request.
	Timeout time.Duration `koanf:"timeout" validate:"min=100ms"`

	// RetryMaxAttempts is the total number of attempts for retryable
	// failures (timeouts, rate limits). Non-retryable failures use one.
	RetryMaxAttempts int `koanf:"retry_max_attempts" validate:"min=1,max=10"`

	// RetryInitialBackoff is the first retry delay; it doubles per attempt.
	RetryInitialBackoff time.Duration `koanf:"retry_initial_backoff" validate:"min=1ms"`

	// RateLimitPerSecond caps outbound provider requests.
	RateLimitPerSecond float64 `koanf:"rate_limit_per_second" validate:"gt=0"`
	RateLimitBurst     int     `koanf:"rate_limit_burst" validate:"min=1"`

	// BreakerFailureThreshold consecutive failures open the circuit.
	BreakerFailureThreshold uint32 `koanf:"breaker_failure_threshold" validate:"min=1"`

	// BreakerTimeout is how long the circuit stays open before probing.
	BreakerTimeout time.Duration `koanf:"breaker_timeout" validate:"min=1s"`

	// MMRSearchWindow bounds candidate selection: candidates whose current
	// rating is within ±window of the local player's MMR are preferred.
	MMRSearchWindow int `koanf:"mmr_search_window" validate:"min=0"`
}

// CacheConfig configures the player session cache.
type CacheConfig struct {
	// TTL is how long a score result stays fresh within a match.
	TTL time.Duration `koanf:"ttl" validate:"min=1s"`

	// CleanupInterval is how often expired entries are swept.
	CleanupInterval time.Duration `koanf:"cleanup_interval" validate:"min=1s"`
}

// ScoringConfig configures the analyzer window and scorer parameters.
type ScoringConfig struct {
	Window     WindowConfig     `koanf:"window"`
	Weights    WeightsConfig    `koanf:"weights"`
	Thresholds ThresholdsConfig `koanf:"thresholds"`
}

// WindowConfig bounds the analysis window over a rating history.
// Both limits apply; a zero value disables that limit.
type WindowConfig struct {
	// MaxSamples keeps at most the N most recent samples.
	MaxSamples int `koanf:"max_samples" validate:"min=0"`

	// MaxAge keeps only samples younger than this.
	MaxAge time.Duration `koanf:"max_age" validate:"min=0"`
}

// WeightsConfig is the tunable parameter set of the smurf scorer.
// The exact blend is deliberately configuration, not business logic.
type WeightsConfig struct {
	// Trend weights the rating-climb term.
	Trend float64 `koanf:"trend" validate:"min=0"`

	// Volatility weights the variance term.
	Volatility float64 `koanf:"volatility" validate:"min=0"`

	// ConfidencePivot is the sample count at which confidence reaches 0.5;
	// small histories shrink the likelihood toward 0.5 rather than the
	// extremes.
	ConfidencePivot float64 `koanf:"confidence_pivot" validate:"gt=0"`
}

// ThresholdsConfig maps likelihood to classification. Every likelihood in
// [0,1] maps to exactly one label; boundaries must be strictly increasing.
type ThresholdsConfig struct {
	// Suspicious is the lower bound of the suspicious band.
	Suspicious float64 `koanf:"suspicious" validate:"gt=0,lt=1"`

	// LikelySmurf is the lower bound of the likely-smurf band.
	LikelySmurf float64 `koanf:"likely_smurf" validate:"gt=0,lt=1"`
}

// OverlaySlotConfig configures one named overlay slot. Durations are
// expressed in seconds to match the on-disk format.
type OverlaySlotConfig struct {
	Visible     bool   `koanf:"visible"`
	Position    string `koanf:"position" validate:"omitempty,oneof=top_left top_center top_right bottom_left bottom_center bottom_right"`
	Orientation string `koanf:"orientation" validate:"omitempty,oneof=horizontal vertical"`

	SecondsDelayBeforeShow float64 `koanf:"seconds_delay_before_show" validate:"min=0"`
	SecondsVisible         float64 `koanf:"seconds_visible" validate:"gt=0"`
}

// ShowDelay returns the configured delay before showing the slot.
func (s OverlaySlotConfig) ShowDelay() time.Duration {
	return time.Duration(s.SecondsDelayBeforeShow * float64(time.Second))
}

// VisibleFor returns how long the slot stays visible once shown.
func (s OverlaySlotConfig) VisibleFor() time.Duration {
	return time.Duration(s.SecondsVisible * float64(time.Second))
}

// ServerConfig configures the local HTTP surface (renderer feed, metrics).
type ServerConfig struct {
	Host    string        `koanf:"host" validate:"required"`
	Port    int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout time.Duration `koanf:"timeout" validate:"min=1s"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// validate is the shared validator instance; validator caches struct
// metadata, so a single instance is the cheap path.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration. Struct tags cover field-local rules;
// cross-field rules (threshold ordering, slot names) are checked here.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	// Thresholds must be strictly increasing so classification is
	// monotonic and total over [0,1].
	if c.Scoring.Thresholds.Suspicious >= c.Scoring.Thresholds.LikelySmurf {
		return fmt.Errorf("config validation: scoring.thresholds.suspicious (%.2f) must be below scoring.thresholds.likely_smurf (%.2f)",
			c.Scoring.Thresholds.Suspicious, c.Scoring.Thresholds.LikelySmurf)
	}

	if c.Scoring.Weights.Trend+c.Scoring.Weights.Volatility <= 0 {
		return fmt.Errorf("config validation: scoring weights must not all be zero")
	}

	for name, slot := range c.Overlays {
		if name == "" {
			return fmt.Errorf("config validation: overlay slot with empty name")
		}
		if err := validate.Struct(slot); err != nil {
			return fmt.Errorf("config validation: overlay slot %q: %w", name, err)
		}
	}

	return nil
}
