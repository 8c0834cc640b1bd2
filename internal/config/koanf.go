// SC2 Match Briefer - Live Match Intelligence and Smurf Detection
// Copyright 2026 Jamin B. (JaminB)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JaminB/sc2-match-briefer

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/sc2-match-briefer/config.yaml",
	"/etc/sc2-match-briefer/config.yml",
}

// ConfigPathEnvVar overrides the config file search path.
const ConfigPathEnvVar = "CONFIG_PATH"

// envPrefix namespaces the briefer's environment variables.
const envPrefix = "BRIEFER_"

// defaultConfig returns a Config with all defaults applied. Defaults load
// first, then the config file, then environment variables.
func defaultConfig() *Config {
	return &Config{
		Me: MeConfig{
			Name: "",
			MMR:  3500,
		},
		Team: TeamConfig{
			Name:    "",
			MMR:     0,
			Members: []string{},
		},
		Client: ClientConfig{
			URL:          "http://localhost:6119/game",
			PollInterval: 5 * time.Second,
			Timeout:      5 * time.Second,
		},
		Provider: ProviderConfig{
			BaseURL:                 "https://sc2pulse.nephest.com/sc2/api",
			Timeout:                 10 * time.Second,
			RetryMaxAttempts:        3,
			RetryInitialBackoff:     500 * time.Millisecond,
			RateLimitPerSecond:      5,
			RateLimitBurst:          5,
			BreakerFailureThreshold: 5,
			BreakerTimeout:          30 * time.Second,
			MMRSearchWindow:         500,
		},
		Cache: CacheConfig{
			TTL:             60 * time.Second,
			CleanupInterval: 5 * time.Minute,
		},
		Scoring: ScoringConfig{
			Window: WindowConfig{
				MaxSamples: 100,
				MaxAge:     30 * 24 * time.Hour,
			},
			Weights: WeightsConfig{
				Trend:           0.6,
				Volatility:      0.4,
				ConfidencePivot: 5,
			},
			Thresholds: ThresholdsConfig{
				Suspicious:  0.33,
				LikelySmurf: 0.66,
			},
		},
		Overlays: map[string]OverlaySlotConfig{
			"opponent_1": {
				Visible:                true,
				Position:               "top_center",
				Orientation:            "horizontal",
				SecondsDelayBeforeShow: 0,
				SecondsVisible:         180,
			},
			"opponent_2": {
				Visible:                true,
				Position:               "top_center",
				Orientation:            "horizontal",
				SecondsDelayBeforeShow: 0,
				SecondsVisible:         180,
			},
		},
		Server: ServerConfig{
			Host:    "127.0.0.1",
			Port:    6118,
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Caller: false,
		},
	}
}

// Load reads configuration with layered precedence: defaults, then the
// first config file found (see DefaultConfigPaths / CONFIG_PATH), then
// BRIEFER_* environment variables. The result is validated before return.
//
// Environment variable names map to config paths by lowercasing and
// splitting on double underscore:
//
//	BRIEFER_ME__NAME          -> me.name
//	BRIEFER_PROVIDER__TIMEOUT -> provider.timeout
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: struct defaults
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	// Layer 2: optional YAML file
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest precedence)
	envProvider := env.Provider(envPrefix, ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file path, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths lists config paths that may arrive from the environment
// as comma-separated strings but unmarshal into slices.
var sliceConfigPaths = []string{
	"team.members",
}

// processSliceFields converts comma-separated env values into slices for
// the known slice fields. YAML-sourced slices pass through untouched.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps BRIEFER_* variable names to koanf config paths.
// Double underscore separates nesting levels so single underscores inside
// key names survive (BRIEFER_PROVIDER__RETRY_MAX_ATTEMPTS ->
// provider.retry_max_attempts).
func envTransformFunc(key string) string {
	key = strings.TrimPrefix(key, envPrefix)
	key = strings.ToLower(key)
	return strings.ReplaceAll(key, "__", ".")
}
