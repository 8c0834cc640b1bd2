// SC2 Match Briefer - Live Match Intelligence and Smurf Detection
// Copyright 2026 Jamin B. (JaminB)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JaminB/sc2-match-briefer

// Package main is the entry point for the briefer daemon.
//
// The briefer watches the local StarCraft II client for match-state
// transitions, resolves each opponent against an sc2pulse-compatible
// rating provider, scores their rating history for smurf likelihood, and
// pushes timed overlay commands to connected renderers over WebSocket.
//
// Components start under a suture supervisor tree:
//
//	ingest        observer (game-client poller), monitor (match pipeline)
//	presentation  scheduler (overlay timing), hub (renderer fan-out)
//	api           HTTP server: /ws, /healthz, /metrics, /api/v1
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): BRIEFER_ environment variables, config.yaml, built-in
// defaults.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/JaminB/sc2-match-briefer/internal/api"
	"github.com/JaminB/sc2-match-briefer/internal/bus"
	"github.com/JaminB/sc2-match-briefer/internal/config"
	"github.com/JaminB/sc2-match-briefer/internal/logging"
	"github.com/JaminB/sc2-match-briefer/internal/monitor"
	"github.com/JaminB/sc2-match-briefer/internal/observer"
	"github.com/JaminB/sc2-match-briefer/internal/overlay"
	"github.com/JaminB/sc2-match-briefer/internal/pulse"
	"github.com/JaminB/sc2-match-briefer/internal/scheduler"
	"github.com/JaminB/sc2-match-briefer/internal/session"
	"github.com/JaminB/sc2-match-briefer/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("player", cfg.Me.Name).
		Int("mmr", cfg.Me.MMR).
		Str("client_url", cfg.Client.URL).
		Str("provider_url", cfg.Provider.BaseURL).
		Msg("Starting briefer")

	eventBus := bus.New()
	defer func() {
		if err := eventBus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	cache := session.New(cfg.Cache)
	defer cache.Close()

	provider := pulse.NewHTTPClient(cfg.Provider, cfg.Me.MMR)
	mon := monitor.New(cfg, eventBus, cache, provider, nil)
	obs := observer.New(cfg.Client, eventBus)

	hub := overlay.NewHub(nil)
	sched := scheduler.New(cfg.Overlays, eventBus, hub)
	hub.SetStateSource(sched)

	server := api.New(cfg.Server, hub, mon, sched, cache)

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddIngestService("observer", obs)
	tree.AddIngestService("monitor", mon)
	tree.AddPresentationService("scheduler", sched)
	tree.AddPresentationService("hub", hub)
	tree.AddAPIService("http", server)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := tree.ServeBackground(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
		if err := <-errCh; err != nil && err != context.Canceled {
			logging.Error().Err(err).Msg("Supervisor exited with error")
		}
	case err := <-errCh:
		if err != nil && err != context.Canceled {
			logging.Error().Err(err).Msg("Supervisor exited unexpectedly")
			os.Exit(1)
		}
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop in time")
		}
	}

	logging.Info().Msg("Briefer stopped")
}
