// SC2 Match Briefer - Live Match Intelligence and Smurf Detection
// Copyright 2026 Jamin B. (JaminB)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JaminB/sc2-match-briefer

// Package supervisor provides Suture-based process supervision for the
// briefer. Components are grouped into layers so a crash in one layer
// restarts only its siblings:
//   - ingest: game-client observer and the match monitor
//   - presentation: overlay scheduler and the renderer hub
//   - api: HTTP server
package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// Service is anything with a blocking, context-cancelable run loop.
type Service interface {
	Serve(ctx context.Context) error
}

// TreeConfig holds supervisor tree tuning knobs.
type TreeConfig struct {
	// FailureThreshold is the number of failures before entering backoff.
	FailureThreshold float64

	// FailureDecay is the rate at which failures decay in seconds.
	FailureDecay float64

	// FailureBackoff is the duration to wait when threshold is exceeded.
	FailureBackoff time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration
}

// DefaultTreeConfig returns suture's documented defaults.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// Tree is the briefer's supervisor hierarchy.
type Tree struct {
	root         *suture.Supervisor
	ingest       *suture.Supervisor
	presentation *suture.Supervisor
	api          *suture.Supervisor
	config       TreeConfig
}

// NewTree creates the supervisor tree. The logger receives suture lifecycle
// events (service crashes, backoff entry/exit).
func NewTree(logger *slog.Logger, config TreeConfig) *Tree {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5.0
	}
	if config.FailureDecay == 0 {
		config.FailureDecay = 30.0
	}
	if config.FailureBackoff == 0 {
		config.FailureBackoff = 15 * time.Second
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	// MustHook has a pointer receiver; the handler must be addressable.
	handler := &sutureslog.Handler{Logger: logger}

	rootSpec := suture.Spec{
		EventHook:        handler.MustHook(),
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}
	childSpec := suture.Spec{
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}

	root := suture.New("briefer", rootSpec)
	ingest := suture.New("ingest-layer", childSpec)
	presentation := suture.New("presentation-layer", childSpec)
	api := suture.New("api-layer", childSpec)

	root.Add(ingest)
	root.Add(presentation)
	root.Add(api)

	return &Tree{
		root:         root,
		ingest:       ingest,
		presentation: presentation,
		api:          api,
		config:       config,
	}
}

// AddIngestService adds a service to the ingest layer. Use this for the
// game-client observer and the match monitor.
func (t *Tree) AddIngestService(name string, svc Service) suture.ServiceToken {
	return t.ingest.Add(named{name: name, svc: svc})
}

// AddPresentationService adds a service to the presentation layer. Use this
// for the overlay scheduler and the renderer hub.
func (t *Tree) AddPresentationService(name string, svc Service) suture.ServiceToken {
	return t.presentation.Add(named{name: name, svc: svc})
}

// AddAPIService adds a service to the API layer.
func (t *Tree) AddAPIService(name string, svc Service) suture.ServiceToken {
	return t.api.Add(named{name: name, svc: svc})
}

// Serve starts the tree and blocks until the context is canceled.
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground starts the tree in a background goroutine. The channel
// receives the terminal error (or nil) when the supervisor stops.
func (t *Tree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that failed to stop within the
// shutdown timeout.
func (t *Tree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}

// named wraps a Service so suture logs a stable name instead of a struct
// dump.
type named struct {
	name string
	svc  Service
}

func (n named) Serve(ctx context.Context) error {
	return n.svc.Serve(ctx)
}

func (n named) String() string {
	return n.name
}
