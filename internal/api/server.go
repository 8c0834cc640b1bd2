// SC2 Match Briefer - Live Match Intelligence and Smurf Detection
// Copyright 2026 Jamin B. (JaminB)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JaminB/sc2-match-briefer

// Package api is the local HTTP surface: health, metrics, the renderer
// WebSocket, and a small read-only debug API over the live match state.
// The server binds to loopback; it is not an outward-facing service.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/JaminB/sc2-match-briefer/internal/config"
	"github.com/JaminB/sc2-match-briefer/internal/logging"
	"github.com/JaminB/sc2-match-briefer/internal/metrics"
	"github.com/JaminB/sc2-match-briefer/internal/models"
	"github.com/JaminB/sc2-match-briefer/internal/monitor"
	"github.com/JaminB/sc2-match-briefer/internal/overlay"
	"github.com/JaminB/sc2-match-briefer/internal/scheduler"
	"github.com/JaminB/sc2-match-briefer/internal/session"
)

// Server is the briefer's HTTP endpoint.
type Server struct {
	cfg       config.ServerConfig
	hub       *overlay.Hub
	monitor   *monitor.Monitor
	scheduler *scheduler.Scheduler
	cache     *session.Cache
	log       zerolog.Logger
}

// New creates the HTTP server.
func New(cfg config.ServerConfig, hub *overlay.Hub, m *monitor.Monitor, s *scheduler.Scheduler, cache *session.Cache) *Server {
	return &Server{
		cfg:       cfg,
		hub:       hub,
		monitor:   m,
		scheduler: s,
		cache:     cache,
		log:       logging.With().Str("component", "api").Logger(),
	}
}

// Router builds the chi handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	// The renderer is typically a local file:// or OBS browser source.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         86400,
	}))
	r.Use(requestMetrics)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/ws", s.handleWS)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(300, time.Minute))
		r.Get("/match", s.handleMatch)
		r.Get("/slots", s.handleSlots)
		r.Get("/cache", s.handleCache)
	})

	return r
}

// Serve runs the server until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error().Err(err).Msg("HTTP shutdown failed")
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"phase":     s.monitor.Phase(),
		"renderers": s.hub.ClientCount(),
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	overlay.ServeWS(s.hub, w, r)
}

func (s *Server) handleMatch(w http.ResponseWriter, _ *http.Request) {
	sess := s.monitor.Session()
	if sess == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no active match"})
		return
	}

	writeJSON(w, http.StatusOK, struct {
		*models.MatchSession
		Results []models.ScoreResult `json:"results"`
	}{
		MatchSession: sess,
		Results:      s.cache.Snapshot(sess.MatchID),
	})
}

func (s *Server) handleSlots(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.scheduler.SlotStates())
}

func (s *Server) handleCache(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.cache.Stats())
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error().Err(err).Msg("Failed to encode response")
	}
}

// requestMetrics records latency per chi route pattern, keeping metric
// cardinality bounded.
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = "unmatched"
		}
		metrics.RecordAPIRequest(r.Method, pattern, strconv.Itoa(ww.Status()), time.Since(start))
	})
}
