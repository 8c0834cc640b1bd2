// SC2 Match Briefer - Live Match Intelligence and Smurf Detection
// Copyright 2026 Jamin B. (JaminB)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JaminB/sc2-match-briefer

// Package session caches score results for the duration of a match.
//
// The cache exists because the same opponent can surface several times
// within one match session (lobby reforms, roster re-reads) and because
// provider lookups are slow relative to the lobby window. Entries are
// keyed by player identity, tagged with the match they were fetched for,
// and expire on a TTL; only entries tagged with the current match count
// as hits. Concurrent lookups for the same player coalesce into a single
// provider fetch.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/JaminB/sc2-match-briefer/internal/config"
	"github.com/JaminB/sc2-match-briefer/internal/logging"
	"github.com/JaminB/sc2-match-briefer/internal/metrics"
	"github.com/JaminB/sc2-match-briefer/internal/models"
)

// FetchFunc produces a score result for one player. The cache invokes it
// at most once per coalesced burst of lookups.
type FetchFunc func(ctx context.Context) (models.ScoreResult, error)

type entry struct {
	result    models.ScoreResult
	matchID   string
	expiresAt time.Time
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Coalesced int64
	Evictions int64
	Entries   int
}

// Cache is a thread-safe per-match score cache with TTL expiry and
// request coalescing.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	matchID string

	ttl   time.Duration
	group singleflight.Group
	log   zerolog.Logger

	hits      atomic.Int64
	misses    atomic.Int64
	coalesced atomic.Int64
	evictions atomic.Int64

	stopOnce sync.Once
	stopCh   chan struct{}
}

// New creates a session cache and starts its background sweep.
func New(cfg config.CacheConfig) *Cache {
	c := &Cache{
		entries: make(map[string]entry),
		ttl:     cfg.TTL,
		log:     logging.With().Str("component", "session").Logger(),
		stopCh:  make(chan struct{}),
	}

	go c.cleanupLoop(cfg.CleanupInterval)

	return c
}

// BeginMatch marks matchID as the current session. Pending fetch results
// tagged with any earlier match are dropped on completion instead of
// being stored, and entries from earlier matches stop counting as hits.
func (c *Cache) BeginMatch(matchID string) {
	c.mu.Lock()
	c.matchID = matchID
	c.mu.Unlock()
}

// EndMatch closes the session opened for matchID. A no-op when a newer
// match has already begun. With no current match, every late pipeline
// store is dropped.
func (c *Cache) EndMatch(matchID string) {
	c.mu.Lock()
	if c.matchID == matchID {
		c.matchID = ""
	}
	c.mu.Unlock()
}

// CurrentMatch returns the active match ID, or "" outside a session.
func (c *Cache) CurrentMatch() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.matchID
}

// GetOrFetch returns the cached score for identity, or runs fetch to
// produce one. Concurrent calls for the same identity share a single
// fetch. The result is stored only if matchID is still the current
// session when the fetch completes; a superseded result is returned to
// the caller but never cached.
func (c *Cache) GetOrFetch(ctx context.Context, matchID string, identity models.PlayerIdentity, fetch FetchFunc) (models.ScoreResult, error) {
	key := identity.Key()

	if result, ok := c.get(key); ok {
		c.hits.Add(1)
		metrics.RecordCacheLookup(true, false)
		return result, nil
	}

	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		result, err := fetch(ctx)
		if err != nil {
			return models.ScoreResult{}, err
		}
		c.store(key, matchID, result)
		return result, nil
	})

	if shared {
		c.coalesced.Add(1)
	} else {
		c.misses.Add(1)
	}
	metrics.RecordCacheLookup(false, shared)

	if err != nil {
		return models.ScoreResult{}, err
	}
	return v.(models.ScoreResult), nil
}

// Get returns the cached score for identity without fetching.
func (c *Cache) Get(identity models.PlayerIdentity) (models.ScoreResult, bool) {
	return c.get(identity.Key())
}

// Invalidate removes the cached result for identity, if any. The next
// lookup fetches fresh.
func (c *Cache) Invalidate(identity models.PlayerIdentity) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[identity.Key()]; ok {
		delete(c.entries, identity.Key())
		c.evictions.Add(1)
		metrics.CacheEntries.Set(float64(len(c.entries)))
	}
}

// Snapshot returns every live result tagged with matchID.
func (c *Cache) Snapshot(matchID string) []models.ScoreResult {
	now := time.Now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	var results []models.ScoreResult
	for _, e := range c.entries {
		if e.matchID == matchID && now.Before(e.expiresAt) {
			results = append(results, e.result)
		}
	}
	return results
}

// Stats returns current cache counters.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	entries := len(c.entries)
	c.mu.RUnlock()

	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Coalesced: c.coalesced.Load(),
		Evictions: c.evictions.Load(),
		Entries:   entries,
	}
}

// Close stops the background sweep. Safe to call more than once.
func (c *Cache) Close() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
}

func (c *Cache) get(key string) (models.ScoreResult, bool) {
	c.mu.RLock()
	e, exists := c.entries[key]
	current := c.matchID
	c.mu.RUnlock()

	if !exists {
		return models.ScoreResult{}, false
	}

	// An entry fetched for another match is stale even inside the TTL; a
	// rematch against the same opponent must score under the new match ID
	// or it never shows up in that match's record.
	stale := e.matchID != current || time.Now().After(e.expiresAt)
	if stale {
		c.mu.Lock()
		// Re-check under the write lock; another goroutine may have
		// refreshed the entry.
		if cur, ok := c.entries[key]; ok && (cur.matchID != c.matchID || time.Now().After(cur.expiresAt)) {
			delete(c.entries, key)
			c.evictions.Add(1)
		}
		metrics.CacheEntries.Set(float64(len(c.entries)))
		c.mu.Unlock()
		return models.ScoreResult{}, false
	}
	return e.result, true
}

func (c *Cache) store(key, matchID string, result models.ScoreResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if matchID != c.matchID {
		c.log.Debug().
			Str("player", key).
			Str("fetched_for", matchID).
			Str("current", c.matchID).
			Msg("Dropping score result for superseded match")
		return
	}

	c.entries[key] = entry{
		result:    result,
		matchID:   matchID,
		expiresAt: time.Now().Add(c.ttl),
	}
	metrics.CacheEntries.Set(float64(len(c.entries)))
}

func (c *Cache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopCh:
			return
		}
	}
}

func (c *Cache) cleanup() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	if removed > 0 {
		c.evictions.Add(int64(removed))
		c.log.Debug().Int("removed", removed).Int("remaining", len(c.entries)).Msg("Swept expired session entries")
	}
	metrics.CacheEntries.Set(float64(len(c.entries)))
}
