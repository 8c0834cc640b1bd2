// SC2 Match Briefer - Live Match Intelligence and Smurf Detection
// Copyright 2026 Jamin B. (JaminB)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JaminB/sc2-match-briefer

// Package pulse is the rating-history provider client. It talks to an
// sc2pulse-compatible API: character search, per-character team lookup,
// and merged team rating histories.
//
// The client is stateless request/response. Resilience is layered around
// every fetch: a client-side rate limiter, a bounded per-request timeout,
// exponential-backoff retries for timeouts and rate limits, and a circuit
// breaker so a dead provider fails fast instead of stalling the monitor.
package pulse

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/JaminB/sc2-match-briefer/internal/config"
	"github.com/JaminB/sc2-match-briefer/internal/logging"
	"github.com/JaminB/sc2-match-briefer/internal/metrics"
	"github.com/JaminB/sc2-match-briefer/internal/models"
)

// Client fetches a player's rating history from the stat provider.
type Client interface {
	// FetchHistory resolves the identity against the provider and returns
	// the player's stated rating plus merged rating history. The call is
	// idempotent and bounded by the configured timeout and retry budget.
	FetchHistory(ctx context.Context, identity models.PlayerIdentity) (*PlayerHistory, error)
}

// maxCandidateTeamLookups bounds how many search candidates get a
// character-teams request during disambiguation.
const maxCandidateTeamLookups = 3

// maxLegacyUIDsPerRequest is the provider's cap on team-histories batching.
const maxLegacyUIDsPerRequest = 10

// HTTPClient implements Client against an sc2pulse-compatible HTTP API.
type HTTPClient struct {
	cfg          config.ProviderConfig
	referenceMMR int
	httpClient   *http.Client
	limiter      *rate.Limiter
	breaker      *gobreaker.CircuitBreaker[*PlayerHistory]
	log          zerolog.Logger
}

// NewHTTPClient creates a provider client. referenceMMR anchors candidate
// selection: search hits whose current rating falls within the configured
// window around it are preferred.
func NewHTTPClient(cfg config.ProviderConfig, referenceMMR int) *HTTPClient {
	c := &HTTPClient{
		cfg:          cfg,
		referenceMMR: referenceMMR,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		limiter:      rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), cfg.RateLimitBurst),
		log:          logging.With().Str("component", "pulse").Logger(),
	}

	c.breaker = gobreaker.NewCircuitBreaker[*PlayerHistory](gobreaker.Settings{
		Name:    "pulse-provider",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailureThreshold
		},
		// A missing profile is a valid answer, not provider trouble.
		IsSuccessful: func(err error) bool {
			return err == nil || KindOf(err) == KindNotFound
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.ProviderBreakerTransitions.WithLabelValues(to.String()).Inc()
			c.log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Provider circuit breaker state changed")
		},
	})

	return c
}

// FetchHistory implements Client.
func (c *HTTPClient) FetchHistory(ctx context.Context, identity models.PlayerIdentity) (*PlayerHistory, error) {
	start := time.Now()
	history, err := c.breaker.Execute(func() (*PlayerHistory, error) {
		return c.fetchWithRetry(ctx, identity)
	})
	metrics.ProviderFetchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = &Error{Kind: KindUnknown, Op: "breaker", Err: err}
		}
		metrics.ProviderFetchErrors.WithLabelValues(string(KindOf(err))).Inc()
		return nil, err
	}
	return history, nil
}

// fetchWithRetry runs fetchOnce under the retry policy: up to the
// configured attempt budget, doubling backoff, and only for retryable
// kinds. NotFound and Unknown return immediately.
func (c *HTTPClient) fetchWithRetry(ctx context.Context, identity models.PlayerIdentity) (*PlayerHistory, error) {
	backoff := c.cfg.RetryInitialBackoff

	var lastErr error
	for attempt := 1; attempt <= c.cfg.RetryMaxAttempts; attempt++ {
		history, err := c.fetchOnce(ctx, identity)
		if err == nil {
			return history, nil
		}
		lastErr = err

		var pErr *Error
		if !errors.As(err, &pErr) || !pErr.Retryable() || attempt == c.cfg.RetryMaxAttempts {
			return nil, err
		}

		metrics.ProviderFetchRetries.Inc()
		c.log.Debug().
			Str("player", identity.Name).
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Str("kind", string(pErr.Kind)).
			Msg("Retrying provider fetch")

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, &Error{Kind: KindTimeout, Op: "retry_wait", Err: ctx.Err()}
		}
		backoff *= 2
	}

	return nil, lastErr
}

// fetchOnce performs one full lookup: search, disambiguate, merge history.
func (c *HTTPClient) fetchOnce(ctx context.Context, identity models.PlayerIdentity) (*PlayerHistory, error) {
	candidates, err := c.searchCharacters(ctx, identity.Name)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, &Error{Kind: KindNotFound, Op: "characters", Err: fmt.Errorf("no candidates for %q", identity.Name)}
	}

	best, teams, err := c.selectCandidate(ctx, identity, candidates)
	if err != nil {
		return nil, err
	}

	league := models.League(best.LeagueMax)
	resolved := models.PlayerIdentity{
		Name:      best.Members.Character.Name,
		Realm:     best.Members.Character.Realm,
		ProfileID: best.Members.Character.BattlenetID,
	}
	if region, rerr := models.ParseRegion(best.Members.Character.Region); rerr == nil {
		resolved.Region = region
	} else {
		resolved.Region = identity.Region
	}

	samples, err := c.teamHistories(ctx, resolved, teams, league)
	if err != nil {
		return nil, err
	}

	rating := best.CurrentStats.rating()
	if rating == 0 {
		rating = best.PreviousStats.rating()
	}

	// An account with a rating but no history points still yields one
	// low-confidence sample so downstream scoring can run.
	if len(samples) == 0 && rating > 0 {
		samples = []models.RatingSample{{
			Timestamp: time.Now().UTC(),
			Rating:    rating,
			League:    league,
		}}
	}
	if len(samples) == 0 {
		return nil, &Error{Kind: KindNotFound, Op: "team-histories", Err: fmt.Errorf("no rating data for %q", identity.Name)}
	}

	return &PlayerHistory{
		Player:        resolved,
		CurrentRating: rating,
		League:        league,
		TotalGames:    best.TotalGamesPlayed,
		Samples:       samples,
	}, nil
}

// searchCharacters queries the character search endpoint by name.
func (c *HTTPClient) searchCharacters(ctx context.Context, name string) ([]characterSearchEntry, error) {
	endpoint := fmt.Sprintf("%s/characters?query=%s", c.cfg.BaseURL, url.QueryEscape(name))

	var entries []characterSearchEntry
	if err := c.getJSON(ctx, "characters", endpoint, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// selectCandidate picks the search hit most likely to be the detected
// opponent: candidates whose current rating sits inside the MMR window are
// preferred, then the most recently active one wins. Returns the winner
// and its ladder teams.
func (c *HTTPClient) selectCandidate(ctx context.Context, identity models.PlayerIdentity, candidates []characterSearchEntry) (*characterSearchEntry, []teamWire, error) {
	filtered := candidates
	if c.referenceMMR > 0 && c.cfg.MMRSearchWindow > 0 {
		inWindow := make([]characterSearchEntry, 0, len(candidates))
		for _, cand := range candidates {
			rating := cand.CurrentStats.rating()
			if rating == 0 {
				continue
			}
			if abs(rating-c.referenceMMR) <= c.cfg.MMRSearchWindow {
				inWindow = append(inWindow, cand)
			}
		}
		if len(inWindow) > 0 {
			filtered = inWindow
		} else {
			c.log.Debug().
				Str("player", identity.Name).
				Int("reference_mmr", c.referenceMMR).
				Msg("No candidates inside MMR window, falling back to all")
		}
	}

	// A known profile ID short-circuits disambiguation.
	if identity.ProfileID != 0 {
		for i := range filtered {
			if filtered[i].Members.Character.BattlenetID == identity.ProfileID {
				teams, err := c.characterTeams(ctx, filtered[i].Members.Character.ID)
				if err != nil {
					return nil, nil, err
				}
				return &filtered[i], teams, nil
			}
		}
	}

	limit := len(filtered)
	if limit > maxCandidateTeamLookups {
		limit = maxCandidateTeamLookups
	}

	bestIdx := 0
	var bestTeams []teamWire
	var bestPlayed time.Time

	for i := 0; i < limit; i++ {
		teams, err := c.characterTeams(ctx, filtered[i].Members.Character.ID)
		if err != nil {
			// Disambiguation lookups are best effort; a candidate whose
			// teams cannot be read just loses the recency comparison.
			if KindOf(err) == KindNotFound {
				continue
			}
			return nil, nil, err
		}

		var newest time.Time
		for _, team := range teams {
			if played := team.lastPlayedTime(); played.After(newest) {
				newest = played
			}
		}

		if bestTeams == nil || newest.After(bestPlayed) {
			bestIdx = i
			bestTeams = teams
			bestPlayed = newest
		}
	}

	if bestTeams == nil {
		// No candidate had readable teams; take the first hit and let the
		// history fetch decide whether any data exists.
		bestTeams = []teamWire{}
	}

	return &filtered[bestIdx], bestTeams, nil
}

// characterTeams fetches the ladder teams for one character.
func (c *HTTPClient) characterTeams(ctx context.Context, characterID int64) ([]teamWire, error) {
	endpoint := fmt.Sprintf("%s/character-teams?characterId=%d", c.cfg.BaseURL, characterID)

	var teams []teamWire
	if err := c.getJSON(ctx, "character-teams", endpoint, &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

// teamHistories fetches and merges rating histories for the given teams.
// Points are sorted by timestamp and deduplicated, matching the provider's
// merge semantics for a player active on several ladder teams. Teams whose
// wire entry omits the legacy UID get one reconstructed from the resolved
// identity and the team's queue and type codes.
func (c *HTTPClient) teamHistories(ctx context.Context, resolved models.PlayerIdentity, teams []teamWire, league models.League) ([]models.RatingSample, error) {
	uids := make([]string, 0, len(teams))
	seen := make(map[string]struct{}, len(teams))
	for _, team := range teams {
		uid := team.LegacyUID
		if uid == "" && team.QueueType != 0 {
			uid = resolved.LegacyUID(models.TeamFormat(team.QueueType), models.TeamType(team.TeamType))
		}
		if uid == "" {
			continue
		}
		if _, dup := seen[uid]; dup {
			continue
		}
		seen[uid] = struct{}{}
		uids = append(uids, uid)
		if len(uids) == maxLegacyUIDsPerRequest {
			break
		}
	}

	if len(uids) == 0 {
		return nil, nil
	}

	params := make([]string, 0, len(uids)+3)
	for _, uid := range uids {
		params = append(params, "teamLegacyUid="+url.QueryEscape(uid))
	}
	params = append(params, "groupBy=LEGACY_UID", "static=LEGACY_ID", "history=TIMESTAMP&history=RATING")
	endpoint := fmt.Sprintf("%s/team-histories?%s", c.cfg.BaseURL, strings.Join(params, "&"))

	var entries []teamHistoryEntry
	if err := c.getJSON(ctx, "team-histories", endpoint, &entries); err != nil {
		return nil, err
	}

	var merged []models.RatingSample
	for _, entry := range entries {
		merged = append(merged, entry.points(league)...)
	}

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp.Before(merged[j].Timestamp)
	})

	deduped := merged[:0]
	var lastTS time.Time
	for _, sample := range merged {
		if !sample.Timestamp.Equal(lastTS) || len(deduped) == 0 {
			deduped = append(deduped, sample)
			lastTS = sample.Timestamp
		}
	}

	return deduped, nil
}

// getJSON performs one rate-limited GET and decodes the response body.
func (c *HTTPClient) getJSON(ctx context.Context, op, endpoint string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &Error{Kind: KindTimeout, Op: op, Err: err}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &Error{Kind: KindUnknown, Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransport(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return classifyStatus(op, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: KindUnknown, Op: op, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
