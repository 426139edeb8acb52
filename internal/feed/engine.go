// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

package feed

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/dhalvorsen/feedwise/internal/cache"
	"github.com/dhalvorsen/feedwise/internal/logging"
	"github.com/dhalvorsen/feedwise/internal/metrics"
	"github.com/dhalvorsen/feedwise/internal/models"
	"github.com/dhalvorsen/feedwise/internal/validation"
)

// latencyWindow bounds how many recent request latencies the engine keeps
// for percentile snapshots.
const latencyWindow = 1024

// Options configures the ranking engine.
type Options struct {
	// DefaultLimit is the feed size when a request does not specify one.
	DefaultLimit int

	// MaxLimit caps the requested feed size.
	MaxLimit int

	// MaxCandidates caps how many recent posts are scored per request.
	MaxCandidates int

	// CandidateWindow restricts candidates to posts newer than this.
	CandidateWindow time.Duration

	// FeedCacheTTL is how long ranked feeds stay cached.
	FeedCacheTTL time.Duration

	// BreakerMaxFailures opens the store breaker after this many
	// consecutive failures. 0 disables the breaker.
	BreakerMaxFailures uint32

	// BreakerTimeout is how long the breaker stays open before probing.
	BreakerTimeout time.Duration
}

// defaults fills zero fields with sensible values.
func (o *Options) defaults() {
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = 20
	}
	if o.MaxLimit <= 0 {
		o.MaxLimit = 100
	}
	if o.MaxCandidates <= 0 {
		o.MaxCandidates = 500
	}
	if o.CandidateWindow <= 0 {
		o.CandidateWindow = 7 * 24 * time.Hour
	}
	if o.BreakerTimeout <= 0 {
		o.BreakerTimeout = 30 * time.Second
	}
}

// FeedRequest is a validated personalized-feed request.
type FeedRequest struct {
	UserID           string   `json:"user_id" validate:"required,max=128"`
	Limit            int      `json:"limit" validate:"min=0,max=100"`
	ExcludeIDs       []string `json:"exclude_ids" validate:"max=500"`
	UseCollaborative bool     `json:"use_collaborative"`
	UseContentBased  bool     `json:"use_content_based"`
}

// FeedResult is a ranked feed with the strategy that produced it.
type FeedResult struct {
	UserID     string            `json:"user_id"`
	Strategy   Strategy          `json:"strategy"`
	Candidates []ScoredCandidate `json:"candidates"`
	ComputedAt time.Time         `json:"computed_at"`
}

// Engine orchestrates the ranking pipeline: profile, score, diversify.
// The pipeline stages are strictly sequential; only per-candidate scoring
// inside the scorer is parallelizable.
type Engine struct {
	provider  DataProvider
	profiles  *ProfileBuilder
	scorer    *Scorer
	cache     *cache.Cache
	opts      Options
	logger    zerolog.Logger
	breaker   *gobreaker.CircuitBreaker[[]*models.Post]
	now       func() time.Time

	requests  atomic.Uint64
	failures  atomic.Uint64
	cacheHits atomic.Uint64

	latencyMu sync.Mutex
	latencies []float64
}

// NewEngine creates the ranking engine. cache may be nil.
func NewEngine(provider DataProvider, profiles *ProfileBuilder, c *cache.Cache, opts Options) *Engine {
	opts.defaults()

	e := &Engine{
		provider: provider,
		profiles: profiles,
		scorer:   NewScorer(provider),
		cache:    c,
		opts:     opts,
		logger:   logging.With().Str("component", "feed_engine").Logger(),
		now:      time.Now,
	}

	if opts.BreakerMaxFailures > 0 {
		e.breaker = gobreaker.NewCircuitBreaker[[]*models.Post](gobreaker.Settings{
			Name:    "store-reads",
			Timeout: opts.BreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= opts.BreakerMaxFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				e.logger.Warn().Str("breaker", name).
					Str("from", from.String()).Str("to", to.String()).
					Msg("store breaker state change")
				metrics.StoreBreakerState.Set(breakerStateValue(to))
			},
		})
	}

	return e
}

// GetPersonalizedFeed returns a ranked, diversified feed for the user.
//
// Strategy selection: collaborative when requested and the profile has
// enough history; otherwise content-based when requested and any history
// exists; otherwise the basic cold-start strategy.
//
// The ranking path is fail-open: store unavailability yields an empty
// feed, never an error beyond input validation.
func (e *Engine) GetPersonalizedFeed(ctx context.Context, req FeedRequest) (*FeedResult, error) {
	if verr := validation.ValidateStruct(&req); verr != nil {
		return nil, verr
	}
	limit := req.Limit
	if limit <= 0 {
		limit = e.opts.DefaultLimit
	}
	if limit > e.opts.MaxLimit {
		limit = e.opts.MaxLimit
	}

	start := e.now()
	e.requests.Add(1)

	cacheKey := cache.GenerateKey("feed", map[string]any{
		"user":          req.UserID,
		"limit":         limit,
		"exclude":       req.ExcludeIDs,
		"collaborative": req.UseCollaborative,
		"content_based": req.UseContentBased,
	})
	if e.cache != nil {
		if cached, ok := e.cache.Get(cache.PartitionSearch, cacheKey); ok {
			if result, ok := cached.(*FeedResult); ok {
				e.cacheHits.Add(1)
				metrics.ObserveFeedRequest(string(result.Strategy), "cache_hit", 0, e.now().Sub(start))
				return result, nil
			}
		}
	}

	profile := e.profiles.Build(ctx, req.UserID)
	strategy := selectStrategy(req, profile)

	user, err := e.provider.GetUser(ctx, req.UserID)
	if err != nil {
		// Locality matching degrades gracefully without the user record.
		e.logger.Debug().Err(err).Str("user_id", req.UserID).Msg("user lookup failed")
		user = nil
	}

	candidates, err := e.fetchCandidates(ctx, req.ExcludeIDs)
	if err != nil {
		e.failures.Add(1)
		e.logger.Warn().Err(err).Str("user_id", req.UserID).
			Msg("candidate fetch failed, returning empty feed")
		metrics.ObserveFeedRequest(string(strategy), "error", 0, e.now().Sub(start))
		return &FeedResult{
			UserID:     req.UserID,
			Strategy:   strategy,
			Candidates: []ScoredCandidate{},
			ComputedAt: e.now().UTC(),
		}, nil
	}

	scored := e.scorer.Score(ctx, strategy, user, profile, candidates)
	ranked := Diversify(SortByScore(scored))
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	result := &FeedResult{
		UserID:     req.UserID,
		Strategy:   strategy,
		Candidates: ranked,
		ComputedAt: e.now().UTC(),
	}

	if e.cache != nil && e.opts.FeedCacheTTL > 0 {
		e.cache.Set(cache.PartitionSearch, cacheKey, result, e.opts.FeedCacheTTL,
			cache.UserTag(req.UserID))
	}

	elapsed := e.now().Sub(start)
	e.recordLatency(elapsed)
	metrics.ObserveFeedRequest(string(strategy), "ok", len(candidates), elapsed)
	return result, nil
}

// RankWithStrategy scores and orders the given candidates with a specific
// strategy. Used by the A/B tracker to compare algorithms on a fixed
// candidate set; results are not cached.
func (e *Engine) RankWithStrategy(ctx context.Context, userID string, strategy Strategy,
	candidates []*models.Post, limit int) []ScoredCandidate {
	profile := e.profiles.Build(ctx, userID)

	// Collaborative ranking on thin history silently degrades.
	if strategy == StrategyCollaborative && !profile.Personalizable() {
		strategy = StrategyContentBased
	}

	user, err := e.provider.GetUser(ctx, userID)
	if err != nil {
		user = nil
	}

	ranked := Diversify(SortByScore(e.scorer.Score(ctx, strategy, user, profile, candidates)))
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// InvalidateUser drops all cached data derived from the user.
func (e *Engine) InvalidateUser(userID string) {
	if e.cache != nil {
		e.cache.InvalidateTag(cache.UserTag(userID))
	}
}

// fetchCandidates reads recent posts through the circuit breaker.
func (e *Engine) fetchCandidates(ctx context.Context, excludeIDs []string) ([]*models.Post, error) {
	query := models.PostQuery{
		Since:      e.now().Add(-e.opts.CandidateWindow),
		ExcludeIDs: excludeIDs,
		Limit:      e.opts.MaxCandidates,
	}

	if e.breaker == nil {
		return e.provider.RecentPosts(ctx, query)
	}
	return e.breaker.Execute(func() ([]*models.Post, error) {
		return e.provider.RecentPosts(ctx, query)
	})
}

// selectStrategy picks the scoring strategy from the request flags and
// profile sufficiency.
func selectStrategy(req FeedRequest, profile *BehaviorProfile) Strategy {
	if req.UseCollaborative && profile.Personalizable() {
		return StrategyCollaborative
	}
	if (req.UseContentBased || req.UseCollaborative) && profile.TotalInteractions > 0 {
		return StrategyContentBased
	}
	return StrategyBasic
}

// Snapshot reports engine counters and the P99 latency over the recent
// request window.
type Snapshot struct {
	Requests     uint64  `json:"requests"`
	Failures     uint64  `json:"failures"`
	CacheHits    uint64  `json:"cache_hits"`
	P99LatencyMS float64 `json:"p99_latency_ms"`
}

// Snapshot returns current engine statistics.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		Requests:  e.requests.Load(),
		Failures:  e.failures.Load(),
		CacheHits: e.cacheHits.Load(),
	}

	e.latencyMu.Lock()
	window := make([]float64, len(e.latencies))
	copy(window, e.latencies)
	e.latencyMu.Unlock()

	if len(window) > 0 {
		if p99, err := stats.Percentile(window, 99); err == nil {
			s.P99LatencyMS = p99
		}
	}
	return s
}

// recordLatency appends a request latency to the bounded window.
func (e *Engine) recordLatency(d time.Duration) {
	ms := float64(d.Microseconds()) / 1000.0

	e.latencyMu.Lock()
	defer e.latencyMu.Unlock()
	if len(e.latencies) >= latencyWindow {
		e.latencies = e.latencies[1:]
	}
	e.latencies = append(e.latencies, ms)
}

// breakerStateValue maps breaker states onto the gauge scale.
func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}
