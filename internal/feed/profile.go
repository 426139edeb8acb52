// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

package feed

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/dhalvorsen/feedwise/internal/cache"
	"github.com/dhalvorsen/feedwise/internal/logging"
	"github.com/dhalvorsen/feedwise/internal/models"
)

// historyDepth bounds how many recent events of each interaction type feed
// one profile build. Bounding per type keeps a like burst from pushing
// every comment and share out of the window.
const historyDepth = 100

// interactionWeights maps interaction types to preference point weights.
// Comments weigh double a like. Shares count toward TotalInteractions and
// the time histograms but do not feed preference weights; the collaborative
// path already consumes share signals through engagement scores.
var interactionWeights = map[models.InteractionType]float64{
	models.InteractionLike:    1.0,
	models.InteractionComment: 2.0,
	models.InteractionShare:   0.0,
}

// ProfileBuilder constructs behavior profiles from interaction history.
type ProfileBuilder struct {
	provider DataProvider
	cache    *cache.Cache
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewProfileBuilder creates a profile builder. cache may be nil, in which
// case every Build recomputes from the provider.
func NewProfileBuilder(provider DataProvider, c *cache.Cache, cacheTTL time.Duration) *ProfileBuilder {
	return &ProfileBuilder{
		provider: provider,
		cache:    c,
		cacheTTL: cacheTTL,
		logger:   logging.With().Str("component", "profile_builder").Logger(),
	}
}

// Build returns the user's behavior profile, from cache when fresh.
//
// Profile building is fail-open: lookup failures for individual events are
// skipped, and a total failure yields a zero profile rather than an error,
// so a broken profile never breaks the feed.
func (b *ProfileBuilder) Build(ctx context.Context, userID string) *BehaviorProfile {
	cacheKey := "profile:" + userID
	if b.cache != nil {
		if cached, ok := b.cache.Get(cache.PartitionUserData, cacheKey); ok {
			if profile, ok := cached.(*BehaviorProfile); ok {
				return profile
			}
		}
	}

	profile := b.build(ctx, userID)

	if b.cache != nil && b.cacheTTL > 0 {
		b.cache.Set(cache.PartitionUserData, cacheKey, profile, b.cacheTTL, cache.UserTag(userID))
	}
	return profile
}

// Invalidate drops all cached data derived from the user, forcing the next
// Build to recompute.
func (b *ProfileBuilder) Invalidate(userID string) {
	if b.cache != nil {
		b.cache.InvalidateTag(cache.UserTag(userID))
	}
}

// build computes a fresh profile from the provider.
func (b *ProfileBuilder) build(ctx context.Context, userID string) *BehaviorProfile {
	profile := emptyProfile(userID)

	// Each type is fetched with its own bound so the windows are
	// independent.
	var interactions []*models.Interaction
	for itype := range interactionWeights {
		events, err := b.provider.RecentInteractions(ctx, userID, itype, historyDepth)
		if err != nil {
			b.logger.Warn().Err(err).Str("user_id", userID).
				Str("type", string(itype)).
				Msg("interaction fetch failed, returning zero profile")
			return profile
		}
		interactions = append(interactions, events...)
	}

	for _, in := range interactions {
		weight, known := interactionWeights[in.Type]
		if !known {
			continue
		}
		profile.TotalInteractions++

		// Time-of-day and day-of-week histograms count every event type.
		profile.HourHistogram[in.CreatedAt.Hour()]++
		profile.DayHistogram[int(in.CreatedAt.Weekday())+1]++

		if weight == 0 {
			continue
		}

		post, err := b.provider.GetPost(ctx, in.PostID)
		if err != nil {
			// Best effort: a missing post drops this event's preference
			// contribution but keeps the profile usable.
			b.logger.Debug().Err(err).Str("post_id", in.PostID).
				Msg("skipping interaction with unresolvable post")
			continue
		}

		if post.Category != "" {
			profile.CategoryWeights[post.Category] += weight
		}
		for _, topic := range post.NormalizedHashtags() {
			profile.TopicWeights[topic] += weight
		}
		if post.AuthorID != "" {
			profile.AuthorWeights[post.AuthorID] += weight
		}
	}

	// L1-style normalization by the total event count, not per map. The
	// resulting weights are signal strengths and may exceed 1.0 when a
	// single key absorbs comment-weighted interactions.
	if profile.TotalInteractions > 0 {
		n := float64(profile.TotalInteractions)
		for k := range profile.CategoryWeights {
			profile.CategoryWeights[k] /= n
		}
		for k := range profile.TopicWeights {
			profile.TopicWeights[k] /= n
		}
		for k := range profile.AuthorWeights {
			profile.AuthorWeights[k] /= n
		}
	}

	return profile
}

// emptyProfile returns an all-zero profile for the user.
func emptyProfile(userID string) *BehaviorProfile {
	return &BehaviorProfile{
		UserID:          userID,
		CategoryWeights: make(map[string]float64),
		TopicWeights:    make(map[string]float64),
		AuthorWeights:   make(map[string]float64),
		HourHistogram:   make(map[int]int),
		DayHistogram:    make(map[int]int),
		ComputedAt:      time.Now().UTC(),
	}
}
