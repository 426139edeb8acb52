// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

package feed

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dhalvorsen/feedwise/internal/cache"
	"github.com/dhalvorsen/feedwise/internal/logging"
	"github.com/dhalvorsen/feedwise/internal/metrics"
	"github.com/dhalvorsen/feedwise/internal/models"
)

// Trending score weights per hour of window.
const (
	trendingMentionWeight    = 0.4
	trendingEngagementWeight = 0.6
)

// topicLexicon maps body keywords to topics for posts without hashtags.
// Scanned case-insensitively over the post content.
var topicLexicon = map[string]string{
	"harvest":     "farming",
	"planting":    "farming",
	"irrigation":  "farming",
	"livestock":   "livestock",
	"cattle":      "livestock",
	"poultry":     "livestock",
	"market":      "markets",
	"price":       "markets",
	"clinic":      "health",
	"vaccine":     "health",
	"malaria":     "health",
	"school":      "education",
	"scholarship": "education",
	"election":    "civic",
	"council":     "civic",
	"football":    "sports",
	"tournament":  "sports",
	"recipe":      "food",
	"festival":    "culture",
	"wedding":     "culture",
}

// TrendingOptions configures one detection pass.
type TrendingOptions struct {
	// WindowHours is the detection window. Must be >= 1.
	WindowHours int

	// Location optionally restricts the scan to one location.
	Location string

	// Limit truncates the returned topic list. <= 0 means all topics.
	Limit int
}

// TrendingDetector aggregates topic mentions and engagement over a time
// window and computes per-topic velocity.
type TrendingDetector struct {
	provider DataProvider
	cache    *cache.Cache
	cacheTTL time.Duration
	maxPosts int
	logger   zerolog.Logger
	now      func() time.Time
}

// NewTrendingDetector creates a detector. cache may be nil.
func NewTrendingDetector(provider DataProvider, c *cache.Cache, cacheTTL time.Duration, maxPosts int) *TrendingDetector {
	if maxPosts <= 0 {
		maxPosts = 500
	}
	return &TrendingDetector{
		provider: provider,
		cache:    c,
		cacheTTL: cacheTTL,
		maxPosts: maxPosts,
		logger:   logging.With().Str("component", "trending").Logger(),
		now:      time.Now,
	}
}

// Detect returns topics sorted descending by trending score. Detection is
// fail-open: a store failure returns an empty list, never an error.
func (d *TrendingDetector) Detect(ctx context.Context, opts TrendingOptions) []TrendingTopic {
	if opts.WindowHours < 1 {
		opts.WindowHours = 24
	}

	cacheKey := cache.GenerateKey("trending", map[string]any{
		"window":   opts.WindowHours,
		"location": opts.Location,
	})
	if d.cache != nil {
		if cached, ok := d.cache.Get(cache.PartitionAnalytics, cacheKey); ok {
			if topics, ok := cached.([]TrendingTopic); ok {
				metrics.TrendingRefreshTotal.WithLabelValues("cache_hit").Inc()
				return truncateTopics(topics, opts.Limit)
			}
		}
	}

	now := d.now()
	windowStart := now.Add(-time.Duration(opts.WindowHours) * time.Hour)

	posts, err := d.provider.RecentPosts(ctx, models.PostQuery{
		Since:    windowStart,
		Location: opts.Location,
		Limit:    d.maxPosts,
	})
	if err != nil {
		d.logger.Warn().Err(err).Msg("trending fetch failed, returning empty list")
		metrics.TrendingRefreshTotal.WithLabelValues("error").Inc()
		return nil
	}

	stats := make(map[string]*TopicStat)
	// recentMentions counts topic mentions in the most recent half-window,
	// memoized in the same scan instead of a second fetch per topic.
	recentMentions := make(map[string]int)
	halfWindowStart := now.Add(-time.Duration(opts.WindowHours) * time.Hour / 2)

	for _, post := range posts {
		engagement := post.Likes + post.Comments + post.Shares
		isRecent := !post.CreatedAt.Before(halfWindowStart)

		// One contribution per topic per post; the hashtag path wins when
		// both paths produce the same topic because it includes shares.
		seen := make(map[string]struct{})

		for _, topic := range post.NormalizedHashtags() {
			if _, dup := seen[topic]; dup {
				continue
			}
			seen[topic] = struct{}{}
			addTopicMention(stats, topic, engagement)
			if isRecent {
				recentMentions[topic]++
			}
		}

		// Lexicon-derived topics exclude shares from engagement.
		lexEngagement := post.Likes + post.Comments
		body := strings.ToLower(post.Content)
		for keyword, topic := range topicLexicon {
			if _, dup := seen[topic]; dup {
				continue
			}
			if !strings.Contains(body, keyword) {
				continue
			}
			seen[topic] = struct{}{}
			addTopicMention(stats, topic, lexEngagement)
			if isRecent {
				recentMentions[topic]++
			}
		}
	}

	windowHours := float64(opts.WindowHours)
	topics := make([]TrendingTopic, 0, len(stats))
	for _, st := range stats {
		recent := recentMentions[st.Topic]
		older := st.MentionCount - recent

		topics = append(topics, TrendingTopic{
			Topic:         st.Topic,
			MentionCount:  st.MentionCount,
			EngagementSum: st.EngagementSum,
			TrendingScore: trendingMentionWeight*(float64(st.MentionCount)/windowHours) +
				trendingEngagementWeight*(float64(st.EngagementSum)/windowHours),
			Velocity:    velocity(recent, older),
			WindowHours: opts.WindowHours,
			Location:    opts.Location,
			ComputedAt:  now.UTC(),
		})
	}

	sort.SliceStable(topics, func(i, j int) bool {
		return topics[i].TrendingScore > topics[j].TrendingScore
	})

	if d.cache != nil && d.cacheTTL > 0 {
		d.cache.Set(cache.PartitionAnalytics, cacheKey, topics, d.cacheTTL)
	}
	metrics.TrendingRefreshTotal.WithLabelValues("computed").Inc()
	metrics.TrendingTopicsDetected.Set(float64(len(topics)))

	return truncateTopics(topics, opts.Limit)
}

// addTopicMention records one mention with its engagement contribution.
func addTopicMention(stats map[string]*TopicStat, topic string, engagement int) {
	st, ok := stats[topic]
	if !ok {
		st = &TopicStat{Topic: topic}
		stats[topic] = st
	}
	st.MentionCount++
	st.EngagementSum += engagement
}

// velocity is the relative mention growth of the recent half-window over
// the older half. With no older mentions it degenerates to the raw recent
// count.
func velocity(recent, older int) float64 {
	if older == 0 {
		return float64(recent)
	}
	return float64(recent-older) / float64(older)
}

// truncateTopics caps the topic list at limit when limit > 0.
func truncateTopics(topics []TrendingTopic, limit int) []TrendingTopic {
	if limit > 0 && len(topics) > limit {
		return topics[:limit]
	}
	return topics
}
