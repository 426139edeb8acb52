// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

// Package feed implements the personalized ranking pipeline: behavior
// profile construction, candidate scoring (collaborative, content-based,
// basic), diversity re-ranking, trending topic detection and engagement
// prediction.
package feed

import (
	"context"
	"time"

	"github.com/dhalvorsen/feedwise/internal/models"
)

const (
	// DecayFactor is the multiplicative per-day attenuation for recency.
	DecayFactor = 0.95

	// MinInteractionsForPersonalization is the interaction count below
	// which collaborative filtering is considered unreliable.
	MinInteractionsForPersonalization = 5
)

// Strategy selects a candidate scoring approach.
type Strategy string

const (
	// StrategyCollaborative scores via similar users' liked posts.
	StrategyCollaborative Strategy = "collaborative"
	// StrategyContentBased scores via profile-weighted content matches.
	StrategyContentBased Strategy = "content_based"
	// StrategyBasic is the cold-start fallback using recency and engagement.
	StrategyBasic Strategy = "basic"
)

// BehaviorProfile is a user's normalized preference vector derived from
// interaction history. When TotalInteractions > 0 every weight map is
// divided by TotalInteractions; the weights are signal strengths, not a
// probability distribution, and individual entries may exceed 1.0.
type BehaviorProfile struct {
	UserID            string             `json:"user_id"`
	CategoryWeights   map[string]float64 `json:"category_weights"`
	TopicWeights      map[string]float64 `json:"topic_weights"`
	AuthorWeights     map[string]float64 `json:"author_weights"`
	HourHistogram     map[int]int        `json:"hour_histogram"`
	DayHistogram      map[int]int        `json:"day_histogram"`
	TotalInteractions int                `json:"total_interactions"`
	ComputedAt        time.Time          `json:"computed_at"`
}

// Personalizable reports whether the profile carries enough history for
// collaborative filtering.
func (p *BehaviorProfile) Personalizable() bool {
	return p.TotalInteractions >= MinInteractionsForPersonalization
}

// ScoredCandidate is a post with its ranking score and per-signal
// breakdown. Created per ranking pass and discarded after ordering.
type ScoredCandidate struct {
	ContentID string             `json:"content_id"`
	Category  string             `json:"category,omitempty"`
	AuthorID  string             `json:"author_id,omitempty"`
	RawScore  float64            `json:"raw_score"`
	Breakdown map[string]float64 `json:"breakdown,omitempty"`
}

// TopicStat accumulates a topic's raw counts over one detection pass.
type TopicStat struct {
	Topic         string `json:"topic"`
	MentionCount  int    `json:"mention_count"`
	EngagementSum int    `json:"engagement_sum"`
}

// TrendingTopic is a topic with its time-normalized trending score and
// mention velocity over the detection window.
type TrendingTopic struct {
	Topic         string    `json:"topic"`
	MentionCount  int       `json:"mention_count"`
	EngagementSum int       `json:"engagement_sum"`
	TrendingScore float64   `json:"trending_score"`
	Velocity      float64   `json:"velocity"`
	WindowHours   int       `json:"window_hours"`
	Location      string    `json:"location,omitempty"`
	ComputedAt    time.Time `json:"computed_at"`
}

// EngagementPrediction estimates interaction likelihood for one post.
type EngagementPrediction struct {
	ContentID          string  `json:"content_id"`
	UserID             string  `json:"user_id,omitempty"`
	LikeProbability    float64 `json:"like_probability"`
	CommentProbability float64 `json:"comment_probability"`
	ShareProbability   float64 `json:"share_probability"`
	EstimatedLikes     float64 `json:"estimated_likes"`
	EstimatedComments  float64 `json:"estimated_comments"`
	EstimatedShares    float64 `json:"estimated_shares"`
	OverallScore       float64 `json:"overall_score"`
	Confidence         float64 `json:"confidence"`
}

// DataProvider is the narrow read surface the ranking pipeline needs.
// The store package satisfies it; tests supply fakes.
type DataProvider interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetPost(ctx context.Context, postID string) (*models.Post, error)
	RecentPosts(ctx context.Context, q models.PostQuery) ([]*models.Post, error)
	RecentInteractions(ctx context.Context, userID string, itype models.InteractionType, limit int) ([]*models.Interaction, error)
	LikedPostIDs(ctx context.Context, userID string) (map[string]struct{}, error)
	UsersWhoLiked(ctx context.Context, postID string) ([]string, error)
}
