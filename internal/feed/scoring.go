// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

package feed

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/dhalvorsen/feedwise/internal/logging"
	"github.com/dhalvorsen/feedwise/internal/models"
)

// Collaborative strategy weights.
const (
	collabSimilarityWeight = 0.5
	collabRecencyWeight    = 0.3
	collabEngagementWeight = 0.2

	// maxSimilarUsers caps the neighborhood size.
	maxSimilarUsers = 10
)

// Content-based strategy weights. The remaining 0.2 is the diversity
// weight applied during re-ranking.
const (
	contentRelevanceWeight  = 0.25
	contentRecencyWeight    = 0.25
	contentEngagementWeight = 0.3

	relevanceCategoryWeight = 0.3
	relevanceTopicWeight    = 0.2
	relevanceAuthorWeight   = 0.2
	relevanceLocationWeight = 0.15
)

// Basic (cold start) strategy weights.
const (
	basicRecencyWeight    = 0.4
	basicEngagementWeight = 0.4
	basicLocationWeight   = 0.2
)

// RecencyScore returns DecayFactor^(age/24h). It equals 1.0 at age zero,
// decreases monotonically with age and is never negative.
func RecencyScore(createdAt, now time.Time) float64 {
	hours := now.Sub(createdAt).Hours()
	if hours < 0 {
		hours = 0
	}
	return math.Pow(DecayFactor, hours/24)
}

// EngagementScore returns log(1 + likes + 2*comments + 3*shares) / log(100).
// It is zero at zero engagement and unbounded above: posts with extreme
// engagement score past 1.0 on this signal alone.
func EngagementScore(likes, comments, shares int) float64 {
	weighted := float64(1 + likes + 2*comments + 3*shares)
	score := math.Log(weighted) / math.Log(100)
	if score < 0 {
		return 0
	}
	return score
}

// Scorer scores candidate posts against a behavior profile using one of
// three strategies. Output lists are unsorted; ordering is the caller's
// responsibility.
type Scorer struct {
	provider DataProvider
	logger   zerolog.Logger

	// now is replaceable in tests.
	now func() time.Time
}

// NewScorer creates a candidate scorer.
func NewScorer(provider DataProvider) *Scorer {
	return &Scorer{
		provider: provider,
		logger:   logging.With().Str("component", "scorer").Logger(),
		now:      time.Now,
	}
}

// Score runs the selected strategy over the candidates.
func (s *Scorer) Score(ctx context.Context, strategy Strategy, user *models.User,
	profile *BehaviorProfile, candidates []*models.Post) []ScoredCandidate {
	switch strategy {
	case StrategyCollaborative:
		return s.scoreCollaborative(ctx, profile, candidates)
	case StrategyContentBased:
		return s.scoreContentBased(user, profile, candidates)
	default:
		return s.scoreBasic(user, candidates)
	}
}

// scoreCollaborative finds users with overlapping like history, weighs them
// by Jaccard similarity over liked-post sets, and accumulates similarity
// mass on each candidate liked by a neighbor.
func (s *Scorer) scoreCollaborative(ctx context.Context, profile *BehaviorProfile,
	candidates []*models.Post) []ScoredCandidate {
	now := s.now()

	similar := s.similarUsers(ctx, profile.UserID)

	// Sum neighbor similarity per candidate post.
	collabScores := make(map[string]float64, len(candidates))
	for userID, similarity := range similar {
		liked, err := s.provider.LikedPostIDs(ctx, userID)
		if err != nil {
			s.logger.Debug().Err(err).Str("user_id", userID).
				Msg("skipping similar user with unreadable likes")
			continue
		}
		for postID := range liked {
			collabScores[postID] += similarity
		}
	}

	out := make([]ScoredCandidate, 0, len(candidates))
	for _, post := range candidates {
		recency := RecencyScore(post.CreatedAt, now)
		engagement := EngagementScore(post.Likes, post.Comments, post.Shares)
		collab := collabScores[post.ID]

		out = append(out, ScoredCandidate{
			ContentID: post.ID,
			Category:  post.Category,
			AuthorID:  post.AuthorID,
			RawScore: collabSimilarityWeight*collab +
				collabRecencyWeight*recency +
				collabEngagementWeight*engagement,
			Breakdown: map[string]float64{
				"collaborative": collab,
				"recency":       recency,
				"engagement":    engagement,
			},
		})
	}
	return out
}

// similarUsers returns up to maxSimilarUsers users who share at least one
// liked post with the target user, keyed by Jaccard similarity of the two
// liked-post sets.
func (s *Scorer) similarUsers(ctx context.Context, userID string) map[string]float64 {
	ownLikes, err := s.provider.LikedPostIDs(ctx, userID)
	if err != nil || len(ownLikes) == 0 {
		if err != nil {
			s.logger.Debug().Err(err).Str("user_id", userID).Msg("liked posts unavailable")
		}
		return nil
	}

	// Collect co-likers across the user's liked posts.
	coLikers := make(map[string]struct{})
	for postID := range ownLikes {
		users, err := s.provider.UsersWhoLiked(ctx, postID)
		if err != nil {
			continue
		}
		for _, other := range users {
			if other != userID {
				coLikers[other] = struct{}{}
			}
		}
		if len(coLikers) >= maxSimilarUsers*4 {
			break
		}
	}

	similar := make(map[string]float64, maxSimilarUsers)
	for other := range coLikers {
		otherLikes, err := s.provider.LikedPostIDs(ctx, other)
		if err != nil || len(otherLikes) == 0 {
			continue
		}
		if sim := jaccard(ownLikes, otherLikes); sim > 0 {
			similar[other] = sim
		}
		if len(similar) >= maxSimilarUsers {
			break
		}
	}
	return similar
}

// jaccard computes |A∩B| / |A∪B| over two ID sets.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for id := range a {
		if _, ok := b[id]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// scoreContentBased scores candidates by profile-weighted content matches.
func (s *Scorer) scoreContentBased(user *models.User, profile *BehaviorProfile,
	candidates []*models.Post) []ScoredCandidate {
	now := s.now()

	out := make([]ScoredCandidate, 0, len(candidates))
	for _, post := range candidates {
		relevance := relevanceScore(user, profile, post)
		recency := RecencyScore(post.CreatedAt, now)
		engagement := EngagementScore(post.Likes, post.Comments, post.Shares)

		out = append(out, ScoredCandidate{
			ContentID: post.ID,
			Category:  post.Category,
			AuthorID:  post.AuthorID,
			RawScore: contentRelevanceWeight*relevance +
				contentRecencyWeight*recency +
				contentEngagementWeight*engagement,
			Breakdown: map[string]float64{
				"relevance":  relevance,
				"recency":    recency,
				"engagement": engagement,
			},
		})
	}
	return out
}

// relevanceScore sums profile-weighted matches for one candidate.
func relevanceScore(user *models.User, profile *BehaviorProfile, post *models.Post) float64 {
	score := relevanceCategoryWeight * profile.CategoryWeights[post.Category]

	var topicSum float64
	for _, topic := range post.NormalizedHashtags() {
		topicSum += profile.TopicWeights[topic]
	}
	score += relevanceTopicWeight * topicSum

	score += relevanceAuthorWeight * profile.AuthorWeights[post.AuthorID]

	if locationMatch(user, post) {
		score += relevanceLocationWeight
	}
	return score
}

// scoreBasic is the cold-start strategy: recency, engagement and locality only.
func (s *Scorer) scoreBasic(user *models.User, candidates []*models.Post) []ScoredCandidate {
	now := s.now()

	out := make([]ScoredCandidate, 0, len(candidates))
	for _, post := range candidates {
		recency := RecencyScore(post.CreatedAt, now)
		engagement := EngagementScore(post.Likes, post.Comments, post.Shares)
		location := 0.0
		if locationMatch(user, post) {
			location = 1.0
		}

		out = append(out, ScoredCandidate{
			ContentID: post.ID,
			Category:  post.Category,
			AuthorID:  post.AuthorID,
			RawScore: basicRecencyWeight*recency +
				basicEngagementWeight*engagement +
				basicLocationWeight*location,
			Breakdown: map[string]float64{
				"recency":    recency,
				"engagement": engagement,
				"location":   location,
			},
		})
	}
	return out
}

// locationMatch reports whether the post and user declare the same location.
func locationMatch(user *models.User, post *models.Post) bool {
	return user != nil && user.Location != "" && user.Location == post.Location
}
