// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

package feed

import (
	"github.com/dhalvorsen/feedwise/internal/models"
)

// Engagement prediction base rates and feature bonuses.
const (
	baseLikeProbability    = 0.5
	baseCommentProbability = 0.3
	baseShareProbability   = 0.2

	// Ideal body length window.
	idealLengthMin = 50
	idealLengthMax = 500

	lengthBonus   = 0.1
	imageBonus    = 0.15
	videoBonus    = 0.2
	hashtagBonus  = 0.05
	titleBonus    = 0.05
	categoryBonus = 0.2 // scaled by the profile's category weight

	// Comment-specific: questions invite replies.
	questionBonus = 0.15

	// Posts from creator and moderator accounts draw more engagement.
	authorRoleBonus = 0.05

	// Count estimation.
	baseCount       = 10.0
	imageMultiplier = 1.5

	commentEstimateScale = 0.3
	shareEstimateScale   = 0.1

	// Overall score weights.
	overallLikeWeight    = 0.5
	overallCommentWeight = 0.3
	overallShareWeight   = 0.2

	// Confidence inputs.
	baseConfidence           = 0.3
	confidencePerInteraction = 0.01
	mediaConfidenceBonus     = 0.1
)

// EngagementPredictor estimates interaction likelihood for a single post.
// It is a stateless pure function of (post, profile); it must never depend
// on the output of a ranking pass that consumes it.
type EngagementPredictor struct{}

// NewEngagementPredictor creates a predictor.
func NewEngagementPredictor() *EngagementPredictor {
	return &EngagementPredictor{}
}

// Predict estimates like/comment/share probabilities and counts for the
// post. profile may be nil (anonymous or cold-start callers); prediction
// then uses content features only.
func (e *EngagementPredictor) Predict(post *models.Post, profile *BehaviorProfile) EngagementPrediction {
	bodyLen := len(post.Content)
	hashtags := len(post.NormalizedHashtags())
	idealLength := bodyLen >= idealLengthMin && bodyLen <= idealLengthMax
	fewHashtags := hashtags > 0 && hashtags < 5

	var categoryWeight float64
	if profile != nil && post.Category != "" {
		categoryWeight = profile.CategoryWeights[post.Category]
	}
	trustedAuthor := post.AuthorRole == "creator" || post.AuthorRole == "moderator"

	like := baseLikeProbability
	if idealLength {
		like += lengthBonus
	}
	if post.HasImage {
		like += imageBonus
	}
	if post.HasVideo {
		like += videoBonus
	}
	if fewHashtags {
		like += hashtagBonus
	}
	if trustedAuthor {
		like += authorRoleBonus
	}
	like += categoryBonus * categoryWeight
	like = clamp01(like)

	comment := baseCommentProbability
	if idealLength {
		comment += lengthBonus
	}
	if post.Title != "" {
		comment += titleBonus
	}
	if containsQuestion(post.Content) {
		comment += questionBonus
	}
	comment += categoryBonus * categoryWeight
	comment = clamp01(comment)

	share := baseShareProbability
	if post.HasImage || post.HasVideo {
		share += imageBonus
	}
	if fewHashtags {
		share += hashtagBonus
	}
	if trustedAuthor {
		share += authorRoleBonus
	}
	share += categoryBonus * categoryWeight
	share = clamp01(share)

	// Comment/share counts reuse the like-count estimator with their own
	// probability substituted in, scaled down to typical ratios.
	likes := estimateCount(like, post.HasImage)
	comments := estimateCount(comment, post.HasImage) * commentEstimateScale
	shares := estimateCount(share, post.HasImage) * shareEstimateScale

	confidence := baseConfidence
	if profile != nil {
		confidence += confidencePerInteraction * float64(profile.TotalInteractions)
	}
	if post.HasMedia() {
		confidence += mediaConfidenceBonus
	}
	confidence = clamp01(confidence)

	pred := EngagementPrediction{
		ContentID:          post.ID,
		LikeProbability:    like,
		CommentProbability: comment,
		ShareProbability:   share,
		EstimatedLikes:     likes,
		EstimatedComments:  comments,
		EstimatedShares:    shares,
		OverallScore: overallLikeWeight*like +
			overallCommentWeight*comment +
			overallShareWeight*share,
		Confidence: confidence,
	}
	if profile != nil {
		pred.UserID = profile.UserID
	}
	return pred
}

// estimateCount converts a probability into an expected interaction count.
func estimateCount(probability float64, hasImage bool) float64 {
	count := baseCount * probability
	if hasImage {
		count *= imageMultiplier
	}
	return count
}

// containsQuestion reports whether the content asks a question.
func containsQuestion(content string) bool {
	for _, r := range content {
		if r == '?' {
			return true
		}
	}
	return false
}

// clamp01 clamps v to [0,1].
func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
