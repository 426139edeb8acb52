// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

package feed

import (
	"strings"
	"testing"

	"github.com/dhalvorsen/feedwise/internal/models"
)

func TestPredictBareBaselines(t *testing.T) {
	p := NewEngagementPredictor()

	// Minimal post: no media, no hashtags, no title, body too short for
	// the ideal-length bonus.
	pred := p.Predict(&models.Post{ID: "p1", Content: "hi"}, nil)

	if !almostEqual(pred.LikeProbability, 0.5) {
		t.Errorf("like = %v, want base 0.5", pred.LikeProbability)
	}
	if !almostEqual(pred.CommentProbability, 0.3) {
		t.Errorf("comment = %v, want base 0.3", pred.CommentProbability)
	}
	if !almostEqual(pred.ShareProbability, 0.2) {
		t.Errorf("share = %v, want base 0.2", pred.ShareProbability)
	}

	// overall = 0.5*0.5 + 0.3*0.3 + 0.2*0.2 = 0.38
	if !almostEqual(pred.OverallScore, 0.38) {
		t.Errorf("overall = %v, want 0.38", pred.OverallScore)
	}

	// estimates: like 10*0.5=5, comment 10*0.3*0.3=0.9, share 10*0.2*0.1=0.2
	if !almostEqual(pred.EstimatedLikes, 5.0) {
		t.Errorf("est likes = %v, want 5.0", pred.EstimatedLikes)
	}
	if !almostEqual(pred.EstimatedComments, 0.9) {
		t.Errorf("est comments = %v, want 0.9", pred.EstimatedComments)
	}
	if !almostEqual(pred.EstimatedShares, 0.2) {
		t.Errorf("est shares = %v, want 0.2", pred.EstimatedShares)
	}
}

func TestPredictFeatureBonuses(t *testing.T) {
	p := NewEngagementPredictor()
	body := strings.Repeat("maize prices are rising ", 5) // ~120 chars, ideal window

	tests := []struct {
		name     string
		post     *models.Post
		wantLike float64
	}{
		{
			name:     "ideal length",
			post:     &models.Post{Content: body},
			wantLike: 0.6, // 0.5 + 0.1
		},
		{
			name:     "image",
			post:     &models.Post{Content: "x", HasImage: true},
			wantLike: 0.65, // 0.5 + 0.15
		},
		{
			name:     "video",
			post:     &models.Post{Content: "x", HasVideo: true},
			wantLike: 0.7, // 0.5 + 0.2
		},
		{
			name:     "few hashtags",
			post:     &models.Post{Content: "x", Hashtags: []string{"a", "b"}},
			wantLike: 0.55, // 0.5 + 0.05
		},
		{
			name:     "too many hashtags",
			post:     &models.Post{Content: "x", Hashtags: []string{"a", "b", "c", "d", "e"}},
			wantLike: 0.5, // no bonus at 5
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred := p.Predict(tt.post, nil)
			if !almostEqual(pred.LikeProbability, tt.wantLike) {
				t.Errorf("like = %v, want %v", pred.LikeProbability, tt.wantLike)
			}
		})
	}
}

func TestPredictAuthorRoleBonus(t *testing.T) {
	p := NewEngagementPredictor()

	tests := []struct {
		name      string
		role      string
		wantLike  float64
		wantShare float64
	}{
		{"plain member", "member", 0.5, 0.2},
		{"creator account", "creator", 0.55, 0.25},
		{"moderator account", "moderator", 0.55, 0.25},
		{"no role", "", 0.5, 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred := p.Predict(&models.Post{ID: "p1", Content: "hi", AuthorRole: tt.role}, nil)
			if !almostEqual(pred.LikeProbability, tt.wantLike) {
				t.Errorf("like = %v, want %v", pred.LikeProbability, tt.wantLike)
			}
			if !almostEqual(pred.ShareProbability, tt.wantShare) {
				t.Errorf("share = %v, want %v", pred.ShareProbability, tt.wantShare)
			}
		})
	}
}

func TestPredictCategoryPreferenceScaled(t *testing.T) {
	p := NewEngagementPredictor()

	profile := emptyProfile("u1")
	profile.TotalInteractions = 10
	profile.CategoryWeights["health"] = 0.5

	pred := p.Predict(&models.Post{ID: "p1", Content: "x", Category: "health"}, profile)

	// 0.5 + 0.2*0.5 = 0.6
	if !almostEqual(pred.LikeProbability, 0.6) {
		t.Errorf("like = %v, want 0.6", pred.LikeProbability)
	}
	if pred.UserID != "u1" {
		t.Errorf("user id = %q, want u1", pred.UserID)
	}
}

func TestPredictProbabilitiesClamped(t *testing.T) {
	p := NewEngagementPredictor()

	profile := emptyProfile("u1")
	profile.TotalInteractions = 100
	profile.CategoryWeights["health"] = 10.0 // pathological weight

	body := strings.Repeat("a", 100)
	pred := p.Predict(&models.Post{
		Content: body, Category: "health",
		HasImage: true, HasVideo: true, Hashtags: []string{"a"},
	}, profile)

	for name, v := range map[string]float64{
		"like":    pred.LikeProbability,
		"comment": pred.CommentProbability,
		"share":   pred.ShareProbability,
	} {
		if v < 0 || v > 1 {
			t.Errorf("%s probability = %v, want within [0,1]", name, v)
		}
	}
	if pred.Confidence > 1 {
		t.Errorf("confidence = %v, want <= 1", pred.Confidence)
	}
}

func TestPredictImageMultipliesEstimates(t *testing.T) {
	p := NewEngagementPredictor()

	plain := p.Predict(&models.Post{Content: "x"}, nil)
	imaged := p.Predict(&models.Post{Content: "x", HasImage: true}, nil)

	// like prob rises 0.5 -> 0.65, and the count estimator gains the 1.5x
	// image multiplier: 10*0.65*1.5 = 9.75.
	if !almostEqual(imaged.EstimatedLikes, 9.75) {
		t.Errorf("est likes with image = %v, want 9.75", imaged.EstimatedLikes)
	}
	if imaged.EstimatedLikes <= plain.EstimatedLikes {
		t.Error("image must increase the like estimate")
	}
}

func TestPredictQuestionBoostsComments(t *testing.T) {
	p := NewEngagementPredictor()

	plain := p.Predict(&models.Post{Content: "market day today"}, nil)
	question := p.Predict(&models.Post{Content: "what are maize prices today?"}, nil)

	if question.CommentProbability <= plain.CommentProbability {
		t.Error("a question should raise comment probability")
	}
}

func TestPredictConfidenceGrowsWithHistory(t *testing.T) {
	p := NewEngagementPredictor()
	post := &models.Post{Content: "x"}

	anon := p.Predict(post, nil)

	thin := emptyProfile("u1")
	thin.TotalInteractions = 5
	some := p.Predict(post, thin)

	rich := emptyProfile("u1")
	rich.TotalInteractions = 200
	deep := p.Predict(post, rich)

	if !(anon.Confidence < some.Confidence && some.Confidence < deep.Confidence) {
		t.Errorf("confidence should grow with history: %v, %v, %v",
			anon.Confidence, some.Confidence, deep.Confidence)
	}
	if deep.Confidence > 1.0 {
		t.Errorf("confidence = %v, want capped at 1.0", deep.Confidence)
	}
}
