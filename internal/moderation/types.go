// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

// Package moderation implements the ensemble decision engine: eight
// independent content analyzers run concurrently and their results are
// combined into a single publish/flag/reject decision by priority-ordered
// threshold rules.
package moderation

import (
	"context"
	"time"
)

// Dimension identifies one moderation analyzer.
type Dimension string

const (
	DimensionToxicity       Dimension = "toxicity"
	DimensionHateSpeech     Dimension = "hate_speech"
	DimensionHarassment     Dimension = "harassment"
	DimensionSpam           Dimension = "spam"
	DimensionViolence       Dimension = "violence"
	DimensionMisinformation Dimension = "misinformation"
	DimensionCultural       Dimension = "cultural_sensitivity"
	DimensionMedia          Dimension = "media"
)

// Action is the moderation outcome.
type Action string

const (
	ActionApprove       Action = "approve"
	ActionFlagForReview Action = "flag_for_review"
	ActionReject        Action = "reject"
)

// Level scales analyzer thresholds. Strict lowers thresholds so analyzers
// fire earlier; lenient raises them.
type Level string

const (
	LevelStrict   Level = "strict"
	LevelStandard Level = "standard"
	LevelLenient  Level = "lenient"
)

// thresholdScale returns the multiplier applied to every analyzer threshold.
func (l Level) thresholdScale() float64 {
	switch l {
	case LevelStrict:
		return 0.85
	case LevelLenient:
		return 1.15
	default:
		return 1.0
	}
}

// ParseLevel maps a string to a Level, defaulting to standard.
func ParseLevel(s string) Level {
	switch Level(s) {
	case LevelStrict, LevelLenient:
		return Level(s)
	default:
		return LevelStandard
	}
}

// Content is the unit submitted for moderation.
type Content struct {
	ID        string   `json:"id" validate:"required,max=128"`
	Text      string   `json:"text" validate:"required,max=20000"`
	Title     string   `json:"title,omitempty" validate:"max=500"`
	AuthorID  string   `json:"author_id,omitempty" validate:"max=128"`
	MediaRefs []string `json:"media_refs,omitempty" validate:"max=20"`
}

// AnalyzerResult is one analyzer's verdict on a piece of content.
type AnalyzerResult struct {
	Dimension  Dimension `json:"dimension"`
	Score      float64   `json:"score"`
	Confidence float64   `json:"confidence"`

	// AboveThreshold reports whether the score exceeded the analyzer's
	// (level-scaled) threshold.
	AboveThreshold bool `json:"above_threshold"`

	// Details lists the matched terms or signals behind the score.
	Details []string `json:"details,omitempty"`

	// RequiresImmediateAction marks a severe violation (violence only).
	RequiresImmediateAction bool `json:"requires_immediate_action,omitempty"`

	// RequiresLocalReview marks content needing a culturally informed
	// reviewer (cultural sensitivity only).
	RequiresLocalReview bool `json:"requires_local_review,omitempty"`

	// RequiresHumanReview marks media a human must inspect (media only).
	RequiresHumanReview bool `json:"requires_human_review,omitempty"`
}

// Decision is the engine's final verdict. It is derived deterministically
// from the analyzer results and never mutated after creation.
type Decision struct {
	ContentID string `json:"content_id"`
	Action    Action `json:"action"`

	// Confidence is the firing analyzer's confidence, or 1.0 when no rule
	// fired. It is deliberately not an ensemble average.
	Confidence float64 `json:"confidence"`

	// OverallScore is the arithmetic mean of all analyzer scores,
	// computed regardless of which rule fired.
	OverallScore float64 `json:"overall_score"`

	Flags              []string  `json:"flags,omitempty"`
	Reason             string    `json:"reason,omitempty"`
	EscalationRequired bool      `json:"escalation_required"`
	Level              Level     `json:"level"`
	Results            []AnalyzerResult `json:"results,omitempty"`
	DecidedAt          time.Time `json:"decided_at"`
}

// Analyzer scores content on one moderation dimension.
type Analyzer interface {
	// Dimension identifies the analyzer.
	Dimension() Dimension

	// Analyze scores the content. scale multiplies the analyzer's base
	// threshold per the requested moderation level.
	Analyze(ctx context.Context, content *Content, scale float64) (AnalyzerResult, error)
}
