// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

package moderation

import "context"

const (
	violenceThreshold = 0.75

	// violenceImmediateScore marks a concrete directed threat. It sits
	// above the fixed 0.9 immediate-action cutoff regardless of level.
	violenceImmediateScore  = 0.95
	violenceImmediateCutoff = 0.9
)

// ViolenceAnalyzer scores violent language. Concrete directed threats get
// a pinned high score so they trigger immediate action independent of the
// configured moderation level.
type ViolenceAnalyzer struct {
	BaseAnalyzer
}

var _ Analyzer = (*ViolenceAnalyzer)(nil)

// NewViolenceAnalyzer creates the violence analyzer.
func NewViolenceAnalyzer() *ViolenceAnalyzer {
	return &ViolenceAnalyzer{newBaseAnalyzer(DimensionViolence, violenceThreshold)}
}

// Analyze scores the content text against the violence lexicon.
func (a *ViolenceAnalyzer) Analyze(_ context.Context, content *Content, scale float64) (AnalyzerResult, error) {
	text := content.Text + " " + content.Title
	score, matched := matchTerms(text, violenceTerms, 0.4)

	immediateScore, immediateMatched := matchTerms(text, violenceImmediateTerms, 1.0)
	if immediateScore > 0 {
		if score < violenceImmediateScore {
			score = violenceImmediateScore
		}
		matched = append(matched, immediateMatched...)
	}

	res := a.result(score, scale, matched)
	// The immediate-action cutoff is intentionally not level-scaled.
	res.RequiresImmediateAction = res.Score > violenceImmediateCutoff
	return res, nil
}
