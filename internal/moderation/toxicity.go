// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

package moderation

import "context"

// toxicityThreshold routes content to review when exceeded.
const toxicityThreshold = 0.7

// ToxicityAnalyzer scores insulting or demeaning language.
type ToxicityAnalyzer struct {
	BaseAnalyzer
}

var _ Analyzer = (*ToxicityAnalyzer)(nil)

// NewToxicityAnalyzer creates the toxicity analyzer.
func NewToxicityAnalyzer() *ToxicityAnalyzer {
	return &ToxicityAnalyzer{newBaseAnalyzer(DimensionToxicity, toxicityThreshold)}
}

// Analyze scores the content text against the toxicity lexicon.
func (a *ToxicityAnalyzer) Analyze(_ context.Context, content *Content, scale float64) (AnalyzerResult, error) {
	score, matched := matchTerms(content.Text+" "+content.Title, toxicityTerms, 0.3)
	return a.result(score, scale, matched), nil
}
