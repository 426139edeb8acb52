// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

package moderation

import "context"

const harassmentThreshold = 0.65

// HarassmentAnalyzer scores targeted intimidation and doxxing attempts.
type HarassmentAnalyzer struct {
	BaseAnalyzer
}

var _ Analyzer = (*HarassmentAnalyzer)(nil)

// NewHarassmentAnalyzer creates the harassment analyzer.
func NewHarassmentAnalyzer() *HarassmentAnalyzer {
	return &HarassmentAnalyzer{newBaseAnalyzer(DimensionHarassment, harassmentThreshold)}
}

// Analyze scores the content text against the harassment lexicon.
func (a *HarassmentAnalyzer) Analyze(_ context.Context, content *Content, scale float64) (AnalyzerResult, error) {
	score, matched := matchTerms(content.Text+" "+content.Title, harassmentTerms, 0.35)
	return a.result(score, scale, matched), nil
}
