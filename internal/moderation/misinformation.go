// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

package moderation

import "context"

const misinformationThreshold = 0.7

// MisinformationAnalyzer scores health and civic misinformation patterns.
type MisinformationAnalyzer struct {
	BaseAnalyzer
}

var _ Analyzer = (*MisinformationAnalyzer)(nil)

// NewMisinformationAnalyzer creates the misinformation analyzer.
func NewMisinformationAnalyzer() *MisinformationAnalyzer {
	return &MisinformationAnalyzer{newBaseAnalyzer(DimensionMisinformation, misinformationThreshold)}
}

// Analyze scores the content text against the misinformation lexicon.
func (a *MisinformationAnalyzer) Analyze(_ context.Context, content *Content, scale float64) (AnalyzerResult, error) {
	score, matched := matchTerms(content.Text+" "+content.Title, misinformationTerms, 0.4)
	return a.result(score, scale, matched), nil
}
