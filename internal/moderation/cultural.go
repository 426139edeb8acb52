// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

package moderation

import "context"

const culturalThreshold = 0.7

// CulturalAnalyzer scores ethnic and cultural stereotyping. Content above
// threshold is routed to a reviewer with local context rather than
// rejected outright, since these judgments need cultural knowledge an
// automated lexicon lacks.
type CulturalAnalyzer struct {
	BaseAnalyzer
}

var _ Analyzer = (*CulturalAnalyzer)(nil)

// NewCulturalAnalyzer creates the cultural sensitivity analyzer.
func NewCulturalAnalyzer() *CulturalAnalyzer {
	return &CulturalAnalyzer{newBaseAnalyzer(DimensionCultural, culturalThreshold)}
}

// Analyze scores the content text against the cultural stereotype lexicon.
func (a *CulturalAnalyzer) Analyze(_ context.Context, content *Content, scale float64) (AnalyzerResult, error) {
	score, matched := matchTerms(content.Text+" "+content.Title, culturalTerms, 0.4)

	res := a.result(score, scale, matched)
	res.RequiresLocalReview = res.Score > culturalThreshold*scale
	return res, nil
}
