// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

package moderation

import "context"

// hateSpeechThreshold is deliberately the lowest text threshold: hate
// speech rejects at lower certainty than general toxicity.
const hateSpeechThreshold = 0.6

// HateSpeechAnalyzer scores dehumanizing language targeting groups.
type HateSpeechAnalyzer struct {
	BaseAnalyzer
}

var _ Analyzer = (*HateSpeechAnalyzer)(nil)

// NewHateSpeechAnalyzer creates the hate speech analyzer.
func NewHateSpeechAnalyzer() *HateSpeechAnalyzer {
	return &HateSpeechAnalyzer{newBaseAnalyzer(DimensionHateSpeech, hateSpeechThreshold)}
}

// Analyze scores the content text against the hate speech lexicon.
func (a *HateSpeechAnalyzer) Analyze(_ context.Context, content *Content, scale float64) (AnalyzerResult, error) {
	score, matched := matchTerms(content.Text+" "+content.Title, hateSpeechTerms, 0.35)
	return a.result(score, scale, matched), nil
}
