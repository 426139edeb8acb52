// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

package moderation

import (
	"context"
	"strings"
)

const spamThreshold = 0.8

// SpamAnalyzer scores promotional bait and scam patterns. Beyond the term
// lexicon it considers structural signals: link density and shouting.
type SpamAnalyzer struct {
	BaseAnalyzer
}

var _ Analyzer = (*SpamAnalyzer)(nil)

// NewSpamAnalyzer creates the spam analyzer.
func NewSpamAnalyzer() *SpamAnalyzer {
	return &SpamAnalyzer{newBaseAnalyzer(DimensionSpam, spamThreshold)}
}

// Analyze scores the content against the spam lexicon and structure signals.
func (a *SpamAnalyzer) Analyze(_ context.Context, content *Content, scale float64) (AnalyzerResult, error) {
	score, matched := matchTerms(content.Text+" "+content.Title, spamTerms, 0.25)

	if n := strings.Count(strings.ToLower(content.Text), "http"); n >= 3 {
		score += 0.3
		matched = append(matched, "excessive_links")
	}
	if isShouting(content.Text) {
		score += 0.2
		matched = append(matched, "all_caps")
	}

	return a.result(score, scale, matched), nil
}

// isShouting reports whether the text is mostly uppercase letters.
func isShouting(text string) bool {
	var letters, upper int
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z':
			letters++
		case r >= 'A' && r <= 'Z':
			letters++
			upper++
		}
	}
	return letters >= 20 && float64(upper)/float64(letters) > 0.8
}
