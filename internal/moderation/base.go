// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

package moderation

import (
	"strings"
)

// BaseAnalyzer carries the fields and helpers every lexicon analyzer
// shares: a dimension, a base threshold and term matching.
type BaseAnalyzer struct {
	dimension Dimension
	threshold float64
}

// newBaseAnalyzer creates the embedded base.
func newBaseAnalyzer(dimension Dimension, threshold float64) BaseAnalyzer {
	return BaseAnalyzer{dimension: dimension, threshold: threshold}
}

// Dimension identifies the analyzer.
func (b *BaseAnalyzer) Dimension() Dimension {
	return b.dimension
}

// result assembles an AnalyzerResult, applying the level scale to the
// base threshold and deriving confidence from match count.
func (b *BaseAnalyzer) result(score float64, scale float64, details []string) AnalyzerResult {
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}

	threshold := b.threshold * scale

	// Confidence grows with corroborating matches; a single weak match is
	// less trustworthy than several.
	confidence := 0.6 + 0.1*float64(len(details))
	if len(details) == 0 {
		confidence = 0.9 // confident there is nothing to find
	}
	if confidence > 1 {
		confidence = 1
	}

	return AnalyzerResult{
		Dimension:      b.dimension,
		Score:          score,
		Confidence:     confidence,
		AboveThreshold: score > threshold,
		Details:        details,
	}
}

// matchTerms scans lowercased text for each term and returns the matches
// and a score: weight per distinct matched term, capped at 1.0.
func matchTerms(text string, terms []string, weight float64) (float64, []string) {
	lowered := strings.ToLower(text)

	var matched []string
	for _, term := range terms {
		if strings.Contains(lowered, term) {
			matched = append(matched, term)
		}
	}

	score := weight * float64(len(matched))
	if score > 1 {
		score = 1
	}
	return score, matched
}
