// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

package moderation

import (
	"context"
	"strings"
)

const mediaThreshold = 0.5

// MediaAnalyzer inspects attached media references. Without a vision
// backend it scores on reference metadata only; suspicious attachments are
// routed to a human reviewer rather than scored conclusively.
type MediaAnalyzer struct {
	BaseAnalyzer
}

var _ Analyzer = (*MediaAnalyzer)(nil)

// NewMediaAnalyzer creates the media analyzer.
func NewMediaAnalyzer() *MediaAnalyzer {
	return &MediaAnalyzer{newBaseAnalyzer(DimensionMedia, mediaThreshold)}
}

// Analyze scores media references against suspicious patterns.
func (a *MediaAnalyzer) Analyze(_ context.Context, content *Content, scale float64) (AnalyzerResult, error) {
	var (
		score   float64
		matched []string
	)
	for _, ref := range content.MediaRefs {
		lowered := strings.ToLower(ref)
		for _, pattern := range suspiciousMediaPatterns {
			if strings.Contains(lowered, pattern) {
				score += 0.5
				matched = append(matched, pattern)
			}
		}
	}

	res := a.result(score, scale, matched)
	res.RequiresHumanReview = len(matched) > 0
	return res, nil
}
