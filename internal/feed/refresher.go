// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

package feed

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/dhalvorsen/feedwise/internal/logging"
)

// TrendingRefresher periodically recomputes the global trending window so
// API reads hit warm cache. It implements suture.Service.
type TrendingRefresher struct {
	detector *TrendingDetector
	interval time.Duration
	window   int
	topN     int
}

// NewTrendingRefresher creates a refresher. interval <= 0 disables the
// loop; Serve then blocks until ctx is canceled.
func NewTrendingRefresher(detector *TrendingDetector, interval time.Duration, windowHours, topN int) *TrendingRefresher {
	return &TrendingRefresher{
		detector: detector,
		interval: interval,
		window:   windowHours,
		topN:     topN,
	}
}

// Serve runs the precompute loop until ctx is canceled.
func (r *TrendingRefresher) Serve(ctx context.Context) error {
	logger := logging.With().Str("component", "trending_refresher").Logger()

	if r.interval <= 0 {
		logger.Info().Msg("trending precompute disabled, computing on demand")
		<-ctx.Done()
		return ctx.Err()
	}

	logger.Info().Dur("interval", r.interval).Int("window_hours", r.window).
		Msg("trending precompute loop started")

	// Warm the cache immediately instead of waiting a full interval.
	r.refresh(ctx, logger)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.refresh(ctx, logger)
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (r *TrendingRefresher) String() string { return "trending-refresher" }

func (r *TrendingRefresher) refresh(ctx context.Context, logger zerolog.Logger) {
	topics := r.detector.Detect(ctx, TrendingOptions{
		WindowHours: r.window,
		Limit:       r.topN,
	})
	logger.Debug().Int("topics", len(topics)).Msg("trending window refreshed")
}
