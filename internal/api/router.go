// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

// Package api exposes the engine over HTTP: personalized feeds, trending
// topics, engagement prediction, moderation checks and A/B experiment
// operations.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dhalvorsen/feedwise/internal/abtest"
	"github.com/dhalvorsen/feedwise/internal/cache"
	"github.com/dhalvorsen/feedwise/internal/feed"
	"github.com/dhalvorsen/feedwise/internal/moderation"
)

// RouterConfig configures the HTTP surface.
type RouterConfig struct {
	CORSOrigins     []string
	RateLimitReqs   int
	RateLimitWindow time.Duration
	RequestTimeout  time.Duration
}

// Handlers carries the engine dependencies the routes need.
type Handlers struct {
	Feed       *feed.Engine
	Profiles   *feed.ProfileBuilder
	Trending   *feed.TrendingDetector
	Predictor  *feed.EngagementPredictor
	Moderation *moderation.Engine
	Tracker    *abtest.Tracker
	Provider   feed.DataProvider
	Cache      *cache.Cache

	// TrendingDefaults are applied when the request omits parameters.
	TrendingWindowHours int
	TrendingTopN        int

	// Version is reported by the status endpoint.
	Version string
}

// NewRouter builds the chi router with middleware and all routes mounted.
func NewRouter(h *Handlers, cfg RouterConfig) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	// Operational endpoints stay outside the rate limit.
	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimitReqs > 0 {
			r.Use(httprate.LimitByIP(cfg.RateLimitReqs, cfg.RateLimitWindow))
		}

		r.Get("/status", h.handleStatus)

		r.Get("/feed/{userID}", h.handleFeed)
		r.Get("/trending", h.handleTrending)
		r.Post("/engagement/predict", h.handlePredictEngagement)
		r.Post("/moderation/check", h.handleModerationCheck)

		r.Route("/abtest/{testName}", func(r chi.Router) {
			r.Post("/rank", h.handleABRank)
			r.Post("/impression", h.handleABImpression)
			r.Post("/conversion", h.handleABConversion)
			r.Get("/metrics", h.handleABMetrics)
		})
	})

	return r
}
