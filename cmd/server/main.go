// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

// Command server runs the Feedwise ranking and moderation API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dhalvorsen/feedwise/internal/abtest"
	"github.com/dhalvorsen/feedwise/internal/api"
	"github.com/dhalvorsen/feedwise/internal/cache"
	"github.com/dhalvorsen/feedwise/internal/config"
	"github.com/dhalvorsen/feedwise/internal/feed"
	"github.com/dhalvorsen/feedwise/internal/logging"
	"github.com/dhalvorsen/feedwise/internal/moderation"
	"github.com/dhalvorsen/feedwise/internal/store"
	"github.com/dhalvorsen/feedwise/internal/supervisor"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().Str("version", version).Int("port", cfg.Server.Port).
		Str("environment", cfg.Server.Environment).Msg("starting feedwise")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Persistent store for experiment assignments, counters and audit logs.
	badger, err := store.OpenBadger(store.BadgerOptions{
		Path:       cfg.Store.Path,
		InMemory:   cfg.Store.InMemory,
		GCInterval: cfg.Store.GCInterval,
	})
	if err != nil {
		return fmt.Errorf("open badger store: %w", err)
	}
	defer func() {
		if err := badger.Close(); err != nil {
			logging.Warn().Err(err).Msg("failed to close badger store")
		}
	}()

	mem := store.NewMemory()
	if cfg.Store.SeedMockData {
		if err := store.SeedMockData(ctx, mem, time.Now().UTC()); err != nil {
			return fmt.Errorf("seed mock data: %w", err)
		}
		logging.Info().Msg("seeded mock data")
	}

	c := cache.New(
		cache.WithMaxEntries(cfg.Cache.MaxEntriesPerPartition),
		cache.WithCleanupInterval(cfg.Cache.CleanupInterval),
	)

	profiles := feed.NewProfileBuilder(mem, c, cfg.Feed.ProfileCacheTTL)
	engine := feed.NewEngine(mem, profiles, c, feed.Options{
		DefaultLimit:       cfg.Feed.DefaultLimit,
		MaxLimit:           cfg.Feed.MaxLimit,
		MaxCandidates:      cfg.Feed.MaxCandidates,
		CandidateWindow:    cfg.Feed.CandidateWindow,
		FeedCacheTTL:       cfg.Feed.FeedCacheTTL,
		BreakerMaxFailures: cfg.Store.BreakerMaxFailures,
		BreakerTimeout:     cfg.Store.BreakerTimeout,
	})
	trending := feed.NewTrendingDetector(mem, c, cfg.Trending.CacheTTL, cfg.Trending.MaxPosts)
	refresher := feed.NewTrendingRefresher(trending,
		cfg.Trending.RefreshInterval, cfg.Trending.WindowHours, cfg.Trending.TopN)

	modEngine := moderation.NewEngine(c, badger, moderation.EngineOptions{
		Level:           moderation.ParseLevel(cfg.Moderation.Level),
		AnalyzerTimeout: cfg.Moderation.AnalyzerTimeout,
		CacheTTL:        cfg.Moderation.CacheTTL,
	})
	tracker := abtest.NewTracker(badger, c, cfg.ABTest.AssignmentCacheTTL)

	handlers := &api.Handlers{
		Feed:                engine,
		Profiles:            profiles,
		Trending:            trending,
		Predictor:           feed.NewEngagementPredictor(),
		Moderation:          modEngine,
		Tracker:             tracker,
		Provider:            mem,
		Cache:               c,
		TrendingWindowHours: cfg.Trending.WindowHours,
		TrendingTopN:        cfg.Trending.TopN,
		Version:             version,
	}
	router := api.NewRouter(handlers, api.RouterConfig{
		CORSOrigins:     cfg.API.CORSOrigins,
		RateLimitReqs:   cfg.API.RateLimitReqs,
		RateLimitWindow: cfg.API.RateLimitWindow,
		RequestTimeout:  cfg.API.RequestTimeout,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddBackgroundService(c)
	tree.AddBackgroundService(badger)
	tree.AddBackgroundService(refresher)
	tree.AddAPIService(supervisor.NewHTTPServer(httpServer, cfg.Server.ShutdownTimeout))

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor: %w", err)
	}

	if unstopped, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("service did not stop in time")
		}
	}

	logging.Info().Msg("shutdown complete")
	return nil
}
