// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

// Package config defines the application configuration and loads it from
// layered sources (defaults, YAML file, environment variables) using Koanf v2.
package config

import (
	"fmt"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Store      StoreConfig      `koanf:"store"`
	Cache      CacheConfig      `koanf:"cache"`
	Feed       FeedConfig       `koanf:"feed"`
	Trending   TrendingConfig   `koanf:"trending"`
	Moderation ModerationConfig `koanf:"moderation"`
	ABTest     ABTestConfig     `koanf:"abtest"`
	API        APIConfig        `koanf:"api"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// StoreConfig configures persistent storage.
type StoreConfig struct {
	// Path is the Badger database directory for A/B assignments,
	// counters and decision logs.
	Path string `koanf:"path"`

	// InMemory runs Badger without disk persistence. Used in tests.
	InMemory bool `koanf:"in_memory"`

	// GCInterval is how often the Badger value log garbage collector runs.
	GCInterval time.Duration `koanf:"gc_interval"`

	// SeedMockData loads demonstration users, posts and interactions
	// into the content store on startup.
	SeedMockData bool `koanf:"seed_mock_data"`

	// BreakerMaxFailures opens the store circuit breaker after this many
	// consecutive read failures on the ranking path.
	BreakerMaxFailures uint32 `koanf:"breaker_max_failures"`

	// BreakerTimeout is how long the breaker stays open before probing.
	BreakerTimeout time.Duration `koanf:"breaker_timeout"`
}

// CacheConfig configures the in-memory cache.
type CacheConfig struct {
	// CleanupInterval is how often expired entries are swept.
	CleanupInterval time.Duration `koanf:"cleanup_interval"`

	// MaxEntriesPerPartition caps entries per partition. 0 disables the cap.
	MaxEntriesPerPartition int `koanf:"max_entries_per_partition"`
}

// FeedConfig configures the ranking engine.
type FeedConfig struct {
	// DefaultLimit is the feed size when the request does not specify one.
	DefaultLimit int `koanf:"default_limit"`

	// MaxLimit caps the requested feed size.
	MaxLimit int `koanf:"max_limit"`

	// MaxCandidates caps how many recent posts are scored per request.
	MaxCandidates int `koanf:"max_candidates"`

	// CandidateWindow restricts candidates to posts newer than this.
	CandidateWindow time.Duration `koanf:"candidate_window"`

	// ProfileCacheTTL is how long behavior profiles stay cached.
	ProfileCacheTTL time.Duration `koanf:"profile_cache_ttl"`

	// FeedCacheTTL is how long ranked feeds stay cached.
	FeedCacheTTL time.Duration `koanf:"feed_cache_ttl"`
}

// TrendingConfig configures trending topic detection.
type TrendingConfig struct {
	// WindowHours is the detection window in hours.
	WindowHours int `koanf:"window_hours"`

	// TopN is how many topics to return.
	TopN int `koanf:"top_n"`

	// RefreshInterval is how often the background precompute loop runs.
	// 0 disables the loop; trending is then computed on demand.
	RefreshInterval time.Duration `koanf:"refresh_interval"`

	// CacheTTL is how long trending results stay cached.
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// MaxPosts caps how many recent posts the detector scans.
	MaxPosts int `koanf:"max_posts"`
}

// ModerationConfig configures the moderation ensemble.
type ModerationConfig struct {
	// Level selects threshold scaling: strict, standard or lenient.
	Level string `koanf:"level"`

	// AnalyzerTimeout bounds each analyzer invocation.
	AnalyzerTimeout time.Duration `koanf:"analyzer_timeout"`

	// CacheTTL is how long moderation decisions stay cached.
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

// ABTestConfig configures the experimentation tracker.
type ABTestConfig struct {
	// AssignmentCacheTTL is how long variant assignments stay cached.
	AssignmentCacheTTL time.Duration `koanf:"assignment_cache_ttl"`
}

// APIConfig configures API behavior.
type APIConfig struct {
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
}

// defaultConfig returns a Config with all defaults applied.
// These are overridden by the config file, then by environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8460,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			Environment:     "development",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Store: StoreConfig{
			Path:               "/data/feedwise",
			InMemory:           false,
			GCInterval:         10 * time.Minute,
			SeedMockData:       false,
			BreakerMaxFailures: 5,
			BreakerTimeout:     30 * time.Second,
		},
		Cache: CacheConfig{
			CleanupInterval:        time.Minute,
			MaxEntriesPerPartition: 0,
		},
		Feed: FeedConfig{
			DefaultLimit:    20,
			MaxLimit:        100,
			MaxCandidates:   500,
			CandidateWindow: 7 * 24 * time.Hour,
			ProfileCacheTTL: time.Hour,
			FeedCacheTTL:    15 * time.Minute,
		},
		Trending: TrendingConfig{
			WindowHours:     24,
			TopN:            10,
			RefreshInterval: 10 * time.Minute,
			CacheTTL:        30 * time.Minute,
			MaxPosts:        500,
		},
		Moderation: ModerationConfig{
			Level:           "standard",
			AnalyzerTimeout: 2 * time.Second,
			CacheTTL:        time.Hour,
		},
		ABTest: ABTestConfig{
			AssignmentCacheTTL: 24 * time.Hour,
		},
		API: APIConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			RequestTimeout:  30 * time.Second,
		},
	}
}

// Validate checks the configuration for invalid combinations.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Feed.DefaultLimit < 1 {
		return fmt.Errorf("feed.default_limit must be positive, got %d", c.Feed.DefaultLimit)
	}
	if c.Feed.MaxLimit < c.Feed.DefaultLimit {
		return fmt.Errorf("feed.max_limit (%d) must be >= feed.default_limit (%d)",
			c.Feed.MaxLimit, c.Feed.DefaultLimit)
	}
	if c.Feed.MaxCandidates < 1 {
		return fmt.Errorf("feed.max_candidates must be positive, got %d", c.Feed.MaxCandidates)
	}
	if c.Trending.WindowHours < 1 {
		return fmt.Errorf("trending.window_hours must be positive, got %d", c.Trending.WindowHours)
	}
	if c.Trending.TopN < 1 {
		return fmt.Errorf("trending.top_n must be positive, got %d", c.Trending.TopN)
	}
	switch c.Moderation.Level {
	case "strict", "standard", "lenient":
	default:
		return fmt.Errorf("moderation.level must be strict, standard or lenient, got %q",
			c.Moderation.Level)
	}
	if c.Moderation.AnalyzerTimeout <= 0 {
		return fmt.Errorf("moderation.analyzer_timeout must be positive, got %s",
			c.Moderation.AnalyzerTimeout)
	}
	if !c.Store.InMemory && c.Store.Path == "" {
		return fmt.Errorf("store.path is required when store.in_memory is false")
	}
	return nil
}
