// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults pass",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "port zero",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: true,
		},
		{
			name:    "max limit below default limit",
			mutate:  func(c *Config) { c.Feed.MaxLimit = 5 },
			wantErr: true,
		},
		{
			name:    "unknown moderation level",
			mutate:  func(c *Config) { c.Moderation.Level = "draconian" },
			wantErr: true,
		},
		{
			name:    "lenient moderation level",
			mutate:  func(c *Config) { c.Moderation.Level = "lenient" },
			wantErr: false,
		},
		{
			name: "missing store path",
			mutate: func(c *Config) {
				c.Store.Path = ""
				c.Store.InMemory = false
			},
			wantErr: true,
		},
		{
			name: "in-memory store needs no path",
			mutate: func(c *Config) {
				c.Store.Path = ""
				c.Store.InMemory = true
			},
			wantErr: false,
		},
		{
			name:    "zero trending window",
			mutate:  func(c *Config) { c.Trending.WindowHours = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"FEEDWISE_SERVER_PORT", "server.port"},
		{"FEEDWISE_MODERATION_LEVEL", "moderation.level"},
		{"FEEDWISE_FEED_DEFAULT_LIMIT", "feed.default_limit"},
		{"FEEDWISE_TRENDING_WINDOW_HOURS", "trending.window_hours"},
		{"HTTP_PORT", "server.port"},
		{"LOG_LEVEL", "logging.level"},
		{"MODERATION_LEVEL", "moderation.level"},
		{"PATH", ""},
		{"SOME_RANDOM_VAR", ""},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			if got := envTransformFunc(tt.env); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
			}
		})
	}
}

func TestLoadWithFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9001
moderation:
  level: strict
store:
  in_memory: true
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("FEEDWISE_SERVER_PORT", "9002")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Env overrides file
	if cfg.Server.Port != 9002 {
		t.Errorf("port = %d, want 9002 (env override)", cfg.Server.Port)
	}
	// File overrides defaults
	if cfg.Moderation.Level != "strict" {
		t.Errorf("moderation level = %q, want strict", cfg.Moderation.Level)
	}
	// Defaults survive where unset
	if cfg.Feed.DefaultLimit != 20 {
		t.Errorf("feed default limit = %d, want 20", cfg.Feed.DefaultLimit)
	}
}

func TestLoadCORSOriginsFromEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("store:\n  in_memory: true\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if len(cfg.API.CORSOrigins) != 2 || cfg.API.CORSOrigins[0] != "https://a.example" {
		t.Errorf("cors origins = %v, want two trimmed entries", cfg.API.CORSOrigins)
	}
}
