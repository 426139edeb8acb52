// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

// Package abtest assigns users to experiment variants and aggregates
// per-variant metrics.
//
// The one-assignment invariant: exactly one variant per (testName, userID)
// for the lifetime of the experiment. Concurrent first assignments are
// resolved through a conditional store write; the loser re-reads the
// winner's assignment instead of re-rolling.
package abtest

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/dhalvorsen/feedwise/internal/cache"
	"github.com/dhalvorsen/feedwise/internal/logging"
	"github.com/dhalvorsen/feedwise/internal/metrics"
	"github.com/dhalvorsen/feedwise/internal/store"
)

// Assignment binds a user to an experiment variant. Immutable once written.
type Assignment struct {
	TestName   string    `json:"test_name"`
	UserID     string    `json:"user_id"`
	Variant    string    `json:"variant"`
	AssignedAt time.Time `json:"assigned_at"`
}

// VariantMetrics aggregates one variant's counters.
type VariantMetrics struct {
	Variant        string  `json:"variant"`
	Impressions    uint64  `json:"impressions"`
	Conversions    uint64  `json:"conversions"`
	ConversionRate float64 `json:"conversion_rate"`
}

// Store is the persistence surface the tracker needs. The Badger store
// satisfies it.
type Store interface {
	// CreateAssignment conditionally writes a first assignment and
	// returns store.ErrConflict when one already exists.
	CreateAssignment(ctx context.Context, testName, userID string, value []byte) error
	GetAssignment(ctx context.Context, testName, userID string) ([]byte, error)
	IncrCounter(ctx context.Context, testName, variant, metric string) (uint64, error)
	GetCounter(ctx context.Context, testName, variant, metric string) (uint64, error)
}

// Tracker implements variant assignment and metric aggregation.
type Tracker struct {
	store    Store
	cache    *cache.Cache
	cacheTTL time.Duration
	logger   zerolog.Logger

	// pick is replaceable in tests for deterministic assignment.
	pick func(n int) int
}

// NewTracker creates a tracker. c may be nil.
func NewTracker(s Store, c *cache.Cache, cacheTTL time.Duration) *Tracker {
	return &Tracker{
		store:    s,
		cache:    c,
		cacheTTL: cacheTTL,
		logger:   logging.With().Str("component", "abtest").Logger(),
		pick:     rand.IntN,
	}
}

// GetOrAssignVariant returns the user's variant for the test, assigning
// one uniformly at random on first call. Subsequent calls always return
// the persisted assignment.
func (t *Tracker) GetOrAssignVariant(ctx context.Context, testName, userID string, variants []string) (*Assignment, error) {
	if testName == "" || userID == "" {
		return nil, fmt.Errorf("abtest: test name and user id are required")
	}
	if len(variants) == 0 {
		return nil, fmt.Errorf("abtest: at least one variant is required")
	}

	cacheKey := "assign:" + testName + ":" + userID
	if t.cache != nil {
		if cached, ok := t.cache.Get(cache.PartitionUserData, cacheKey); ok {
			if a, ok := cached.(*Assignment); ok {
				return a, nil
			}
		}
	}

	// Fast path: assignment already persisted.
	if a, err := t.readAssignment(ctx, testName, userID); err == nil {
		t.cacheAssignment(cacheKey, a, userID)
		return a, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	// First call: roll a variant and write conditionally. Losing the race
	// means another request assigned concurrently; read the winner back.
	candidate := &Assignment{
		TestName:   testName,
		UserID:     userID,
		Variant:    variants[t.pick(len(variants))],
		AssignedAt: time.Now().UTC(),
	}
	raw, err := json.Marshal(candidate)
	if err != nil {
		return nil, fmt.Errorf("abtest: marshal assignment: %w", err)
	}

	switch err := t.store.CreateAssignment(ctx, testName, userID, raw); {
	case err == nil:
		metrics.ABAssignmentsTotal.WithLabelValues(testName, candidate.Variant).Inc()
		t.logger.Debug().Str("test", testName).Str("user_id", userID).
			Str("variant", candidate.Variant).Msg("assigned experiment variant")
		t.cacheAssignment(cacheKey, candidate, userID)
		return candidate, nil
	case errors.Is(err, store.ErrConflict):
		a, err := t.readAssignment(ctx, testName, userID)
		if err != nil {
			return nil, fmt.Errorf("abtest: re-read after conflict: %w", err)
		}
		t.cacheAssignment(cacheKey, a, userID)
		return a, nil
	default:
		return nil, fmt.Errorf("abtest: persist assignment: %w", err)
	}
}

// RecordImpression increments the variant's impression counter.
func (t *Tracker) RecordImpression(ctx context.Context, testName, variant string) error {
	if _, err := t.store.IncrCounter(ctx, testName, variant, "impressions"); err != nil {
		return fmt.Errorf("abtest: record impression: %w", err)
	}
	metrics.ABImpressionsTotal.WithLabelValues(testName, variant).Inc()
	return nil
}

// RecordConversion increments the variant's conversion counter.
func (t *Tracker) RecordConversion(ctx context.Context, testName, variant string) error {
	if _, err := t.store.IncrCounter(ctx, testName, variant, "conversions"); err != nil {
		return fmt.Errorf("abtest: record conversion: %w", err)
	}
	metrics.ABConversionsTotal.WithLabelValues(testName, variant).Inc()
	return nil
}

// Metrics aggregates counters for the named variants of a test.
func (t *Tracker) Metrics(ctx context.Context, testName string, variants []string) ([]VariantMetrics, error) {
	out := make([]VariantMetrics, 0, len(variants))
	for _, variant := range variants {
		impressions, err := t.store.GetCounter(ctx, testName, variant, "impressions")
		if err != nil {
			return nil, fmt.Errorf("abtest: read impressions: %w", err)
		}
		conversions, err := t.store.GetCounter(ctx, testName, variant, "conversions")
		if err != nil {
			return nil, fmt.Errorf("abtest: read conversions: %w", err)
		}

		m := VariantMetrics{
			Variant:     variant,
			Impressions: impressions,
			Conversions: conversions,
		}
		if impressions > 0 {
			m.ConversionRate = float64(conversions) / float64(impressions)
		}
		out = append(out, m)
	}
	return out, nil
}

// readAssignment loads and decodes a persisted assignment.
func (t *Tracker) readAssignment(ctx context.Context, testName, userID string) (*Assignment, error) {
	raw, err := t.store.GetAssignment(ctx, testName, userID)
	if err != nil {
		return nil, err
	}
	a := &Assignment{}
	if err := json.Unmarshal(raw, a); err != nil {
		return nil, fmt.Errorf("abtest: decode assignment: %w", err)
	}
	return a, nil
}

// cacheAssignment stores the assignment in the user-data partition.
func (t *Tracker) cacheAssignment(key string, a *Assignment, userID string) {
	if t.cache != nil && t.cacheTTL > 0 {
		t.cache.Set(cache.PartitionUserData, key, a, t.cacheTTL, cache.UserTag(userID))
	}
}
