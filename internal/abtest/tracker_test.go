// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

package abtest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dhalvorsen/feedwise/internal/cache"
	"github.com/dhalvorsen/feedwise/internal/store"
)

// memStore is an in-memory Store with conditional-write semantics.
type memStore struct {
	mu          sync.Mutex
	assignments map[string][]byte
	counters    map[string]uint64
}

func newMemStore() *memStore {
	return &memStore{
		assignments: make(map[string][]byte),
		counters:    make(map[string]uint64),
	}
}

func (m *memStore) CreateAssignment(_ context.Context, testName, userID string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := testName + ":" + userID
	if _, exists := m.assignments[key]; exists {
		return store.ErrConflict
	}
	m.assignments[key] = value
	return nil
}

func (m *memStore) GetAssignment(_ context.Context, testName, userID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.assignments[testName+":"+userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return raw, nil
}

func (m *memStore) IncrCounter(_ context.Context, testName, variant, metric string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := testName + ":" + variant + ":" + metric
	m.counters[key]++
	return m.counters[key], nil
}

func (m *memStore) GetCounter(_ context.Context, testName, variant, metric string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[testName+":"+variant+":"+metric], nil
}

func TestGetOrAssignVariantIdempotent(t *testing.T) {
	tr := NewTracker(newMemStore(), nil, 0)
	ctx := context.Background()

	first, err := tr.GetOrAssignVariant(ctx, "t1", "u1", []string{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		again, err := tr.GetOrAssignVariant(ctx, "t1", "u1", []string{"a", "b"})
		if err != nil {
			t.Fatal(err)
		}
		if again.Variant != first.Variant {
			t.Fatalf("call %d returned %s, want stable %s", i, again.Variant, first.Variant)
		}
	}
}

func TestGetOrAssignVariantScopedPerTestAndUser(t *testing.T) {
	tr := NewTracker(newMemStore(), nil, 0)
	ctx := context.Background()

	// Force deterministic but distinguishable rolls.
	roll := 0
	tr.pick = func(n int) int {
		roll++
		return roll % n
	}

	a1, _ := tr.GetOrAssignVariant(ctx, "t1", "u1", []string{"a", "b"})
	a2, _ := tr.GetOrAssignVariant(ctx, "t2", "u1", []string{"a", "b"})
	a3, _ := tr.GetOrAssignVariant(ctx, "t1", "u2", []string{"a", "b"})

	if a1.TestName != "t1" || a2.TestName != "t2" {
		t.Error("assignments must be scoped per test")
	}
	if a3.UserID != "u2" {
		t.Error("assignments must be scoped per user")
	}
	// t1/u1 stays stable regardless of later rolls.
	again, _ := tr.GetOrAssignVariant(ctx, "t1", "u1", []string{"a", "b"})
	if again.Variant != a1.Variant {
		t.Errorf("variant = %s, want %s", again.Variant, a1.Variant)
	}
}

// racingStore makes the first GetAssignment miss, so a concurrent writer
// can slip in between the reader's miss and its conditional write.
type racingStore struct {
	*memStore
	missesLeft int
}

func (r *racingStore) GetAssignment(ctx context.Context, testName, userID string) ([]byte, error) {
	if r.missesLeft > 0 {
		r.missesLeft--
		return nil, store.ErrNotFound
	}
	return r.memStore.GetAssignment(ctx, testName, userID)
}

func TestGetOrAssignVariantConflictReadsWinner(t *testing.T) {
	ms := newMemStore()
	ctx := context.Background()

	// The winner persists "control" first.
	winner := NewTracker(ms, nil, 0)
	winner.pick = func(int) int { return 0 }
	w, err := winner.GetOrAssignVariant(ctx, "t1", "u1", []string{"control", "treatment"})
	if err != nil {
		t.Fatal(err)
	}

	// The loser's fast-path read misses (simulated race), it rolls
	// "treatment", loses the conditional write, and must adopt the
	// winner's persisted variant.
	loser := NewTracker(&racingStore{memStore: ms, missesLeft: 1}, nil, 0)
	loser.pick = func(int) int { return 1 }

	l, err := loser.GetOrAssignVariant(ctx, "t1", "u1", []string{"control", "treatment"})
	if err != nil {
		t.Fatal(err)
	}
	if l.Variant != w.Variant {
		t.Errorf("loser got %s, want winner's %s", l.Variant, w.Variant)
	}
	if l.Variant != "control" {
		t.Errorf("variant = %s, want control", l.Variant)
	}
}

func TestGetOrAssignVariantValidation(t *testing.T) {
	tr := NewTracker(newMemStore(), nil, 0)
	ctx := context.Background()

	if _, err := tr.GetOrAssignVariant(ctx, "", "u1", []string{"a"}); err == nil {
		t.Error("expected error for empty test name")
	}
	if _, err := tr.GetOrAssignVariant(ctx, "t1", "", []string{"a"}); err == nil {
		t.Error("expected error for empty user id")
	}
	if _, err := tr.GetOrAssignVariant(ctx, "t1", "u1", nil); err == nil {
		t.Error("expected error for no variants")
	}
}

func TestMetricsAggregation(t *testing.T) {
	tr := NewTracker(newMemStore(), nil, 0)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if err := tr.RecordImpression(ctx, "t1", "control"); err != nil {
			t.Fatal(err)
		}
	}
	if err := tr.RecordConversion(ctx, "t1", "control"); err != nil {
		t.Fatal(err)
	}

	got, err := tr.Metrics(ctx, "t1", []string{"control", "treatment"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d variants, want 2", len(got))
	}

	control := got[0]
	if control.Impressions != 4 || control.Conversions != 1 {
		t.Errorf("control = %d/%d, want 4/1", control.Impressions, control.Conversions)
	}
	if control.ConversionRate != 0.25 {
		t.Errorf("control rate = %v, want 0.25", control.ConversionRate)
	}

	// Zero impressions: rate must be 0, not NaN.
	treatment := got[1]
	if treatment.ConversionRate != 0 {
		t.Errorf("treatment rate = %v, want 0", treatment.ConversionRate)
	}
}

func TestAssignmentCached(t *testing.T) {
	ms := newMemStore()
	c := cache.New()
	tr := NewTracker(ms, c, 24*time.Hour)
	ctx := context.Background()

	first, err := tr.GetOrAssignVariant(ctx, "t1", "u1", []string{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}

	// Wipe the backing store; the cached assignment must still serve.
	ms.mu.Lock()
	ms.assignments = make(map[string][]byte)
	ms.mu.Unlock()

	again, err := tr.GetOrAssignVariant(ctx, "t1", "u1", []string{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	if again.Variant != first.Variant {
		t.Errorf("variant = %s, want cached %s", again.Variant, first.Variant)
	}
}
