// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestBadger(t *testing.T) *Badger {
	t.Helper()
	b, err := OpenBadger(BadgerOptions{InMemory: true})
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestAssignmentCreateThenConflict(t *testing.T) {
	b := newTestBadger(t)
	ctx := context.Background()

	if err := b.CreateAssignment(ctx, "ranking_v2", "u1", []byte(`{"variant":"control"}`)); err != nil {
		t.Fatalf("first create: %v", err)
	}

	err := b.CreateAssignment(ctx, "ranking_v2", "u1", []byte(`{"variant":"treatment"}`))
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("second create err = %v, want ErrConflict", err)
	}

	// First write wins
	got, err := b.GetAssignment(ctx, "ranking_v2", "u1")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"variant":"control"}` {
		t.Errorf("assignment = %s, want control", got)
	}
}

func TestGetAssignmentNotFound(t *testing.T) {
	b := newTestBadger(t)
	_, err := b.GetAssignment(context.Background(), "ranking_v2", "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAssignmentsScopedPerTest(t *testing.T) {
	b := newTestBadger(t)
	ctx := context.Background()

	if err := b.CreateAssignment(ctx, "test_a", "u1", []byte("a")); err != nil {
		t.Fatal(err)
	}
	// Same user, different test: no conflict.
	if err := b.CreateAssignment(ctx, "test_b", "u1", []byte("b")); err != nil {
		t.Fatalf("different test should not conflict: %v", err)
	}
}

func TestCounters(t *testing.T) {
	b := newTestBadger(t)
	ctx := context.Background()

	if got, _ := b.GetCounter(ctx, "t", "control", "impressions"); got != 0 {
		t.Errorf("unset counter = %d, want 0", got)
	}

	for i := uint64(1); i <= 3; i++ {
		got, err := b.IncrCounter(ctx, "t", "control", "impressions")
		if err != nil {
			t.Fatal(err)
		}
		if got != i {
			t.Errorf("incr #%d = %d, want %d", i, got, i)
		}
	}

	// Variant and metric are independent dimensions.
	if got, _ := b.GetCounter(ctx, "t", "treatment", "impressions"); got != 0 {
		t.Errorf("other variant counter = %d, want 0", got)
	}
	if got, _ := b.GetCounter(ctx, "t", "control", "conversions"); got != 0 {
		t.Errorf("other metric counter = %d, want 0", got)
	}
}

func TestAppendAndReadLogs(t *testing.T) {
	b := newTestBadger(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Minute)
	for i, subject := range []string{"post_1", "post_2", "post_3"} {
		rec := &LogRecord{
			Kind:      "moderation_decision",
			Subject:   subject,
			Fields:    map[string]string{"action": "approve"},
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := b.AppendLog(ctx, rec); err != nil {
			t.Fatal(err)
		}
		if rec.ID == "" {
			t.Error("AppendLog should assign an ID")
		}
	}

	logs, err := b.RecentLogs(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 2 {
		t.Fatalf("got %d logs, want 2", len(logs))
	}
	if logs[0].Subject != "post_3" || logs[1].Subject != "post_2" {
		t.Errorf("order = [%s %s], want newest first [post_3 post_2]",
			logs[0].Subject, logs[1].Subject)
	}
}
