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

	"github.com/dhalvorsen/feedwise/internal/models"
)

func seedMemory(t *testing.T) *Memory {
	t.Helper()
	m := NewMemory()
	ctx := context.Background()
	now := time.Now()

	users := []*models.User{
		{ID: "u1", Username: "amara", Location: "nairobi"},
		{ID: "u2", Username: "ben"},
	}
	for _, u := range users {
		if err := m.PutUser(ctx, u); err != nil {
			t.Fatal(err)
		}
	}

	posts := []*models.Post{
		{ID: "p1", AuthorID: "u2", Category: "agriculture", CreatedAt: now.Add(-1 * time.Hour)},
		{ID: "p2", AuthorID: "u2", Category: "health", Location: "nairobi", CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "p3", AuthorID: "u1", Category: "agriculture", CreatedAt: now.Add(-30 * 24 * time.Hour)},
	}
	for _, p := range posts {
		if err := m.PutPost(ctx, p); err != nil {
			t.Fatal(err)
		}
	}
	return m
}

func TestGetUserNotFound(t *testing.T) {
	m := NewMemory()
	_, err := m.GetUser(context.Background(), "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRecentPostsOrderingAndFilters(t *testing.T) {
	m := seedMemory(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		query   models.PostQuery
		wantIDs []string
	}{
		{
			name:    "newest first",
			query:   models.PostQuery{},
			wantIDs: []string{"p1", "p2", "p3"},
		},
		{
			name:    "since filter",
			query:   models.PostQuery{Since: time.Now().Add(-24 * time.Hour)},
			wantIDs: []string{"p1", "p2"},
		},
		{
			name:    "category filter",
			query:   models.PostQuery{Categories: []string{"health"}},
			wantIDs: []string{"p2"},
		},
		{
			name:    "location filter",
			query:   models.PostQuery{Location: "nairobi"},
			wantIDs: []string{"p2"},
		},
		{
			name:    "exclude",
			query:   models.PostQuery{ExcludeIDs: []string{"p1", "p3"}},
			wantIDs: []string{"p2"},
		},
		{
			name:    "limit",
			query:   models.PostQuery{Limit: 2},
			wantIDs: []string{"p1", "p2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.RecentPosts(ctx, tt.query)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got %d posts, want %d", len(got), len(tt.wantIDs))
			}
			for i, want := range tt.wantIDs {
				if got[i].ID != want {
					t.Errorf("posts[%d] = %s, want %s", i, got[i].ID, want)
				}
			}
		})
	}
}

func TestAddInteractionUpdatesCounters(t *testing.T) {
	m := seedMemory(t)
	ctx := context.Background()
	now := time.Now()

	interactions := []*models.Interaction{
		{ID: "i1", UserID: "u1", PostID: "p1", Type: models.InteractionLike, CreatedAt: now},
		{ID: "i2", UserID: "u1", PostID: "p1", Type: models.InteractionLike, CreatedAt: now}, // duplicate like
		{ID: "i3", UserID: "u2", PostID: "p1", Type: models.InteractionLike, CreatedAt: now},
		{ID: "i4", UserID: "u1", PostID: "p1", Type: models.InteractionComment, CreatedAt: now},
		{ID: "i5", UserID: "u1", PostID: "p1", Type: models.InteractionShare, CreatedAt: now},
	}
	for _, in := range interactions {
		if err := m.AddInteraction(ctx, in); err != nil {
			t.Fatal(err)
		}
	}

	p, err := m.GetPost(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if p.Likes != 2 {
		t.Errorf("likes = %d, want 2 (duplicate like ignored)", p.Likes)
	}
	if p.Comments != 1 || p.Shares != 1 {
		t.Errorf("comments/shares = %d/%d, want 1/1", p.Comments, p.Shares)
	}

	likers, err := m.UsersWhoLiked(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(likers) != 2 || likers[0] != "u1" || likers[1] != "u2" {
		t.Errorf("likers = %v, want [u1 u2]", likers)
	}

	liked, err := m.LikedPostIDs(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := liked["p1"]; !ok || len(liked) != 1 {
		t.Errorf("liked = %v, want {p1}", liked)
	}
}

func TestAddInteractionUnknownPost(t *testing.T) {
	m := NewMemory()
	err := m.AddInteraction(context.Background(), &models.Interaction{
		ID: "i1", UserID: "u1", PostID: "ghost", Type: models.InteractionLike,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRecentInteractionsNewestFirst(t *testing.T) {
	m := seedMemory(t)
	ctx := context.Background()
	base := time.Now()

	for i, postID := range []string{"p1", "p2", "p3"} {
		err := m.AddInteraction(ctx, &models.Interaction{
			ID: postID + "-like", UserID: "u1", PostID: postID,
			Type: models.InteractionLike, CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	got, err := m.RecentInteractions(ctx, "u1", models.InteractionLike, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d interactions, want 2", len(got))
	}
	if got[0].PostID != "p3" || got[1].PostID != "p2" {
		t.Errorf("order = [%s %s], want [p3 p2]", got[0].PostID, got[1].PostID)
	}
}

func TestRecentInteractionsFiltersByType(t *testing.T) {
	m := seedMemory(t)
	ctx := context.Background()
	base := time.Now()

	events := []*models.Interaction{
		{ID: "i1", UserID: "u1", PostID: "p1", Type: models.InteractionLike, CreatedAt: base},
		{ID: "i2", UserID: "u1", PostID: "p2", Type: models.InteractionComment, CreatedAt: base.Add(time.Minute)},
		{ID: "i3", UserID: "u1", PostID: "p3", Type: models.InteractionLike, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, in := range events {
		if err := m.AddInteraction(ctx, in); err != nil {
			t.Fatal(err)
		}
	}

	comments, err := m.RecentInteractions(ctx, "u1", models.InteractionComment, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(comments) != 1 || comments[0].PostID != "p2" {
		t.Fatalf("comments = %+v, want the single p2 comment", comments)
	}

	// A limit of 1 bounds likes without touching the comment window.
	likes, err := m.RecentInteractions(ctx, "u1", models.InteractionLike, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(likes) != 1 || likes[0].PostID != "p3" {
		t.Fatalf("likes = %+v, want only the newest like (p3)", likes)
	}
}

func TestGetPostReturnsCopy(t *testing.T) {
	m := seedMemory(t)
	ctx := context.Background()

	p, _ := m.GetPost(ctx, "p1")
	p.Likes = 999

	again, _ := m.GetPost(ctx, "p1")
	if again.Likes == 999 {
		t.Error("mutating a returned post must not affect the store")
	}
}
