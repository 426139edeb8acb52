// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dhalvorsen/feedwise/internal/models"
)

// SeedMockData loads a small demonstration dataset: a handful of users,
// posts across several categories, and enough interactions to push one
// user over the personalization threshold. Intended for local development
// and demos only.
func SeedMockData(ctx context.Context, s ContentStore, now time.Time) error {
	users := []*models.User{
		{ID: "user-amara", Username: "amara", Location: "nairobi", CreatedAt: now.AddDate(0, -6, 0)},
		{ID: "user-kofi", Username: "kofi", Location: "accra", CreatedAt: now.AddDate(0, -3, 0)},
		{ID: "user-lena", Username: "lena", Location: "nairobi", Verified: true, CreatedAt: now.AddDate(-1, 0, 0)},
		{ID: "user-tunde", Username: "tunde", Location: "lagos", CreatedAt: now.AddDate(0, -1, 0)},
	}
	for _, u := range users {
		if err := s.PutUser(ctx, u); err != nil {
			return fmt.Errorf("seed user %s: %w", u.ID, err)
		}
	}

	posts := []*models.Post{
		{
			ID: "post-harvest-tips", AuthorID: "user-lena", Category: "agriculture",
			Content:  "The maize harvest is early this year. Three things to check before storage.",
			Hashtags: []string{"farming", "harvest"}, Location: "nairobi",
			Likes: 42, Comments: 11, Shares: 6, CreatedAt: now.Add(-2 * time.Hour),
		},
		{
			ID: "post-clinic-hours", AuthorID: "user-kofi", Category: "health",
			Content:  "The mobile clinic visits the market square every Tuesday morning.",
			Hashtags: []string{"health"}, Location: "accra",
			Likes: 15, Comments: 4, CreatedAt: now.Add(-5 * time.Hour),
		},
		{
			ID: "post-derby-recap", AuthorID: "user-tunde", Category: "sports",
			Content:  "What a derby! Full match recap and photos from the stands.",
			Hashtags: []string{"football"}, HasImage: true, Location: "lagos",
			Likes: 88, Comments: 23, Shares: 12, CreatedAt: now.Add(-8 * time.Hour),
		},
		{
			ID: "post-seed-swap", AuthorID: "user-amara", Category: "agriculture",
			Content:  "Organizing a seed swap next weekend. Who is in?",
			Hashtags: []string{"farming", "community"}, Location: "nairobi",
			Likes: 9, Comments: 7, CreatedAt: now.Add(-26 * time.Hour),
		},
		{
			ID: "post-market-prices", AuthorID: "user-lena", Category: "business",
			Content:  "Weekly market price roundup: tomatoes up, onions steady.",
			Likes: 30, Comments: 5, Shares: 2, CreatedAt: now.Add(-30 * time.Hour),
		},
		{
			ID: "post-rain-forecast", AuthorID: "user-kofi", Category: "agriculture",
			Content:  "Rain expected midweek. Good window for planting before the weekend?",
			Hashtags: []string{"weather", "planting"},
			Likes: 21, Comments: 9, CreatedAt: now.Add(-50 * time.Hour),
		},
	}
	for _, p := range posts {
		if err := s.PutPost(ctx, p); err != nil {
			return fmt.Errorf("seed post %s: %w", p.ID, err)
		}
	}

	// user-amara interacts enough to cross the personalization threshold.
	interactions := []*models.Interaction{
		{ID: "seed-i1", UserID: "user-amara", PostID: "post-harvest-tips", Type: models.InteractionLike, CreatedAt: now.Add(-90 * time.Minute)},
		{ID: "seed-i2", UserID: "user-amara", PostID: "post-harvest-tips", Type: models.InteractionComment, CreatedAt: now.Add(-85 * time.Minute)},
		{ID: "seed-i3", UserID: "user-amara", PostID: "post-rain-forecast", Type: models.InteractionLike, CreatedAt: now.Add(-40 * time.Hour)},
		{ID: "seed-i4", UserID: "user-amara", PostID: "post-market-prices", Type: models.InteractionLike, CreatedAt: now.Add(-20 * time.Hour)},
		{ID: "seed-i5", UserID: "user-amara", PostID: "post-derby-recap", Type: models.InteractionShare, CreatedAt: now.Add(-6 * time.Hour)},
		{ID: "seed-i6", UserID: "user-kofi", PostID: "post-harvest-tips", Type: models.InteractionLike, CreatedAt: now.Add(-1 * time.Hour)},
		{ID: "seed-i7", UserID: "user-tunde", PostID: "post-derby-recap", Type: models.InteractionComment, CreatedAt: now.Add(-7 * time.Hour)},
	}
	for _, in := range interactions {
		if err := s.AddInteraction(ctx, in); err != nil {
			return fmt.Errorf("seed interaction %s: %w", in.ID, err)
		}
	}
	return nil
}
