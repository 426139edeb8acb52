// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

package store

import (
	"context"
	"sort"
	"sync"

	"github.com/dhalvorsen/feedwise/internal/models"
)

// defaultQueryLimit bounds RecentPosts when the query does not set one.
const defaultQueryLimit = 500

// Memory is an in-memory ContentStore. It is the system of record for
// users, posts and interactions in single-node deployments and in tests.
type Memory struct {
	mu sync.RWMutex

	users map[string]*models.User
	posts map[string]*models.Post

	// interactionsByUser holds each user's interactions, append order.
	interactionsByUser map[string][]*models.Interaction

	// likesByPost maps post ID -> set of user IDs who liked it.
	likesByPost map[string]map[string]struct{}
}

var _ ContentStore = (*Memory)(nil)

// NewMemory creates an empty in-memory content store.
func NewMemory() *Memory {
	return &Memory{
		users:              make(map[string]*models.User),
		posts:              make(map[string]*models.Post),
		interactionsByUser: make(map[string][]*models.Interaction),
		likesByPost:        make(map[string]map[string]struct{}),
	}
}

// GetUser returns the user or ErrNotFound.
func (m *Memory) GetUser(_ context.Context, userID string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// PutUser inserts or replaces a user.
func (m *Memory) PutUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

// GetPost returns the post or ErrNotFound.
func (m *Memory) GetPost(_ context.Context, postID string) (*models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.posts[postID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// PutPost inserts or replaces a post.
func (m *Memory) PutPost(_ context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *post
	m.posts[post.ID] = &cp
	return nil
}

// RecentPosts returns posts matching the query, newest first.
func (m *Memory) RecentPosts(_ context.Context, q models.PostQuery) ([]*models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	exclude := make(map[string]struct{}, len(q.ExcludeIDs))
	for _, id := range q.ExcludeIDs {
		exclude[id] = struct{}{}
	}
	categories := make(map[string]struct{}, len(q.Categories))
	for _, c := range q.Categories {
		categories[c] = struct{}{}
	}

	var out []*models.Post
	for _, p := range m.posts {
		if !q.Since.IsZero() && p.CreatedAt.Before(q.Since) {
			continue
		}
		if _, skip := exclude[p.ID]; skip {
			continue
		}
		if len(categories) > 0 {
			if _, ok := categories[p.Category]; !ok {
				continue
			}
		}
		if q.Location != "" && p.Location != q.Location {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	limit := q.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// AddInteraction records an interaction and bumps the post's counters.
// The interaction references must point at an existing post.
func (m *Memory) AddInteraction(_ context.Context, in *models.Interaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.posts[in.PostID]
	if !ok {
		return ErrNotFound
	}

	cp := *in
	m.interactionsByUser[in.UserID] = append(m.interactionsByUser[in.UserID], &cp)

	switch in.Type {
	case models.InteractionLike:
		if m.likesByPost[in.PostID] == nil {
			m.likesByPost[in.PostID] = make(map[string]struct{})
		}
		if _, already := m.likesByPost[in.PostID][in.UserID]; !already {
			m.likesByPost[in.PostID][in.UserID] = struct{}{}
			p.Likes++
		}
	case models.InteractionComment:
		p.Comments++
	case models.InteractionShare:
		p.Shares++
	}
	return nil
}

// RecentInteractions returns the user's interactions of the given type,
// newest first.
func (m *Memory) RecentInteractions(_ context.Context, userID string, itype models.InteractionType, limit int) ([]*models.Interaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	src := m.interactionsByUser[userID]
	out := make([]*models.Interaction, 0, len(src))
	for _, in := range src {
		if in.Type != itype {
			continue
		}
		cp := *in
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// LikedPostIDs returns the post IDs the user has liked.
func (m *Memory) LikedPostIDs(_ context.Context, userID string) (map[string]struct{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]struct{})
	for _, in := range m.interactionsByUser[userID] {
		if in.Type == models.InteractionLike {
			out[in.PostID] = struct{}{}
		}
	}
	return out, nil
}

// UsersWhoLiked returns the users who liked the post, in stable order.
func (m *Memory) UsersWhoLiked(_ context.Context, postID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set := m.likesByPost[postID]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}
