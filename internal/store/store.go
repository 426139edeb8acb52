// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

// Package store provides Feedwise's storage layers: an in-memory content
// store for users, posts and interactions, and a Badger-backed persistent
// store for A/B assignments, counters and decision logs.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/dhalvorsen/feedwise/internal/models"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrConflict is returned when a conditional write loses a race,
	// e.g. two concurrent first-assignment attempts for the same user.
	ErrConflict = errors.New("store: conflict")

	// ErrClosed is returned when the store has been closed.
	ErrClosed = errors.New("store: closed")
)

// ContentStore is the read/write surface for users, posts and interactions.
type ContentStore interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	PutUser(ctx context.Context, user *models.User) error

	GetPost(ctx context.Context, postID string) (*models.Post, error)
	PutPost(ctx context.Context, post *models.Post) error

	// RecentPosts returns posts matching the query, newest first.
	RecentPosts(ctx context.Context, q models.PostQuery) ([]*models.Post, error)

	// AddInteraction records an interaction and updates the target post's
	// engagement counters.
	AddInteraction(ctx context.Context, in *models.Interaction) error

	// RecentInteractions returns a user's interactions of one type,
	// newest first, capped at limit (0 means no cap). The per-type bound
	// keeps a burst of one interaction type from evicting the others
	// out of a profile's history window.
	RecentInteractions(ctx context.Context, userID string, itype models.InteractionType, limit int) ([]*models.Interaction, error)

	// LikedPostIDs returns the set of post IDs the user has liked.
	LikedPostIDs(ctx context.Context, userID string) (map[string]struct{}, error)

	// UsersWhoLiked returns the IDs of users who liked the given post.
	UsersWhoLiked(ctx context.Context, postID string) ([]string, error)
}

// LogRecord is an append-only audit record (moderation decisions,
// experiment events).
type LogRecord struct {
	ID        string            `json:"id"`
	Kind      string            `json:"kind"`
	Subject   string            `json:"subject"`
	Fields    map[string]string `json:"fields,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
