// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

// Package models defines the shared domain types used across the engine:
// users, posts, interaction events, and the API response envelope.
package models

import (
	"strings"
	"time"
)

// InteractionType classifies a user-content interaction event.
type InteractionType string

const (
	// InteractionLike is a like event.
	InteractionLike InteractionType = "like"
	// InteractionComment is a comment event.
	InteractionComment InteractionType = "comment"
	// InteractionShare is a share event.
	InteractionShare InteractionType = "share"
)

// User represents a community member.
type User struct {
	// ID is the unique user identifier.
	ID string `json:"id"`

	// Username is the display handle.
	Username string `json:"username"`

	// Role is the account role (member, creator, moderator).
	Role string `json:"role,omitempty"`

	// Location is the user's declared location, used for locality matching.
	Location string `json:"location,omitempty"`

	// Verified indicates a verified account.
	Verified bool `json:"verified,omitempty"`

	// CreatedAt is the account creation time.
	CreatedAt time.Time `json:"created_at"`
}

// Post represents a piece of user-generated content eligible for ranking
// and moderation.
type Post struct {
	// ID is the unique content identifier.
	ID string `json:"id"`

	// AuthorID is the posting user's identifier.
	AuthorID string `json:"author_id"`

	// AuthorRole is the author's role at posting time.
	AuthorRole string `json:"author_role,omitempty"`

	// Title is an optional post title.
	Title string `json:"title,omitempty"`

	// Content is the post body text.
	Content string `json:"content"`

	// Category is the post's primary category.
	Category string `json:"category,omitempty"`

	// Hashtags are the post's hashtags, stored without the leading '#'.
	Hashtags []string `json:"hashtags,omitempty"`

	// Location is the post's declared location.
	Location string `json:"location,omitempty"`

	// HasImage indicates an attached image.
	HasImage bool `json:"has_image,omitempty"`

	// HasVideo indicates an attached video.
	HasVideo bool `json:"has_video,omitempty"`

	// MediaRefs are opaque references to attached media.
	MediaRefs []string `json:"media_refs,omitempty"`

	// Likes is the like count.
	Likes int `json:"likes"`

	// Comments is the comment count.
	Comments int `json:"comments"`

	// Shares is the share count.
	Shares int `json:"shares"`

	// CreatedAt is the post creation time.
	CreatedAt time.Time `json:"created_at"`
}

// HasMedia returns whether the post carries any media attachment.
func (p *Post) HasMedia() bool {
	return p.HasImage || p.HasVideo || len(p.MediaRefs) > 0
}

// NormalizedHashtags returns the post's hashtags lowercased with any
// leading '#' stripped.
func (p *Post) NormalizedHashtags() []string {
	if len(p.Hashtags) == 0 {
		return nil
	}
	out := make([]string, 0, len(p.Hashtags))
	for _, h := range p.Hashtags {
		h = strings.ToLower(strings.TrimPrefix(h, "#"))
		if h != "" {
			out = append(out, h)
		}
	}
	return out
}

// Interaction represents a single user-content interaction event.
type Interaction struct {
	// ID is the unique event identifier.
	ID string `json:"id"`

	// UserID is the acting user.
	UserID string `json:"user_id"`

	// PostID is the target content.
	PostID string `json:"post_id"`

	// Type is the interaction kind.
	Type InteractionType `json:"type"`

	// CreatedAt is when the interaction occurred.
	CreatedAt time.Time `json:"created_at"`
}

// PostQuery describes a bounded, ordered read of recent posts.
// Results are ordered newest-first and truncated to Limit.
type PostQuery struct {
	// Since restricts results to posts created at or after this time.
	// Zero means unbounded.
	Since time.Time

	// Categories restricts results to these categories when non-empty.
	Categories []string

	// Location restricts results to this location when non-empty.
	Location string

	// ExcludeIDs removes specific posts from the result.
	ExcludeIDs []string

	// Limit caps the number of returned posts. Zero means the store default.
	Limit int
}

// APIResponse is the standard response envelope for all API endpoints.
type APIResponse struct {
	Status   string    `json:"status"`
	Data     any       `json:"data,omitempty"`
	Error    *APIError `json:"error,omitempty"`
	Metadata Metadata  `json:"metadata"`
}

// APIError carries a machine-readable code and human-readable message.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Metadata contains response timing information.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}
