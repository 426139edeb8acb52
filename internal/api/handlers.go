// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dhalvorsen/feedwise/internal/feed"
	"github.com/dhalvorsen/feedwise/internal/logging"
	"github.com/dhalvorsen/feedwise/internal/models"
	"github.com/dhalvorsen/feedwise/internal/moderation"
	"github.com/dhalvorsen/feedwise/internal/validation"
)

// handleHealth reports liveness. Kept dependency-free so it stays green
// even when the stores are degraded.
func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// handleStatus reports engine counters and cache statistics.
func (h *Handlers) handleStatus(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	status := map[string]any{
		"version": h.Version,
		"engine":  h.Feed.Snapshot(),
	}
	if h.Cache != nil {
		status["cache"] = h.Cache.Stats()
	}
	respondJSON(w, http.StatusOK, status, started)
}

// handleFeed serves GET /api/v1/feed/{userID}.
//
// Query parameters: limit, exclude (comma-separated post IDs),
// collaborative, content_based.
func (h *Handlers) handleFeed(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	req := feed.FeedRequest{
		UserID:           chi.URLParam(r, "userID"),
		UseCollaborative: queryBool(r, "collaborative"),
		UseContentBased:  queryBool(r, "content_based"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			respondError(w, http.StatusBadRequest, "INVALID_PARAMETER", "limit must be a non-negative integer")
			return
		}
		req.Limit = limit
	}
	if raw := r.URL.Query().Get("exclude"); raw != "" {
		req.ExcludeIDs = splitNonEmpty(raw)
	}

	result, err := h.Feed.GetPersonalizedFeed(r.Context(), req)
	if err != nil {
		var verr *validation.RequestValidationError
		if errors.As(err, &verr) {
			respondValidationError(w, verr)
			return
		}
		logging.Error().Err(err).Str("user_id", req.UserID).Msg("feed request failed")
		respondError(w, http.StatusInternalServerError, "FEED_ERROR", "failed to build feed")
		return
	}
	respondJSON(w, http.StatusOK, result, started)
}

// handleTrending serves GET /api/v1/trending.
//
// Query parameters: window_hours, location, limit.
func (h *Handlers) handleTrending(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	opts := feed.TrendingOptions{
		WindowHours: h.TrendingWindowHours,
		Location:    r.URL.Query().Get("location"),
		Limit:       h.TrendingTopN,
	}
	if raw := r.URL.Query().Get("window_hours"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours < 1 || hours > 168 {
			respondError(w, http.StatusBadRequest, "INVALID_PARAMETER", "window_hours must be between 1 and 168")
			return
		}
		opts.WindowHours = hours
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			respondError(w, http.StatusBadRequest, "INVALID_PARAMETER", "limit must be a positive integer")
			return
		}
		opts.Limit = limit
	}

	topics := h.Trending.Detect(r.Context(), opts)
	respondJSON(w, http.StatusOK, map[string]any{
		"topics":       topics,
		"window_hours": opts.WindowHours,
	}, started)
}

// predictRequest accepts either an inline post or a reference to a stored
// one. UserID is optional; when present the prediction is personalized with
// the user's behavior profile.
type predictRequest struct {
	PostID string       `json:"post_id,omitempty" validate:"max=128"`
	Post   *models.Post `json:"post,omitempty"`
	UserID string       `json:"user_id,omitempty" validate:"max=128"`
}

// handlePredictEngagement serves POST /api/v1/engagement/predict.
func (h *Handlers) handlePredictEngagement(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req predictRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "request body is not valid JSON")
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, verr)
		return
	}

	post := req.Post
	if post == nil {
		if req.PostID == "" {
			respondError(w, http.StatusBadRequest, "INVALID_PARAMETER", "either post or post_id is required")
			return
		}
		stored, err := h.Provider.GetPost(r.Context(), req.PostID)
		if err != nil {
			respondError(w, http.StatusNotFound, "POST_NOT_FOUND", "post not found: "+req.PostID)
			return
		}
		post = stored
	}

	var profile *feed.BehaviorProfile
	if req.UserID != "" {
		profile = h.Profiles.Build(r.Context(), req.UserID)
	}

	prediction := h.Predictor.Predict(post, profile)
	prediction.UserID = req.UserID
	respondJSON(w, http.StatusOK, prediction, started)
}

// moderationRequest wraps the content with an optional per-request level
// override.
type moderationRequest struct {
	Content *moderation.Content `json:"content" validate:"required"`
	Level   string              `json:"level,omitempty" validate:"omitempty,oneof=strict standard lenient"`
}

// handleModerationCheck serves POST /api/v1/moderation/check.
func (h *Handlers) handleModerationCheck(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req moderationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "request body is not valid JSON")
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, verr)
		return
	}

	// An empty level defers to the engine's configured default.
	var level moderation.Level
	if req.Level != "" {
		level = moderation.ParseLevel(req.Level)
	}

	decision, err := h.Moderation.Check(r.Context(), req.Content, level)
	if err != nil {
		var verr *validation.RequestValidationError
		if errors.As(err, &verr) {
			respondValidationError(w, verr)
			return
		}
		logging.Error().Err(err).Str("content_id", req.Content.ID).Msg("moderation check failed")
		respondError(w, http.StatusInternalServerError, "MODERATION_ERROR", "moderation check failed")
		return
	}
	respondJSON(w, http.StatusOK, decision, started)
}

func queryBool(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}

func splitNonEmpty(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
