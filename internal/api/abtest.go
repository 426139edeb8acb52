// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dhalvorsen/feedwise/internal/feed"
	"github.com/dhalvorsen/feedwise/internal/logging"
	"github.com/dhalvorsen/feedwise/internal/models"
	"github.com/dhalvorsen/feedwise/internal/validation"
)

// rankRequest asks for a candidate set ranked with whichever algorithm the
// user's experiment variant selects. Each algorithm name doubles as a
// variant name.
type rankRequest struct {
	UserID       string   `json:"user_id" validate:"required,max=128"`
	Algorithms   []string `json:"algorithms" validate:"required,min=1,dive,oneof=collaborative content_based basic"`
	CandidateIDs []string `json:"candidate_ids,omitempty" validate:"max=500"`
	Limit        int      `json:"limit,omitempty" validate:"min=0,max=100"`
}

type rankResponse struct {
	TestName   string                 `json:"test_name"`
	Variant    string                 `json:"variant"`
	Candidates []feed.ScoredCandidate `json:"candidates"`
}

// handleABRank serves POST /api/v1/abtest/{testName}/rank.
//
// The user is assigned to one of the requested algorithms on first call,
// the candidates are ranked with the assigned algorithm, and an impression
// is recorded for the variant.
func (h *Handlers) handleABRank(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	testName := chi.URLParam(r, "testName")

	var req rankRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "request body is not valid JSON")
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, verr)
		return
	}

	assignment, err := h.Tracker.GetOrAssignVariant(r.Context(), testName, req.UserID, req.Algorithms)
	if err != nil {
		logging.Error().Err(err).Str("test", testName).Str("user_id", req.UserID).
			Msg("variant assignment failed")
		respondError(w, http.StatusInternalServerError, "ABTEST_ERROR", "variant assignment failed")
		return
	}

	candidates, err := h.resolveCandidates(r, req.CandidateIDs)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "ABTEST_ERROR", "failed to load candidates")
		return
	}

	ranked := h.Feed.RankWithStrategy(r.Context(), req.UserID,
		feed.Strategy(assignment.Variant), candidates, req.Limit)

	if err := h.Tracker.RecordImpression(r.Context(), testName, assignment.Variant); err != nil {
		// The ranked response is still valid; only the counter is stale.
		logging.Warn().Err(err).Str("test", testName).Msg("failed to record impression")
	}

	respondJSON(w, http.StatusOK, rankResponse{
		TestName:   testName,
		Variant:    assignment.Variant,
		Candidates: ranked,
	}, started)
}

// resolveCandidates loads the requested posts, or falls back to the recent
// post window when no explicit candidate set was given. Unresolvable IDs
// are skipped rather than failing the whole request.
func (h *Handlers) resolveCandidates(r *http.Request, ids []string) ([]*models.Post, error) {
	if len(ids) == 0 {
		return h.Provider.RecentPosts(r.Context(), models.PostQuery{
			Since: time.Now().Add(-7 * 24 * time.Hour),
		})
	}

	posts := make([]*models.Post, 0, len(ids))
	for _, id := range ids {
		post, err := h.Provider.GetPost(r.Context(), id)
		if err != nil {
			logging.Debug().Str("post_id", id).Msg("skipping unresolvable candidate")
			continue
		}
		posts = append(posts, post)
	}
	return posts, nil
}

type eventRequest struct {
	Variant string `json:"variant" validate:"required,max=128"`
}

// handleABImpression serves POST /api/v1/abtest/{testName}/impression for
// impressions generated outside the rank endpoint.
func (h *Handlers) handleABImpression(w http.ResponseWriter, r *http.Request) {
	h.handleABEvent(w, r, h.Tracker.RecordImpression)
}

// handleABConversion serves POST /api/v1/abtest/{testName}/conversion.
func (h *Handlers) handleABConversion(w http.ResponseWriter, r *http.Request) {
	h.handleABEvent(w, r, h.Tracker.RecordConversion)
}

func (h *Handlers) handleABEvent(w http.ResponseWriter, r *http.Request,
	record func(ctx context.Context, testName, variant string) error) {
	started := time.Now()
	testName := chi.URLParam(r, "testName")

	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "request body is not valid JSON")
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, verr)
		return
	}

	if err := record(r.Context(), testName, req.Variant); err != nil {
		logging.Error().Err(err).Str("test", testName).Str("variant", req.Variant).
			Msg("failed to record experiment event")
		respondError(w, http.StatusInternalServerError, "ABTEST_ERROR", "failed to record event")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"recorded": true}, started)
}

// handleABMetrics serves GET /api/v1/abtest/{testName}/metrics.
//
// Query parameter: variants (comma-separated, required).
func (h *Handlers) handleABMetrics(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	testName := chi.URLParam(r, "testName")

	variants := splitNonEmpty(r.URL.Query().Get("variants"))
	if len(variants) == 0 {
		respondError(w, http.StatusBadRequest, "INVALID_PARAMETER", "variants query parameter is required")
		return
	}

	metrics, err := h.Tracker.Metrics(r.Context(), testName, variants)
	if err != nil {
		logging.Error().Err(err).Str("test", testName).Msg("failed to read experiment metrics")
		respondError(w, http.StatusInternalServerError, "ABTEST_ERROR", "failed to read metrics")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"test_name": testName,
		"variants":  metrics,
	}, started)
}
