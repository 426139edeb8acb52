// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

package moderation

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/dhalvorsen/feedwise/internal/cache"
	"github.com/dhalvorsen/feedwise/internal/store"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

// result builds an AnalyzerResult for decision-table tests.
func result(dim Dimension, score float64, above bool) AnalyzerResult {
	return AnalyzerResult{Dimension: dim, Score: score, Confidence: 0.8, AboveThreshold: above}
}

func TestDecidePriorityOrdering(t *testing.T) {
	tests := []struct {
		name         string
		results      []AnalyzerResult
		wantAction   Action
		wantFlag     string
		wantEscalate bool
	}{
		{
			name: "immediate violence preempts everything",
			results: []AnalyzerResult{
				{Dimension: DimensionViolence, Score: 0.95, Confidence: 0.9,
					AboveThreshold: true, RequiresImmediateAction: true},
				result(DimensionHateSpeech, 0.9, true),
				result(DimensionSpam, 0.9, true),
			},
			wantAction:   ActionReject,
			wantFlag:     "immediate_violence_threat",
			wantEscalate: true,
		},
		{
			name: "violence above threshold",
			results: []AnalyzerResult{
				result(DimensionViolence, 0.8, true),
				result(DimensionSpam, 0.9, true),
			},
			wantAction:   ActionReject,
			wantFlag:     "violence",
			wantEscalate: true,
		},
		{
			name: "hate speech outranks harassment",
			results: []AnalyzerResult{
				result(DimensionHateSpeech, 0.7, true),
				result(DimensionHarassment, 0.9, true),
			},
			wantAction:   ActionReject,
			wantFlag:     "hate_speech",
			wantEscalate: true,
		},
		{
			name: "harassment rejects without escalation",
			results: []AnalyzerResult{
				result(DimensionHarassment, 0.7, true),
			},
			wantAction:   ActionReject,
			wantFlag:     "harassment",
			wantEscalate: false,
		},
		{
			name: "toxicity flags for review",
			results: []AnalyzerResult{
				result(DimensionToxicity, 0.75, true),
			},
			wantAction:   ActionFlagForReview,
			wantFlag:     "toxicity",
			wantEscalate: false,
		},
		{
			name: "spam rejects",
			results: []AnalyzerResult{
				result(DimensionSpam, 0.85, true),
			},
			wantAction:   ActionReject,
			wantFlag:     "spam",
			wantEscalate: false,
		},
		{
			name: "misinformation flags and escalates",
			results: []AnalyzerResult{
				result(DimensionMisinformation, 0.75, true),
			},
			wantAction:   ActionFlagForReview,
			wantFlag:     "misinformation",
			wantEscalate: true,
		},
		{
			name: "cultural sensitivity routes to local review",
			results: []AnalyzerResult{
				{Dimension: DimensionCultural, Score: 0.75, Confidence: 0.8,
					RequiresLocalReview: true},
			},
			wantAction:   ActionFlagForReview,
			wantFlag:     "cultural_sensitivity",
			wantEscalate: true,
		},
		{
			name: "suspicious media flags",
			results: []AnalyzerResult{
				{Dimension: DimensionMedia, Score: 0.5, Confidence: 0.7,
					RequiresHumanReview: true},
			},
			wantAction:   ActionFlagForReview,
			wantFlag:     "inappropriate_media",
			wantEscalate: false,
		},
		{
			name: "clean content approves",
			results: []AnalyzerResult{
				result(DimensionToxicity, 0.1, false),
				result(DimensionViolence, 0.0, false),
			},
			wantAction: ActionApprove,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := decide("c1", LevelStandard, tt.results)
			if d.Action != tt.wantAction {
				t.Errorf("action = %s, want %s", d.Action, tt.wantAction)
			}
			if tt.wantFlag == "" {
				if len(d.Flags) != 0 {
					t.Errorf("flags = %v, want none", d.Flags)
				}
				if d.Confidence != 1.0 {
					t.Errorf("confidence = %v, want 1.0 when no rule fires", d.Confidence)
				}
				return
			}
			if len(d.Flags) != 1 || d.Flags[0] != tt.wantFlag {
				t.Errorf("flags = %v, want [%s]", d.Flags, tt.wantFlag)
			}
			if d.EscalationRequired != tt.wantEscalate {
				t.Errorf("escalation = %v, want %v", d.EscalationRequired, tt.wantEscalate)
			}
		})
	}
}

func TestDecideOverallIsMeanConfidenceIsFiring(t *testing.T) {
	results := []AnalyzerResult{
		{Dimension: DimensionViolence, Score: 0.9, Confidence: 0.77, AboveThreshold: true},
		{Dimension: DimensionToxicity, Score: 0.1, Confidence: 0.2},
		{Dimension: DimensionSpam, Score: 0.2, Confidence: 0.3},
	}

	d := decide("c1", LevelStandard, results)

	if !almostEqual(d.OverallScore, (0.9+0.1+0.2)/3) {
		t.Errorf("overall = %v, want mean 0.4", d.OverallScore)
	}
	// Confidence is the firing analyzer's, not an ensemble average.
	if !almostEqual(d.Confidence, 0.77) {
		t.Errorf("confidence = %v, want 0.77", d.Confidence)
	}
}

func TestCheckEndToEnd(t *testing.T) {
	e := NewEngine(nil, nil, EngineOptions{})
	ctx := context.Background()

	tests := []struct {
		name       string
		content    *Content
		wantAction Action
		wantFlag   string
	}{
		{
			name:       "benign content approves",
			content:    &Content{ID: "c1", Text: "The maize harvest looks strong this season."},
			wantAction: ActionApprove,
		},
		{
			name:       "directed threat rejects immediately",
			content:    &Content{ID: "c2", Text: "I will kill you and burn down your farm"},
			wantAction: ActionReject,
			wantFlag:   "immediate_violence_threat",
		},
		{
			name: "spam rejects",
			content: &Content{ID: "c3",
				Text: "click here for free money! limited offer, act now, guaranteed income, crypto giveaway"},
			wantAction: ActionReject,
			wantFlag:   "spam",
		},
		{
			name: "suspicious media flags",
			content: &Content{ID: "c4", Text: "look at this",
				MediaRefs: []string{"uploads/gore-clip.mp4"}},
			wantAction: ActionFlagForReview,
			wantFlag:   "inappropriate_media",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := e.Check(ctx, tt.content, "")
			if err != nil {
				t.Fatalf("Check: %v", err)
			}
			if d.Action != tt.wantAction {
				t.Errorf("action = %s, want %s (flags %v)", d.Action, tt.wantAction, d.Flags)
			}
			if tt.wantFlag != "" {
				if len(d.Flags) == 0 || d.Flags[0] != tt.wantFlag {
					t.Errorf("flags = %v, want [%s]", d.Flags, tt.wantFlag)
				}
			}
		})
	}
}

func TestCheckValidation(t *testing.T) {
	e := NewEngine(nil, nil, EngineOptions{})

	_, err := e.Check(context.Background(), &Content{ID: "c1"}, "")
	if err == nil {
		t.Fatal("expected validation error for empty text")
	}
}

func TestCheckSkipsMediaWithoutAttachments(t *testing.T) {
	e := NewEngine(nil, nil, EngineOptions{})

	d, err := e.Check(context.Background(), &Content{ID: "c1", Text: "hello"}, "")
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range d.Results {
		if r.Dimension == DimensionMedia {
			t.Error("media analyzer must not run without attachments")
		}
	}
	if len(d.Results) != 7 {
		t.Errorf("got %d results, want 7 text analyzers", len(d.Results))
	}
}

// failingAnalyzer always errors, standing in for a crashed backend.
type failingAnalyzer struct{ dim Dimension }

func (f *failingAnalyzer) Dimension() Dimension { return f.dim }
func (f *failingAnalyzer) Analyze(context.Context, *Content, float64) (AnalyzerResult, error) {
	return AnalyzerResult{}, errors.New("classifier unavailable")
}

func TestCheckFailsClosed(t *testing.T) {
	e := NewEngine(nil, nil, EngineOptions{})
	e.RegisterAnalyzer(&failingAnalyzer{dim: DimensionToxicity})

	d, err := e.Check(context.Background(), &Content{ID: "c1", Text: "anything at all"}, "")
	if err != nil {
		t.Fatalf("moderation must fail closed into the decision, got error: %v", err)
	}

	if d.Action != ActionFlagForReview {
		t.Errorf("action = %s, want flag_for_review", d.Action)
	}
	if !d.EscalationRequired {
		t.Error("escalation must be required on ensemble failure")
	}
	if len(d.Flags) != 1 || d.Flags[0] != "moderation_error" {
		t.Errorf("flags = %v, want [moderation_error]", d.Flags)
	}
	if d.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", d.Confidence)
	}
}

func TestCheckLevelScaling(t *testing.T) {
	e := NewEngine(nil, nil, EngineOptions{})
	ctx := context.Background()

	// Two toxicity matches: score 0.6. Standard threshold 0.7 does not
	// fire; strict threshold 0.7*0.85 = 0.595 does.
	content := &Content{ID: "c1", Text: "you are an idiot and a loser"}

	standard, err := e.Check(ctx, content, LevelStandard)
	if err != nil {
		t.Fatal(err)
	}
	if standard.Action != ActionApprove {
		t.Errorf("standard action = %s, want approve (flags %v)", standard.Action, standard.Flags)
	}

	strict, err := e.Check(ctx, content, LevelStrict)
	if err != nil {
		t.Fatal(err)
	}
	if strict.Action != ActionFlagForReview {
		t.Errorf("strict action = %s, want flag_for_review (flags %v)", strict.Action, strict.Flags)
	}
}

func TestCheckCachesDecisions(t *testing.T) {
	c := cache.New()
	e := NewEngine(c, nil, EngineOptions{CacheTTL: time.Hour})
	ctx := context.Background()

	content := &Content{ID: "c1", Text: "hello there neighbors"}
	first, err := e.Check(ctx, content, "")
	if err != nil {
		t.Fatal(err)
	}

	// A registered failing analyzer would flip the outcome; the cached
	// decision must serve instead.
	e.RegisterAnalyzer(&failingAnalyzer{dim: DimensionToxicity})

	second, err := e.Check(ctx, content, "")
	if err != nil {
		t.Fatal(err)
	}
	if second.Action != first.Action {
		t.Errorf("cached action = %s, want %s", second.Action, first.Action)
	}
	if second.Action != ActionApprove {
		t.Errorf("action = %s, want approve from cache", second.Action)
	}
}

func TestCheckCacheHitKeepsCallerContentID(t *testing.T) {
	c := cache.New()
	e := NewEngine(c, nil, EngineOptions{CacheTTL: time.Hour})
	ctx := context.Background()

	text := "you are an idiot spammer, buy followers now"
	first, err := e.Check(ctx, &Content{ID: "post-1", Text: text}, "")
	if err != nil {
		t.Fatal(err)
	}

	// Identical text under a different content ID serves from cache but
	// must carry the second caller's ID, not the first's.
	second, err := e.Check(ctx, &Content{ID: "post-2", Text: text}, "")
	if err != nil {
		t.Fatal(err)
	}
	if second.ContentID != "post-2" {
		t.Errorf("content id = %s, want post-2", second.ContentID)
	}
	if second.Action != first.Action {
		t.Errorf("action = %s, want cached %s", second.Action, first.Action)
	}
	if first.ContentID != "post-1" {
		t.Errorf("first content id = %s, want post-1", first.ContentID)
	}
}

// recordingSink captures audit records.
type recordingSink struct {
	records []*store.LogRecord
}

func (r *recordingSink) AppendLog(_ context.Context, rec *store.LogRecord) error {
	r.records = append(r.records, rec)
	return nil
}

func TestCheckWritesAuditRecord(t *testing.T) {
	sink := &recordingSink{}
	e := NewEngine(nil, sink, EngineOptions{})

	_, err := e.Check(context.Background(), &Content{ID: "c1", Text: "kill them all, bring weapons"}, "")
	if err != nil {
		t.Fatal(err)
	}

	if len(sink.records) != 1 {
		t.Fatalf("got %d audit records, want 1", len(sink.records))
	}
	rec := sink.records[0]
	if rec.Kind != "moderation_decision" || rec.Subject != "c1" {
		t.Errorf("record = %+v, want moderation_decision for c1", rec)
	}
	if rec.Fields["action"] != string(ActionReject) {
		t.Errorf("audit action = %s, want reject", rec.Fields["action"])
	}
}
