// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

package moderation

import (
	"context"
	"sync"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dhalvorsen/feedwise/internal/cache"
	"github.com/dhalvorsen/feedwise/internal/logging"
	"github.com/dhalvorsen/feedwise/internal/metrics"
	"github.com/dhalvorsen/feedwise/internal/store"
	"github.com/dhalvorsen/feedwise/internal/validation"
)

// AuditSink receives append-only decision records. The Badger store
// satisfies it; a nil sink disables auditing.
type AuditSink interface {
	AppendLog(ctx context.Context, rec *store.LogRecord) error
}

// Engine runs the analyzer ensemble and derives a single decision via
// priority-ordered threshold rules.
//
// The moderation path fails closed: any analyzer error or timeout yields
// flag_for_review with escalation, never a silent approve.
type Engine struct {
	mu        sync.RWMutex
	analyzers []Analyzer

	level   Level
	timeout time.Duration

	cache    *cache.Cache
	cacheTTL time.Duration

	audit  AuditSink
	logger zerolog.Logger
}

// EngineOptions configures the moderation engine.
type EngineOptions struct {
	// Level is the default threshold scaling level.
	Level Level

	// AnalyzerTimeout bounds each analyzer invocation.
	AnalyzerTimeout time.Duration

	// CacheTTL is how long decisions stay cached. 0 disables caching.
	CacheTTL time.Duration
}

// NewEngine creates a moderation engine with the standard eight analyzers
// registered. c and audit may be nil.
func NewEngine(c *cache.Cache, audit AuditSink, opts EngineOptions) *Engine {
	if opts.Level == "" {
		opts.Level = LevelStandard
	}
	if opts.AnalyzerTimeout <= 0 {
		opts.AnalyzerTimeout = 2 * time.Second
	}

	e := &Engine{
		level:    opts.Level,
		timeout:  opts.AnalyzerTimeout,
		cache:    c,
		cacheTTL: opts.CacheTTL,
		audit:    audit,
		logger:   logging.With().Str("component", "moderation").Logger(),
	}

	e.RegisterAnalyzer(NewToxicityAnalyzer())
	e.RegisterAnalyzer(NewHateSpeechAnalyzer())
	e.RegisterAnalyzer(NewHarassmentAnalyzer())
	e.RegisterAnalyzer(NewSpamAnalyzer())
	e.RegisterAnalyzer(NewViolenceAnalyzer())
	e.RegisterAnalyzer(NewMisinformationAnalyzer())
	e.RegisterAnalyzer(NewCulturalAnalyzer())
	e.RegisterAnalyzer(NewMediaAnalyzer())

	return e
}

// RegisterAnalyzer adds or replaces the analyzer for its dimension, so a
// network-backed classifier can stand in for any lexicon analyzer.
func (e *Engine) RegisterAnalyzer(a Analyzer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, existing := range e.analyzers {
		if existing.Dimension() == a.Dimension() {
			e.analyzers[i] = a
			return
		}
	}
	e.analyzers = append(e.analyzers, a)
}

// Check moderates the content at the given level (empty means the engine
// default). Validation failures return an error; everything downstream
// fails closed into the decision itself.
func (e *Engine) Check(ctx context.Context, content *Content, level Level) (*Decision, error) {
	if verr := validation.ValidateStruct(content); verr != nil {
		return nil, verr
	}
	if level == "" {
		level = e.level
	}
	scale := level.thresholdScale()

	cacheKey := cache.GenerateKey("decision", map[string]any{
		"text":  content.Text,
		"title": content.Title,
		"media": content.MediaRefs,
		"level": string(level),
	})
	if e.cache != nil {
		if cached, ok := e.cache.Get(cache.PartitionModeration, cacheKey); ok {
			if decision, ok := cached.(*Decision); ok {
				// A verdict depends only on text, title, media and level.
				// A hit for different content with identical signals gets
				// the same verdict restamped with its own ID, so the
				// caller never sees another content's ID.
				if decision.ContentID == content.ID {
					return decision, nil
				}
				restamped := *decision
				restamped.ContentID = content.ID
				return &restamped, nil
			}
		}
	}

	results, err := e.runAnalyzers(ctx, content, scale)
	if err != nil {
		e.logger.Error().Err(err).Str("content_id", content.ID).
			Msg("analyzer ensemble failed, failing closed")
		decision := failClosed(content.ID, level)
		e.finish(ctx, content, decision)
		return decision, nil
	}

	decision := decide(content.ID, level, results)
	if e.cache != nil && e.cacheTTL > 0 {
		e.cache.Set(cache.PartitionModeration, cacheKey, decision, e.cacheTTL)
	}
	e.finish(ctx, content, decision)
	return decision, nil
}

// runAnalyzers fans the content out to every applicable analyzer
// concurrently and collects the results. The analyzers are mutually
// independent; the first error cancels the rest.
func (e *Engine) runAnalyzers(ctx context.Context, content *Content, scale float64) ([]AnalyzerResult, error) {
	e.mu.RLock()
	analyzers := make([]Analyzer, 0, len(e.analyzers))
	for _, a := range e.analyzers {
		// Media analysis only applies when attachments are present.
		if a.Dimension() == DimensionMedia && len(content.MediaRefs) == 0 {
			continue
		}
		analyzers = append(analyzers, a)
	}
	e.mu.RUnlock()

	results := make([]AnalyzerResult, len(analyzers))
	g, gctx := errgroup.WithContext(ctx)

	for i, a := range analyzers {
		g.Go(func() error {
			actx, cancel := context.WithTimeout(gctx, e.timeout)
			defer cancel()

			start := time.Now()
			res, err := a.Analyze(actx, content, scale)
			metrics.ModerationAnalyzerDuration.WithLabelValues(string(a.Dimension())).
				Observe(time.Since(start).Seconds())
			if err != nil {
				metrics.ModerationAnalyzerErrors.WithLabelValues(string(a.Dimension())).Inc()
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// decide applies the priority-ordered, first-match-wins rules. It is a
// pure function of the analyzer results.
func decide(contentID string, level Level, results []AnalyzerResult) *Decision {
	byDim := make(map[Dimension]AnalyzerResult, len(results))
	var scores []float64
	for _, r := range results {
		byDim[r.Dimension] = r
		scores = append(scores, r.Score)
	}

	// The mean is computed over every analyzer that ran, regardless of
	// which rule fires below.
	overall, err := stats.Mean(scores)
	if err != nil {
		overall = 0
	}

	d := &Decision{
		ContentID:    contentID,
		Action:       ActionApprove,
		Confidence:   1.0,
		OverallScore: overall,
		Level:        level,
		Results:      results,
		DecidedAt:    time.Now().UTC(),
	}

	violence := byDim[DimensionViolence]
	hate := byDim[DimensionHateSpeech]
	harassment := byDim[DimensionHarassment]
	toxicity := byDim[DimensionToxicity]
	spam := byDim[DimensionSpam]
	misinfo := byDim[DimensionMisinformation]
	cultural := byDim[DimensionCultural]
	media := byDim[DimensionMedia]

	switch {
	case violence.RequiresImmediateAction:
		d.fire(ActionReject, violence, "immediate_violence_threat", true)
	case violence.AboveThreshold:
		d.fire(ActionReject, violence, "violence", true)
	case hate.AboveThreshold:
		d.fire(ActionReject, hate, "hate_speech", true)
	case harassment.AboveThreshold:
		d.fire(ActionReject, harassment, "harassment", false)
	case toxicity.AboveThreshold:
		d.fire(ActionFlagForReview, toxicity, "toxicity", false)
	case spam.AboveThreshold:
		d.fire(ActionReject, spam, "spam", false)
	case misinfo.AboveThreshold:
		d.fire(ActionFlagForReview, misinfo, "misinformation", true)
	case cultural.RequiresLocalReview:
		d.fire(ActionFlagForReview, cultural, "cultural_sensitivity", true)
	case media.RequiresHumanReview:
		d.fire(ActionFlagForReview, media, "inappropriate_media", false)
	}

	return d
}

// fire records a triggered rule on the decision.
func (d *Decision) fire(action Action, r AnalyzerResult, flag string, escalate bool) {
	d.Action = action
	d.Confidence = r.Confidence
	d.Flags = append(d.Flags, flag)
	d.Reason = flag
	d.EscalationRequired = escalate
}

// failClosed builds the decision returned when the ensemble itself fails.
func failClosed(contentID string, level Level) *Decision {
	return &Decision{
		ContentID:          contentID,
		Action:             ActionFlagForReview,
		Confidence:         0,
		Flags:              []string{"moderation_error"},
		Reason:             "moderation_error",
		EscalationRequired: true,
		Level:              level,
		DecidedAt:          time.Now().UTC(),
	}
}

// finish records metrics and the audit trail for a decision.
func (e *Engine) finish(ctx context.Context, content *Content, d *Decision) {
	metrics.ObserveModerationCheck(string(d.Action), string(d.Level), d.EscalationRequired)

	e.logger.Info().
		Str("content_id", content.ID).
		Str("action", string(d.Action)).
		Str("reason", d.Reason).
		Float64("overall_score", d.OverallScore).
		Bool("escalation", d.EscalationRequired).
		Msg("moderation decision")

	if e.audit == nil {
		return
	}
	rec := &store.LogRecord{
		Kind:    "moderation_decision",
		Subject: content.ID,
		Fields: map[string]string{
			"action": string(d.Action),
			"reason": d.Reason,
			"level":  string(d.Level),
		},
	}
	if err := e.audit.AppendLog(ctx, rec); err != nil {
		// The audit trail is best-effort; the decision already stands.
		e.logger.Warn().Err(err).Str("content_id", content.ID).
			Msg("failed to append moderation audit record")
	}
}
