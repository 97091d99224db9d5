// Copyright (C) 2025 Phoenix Labs (dev@phoenixlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package pipeline orchestrates one decision sprint: classify, retrieve,
// score, curate, brief, and optionally generate.
//
// # Description
//
// A single request is a single-threaded cooperative sequence of phases;
// only retrieval fans out internally. Each phase runs inside an
// independent timeout race: on timeout the phase is abandoned and a
// TimedOut error propagates, with no resumption or partial checkpoint.
// Every invocation constructs fresh in-memory state; the only global is
// configuration, which is read-only at request time.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/phoenixlabs/PhoenixSprint/services/sprint/brief"
	"github.com/phoenixlabs/PhoenixSprint/services/sprint/classifier"
	"github.com/phoenixlabs/PhoenixSprint/services/sprint/curation"
	"github.com/phoenixlabs/PhoenixSprint/services/sprint/datatypes"
	"github.com/phoenixlabs/PhoenixSprint/services/sprint/observability"
	"github.com/phoenixlabs/PhoenixSprint/services/sprint/retrieval"
	"github.com/phoenixlabs/PhoenixSprint/services/sprint/scoring"
)

var tracer = otel.Tracer("phoenix.sprint.pipeline")

// Phase names used in timings, metrics, and error phase tags.
const (
	PhaseClassify = "classify"
	PhaseRetrieve = "retrieve"
	PhaseScore    = "score"
	PhaseCurate   = "curate"
	PhaseBrief    = "brief"
	PhaseGenerate = "generate"
)

// =============================================================================
// Collaborator Interfaces
// =============================================================================

// Classifier produces the structured problem analysis.
type Classifier interface {
	Classify(ctx context.Context, query string) (*datatypes.ProblemAnalysis, error)
}

// Retriever produces the deduplicated candidate set for an analysis.
type Retriever interface {
	Retrieve(ctx context.Context, queries datatypes.SearchQueries) ([]datatypes.Candidate, error)
}

// Generator runs the downstream long-form generation call.
type Generator interface {
	Generate(ctx context.Context, req *datatypes.GenerationRequest) (*datatypes.GenerationOutput, error)
}

// =============================================================================
// Configuration
// =============================================================================

// Config holds per-phase timeouts, an overall run timeout, and the
// generation retry policy. Read-only at request time.
type Config struct {
	ClassifyTimeout time.Duration
	RetrieveTimeout time.Duration
	ScoreTimeout    time.Duration
	CurateTimeout   time.Duration
	BriefTimeout    time.Duration
	GenerateTimeout time.Duration

	// OverallTimeout bounds the whole run regardless of how the phases
	// spend it. Must exceed the longest plausible phase sequence.
	OverallTimeout time.Duration

	// MaxGenerateRetries bounds retries of the generation call on
	// transient failures. Retries use exponential backoff from
	// RetryBaseDelay.
	MaxGenerateRetries int
	RetryBaseDelay     time.Duration
}

// DefaultConfig returns the production timeouts and retry policy.
func DefaultConfig() Config {
	return Config{
		ClassifyTimeout:    30 * time.Second,
		RetrieveTimeout:    20 * time.Second,
		ScoreTimeout:       5 * time.Second,
		CurateTimeout:      5 * time.Second,
		BriefTimeout:       5 * time.Second,
		GenerateTimeout:    120 * time.Second,
		OverallTimeout:     240 * time.Second,
		MaxGenerateRetries: 2,
		RetryBaseDelay:     time.Second,
	}
}

// validateConfig validates and corrects config values.
// Logs warnings for invalid values and applies defaults.
func validateConfig(config Config) Config {
	defaults := DefaultConfig()

	fix := func(name string, d, def time.Duration) time.Duration {
		if d <= 0 {
			slog.Warn("Invalid phase timeout, using default",
				"phase", name, "provided", d, "default", def)
			return def
		}
		return d
	}
	config.ClassifyTimeout = fix(PhaseClassify, config.ClassifyTimeout, defaults.ClassifyTimeout)
	config.RetrieveTimeout = fix(PhaseRetrieve, config.RetrieveTimeout, defaults.RetrieveTimeout)
	config.ScoreTimeout = fix(PhaseScore, config.ScoreTimeout, defaults.ScoreTimeout)
	config.CurateTimeout = fix(PhaseCurate, config.CurateTimeout, defaults.CurateTimeout)
	config.BriefTimeout = fix(PhaseBrief, config.BriefTimeout, defaults.BriefTimeout)
	config.GenerateTimeout = fix(PhaseGenerate, config.GenerateTimeout, defaults.GenerateTimeout)
	config.OverallTimeout = fix("overall", config.OverallTimeout, defaults.OverallTimeout)

	if config.MaxGenerateRetries < 0 {
		slog.Warn("Invalid MaxGenerateRetries config, using default",
			"provided", config.MaxGenerateRetries, "default", defaults.MaxGenerateRetries)
		config.MaxGenerateRetries = defaults.MaxGenerateRetries
	}
	if config.RetryBaseDelay <= 0 {
		config.RetryBaseDelay = defaults.RetryBaseDelay
	}
	return config
}

// RunOptions are per-request knobs.
type RunOptions struct {
	// SkipGeneration ends the pipeline after the brief phase; the
	// result carries the generation request but no generated content.
	SkipGeneration bool

	// Temperature overrides the brief's default generation temperature
	// when positive.
	Temperature float32
}

// =============================================================================
// Pipeline
// =============================================================================

// Pipeline sequences the sprint phases over injected collaborators.
//
// # Thread Safety
//
// Safe for concurrent use. Run builds fresh state per invocation; the
// injected collaborators are expected to be concurrency-safe.
type Pipeline struct {
	classifier Classifier
	retriever  Retriever
	generator  Generator
	config     Config
}

// NewPipeline creates a pipeline with the given collaborators and
// config. Config values are validated and corrected if necessary.
// The generator may be nil when generation is always skipped.
func NewPipeline(c Classifier, r Retriever, g Generator, config Config) *Pipeline {
	return &Pipeline{
		classifier: c,
		retriever:  r,
		generator:  g,
		config:     validateConfig(config),
	}
}

// Run executes one sprint for the query.
//
// # Inputs
//
//   - ctx: Overall request context; its deadline bounds the whole run
//     on top of the per-phase timeouts.
//   - query: Free-text problem description.
//   - opts: Per-request options.
//
// # Outputs
//
//   - *datatypes.SprintResult: The frozen result record.
//   - error: A *PipelineError naming the failed phase and kind.
func (p *Pipeline) Run(ctx context.Context, query string, opts RunOptions) (*datatypes.SprintResult, error) {
	ctx, span := tracer.Start(ctx, "SprintRun")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, p.config.OverallTimeout)
	defer cancel()

	sprintID := uuid.NewString()
	span.SetAttributes(attribute.String("sprint.id", sprintID))
	slog.Info("Sprint started", "sprintID", sprintID, "queryLen", len(query))

	start := time.Now()
	var timings datatypes.TimingMetrics
	record := func(phase string, d time.Duration) {
		timings.Phases = append(timings.Phases, datatypes.PhaseTiming{Name: phase, Duration: d})
		observability.ObservePhase(phase, d.Seconds())
	}
	fail := func(perr *PipelineError) (*datatypes.SprintResult, error) {
		span.SetStatus(codes.Error, string(perr.Kind))
		observability.RecordError(string(perr.Kind), perr.Phase)
		slog.Error("Sprint failed",
			"sprintID", sprintID, "phase", perr.Phase, "kind", perr.Kind, "error", perr)
		return nil, perr
	}

	// Phase 1: classify.
	analysis, d, err := runTimed(ctx, p.config.ClassifyTimeout, func(ctx context.Context) (*datatypes.ProblemAnalysis, error) {
		return p.classifier.Classify(ctx, query)
	})
	record(PhaseClassify, d)
	if err != nil {
		return fail(classifyStageError(PhaseClassify, err, "query_len", len(query)))
	}

	// Phase 2: retrieve.
	candidates, d, err := runTimed(ctx, p.config.RetrieveTimeout, func(ctx context.Context) ([]datatypes.Candidate, error) {
		return p.retriever.Retrieve(ctx, analysis.SearchQueries)
	})
	record(PhaseRetrieve, d)
	if err != nil {
		return fail(classifyStageError(PhaseRetrieve, err, "query", analysis.Query))
	}

	// Phase 3: score.
	scored, d, err := runTimed(ctx, p.config.ScoreTimeout, func(ctx context.Context) ([]datatypes.ScoredCandidate, error) {
		return scoring.ScoreAll(candidates, analysis, nil), nil
	})
	record(PhaseScore, d)
	if err != nil {
		return fail(classifyStageError(PhaseScore, err, "candidates", len(candidates)))
	}

	// Phase 4: curate.
	curated, d, err := runTimed(ctx, p.config.CurateTimeout, func(ctx context.Context) (*datatypes.CurationResult, error) {
		return curation.Curate(scored, analysis), nil
	})
	record(PhaseCurate, d)
	if err != nil {
		return fail(classifyStageError(PhaseCurate, err, "scored", len(scored)))
	}
	observability.RecordCuratedCount(len(curated.Tools))

	// Phase 5: brief.
	request, d, err := runTimed(ctx, p.config.BriefTimeout, func(ctx context.Context) (*datatypes.GenerationRequest, error) {
		return brief.Build(curated, analysis)
	})
	record(PhaseBrief, d)
	if err != nil {
		return fail(classifyStageError(PhaseBrief, err, "tools", len(curated.Tools)))
	}
	if opts.Temperature > 0 {
		request.Temperature = opts.Temperature
	}

	result := &datatypes.SprintResult{
		SprintID: sprintID,
		Analysis: analysis,
		Curation: curated,
		Request:  request,
		Warnings: curated.Metadata.Warnings,
	}

	// Phase 6: generate (optional).
	if !opts.SkipGeneration {
		if p.generator == nil {
			return fail(newError(KindGenerationFailed, PhaseGenerate, errors.New("no generator configured")))
		}
		output, d, err := runTimed(ctx, p.config.GenerateTimeout, func(ctx context.Context) (*datatypes.GenerationOutput, error) {
			return p.generateWithRetry(ctx, request)
		})
		record(PhaseGenerate, d)
		if err != nil {
			return fail(classifyStageError(PhaseGenerate, err, "estimated_tokens", request.EstimatedTokens))
		}
		observability.RecordGenerationTokens(output.PromptTokens, output.CompletionTokens)
		result.Generated = output
	}

	timings.Total = time.Since(start)
	result.Timings = timings
	slog.Info("Sprint complete",
		"sprintID", sprintID,
		"tools", len(curated.Tools),
		"generated", result.Generated != nil,
		"total", timings.Total)
	return result, nil
}

// generateWithRetry runs the generation call with bounded exponential
// backoff, retrying only on transient error signatures.
func (p *Pipeline) generateWithRetry(ctx context.Context, req *datatypes.GenerationRequest) (*datatypes.GenerationOutput, error) {
	var lastErr error
	delay := p.config.RetryBaseDelay
	for attempt := 0; attempt <= p.config.MaxGenerateRetries; attempt++ {
		if attempt > 0 {
			slog.Warn("Retrying generation call",
				"attempt", attempt, "delay", delay, "lastError", lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			delay *= 2
		}

		output, err := p.generator.Generate(ctx, req)
		if err == nil {
			return output, nil
		}
		lastErr = err
		if !isTransient(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("generation retries exhausted: %w", lastErr)
}

// transientSignatures are the error substrings eligible for retry.
var transientSignatures = []string{
	"rate limit",
	"rate_limit",
	"429",
	"timeout",
	"network",
	"connection",
	"temporary",
	"unavailable",
	"503",
}

// isTransient reports whether the error matches a known transient
// signature.
func isTransient(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, sig := range transientSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

// =============================================================================
// Phase Timeout Race
// =============================================================================

// phaseResult carries one phase's outcome across the timeout race.
type phaseResult[T any] struct {
	value T
	err   error
}

// runTimed races fn against the phase timeout. On timeout the phase
// goroutine is abandoned (its context is canceled so cooperative work
// stops) and a TimedOut error is returned.
func runTimed[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, time.Duration, error) {
	phaseCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	done := make(chan phaseResult[T], 1)
	go func() {
		v, err := fn(phaseCtx)
		done <- phaseResult[T]{value: v, err: err}
	}()

	select {
	case res := <-done:
		return res.value, time.Since(start), res.err
	case <-phaseCtx.Done():
		var zero T
		return zero, time.Since(start), fmt.Errorf("phase timed out after %s: %w", timeout, phaseCtx.Err())
	}
}

// classifyStageError maps a stage error onto the pipeline error
// taxonomy, tagging it with the originating phase and diagnostic
// context.
func classifyStageError(phase string, err error, kv ...any) *PipelineError {
	kind := KindGenerationFailed
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		kind = KindTimedOut
	case errors.Is(err, classifier.ErrValidation):
		kind = KindValidation
	case errors.Is(err, classifier.ErrAnalysisFailed):
		kind = KindAnalysisFailed
	case errors.Is(err, retrieval.ErrNoCandidatesFound):
		kind = KindNoCandidatesFound
	case errors.Is(err, retrieval.ErrInsufficientCandidates):
		kind = KindInsufficientCandidates
	case errors.Is(err, retrieval.ErrSearchFailed):
		kind = KindSearchFailed
	case errors.Is(err, brief.ErrEmptySelection):
		kind = KindEmptySelection
	case errors.Is(err, brief.ErrEmptyQuery):
		kind = KindEmptyQuery
	case errors.Is(err, brief.ErrBriefTooLarge):
		kind = KindBriefTooLarge
	case phase == PhaseBrief:
		kind = KindBriefGenerationFailed
	}
	return newError(kind, phase, err, kv...)
}
