// Copyright (C) 2025 Phoenix Labs (dev@phoenixlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package classifier maps a free-text problem description to a
// structured ProblemAnalysis via an LLM call constrained to JSON.
//
// # Description
//
// The model's output is treated as untrusted: enums are coerced to
// defaults, nature axes are clamped to [0,1], the suggested mix is
// renormalized when it drifts out of tolerance, and blank search
// queries fall back to the raw query. A malformed response is an
// AnalysisFailed condition, never a panic.
package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/phoenixlabs/PhoenixSprint/pkg/validation"
	"github.com/phoenixlabs/PhoenixSprint/services/llm"
	"github.com/phoenixlabs/PhoenixSprint/services/sprint/datatypes"
)

var tracer = otel.Tracer("phoenix.sprint.classifier")

var (
	// ErrValidation means the raw query failed input validation before
	// any model call was made.
	ErrValidation = errors.New("query validation failed")

	// ErrAnalysisFailed means the model call or response parsing failed.
	ErrAnalysisFailed = errors.New("problem analysis failed")
)

// mixTolerance bounds how far the suggested-mix sum may drift from 1
// before renormalization kicks in.
const mixTolerance = 0.1

// Classifier produces a structured analysis of a decision problem.
type Classifier interface {
	Classify(ctx context.Context, query string) (*datatypes.ProblemAnalysis, error)
}

// LLMClassifier implements Classifier over an injected LLM client.
//
// # Thread Safety
//
// Safe for concurrent use; each Classify call builds fresh state.
type LLMClassifier struct {
	client llm.LLMClient
}

var _ Classifier = (*LLMClassifier)(nil)

// NewLLMClassifier creates a classifier backed by the given LLM client.
func NewLLMClassifier(client llm.LLMClient) *LLMClassifier {
	return &LLMClassifier{client: client}
}

const classifySystemPrompt = `You are a decision-problem analyst. Given a user's description of a decision they face, respond with ONLY a JSON object, no prose, matching exactly this shape:
{
  "language": "<two-letter ISO code of the query language>",
  "complexity": "simple" | "moderate" | "complex",
  "urgency": "immediate" | "short-term" | "long-term",
  "nature": {"analytical": 0.0-1.0, "emotional": 0.0-1.0, "strategic": 0.0-1.0, "creative": 0.0-1.0},
  "suggested_mix": {"models_share": 0.0-1.0, "biases_share": 0.0-1.0, "general_share": 0.0-1.0},
  "search_queries": {"models": "<query for mental models>", "biases": "<query for cognitive biases and fallacies>", "general": "<query for general concepts>"}
}
The three suggested_mix shares must sum to 1. Each search query should be a short phrase optimized for semantic search over a knowledge base of thinking tools, written in English.`

// classifyResponse is the raw, untrusted JSON shape from the model.
type classifyResponse struct {
	Language     string                  `json:"language"`
	Complexity   string                  `json:"complexity"`
	Urgency      string                  `json:"urgency"`
	Nature       datatypes.ProblemNature `json:"nature"`
	SuggestedMix datatypes.SuggestedMix  `json:"suggested_mix"`
	SearchQuery  datatypes.SearchQueries `json:"search_queries"`
}

// Classify validates the query, invokes the model, and normalizes the
// response into a ProblemAnalysis.
//
// # Outputs
//
//   - *datatypes.ProblemAnalysis: The normalized analysis. Never nil on
//     success; every enum is valid and every axis is in [0,1].
//   - error: ErrValidation (wrapped) for bad input, ErrAnalysisFailed
//     (wrapped) for model or parse failures.
func (c *LLMClassifier) Classify(ctx context.Context, query string) (*datatypes.ProblemAnalysis, error) {
	ctx, span := tracer.Start(ctx, "Classify")
	defer span.End()

	sanitized, err := validation.SanitizeQuery(query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	raw, err := c.client.GenerateJSON(ctx, classifySystemPrompt, sanitized, llm.GenerationParams{})
	if err != nil {
		slog.Error("Classification call failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}

	var resp classifyResponse
	if err := json.Unmarshal([]byte(extractJSON(raw)), &resp); err != nil {
		slog.Error("Failed to parse classification response", "error", err)
		return nil, fmt.Errorf("%w: parsing response: %v", ErrAnalysisFailed, err)
	}

	analysis := normalize(sanitized, &resp)
	span.SetAttributes(
		attribute.String("complexity", string(analysis.Complexity)),
		attribute.String("urgency", string(analysis.Urgency)),
	)
	slog.Debug("Problem classified",
		"complexity", analysis.Complexity,
		"urgency", analysis.Urgency,
		"language", analysis.Language)
	return analysis, nil
}

// normalize coerces an untrusted model response into a valid analysis.
func normalize(query string, resp *classifyResponse) *datatypes.ProblemAnalysis {
	complexity := datatypes.Complexity(strings.ToLower(strings.TrimSpace(resp.Complexity)))
	if !complexity.Valid() {
		slog.Warn("Invalid complexity from classifier, using default",
			"provided", resp.Complexity, "default", datatypes.ComplexityModerate)
		complexity = datatypes.ComplexityModerate
	}

	urgency := datatypes.Urgency(strings.ToLower(strings.TrimSpace(resp.Urgency)))
	if !urgency.Valid() {
		slog.Warn("Invalid urgency from classifier, using default",
			"provided", resp.Urgency, "default", datatypes.UrgencyShortTerm)
		urgency = datatypes.UrgencyShortTerm
	}

	language := strings.ToLower(strings.TrimSpace(resp.Language))
	if language == "" {
		language = "en"
	}

	nature := datatypes.ProblemNature{
		Analytical: clamp01(resp.Nature.Analytical),
		Emotional:  clamp01(resp.Nature.Emotional),
		Strategic:  clamp01(resp.Nature.Strategic),
		Creative:   clamp01(resp.Nature.Creative),
	}

	queries := resp.SearchQuery
	if strings.TrimSpace(queries.Models) == "" {
		queries.Models = query
	}
	if strings.TrimSpace(queries.Biases) == "" {
		queries.Biases = query
	}
	if strings.TrimSpace(queries.General) == "" {
		queries.General = query
	}
	queries.Language = language

	return &datatypes.ProblemAnalysis{
		Query:         query,
		Language:      language,
		Complexity:    complexity,
		Urgency:       urgency,
		Nature:        nature,
		SuggestedMix:  normalizeMix(resp.SuggestedMix),
		SearchQueries: queries,
	}
}

// normalizeMix renormalizes the mix shares when their sum drifts outside
// the tolerance around 1. A degenerate all-zero mix falls back to an
// even-handed default.
func normalizeMix(mix datatypes.SuggestedMix) datatypes.SuggestedMix {
	mix.Models = clamp01(mix.Models)
	mix.Biases = clamp01(mix.Biases)
	mix.General = clamp01(mix.General)

	sum := mix.Sum()
	if sum <= 0 {
		slog.Warn("Degenerate suggested mix from classifier, using default")
		return datatypes.SuggestedMix{Models: 0.4, Biases: 0.3, General: 0.3}
	}
	if sum < 1-mixTolerance || sum > 1+mixTolerance {
		slog.Debug("Renormalizing suggested mix", "sum", sum)
		mix.Models /= sum
		mix.Biases /= sum
		mix.General /= sum
	}
	return mix
}

// extractJSON strips markdown code fences some models wrap around JSON
// despite the JSON-only instruction.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
