// Copyright (C) 2025 Phoenix Labs (dev@phoenixlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package retrieval turns the classifier's three search queries into a
// deduplicated, similarity-ranked candidate set.
//
// # Description
//
// One retrieval issues a single batched embedding call for the three
// query strings, then fans out three vector searches (one per tool-type
// family) against the knowledge store. The searches run concurrently and
// are joined all-or-nothing: a failure in any search fails the whole
// retrieval. Merged results are deduplicated by content identity,
// keeping the occurrence with the higher similarity.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/phoenixlabs/PhoenixSprint/services/llm"
	"github.com/phoenixlabs/PhoenixSprint/services/sprint/datatypes"
)

var tracer = otel.Tracer("phoenix.sprint.retrieval")

// ===== Errors =====

var (
	// ErrNoCandidatesFound means the merged result set was empty after
	// deduplication. The query text likely has no semantic overlap with
	// the corpus, or the certainty thresholds filtered everything out.
	ErrNoCandidatesFound = errors.New("no candidates found")

	// ErrInsufficientCandidates means the merged set was non-empty but
	// smaller than the configured minimum needed for a useful curation.
	ErrInsufficientCandidates = errors.New("insufficient candidates")

	// ErrSearchFailed wraps store or embedding failures during the
	// fan-out phase.
	ErrSearchFailed = errors.New("search failed")
)

// ===== Configuration =====

// SearchConfig bounds one family search.
type SearchConfig struct {
	// Source labels the family this search serves.
	Source datatypes.SearchSource

	// Limit caps the number of results from this search.
	Limit int

	// Certainty is the minimum Weaviate certainty in [0,1].
	Certainty float64

	// Types restricts the search to these tool types. Empty means
	// unfiltered.
	Types []datatypes.ToolType

	// Language restricts the search to tools in one language. Set per
	// retrieval from the query's detected language; empty means
	// unfiltered.
	Language string
}

// RetrieverConfig holds the three family search configs and the global
// minimum candidate count.
type RetrieverConfig struct {
	Models  SearchConfig
	Biases  SearchConfig
	General SearchConfig

	// MinCandidates is the smallest merged set worth curating. Below it
	// retrieval fails with ErrInsufficientCandidates.
	MinCandidates int
}

// DefaultRetrieverConfig returns the production search bounds.
//
// The biases threshold is deliberately lower than the other two:
// cognitive-bias language is more diffuse, and a uniform threshold
// starves that family.
func DefaultRetrieverConfig() RetrieverConfig {
	return RetrieverConfig{
		Models: SearchConfig{
			Source:    datatypes.SourceModels,
			Limit:     15,
			Certainty: 0.72,
			Types:     []datatypes.ToolType{datatypes.ToolTypeMentalModel},
		},
		Biases: SearchConfig{
			Source:    datatypes.SourceBiases,
			Limit:     15,
			Certainty: 0.65,
			Types:     []datatypes.ToolType{datatypes.ToolTypeCognitiveBias, datatypes.ToolTypeFallacy},
		},
		General: SearchConfig{
			Source:    datatypes.SourceGeneral,
			Limit:     10,
			Certainty: 0.72,
		},
		MinCandidates: 3,
	}
}

// validateRetrieverConfig validates and corrects config values.
// Logs warnings for invalid values and applies defaults.
func validateRetrieverConfig(config RetrieverConfig) RetrieverConfig {
	defaults := DefaultRetrieverConfig()

	fix := func(name string, cfg, def SearchConfig) SearchConfig {
		if cfg.Limit < 1 {
			slog.Warn("Invalid search limit, using default",
				"search", name, "provided", cfg.Limit, "default", def.Limit)
			cfg.Limit = def.Limit
		}
		if cfg.Certainty <= 0 || cfg.Certainty > 1 {
			slog.Warn("Invalid search certainty, using default",
				"search", name, "provided", cfg.Certainty, "default", def.Certainty)
			cfg.Certainty = def.Certainty
		}
		if cfg.Source == "" {
			cfg.Source = def.Source
		}
		return cfg
	}

	config.Models = fix("models", config.Models, defaults.Models)
	config.Biases = fix("biases", config.Biases, defaults.Biases)
	config.General = fix("general", config.General, defaults.General)

	if config.MinCandidates < 1 {
		slog.Warn("Invalid MinCandidates config, using default",
			"provided", config.MinCandidates, "default", defaults.MinCandidates)
		config.MinCandidates = defaults.MinCandidates
	}
	return config
}

// ===== Retriever =====

// Retriever fans three family searches out against the knowledge store.
//
// # Thread Safety
//
// Safe for concurrent use. Each Retrieve call builds fresh state; the
// injected searcher and embedder are expected to be concurrency-safe.
type Retriever struct {
	searcher ToolSearcher
	embedder llm.Embedder
	config   RetrieverConfig
}

// NewRetriever creates a retriever with the given store searcher,
// embedding provider, and config. Config values are validated and
// corrected if necessary.
func NewRetriever(searcher ToolSearcher, embedder llm.Embedder, config RetrieverConfig) *Retriever {
	return &Retriever{
		searcher: searcher,
		embedder: embedder,
		config:   validateRetrieverConfig(config),
	}
}

// Retrieve embeds the three queries in one batched call, runs the three
// family searches concurrently, and merges the results.
//
// # Inputs
//
//   - ctx: Context for cancellation and timeout; cancels in-flight
//     searches on the first failure.
//   - queries: The classifier's per-family query strings.
//
// # Outputs
//
//   - []datatypes.Candidate: Deduplicated candidates sorted by
//     similarity descending. Duplicates keep the higher similarity and
//     the source that produced it.
//   - error: ErrSearchFailed (wrapped) on embedding or store failure,
//     ErrNoCandidatesFound on an empty merged set,
//     ErrInsufficientCandidates below the configured minimum.
func (r *Retriever) Retrieve(ctx context.Context, queries datatypes.SearchQueries) ([]datatypes.Candidate, error) {
	ctx, span := tracer.Start(ctx, "Retrieve")
	defer span.End()

	vectors, err := r.embedder.EmbedBatch(ctx, []string{queries.Models, queries.Biases, queries.General})
	if err != nil {
		return nil, fmt.Errorf("%w: embedding queries: %v", ErrSearchFailed, err)
	}
	if len(vectors) != 3 {
		return nil, fmt.Errorf("%w: expected 3 embeddings, got %d", ErrSearchFailed, len(vectors))
	}

	searches := []struct {
		vector []float32
		cfg    SearchConfig
	}{
		{vectors[0], r.config.Models},
		{vectors[1], r.config.Biases},
		{vectors[2], r.config.General},
	}
	for i := range searches {
		searches[i].cfg.Language = queries.Language
	}

	// All three searches must resolve; the errgroup cancels the others
	// on the first failure.
	results := make([][]datatypes.Candidate, len(searches))
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range searches {
		g.Go(func() error {
			found, err := r.searcher.Search(gctx, s.vector, s.cfg)
			if err != nil {
				return fmt.Errorf("%w: %s search: %v", ErrSearchFailed, s.cfg.Source, err)
			}
			results[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := dedupe(results)
	span.SetAttributes(attribute.Int("candidates.merged", len(merged)))

	if len(merged) == 0 {
		return nil, fmt.Errorf("%w: query %q", ErrNoCandidatesFound, queries.Models)
	}
	if len(merged) < r.config.MinCandidates {
		return nil, fmt.Errorf("%w: found %d, need at least %d",
			ErrInsufficientCandidates, len(merged), r.config.MinCandidates)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Similarity > merged[j].Similarity
	})

	slog.Debug("Retrieval complete",
		"models", len(results[0]),
		"biases", len(results[1]),
		"general", len(results[2]),
		"merged", len(merged))
	return merged, nil
}

// dedupe merges the per-search result slices by content identity. When
// an identity appears more than once, the occurrence with the higher
// similarity wins, along with its recorded source.
func dedupe(results [][]datatypes.Candidate) []datatypes.Candidate {
	seen := make(map[string]int)
	var merged []datatypes.Candidate
	for _, batch := range results {
		for _, c := range batch {
			if idx, ok := seen[c.ID]; ok {
				if c.Similarity > merged[idx].Similarity {
					merged[idx] = c
				}
				continue
			}
			seen[c.ID] = len(merged)
			merged = append(merged, c)
		}
	}
	return merged
}
