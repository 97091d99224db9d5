// Copyright (C) 2025 Phoenix Labs (dev@phoenixlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"

	"github.com/phoenixlabs/PhoenixSprint/services/sprint/datatypes"
)

// ToolSearcher runs one vector search against the knowledge store.
//
// Implementations must be safe for concurrent use; the retriever issues
// the three family searches in parallel against one searcher.
type ToolSearcher interface {
	Search(ctx context.Context, vector []float32, cfg SearchConfig) ([]datatypes.Candidate, error)
}

// WeaviateToolSearcher implements ToolSearcher against the KnowledgeTool
// class using nearVector queries with certainty thresholds.
//
// # Thread Safety
//
// Safe for concurrent use. The Weaviate client handles connection
// pooling internally.
type WeaviateToolSearcher struct {
	client *weaviate.Client
}

var _ ToolSearcher = (*WeaviateToolSearcher)(nil)

// NewWeaviateToolSearcher creates a searcher over the given client.
//
// # Assumptions
//
//   - The client is connected and the KnowledgeTool class exists.
//   - Stored vectors share the embedder's dimensionality.
func NewWeaviateToolSearcher(client *weaviate.Client) *WeaviateToolSearcher {
	return &WeaviateToolSearcher{client: client}
}

// Search runs one nearVector query bounded by the config's limit and
// certainty threshold, optionally filtered to a subset of tool types
// and a single language.
//
// # Outputs
//
//   - []datatypes.Candidate: Matches attributed to cfg.Source, with
//     similarity set from the certainty. Empty when nothing clears the
//     threshold; that is not an error.
//   - error: Non-nil on store or parse failure.
func (s *WeaviateToolSearcher) Search(ctx context.Context, vector []float32, cfg SearchConfig) ([]datatypes.Candidate, error) {
	ctx, span := tracer.Start(ctx, "ToolSearch")
	defer span.End()

	nearVector := s.client.GraphQL().NearVectorArgBuilder().
		WithVector(vector).
		WithCertainty(float32(cfg.Certainty))

	// certainty is requested instead of distance so similarity stays in
	// [0,1] regardless of the store's distance metric.
	fields := []graphql.Field{
		{Name: "title"},
		{Name: "main_category"},
		{Name: "subcategory"},
		{Name: "definition"},
		{Name: "extra_content"},
		{Name: "modern_example"},
		{Name: "classic_example"},
		{Name: "payoff"},
		{Name: "mechanism"},
		{Name: "origin_story"},
		{Name: "visual_metaphor"},
		{Name: "key_takeaway"},
		{Name: "pitfalls"},
		{Name: "language"},
		{Name: "tool_type"},
		{Name: "is_foundational"},
		{Name: "_additional", Fields: []graphql.Field{
			{Name: "id"},
			{Name: "certainty"},
		}},
	}

	query := s.client.GraphQL().Get().
		WithClassName(datatypes.KnowledgeToolClass).
		WithFields(fields...).
		WithNearVector(nearVector).
		WithLimit(cfg.Limit)

	if filter := whereFilter(cfg); filter != nil {
		query = query.WithWhere(filter)
	}

	result, err := query.Do(ctx)
	if err != nil {
		slog.Error("KnowledgeTool search failed", "source", cfg.Source, "error", err)
		return nil, fmt.Errorf("weaviate search failed: %w", err)
	}

	parsed, err := datatypes.ParseGraphQLResponse[datatypes.KnowledgeToolQueryResponse](result)
	if err != nil {
		slog.Error("Failed to parse KnowledgeTool results", "source", cfg.Source, "error", err)
		return nil, fmt.Errorf("failed to parse results: %w", err)
	}

	candidates := make([]datatypes.Candidate, 0, len(parsed.Get.KnowledgeTool))
	for i := range parsed.Get.KnowledgeTool {
		candidates = append(candidates, parsed.Get.KnowledgeTool[i].ToCandidate(cfg.Source))
	}

	slog.Debug("KnowledgeTool search complete",
		"source", cfg.Source,
		"count", len(candidates),
		"certainty", cfg.Certainty)
	return candidates, nil
}

// whereFilter builds the combined tool-type and language restriction,
// or nil for an unfiltered search.
func whereFilter(cfg SearchConfig) *filters.WhereBuilder {
	var operands []*filters.WhereBuilder
	if len(cfg.Types) > 0 {
		values := make([]string, len(cfg.Types))
		for i, t := range cfg.Types {
			values[i] = string(t)
		}
		operands = append(operands, filters.Where().
			WithPath([]string{"tool_type"}).
			WithOperator(filters.ContainsAny).
			WithValueText(values...))
	}
	if cfg.Language != "" {
		operands = append(operands, filters.Where().
			WithPath([]string{"language"}).
			WithOperator(filters.Equal).
			WithValueText(cfg.Language))
	}

	switch len(operands) {
	case 0:
		return nil
	case 1:
		return operands[0]
	default:
		return filters.Where().
			WithOperator(filters.And).
			WithOperands(operands)
	}
}
