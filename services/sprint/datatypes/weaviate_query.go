// Copyright (C) 2025 Phoenix Labs (dev@phoenixlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"encoding/json"
	"fmt"

	"github.com/weaviate/weaviate/entities/models"
)

// KnowledgeToolClass is the Weaviate class holding the tool corpus.
const KnowledgeToolClass = "KnowledgeTool"

// =============================================================================
// Generic GraphQL Response Parser
// =============================================================================

// ParseGraphQLResponse parses a Weaviate GraphQL response into the target type.
//
// # Description
//
// Encapsulates the marshal/unmarshal round trip required to convert
// Weaviate's dynamic response (map[string]models.JSONObject) into a
// strongly-typed struct. The target type T must carry json tags matching
// the response shape.
//
// # Inputs
//
//   - resp: The GraphQL response from the Weaviate client's Do() method.
//
// # Outputs
//
//   - *T: Pointer to the parsed struct.
//   - error: Non-nil if the response is nil or parsing fails.
//
// # Limitations
//
//   - Type mismatches yield zero values, not errors.
func ParseGraphQLResponse[T any](resp *models.GraphQLResponse) (*T, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil GraphQL response")
	}

	respBytes, err := json.Marshal(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GraphQL response data: %w", err)
	}

	var result T
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal into target type: %w", err)
	}

	return &result, nil
}

// =============================================================================
// KnowledgeTool Response Types
// =============================================================================

// KnowledgeToolResult is a single KnowledgeTool object from a nearVector
// query, including the certainty from _additional.
type KnowledgeToolResult struct {
	Title          string   `json:"title"`
	MainCategory   string   `json:"main_category"`
	Subcategory    string   `json:"subcategory"`
	Definition     string   `json:"definition"`
	ExtraContent   string   `json:"extra_content"`
	ModernExample  string   `json:"modern_example"`
	ClassicExample string   `json:"classic_example"`
	Payoff         string   `json:"payoff"`
	Mechanism      string   `json:"mechanism"`
	OriginStory    string   `json:"origin_story"`
	VisualMetaphor string   `json:"visual_metaphor"`
	KeyTakeaway    string   `json:"key_takeaway"`
	Pitfalls       []string `json:"pitfalls"`
	Language       string   `json:"language"`
	ToolType       string   `json:"tool_type"`
	IsFoundational bool     `json:"is_foundational"`
	Additional     struct {
		ID        string  `json:"id"`
		Certainty float64 `json:"certainty"`
	} `json:"_additional"`
}

// KnowledgeToolQueryResponse is the Get-query envelope for KnowledgeTool.
type KnowledgeToolQueryResponse struct {
	Get struct {
		KnowledgeTool []KnowledgeToolResult `json:"KnowledgeTool"`
	} `json:"Get"`
}

// ToCandidate converts a query result into a Candidate attributed to the
// given search family.
func (r *KnowledgeToolResult) ToCandidate(source SearchSource) Candidate {
	return Candidate{
		ToolContent: ToolContent{
			ID:             r.Additional.ID,
			Title:          r.Title,
			MainCategory:   r.MainCategory,
			Subcategory:    r.Subcategory,
			Definition:     r.Definition,
			ExtraContent:   r.ExtraContent,
			ModernExample:  r.ModernExample,
			ClassicExample: r.ClassicExample,
			Payoff:         r.Payoff,
			Mechanism:      r.Mechanism,
			OriginStory:    r.OriginStory,
			VisualMetaphor: r.VisualMetaphor,
			KeyTakeaway:    r.KeyTakeaway,
			Pitfalls:       r.Pitfalls,
			Language:       r.Language,
			Type:           ToolType(r.ToolType),
			IsFoundational: r.IsFoundational,
		},
		Similarity: r.Additional.Certainty,
		Source:     source,
	}
}

// KnowledgeToolProperties flattens a ToolContent into the property map
// used for Weaviate object creation.
func KnowledgeToolProperties(t *ToolContent) map[string]interface{} {
	pitfalls := t.Pitfalls
	if pitfalls == nil {
		pitfalls = []string{}
	}
	return map[string]interface{}{
		"title":           t.Title,
		"main_category":   t.MainCategory,
		"subcategory":     t.Subcategory,
		"definition":      t.Definition,
		"extra_content":   t.ExtraContent,
		"modern_example":  t.ModernExample,
		"classic_example": t.ClassicExample,
		"payoff":          t.Payoff,
		"mechanism":       t.Mechanism,
		"origin_story":    t.OriginStory,
		"visual_metaphor": t.VisualMetaphor,
		"key_takeaway":    t.KeyTakeaway,
		"pitfalls":        pitfalls,
		"language":        t.Language,
		"tool_type":       string(t.Type),
		"is_foundational": t.IsFoundational,
	}
}
