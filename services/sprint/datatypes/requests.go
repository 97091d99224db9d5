// Copyright (C) 2025 Phoenix Labs (dev@phoenixlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

// SprintRequest is the HTTP payload for starting a decision sprint.
type SprintRequest struct {
	// Query is the founder's free-text problem description.
	Query string `json:"query" binding:"required"`

	// Generate controls whether the downstream generation call runs.
	// When false the response carries the brief and contract only.
	Generate bool `json:"generate"`

	// Temperature is passed through to the generation call. Zero means
	// the service default.
	Temperature float32 `json:"temperature,omitempty"`
}

// SprintResponse is the HTTP envelope around a SprintResult.
type SprintResponse struct {
	Result *SprintResult `json:"result"`
}

// KnowledgeRecord is one knowledge JSON file from the corpus, in the
// field naming the enrichment scripts produce.
type KnowledgeRecord struct {
	Name           string   `json:"knowledge_piece_name" validate:"required"`
	MainCategory   string   `json:"main_category" validate:"required"`
	Subcategory    string   `json:"subcategory"`
	Definition     string   `json:"definition" validate:"required"`
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
	ToolType       string   `json:"tool_type" validate:"required"`
	SuperModel     bool     `json:"super_model"`
}

// ToToolContent converts a corpus record into the canonical ToolContent
// shape. The corpus marks foundational tools as "super models".
func (r *KnowledgeRecord) ToToolContent() ToolContent {
	lang := r.Language
	if lang == "" {
		lang = "en"
	}
	return ToolContent{
		Title:          r.Name,
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
		Language:       lang,
		Type:           ToolType(r.ToolType),
		IsFoundational: r.SuperModel,
	}
}

// KnowledgeIngestRequest is the HTTP payload for loading corpus records.
type KnowledgeIngestRequest struct {
	Records []KnowledgeRecord `json:"records" binding:"required"`
}
