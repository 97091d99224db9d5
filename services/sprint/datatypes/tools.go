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

import "time"

// =============================================================================
// Knowledge Content
// =============================================================================

// ToolContent is one knowledge-base record: a mental model, cognitive
// bias, fallacy, or general concept with its explanatory fields.
//
// # Description
//
// Records originate from the knowledge JSON corpus (one file per tool)
// and are stored in the Weaviate KnowledgeTool class. Optional fields are
// empty strings when the corpus has no content for them; the scorer
// treats presence of a field as a quality signal.
//
// Identity is the ID field. Records are immutable once ingested.
type ToolContent struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	MainCategory   string   `json:"main_category"`
	Subcategory    string   `json:"subcategory"`
	Definition     string   `json:"definition"`
	ExtraContent   string   `json:"extra_content,omitempty"`
	ModernExample  string   `json:"modern_example,omitempty"`
	ClassicExample string   `json:"classic_example,omitempty"`
	Payoff         string   `json:"payoff,omitempty"`
	Mechanism      string   `json:"mechanism,omitempty"`
	OriginStory    string   `json:"origin_story,omitempty"`
	VisualMetaphor string   `json:"visual_metaphor,omitempty"`
	KeyTakeaway    string   `json:"key_takeaway,omitempty"`
	Pitfalls       []string `json:"pitfalls,omitempty"`
	Language       string   `json:"language"`
	Type           ToolType `json:"type"`

	// IsFoundational marks "super models": tools broadly applicable
	// across problem domains. At least one is always wanted in a
	// curated selection.
	IsFoundational bool `json:"is_foundational"`
}

// HasExample reports whether the record carries any worked example.
func (t *ToolContent) HasExample() bool {
	return t.ModernExample != "" || t.ClassicExample != ""
}

// Candidate is a tool surfaced by semantic retrieval, before weighting.
//
// Similarity is the Weaviate certainty in [0,1] for the search that
// surfaced it; Source records which of the three family searches won
// when the same tool appeared more than once.
type Candidate struct {
	ToolContent
	Similarity float64      `json:"similarity"`
	Source     SearchSource `json:"search_source"`
}

// =============================================================================
// Scoring
// =============================================================================

// ScoreBreakdown is the per-candidate component score vector.
//
// The five base components are in [0,1] and are combined by an
// urgency-specific weight profile; the two adjustments are in
// [-0.2, 0.2] and are added unweighted afterwards.
type ScoreBreakdown struct {
	DirectRelevance   float64 `json:"direct_relevance"`
	ApplicabilityNow  float64 `json:"applicability_now"`
	FoundationalValue float64 `json:"foundational_value"`
	SimplicityBonus   float64 `json:"simplicity_bonus"`
	TypeBalanceBonus  float64 `json:"type_balance_bonus"`

	UrgencyAdjustment   float64 `json:"urgency_adjustment"`
	EmotionalAdjustment float64 `json:"emotional_adjustment"`
}

// ScoredCandidate is a candidate with its score breakdown and reduced
// final score. Created once per candidate per request.
//
// ComplexityScore is derived as 1 - SimplicityBonus and is used only for
// reporting; it is not a scoring input.
type ScoredCandidate struct {
	Candidate
	Breakdown       ScoreBreakdown `json:"breakdown"`
	FinalScore      float64        `json:"final_score"`
	ComplexityScore float64        `json:"complexity_score"`
}

// =============================================================================
// Curation
// =============================================================================

// CuratedTool is a selected tool with its assigned phase and ordering.
// Order is 1-based and dense across the whole selection; PhaseOrder is
// 1-based and dense within the assigned phase.
type CuratedTool struct {
	ScoredCandidate
	Phase      Phase `json:"phase"`
	Order      int   `json:"order"`
	PhaseOrder int   `json:"phase_order"`
}

// CurationMetadata summarizes a curation attempt.
//
// MeetsMinimum is derived: true iff at least one foundational tool is
// present and the total count is at least three. Warnings carry soft
// constraint shortfalls; they never indicate failure.
type CurationMetadata struct {
	TotalCount       int              `json:"total_count"`
	TypeDistribution map[ToolType]int `json:"type_distribution"`
	PhasesUsed       []Phase          `json:"phases_used"`
	MeetsMinimum     bool             `json:"meets_minimum"`
	Warnings         []string         `json:"warnings"`
}

// CurationResult is the terminal artifact of the curation stage.
type CurationResult struct {
	Tools    []CuratedTool    `json:"tools"`
	Metadata CurationMetadata `json:"metadata"`
}

// =============================================================================
// Generation Request / Output
// =============================================================================

// ToolGuidance is the per-tool section contract inside a phase section.
type ToolGuidance struct {
	ToolTitle       string   `json:"tool_title"`
	WhyThisTool     string   `json:"why_this_tool"`
	HowToApply      string   `json:"how_to_apply"`
	WatchOutFor     string   `json:"watch_out_for"`
	ExpectedOutcome string   `json:"expected_outcome"`
	PromptQuestions []string `json:"prompt_questions"`
}

// PhaseSection is one ordered section of the output contract.
type PhaseSection struct {
	Phase Phase          `json:"phase"`
	Label string         `json:"label"`
	Tools []ToolGuidance `json:"tools"`
}

// OutputContract is the machine-checkable shape the downstream generator
// must produce for a brief.
type OutputContract struct {
	ExecutiveSummary  string         `json:"executive_summary"`
	Sections          []PhaseSection `json:"sections"`
	Checklist         []string       `json:"checklist"`
	DecisionPoints    []string       `json:"decision_points"`
	FailureIndicators []string       `json:"failure_indicators"`
	SuccessIndicators []string       `json:"success_indicators"`
}

// GenerationRequest packages the brief and contract for the downstream
// generation call.
type GenerationRequest struct {
	Brief           string         `json:"brief"`
	Contract        OutputContract `json:"contract"`
	Temperature     float32        `json:"temperature"`
	EstimatedTokens int            `json:"estimated_tokens"`
}

// GenerationOutput is the downstream generator's response plus its token
// usage metadata.
type GenerationOutput struct {
	Content          string `json:"content"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
}

// =============================================================================
// Pipeline Result
// =============================================================================

// PhaseTiming is the wall-clock duration of one pipeline phase.
type PhaseTiming struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
}

// TimingMetrics aggregates per-phase and total wall-clock durations for
// one pipeline run.
type TimingMetrics struct {
	Phases []PhaseTiming `json:"phases"`
	Total  time.Duration `json:"total"`
}

// Get returns the duration of the named phase and whether it was timed.
func (m *TimingMetrics) Get(name string) (time.Duration, bool) {
	for _, p := range m.Phases {
		if p.Name == name {
			return p.Duration, true
		}
	}
	return 0, false
}

// SprintResult is the single frozen record returned to callers for one
// request. Generated is nil when the generation phase was skipped.
type SprintResult struct {
	SprintID  string             `json:"sprint_id"`
	Analysis  *ProblemAnalysis   `json:"analysis"`
	Curation  *CurationResult    `json:"curation"`
	Request   *GenerationRequest `json:"generation_request"`
	Generated *GenerationOutput  `json:"generated,omitempty"`
	Timings   TimingMetrics      `json:"timings"`
	Warnings  []string           `json:"warnings"`
}
