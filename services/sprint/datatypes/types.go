// Copyright (C) 2025 Phoenix Labs (dev@phoenixlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes defines the data model shared by the sprint pipeline
// stages: the classified problem analysis, retrieved tool candidates,
// score breakdowns, curated tools, and the Weaviate response shapes.
//
// # Description
//
// Every type here is produced by exactly one pipeline stage and consumed
// read-only by later stages. Nothing in this package holds mutable state;
// a fresh set of values is built per request.
package datatypes

import "fmt"

// =============================================================================
// Closed Enumerations
// =============================================================================

// Complexity classifies how involved the decision problem is.
// It drives the curation target size (simple=4, moderate=5, complex=6).
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// Valid reports whether c is one of the three defined complexity levels.
func (c Complexity) Valid() bool {
	switch c {
	case ComplexitySimple, ComplexityModerate, ComplexityComplex:
		return true
	default:
		return false
	}
}

// Urgency classifies the time horizon of the decision. It selects the
// scoring weight profile: immediate problems surface simple, actionable
// tools while long-term problems surface foundational ones.
type Urgency string

const (
	UrgencyImmediate Urgency = "immediate"
	UrgencyShortTerm Urgency = "short-term"
	UrgencyLongTerm  Urgency = "long-term"
)

// Valid reports whether u is one of the three defined urgency levels.
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyImmediate, UrgencyShortTerm, UrgencyLongTerm:
		return true
	default:
		return false
	}
}

// ToolType is the closed set of thinking-tool families stored in the
// knowledge base.
type ToolType string

const (
	ToolTypeMentalModel    ToolType = "mental-model"
	ToolTypeCognitiveBias  ToolType = "cognitive-bias"
	ToolTypeFallacy        ToolType = "fallacy"
	ToolTypeGeneralConcept ToolType = "general-concept"
)

// Valid reports whether t is one of the four defined tool types.
func (t ToolType) Valid() bool {
	switch t {
	case ToolTypeMentalModel, ToolTypeCognitiveBias, ToolTypeFallacy, ToolTypeGeneralConcept:
		return true
	default:
		return false
	}
}

// ToolTypes returns the four tool types in their canonical order.
// Curation and scoring iterate this slice so per-type maps stay
// deterministic.
func ToolTypes() []ToolType {
	return []ToolType{
		ToolTypeMentalModel,
		ToolTypeCognitiveBias,
		ToolTypeFallacy,
		ToolTypeGeneralConcept,
	}
}

// SearchSource names the retrieval family that surfaced a candidate.
type SearchSource string

const (
	SourceModels  SearchSource = "models"
	SourceBiases  SearchSource = "biases"
	SourceGeneral SearchSource = "general"
)

// NatureAxis names one axis of the four-dimensional problem nature vector.
type NatureAxis string

const (
	AxisAnalytical NatureAxis = "analytical"
	AxisEmotional  NatureAxis = "emotional"
	AxisStrategic  NatureAxis = "strategic"
	AxisCreative   NatureAxis = "creative"
)

// =============================================================================
// Problem Analysis
// =============================================================================

// ProblemNature is the four-axis characterization of a decision problem.
// Each axis is in [0,1]; the axes are independent and do not need to sum
// to anything.
type ProblemNature struct {
	Analytical float64 `json:"analytical"`
	Emotional  float64 `json:"emotional"`
	Strategic  float64 `json:"strategic"`
	Creative   float64 `json:"creative"`
}

// DominantAxis returns the axis with the highest value. Ties are broken
// by a fixed precedence: analytical, emotional, strategic, creative.
// The precedence matters because the dominant axis selects the
// target-ratio table used for type balancing.
func (n ProblemNature) DominantAxis() NatureAxis {
	axis := AxisAnalytical
	best := n.Analytical
	if n.Emotional > best {
		axis, best = AxisEmotional, n.Emotional
	}
	if n.Strategic > best {
		axis, best = AxisStrategic, n.Strategic
	}
	if n.Creative > best {
		axis = AxisCreative
	}
	return axis
}

// SuggestedMix is the classifier's recommended share of each tool family
// in the final selection. Shares are intended to sum to 1 within a 0.1
// tolerance; the classifier renormalizes out-of-tolerance responses.
//
// Cognitive biases and fallacies together consume the Biases share.
type SuggestedMix struct {
	Models  float64 `json:"models_share"`
	Biases  float64 `json:"biases_share"`
	General float64 `json:"general_share"`
}

// Sum returns the total of the three shares.
func (m SuggestedMix) Sum() float64 {
	return m.Models + m.Biases + m.General
}

// SearchQueries holds the three family-specific query strings produced by
// the classifier, one per retrieval search.
type SearchQueries struct {
	Models  string `json:"models"`
	Biases  string `json:"biases"`
	General string `json:"general"`

	// Language restricts retrieval to tools in the query's detected
	// language. Set from the analysis, never by the model; empty means
	// unfiltered.
	Language string `json:"-"`
}

// ProblemAnalysis is the structured classification of a raw query.
//
// # Description
//
// Produced once by the classifier, then consumed read-only by every later
// pipeline stage. Fields are never mutated after creation.
type ProblemAnalysis struct {
	Query         string        `json:"query"`
	Language      string        `json:"language"`
	Complexity    Complexity    `json:"complexity"`
	Urgency       Urgency       `json:"urgency"`
	Nature        ProblemNature `json:"nature"`
	SuggestedMix  SuggestedMix  `json:"suggested_mix"`
	SearchQueries SearchQueries `json:"search_queries"`
}

// TargetToolCount maps complexity to the curation target size.
// This is a fixed table, not a formula.
func (a *ProblemAnalysis) TargetToolCount() int {
	switch a.Complexity {
	case ComplexitySimple:
		return 4
	case ComplexityModerate:
		return 5
	case ComplexityComplex:
		return 6
	default:
		return 5
	}
}

// =============================================================================
// Problem-Solving Phases
// =============================================================================

// Phase is one of the five fixed problem-solving stages used to sequence
// curated tools. The numeric order is the presentation order.
type Phase int

const (
	PhaseDefinition Phase = iota + 1
	PhaseAnalysis
	PhaseGeneration
	PhaseDecision
	PhaseValidation
)

// Phases returns all five phases in their fixed presentation order.
func Phases() []Phase {
	return []Phase{PhaseDefinition, PhaseAnalysis, PhaseGeneration, PhaseDecision, PhaseValidation}
}

// String returns the human-readable phase label.
func (p Phase) String() string {
	switch p {
	case PhaseDefinition:
		return "Definition"
	case PhaseAnalysis:
		return "Analysis"
	case PhaseGeneration:
		return "Generation"
	case PhaseDecision:
		return "Decision"
	case PhaseValidation:
		return "Validation"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Valid reports whether p is one of the five defined phases.
func (p Phase) Valid() bool {
	return p >= PhaseDefinition && p <= PhaseValidation
}
