// Copyright (C) 2025 Phoenix Labs (dev@phoenixlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package curation

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phoenixlabs/PhoenixSprint/services/sprint/datatypes"
	"github.com/phoenixlabs/PhoenixSprint/services/sprint/scoring"
)

func testAnalysis(complexity datatypes.Complexity, urgency datatypes.Urgency, nature datatypes.ProblemNature) *datatypes.ProblemAnalysis {
	return &datatypes.ProblemAnalysis{
		Query:      "should I pivot my startup",
		Language:   "en",
		Complexity: complexity,
		Urgency:    urgency,
		Nature:     nature,
		SuggestedMix: datatypes.SuggestedMix{
			Models: 0.5, Biases: 0.3, General: 0.2,
		},
	}
}

// testScored builds a candidate with a neutral title and definition so
// phase assignment falls through to the Analysis default unless the test
// sets keyword-bearing text explicitly, then scores it against an empty
// selection.
func testScored(analysis *datatypes.ProblemAnalysis, id string, toolType datatypes.ToolType, foundational bool, similarity float64) datatypes.ScoredCandidate {
	c := datatypes.Candidate{
		ToolContent: datatypes.ToolContent{
			ID:             id,
			Title:          "Tool " + id,
			MainCategory:   "General",
			Definition:     "A short explanation of the idea.",
			Language:       "en",
			Type:           toolType,
			IsFoundational: foundational,
		},
		Similarity: similarity,
		Source:     datatypes.SourceModels,
	}
	return scoring.ScoreCandidate(c, analysis, nil)
}

// testPool builds a pool large enough to fill any target, with every
// tool type represented and two foundational tools.
func testPool(analysis *datatypes.ProblemAnalysis) []datatypes.ScoredCandidate {
	var pool []datatypes.ScoredCandidate
	types := datatypes.ToolTypes()
	for i := 0; i < 16; i++ {
		id := fmt.Sprintf("c%02d", i)
		sim := 0.90 - float64(i)*0.02
		pool = append(pool, testScored(analysis, id, types[i%len(types)], i < 2, sim))
	}
	return pool
}

// =============================================================================
// Selection Size
// =============================================================================

func TestCurate_TargetCountByComplexity(t *testing.T) {
	cases := []struct {
		complexity datatypes.Complexity
		want       int
	}{
		{datatypes.ComplexitySimple, 4},
		{datatypes.ComplexityModerate, 5},
		{datatypes.ComplexityComplex, 6},
	}

	for _, tc := range cases {
		t.Run(string(tc.complexity), func(t *testing.T) {
			analysis := testAnalysis(tc.complexity, datatypes.UrgencyShortTerm, datatypes.ProblemNature{Analytical: 0.7})
			result := Curate(testPool(analysis), analysis)

			require.NotNil(t, result)
			assert.Len(t, result.Tools, tc.want)
			assert.Equal(t, tc.want, result.Metadata.TotalCount)
			assert.True(t, result.Metadata.MeetsMinimum)
		})
	}
}

func TestCurate_ShortageSelectsAllAndWarns(t *testing.T) {
	analysis := testAnalysis(datatypes.ComplexityModerate, datatypes.UrgencyShortTerm, datatypes.ProblemNature{Analytical: 0.7})
	pool := []datatypes.ScoredCandidate{
		testScored(analysis, "a", datatypes.ToolTypeMentalModel, true, 0.8),
		testScored(analysis, "b", datatypes.ToolTypeGeneralConcept, false, 0.7),
	}

	result := Curate(pool, analysis)

	assert.Len(t, result.Tools, 2)
	require.NotEmpty(t, result.Metadata.Warnings)
	assert.Contains(t, result.Metadata.Warnings[0], "requested 5 tools but only 2 candidates")
	// Two tools is below the hard minimum of three.
	assert.False(t, result.Metadata.MeetsMinimum)
}

func TestCurate_EmptyPool(t *testing.T) {
	analysis := testAnalysis(datatypes.ComplexitySimple, datatypes.UrgencyShortTerm, datatypes.ProblemNature{Analytical: 0.7})

	result := Curate(nil, analysis)

	require.NotNil(t, result)
	assert.Empty(t, result.Tools)
	assert.False(t, result.Metadata.MeetsMinimum)
	assert.NotEmpty(t, result.Metadata.Warnings)
}

// =============================================================================
// Foundational Seeding
// =============================================================================

func TestCurate_SeedsTwoFoundationalWhenAvailable(t *testing.T) {
	analysis := testAnalysis(datatypes.ComplexitySimple, datatypes.UrgencyShortTerm, datatypes.ProblemNature{Analytical: 0.7})
	result := Curate(testPool(analysis), analysis)

	foundational := 0
	for _, tool := range result.Tools {
		if tool.IsFoundational {
			foundational++
		}
	}
	assert.Equal(t, 2, foundational)
}

func TestCurate_FoundationalCappedAtTwo(t *testing.T) {
	analysis := testAnalysis(datatypes.ComplexityComplex, datatypes.UrgencyLongTerm, datatypes.ProblemNature{Analytical: 0.7})
	analysis.SuggestedMix = datatypes.SuggestedMix{Models: 0.6, Biases: 0.2, General: 0.2}

	// Five high-similarity foundational mental models compete for fill
	// slots; only the two seeded ones may survive.
	var pool []datatypes.ScoredCandidate
	for i := 0; i < 5; i++ {
		pool = append(pool, testScored(analysis, fmt.Sprintf("f%d", i), datatypes.ToolTypeMentalModel, true, 0.95-float64(i)*0.01))
	}
	types := datatypes.ToolTypes()
	for i := 0; i < 12; i++ {
		pool = append(pool, testScored(analysis, fmt.Sprintf("n%02d", i), types[i%len(types)], false, 0.80-float64(i)*0.01))
	}

	result := Curate(pool, analysis)

	require.Len(t, result.Tools, 6)
	foundational := 0
	for _, tool := range result.Tools {
		if tool.IsFoundational {
			foundational++
		}
	}
	assert.Equal(t, 2, foundational)
}

func TestCurate_LowScoringFoundationalStillSeeded(t *testing.T) {
	analysis := testAnalysis(datatypes.ComplexitySimple, datatypes.UrgencyShortTerm, datatypes.ProblemNature{Analytical: 0.7})

	// One foundational tool with far lower similarity than the rest.
	pool := []datatypes.ScoredCandidate{
		testScored(analysis, "weak-foundation", datatypes.ToolTypeMentalModel, true, 0.10),
	}
	for i := 0; i < 10; i++ {
		pool = append(pool, testScored(analysis, fmt.Sprintf("strong%d", i), datatypes.ToolTypeMentalModel, false, 0.95))
	}

	result := Curate(pool, analysis)

	found := false
	for _, tool := range result.Tools {
		if tool.ID == "weak-foundation" {
			found = true
		}
	}
	assert.True(t, found, "seeded foundational tool must survive higher-scoring competition")
	assert.True(t, result.Metadata.MeetsMinimum)
}

func TestCurate_NoFoundationalWarning(t *testing.T) {
	analysis := testAnalysis(datatypes.ComplexitySimple, datatypes.UrgencyShortTerm, datatypes.ProblemNature{Analytical: 0.7})

	var pool []datatypes.ScoredCandidate
	for i := 0; i < 8; i++ {
		pool = append(pool, testScored(analysis, fmt.Sprintf("m%d", i), datatypes.ToolTypeMentalModel, false, 0.8))
	}

	result := Curate(pool, analysis)

	assert.False(t, result.Metadata.MeetsMinimum)
	found := false
	for _, w := range result.Metadata.Warnings {
		if strings.Contains(w, "foundational") {
			found = true
		}
	}
	assert.True(t, found)
}

// =============================================================================
// Soft Requirements
// =============================================================================

func TestCurate_EmotionalBiasCoverageWarning(t *testing.T) {
	nature := datatypes.ProblemNature{Analytical: 0.2, Emotional: 0.8}
	analysis := testAnalysis(datatypes.ComplexitySimple, datatypes.UrgencyShortTerm, nature)

	// No bias or fallacy tools anywhere in the pool.
	var pool []datatypes.ScoredCandidate
	for i := 0; i < 8; i++ {
		pool = append(pool, testScored(analysis, fmt.Sprintf("m%d", i), datatypes.ToolTypeMentalModel, i == 0, 0.8))
	}

	result := Curate(pool, analysis)

	found := false
	for _, w := range result.Metadata.Warnings {
		if strings.Contains(w, "bias") {
			found = true
		}
	}
	assert.True(t, found)
	// Warnings do not block the minimum when foundational and count hold.
	assert.True(t, result.Metadata.MeetsMinimum)
}

func TestCurate_NoBiasWarningForAnalyticalProblems(t *testing.T) {
	nature := datatypes.ProblemNature{Analytical: 0.9, Emotional: 0.1}
	analysis := testAnalysis(datatypes.ComplexitySimple, datatypes.UrgencyShortTerm, nature)

	var pool []datatypes.ScoredCandidate
	for i := 0; i < 8; i++ {
		pool = append(pool, testScored(analysis, fmt.Sprintf("m%d", i), datatypes.ToolTypeMentalModel, i == 0, 0.8))
	}

	result := Curate(pool, analysis)

	for _, w := range result.Metadata.Warnings {
		assert.NotContains(t, w, "emotional nature")
	}
}

// =============================================================================
// Type Mix
// =============================================================================

func TestCurate_MixShapesTypeDistribution(t *testing.T) {
	analysis := testAnalysis(datatypes.ComplexityComplex, datatypes.UrgencyShortTerm, datatypes.ProblemNature{Analytical: 0.8})
	analysis.SuggestedMix = datatypes.SuggestedMix{Models: 0.5, Biases: 0.3, General: 0.2}

	result := Curate(testPool(analysis), analysis)

	require.Len(t, result.Tools, 6)
	dist := result.Metadata.TypeDistribution
	// Seeding can tilt the counts, but the mix must still dominate:
	// mental models hold the plurality for a models-heavy mix.
	for _, tt := range datatypes.ToolTypes() {
		if tt == datatypes.ToolTypeMentalModel {
			continue
		}
		assert.GreaterOrEqual(t, dist[datatypes.ToolTypeMentalModel], dist[tt])
	}
}

func TestCurate_SpillFillsWhenTypeExhausted(t *testing.T) {
	analysis := testAnalysis(datatypes.ComplexityModerate, datatypes.UrgencyShortTerm, datatypes.ProblemNature{Analytical: 0.7})
	analysis.SuggestedMix = datatypes.SuggestedMix{Models: 0.8, Biases: 0.1, General: 0.1}

	// Only one mental model exists; general concepts must fill the rest.
	pool := []datatypes.ScoredCandidate{
		testScored(analysis, "m0", datatypes.ToolTypeMentalModel, true, 0.9),
	}
	for i := 0; i < 8; i++ {
		pool = append(pool, testScored(analysis, fmt.Sprintf("g%d", i), datatypes.ToolTypeGeneralConcept, false, 0.7))
	}

	result := Curate(pool, analysis)

	assert.Len(t, result.Tools, 5)
	assert.Equal(t, 1, result.Metadata.TypeDistribution[datatypes.ToolTypeMentalModel])
	assert.Equal(t, 4, result.Metadata.TypeDistribution[datatypes.ToolTypeGeneralConcept])
}

// =============================================================================
// Sequencing
// =============================================================================

func TestCurate_DenseOrderingAcrossPhases(t *testing.T) {
	analysis := testAnalysis(datatypes.ComplexityComplex, datatypes.UrgencyShortTerm, datatypes.ProblemNature{Analytical: 0.7})

	// Mix of keyword-bearing titles so several phases are populated.
	pool := []datatypes.ScoredCandidate{}
	titles := []struct {
		id    string
		title string
		tt    datatypes.ToolType
	}{
		{"fp", "First Principles Thinking", datatypes.ToolTypeMentalModel},
		{"st", "Systems Thinking", datatypes.ToolTypeMentalModel},
		{"inv", "Inversion", datatypes.ToolTypeMentalModel},
		{"oc", "Opportunity Cost", datatypes.ToolTypeMentalModel},
		{"cb", "Confirmation Tendency", datatypes.ToolTypeCognitiveBias},
		{"gc", "Occam's Razor", datatypes.ToolTypeGeneralConcept},
	}
	for i, tc := range titles {
		sc := testScored(analysis, tc.id, tc.tt, i == 0, 0.85-float64(i)*0.01)
		sc.Title = tc.title
		pool = append(pool, sc)
	}

	result := Curate(pool, analysis)
	require.Len(t, result.Tools, 6)

	// Global order is dense 1..N and phases never decrease.
	phaseOrders := map[datatypes.Phase]int{}
	for i, tool := range result.Tools {
		assert.Equal(t, i+1, tool.Order)
		if i > 0 {
			assert.GreaterOrEqual(t, tool.Phase, result.Tools[i-1].Phase)
		}
		phaseOrders[tool.Phase]++
		assert.Equal(t, phaseOrders[tool.Phase], tool.PhaseOrder)
	}
	assert.GreaterOrEqual(t, len(result.Metadata.PhasesUsed), 4)
}

func TestCurate_PhaseOrderedByScoreWithinPhase(t *testing.T) {
	analysis := testAnalysis(datatypes.ComplexityModerate, datatypes.UrgencyShortTerm, datatypes.ProblemNature{Analytical: 0.7})
	result := Curate(testPool(analysis), analysis)

	byPhase := map[datatypes.Phase][]datatypes.CuratedTool{}
	for _, tool := range result.Tools {
		byPhase[tool.Phase] = append(byPhase[tool.Phase], tool)
	}
	for _, group := range byPhase {
		for i := 1; i < len(group); i++ {
			assert.GreaterOrEqual(t, group[i-1].FinalScore, group[i].FinalScore)
		}
	}
}

// =============================================================================
// Phase Assignment Cascade
// =============================================================================

func TestAssignPhase_Cascade(t *testing.T) {
	cases := []struct {
		name       string
		title      string
		definition string
		toolType   datatypes.ToolType
		want       datatypes.Phase
	}{
		{"first principles", "First Principles Thinking", "Break a problem down to fundamental truths.", datatypes.ToolTypeMentalModel, datatypes.PhaseDefinition},
		{"root cause", "Five Whys", "Ask why repeatedly to find the root cause.", datatypes.ToolTypeGeneralConcept, datatypes.PhaseDefinition},
		{"systems", "Systems Thinking", "See the whole and its feedback loops.", datatypes.ToolTypeMentalModel, datatypes.PhaseAnalysis},
		{"inversion", "Inversion", "Approach the problem backward.", datatypes.ToolTypeMentalModel, datatypes.PhaseGeneration},
		{"opportunity cost", "Opportunity Cost", "What you give up by choosing.", datatypes.ToolTypeMentalModel, datatypes.PhaseDecision},
		{"plain bias by type", "Anchoring", "Relying too heavily on the first number seen.", datatypes.ToolTypeCognitiveBias, datatypes.PhaseValidation},
		{"plain fallacy by type", "Straw Man", "Attacking a distorted version of an argument.", datatypes.ToolTypeFallacy, datatypes.PhaseValidation},
		{"premortem concept", "Pre-Mortem", "Imagine the plan has already failed.", datatypes.ToolTypeGeneralConcept, datatypes.PhaseValidation},
		{"unmatched default", "Occam's Razor", "Prefer the simpler explanation.", datatypes.ToolTypeGeneralConcept, datatypes.PhaseAnalysis},
		// Keyword rules outrank the type rule: a bias whose text matches
		// an earlier rule lands in that earlier phase.
		{"bias with decision keyword", "Decision Fatigue", "Choices degrade after many decisions.", datatypes.ToolTypeCognitiveBias, datatypes.PhaseDecision},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sc := datatypes.ScoredCandidate{
				Candidate: datatypes.Candidate{
					ToolContent: datatypes.ToolContent{
						ID:         tc.name,
						Title:      tc.title,
						Definition: tc.definition,
						Type:       tc.toolType,
					},
				},
			}
			assert.Equal(t, tc.want, AssignPhase(&sc))
		})
	}
}
