// Copyright (C) 2025 Phoenix Labs (dev@phoenixlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package brief

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phoenixlabs/PhoenixSprint/services/sprint/datatypes"
)

func testAnalysis() *datatypes.ProblemAnalysis {
	return &datatypes.ProblemAnalysis{
		Query:      "should I raise a bridge round or cut burn",
		Language:   "en",
		Complexity: datatypes.ComplexityModerate,
		Urgency:    datatypes.UrgencyShortTerm,
		Nature:     datatypes.ProblemNature{Analytical: 0.8, Emotional: 0.7, Strategic: 0.4, Creative: 0.1},
	}
}

func testCuration() *datatypes.CurationResult {
	tool := func(order int, title string, phase datatypes.Phase, toolType datatypes.ToolType, foundational bool) datatypes.CuratedTool {
		return datatypes.CuratedTool{
			ScoredCandidate: datatypes.ScoredCandidate{
				Candidate: datatypes.Candidate{
					ToolContent: datatypes.ToolContent{
						ID:             title,
						Title:          title,
						Definition:     "What " + title + " means.",
						KeyTakeaway:    "Takeaway for " + title + ".",
						Pitfalls:       []string{"misuse"},
						Type:           toolType,
						IsFoundational: foundational,
					},
				},
				FinalScore: 0.9 - float64(order)*0.05,
			},
			Phase:      phase,
			Order:      order,
			PhaseOrder: 1,
		}
	}
	return &datatypes.CurationResult{
		Tools: []datatypes.CuratedTool{
			tool(1, "First Principles", datatypes.PhaseDefinition, datatypes.ToolTypeMentalModel, true),
			tool(2, "Opportunity Cost", datatypes.PhaseDecision, datatypes.ToolTypeMentalModel, false),
			tool(3, "Sunk Cost Bias", datatypes.PhaseValidation, datatypes.ToolTypeCognitiveBias, false),
		},
		Metadata: datatypes.CurationMetadata{
			TotalCount:   3,
			PhasesUsed:   []datatypes.Phase{datatypes.PhaseDefinition, datatypes.PhaseDecision, datatypes.PhaseValidation},
			MeetsMinimum: true,
		},
	}
}

func TestBuild_BriefEmbedsProblemAndTools(t *testing.T) {
	req, err := Build(testCuration(), testAnalysis())
	require.NoError(t, err)

	assert.Contains(t, req.Brief, "should I raise a bridge round")
	assert.Contains(t, req.Brief, "Complexity: moderate")
	assert.Contains(t, req.Brief, "Urgency: short-term")
	assert.Contains(t, req.Brief, "First Principles")
	assert.Contains(t, req.Brief, "Foundational tool.")
	assert.Contains(t, req.Brief, "Phase: Validation")
	assert.Contains(t, req.Brief, "Pitfalls: misuse")
	assert.Equal(t, DefaultTemperature, req.Temperature)
	assert.Greater(t, req.EstimatedTokens, 0)
}

func TestBuild_NatureCalloutsAboveThresholdOnly(t *testing.T) {
	req, err := Build(testCuration(), testAnalysis())
	require.NoError(t, err)

	assert.Contains(t, req.Brief, "analytical (0.8)")
	assert.Contains(t, req.Brief, "emotional (0.7)")
	assert.NotContains(t, req.Brief, "strategic")
	assert.NotContains(t, req.Brief, "creative")
}

func TestBuild_ContractSectionsFollowPhases(t *testing.T) {
	req, err := Build(testCuration(), testAnalysis())
	require.NoError(t, err)

	require.Len(t, req.Contract.Sections, 3)
	assert.Equal(t, datatypes.PhaseDefinition, req.Contract.Sections[0].Phase)
	assert.Equal(t, "Definition", req.Contract.Sections[0].Label)
	require.Len(t, req.Contract.Sections[0].Tools, 1)
	assert.Equal(t, "First Principles", req.Contract.Sections[0].Tools[0].ToolTitle)
}

func TestBuild_DecisionPointsFlagBiases(t *testing.T) {
	req, err := Build(testCuration(), testAnalysis())
	require.NoError(t, err)

	require.Len(t, req.Contract.DecisionPoints, 1)
	assert.Contains(t, req.Contract.DecisionPoints[0], "Sunk Cost Bias")
}

func TestBuild_EmptySelection(t *testing.T) {
	_, err := Build(&datatypes.CurationResult{}, testAnalysis())
	assert.ErrorIs(t, err, ErrEmptySelection)

	_, err = Build(nil, testAnalysis())
	assert.ErrorIs(t, err, ErrEmptySelection)
}

func TestBuild_EmptyQuery(t *testing.T) {
	analysis := testAnalysis()
	analysis.Query = "  "

	_, err := Build(testCuration(), analysis)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestBuild_BriefTooLarge(t *testing.T) {
	curation := testCuration()
	// Inflate one definition past the token ceiling (8000 tokens at 4
	// chars per token).
	curation.Tools[0].Definition = strings.Repeat("x", 33000)

	_, err := Build(curation, testAnalysis())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBriefTooLarge)
	assert.Contains(t, err.Error(), "max 8000")
}

func TestBuild_WarningsSurfaceInBrief(t *testing.T) {
	curation := testCuration()
	curation.Metadata.Warnings = []string{"no foundational tool available for this selection"}

	req, err := Build(curation, testAnalysis())
	require.NoError(t, err)
	assert.Contains(t, req.Brief, "Selection notes: no foundational tool")
}
