// Copyright (C) 2025 Phoenix Labs (dev@phoenixlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package brief serializes a curated tool selection and its problem
// analysis into a generation request: a natural-language brief plus a
// machine-checkable output-shape contract for the downstream generator.
package brief

import (
	"errors"
	"fmt"
	"strings"

	"github.com/phoenixlabs/PhoenixSprint/services/sprint/datatypes"
)

var (
	// ErrEmptySelection means curation produced zero tools; there is
	// nothing to brief the generator about.
	ErrEmptySelection = errors.New("empty tool selection")

	// ErrEmptyQuery means the analysis carries no query text.
	ErrEmptyQuery = errors.New("empty query in analysis")

	// ErrBriefTooLarge means the serialized brief would overflow the
	// downstream generation call's input budget.
	ErrBriefTooLarge = errors.New("brief exceeds token ceiling")
)

// maxBriefTokens is the input ceiling for the downstream generation
// call.
const maxBriefTokens = 8000

// natureCalloutThreshold is the per-axis level above which a nature axis
// is called out explicitly in the problem block.
const natureCalloutThreshold = 0.6

// DefaultTemperature is used when the caller does not override the
// generation temperature.
const DefaultTemperature float32 = 0.7

// Build serializes the curation result and analysis into a generation
// request.
//
// # Inputs
//
//   - result: The curated selection. Must contain at least one tool.
//   - analysis: The problem analysis. Must carry the original query.
//
// # Outputs
//
//   - *datatypes.GenerationRequest: Brief text, output contract,
//     default temperature, and the estimated token count.
//   - error: ErrEmptySelection, ErrEmptyQuery, or ErrBriefTooLarge.
func Build(result *datatypes.CurationResult, analysis *datatypes.ProblemAnalysis) (*datatypes.GenerationRequest, error) {
	if result == nil || len(result.Tools) == 0 {
		return nil, ErrEmptySelection
	}
	if analysis == nil || strings.TrimSpace(analysis.Query) == "" {
		return nil, ErrEmptyQuery
	}

	text := renderBrief(result, analysis)
	tokens := estimateTokens(text)
	if tokens > maxBriefTokens {
		return nil, fmt.Errorf("%w: estimated %d tokens (max %d)", ErrBriefTooLarge, tokens, maxBriefTokens)
	}

	return &datatypes.GenerationRequest{
		Brief:           text,
		Contract:        buildContract(result),
		Temperature:     DefaultTemperature,
		EstimatedTokens: tokens,
	}, nil
}

// renderBrief writes the natural-language brief: a problem block, one
// section per used phase with per-tool metadata, and closing
// instructions.
func renderBrief(result *datatypes.CurationResult, analysis *datatypes.ProblemAnalysis) string {
	var b strings.Builder

	b.WriteString("# Decision Sprint Brief\n\n")
	b.WriteString("## Problem\n")
	fmt.Fprintf(&b, "Query: %s\n", analysis.Query)
	fmt.Fprintf(&b, "Complexity: %s\n", analysis.Complexity)
	fmt.Fprintf(&b, "Urgency: %s\n", analysis.Urgency)
	if callouts := natureCallouts(analysis.Nature); len(callouts) > 0 {
		fmt.Fprintf(&b, "Dominant characteristics: %s\n", strings.Join(callouts, ", "))
	}
	if len(result.Metadata.Warnings) > 0 {
		fmt.Fprintf(&b, "Selection notes: %s\n", strings.Join(result.Metadata.Warnings, "; "))
	}
	b.WriteString("\n")

	for _, phase := range result.Metadata.PhasesUsed {
		fmt.Fprintf(&b, "## Phase: %s\n", phase)
		for _, tool := range result.Tools {
			if tool.Phase != phase {
				continue
			}
			fmt.Fprintf(&b, "### %d. %s (%s, score %.2f)\n", tool.Order, tool.Title, tool.Type, tool.FinalScore)
			if tool.IsFoundational {
				b.WriteString("Foundational tool.\n")
			}
			fmt.Fprintf(&b, "Definition: %s\n", tool.Definition)
			if tool.KeyTakeaway != "" {
				fmt.Fprintf(&b, "Key takeaway: %s\n", tool.KeyTakeaway)
			}
			if tool.Payoff != "" {
				fmt.Fprintf(&b, "Payoff: %s\n", tool.Payoff)
			}
			if len(tool.Pitfalls) > 0 {
				fmt.Fprintf(&b, "Pitfalls: %s\n", strings.Join(tool.Pitfalls, "; "))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("## Instructions\n")
	b.WriteString("Produce a practical decision-sprint guide for this problem. ")
	b.WriteString("Walk the reader through the phases in order, applying each tool to the query above. ")
	b.WriteString("Keep guidance concrete and specific to the stated problem; flag decision points where the listed biases and fallacies are likely to distort judgment.\n")

	return b.String()
}

// natureCallouts names the nature axes above the callout threshold.
func natureCallouts(n datatypes.ProblemNature) []string {
	var out []string
	axes := []struct {
		name  datatypes.NatureAxis
		value float64
	}{
		{datatypes.AxisAnalytical, n.Analytical},
		{datatypes.AxisEmotional, n.Emotional},
		{datatypes.AxisStrategic, n.Strategic},
		{datatypes.AxisCreative, n.Creative},
	}
	for _, a := range axes {
		if a.value > natureCalloutThreshold {
			out = append(out, fmt.Sprintf("%s (%.1f)", a.name, a.value))
		}
	}
	return out
}

// buildContract derives the output-shape contract from the curated
// selection: one ordered section per used phase, one guidance slot per
// tool, and decision points flagged for every bias or fallacy selected.
func buildContract(result *datatypes.CurationResult) datatypes.OutputContract {
	sections := make([]datatypes.PhaseSection, 0, len(result.Metadata.PhasesUsed))
	var decisionPoints []string

	for _, phase := range result.Metadata.PhasesUsed {
		section := datatypes.PhaseSection{Phase: phase, Label: phase.String()}
		for _, tool := range result.Tools {
			if tool.Phase != phase {
				continue
			}
			section.Tools = append(section.Tools, datatypes.ToolGuidance{ToolTitle: tool.Title})
			if tool.Type == datatypes.ToolTypeCognitiveBias || tool.Type == datatypes.ToolTypeFallacy {
				decisionPoints = append(decisionPoints,
					fmt.Sprintf("Where might %s distort this decision?", tool.Title))
			}
		}
		sections = append(sections, section)
	}

	return datatypes.OutputContract{
		Sections:       sections,
		DecisionPoints: decisionPoints,
	}
}

// estimateTokens approximates the token count of English prose. Four
// characters per token tracks the downstream tokenizer closely enough
// for a budget check.
func estimateTokens(text string) int {
	return len(text) / 4
}
