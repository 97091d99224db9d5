// Copyright (C) 2025 Phoenix Labs (dev@phoenixlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package curation

import (
	"strings"

	"github.com/phoenixlabs/PhoenixSprint/services/sprint/datatypes"
)

// Keyword patterns for the phase-assignment cascade. Rules are evaluated
// in priority order against the tool's title and definition; the first
// matching rule wins. This is deliberately a cascade, not a classifier:
// ties resolve by rule order, never by score.
var (
	definitionKeywords = []string{
		"first principles",
		"definition",
		"fundamental",
		"framing",
		"problem statement",
		"root cause",
		"five whys",
		"socratic",
	}

	analysisKeywords = []string{
		"systems thinking",
		"causal",
		"cause and effect",
		"feedback loop",
		"bottleneck",
		"analysis",
		"deconstruct",
		"leverage point",
	}

	generationKeywords = []string{
		"inversion",
		"invert",
		"creative",
		"alternative",
		"brainstorm",
		"lateral",
		"divergent",
		"reframe",
	}

	decisionKeywords = []string{
		"cost-benefit",
		"opportunity cost",
		"decision",
		"trade-off",
		"tradeoff",
		"second-order",
		"expected value",
		"regret minimization",
	}

	validationKeywords = []string{
		"bias",
		"fallacy",
		"overconfidence",
		"confirmation",
		"sunk cost",
		"pre-mortem",
		"premortem",
	}
)

// AssignPhase maps a selected tool to exactly one problem-solving phase.
//
// # Description
//
// The cascade checks, in order: definitional patterns, analytical
// patterns, generative patterns, decision patterns, then bias patterns
// or bias/fallacy type. Tools matching nothing land in Analysis, which
// is also where unmatched mental models belong.
func AssignPhase(tool *datatypes.ScoredCandidate) datatypes.Phase {
	text := strings.ToLower(tool.Title + " " + tool.Definition)

	switch {
	case matchesAny(text, definitionKeywords):
		return datatypes.PhaseDefinition
	case matchesAny(text, analysisKeywords):
		return datatypes.PhaseAnalysis
	case matchesAny(text, generationKeywords):
		return datatypes.PhaseGeneration
	case matchesAny(text, decisionKeywords):
		return datatypes.PhaseDecision
	case tool.Type == datatypes.ToolTypeCognitiveBias,
		tool.Type == datatypes.ToolTypeFallacy,
		matchesAny(text, validationKeywords):
		return datatypes.PhaseValidation
	default:
		return datatypes.PhaseAnalysis
	}
}

func matchesAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
