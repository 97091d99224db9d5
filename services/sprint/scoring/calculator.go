// Copyright (C) 2025 Phoenix Labs (dev@phoenixlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package scoring turns retrieved candidates into scored candidates using
// urgency-dependent weight profiles and a type-balance signal computed
// against the running selection.
//
// # Description
//
// Every number produced here is a deterministic, explainable function of
// bounded inputs: the candidate record, the problem analysis, and the
// tool types already selected. There is no learned component and no
// state carried across requests.
//
// # Consistency Contract
//
// ScoreCandidate and ScoreAll must produce numerically identical results
// for the same (candidate, analysis, selection) inputs. The curator
// relies on this when it rescores remaining candidates one at a time
// while the selection grows.
package scoring

import (
	"math"
	"strings"

	"github.com/phoenixlabs/PhoenixSprint/services/sprint/datatypes"
)

// Thresholds for the nature-driven boosts and adjustments.
const (
	emotionalBoostThreshold   = 0.7
	analyticalBoostThreshold  = 0.7
	emotionalAdjustThreshold  = 0.6
	simplicityLongDefinition  = 500
	simplicityLengthBonusMax  = 0.33
	simplicityCap             = 0.95
	adjustmentLimit           = 0.2
)

// Main categories treated as purely analytical for the emotional
// adjustment penalty. Matched against the normalized MainCategory.
var analyticalCategories = map[string]bool{
	"logic & analysis": true,
	"formal logic":     true,
	"mathematics":      true,
	"statistics":       true,
}

// ScoreCandidate computes the score breakdown and final score for one
// candidate.
//
// # Description
//
// The five base components are combined with the urgency-selected weight
// profile, the two adjustments are added unweighted, and the total is
// clamped to [0,1]. The selection parameter feeds only the type-balance
// component; pass the candidates already accepted so far, or nil for an
// empty selection.
//
// # Inputs
//
//   - candidate: The retrieved candidate to score.
//   - analysis: The immutable problem analysis.
//   - selection: Candidates already accepted into the working selection.
//
// # Outputs
//
//   - datatypes.ScoredCandidate: The candidate with breakdown, final
//     score, and derived complexity score.
func ScoreCandidate(candidate datatypes.Candidate, analysis *datatypes.ProblemAnalysis, selection []datatypes.ScoredCandidate) datatypes.ScoredCandidate {
	breakdown := datatypes.ScoreBreakdown{
		DirectRelevance:     candidate.Similarity,
		ApplicabilityNow:    applicabilityNow(&candidate, analysis),
		FoundationalValue:   foundationalValue(&candidate),
		SimplicityBonus:     simplicityBonus(&candidate),
		TypeBalanceBonus:    typeBalanceBonus(candidate.Type, analysis.Nature, selection),
		UrgencyAdjustment:   0,
		EmotionalAdjustment: 0,
	}
	breakdown.UrgencyAdjustment = urgencyAdjustment(&candidate, analysis, breakdown.SimplicityBonus, breakdown.FoundationalValue)
	breakdown.EmotionalAdjustment = emotionalAdjustment(&candidate, analysis)

	profile := ProfileFor(analysis.Urgency)
	weighted := profile.Direct*breakdown.DirectRelevance +
		profile.Applicability*breakdown.ApplicabilityNow +
		profile.Foundational*breakdown.FoundationalValue +
		profile.Simplicity*breakdown.SimplicityBonus +
		profile.Balance*breakdown.TypeBalanceBonus

	final := clamp(weighted+breakdown.UrgencyAdjustment+breakdown.EmotionalAdjustment, 0, 1)

	return datatypes.ScoredCandidate{
		Candidate:       candidate,
		Breakdown:       breakdown,
		FinalScore:      final,
		ComplexityScore: 1 - breakdown.SimplicityBonus,
	}
}

// ScoreAll scores every candidate against the same analysis and
// selection. Per the consistency contract, each entry equals the result
// of a standalone ScoreCandidate call with the same inputs.
func ScoreAll(candidates []datatypes.Candidate, analysis *datatypes.ProblemAnalysis, selection []datatypes.ScoredCandidate) []datatypes.ScoredCandidate {
	scored := make([]datatypes.ScoredCandidate, len(candidates))
	for i, c := range candidates {
		scored[i] = ScoreCandidate(c, analysis, selection)
	}
	return scored
}

// =============================================================================
// Base Components
// =============================================================================

// applicabilityNow boosts raw similarity with signals that the tool can
// be applied right now: worked examples and payoff statements matter for
// immediate problems, and strongly emotional or analytical problems
// favor their matching tool families.
func applicabilityNow(c *datatypes.Candidate, analysis *datatypes.ProblemAnalysis) float64 {
	score := c.Similarity

	if analysis.Urgency == datatypes.UrgencyImmediate {
		if c.ModernExample != "" {
			score += 0.2
		}
		if c.ClassicExample != "" {
			score += 0.1
		}
		if c.Payoff != "" {
			score += 0.15
		}
	}

	if analysis.Nature.Emotional > emotionalBoostThreshold && c.Type == datatypes.ToolTypeCognitiveBias {
		score += 0.3
	}
	if analysis.Nature.Analytical > analyticalBoostThreshold && c.Type == datatypes.ToolTypeMentalModel {
		score += 0.2
	}

	return clamp(score, 0, 1)
}

// foundationalValue is 1.0 for flagged "super models"; otherwise a base
// 0.3 plus credit for the signals that correlate with broad
// applicability (being a mental model, having a mechanism explanation
// and an origin story).
func foundationalValue(c *datatypes.Candidate) float64 {
	if c.IsFoundational {
		return 1.0
	}

	score := 0.3
	if c.Type == datatypes.ToolTypeMentalModel {
		score += 0.3
	}
	if c.Mechanism != "" {
		score += 0.2
	}
	if c.OriginStory != "" {
		score += 0.1
	}
	return math.Min(score, 1.0)
}

// simplicityBonus rewards short definitions and the presence of the
// fields that make a tool easy to grasp quickly. The length bonus scales
// inversely with definition length and hits zero past 500 characters.
func simplicityBonus(c *datatypes.Candidate) float64 {
	score := 0.3

	lengthRatio := 1 - float64(len(c.Definition))/simplicityLongDefinition
	score += simplicityLengthBonusMax * clamp(lengthRatio, 0, 1)

	if c.HasExample() {
		score += 0.15
	}
	if c.VisualMetaphor != "" {
		score += 0.1
	}
	if c.KeyTakeaway != "" {
		score += 0.08
	}

	return math.Min(score, simplicityCap)
}

// typeBalanceBonus measures whether adding this candidate's type would
// move the selection's type-ratio vector toward the target table for
// the dominant nature axis.
//
// For an empty selection the bonus is 0.8 when the candidate matches the
// single dominant target type and 0.3 otherwise. For a non-empty
// selection the bonus is derived from the L1 deviation improvement:
// clamp((devBefore - devAfter) * 2 + 0.5, 0.1, 1). Candidates that
// worsen balance still score, just lower.
func typeBalanceBonus(toolType datatypes.ToolType, nature datatypes.ProblemNature, selection []datatypes.ScoredCandidate) float64 {
	target := TargetRatioFor(nature)

	if len(selection) == 0 {
		if toolType == target.DominantTargetType() {
			return 0.8
		}
		return 0.3
	}

	counts := make(map[datatypes.ToolType]int, 4)
	for i := range selection {
		counts[selection[i].Type]++
	}

	devBefore := l1Deviation(counts, len(selection), target)
	counts[toolType]++
	devAfter := l1Deviation(counts, len(selection)+1, target)

	return clamp((devBefore-devAfter)*2+0.5, 0.1, 1)
}

// l1Deviation is the sum of absolute differences between the selection's
// per-type ratios and the target ratios, over all four tool types.
func l1Deviation(counts map[datatypes.ToolType]int, total int, target TypeRatio) float64 {
	dev := 0.0
	for _, tt := range datatypes.ToolTypes() {
		ratio := float64(counts[tt]) / float64(total)
		dev += math.Abs(ratio - target[tt])
	}
	return dev
}

// =============================================================================
// Adjustments
// =============================================================================

// urgencyAdjustment nudges the score by horizon fit. Immediate problems
// amplify the simplicity signal and slightly penalize foundational
// tools on simple problems (too much machinery for a quick call);
// long-term problems amplify the foundational signal.
func urgencyAdjustment(c *datatypes.Candidate, analysis *datatypes.ProblemAnalysis, simplicity, foundational float64) float64 {
	var adj float64
	switch analysis.Urgency {
	case datatypes.UrgencyImmediate:
		adj = (simplicity - 0.5) * 0.4
		if c.IsFoundational && analysis.Complexity == datatypes.ComplexitySimple {
			adj -= 0.1
		}
	case datatypes.UrgencyLongTerm:
		adj = (foundational - 0.5) * 0.3
	case datatypes.UrgencyShortTerm:
		adj = 0
	}
	return clamp(adj, -adjustmentLimit, adjustmentLimit)
}

// emotionalAdjustment activates only for emotionally loaded problems:
// bias and fallacy tools get a bump, and mental models filed under a
// purely analytical category get a small penalty.
func emotionalAdjustment(c *datatypes.Candidate, analysis *datatypes.ProblemAnalysis) float64 {
	if analysis.Nature.Emotional <= emotionalAdjustThreshold {
		return 0
	}

	var adj float64
	switch c.Type {
	case datatypes.ToolTypeCognitiveBias:
		adj = 0.3
	case datatypes.ToolTypeFallacy:
		adj = 0.2
	case datatypes.ToolTypeMentalModel:
		if analyticalCategories[strings.ToLower(strings.TrimSpace(c.MainCategory))] {
			adj = -0.1
		}
	case datatypes.ToolTypeGeneralConcept:
		adj = 0
	}
	return clamp(adj, -adjustmentLimit, adjustmentLimit)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
