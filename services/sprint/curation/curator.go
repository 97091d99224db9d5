// Copyright (C) 2025 Phoenix Labs (dev@phoenixlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package curation selects, phases, and sequences a target-sized subset
// of scored candidates.
//
// # Description
//
// One curation attempt is a pure function of the scored candidates and
// the problem analysis; no state survives across requests. The selection
// honors a foundational-tool quota and per-type targets derived from the
// classifier's suggested mix, verifies soft minimum requirements, and
// emits warnings instead of failing when they fall short. Warnings
// accumulate and never abort: the caller always gets the best selection
// the candidate set allows.
package curation

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/phoenixlabs/PhoenixSprint/services/sprint/datatypes"
	"github.com/phoenixlabs/PhoenixSprint/services/sprint/scoring"
)

// Foundational seeding bounds: the selection starts with one or two
// top-scoring foundational tools, preferring two when available.
const (
	minFoundationalSeed = 1
	maxFoundationalSeed = 2
)

// emotionalBiasThreshold is the emotional-nature level above which the
// selection is expected to carry at least one bias or fallacy tool.
const emotionalBiasThreshold = 0.3

// Curate runs one full curation attempt.
//
// # Description
//
// The attempt walks a fixed sequence: target sizing by complexity,
// foundational seeding, mix-constrained per-type fill with global
// spill, soft-requirement verification, phase assignment, sequencing,
// and metadata synthesis. Because the type-balance score component is
// order-dependent, remaining candidates are rescored against the
// growing selection before every pick.
//
// # Inputs
//
//   - scored: Candidates scored against an empty selection. Duplicate
//     IDs are not expected; retrieval deduplicates.
//   - analysis: The immutable problem analysis.
//
// # Outputs
//
//   - *datatypes.CurationResult: Selected tools with dense global and
//     per-phase ordering, plus metadata and warnings. Never nil.
//
// # Limitations
//
//   - A shortage of candidates yields a smaller selection and a
//     warning, never an error. Callers needing a hard floor check
//     Metadata.MeetsMinimum.
func Curate(scored []datatypes.ScoredCandidate, analysis *datatypes.ProblemAnalysis) *datatypes.CurationResult {
	target := analysis.TargetToolCount()
	var warnings []string

	// 1. Foundational seeding. The seed is union-first: once selected,
	// seeded tools are never displaced by the fill rounds.
	selection := seedFoundational(scored)
	selected := make(map[string]bool, target)
	for i := range selection {
		selected[selection[i].ID] = true
	}

	// 2. Mix-constrained fill, then global spill for leftover slots.
	typeTargets := computeTypeTargets(analysis.SuggestedMix, target)
	selection = fillByType(selection, selected, scored, analysis, typeTargets, target)
	selection = spillFill(selection, selected, scored, analysis, target)

	// 3. Shortage and soft-requirement verification. Each check is
	// independent; none suppresses another.
	if len(selection) < target {
		warnings = append(warnings, fmt.Sprintf(
			"requested %d tools but only %d candidates were available", target, len(selection)))
	}

	hasFoundational := false
	hasBiasCoverage := false
	for i := range selection {
		if selection[i].IsFoundational {
			hasFoundational = true
		}
		if selection[i].Type == datatypes.ToolTypeCognitiveBias || selection[i].Type == datatypes.ToolTypeFallacy {
			hasBiasCoverage = true
		}
	}
	if !hasFoundational {
		warnings = append(warnings, "no foundational tool available for this selection")
	}
	if !hasBiasCoverage && analysis.Nature.Emotional > emotionalBiasThreshold {
		warnings = append(warnings, fmt.Sprintf(
			"emotional nature %.2f suggests bias coverage but no bias or fallacy tool was selected",
			analysis.Nature.Emotional))
	}

	// 4. Phase assignment and sequencing.
	tools := sequence(selection)

	// 5. Metadata synthesis.
	distribution := make(map[datatypes.ToolType]int, 4)
	phaseSet := make(map[datatypes.Phase]bool, 5)
	for i := range tools {
		distribution[tools[i].Type]++
		phaseSet[tools[i].Phase] = true
	}
	var phasesUsed []datatypes.Phase
	for _, p := range datatypes.Phases() {
		if phaseSet[p] {
			phasesUsed = append(phasesUsed, p)
		}
	}

	meta := datatypes.CurationMetadata{
		TotalCount:       len(tools),
		TypeDistribution: distribution,
		PhasesUsed:       phasesUsed,
		MeetsMinimum:     hasFoundational && len(tools) >= 3,
		Warnings:         warnings,
	}

	slog.Debug("Curation complete",
		"selected", len(tools),
		"target", target,
		"meets_minimum", meta.MeetsMinimum,
		"warnings", len(warnings))

	return &datatypes.CurationResult{Tools: tools, Metadata: meta}
}

// seedFoundational takes the one or two highest-scoring foundational
// candidates, preferring two when available.
func seedFoundational(scored []datatypes.ScoredCandidate) []datatypes.ScoredCandidate {
	var foundational []datatypes.ScoredCandidate
	for i := range scored {
		if scored[i].IsFoundational {
			foundational = append(foundational, scored[i])
		}
	}
	sort.SliceStable(foundational, func(i, j int) bool {
		return foundational[i].FinalScore > foundational[j].FinalScore
	})

	n := maxFoundationalSeed
	if len(foundational) < n {
		n = len(foundational)
	}
	seed := make([]datatypes.ScoredCandidate, n)
	copy(seed, foundational[:n])
	return seed
}

// computeTypeTargets converts the suggested mix into per-type slot
// counts. Each family share is rounded independently, matching the
// original allocation behavior; the biases allocation is split between
// cognitive biases and fallacies by ceiling division. Independent
// rounding can leave the counts summing above or below the target, so
// the fill rounds treat these as quotas and spillFill corrects the
// total.
func computeTypeTargets(mix datatypes.SuggestedMix, target int) map[datatypes.ToolType]int {
	models := int(math.Round(mix.Models * float64(target)))
	biasAlloc := int(math.Round(mix.Biases * float64(target)))
	general := int(math.Round(mix.General * float64(target)))

	cognitiveBiases := (biasAlloc + 1) / 2
	fallacies := biasAlloc - cognitiveBiases

	return map[datatypes.ToolType]int{
		datatypes.ToolTypeMentalModel:    models,
		datatypes.ToolTypeCognitiveBias:  cognitiveBiases,
		datatypes.ToolTypeFallacy:        fallacies,
		datatypes.ToolTypeGeneralConcept: general,
	}
}

// fillByType fills per-type quotas from the highest-scoring unselected
// candidates of each type, honoring the counts already seeded. Scores
// are recomputed against the growing selection before each pick so the
// type-balance component stays consistent with the selection order.
func fillByType(selection []datatypes.ScoredCandidate, selected map[string]bool, scored []datatypes.ScoredCandidate, analysis *datatypes.ProblemAnalysis, typeTargets map[datatypes.ToolType]int, target int) []datatypes.ScoredCandidate {
	seededCounts := make(map[datatypes.ToolType]int, 4)
	for i := range selection {
		seededCounts[selection[i].Type]++
	}

	for _, tt := range datatypes.ToolTypes() {
		want := typeTargets[tt] - seededCounts[tt]
		for slot := 0; slot < want && len(selection) < target; slot++ {
			best, ok := bestUnselected(scored, selected, analysis, selection, &tt)
			if !ok {
				break // this type is exhausted; spillFill covers the gap
			}
			selection = append(selection, best)
			selected[best.ID] = true
		}
	}
	return selection
}

// spillFill fills any remaining slots with the globally highest-scoring
// unselected candidates regardless of type.
func spillFill(selection []datatypes.ScoredCandidate, selected map[string]bool, scored []datatypes.ScoredCandidate, analysis *datatypes.ProblemAnalysis, target int) []datatypes.ScoredCandidate {
	for len(selection) < target {
		best, ok := bestUnselected(scored, selected, analysis, selection, nil)
		if !ok {
			break
		}
		selection = append(selection, best)
		selected[best.ID] = true
	}
	return selection
}

// bestUnselected rescores the unselected candidates (optionally
// restricted to one type) against the current selection and returns the
// highest-scoring one. Foundational candidates are never considered:
// they enter the selection only through the seed, which caps them at
// maxFoundationalSeed.
func bestUnselected(scored []datatypes.ScoredCandidate, selected map[string]bool, analysis *datatypes.ProblemAnalysis, selection []datatypes.ScoredCandidate, onlyType *datatypes.ToolType) (datatypes.ScoredCandidate, bool) {
	var best datatypes.ScoredCandidate
	found := false
	for i := range scored {
		if selected[scored[i].ID] {
			continue
		}
		if scored[i].IsFoundational {
			continue
		}
		if onlyType != nil && scored[i].Type != *onlyType {
			continue
		}
		rescored := scoring.ScoreCandidate(scored[i].Candidate, analysis, selection)
		if !found || rescored.FinalScore > best.FinalScore {
			best = rescored
			found = true
		}
	}
	return best, found
}

// sequence assigns phases, orders tools by score within each phase,
// concatenates phases in their fixed order, and assigns dense global
// and per-phase order values.
func sequence(selection []datatypes.ScoredCandidate) []datatypes.CuratedTool {
	byPhase := make(map[datatypes.Phase][]datatypes.CuratedTool, 5)
	for i := range selection {
		phase := AssignPhase(&selection[i])
		byPhase[phase] = append(byPhase[phase], datatypes.CuratedTool{
			ScoredCandidate: selection[i],
			Phase:           phase,
		})
	}

	tools := make([]datatypes.CuratedTool, 0, len(selection))
	order := 1
	for _, phase := range datatypes.Phases() {
		group := byPhase[phase]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].FinalScore > group[j].FinalScore
		})
		for i := range group {
			group[i].Order = order
			group[i].PhaseOrder = i + 1
			order++
			tools = append(tools, group[i])
		}
	}
	return tools
}
