// Copyright (C) 2025 Phoenix Labs (dev@phoenixlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phoenixlabs/PhoenixSprint/services/sprint/datatypes"
)

func TestWeightProfiles_ProbabilityLike(t *testing.T) {
	for _, p := range []WeightProfile{profileImmediate, profileShortTerm, profileLongTerm} {
		t.Run(p.Name, func(t *testing.T) {
			for _, w := range []float64{p.Direct, p.Applicability, p.Foundational, p.Simplicity, p.Balance} {
				assert.GreaterOrEqual(t, w, 0.0)
				assert.LessOrEqual(t, w, 1.0)
			}
			sum := p.Direct + p.Applicability + p.Foundational + p.Simplicity + p.Balance
			assert.InDelta(t, 1.0, sum, 1e-9, "profile weights should sum to 1")
		})
	}
}

func TestWeightProfiles_UrgencyOrdering(t *testing.T) {
	// Urgent problems surface simple tools; long-horizon problems
	// surface foundational ones.
	assert.Greater(t, profileImmediate.Simplicity, profileLongTerm.Simplicity)
	assert.Greater(t, profileLongTerm.Foundational, profileImmediate.Foundational)
}

func TestProfileFor(t *testing.T) {
	assert.Equal(t, "immediate", ProfileFor(datatypes.UrgencyImmediate).Name)
	assert.Equal(t, "short-term", ProfileFor(datatypes.UrgencyShortTerm).Name)
	assert.Equal(t, "long-term", ProfileFor(datatypes.UrgencyLongTerm).Name)
	assert.Equal(t, "short-term", ProfileFor(datatypes.Urgency("unknown")).Name)
}

func TestTargetRatios_SumToOne(t *testing.T) {
	for axis, table := range targetRatios {
		sum := 0.0
		for _, tt := range datatypes.ToolTypes() {
			sum += table[tt]
		}
		assert.InDelta(t, 1.0, sum, 0.1, "ratio table for axis %s", axis)
	}
}

func TestDominantTargetType(t *testing.T) {
	assert.Equal(t, datatypes.ToolTypeMentalModel,
		TargetRatioFor(datatypes.ProblemNature{Analytical: 0.9}).DominantTargetType())
	assert.Equal(t, datatypes.ToolTypeCognitiveBias,
		TargetRatioFor(datatypes.ProblemNature{Emotional: 0.9}).DominantTargetType())
	assert.Equal(t, datatypes.ToolTypeMentalModel,
		TargetRatioFor(datatypes.ProblemNature{Creative: 0.9}).DominantTargetType())
}
