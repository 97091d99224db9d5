// Copyright (C) 2025 Phoenix Labs (dev@phoenixlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package scoring

import (
	"github.com/phoenixlabs/PhoenixSprint/services/sprint/datatypes"
)

// =============================================================================
// Weight Profiles
// =============================================================================

// WeightProfile assigns relative weight to the five base score
// components. Each weight is in [0,1] and the five sum to 1.
type WeightProfile struct {
	Name          string
	Direct        float64
	Applicability float64
	Foundational  float64
	Simplicity    float64
	Balance       float64
}

// The three urgency profiles. Invariants (tested):
//   - immediate weights simplicity strictly higher than long-term, so
//     urgent problems surface simple, actionable tools
//   - long-term weights foundational value strictly higher than
//     immediate, so long-horizon problems surface foundational tools
var (
	profileImmediate = WeightProfile{
		Name:          "immediate",
		Direct:        0.30,
		Applicability: 0.30,
		Foundational:  0.10,
		Simplicity:    0.25,
		Balance:       0.05,
	}

	profileShortTerm = WeightProfile{
		Name:          "short-term",
		Direct:        0.30,
		Applicability: 0.25,
		Foundational:  0.20,
		Simplicity:    0.15,
		Balance:       0.10,
	}

	profileLongTerm = WeightProfile{
		Name:          "long-term",
		Direct:        0.25,
		Applicability: 0.15,
		Foundational:  0.35,
		Simplicity:    0.10,
		Balance:       0.15,
	}
)

// ProfileFor returns the weight profile for the given urgency. Unknown
// urgencies fall back to the short-term profile.
func ProfileFor(urgency datatypes.Urgency) WeightProfile {
	switch urgency {
	case datatypes.UrgencyImmediate:
		return profileImmediate
	case datatypes.UrgencyShortTerm:
		return profileShortTerm
	case datatypes.UrgencyLongTerm:
		return profileLongTerm
	default:
		return profileShortTerm
	}
}

// =============================================================================
// Target Ratio Tables
// =============================================================================

// TypeRatio is a share per tool type; shares sum to 1 within tolerance.
type TypeRatio map[datatypes.ToolType]float64

// Target ratio tables keyed by the dominant problem-nature axis.
// Emotional problems want heavy bias/fallacy coverage; the other three
// axes lean on mental models with varying general-concept shares.
var targetRatios = map[datatypes.NatureAxis]TypeRatio{
	datatypes.AxisAnalytical: {
		datatypes.ToolTypeMentalModel:    0.50,
		datatypes.ToolTypeCognitiveBias:  0.20,
		datatypes.ToolTypeFallacy:        0.10,
		datatypes.ToolTypeGeneralConcept: 0.20,
	},
	datatypes.AxisEmotional: {
		datatypes.ToolTypeMentalModel:    0.20,
		datatypes.ToolTypeCognitiveBias:  0.40,
		datatypes.ToolTypeFallacy:        0.20,
		datatypes.ToolTypeGeneralConcept: 0.20,
	},
	datatypes.AxisStrategic: {
		datatypes.ToolTypeMentalModel:    0.50,
		datatypes.ToolTypeCognitiveBias:  0.15,
		datatypes.ToolTypeFallacy:        0.10,
		datatypes.ToolTypeGeneralConcept: 0.25,
	},
	datatypes.AxisCreative: {
		datatypes.ToolTypeMentalModel:    0.40,
		datatypes.ToolTypeCognitiveBias:  0.15,
		datatypes.ToolTypeFallacy:        0.10,
		datatypes.ToolTypeGeneralConcept: 0.35,
	},
}

// TargetRatioFor returns the target type-ratio table selected by the
// analysis's dominant problem-nature axis.
func TargetRatioFor(nature datatypes.ProblemNature) TypeRatio {
	return targetRatios[nature.DominantAxis()]
}

// DominantTargetType returns the tool type with the largest share in
// the ratio table. Ties resolve in canonical tool-type order.
func (r TypeRatio) DominantTargetType() datatypes.ToolType {
	best := datatypes.ToolTypeMentalModel
	bestShare := -1.0
	for _, tt := range datatypes.ToolTypes() {
		if share := r[tt]; share > bestShare {
			best, bestShare = tt, share
		}
	}
	return best
}
