// Copyright (C) 2025 AtlasFit Labs (engineering@atlasfit.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package resolver maps abstract canonical movement names to concrete
// catalog variants.
//
// The model reasons in canonical names ("bench_press"); the catalog holds
// concrete variants (Barbell Bench Press, Dumbbell Bench Press, ...). The
// resolver scores each variant against the user's equipment and skill level
// and picks the best fit.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/atlasfit/coach-engine/services/coach/datatypes"
	"github.com/atlasfit/coach-engine/services/coach/store"
)

// Scoring bonuses. Equipment availability dominates everything else so a
// user with only dumbbells gets the dumbbell variant even though barbells
// carry the highest base priority.
const (
	equipmentMatchBonus  = 50
	difficultyMatchBonus = 10
	videoBonus           = 5
	animationBonus       = 2
	shortNameBonus       = 3 // display name has at most 3 words
	mediumNameBonus      = 1 // display name has 4 words
	shortNameWordLimit   = 3
	mediumNameWordLimit  = 4
)

// equipmentPriority is the fixed base weight per equipment type, summed over
// a variant's equipment list regardless of what the user owns.
var equipmentPriority = map[string]int{
	datatypes.EquipmentBarbell:      10,
	datatypes.EquipmentDumbbell:     9,
	datatypes.EquipmentCable:        8,
	datatypes.EquipmentMachine:      7,
	datatypes.EquipmentBodyweight:   6,
	datatypes.EquipmentKettlebell:   5,
	datatypes.EquipmentBand:         4,
	datatypes.EquipmentSmithMachine: 3,
	datatypes.EquipmentEZBar:        3,
	datatypes.EquipmentTrapBar:      3,
}

// Resolver selects concrete exercise variants for canonical movement names.
//
// # Thread Safety
//
// Safe for concurrent use; all state is read-only after construction.
type Resolver struct {
	catalog store.CatalogStore
	logger  *slog.Logger
}

// New creates a Resolver backed by the given catalog.
//
// Inputs:
//   - catalog: Variant source. Must not be nil.
//   - logger: May be nil.
func New(catalog store.CatalogStore, logger *slog.Logger) *Resolver {
	if catalog == nil {
		panic("resolver.New: catalog must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{catalog: catalog, logger: logger}
}

// SelectVariant resolves one canonical name to its best variant.
//
// Outputs:
//   - *datatypes.ExerciseVariant: The winning variant, or nil when the
//     catalog has no variants for the name.
//   - error: Non-nil only on catalog failure.
func (r *Resolver) SelectVariant(ctx context.Context, canonicalName string, userEquipment []string, preferredDifficulty string) (*datatypes.ExerciseVariant, error) {
	byName, err := r.catalog.VariantsForCanonical(ctx, []string{canonicalName})
	if err != nil {
		return nil, fmt.Errorf("resolver: fetching variants for %q: %w", canonicalName, err)
	}
	return pickBest(byName[canonicalName], userEquipment, preferredDifficulty), nil
}

// SelectVariantsBatch resolves many canonical names in one bulk fetch.
//
// # Description
//
// The result maps every requested name; names with no catalog variants map
// to nil. For each name the selected variant is identical to what
// SelectVariant would return for the same inputs; the batch differs only
// in issuing one bulk fetch instead of N.
func (r *Resolver) SelectVariantsBatch(ctx context.Context, canonicalNames []string, userEquipment []string, preferredDifficulty string) (map[string]*datatypes.ExerciseVariant, error) {
	byName, err := r.catalog.VariantsForCanonical(ctx, canonicalNames)
	if err != nil {
		return nil, fmt.Errorf("resolver: bulk fetching variants: %w", err)
	}

	out := make(map[string]*datatypes.ExerciseVariant, len(canonicalNames))
	for _, name := range canonicalNames {
		out[name] = pickBest(byName[name], userEquipment, preferredDifficulty)
	}
	return out, nil
}

// pickBest scores all variants and returns the winner, or nil for an empty
// slice. Ties keep the original fetch order (stable sort).
func pickBest(variants []datatypes.ExerciseVariant, userEquipment []string, preferredDifficulty string) *datatypes.ExerciseVariant {
	if len(variants) == 0 {
		return nil
	}

	type scored struct {
		variant datatypes.ExerciseVariant
		score   int
	}
	ranked := make([]scored, len(variants))
	for i, v := range variants {
		ranked[i] = scored{variant: v, score: ScoreVariant(v, userEquipment, preferredDifficulty)}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	best := ranked[0].variant
	return &best
}

// ScoreVariant computes the deterministic fit score of a variant for the
// given equipment and difficulty preference.
func ScoreVariant(v datatypes.ExerciseVariant, userEquipment []string, preferredDifficulty string) int {
	score := 0

	if equipmentSatisfied(v.EquipmentNeeded, userEquipment) {
		score += equipmentMatchBonus
	}

	// Base priority is unconditional: it orders variants among themselves
	// even when the user's equipment satisfies none of them.
	for _, eq := range v.EquipmentNeeded {
		score += equipmentPriority[eq]
	}

	if preferredDifficulty != "" && strings.EqualFold(v.Difficulty, preferredDifficulty) {
		score += difficultyMatchBonus
	}

	if v.HasVideo {
		score += videoBonus
	}
	if v.HasAnimation {
		score += animationBonus
	}

	words := len(strings.Fields(v.Name))
	if words <= shortNameWordLimit {
		score += shortNameBonus
	} else if words <= mediumNameWordLimit {
		score += mediumNameBonus
	}

	return score
}

// equipmentSatisfied reports whether every required equipment type is in the
// user's available set. Bodyweight is always satisfied, as is an empty
// requirement list.
func equipmentSatisfied(required, available []string) bool {
	for _, req := range required {
		if req == datatypes.EquipmentBodyweight {
			continue
		}
		found := false
		for _, have := range available {
			if strings.EqualFold(req, have) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
