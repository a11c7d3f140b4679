// Copyright (C) 2025 AtlasFit Labs (engineering@atlasfit.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store defines the persistence collaborators of the coaching
// engine and the Weaviate-backed exercise catalog implementation.
//
// The engine itself never persists anything: it reads history and catalog
// data through these interfaces and hands accepted plans to PlanStore only
// on explicit caller request.
//
// Thread Safety:
//
//	All interfaces in this package must be implemented as safe for
//	concurrent use.
package store

import (
	"context"
	"time"

	"github.com/atlasfit/coach-engine/services/coach/datatypes"
)

// SearchFilters narrows catalog queries.
type SearchFilters struct {
	// MuscleGroup filters by primary muscle when non-empty.
	MuscleGroup string

	// EquipmentCategory filters by the variant's equipment category when
	// non-empty.
	EquipmentCategory string
}

// RankedVariant is a catalog variant with its similarity certainty from a
// vector search, in [0, 1].
type RankedVariant struct {
	Variant   datatypes.ExerciseVariant
	Certainty float64
}

// CatalogStore reads the exercise catalog.
type CatalogStore interface {
	// SearchByVector returns variants ranked by similarity to vector,
	// filtered and cut off at threshold.
	SearchByVector(ctx context.Context, vector []float32, filters SearchFilters, threshold float64, limit int) ([]RankedVariant, error)

	// SearchByKeyword returns variants whose name or description matches
	// the query.
	SearchByKeyword(ctx context.Context, query string, filters SearchFilters, limit int) ([]datatypes.ExerciseVariant, error)

	// ListVariants returns variants matching the filters only, with no
	// query at all. The final search fallback.
	ListVariants(ctx context.Context, filters SearchFilters, limit int) ([]datatypes.ExerciseVariant, error)

	// VariantsForCanonical bulk-fetches the variants of each canonical
	// movement. The result maps every requested name, possibly to an empty
	// slice. Per-name variant order is the store's fetch order and must be
	// stable between calls with identical inputs.
	VariantsForCanonical(ctx context.Context, canonicalNames []string) (map[string][]datatypes.ExerciseVariant, error)

	// AllVariants returns the full catalog, used by fuzzy name resolution.
	AllVariants(ctx context.Context) ([]datatypes.ExerciseVariant, error)
}

// HistoryStore reads completed workout sessions.
type HistoryStore interface {
	// RecentWorkouts returns the user's sessions within the trailing
	// window, oldest first.
	RecentWorkouts(ctx context.Context, userID string, window time.Duration) ([]datatypes.WorkoutSession, error)

	// ExerciseHistory returns the user's per-session sets for one exercise
	// within the trailing window, oldest first.
	ExerciseHistory(ctx context.Context, userID, exerciseID string, window time.Duration) ([]datatypes.ExerciseSessionSets, error)
}

// PlanStore persists accepted plans. The engine calls CreatePlan only after
// explicit caller confirmation, never unprompted.
type PlanStore interface {
	// CreatePlan stores the plan for the user and returns its new id.
	CreatePlan(ctx context.Context, userID string, plan datatypes.PlanProposal) (string, error)
}
