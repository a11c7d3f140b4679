// Copyright (C) 2025 AtlasFit Labs (engineering@atlasfit.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tools

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/atlasfit/coach-engine/services/coach/datatypes"
	"github.com/atlasfit/coach-engine/services/coach/store"
)

// Similarity thresholds for the semantic search stages.
const (
	primaryThreshold = 0.70
	relaxedThreshold = 0.55
)

// searchLimit bounds how many exercises one search returns to the model.
const searchLimit = 10

// Stage names reported back to the model and in metrics.
const (
	stageSemantic   = "semantic"
	stageRelaxed    = "semantic_relaxed"
	stageKeyword    = "keyword"
	stageUnfiltered = "unfiltered"
)

type searchExercise struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	PrimaryMuscle string   `json:"primary_muscle"`
	Equipment     []string `json:"equipment"`
	Difficulty    string   `json:"difficulty"`
	IsCompound    bool     `json:"is_compound"`
}

type searchResult struct {
	Query     string           `json:"query"`
	Stage     string           `json:"stage"`
	Count     int              `json:"count"`
	Exercises []searchExercise `json:"exercises"`
}

// searchExercises runs the cascading catalog search.
//
// # Description
//
// Four stages, each tried only when the previous one yields nothing:
//
//  1. Semantic similarity at the primary threshold, compound movements
//     ranked first.
//  2. Semantic similarity at the relaxed threshold, no compound preference.
//  3. Keyword match against name and description.
//  4. Unfiltered listing constrained by the muscle/equipment filters only.
//
// An embedding failure skips the semantic stages instead of failing the
// call; keyword search still works without a vector.
func (e *Executor) searchExercises(ctx context.Context, args searchArgs) (*Result, error) {
	if args.Query == "" {
		return nil, fmt.Errorf("query is required")
	}
	filters := store.SearchFilters{
		MuscleGroup:       args.MuscleGroup,
		EquipmentCategory: args.EquipmentCategory,
	}

	variants, stage, err := e.runSearchCascade(ctx, args.Query, filters)
	if err != nil {
		return nil, err
	}
	searchStages.WithLabelValues(stage).Inc()

	res := searchResult{
		Query:     args.Query,
		Stage:     stage,
		Count:     len(variants),
		Exercises: make([]searchExercise, 0, len(variants)),
	}
	for _, v := range variants {
		res.Exercises = append(res.Exercises, searchExercise{
			ID:            v.ID,
			Name:          v.Name,
			PrimaryMuscle: v.PrimaryMuscle,
			Equipment:     v.EquipmentNeeded,
			Difficulty:    v.Difficulty,
			IsCompound:    v.IsCompound,
		})
	}

	payload, err := toPayload(res)
	if err != nil {
		return nil, err
	}
	return &Result{Payload: payload}, nil
}

// runSearchCascade walks the fallback chain and returns the first non-empty
// stage's results along with the stage name.
func (e *Executor) runSearchCascade(ctx context.Context, query string, filters store.SearchFilters) ([]datatypes.ExerciseVariant, string, error) {
	vector, embErr := e.embedder.Embed(ctx, query)
	if embErr != nil {
		e.logger.Warn("embedding failed, skipping semantic search stages",
			slog.String("query", query),
			slog.String("error", embErr.Error()),
		)
	}

	if embErr == nil {
		ranked, err := e.catalog.SearchByVector(ctx, vector, filters, primaryThreshold, searchLimit)
		if err != nil {
			return nil, "", fmt.Errorf("semantic search: %w", err)
		}
		if len(ranked) > 0 {
			return compoundFirst(stripRank(ranked)), stageSemantic, nil
		}

		ranked, err = e.catalog.SearchByVector(ctx, vector, filters, relaxedThreshold, searchLimit)
		if err != nil {
			return nil, "", fmt.Errorf("relaxed semantic search: %w", err)
		}
		if len(ranked) > 0 {
			return stripRank(ranked), stageRelaxed, nil
		}
	}

	variants, err := e.catalog.SearchByKeyword(ctx, query, filters, searchLimit)
	if err != nil {
		return nil, "", fmt.Errorf("keyword search: %w", err)
	}
	if len(variants) > 0 {
		return variants, stageKeyword, nil
	}

	variants, err = e.catalog.ListVariants(ctx, filters, searchLimit)
	if err != nil {
		return nil, "", fmt.Errorf("unfiltered listing: %w", err)
	}
	return variants, stageUnfiltered, nil
}

// stripRank drops certainty scores, keeping the store's ranking order.
func stripRank(ranked []store.RankedVariant) []datatypes.ExerciseVariant {
	out := make([]datatypes.ExerciseVariant, len(ranked))
	for i, r := range ranked {
		out[i] = r.Variant
	}
	return out
}

// compoundFirst moves compound movements ahead of isolation work without
// disturbing relative order within each group.
func compoundFirst(variants []datatypes.ExerciseVariant) []datatypes.ExerciseVariant {
	sort.SliceStable(variants, func(i, j int) bool {
		return variants[i].IsCompound && !variants[j].IsCompound
	})
	return variants
}
