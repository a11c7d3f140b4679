// Copyright (C) 2025 AtlasFit Labs (engineering@atlasfit.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package proposal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/atlasfit/coach-engine/services/coach/datatypes"
)

// Fuzzy-match thresholds. A candidate needs at least two shared significant
// tokens and half of the query's tokens matched before it counts.
const (
	minSharedTokens = 2
	minTokenRatio   = 0.5
	minTokenLength  = 3
)

// VariantResolver is the canonical-name resolution dependency.
// *resolver.Resolver satisfies it.
type VariantResolver interface {
	SelectVariantsBatch(ctx context.Context, canonicalNames []string, userEquipment []string, preferredDifficulty string) (map[string]*datatypes.ExerciseVariant, error)
}

// CatalogLister supplies the full catalog for fuzzy name matching.
type CatalogLister interface {
	AllVariants(ctx context.Context) ([]datatypes.ExerciseVariant, error)
}

// resolveExercises fills in catalog ids for every exercise in the proposal.
//
// # Description
//
// Per exercise, in order: (a) an id that already looks like a catalog id
// passes through; (b) the stated name is batch-resolved as a canonical
// movement; (c) fuzzy fallback against the full catalog, first exact
// case-insensitive name equality, else token-overlap scoring. Exercises
// that resolve to nothing are dropped from their day, never replaced with
// placeholders.
func (p *Processor) resolveExercises(ctx context.Context, plan *datatypes.PlanProposal, user datatypes.UserContext) error {
	// One bulk fetch for every name that still needs resolution.
	var unresolved []string
	seen := make(map[string]bool)
	for _, day := range plan.Days {
		for _, ex := range day.Exercises {
			if datatypes.IsCatalogID(ex.ExerciseID) {
				continue
			}
			name := canonicalKey(ex.Name)
			if name != "" && !seen[name] {
				seen[name] = true
				unresolved = append(unresolved, name)
			}
		}
	}

	resolved := map[string]*datatypes.ExerciseVariant{}
	if len(unresolved) > 0 {
		var err error
		resolved, err = p.resolver.SelectVariantsBatch(ctx, unresolved, user.Equipment, user.SkillLevel)
		if err != nil {
			return fmt.Errorf("proposal: batch resolving exercises: %w", err)
		}
	}

	// Catalog list is fetched lazily, only when something needs fuzzy help.
	var catalog []datatypes.ExerciseVariant
	catalogLoaded := false

	for di := range plan.Days {
		kept := plan.Days[di].Exercises[:0]
		for _, ex := range plan.Days[di].Exercises {
			if datatypes.IsCatalogID(ex.ExerciseID) {
				kept = append(kept, ex)
				continue
			}

			if v := resolved[canonicalKey(ex.Name)]; v != nil {
				ex.ExerciseID = v.ID
				if ex.Name == "" {
					ex.Name = v.Name
				}
				kept = append(kept, ex)
				continue
			}

			if !catalogLoaded {
				var err error
				catalog, err = p.catalog.AllVariants(ctx)
				if err != nil {
					return fmt.Errorf("proposal: loading catalog for fuzzy match: %w", err)
				}
				catalogLoaded = true
			}
			if v := fuzzyMatch(ex.Name, catalog); v != nil {
				ex.ExerciseID = v.ID
				kept = append(kept, ex)
				continue
			}

			p.logger.Warn("dropping unresolvable exercise",
				slog.String("name", ex.Name),
				slog.String("id", ex.ExerciseID),
			)
		}
		plan.Days[di].Exercises = kept
	}
	return nil
}

// canonicalKey lowercases and underscores a display name into the canonical
// naming convention ("Bench Press" → "bench_press").
func canonicalKey(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "_")
}

// fuzzyMatch finds the best catalog variant for a display name.
//
// Exact case-insensitive equality wins immediately; otherwise candidates
// are scored by shared significant tokens and the best one above the
// thresholds is returned, nil when nothing qualifies.
func fuzzyMatch(name string, catalog []datatypes.ExerciseVariant) *datatypes.ExerciseVariant {
	if name == "" {
		return nil
	}

	for i := range catalog {
		if strings.EqualFold(catalog[i].Name, name) {
			return &catalog[i]
		}
	}

	queryTokens := significantTokens(name)
	if len(queryTokens) == 0 {
		return nil
	}

	var best *datatypes.ExerciseVariant
	bestShared := 0
	for i := range catalog {
		shared := sharedTokenCount(queryTokens, significantTokens(catalog[i].Name))
		if shared < minSharedTokens {
			continue
		}
		if float64(shared)/float64(len(queryTokens)) < minTokenRatio {
			continue
		}
		if shared > bestShared {
			bestShared = shared
			best = &catalog[i]
		}
	}
	return best
}

// significantTokens lowercases and keeps tokens long enough to carry
// meaning, dropping fillers like "of" and "the".
func significantTokens(s string) []string {
	var tokens []string
	for _, t := range strings.Fields(strings.ToLower(s)) {
		if len(t) >= minTokenLength {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// sharedTokenCount counts query tokens present in the candidate set.
func sharedTokenCount(query, candidate []string) int {
	set := make(map[string]bool, len(candidate))
	for _, t := range candidate {
		set[t] = true
	}
	shared := 0
	for _, t := range query {
		if set[t] {
			shared++
		}
	}
	return shared
}
