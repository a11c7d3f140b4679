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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlasfit/coach-engine/services/coach/datatypes"
	"github.com/atlasfit/coach-engine/services/coach/store"
)

// =============================================================================
// Fakes
// =============================================================================

type fakeHistory struct {
	workouts []datatypes.WorkoutSession
	sets     map[string][]datatypes.ExerciseSessionSets
	err      error
}

func (f *fakeHistory) RecentWorkouts(_ context.Context, _ string, window time.Duration) ([]datatypes.WorkoutSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	cutoff := time.Now().Add(-window)
	var out []datatypes.WorkoutSession
	for _, w := range f.workouts {
		if !w.Date.Before(cutoff) {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeHistory) ExerciseHistory(_ context.Context, _, exerciseID string, _ time.Duration) ([]datatypes.ExerciseSessionSets, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sets[exerciseID], nil
}

type fakeCatalog struct {
	vectorResults  map[float64][]store.RankedVariant // keyed by threshold
	keywordResults []datatypes.ExerciseVariant
	listResults    []datatypes.ExerciseVariant
	variantsByName map[string][]datatypes.ExerciseVariant
	vectorCalls    []float64
	keywordQueries []string
	listCalls      int
}

func (f *fakeCatalog) SearchByVector(_ context.Context, _ []float32, _ store.SearchFilters, threshold float64, _ int) ([]store.RankedVariant, error) {
	f.vectorCalls = append(f.vectorCalls, threshold)
	return f.vectorResults[threshold], nil
}

func (f *fakeCatalog) SearchByKeyword(_ context.Context, query string, _ store.SearchFilters, _ int) ([]datatypes.ExerciseVariant, error) {
	f.keywordQueries = append(f.keywordQueries, query)
	return f.keywordResults, nil
}

func (f *fakeCatalog) ListVariants(_ context.Context, _ store.SearchFilters, _ int) ([]datatypes.ExerciseVariant, error) {
	f.listCalls++
	return f.listResults, nil
}

func (f *fakeCatalog) VariantsForCanonical(_ context.Context, names []string) (map[string][]datatypes.ExerciseVariant, error) {
	out := make(map[string][]datatypes.ExerciseVariant, len(names))
	for _, n := range names {
		out[n] = f.variantsByName[n]
	}
	return out, nil
}

func (f *fakeCatalog) AllVariants(context.Context) ([]datatypes.ExerciseVariant, error) {
	var all []datatypes.ExerciseVariant
	for _, vs := range f.variantsByName {
		all = append(all, vs...)
	}
	return all, nil
}

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(context.Context, string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

func newTestExecutor(history *fakeHistory, catalog *fakeCatalog, embedder *fakeEmbedder) *Executor {
	if history == nil {
		history = &fakeHistory{}
	}
	if catalog == nil {
		catalog = &fakeCatalog{}
	}
	if embedder == nil {
		embedder = &fakeEmbedder{vector: []float32{0.1, 0.2}}
	}
	return NewExecutor(history, catalog, embedder,
		datatypes.UserContext{UserID: "user-1"}, nil)
}

// =============================================================================
// Dispatch
// =============================================================================

func TestExecute_UnknownTool(t *testing.T) {
	e := newTestExecutor(nil, nil, nil)
	_, err := e.Execute(context.Background(), datatypes.FunctionCall{Name: "no_such_tool"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tool")
}

func TestExecute_UnknownPeriodNamesValidOnes(t *testing.T) {
	e := newTestExecutor(nil, nil, nil)
	_, err := e.Execute(context.Background(), datatypes.FunctionCall{
		Name: ToolWorkoutSummary,
		Args: map[string]any{"period": "fortnight"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "4_weeks")
}

func TestPeriodWindow(t *testing.T) {
	window, days, err := PeriodWindow("4_weeks")
	require.NoError(t, err)
	assert.Equal(t, 28, days)
	assert.Equal(t, 28*24*time.Hour, window)

	// Empty means the default.
	_, days, err = PeriodWindow("")
	require.NoError(t, err)
	assert.Equal(t, 28, days)

	_, _, err = PeriodWindow("3_fortnights")
	require.Error(t, err)
}

func TestDeclarations_CoverEveryTool(t *testing.T) {
	decls := Declarations()
	require.Len(t, decls, 7)

	names := make(map[string]bool, len(decls))
	for _, d := range decls {
		names[d.Name] = true
		assert.NotEmpty(t, d.Description, "tool %s", d.Name)
		assert.Equal(t, "object", d.Parameters.Type, "tool %s", d.Name)
	}
	for _, want := range []string{
		ToolWorkoutSummary, ToolExerciseProgress, ToolConsistency,
		ToolMuscleCoverage, ToolComparePeriods, ToolSearchExercises, ToolCreatePlan,
	} {
		assert.True(t, names[want], "missing declaration for %s", want)
	}
}

func TestToolClassifiers(t *testing.T) {
	assert.True(t, IsSearchTool(ToolSearchExercises))
	assert.False(t, IsSearchTool(ToolCreatePlan))
	assert.True(t, IsPlanTool(ToolCreatePlan))
	assert.False(t, IsPlanTool(ToolWorkoutSummary))
}
