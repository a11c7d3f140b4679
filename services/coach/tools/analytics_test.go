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
)

// session builds a one-exercise session n days ago with the given sets.
func session(daysAgo int, muscle string, sets ...datatypes.SetLog) datatypes.WorkoutSession {
	return datatypes.WorkoutSession{
		Date: time.Now().AddDate(0, 0, -daysAgo),
		Exercises: []datatypes.ExerciseLog{
			{ExerciseName: "Exercise", PrimaryMuscle: muscle, Sets: sets},
		},
	}
}

func working(weight float64, reps int) datatypes.SetLog {
	return datatypes.SetLog{Reps: reps, WeightKg: weight}
}

func warmup(weight float64, reps int) datatypes.SetLog {
	return datatypes.SetLog{Reps: reps, WeightKg: weight, IsWarmup: true}
}

func TestWorkoutSummary_VolumeExcludesWarmups(t *testing.T) {
	history := &fakeHistory{workouts: []datatypes.WorkoutSession{
		session(2, "Chest", warmup(40, 10), working(100, 5), working(100, 5)),
		session(5, "Back", working(80, 8)),
	}}
	e := newTestExecutor(history, nil, nil)

	res, err := e.Execute(context.Background(), datatypes.FunctionCall{
		Name: ToolWorkoutSummary,
		Args: map[string]any{"period": "4_weeks"},
	})
	require.NoError(t, err)

	assert.Equal(t, float64(2), res.Payload["workout_count"])
	// 100*5 + 100*5 + 80*8 = 1640; the 40*10 warmup is excluded.
	assert.Equal(t, 1640.0, res.Payload["total_volume_kg"])
	assert.InDelta(t, 2.0/28*7, res.Payload["avg_workouts_per_week"].(float64), 1e-9)
}

func TestWorkoutSummary_TopMusclesByWorkingSets(t *testing.T) {
	history := &fakeHistory{workouts: []datatypes.WorkoutSession{
		session(1, "Chest", working(100, 5), working(100, 5), working(100, 5)),
		session(2, "Back", working(80, 8), working(80, 8)),
		session(3, "Quadriceps", warmup(60, 10), working(120, 5)),
	}}
	e := newTestExecutor(history, nil, nil)

	res, err := e.Execute(context.Background(), datatypes.FunctionCall{
		Name: ToolWorkoutSummary, Args: map[string]any{},
	})
	require.NoError(t, err)

	top := res.Payload["top_muscle_groups"].([]any)
	require.Len(t, top, 3)
	first := top[0].(map[string]any)
	assert.Equal(t, "Chest", first["muscle"])
	assert.Equal(t, float64(3), first["working_sets"])
	// Quadriceps has 1 working set; its warmup does not count.
	last := top[2].(map[string]any)
	assert.Equal(t, "Quadriceps", last["muscle"])
	assert.Equal(t, float64(1), last["working_sets"])
}

func TestExerciseProgress_TrendAndPercent(t *testing.T) {
	const id = "11111111-1111-4111-8111-111111111111"
	history := &fakeHistory{sets: map[string][]datatypes.ExerciseSessionSets{
		id: {
			{Date: time.Now().AddDate(0, 0, -21), Sets: []datatypes.SetLog{working(100, 5)}},
			{Date: time.Now().AddDate(0, 0, -14), Sets: []datatypes.SetLog{working(105, 5)}},
			{Date: time.Now().AddDate(0, 0, -7), Sets: []datatypes.SetLog{warmup(60, 10), working(110, 5)}},
		},
	}}
	e := newTestExecutor(history, nil, nil)

	res, err := e.Execute(context.Background(), datatypes.FunctionCall{
		Name: ToolExerciseProgress,
		Args: map[string]any{"exercise_id": id},
	})
	require.NoError(t, err)

	assert.Equal(t, float64(10), res.Payload["weight_change_kg"])
	assert.InDelta(t, 10.0, res.Payload["change_percent"].(float64), 1e-9)
	assert.Equal(t, false, res.Payload["plateaued"])
}

func TestExerciseProgress_PlateauIsLastThreeEqual(t *testing.T) {
	const id = "22222222-2222-4222-8222-222222222222"
	history := &fakeHistory{sets: map[string][]datatypes.ExerciseSessionSets{
		id: {
			{Date: time.Now().AddDate(0, 0, -28), Sets: []datatypes.SetLog{working(90, 5)}},
			{Date: time.Now().AddDate(0, 0, -21), Sets: []datatypes.SetLog{working(100, 5)}},
			{Date: time.Now().AddDate(0, 0, -14), Sets: []datatypes.SetLog{working(100, 5)}},
			{Date: time.Now().AddDate(0, 0, -7), Sets: []datatypes.SetLog{working(100, 5)}},
		},
	}}
	e := newTestExecutor(history, nil, nil)

	res, err := e.Execute(context.Background(), datatypes.FunctionCall{
		Name: ToolExerciseProgress,
		Args: map[string]any{"exercise_id": id, "period": "8_weeks"},
	})
	require.NoError(t, err)
	assert.Equal(t, true, res.Payload["plateaued"])
}

func TestExerciseProgress_ZeroFirstWeightPercentIsZero(t *testing.T) {
	const id = "33333333-3333-4333-8333-333333333333"
	history := &fakeHistory{sets: map[string][]datatypes.ExerciseSessionSets{
		id: {
			// Bodyweight session first: no weighted sets.
			{Date: time.Now().AddDate(0, 0, -14), Sets: []datatypes.SetLog{working(0, 12)}},
			{Date: time.Now().AddDate(0, 0, -7), Sets: []datatypes.SetLog{working(20, 10)}},
		},
	}}
	e := newTestExecutor(history, nil, nil)

	res, err := e.Execute(context.Background(), datatypes.FunctionCall{
		Name: ToolExerciseProgress,
		Args: map[string]any{"exercise_id": id},
	})
	require.NoError(t, err)
	assert.Equal(t, float64(20), res.Payload["weight_change_kg"])
	assert.Equal(t, float64(0), res.Payload["change_percent"])
}

func TestExerciseProgress_RequiresID(t *testing.T) {
	e := newTestExecutor(nil, nil, nil)
	_, err := e.Execute(context.Background(), datatypes.FunctionCall{
		Name: ToolExerciseProgress, Args: map[string]any{},
	})
	require.Error(t, err)
}

func TestConsistency_ThreePerWeekSmallGapsScoresHundred(t *testing.T) {
	// 3 sessions/week over 4 weeks with max gap 5 days:
	// min(3/2,1)*50 + 50 = 100 → consistent.
	var workouts []datatypes.WorkoutSession
	for day := 2; day <= 26; day += 2 {
		workouts = append(workouts, session(day, "Chest", working(100, 5)))
	}
	e := newTestExecutor(&fakeHistory{workouts: workouts}, nil, nil)

	res, err := e.Execute(context.Background(), datatypes.FunctionCall{
		Name: ToolConsistency, Args: map[string]any{"period": "4_weeks"},
	})
	require.NoError(t, err)

	assert.Equal(t, float64(100), res.Payload["score"])
	assert.Equal(t, "consistent", res.Payload["rating"])
}

func TestConsistency_LongGapDegradesRating(t *testing.T) {
	// Two sessions 20 days apart: freq 2/28*7 = 0.5/wk →
	// min(0.25,1)*50 = 12.5, gap > 14 → +10 = 22.5 → inconsistent.
	workouts := []datatypes.WorkoutSession{
		session(24, "Back", working(80, 8)),
		session(4, "Back", working(80, 8)),
	}
	e := newTestExecutor(&fakeHistory{workouts: workouts}, nil, nil)

	res, err := e.Execute(context.Background(), datatypes.FunctionCall{
		Name: ToolConsistency, Args: map[string]any{"period": "4_weeks"},
	})
	require.NoError(t, err)

	assert.Equal(t, 22.5, res.Payload["score"])
	assert.Equal(t, "inconsistent", res.Payload["rating"])
	assert.Equal(t, float64(20), res.Payload["max_gap_days"])
}

func TestConsistency_NoSessions(t *testing.T) {
	e := newTestExecutor(&fakeHistory{}, nil, nil)

	res, err := e.Execute(context.Background(), datatypes.FunctionCall{
		Name: ToolConsistency, Args: map[string]any{},
	})
	require.NoError(t, err)
	assert.Equal(t, float64(0), res.Payload["score"])
	assert.Equal(t, "inconsistent", res.Payload["rating"])
}

func TestMuscleCoverage_StatusBandsAndAssessment(t *testing.T) {
	var workouts []datatypes.WorkoutSession
	// Chest: 12 working sets → adequate. Back: 6 → light. Calves: 2 → neglected.
	for i := 0; i < 4; i++ {
		workouts = append(workouts,
			session(i*3+1, "Chest", working(100, 5), working(100, 5), working(100, 5)))
	}
	workouts = append(workouts,
		session(2, "Back", working(80, 8), working(80, 8), working(80, 8)),
		session(9, "Back", working(80, 8), working(80, 8), working(80, 8)),
		session(5, "Calves", working(60, 12), working(60, 12)),
	)
	e := newTestExecutor(&fakeHistory{workouts: workouts}, nil, nil)

	res, err := e.Execute(context.Background(), datatypes.FunctionCall{
		Name: ToolMuscleCoverage, Args: map[string]any{},
	})
	require.NoError(t, err)

	muscles := res.Payload["muscles"].([]any)
	require.Len(t, muscles, 3)

	statusByMuscle := map[string]string{}
	for _, m := range muscles {
		entry := m.(map[string]any)
		statusByMuscle[entry["muscle"].(string)] = entry["status"].(string)
	}
	assert.Equal(t, "adequate", statusByMuscle["Chest"])
	assert.Equal(t, "light", statusByMuscle["Back"])
	assert.Equal(t, "neglected", statusByMuscle["Calves"])

	// One neglected muscle → minor imbalance.
	assert.Equal(t, "minor imbalance", res.Payload["assessment"])
}

func TestComparePeriods_TrendDeadband(t *testing.T) {
	origNow := timeNow
	t.Cleanup(func() { timeNow = origNow })
	now := time.Now()
	timeNow = func() time.Time { return now }

	// Recent 4 weeks: 2000kg. Baseline 4 weeks before that: 1000kg.
	workouts := []datatypes.WorkoutSession{
		{Date: now.AddDate(0, 0, -10), Exercises: []datatypes.ExerciseLog{
			{PrimaryMuscle: "Chest", Sets: []datatypes.SetLog{working(200, 10)}},
		}},
		{Date: now.AddDate(0, 0, -40), Exercises: []datatypes.ExerciseLog{
			{PrimaryMuscle: "Chest", Sets: []datatypes.SetLog{working(100, 10)}},
		}},
	}
	e := newTestExecutor(&fakeHistory{workouts: workouts}, nil, nil)

	res, err := e.Execute(context.Background(), datatypes.FunctionCall{
		Name: ToolComparePeriods,
		Args: map[string]any{"period_a": "4_weeks", "period_b": "4_weeks"},
	})
	require.NoError(t, err)

	assert.Equal(t, float64(100), res.Payload["volume_change_percent"])
	assert.Equal(t, "improving", res.Payload["trend"])

	recent := res.Payload["recent"].(map[string]any)
	baseline := res.Payload["baseline"].(map[string]any)
	assert.Equal(t, 2000.0, recent["total_volume_kg"])
	assert.Equal(t, 1000.0, baseline["total_volume_kg"])
}

func TestComparePeriods_StableWithinDeadband(t *testing.T) {
	origNow := timeNow
	t.Cleanup(func() { timeNow = origNow })
	now := time.Now()
	timeNow = func() time.Time { return now }

	workouts := []datatypes.WorkoutSession{
		{Date: now.AddDate(0, 0, -5), Exercises: []datatypes.ExerciseLog{
			{PrimaryMuscle: "Back", Sets: []datatypes.SetLog{working(103, 10)}},
		}},
		{Date: now.AddDate(0, 0, -35), Exercises: []datatypes.ExerciseLog{
			{PrimaryMuscle: "Back", Sets: []datatypes.SetLog{working(100, 10)}},
		}},
	}
	e := newTestExecutor(&fakeHistory{workouts: workouts}, nil, nil)

	res, err := e.Execute(context.Background(), datatypes.FunctionCall{
		Name: ToolComparePeriods, Args: map[string]any{"period_a": "4_weeks"},
	})
	require.NoError(t, err)
	// +3% sits inside the ±5% deadband.
	assert.Equal(t, "stable", res.Payload["trend"])
}

func TestComparePeriods_EmptyBaselineWithRecentVolume(t *testing.T) {
	origNow := timeNow
	t.Cleanup(func() { timeNow = origNow })
	now := time.Now()
	timeNow = func() time.Time { return now }

	// A brand-new training block: volume in the recent window, nothing
	// before it.
	workouts := []datatypes.WorkoutSession{
		{Date: now.AddDate(0, 0, -10), Exercises: []datatypes.ExerciseLog{
			{PrimaryMuscle: "Chest", Sets: []datatypes.SetLog{working(100, 10)}},
		}},
	}
	e := newTestExecutor(&fakeHistory{workouts: workouts}, nil, nil)

	res, err := e.Execute(context.Background(), datatypes.FunctionCall{
		Name: ToolComparePeriods, Args: map[string]any{"period_a": "4_weeks"},
	})
	require.NoError(t, err)

	// The percent has no meaningful divisor and stays 0, but new volume
	// over an empty baseline must not read as stagnation.
	assert.Equal(t, float64(0), res.Payload["volume_change_percent"])
	assert.Equal(t, "improving", res.Payload["trend"])
}

func TestComparePeriods_BothWindowsEmpty(t *testing.T) {
	e := newTestExecutor(&fakeHistory{}, nil, nil)

	res, err := e.Execute(context.Background(), datatypes.FunctionCall{
		Name: ToolComparePeriods, Args: map[string]any{"period_a": "4_weeks"},
	})
	require.NoError(t, err)
	assert.Equal(t, "stable", res.Payload["trend"])
}
