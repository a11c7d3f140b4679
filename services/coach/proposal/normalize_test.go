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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlasfit/coach-engine/services/coach/datatypes"
)

func TestParse_DayMapPreservesInsertionOrder(t *testing.T) {
	raw := []byte(`{
		"name": "PPL",
		"days": {
			"Push": {"exercises": [{"exercise_id": "` + benchID + `"}]},
			"Pull": {"exercises": [{"exercise_id": "` + rowID + `"}]}
		}
	}`)

	got, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, got.Days, 2)

	assert.Equal(t, 1, got.Days[0].DayNumber)
	assert.Equal(t, "Push", got.Days[0].DayName)
	assert.Equal(t, benchID, got.Days[0].Exercises[0].ExerciseID)

	assert.Equal(t, 2, got.Days[1].DayNumber)
	assert.Equal(t, "Pull", got.Days[1].DayName)
	assert.Equal(t, rowID, got.Days[1].Exercises[0].ExerciseID)
}

func TestParse_DayMapEntryFieldsWin(t *testing.T) {
	raw := []byte(`{
		"name": "Custom",
		"days": {
			"Monday": {"day_number": 9, "day_name": "Heavy Day", "day_type": "strength", "exercises": []}
		}
	}`)

	got, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, got.Days, 1)
	assert.Equal(t, 9, got.Days[0].DayNumber)
	assert.Equal(t, "Heavy Day", got.Days[0].DayName)
	assert.Equal(t, "strength", got.Days[0].DayType)
}

func TestParse_DaysArrayPassesThrough(t *testing.T) {
	raw := []byte(`{
		"name": "Array Shape",
		"duration_weeks": 12,
		"days": [
			{"day_number": 1, "day_name": "Upper", "exercises": [{"exercise_id": "` + benchID + `", "target_sets": 4}]}
		]
	}`)

	got, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, 12, got.DurationWeeks)
	require.Len(t, got.Days, 1)
	assert.Equal(t, 4, got.Days[0].Exercises[0].TargetSets)
	// Untouched fields still get defaults.
	assert.Equal(t, datatypes.DefaultTargetReps, got.Days[0].Exercises[0].TargetReps)
}

func TestParse_DaysWrongTypeFails(t *testing.T) {
	_, err := Parse([]byte(`{"name": "bad", "days": "monday"}`))
	require.Error(t, err)
}

func TestNormalize_Defaults(t *testing.T) {
	p := datatypes.PlanProposal{
		Name: "Bare",
		Days: []datatypes.PlanDay{
			{DayName: "A", Exercises: []datatypes.PlanExercise{{ExerciseID: benchID}}},
			{DayName: "B"},
		},
	}

	got := Normalize(p)
	assert.Equal(t, datatypes.DefaultDurationWeeks, got.DurationWeeks)
	assert.NotEmpty(t, got.Description)
	assert.Equal(t, 1, got.Days[0].DayNumber)
	assert.Equal(t, 2, got.Days[1].DayNumber)
	assert.Equal(t, datatypes.DefaultDayType, got.Days[0].DayType)

	ex := got.Days[0].Exercises[0]
	assert.Equal(t, datatypes.DefaultTargetSets, ex.TargetSets)
	assert.Equal(t, datatypes.DefaultTargetReps, ex.TargetReps)
	assert.Equal(t, datatypes.DefaultRestSeconds, ex.RestSeconds)
}

func TestNormalize_Idempotent(t *testing.T) {
	p := datatypes.PlanProposal{
		Name:          "Stable",
		Description:   "already described",
		DurationWeeks: 6,
		Days: []datatypes.PlanDay{
			{DayNumber: 3, DayName: "X", DayType: "cardio", Exercises: []datatypes.PlanExercise{
				{ExerciseID: squatID, TargetSets: 5, TargetReps: "3-5", RestSeconds: 180},
			}},
		},
	}

	once := Normalize(p)
	twice := Normalize(once)
	assert.Equal(t, once, twice)

	// Explicit values are never overwritten.
	assert.Equal(t, 6, once.DurationWeeks)
	assert.Equal(t, 3, once.Days[0].DayNumber)
	assert.Equal(t, "cardio", once.Days[0].DayType)
	assert.Equal(t, "3-5", once.Days[0].Exercises[0].TargetReps)
}
