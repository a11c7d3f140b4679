// Copyright (C) 2025 AtlasFit Labs (engineering@atlasfit.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tools implements the coaching agent's tool suite: workout
// analytics, exercise search, and plan-proposal construction.
package tools

import (
	"fmt"
	"sort"
	"time"

	"github.com/atlasfit/coach-engine/services/coach/llm"
)

// Tool names. The agent loop keys its search-streak and plan-capture
// behavior on these, so they are exported constants rather than literals.
const (
	ToolWorkoutSummary   = "get_workout_summary"
	ToolExerciseProgress = "get_exercise_progress"
	ToolConsistency      = "get_consistency"
	ToolMuscleCoverage   = "get_muscle_coverage"
	ToolComparePeriods   = "compare_periods"
	ToolSearchExercises  = "search_exercises"
	ToolCreatePlan       = "create_plan_proposal"
)

// DefaultPeriod is used when the model omits a period argument.
const DefaultPeriod = "4_weeks"

// periodDays maps named analytics periods to trailing-day counts.
var periodDays = map[string]int{
	"1_week":   7,
	"2_weeks":  14,
	"4_weeks":  28,
	"8_weeks":  56,
	"12_weeks": 84,
	"6_months": 180,
}

// PeriodWindow resolves a named period to a trailing duration.
//
// Outputs:
//   - time.Duration: The window length.
//   - int: The window length in days, as used by per-week math.
//   - error: Non-nil for unknown period names; the message lists the valid
//     names so the model can self-correct.
func PeriodWindow(period string) (time.Duration, int, error) {
	if period == "" {
		period = DefaultPeriod
	}
	days, ok := periodDays[period]
	if !ok {
		return 0, 0, fmt.Errorf("unknown period %q, valid periods: %v", period, validPeriods())
	}
	return time.Duration(days) * 24 * time.Hour, days, nil
}

// validPeriods returns the period names in a stable order.
func validPeriods() []string {
	names := make([]string, 0, len(periodDays))
	for name := range periodDays {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsSearchTool reports whether name is the exercise search tool, which the
// agent loop's consecutive-search counter tracks.
func IsSearchTool(name string) bool {
	return name == ToolSearchExercises
}

// IsPlanTool reports whether name is the plan-creation tool, which resets
// the consecutive-search counter.
func IsPlanTool(name string) bool {
	return name == ToolCreatePlan
}

// periodParam is the shared period parameter definition.
func periodParam() llm.ParamDef {
	return llm.ParamDef{
		Type:        "string",
		Description: "Named trailing window to analyze. Defaults to 4_weeks.",
		Enum:        validPeriods(),
	}
}

// Declarations returns the full tool catalog handed to the model.
//
// The descriptions are load-bearing: they are what makes the model pick the
// right tool, so wording changes change behavior.
func Declarations() []llm.Declaration {
	return []llm.Declaration{
		{
			Name: ToolWorkoutSummary,
			Description: "Summarize the user's recent training: workout count, average " +
				"workouts per week, total working volume in kg, and the most-trained " +
				"muscle groups. Use this first when the user asks how their training is going.",
			Parameters: llm.ObjectSchema(map[string]llm.ParamDef{
				"period": periodParam(),
			}),
		},
		{
			Name: ToolExerciseProgress,
			Description: "Report strength progress for one exercise over time: per-session " +
				"top weight, volume and reps, the overall trend, and whether progress has " +
				"plateaued. Requires the exercise's catalog id from search_exercises or " +
				"from the workout summary.",
			Parameters: llm.ObjectSchema(map[string]llm.ParamDef{
				"exercise_id": {Type: "string", Description: "Catalog id of the exercise."},
				"period":      periodParam(),
			}, "exercise_id"),
		},
		{
			Name: ToolConsistency,
			Description: "Score how consistently the user has trained: a 0-100 score from " +
				"session frequency and the longest gap between sessions, with a " +
				"consistent/moderate/inconsistent rating.",
			Parameters: llm.ObjectSchema(map[string]llm.ParamDef{
				"period": periodParam(),
			}),
		},
		{
			Name: ToolMuscleCoverage,
			Description: "Count working sets per muscle group and flag muscles that are " +
				"adequately trained, lightly trained, or neglected, plus an overall " +
				"balance assessment. Use this when the user asks what they are missing.",
			Parameters: llm.ObjectSchema(map[string]llm.ParamDef{
				"period": periodParam(),
			}),
		},
		{
			Name: ToolComparePeriods,
			Description: "Compare the most recent training window against the window " +
				"immediately before it: workout counts, volumes, and whether training is " +
				"improving, stable, or declining.",
			Parameters: llm.ObjectSchema(map[string]llm.ParamDef{
				"period_a": {
					Type:        "string",
					Description: "The recent window to evaluate. Defaults to 4_weeks.",
					Enum:        validPeriods(),
				},
				"period_b": {
					Type:        "string",
					Description: "The baseline window immediately before period_a. Defaults to the same length as period_a.",
					Enum:        validPeriods(),
				},
			}),
		},
		{
			Name: ToolSearchExercises,
			Description: "Search the exercise catalog by meaning, e.g. 'something for upper " +
				"chest' or 'knee-friendly leg exercise'. Returns concrete exercises with " +
				"their catalog ids. Always search before adding an exercise to a plan; " +
				"never invent exercise ids.",
			Parameters: llm.ObjectSchema(map[string]llm.ParamDef{
				"query": {Type: "string", Description: "What to look for, in natural language."},
				"muscle_group": {
					Type:        "string",
					Description: "Optional primary-muscle filter, e.g. 'Chest' or 'Quadriceps'.",
				},
				"equipment_category": {
					Type:        "string",
					Description: "Optional equipment filter, e.g. 'Barbell' or 'Bodyweight'.",
				},
			}, "query"),
		},
		{
			Name: ToolCreatePlan,
			Description: "Create a structured training plan proposal from exercises already " +
				"found via search_exercises. Every exercise must carry the exact catalog id " +
				"returned by search; the call fails if any id is missing or invented. The " +
				"proposal is shown to the user for acceptance, never saved directly.",
			Parameters: llm.ObjectSchema(map[string]llm.ParamDef{
				"name":        {Type: "string", Description: "Short plan name."},
				"description": {Type: "string", Description: "One-paragraph plan rationale."},
				"duration_weeks": {
					Type:        "integer",
					Description: "Plan length in weeks. Defaults to 8.",
				},
				"days": {
					Type:        "array",
					Description: "Training days. Each day has day_name, optional day_type, and an exercises array with exercise_id, name, target_sets, target_reps, rest_seconds.",
					Items:       &llm.ParamDef{Type: "object"},
				},
			}, "name", "days"),
		},
	}
}
