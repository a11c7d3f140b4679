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
	"encoding/json"
	"fmt"
)

// Typed argument structs, one per tool. Model-supplied args arrive as an
// untyped map; decodeArgs closes the union at the executor boundary so every
// handler works with validated fields.

type summaryArgs struct {
	Period string `json:"period"`
}

type progressArgs struct {
	ExerciseID string `json:"exercise_id"`
	Period     string `json:"period"`
}

type consistencyArgs struct {
	Period string `json:"period"`
}

type coverageArgs struct {
	Period string `json:"period"`
}

type compareArgs struct {
	PeriodA string `json:"period_a"`
	PeriodB string `json:"period_b"`
}

type searchArgs struct {
	Query             string `json:"query"`
	MuscleGroup       string `json:"muscle_group"`
	EquipmentCategory string `json:"equipment_category"`
}

type planArgs struct {
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	DurationWeeks int           `json:"duration_weeks"`
	Days          []planDayArgs `json:"days"`
}

type planDayArgs struct {
	DayNumber int                `json:"day_number"`
	DayName   string             `json:"day_name"`
	DayType   string             `json:"day_type"`
	Exercises []planExerciseArgs `json:"exercises"`
}

type planExerciseArgs struct {
	ExerciseID  string `json:"exercise_id"`
	Name        string `json:"name"`
	TargetSets  int    `json:"target_sets"`
	TargetReps  string `json:"target_reps"`
	RestSeconds int    `json:"rest_seconds"`
	Notes       string `json:"notes"`
}

// decodeArgs converts the model's untyped argument map into the tool's
// typed struct via a JSON round trip, tolerating the float64 numbers that
// JSON decoding produces.
func decodeArgs(args map[string]any, into any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encoding tool arguments: %w", err)
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("invalid tool arguments: %w", err)
	}
	return nil
}

// toPayload converts a typed result struct into the map shape carried by a
// functionResponse part.
func toPayload(result any) (map[string]any, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encoding tool result: %w", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decoding tool result: %w", err)
	}
	return payload, nil
}
