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
	"fmt"
	"strings"

	"github.com/atlasfit/coach-engine/services/coach/datatypes"
)

type planCreatedResult struct {
	Status        string `json:"status"`
	Name          string `json:"name"`
	DayCount      int    `json:"day_count"`
	ExerciseCount int    `json:"exercise_count"`
}

// createPlanProposal validates the model's plan structure and builds the
// tagged proposal the agent loop captures.
//
// # Description
//
// Every exercise must carry a real catalog id; short or separator-less ids
// are hallucinations. Any offender fails the whole call with a message
// naming the offending exercises, a retryable failure the loop feeds back
// to the model, which is expected to search and retry. On success, missing
// prescription fields get defaults.
func (e *Executor) createPlanProposal(args planArgs) (*Result, error) {
	if args.Name == "" {
		return nil, fmt.Errorf("plan name is required")
	}
	if len(args.Days) == 0 {
		return nil, fmt.Errorf("plan has no days")
	}

	var offenders []string
	for _, day := range args.Days {
		for _, ex := range day.Exercises {
			if !datatypes.IsCatalogID(ex.ExerciseID) {
				label := ex.Name
				if label == "" {
					label = fmt.Sprintf("exercise %q", ex.ExerciseID)
				}
				offenders = append(offenders, label)
			}
		}
	}
	if len(offenders) > 0 {
		return nil, fmt.Errorf(
			"these exercises are missing valid catalog ids: %s. Use search_exercises to find each exercise and its id, then call create_plan_proposal again with the exact ids returned",
			strings.Join(offenders, ", "))
	}

	proposal := datatypes.PlanProposal{
		Name:          args.Name,
		Description:   args.Description,
		DurationWeeks: args.DurationWeeks,
	}
	if proposal.DurationWeeks <= 0 {
		proposal.DurationWeeks = datatypes.DefaultDurationWeeks
	}

	for i, day := range args.Days {
		d := datatypes.PlanDay{
			DayNumber: day.DayNumber,
			DayName:   day.DayName,
			DayType:   day.DayType,
		}
		if d.DayNumber <= 0 {
			d.DayNumber = i + 1
		}
		if d.DayType == "" {
			d.DayType = datatypes.DefaultDayType
		}
		for _, ex := range day.Exercises {
			d.Exercises = append(d.Exercises, applyExerciseDefaults(datatypes.PlanExercise{
				ExerciseID:  ex.ExerciseID,
				Name:        ex.Name,
				TargetSets:  ex.TargetSets,
				TargetReps:  ex.TargetReps,
				RestSeconds: ex.RestSeconds,
				Notes:       ex.Notes,
			}))
		}
		proposal.Days = append(proposal.Days, d)
	}

	payload, err := toPayload(planCreatedResult{
		Status:        "proposal_created",
		Name:          proposal.Name,
		DayCount:      len(proposal.Days),
		ExerciseCount: proposal.ExerciseCount(),
	})
	if err != nil {
		return nil, err
	}
	return &Result{Payload: payload, Proposal: &proposal}, nil
}

// applyExerciseDefaults fills missing prescription fields.
func applyExerciseDefaults(ex datatypes.PlanExercise) datatypes.PlanExercise {
	if ex.TargetSets <= 0 {
		ex.TargetSets = datatypes.DefaultTargetSets
	}
	if ex.TargetReps == "" {
		ex.TargetReps = datatypes.DefaultTargetReps
	}
	if ex.RestSeconds <= 0 {
		ex.RestSeconds = datatypes.DefaultRestSeconds
	}
	return ex
}
