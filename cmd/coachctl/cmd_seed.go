// Copyright (C) 2025 AtlasFit Labs (engineering@atlasfit.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/atlasfit/coach-engine/services/coach/datatypes"
	badgerstore "github.com/atlasfit/coach-engine/services/coach/storage/badger"
	"github.com/atlasfit/coach-engine/services/coach/store"
)

// Seed flag values.
var (
	seedDir    string
	seedUserID string
	seedWeeks  int
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load sample workout history into a coachd data directory",
	Long: "Writes a deterministic upper/lower training history straight into " +
		"the Badger directory coachd reads from. Run while coachd is stopped; " +
		"Badger allows a single process at a time.",
	RunE: runSeedCommand,
}

func init() {
	seedCmd.Flags().StringVar(&seedDir, "dir", "", "coachd Badger directory (required)")
	seedCmd.Flags().StringVar(&seedUserID, "user", "", "User id to seed (required)")
	seedCmd.Flags().IntVar(&seedWeeks, "weeks", 8, "Weeks of history to generate")
	_ = seedCmd.MarkFlagRequired("dir")
	_ = seedCmd.MarkFlagRequired("user")
}

func runSeedCommand(_ *cobra.Command, _ []string) error {
	db, err := badgerstore.OpenDB(badgerstore.Config{Path: seedDir})
	if err != nil {
		return fmt.Errorf("opening data directory: %w", err)
	}
	defer func() { _ = db.Close() }()

	history := store.NewBadgerHistoryStore(db, nil)
	sessions := sampleHistory(seedWeeks)

	ctx := context.Background()
	for _, session := range sessions {
		if err := history.SaveSession(ctx, seedUserID, session); err != nil {
			return fmt.Errorf("saving session for %s: %w", session.Date.Format("2006-01-02"), err)
		}
	}

	fmt.Printf("Seeded %d sessions over %d weeks for %s\n", len(sessions), seedWeeks, seedUserID)
	return nil
}

// sampleHistory generates an upper/lower split, two sessions per week,
// with working weights that climb slowly so progress and comparison
// queries have a visible trend.
func sampleHistory(weeks int) []datatypes.WorkoutSession {
	now := time.Now()
	var sessions []datatypes.WorkoutSession

	for week := 0; week < weeks; week++ {
		// Older weeks use lighter loads.
		progress := float64(weeks-1-week) * 2.5

		upper := datatypes.WorkoutSession{
			Date:            now.AddDate(0, 0, -7*(weeks-week)+1),
			DurationMinutes: 55,
			Exercises: []datatypes.ExerciseLog{
				sampleExercise("seed-bench-press-0001", "Barbell Bench Press", "Chest", 60-progress, true),
				sampleExercise("seed-barbell-row-0002", "Barbell Bent Over Row", "Back", 55-progress, false),
				sampleExercise("seed-overhead-press-03", "Overhead Press", "Shoulders", 35-progress, false),
			},
		}
		lower := datatypes.WorkoutSession{
			Date:            now.AddDate(0, 0, -7*(weeks-week)+4),
			DurationMinutes: 50,
			Exercises: []datatypes.ExerciseLog{
				sampleExercise("seed-back-squat-0004", "Barbell Back Squat", "Quads", 80-progress, true),
				sampleExercise("seed-romanian-dl-0005", "Romanian Deadlift", "Hamstrings", 70-progress, false),
			},
		}
		sessions = append(sessions, upper, lower)
	}
	return sessions
}

// sampleExercise builds one exercise log with three working sets and an
// optional warmup set.
func sampleExercise(id, name, muscle string, weightKg float64, warmup bool) datatypes.ExerciseLog {
	var sets []datatypes.SetLog
	setNumber := 1
	if warmup {
		sets = append(sets, datatypes.SetLog{
			SetNumber: setNumber,
			Reps:      10,
			WeightKg:  weightKg / 2,
			IsWarmup:  true,
		})
		setNumber++
	}
	for i := 0; i < 3; i++ {
		sets = append(sets, datatypes.SetLog{
			SetNumber: setNumber,
			Reps:      8,
			WeightKg:  weightKg,
		})
		setNumber++
	}
	return datatypes.ExerciseLog{
		ExerciseID:    id,
		ExerciseName:  name,
		PrimaryMuscle: muscle,
		Sets:          sets,
	}
}
