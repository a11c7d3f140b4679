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
	"sort"
	"time"

	"github.com/atlasfit/coach-engine/services/coach/datatypes"
)

// timeNow is swapped out by tests that pin the comparison boundary.
var timeNow = time.Now

// Consistency score weights and bands.
const (
	targetSessionsPerWeek = 2.0

	gapScoreTight = 50 // max inter-session gap ≤ 7 days
	gapScoreLoose = 30 // ≤ 14 days
	gapScoreWide  = 10

	consistentThreshold = 70
	moderateThreshold   = 40
)

// Muscle coverage set-count bands.
const (
	adequateSets = 10
	lightSets    = 5
)

// comparisonDeadbandPct is the ±band within which a volume change counts as
// stable rather than improving or declining.
const comparisonDeadbandPct = 5.0

// topMuscleGroups bounds the summary's most-trained-muscles list.
const topMuscleGroups = 5

// =============================================================================
// Workout summary
// =============================================================================

type muscleSetCount struct {
	Muscle      string `json:"muscle"`
	WorkingSets int    `json:"working_sets"`
}

type summaryResult struct {
	Period          string           `json:"period"`
	WorkoutCount    int              `json:"workout_count"`
	AvgPerWeek      float64          `json:"avg_workouts_per_week"`
	TotalVolumeKg   float64          `json:"total_volume_kg"`
	TopMuscleGroups []muscleSetCount `json:"top_muscle_groups"`
}

// workoutSummary aggregates the user's recent sessions.
func (e *Executor) workoutSummary(ctx context.Context, args summaryArgs) (*Result, error) {
	window, days, err := PeriodWindow(args.Period)
	if err != nil {
		return nil, err
	}

	sessions, err := e.history.RecentWorkouts(ctx, e.user.UserID, window)
	if err != nil {
		return nil, fmt.Errorf("loading recent workouts: %w", err)
	}

	var totalVolume float64
	for _, s := range sessions {
		totalVolume += s.Volume()
	}

	res := summaryResult{
		Period:          periodOrDefault(args.Period),
		WorkoutCount:    len(sessions),
		AvgPerWeek:      float64(len(sessions)) / float64(days) * 7,
		TotalVolumeKg:   totalVolume,
		TopMuscleGroups: topMuscles(workingSetsByMuscle(sessions), topMuscleGroups),
	}

	payload, err := toPayload(res)
	if err != nil {
		return nil, err
	}
	return &Result{Payload: payload}, nil
}

// workingSetsByMuscle counts non-warmup sets per primary muscle.
func workingSetsByMuscle(sessions []datatypes.WorkoutSession) map[string]int {
	counts := make(map[string]int)
	for _, s := range sessions {
		for _, ex := range s.Exercises {
			for _, set := range ex.Sets {
				if !set.IsWarmup {
					counts[ex.PrimaryMuscle]++
				}
			}
		}
	}
	return counts
}

// topMuscles returns the n highest-count muscles, ties broken by name so the
// output is deterministic.
func topMuscles(counts map[string]int, n int) []muscleSetCount {
	ranked := make([]muscleSetCount, 0, len(counts))
	for muscle, c := range counts {
		ranked = append(ranked, muscleSetCount{Muscle: muscle, WorkingSets: c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].WorkingSets != ranked[j].WorkingSets {
			return ranked[i].WorkingSets > ranked[j].WorkingSets
		}
		return ranked[i].Muscle < ranked[j].Muscle
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// =============================================================================
// Exercise progress
// =============================================================================

type sessionProgress struct {
	Date      string  `json:"date"`
	MaxWeight float64 `json:"max_weight_kg"`
	VolumeKg  float64 `json:"volume_kg"`
	TotalReps int     `json:"total_reps"`
}

type progressResult struct {
	ExerciseID    string            `json:"exercise_id"`
	Period        string            `json:"period"`
	SessionCount  int               `json:"session_count"`
	Sessions      []sessionProgress `json:"sessions"`
	WeightChange  float64           `json:"weight_change_kg"`
	ChangePercent float64           `json:"change_percent"`
	Plateaued     bool              `json:"plateaued"`
}

// exerciseProgress reports per-session aggregates and a trend for one
// exercise. The trend metric is the per-session top working weight.
func (e *Executor) exerciseProgress(ctx context.Context, args progressArgs) (*Result, error) {
	if args.ExerciseID == "" {
		return nil, fmt.Errorf("exercise_id is required")
	}
	window, _, err := PeriodWindow(args.Period)
	if err != nil {
		return nil, err
	}

	history, err := e.history.ExerciseHistory(ctx, e.user.UserID, args.ExerciseID, window)
	if err != nil {
		return nil, fmt.Errorf("loading exercise history: %w", err)
	}

	sessions := make([]sessionProgress, 0, len(history))
	for _, h := range history {
		p := sessionProgress{Date: h.Date.Format("2006-01-02")}
		for _, set := range h.Sets {
			if set.IsWarmup {
				continue
			}
			if set.WeightKg > p.MaxWeight {
				p.MaxWeight = set.WeightKg
			}
			p.VolumeKg += set.WeightKg * float64(set.Reps)
			p.TotalReps += set.Reps
		}
		sessions = append(sessions, p)
	}

	res := progressResult{
		ExerciseID:   args.ExerciseID,
		Period:       periodOrDefault(args.Period),
		SessionCount: len(sessions),
		Sessions:     sessions,
	}
	if len(sessions) > 0 {
		first := sessions[0].MaxWeight
		last := sessions[len(sessions)-1].MaxWeight
		res.WeightChange = last - first
		if first != 0 {
			res.ChangePercent = res.WeightChange / first * 100
		}
		res.Plateaued = isPlateaued(sessions)
	}

	payload, err := toPayload(res)
	if err != nil {
		return nil, err
	}
	return &Result{Payload: payload}, nil
}

// isPlateaued reports whether the last three sessions' top weights are all
// equal. Fewer than three sessions is never a plateau.
func isPlateaued(sessions []sessionProgress) bool {
	if len(sessions) < 3 {
		return false
	}
	tail := sessions[len(sessions)-3:]
	return tail[0].MaxWeight == tail[1].MaxWeight && tail[1].MaxWeight == tail[2].MaxWeight
}

// =============================================================================
// Consistency
// =============================================================================

type consistencyResult struct {
	Period        string  `json:"period"`
	WorkoutCount  int     `json:"workout_count"`
	SessionsPerWk float64 `json:"sessions_per_week"`
	MaxGapDays    int     `json:"max_gap_days"`
	Score         float64 `json:"score"`
	Rating        string  `json:"rating"`
}

// consistency scores how regularly the user trains.
//
// Score = min(frequency/2, 1)*50 + gapScore, where gapScore is 50 for a max
// inter-session gap ≤7 days, 30 for ≤14, else 10.
func (e *Executor) consistency(ctx context.Context, args consistencyArgs) (*Result, error) {
	window, days, err := PeriodWindow(args.Period)
	if err != nil {
		return nil, err
	}

	sessions, err := e.history.RecentWorkouts(ctx, e.user.UserID, window)
	if err != nil {
		return nil, fmt.Errorf("loading recent workouts: %w", err)
	}

	res := consistencyResult{
		Period:       periodOrDefault(args.Period),
		WorkoutCount: len(sessions),
	}

	if len(sessions) == 0 {
		res.Rating = "inconsistent"
		payload, err := toPayload(res)
		if err != nil {
			return nil, err
		}
		return &Result{Payload: payload}, nil
	}

	res.SessionsPerWk = float64(len(sessions)) / float64(days) * 7
	res.MaxGapDays = maxGapDays(sessions)

	frequencyScore := res.SessionsPerWk / targetSessionsPerWeek
	if frequencyScore > 1 {
		frequencyScore = 1
	}

	gapScore := gapScoreWide
	switch {
	case res.MaxGapDays <= 7:
		gapScore = gapScoreTight
	case res.MaxGapDays <= 14:
		gapScore = gapScoreLoose
	}

	res.Score = frequencyScore*50 + float64(gapScore)
	switch {
	case res.Score >= consistentThreshold:
		res.Rating = "consistent"
	case res.Score >= moderateThreshold:
		res.Rating = "moderate"
	default:
		res.Rating = "inconsistent"
	}

	payload, err := toPayload(res)
	if err != nil {
		return nil, err
	}
	return &Result{Payload: payload}, nil
}

// maxGapDays returns the largest gap between consecutive sessions, in whole
// days. Sessions arrive oldest first. A single session has gap 0.
func maxGapDays(sessions []datatypes.WorkoutSession) int {
	maxGap := 0
	for i := 1; i < len(sessions); i++ {
		gap := int(sessions[i].Date.Sub(sessions[i-1].Date).Hours() / 24)
		if gap > maxGap {
			maxGap = gap
		}
	}
	return maxGap
}

// =============================================================================
// Muscle coverage
// =============================================================================

type muscleCoverage struct {
	Muscle      string `json:"muscle"`
	WorkingSets int    `json:"working_sets"`
	Status      string `json:"status"`
}

type coverageResult struct {
	Period     string           `json:"period"`
	Muscles    []muscleCoverage `json:"muscles"`
	Assessment string           `json:"assessment"`
}

// muscleCoverage classifies per-muscle working-set counts and derives an
// overall balance assessment from how many muscles are neglected.
func (e *Executor) muscleCoverage(ctx context.Context, args coverageArgs) (*Result, error) {
	window, _, err := PeriodWindow(args.Period)
	if err != nil {
		return nil, err
	}

	sessions, err := e.history.RecentWorkouts(ctx, e.user.UserID, window)
	if err != nil {
		return nil, fmt.Errorf("loading recent workouts: %w", err)
	}

	counts := workingSetsByMuscle(sessions)
	muscles := make([]muscleCoverage, 0, len(counts))
	neglected := 0
	for muscle, c := range counts {
		status := "neglected"
		switch {
		case c >= adequateSets:
			status = "adequate"
		case c >= lightSets:
			status = "light"
		}
		if status == "neglected" {
			neglected++
		}
		muscles = append(muscles, muscleCoverage{Muscle: muscle, WorkingSets: c, Status: status})
	}
	sort.Slice(muscles, func(i, j int) bool {
		if muscles[i].WorkingSets != muscles[j].WorkingSets {
			return muscles[i].WorkingSets > muscles[j].WorkingSets
		}
		return muscles[i].Muscle < muscles[j].Muscle
	})

	assessment := "significant imbalance"
	switch {
	case neglected == 0:
		assessment = "balanced"
	case neglected <= 2:
		assessment = "minor imbalance"
	}

	payload, err := toPayload(coverageResult{
		Period:     periodOrDefault(args.Period),
		Muscles:    muscles,
		Assessment: assessment,
	})
	if err != nil {
		return nil, err
	}
	return &Result{Payload: payload}, nil
}

// =============================================================================
// Period comparison
// =============================================================================

type periodAggregate struct {
	Period        string  `json:"period"`
	WorkoutCount  int     `json:"workout_count"`
	TotalVolumeKg float64 `json:"total_volume_kg"`
}

type compareResult struct {
	Recent          periodAggregate `json:"recent"`
	Baseline        periodAggregate `json:"baseline"`
	VolumeChangePct float64         `json:"volume_change_percent"`
	Trend           string          `json:"trend"`
}

// comparePeriods compares the most recent window against the window of
// period_b length immediately preceding it. The two aggregations are
// independent; the baseline never includes recent sessions.
func (e *Executor) comparePeriods(ctx context.Context, args compareArgs) (*Result, error) {
	windowA, _, err := PeriodWindow(args.PeriodA)
	if err != nil {
		return nil, err
	}
	periodB := args.PeriodB
	if periodB == "" {
		periodB = periodOrDefault(args.PeriodA)
	}
	windowB, _, err := PeriodWindow(periodB)
	if err != nil {
		return nil, err
	}

	// One fetch covering both windows, then split on the boundary.
	sessions, err := e.history.RecentWorkouts(ctx, e.user.UserID, windowA+windowB)
	if err != nil {
		return nil, fmt.Errorf("loading recent workouts: %w", err)
	}

	var recent, baseline periodAggregate
	recent.Period = periodOrDefault(args.PeriodA)
	baseline.Period = periodB

	cutoff := timeNow().Add(-windowA)
	for _, s := range sessions {
		if s.Date.Before(cutoff) {
			baseline.WorkoutCount++
			baseline.TotalVolumeKg += s.Volume()
		} else {
			recent.WorkoutCount++
			recent.TotalVolumeKg += s.Volume()
		}
	}

	res := compareResult{Recent: recent, Baseline: baseline}
	if baseline.TotalVolumeKg != 0 {
		res.VolumeChangePct = (recent.TotalVolumeKg - baseline.TotalVolumeKg) / baseline.TotalVolumeKg * 100
	}
	switch {
	case baseline.TotalVolumeKg == 0 && recent.TotalVolumeKg > 0:
		// No baseline to divide by: any recorded volume beats an empty
		// period, so the percent stays 0 but the trend does not read
		// "stable".
		res.Trend = "improving"
	case res.VolumeChangePct > comparisonDeadbandPct:
		res.Trend = "improving"
	case res.VolumeChangePct < -comparisonDeadbandPct:
		res.Trend = "declining"
	default:
		res.Trend = "stable"
	}

	payload, err := toPayload(res)
	if err != nil {
		return nil, err
	}
	return &Result{Payload: payload}, nil
}

// periodOrDefault echoes the requested period name, applying the default.
func periodOrDefault(period string) string {
	if period == "" {
		return DefaultPeriod
	}
	return period
}
