// Copyright (C) 2025 AtlasFit Labs (engineering@atlasfit.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes defines the domain entities shared across the coaching
// engine: conversation messages, workout history, the exercise catalog, and
// plan proposals.
//
// Thread Safety:
//
//	All types in this package are plain value types. They are safe for
//	concurrent read access; callers must not mutate shared instances.
package datatypes

import (
	"strings"
	"time"
)

// =============================================================================
// Conversation
// =============================================================================

// Message roles. The conversation uses two roles only: the end user (which
// also carries tool results back to the model) and the model itself.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Message is one conversation turn in the model wire shape.
//
// Description:
//
//	Each turn carries one or more parts: plain text, a functionCall emitted
//	by the model, or a functionResponse supplying a tool result back to the
//	model. A functionResponse turn always immediately follows the
//	functionCall turn it answers.
type Message struct {
	// Role is "user" or "model". Tool results ride the user role, matching
	// the provider convention for function responses.
	Role string `json:"role"`

	// Parts holds the turn content. At least one part is always present.
	Parts []Part `json:"parts"`
}

// Part is a single content element within a message.
type Part struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *FunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
}

// FunctionCall is a tool invocation requested by the model.
type FunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// FunctionResponse carries a tool result back to the model.
type FunctionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

// NewUserText builds a user turn containing only text.
func NewUserText(text string) Message {
	return Message{Role: RoleUser, Parts: []Part{{Text: text}}}
}

// NewModelText builds a model turn containing only text.
func NewModelText(text string) Message {
	return Message{Role: RoleModel, Parts: []Part{{Text: text}}}
}

// NewFunctionCallTurn builds the model turn recording a tool invocation.
func NewFunctionCallTurn(call FunctionCall) Message {
	return Message{Role: RoleModel, Parts: []Part{{FunctionCall: &call}}}
}

// NewFunctionResponseTurn builds the user-role turn that supplies a tool
// result back to the model.
func NewFunctionResponseTurn(name string, response map[string]any) Message {
	return Message{Role: RoleUser, Parts: []Part{
		{FunctionResponse: &FunctionResponse{Name: name, Response: response}},
	}}
}

// Text returns the concatenated text of all text parts in the message.
func (m Message) Text() string {
	var b strings.Builder
	for _, p := range m.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// =============================================================================
// Workout History
// =============================================================================

// SetLog is one logged set within an exercise.
type SetLog struct {
	// SetNumber orders sets within an exercise, starting at 1.
	SetNumber int `json:"set_number"`

	Reps     int     `json:"reps"`
	WeightKg float64 `json:"weight_kg"`

	// IsWarmup excludes the set from volume and consistency metrics.
	IsWarmup bool `json:"is_warmup"`
}

// ExerciseLog is one exercise performed within a session, with its sets
// ordered by set number.
type ExerciseLog struct {
	ExerciseID    string   `json:"exercise_id"`
	ExerciseName  string   `json:"exercise_name"`
	PrimaryMuscle string   `json:"primary_muscle"`
	Sets          []SetLog `json:"sets"`
}

// WorkoutSession is one completed training session.
type WorkoutSession struct {
	Date            time.Time     `json:"date"`
	DurationMinutes int           `json:"duration_minutes"`
	Exercises       []ExerciseLog `json:"exercises"`
}

// Volume returns the session's working volume: weight × reps summed over
// non-warmup sets only.
func (s WorkoutSession) Volume() float64 {
	var total float64
	for _, ex := range s.Exercises {
		for _, set := range ex.Sets {
			if set.IsWarmup {
				continue
			}
			total += set.WeightKg * float64(set.Reps)
		}
	}
	return total
}

// ExerciseSessionSets is the per-session set history of a single exercise,
// used by the progress analytics.
type ExerciseSessionSets struct {
	Date time.Time `json:"date"`
	Sets []SetLog  `json:"sets"`
}

// =============================================================================
// Exercise Catalog
// =============================================================================

// Equipment type names as they appear in the catalog. The resolver's
// priority weights are keyed by these exact strings.
const (
	EquipmentBarbell      = "Barbell"
	EquipmentDumbbell     = "Dumbbell"
	EquipmentCable        = "Cable"
	EquipmentMachine      = "Machine"
	EquipmentBodyweight   = "Bodyweight"
	EquipmentKettlebell   = "Kettlebell"
	EquipmentBand         = "Band"
	EquipmentSmithMachine = "Smith Machine"
	EquipmentEZBar        = "EZ Bar"
	EquipmentTrapBar      = "Trap Bar"
)

// Difficulty levels as they appear in the catalog.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// CanonicalExercise is an abstract, equipment-agnostic movement. The model
// reasons in canonical names; the resolver maps them to concrete variants.
type CanonicalExercise struct {
	// CanonicalName is the unique abstract name, e.g. "bench_press".
	CanonicalName     string `json:"canonical_name"`
	MovementPattern   string `json:"movement_pattern"`
	PrimaryMuscle     string `json:"primary_muscle"`
	EquipmentCategory string `json:"equipment_category"`
}

// IsCatalogID reports whether id looks like a real catalog identifier.
// Model-invented ids are short or lack the separator; anything failing this
// check is treated as hallucinated.
func IsCatalogID(id string) bool {
	return len(id) >= 20 && strings.Contains(id, "-")
}

// ExerciseVariant is a concrete catalog exercise implementing a canonical
// movement with specific equipment.
type ExerciseVariant struct {
	// ID is a stable opaque identifier (UUID-shaped).
	ID string `json:"id"`

	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	CanonicalName string `json:"canonical_name"`
	PrimaryMuscle string `json:"primary_muscle"`

	// EquipmentNeeded lists the equipment types required to perform the
	// variant. Empty means bodyweight-only.
	EquipmentNeeded []string `json:"equipment_needed"`

	Difficulty string `json:"difficulty"`

	HasVideo     bool `json:"has_video"`
	HasAnimation bool `json:"has_animation"`
	IsCompound   bool `json:"is_compound"`
}

// =============================================================================
// Plan Proposals
// =============================================================================

// Plan defaults applied when the model omits prescription fields.
const (
	DefaultTargetSets    = 3
	DefaultTargetReps    = "8-12"
	DefaultRestSeconds   = 90
	DefaultDurationWeeks = 8
	DefaultDayType       = "training"
)

// PlanExercise is one prescribed exercise within a plan day.
type PlanExercise struct {
	// ExerciseID must reference a concrete catalog variant before the
	// proposal is considered valid.
	ExerciseID string `json:"exercise_id"`

	Name        string `json:"name,omitempty"`
	TargetSets  int    `json:"target_sets"`
	TargetReps  string `json:"target_reps"`
	RestSeconds int    `json:"rest_seconds"`
	Notes       string `json:"notes,omitempty"`
}

// PlanDay is one day within a proposal. DayNumber is unique within a plan.
type PlanDay struct {
	DayNumber int            `json:"day_number"`
	DayName   string         `json:"day_name"`
	DayType   string         `json:"day_type"`
	Exercises []PlanExercise `json:"exercises"`
}

// PlanProposal is a candidate multi-day training plan awaiting user
// acceptance. It is constructed transiently during one agent run and never
// persisted by the core.
type PlanProposal struct {
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	DurationWeeks int       `json:"duration_weeks"`
	Days          []PlanDay `json:"days"`
}

// ExerciseCount returns the total number of exercises across all days.
func (p PlanProposal) ExerciseCount() int {
	n := 0
	for _, d := range p.Days {
		n += len(d.Exercises)
	}
	return n
}

// =============================================================================
// User Context
// =============================================================================

// UserContext carries the per-user inputs that shape resolution and
// analytics: available equipment and self-reported skill level.
type UserContext struct {
	UserID     string   `json:"user_id"`
	Equipment  []string `json:"equipment"`
	SkillLevel string   `json:"skill_level"`
}
