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
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/atlasfit/coach-engine/services/coach/datatypes"
)

// defaultDescription fills a proposal whose model output omitted one.
const defaultDescription = "Custom training plan"

// rawProposal keeps days raw so Parse can handle both the array shape and
// the day-label object shape.
type rawProposal struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	DurationWeeks int             `json:"duration_weeks"`
	Days          json.RawMessage `json:"days"`
}

// dayEntry uses pointers to distinguish absent fields from zero values when
// normalizing the day-map shape.
type dayEntry struct {
	DayNumber *int                     `json:"day_number"`
	DayName   *string                  `json:"day_name"`
	DayType   *string                  `json:"day_type"`
	Exercises []datatypes.PlanExercise `json:"exercises"`
}

// Parse decodes a raw proposal object into a normalized PlanProposal.
//
// # Description
//
// Models emit days either as an array or as an object keyed by day label
// ("Push", "Pull"). The object shape is converted preserving insertion
// order: day_number defaults to the entry's position, day_name to its key.
func Parse(raw []byte) (*datatypes.PlanProposal, error) {
	var rp rawProposal
	if err := json.Unmarshal(raw, &rp); err != nil {
		return nil, fmt.Errorf("proposal: parsing object: %w", err)
	}

	p := datatypes.PlanProposal{
		Name:          rp.Name,
		Description:   rp.Description,
		DurationWeeks: rp.DurationWeeks,
	}

	if len(rp.Days) > 0 {
		days, err := parseDays(rp.Days)
		if err != nil {
			return nil, err
		}
		p.Days = days
	}

	normalized := Normalize(p)
	return &normalized, nil
}

// parseDays decodes the days value in either shape.
func parseDays(raw json.RawMessage) ([]datatypes.PlanDay, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var days []datatypes.PlanDay
		if err := json.Unmarshal(trimmed, &days); err != nil {
			return nil, fmt.Errorf("proposal: parsing days array: %w", err)
		}
		return days, nil
	}
	if trimmed[0] == '{' {
		return parseDayMap(trimmed)
	}
	return nil, fmt.Errorf("proposal: days is neither array nor object")
}

// parseDayMap converts the day-label object shape to an ordered day slice.
// encoding/json maps do not preserve key order, so this walks the token
// stream instead.
func parseDayMap(raw []byte) ([]datatypes.PlanDay, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("proposal: reading day map: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("proposal: day map does not open with an object")
	}

	var days []datatypes.PlanDay
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("proposal: reading day key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("proposal: day key is not a string")
		}

		var entry dayEntry
		if err := dec.Decode(&entry); err != nil {
			return nil, fmt.Errorf("proposal: parsing day %q: %w", key, err)
		}

		day := datatypes.PlanDay{
			DayNumber: len(days) + 1,
			DayName:   key,
			DayType:   datatypes.DefaultDayType,
			Exercises: entry.Exercises,
		}
		if entry.DayNumber != nil {
			day.DayNumber = *entry.DayNumber
		}
		if entry.DayName != nil {
			day.DayName = *entry.DayName
		}
		if entry.DayType != nil {
			day.DayType = *entry.DayType
		}
		days = append(days, day)
	}
	return days, nil
}

// Normalize fills defaults on a structurally parsed proposal. It is
// idempotent: normalizing an already-normalized proposal changes nothing.
func Normalize(p datatypes.PlanProposal) datatypes.PlanProposal {
	if p.DurationWeeks <= 0 {
		p.DurationWeeks = datatypes.DefaultDurationWeeks
	}
	if p.Description == "" {
		p.Description = defaultDescription
	}

	days := make([]datatypes.PlanDay, len(p.Days))
	for i, day := range p.Days {
		if day.DayNumber <= 0 {
			day.DayNumber = i + 1
		}
		if day.DayType == "" {
			day.DayType = datatypes.DefaultDayType
		}
		exercises := make([]datatypes.PlanExercise, len(day.Exercises))
		for j, ex := range day.Exercises {
			if ex.TargetSets <= 0 {
				ex.TargetSets = datatypes.DefaultTargetSets
			}
			if ex.TargetReps == "" {
				ex.TargetReps = datatypes.DefaultTargetReps
			}
			if ex.RestSeconds <= 0 {
				ex.RestSeconds = datatypes.DefaultRestSeconds
			}
			exercises[j] = ex
		}
		day.Exercises = exercises
		days[i] = day
	}
	p.Days = days
	return p
}
