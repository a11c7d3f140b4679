// Copyright (C) 2025 AtlasFit Labs (engineering@atlasfit.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

// Declaration describes one callable tool exposed to the model.
//
// Description:
//
//	The natural-language Description is part of the functional contract:
//	it is what causes the model to select the tool. Treat wording changes
//	as behavior changes, not documentation edits.
type Declaration struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  ParameterSchema `json:"parameters"`
}

// ParameterSchema is the JSON-schema-shaped parameter block of a tool
// declaration. Always an object schema at the top level.
type ParameterSchema struct {
	Type       string              `json:"type"`
	Properties map[string]ParamDef `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// ParamDef describes a single tool parameter.
type ParamDef struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`

	// Items describes array element types when Type is "array".
	Items *ParamDef `json:"items,omitempty"`
}

// ObjectSchema builds an object ParameterSchema from properties and the
// required property names.
func ObjectSchema(properties map[string]ParamDef, required ...string) ParameterSchema {
	return ParameterSchema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}
