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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_LabeledFenceBeatsJSONFence(t *testing.T) {
	text := "Two blocks:\n" +
		"```json\n{\"name\": \"generic\", \"days\": []}\n```\n" +
		"```plan-proposal\n{\"name\": \"labeled\", \"days\": []}\n```\n"

	raw, ok := ExtractFromText(text)
	require.True(t, ok)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "labeled", got["name"])
}

func TestExtract_LabeledFenceStripsComments(t *testing.T) {
	text := "```plan-proposal\n" +
		"{\n" +
		"  // three day split\n" +
		"  \"name\": \"Split /* not a comment */\",\n" +
		"  /* legacy field removed */\n" +
		"  \"days\": []\n" +
		"}\n" +
		"```"

	raw, ok := ExtractFromText(text)
	require.True(t, ok)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	// Comment markers inside string literals survive.
	assert.Equal(t, "Split /* not a comment */", got["name"])
}

func TestExtract_LabeledFenceBraceRetry(t *testing.T) {
	text := "```plan-proposal\n" +
		"Sure! Here is the plan:\n" +
		"{\"name\": \"Wrapped\", \"days\": []}\n" +
		"Hope it helps.\n" +
		"```"

	raw, ok := ExtractFromText(text)
	require.True(t, ok)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "Wrapped", got["name"])
}

func TestExtract_JSONFenceRequiresDays(t *testing.T) {
	text := "```json\n{\"unrelated\": true}\n```\n" +
		"```json\n{\"name\": \"plan\", \"days\": [{\"day_name\": \"A\"}]}\n```"

	raw, ok := ExtractFromText(text)
	require.True(t, ok)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "plan", got["name"])
}

func TestExtract_BareJSONWithDaysKey(t *testing.T) {
	text := `Your plan is {"name": "Bare", "days": [{"day_name": "A", "exercises": []}]} and that is all.`

	raw, ok := ExtractFromText(text)
	require.True(t, ok)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "Bare", got["name"])
}

func TestExtract_NestedBracesInBareJSON(t *testing.T) {
	text := `Result: {"name": "Nested {curly} test", "days": [{"day_name": "A", "exercises": [{"exercise_id": "x"}]}]}`

	raw, ok := ExtractFromText(text)
	require.True(t, ok)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "Nested {curly} test", got["name"])
}

func TestExtract_NoCandidate(t *testing.T) {
	_, ok := ExtractFromText("Just words about training. No JSON here.")
	assert.False(t, ok)

	_, ok = ExtractFromText("")
	assert.False(t, ok)

	// A days mention without a JSON object should not match.
	_, ok = ExtractFromText(`I train most "days" of the week.`)
	assert.False(t, ok)
}

func TestStripComments(t *testing.T) {
	in := "{\n\"a\": \"keep // this\", // drop this\n/* and\nthis */\"b\": 1\n}"
	out := stripComments(in)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "keep // this", got["a"])
	assert.Equal(t, float64(1), got["b"])
}
