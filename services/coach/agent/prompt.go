// Copyright (C) 2025 AtlasFit Labs (engineering@atlasfit.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package agent

import (
	"fmt"
	"strings"

	"github.com/atlasfit/coach-engine/services/coach/datatypes"
)

// SystemPrompt builds the coaching system instruction for one user.
//
// The prompt pins down the tool protocol the rest of the pipeline depends
// on: catalog ids come from search, plans go through create_plan_proposal,
// and the model never invents ids.
func SystemPrompt(user datatypes.UserContext) string {
	var b strings.Builder

	b.WriteString("You are a knowledgeable, encouraging strength training coach. ")
	b.WriteString("Ground every claim about the user's training in tool results; ")
	b.WriteString("never guess at their history.\n\n")

	b.WriteString("Rules:\n")
	b.WriteString("- Use the analytics tools to answer questions about past training.\n")
	b.WriteString("- Before adding any exercise to a plan, find it with search_exercises ")
	b.WriteString("and use the exact id the search returned. Never invent exercise ids.\n")
	b.WriteString("- Build plans only through create_plan_proposal. After the proposal is ")
	b.WriteString("created, summarize it for the user in plain language.\n")
	b.WriteString("- Keep answers concise and practical.\n")

	if len(user.Equipment) > 0 {
		fmt.Fprintf(&b, "\nThe user's available equipment: %s.\n",
			strings.Join(user.Equipment, ", "))
	}
	if user.SkillLevel != "" {
		fmt.Fprintf(&b, "The user's experience level: %s.\n", user.SkillLevel)
	}
	return b.String()
}
