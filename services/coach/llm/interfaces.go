// Copyright (C) 2025 AtlasFit Labs (engineering@atlasfit.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package llm defines the model-provider abstraction and the Gemini
// implementation used by the coaching agent loop.
package llm

import (
	"context"

	"github.com/atlasfit/coach-engine/services/coach/datatypes"
)

// Turn is one model completion: either closing text or a tool invocation.
// Exactly one of the two fields is meaningful; FunctionCall wins when both
// are present.
type Turn struct {
	Text         string
	FunctionCall *datatypes.FunctionCall
}

// IsFunctionCall reports whether the turn requests a tool invocation.
func (t Turn) IsFunctionCall() bool {
	return t.FunctionCall != nil
}

// ModelClient completes a conversation with tool support.
//
// Thread Safety: Implementations must be safe for concurrent use.
type ModelClient interface {
	// CompleteWithTools sends the history plus system prompt and tool
	// catalog to the model and returns its next turn.
	CompleteWithTools(ctx context.Context, history []datatypes.Message, systemPrompt string, catalog []Declaration) (*Turn, error)
}
