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
	"log/slog"
	"time"

	"github.com/atlasfit/coach-engine/services/coach/datatypes"
	"github.com/atlasfit/coach-engine/services/coach/embedding"
	"github.com/atlasfit/coach-engine/services/coach/store"
)

// Result is the outcome of one tool call.
type Result struct {
	// Payload is fed back to the model as the functionResponse body.
	Payload map[string]any

	// Proposal is set only by the plan-creation tool. The agent loop
	// captures it; it takes priority over proposals extracted from closing
	// text.
	Proposal *datatypes.PlanProposal
}

// Executor dispatches tool calls for one user's agent run.
//
// # Description
//
// An Executor is constructed per request with the calling user's context
// baked in, so tool handlers never see another user's history. All analytics
// handlers are pure read-only aggregations over the history store.
//
// # Thread Safety
//
// Safe for concurrent use; all fields are read-only after construction.
type Executor struct {
	history  store.HistoryStore
	catalog  store.CatalogStore
	embedder embedding.Provider
	user     datatypes.UserContext
	logger   *slog.Logger
}

// NewExecutor creates an Executor for one user's run.
//
// Inputs:
//   - history, catalog: Collaborator stores. Must not be nil.
//   - embedder: Embedding provider for semantic search. Must not be nil.
//   - user: The calling user's context.
//   - logger: May be nil.
func NewExecutor(history store.HistoryStore, catalog store.CatalogStore, embedder embedding.Provider, user datatypes.UserContext, logger *slog.Logger) *Executor {
	if history == nil {
		panic("tools.NewExecutor: history must not be nil")
	}
	if catalog == nil {
		panic("tools.NewExecutor: catalog must not be nil")
	}
	if embedder == nil {
		panic("tools.NewExecutor: embedder must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		history:  history,
		catalog:  catalog,
		embedder: embedder,
		user:     user,
		logger:   logger,
	}
}

// Execute runs the named tool and returns its result.
//
// Outputs:
//   - *Result: Payload for the model, plus a proposal for plan creation.
//   - error: Non-nil on failure. The caller serializes it as an {error}
//     response and keeps the conversation going; Execute never panics on
//     model-supplied input.
func (e *Executor) Execute(ctx context.Context, call datatypes.FunctionCall) (*Result, error) {
	start := time.Now()
	result, err := e.dispatch(ctx, call)
	toolCallDuration.WithLabelValues(call.Name).Observe(time.Since(start).Seconds())

	if err != nil {
		toolCalls.WithLabelValues(call.Name, "error").Inc()
		e.logger.Warn("tool call failed",
			slog.String("tool", call.Name),
			slog.String("user_id", e.user.UserID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	toolCalls.WithLabelValues(call.Name, "ok").Inc()
	e.logger.Debug("tool call completed",
		slog.String("tool", call.Name),
		slog.String("user_id", e.user.UserID),
	)
	return result, nil
}

// dispatch routes the call to its handler.
func (e *Executor) dispatch(ctx context.Context, call datatypes.FunctionCall) (*Result, error) {
	switch call.Name {
	case ToolWorkoutSummary:
		var args summaryArgs
		if err := decodeArgs(call.Args, &args); err != nil {
			return nil, err
		}
		return e.workoutSummary(ctx, args)

	case ToolExerciseProgress:
		var args progressArgs
		if err := decodeArgs(call.Args, &args); err != nil {
			return nil, err
		}
		return e.exerciseProgress(ctx, args)

	case ToolConsistency:
		var args consistencyArgs
		if err := decodeArgs(call.Args, &args); err != nil {
			return nil, err
		}
		return e.consistency(ctx, args)

	case ToolMuscleCoverage:
		var args coverageArgs
		if err := decodeArgs(call.Args, &args); err != nil {
			return nil, err
		}
		return e.muscleCoverage(ctx, args)

	case ToolComparePeriods:
		var args compareArgs
		if err := decodeArgs(call.Args, &args); err != nil {
			return nil, err
		}
		return e.comparePeriods(ctx, args)

	case ToolSearchExercises:
		var args searchArgs
		if err := decodeArgs(call.Args, &args); err != nil {
			return nil, err
		}
		return e.searchExercises(ctx, args)

	case ToolCreatePlan:
		var args planArgs
		if err := decodeArgs(call.Args, &args); err != nil {
			return nil, err
		}
		return e.createPlanProposal(args)

	default:
		return nil, fmt.Errorf("unknown tool %q", call.Name)
	}
}
