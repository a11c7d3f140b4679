// Copyright (C) 2025 AtlasFit Labs (engineering@atlasfit.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package agent runs the bounded tool-calling conversation loop between the
// coaching model and the tool suite.
package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/atlasfit/coach-engine/services/coach/datatypes"
	"github.com/atlasfit/coach-engine/services/coach/llm"
	"github.com/atlasfit/coach-engine/services/coach/tools"
)

// Loop bounds. MaxIterations caps model calls per run; maxSearchStreak is
// how many consecutive search calls trigger the corrective instruction.
const (
	DefaultMaxIterations   = 12
	DefaultMaxSearchStreak = 5
)

// correctiveInstruction is injected after too many consecutive searches.
// It rides the conversational history as a user-role turn so the model
// treats it with the weight of a user request on its next call.
const correctiveInstruction = "You have searched the exercise catalog enough. " +
	"Stop searching now and finish your answer with the information you have " +
	"already gathered. If you are building a plan, call create_plan_proposal " +
	"with the exercise ids you already found."

// fallbackText stands in when the iteration budget runs out without a text
// response. The loop never fails on non-convergence.
const fallbackText = "I gathered some information but couldn't finish a " +
	"complete answer this time. Could you ask again, or tell me which part " +
	"to focus on?"

// loopState names the loop's explicit states.
type loopState int

const (
	stateCallModel loopState = iota
	stateExecuteTool
	stateDone
)

// ToolExecutor dispatches one tool call. Satisfied by *tools.Executor.
type ToolExecutor interface {
	Execute(ctx context.Context, call datatypes.FunctionCall) (*tools.Result, error)
}

// ProposalProcessor finalizes plan proposals. Satisfied by
// *proposal.Processor.
type ProposalProcessor interface {
	Process(ctx context.Context, tagged *datatypes.PlanProposal, closingText string, user datatypes.UserContext) (*datatypes.PlanProposal, error)
}

// Outcome is the result of one agent run.
type Outcome struct {
	// Text is the model's closing message, or the fallback when the
	// iteration budget ran out.
	Text string

	// Proposal is the finalized plan proposal, nil when the run produced
	// none.
	Proposal *datatypes.PlanProposal

	// Iterations is how many model calls the run used.
	Iterations int
}

// Loop drives the model/tool conversation.
//
// # Thread Safety
//
// Safe for concurrent use; per-run state lives on the stack of Run.
type Loop struct {
	model           llm.ModelClient
	processor       ProposalProcessor
	catalog         []llm.Declaration
	maxIterations   int
	maxSearchStreak int
	logger          *slog.Logger
}

// NewLoop creates a Loop.
//
// Inputs:
//   - model: Model provider. Must not be nil.
//   - processor: Proposal finalizer. Must not be nil.
//   - catalog: Tool declarations handed to the model each call.
//   - maxIterations, maxSearchStreak: Loop bounds; 0 selects the defaults.
//   - logger: May be nil.
func NewLoop(model llm.ModelClient, processor ProposalProcessor, catalog []llm.Declaration, maxIterations, maxSearchStreak int, logger *slog.Logger) *Loop {
	if model == nil {
		panic("agent.NewLoop: model must not be nil")
	}
	if processor == nil {
		panic("agent.NewLoop: processor must not be nil")
	}
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	if maxSearchStreak <= 0 {
		maxSearchStreak = DefaultMaxSearchStreak
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		model:           model,
		processor:       processor,
		catalog:         catalog,
		maxIterations:   maxIterations,
		maxSearchStreak: maxSearchStreak,
		logger:          logger,
	}
}

// Run executes the loop over the supplied history.
//
// # Description
//
// Explicit state machine: CallModel → ExecuteTool → CallModel … → Done.
// Tool execution is strictly serial; every tool result is appended to
// history before the next model call because the model's next decision
// depends on it. Tool failures become {error} responses and the loop keeps
// going; only model-provider failures abort the run.
//
// Outputs:
//   - *Outcome: Closing text plus any finalized proposal. On
//     proposal.ErrUnusable the outcome still carries the closing text.
//   - error: Model-provider failure, collaborator failure during proposal
//     finalization, or the unusable-proposal failure.
func (l *Loop) Run(ctx context.Context, history []datatypes.Message, executor ToolExecutor, user datatypes.UserContext) (*Outcome, error) {
	if executor == nil {
		panic("agent.Loop.Run: executor must not be nil")
	}

	systemPrompt := SystemPrompt(user)

	var (
		state        = stateCallModel
		iterations   = 0
		searchStreak = 0
		closingText  = ""
		captured     *datatypes.PlanProposal
		pendingCall  *datatypes.FunctionCall
	)

	for state != stateDone {
		switch state {
		case stateCallModel:
			if iterations >= l.maxIterations {
				l.logger.Warn("iteration budget exhausted without closing text",
					slog.String("user_id", user.UserID),
					slog.Int("iterations", iterations),
				)
				loopNonConvergence.Inc()
				closingText = fallbackText
				state = stateDone
				continue
			}
			iterations++

			turn, err := l.model.CompleteWithTools(ctx, history, systemPrompt, l.catalog)
			if err != nil {
				return nil, fmt.Errorf("agent: model call %d: %w", iterations, err)
			}

			if turn.IsFunctionCall() {
				pendingCall = turn.FunctionCall
				state = stateExecuteTool
				continue
			}
			closingText = turn.Text
			state = stateDone

		case stateExecuteTool:
			call := *pendingCall
			pendingCall = nil

			result, err := executor.Execute(ctx, call)

			// The call turn is recorded either way; the response turn
			// carries the payload or the error.
			history = append(history, datatypes.NewFunctionCallTurn(call))
			if err != nil {
				history = append(history, datatypes.NewFunctionResponseTurn(
					call.Name, map[string]any{"error": err.Error()}))
			} else {
				history = append(history, datatypes.NewFunctionResponseTurn(
					call.Name, result.Payload))
				if result.Proposal != nil {
					captured = result.Proposal
				}
			}

			switch {
			case tools.IsSearchTool(call.Name):
				searchStreak++
				if searchStreak >= l.maxSearchStreak {
					history = append(history, datatypes.NewUserText(correctiveInstruction))
					searchStreak = 0
					correctiveInjections.Inc()
					l.logger.Info("injected corrective instruction after search streak",
						slog.String("user_id", user.UserID),
					)
				}
			case tools.IsPlanTool(call.Name):
				searchStreak = 0
			}

			state = stateCallModel
		}
	}

	loopIterations.Observe(float64(iterations))

	outcome := &Outcome{Text: closingText, Iterations: iterations}
	finalized, err := l.processor.Process(ctx, captured, closingText, user)
	if err != nil {
		return outcome, fmt.Errorf("agent: finalizing proposal: %w", err)
	}
	outcome.Proposal = finalized
	return outcome, nil
}
