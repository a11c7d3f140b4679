// Copyright (C) 2025 AtlasFit Labs (engineering@atlasfit.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package coach exposes the coaching engine over HTTP.
package coach

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/atlasfit/coach-engine/services/coach/agent"
	"github.com/atlasfit/coach-engine/services/coach/datatypes"
	"github.com/atlasfit/coach-engine/services/coach/embedding"
	"github.com/atlasfit/coach-engine/services/coach/proposal"
	"github.com/atlasfit/coach-engine/services/coach/store"
	"github.com/atlasfit/coach-engine/services/coach/tools"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ChatRequest is the body of POST /v1/coach/chat.
//
// The caller owns conversation state: History carries the prior turns and
// the new message is appended server-side, so the service itself stays
// stateless between requests.
type ChatRequest struct {
	UserID     string              `json:"user_id" binding:"required"`
	Message    string              `json:"message" binding:"required"`
	History    []datatypes.Message `json:"history"`
	Equipment  []string            `json:"equipment"`
	SkillLevel string              `json:"skill_level"`
}

// ChatResponse is the body returned by POST /v1/coach/chat.
type ChatResponse struct {
	Text       string                  `json:"text"`
	Proposal   *datatypes.PlanProposal `json:"proposal,omitempty"`
	Iterations int                     `json:"iterations"`
}

// AcceptPlanRequest is the body of POST /v1/coach/plans/accept.
type AcceptPlanRequest struct {
	UserID string                 `json:"user_id" binding:"required"`
	Plan   datatypes.PlanProposal `json:"plan" binding:"required"`
}

// AcceptPlanResponse is the body returned by POST /v1/coach/plans/accept.
type AcceptPlanResponse struct {
	PlanID string `json:"plan_id"`
}

// Handlers holds the HTTP handlers and their collaborators.
//
// Thread Safety: Safe for concurrent use.
type Handlers struct {
	loop     *agent.Loop
	history  store.HistoryStore
	catalog  store.CatalogStore
	embedder embedding.Provider
	plans    store.PlanStore // nil when persistence is not configured
	logger   *slog.Logger
}

// NewHandlers creates the handler set.
//
// Inputs:
//   - loop: The agent loop. Must not be nil.
//   - history, catalog: Collaborator stores. Must not be nil.
//   - embedder: Embedding provider. Must not be nil.
//   - plans: Plan persistence; nil disables the accept endpoint.
//   - logger: May be nil.
func NewHandlers(loop *agent.Loop, history store.HistoryStore, catalog store.CatalogStore, embedder embedding.Provider, plans store.PlanStore, logger *slog.Logger) *Handlers {
	if loop == nil {
		panic("coach.NewHandlers: loop must not be nil")
	}
	if history == nil {
		panic("coach.NewHandlers: history must not be nil")
	}
	if catalog == nil {
		panic("coach.NewHandlers: catalog must not be nil")
	}
	if embedder == nil {
		panic("coach.NewHandlers: embedder must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		loop:     loop,
		history:  history,
		catalog:  catalog,
		embedder: embedder,
		plans:    plans,
		logger:   logger,
	}
}

// HandleChat handles POST /v1/coach/chat.
//
// Description:
//
//	Runs one agent loop over the supplied history plus the new message and
//	returns the closing text with any finalized plan proposal. An unusable
//	proposal (every exercise failed resolution) is the only proposal-level
//	failure surfaced to the caller.
//
// Response:
//
//	200 OK: ChatResponse
//	400 Bad Request: Missing user_id or message
//	422 Unprocessable Entity: Proposal produced but unusable
//	502 Bad Gateway: Model provider failure
func (h *Handlers) HandleChat(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := h.logger.With(
		slog.String("request_id", requestID),
		slog.String("handler", "HandleChat"),
	)

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "user_id and message are required",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	// The otelgin middleware has already started the request span; this
	// child span scopes the agent run itself.
	ctx, span := otel.Tracer("atlasfit.coach").Start(c.Request.Context(), "coach.chat",
		oteltrace.WithAttributes(
			attribute.String("user_id", req.UserID),
			attribute.Int("history_len", len(req.History)),
		),
	)
	defer span.End()

	user := datatypes.UserContext{
		UserID:     req.UserID,
		Equipment:  req.Equipment,
		SkillLevel: req.SkillLevel,
	}
	history := append(req.History, datatypes.NewUserText(req.Message))
	executor := tools.NewExecutor(h.history, h.catalog, h.embedder, user, logger)

	outcome, err := h.loop.Run(ctx, history, executor, user)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, proposal.ErrUnusable) {
			logger.Warn("proposal unusable, returning failure",
				slog.String("user_id", req.UserID),
			)
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
				Error: "none of the proposed exercises could be matched to the catalog",
				Code:  "PROPOSAL_UNUSABLE",
			})
			return
		}
		logger.Error("agent run failed",
			slog.String("user_id", req.UserID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error: "the coaching model is currently unavailable",
			Code:  "MODEL_UNAVAILABLE",
		})
		return
	}

	span.SetAttributes(
		attribute.Int("iterations", outcome.Iterations),
		attribute.Bool("has_proposal", outcome.Proposal != nil),
	)
	c.JSON(http.StatusOK, ChatResponse{
		Text:       outcome.Text,
		Proposal:   outcome.Proposal,
		Iterations: outcome.Iterations,
	})
}

// HandleAcceptPlan handles POST /v1/coach/plans/accept.
//
// Description:
//
//	Persists a plan the user explicitly accepted. Plans are only ever
//	written through this endpoint; the agent loop itself never persists.
//
// Response:
//
//	200 OK: AcceptPlanResponse
//	400 Bad Request: Missing user_id or plan
//	422 Unprocessable Entity: Plan contains invalid exercise ids
//	503 Service Unavailable: Persistence not configured
func (h *Handlers) HandleAcceptPlan(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := h.logger.With(
		slog.String("request_id", requestID),
		slog.String("handler", "HandleAcceptPlan"),
	)

	if h.plans == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "plan persistence is not configured",
			Code:  "PERSISTENCE_DISABLED",
		})
		return
	}

	var req AcceptPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "user_id and plan are required",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	for _, day := range req.Plan.Days {
		for _, ex := range day.Exercises {
			if !datatypes.IsCatalogID(ex.ExerciseID) {
				c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
					Error: "plan contains exercises without valid catalog ids",
					Code:  "INVALID_PLAN",
				})
				return
			}
		}
	}

	planID, err := h.plans.CreatePlan(c.Request.Context(), req.UserID, proposal.Normalize(req.Plan))
	if err != nil {
		logger.Error("saving accepted plan failed",
			slog.String("user_id", req.UserID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "failed to save the plan",
			Code:  "PERSISTENCE_FAILED",
		})
		return
	}

	c.JSON(http.StatusOK, AcceptPlanResponse{PlanID: planID})
}

// HandleHealth handles GET /v1/coach/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// getOrCreateRequestID returns the inbound X-Request-ID or mints one.
func getOrCreateRequestID(c *gin.Context) string {
	if id := c.GetHeader("X-Request-ID"); id != "" {
		return id
	}
	return uuid.NewString()
}
