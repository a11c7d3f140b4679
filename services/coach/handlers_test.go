// Copyright (C) 2025 AtlasFit Labs (engineering@atlasfit.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package coach

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlasfit/coach-engine/services/coach/agent"
	"github.com/atlasfit/coach-engine/services/coach/datatypes"
	"github.com/atlasfit/coach-engine/services/coach/llm"
	"github.com/atlasfit/coach-engine/services/coach/proposal"
	"github.com/atlasfit/coach-engine/services/coach/resolver"
	"github.com/atlasfit/coach-engine/services/coach/storage/badger"
	"github.com/atlasfit/coach-engine/services/coach/store"
	"github.com/atlasfit/coach-engine/services/coach/tools"
)

const testExerciseID = "11111111-1111-4111-8111-111111111111"

// textOnlyModel always closes with the same text.
type textOnlyModel struct{ text string }

func (m *textOnlyModel) CompleteWithTools(context.Context, []datatypes.Message, string, []llm.Declaration) (*llm.Turn, error) {
	return &llm.Turn{Text: m.text}, nil
}

type emptyHistory struct{}

func (emptyHistory) RecentWorkouts(context.Context, string, time.Duration) ([]datatypes.WorkoutSession, error) {
	return nil, nil
}

func (emptyHistory) ExerciseHistory(context.Context, string, string, time.Duration) ([]datatypes.ExerciseSessionSets, error) {
	return nil, nil
}

type emptyCatalog struct{}

func (emptyCatalog) SearchByVector(context.Context, []float32, store.SearchFilters, float64, int) ([]store.RankedVariant, error) {
	return nil, nil
}

func (emptyCatalog) SearchByKeyword(context.Context, string, store.SearchFilters, int) ([]datatypes.ExerciseVariant, error) {
	return nil, nil
}

func (emptyCatalog) ListVariants(context.Context, store.SearchFilters, int) ([]datatypes.ExerciseVariant, error) {
	return nil, nil
}

func (emptyCatalog) VariantsForCanonical(_ context.Context, names []string) (map[string][]datatypes.ExerciseVariant, error) {
	out := make(map[string][]datatypes.ExerciseVariant, len(names))
	for _, n := range names {
		out[n] = nil
	}
	return out, nil
}

func (emptyCatalog) AllVariants(context.Context) ([]datatypes.ExerciseVariant, error) {
	return nil, nil
}

type staticEmbedder struct{}

func (staticEmbedder) Embed(context.Context, string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}

func newTestRouter(t *testing.T, model llm.ModelClient, plans store.PlanStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	catalog := emptyCatalog{}
	res := resolver.New(catalog, nil)
	processor := proposal.NewProcessor(res, catalog, nil)
	loop := agent.NewLoop(model, processor, tools.Declarations(), 0, 0, nil)
	handlers := NewHandlers(loop, emptyHistory{}, catalog, staticEmbedder{}, plans, nil)

	router := gin.New()
	RegisterRoutes(router.Group("/v1"), handlers)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleChat_ReturnsClosingText(t *testing.T) {
	router := newTestRouter(t, &textOnlyModel{text: "Keep up the good work!"}, nil)

	rec := postJSON(t, router, "/v1/coach/chat", ChatRequest{
		UserID:  "user-1",
		Message: "how am I doing?",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Keep up the good work!", resp.Text)
	assert.Equal(t, 1, resp.Iterations)
	assert.Nil(t, resp.Proposal)
}

func TestHandleChat_RejectsMissingFields(t *testing.T) {
	router := newTestRouter(t, &textOnlyModel{text: "x"}, nil)

	rec := postJSON(t, router, "/v1/coach/chat", map[string]any{"user_id": "user-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_REQUEST", resp.Code)
}

func TestHandleAcceptPlan_PersistsAndReturnsID(t *testing.T) {
	db, err := badger.OpenDB(badger.Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	plans := store.NewBadgerPlanStore(db, nil)
	router := newTestRouter(t, &textOnlyModel{text: "x"}, plans)

	rec := postJSON(t, router, "/v1/coach/plans/accept", AcceptPlanRequest{
		UserID: "user-1",
		Plan: datatypes.PlanProposal{
			Name: "Upper/Lower",
			Days: []datatypes.PlanDay{{
				DayName:   "Upper",
				Exercises: []datatypes.PlanExercise{{ExerciseID: testExerciseID, Name: "Bench Press"}},
			}},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AcceptPlanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.PlanID)
}

func TestHandleAcceptPlan_RejectsInvalidIDs(t *testing.T) {
	db, err := badger.OpenDB(badger.Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	router := newTestRouter(t, &textOnlyModel{text: "x"}, store.NewBadgerPlanStore(db, nil))

	rec := postJSON(t, router, "/v1/coach/plans/accept", AcceptPlanRequest{
		UserID: "user-1",
		Plan: datatypes.PlanProposal{
			Name: "Bad",
			Days: []datatypes.PlanDay{{
				DayName:   "A",
				Exercises: []datatypes.PlanExercise{{ExerciseID: "made-up", Name: "Bench Press"}},
			}},
		},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandleAcceptPlan_PersistenceDisabled(t *testing.T) {
	router := newTestRouter(t, &textOnlyModel{text: "x"}, nil)

	rec := postJSON(t, router, "/v1/coach/plans/accept", AcceptPlanRequest{
		UserID: "user-1",
		Plan:   datatypes.PlanProposal{Name: "P"},
	})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	router := newTestRouter(t, &textOnlyModel{text: "x"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/coach/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
