// Copyright (C) 2025 AtlasFit Labs (engineering@atlasfit.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	dgbadger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/atlasfit/coach-engine/services/coach/datatypes"
	badgerstore "github.com/atlasfit/coach-engine/services/coach/storage/badger"
)

// planKeyPrefix is versioned to allow format changes without collision.
const planKeyPrefix = "coach/plans/v1/"

// storedPlan is the persisted accepted-plan record.
type storedPlan struct {
	PlanID     string                 `json:"plan_id"`
	UserID     string                 `json:"user_id"`
	AcceptedAt time.Time              `json:"accepted_at"`
	Plan       datatypes.PlanProposal `json:"plan"`
}

// BadgerPlanStore implements PlanStore backed by BadgerDB.
//
// Thread Safety: Safe for concurrent use.
type BadgerPlanStore struct {
	db     *badgerstore.DB
	logger *slog.Logger
}

// NewBadgerPlanStore creates a plan store backed by the given DB.
//
// Inputs:
//   - db: Opened BadgerDB wrapper. Must not be nil; the caller owns its
//     lifecycle.
//   - logger: May be nil.
func NewBadgerPlanStore(db *badgerstore.DB, logger *slog.Logger) *BadgerPlanStore {
	if db == nil {
		panic("NewBadgerPlanStore: db must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BadgerPlanStore{db: db, logger: logger}
}

// CreatePlan stores the accepted plan and returns its new id.
func (s *BadgerPlanStore) CreatePlan(ctx context.Context, userID string, plan datatypes.PlanProposal) (string, error) {
	record := storedPlan{
		PlanID:     uuid.NewString(),
		UserID:     userID,
		AcceptedAt: time.Now().UTC(),
		Plan:       plan,
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("plan store: encoding plan: %w", err)
	}

	key := []byte(planKeyPrefix + userID + "/" + record.PlanID)
	err = s.db.WithTxn(ctx, func(txn *dgbadger.Txn) error {
		return txn.Set(key, raw)
	})
	if err != nil {
		return "", fmt.Errorf("plan store: saving plan: %w", err)
	}

	s.logger.Info("plan accepted",
		slog.String("user_id", userID),
		slog.String("plan_id", record.PlanID),
		slog.Int("days", len(plan.Days)),
	)
	return record.PlanID, nil
}
