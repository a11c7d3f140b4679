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

	"github.com/atlasfit/coach-engine/services/coach/datatypes"
	badgerstore "github.com/atlasfit/coach-engine/services/coach/storage/badger"
)

// historyKeyPrefix is versioned to allow format changes without collision.
// Keys embed the session date in RFC3339, so a per-user prefix scan yields
// sessions in chronological order.
const historyKeyPrefix = "coach/history/v1/"

// BadgerHistoryStore implements HistoryStore backed by BadgerDB.
//
// # Description
//
// Sessions are written by the ingest path (sync jobs, the seed command)
// and read by the analytics tools. One key per session:
//
//	coach/history/v1/{userID}/{RFC3339 date}
//
// # Thread Safety
//
// Safe for concurrent use.
type BadgerHistoryStore struct {
	db     *badgerstore.DB
	logger *slog.Logger
}

// NewBadgerHistoryStore creates a history store backed by the given DB.
func NewBadgerHistoryStore(db *badgerstore.DB, logger *slog.Logger) *BadgerHistoryStore {
	if db == nil {
		panic("NewBadgerHistoryStore: db must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BadgerHistoryStore{db: db, logger: logger}
}

// SaveSession persists one completed session for the user.
func (s *BadgerHistoryStore) SaveSession(ctx context.Context, userID string, session datatypes.WorkoutSession) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("history store: encoding session: %w", err)
	}

	key := []byte(historyKeyPrefix + userID + "/" + session.Date.UTC().Format(time.RFC3339))
	err = s.db.WithTxn(ctx, func(txn *dgbadger.Txn) error {
		return txn.Set(key, raw)
	})
	if err != nil {
		return fmt.Errorf("history store: saving session: %w", err)
	}
	return nil
}

// RecentWorkouts returns the user's sessions within the trailing window,
// oldest first.
func (s *BadgerHistoryStore) RecentWorkouts(ctx context.Context, userID string, window time.Duration) ([]datatypes.WorkoutSession, error) {
	cutoff := time.Now().Add(-window)

	var sessions []datatypes.WorkoutSession
	err := s.db.WithReadTxn(ctx, func(txn *dgbadger.Txn) error {
		prefix := []byte(historyKeyPrefix + userID + "/")
		opts := dgbadger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var session datatypes.WorkoutSession
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &session)
			})
			if err != nil {
				return fmt.Errorf("decoding session: %w", err)
			}
			if session.Date.Before(cutoff) {
				continue
			}
			sessions = append(sessions, session)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("history store: listing workouts: %w", err)
	}
	return sessions, nil
}

// ExerciseHistory returns the user's per-session sets for one exercise
// within the trailing window, oldest first.
func (s *BadgerHistoryStore) ExerciseHistory(ctx context.Context, userID, exerciseID string, window time.Duration) ([]datatypes.ExerciseSessionSets, error) {
	sessions, err := s.RecentWorkouts(ctx, userID, window)
	if err != nil {
		return nil, err
	}

	var history []datatypes.ExerciseSessionSets
	for _, session := range sessions {
		for _, ex := range session.Exercises {
			if ex.ExerciseID != exerciseID {
				continue
			}
			history = append(history, datatypes.ExerciseSessionSets{
				Date: session.Date,
				Sets: ex.Sets,
			})
		}
	}
	return history, nil
}
