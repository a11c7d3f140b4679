// Copyright (C) 2025 AtlasFit Labs (engineering@atlasfit.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package embedding

// Query embedding vectors are cheap individually (~50ms) but the same
// queries recur across sessions ("chest exercises", "something for legs").
// This store persists them in BadgerDB between service restarts.
//
// Storage layout:
//
//	coach/emb/v1/{sha256(model \n normalized query)}  →  gob-encoded []float32
//	                                                     TTL: 7 days

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	dgbadger "github.com/dgraph-io/badger/v4"

	badgerstore "github.com/atlasfit/coach-engine/services/coach/storage/badger"
)

// vectorStoreDefaultTTL is the lifetime of a persisted vector. Long enough
// to survive weekends without accumulating stale entries indefinitely.
const vectorStoreDefaultTTL = 7 * 24 * time.Hour

// vectorStoreKeyPrefix is versioned to allow format changes without collision.
const vectorStoreKeyPrefix = "coach/emb/v1/"

// errStoreMiss distinguishes "key not found" from a genuine storage error.
var errStoreMiss = errors.New("store miss")

// VectorStore persists query embedding vectors across service restarts.
//
// Both methods are nil-safe at the call site: CachedProvider checks for a
// nil VectorStore and skips persistence, operating in in-memory-only mode.
// That is the correct behavior for tests and for deployments without a
// cache directory configured.
//
// Thread Safety: Implementations must be safe for concurrent use.
type VectorStore interface {
	// LoadVector retrieves the persisted vector for the normalized query key.
	// Returns (nil, nil) on miss (key absent or TTL expired).
	LoadVector(ctx context.Context, key string) ([]float32, error)

	// SaveVector persists the vector with the store's TTL. Failure is
	// non-fatal; the caller logs and continues.
	SaveVector(ctx context.Context, key string, vec []float32) error
}

// BadgerVectorStore implements VectorStore backed by BadgerDB.
//
// TTL is enforced by Badger's native GC; expired keys surface as
// ErrKeyNotFound, which the store treats as a miss.
//
// Thread Safety: Safe for concurrent use.
type BadgerVectorStore struct {
	db     *badgerstore.DB
	model  string
	ttl    time.Duration
	logger *slog.Logger
}

// NewBadgerVectorStore creates a store backed by the given DB.
//
// Inputs:
//   - db: Opened BadgerDB wrapper. Must not be nil; the caller owns its lifecycle.
//   - model: Embedding model name, mixed into the key so a model change
//     invalidates persisted vectors automatically.
//   - ttl: Entry lifetime. Pass 0 for the default (7 days).
//   - logger: May be nil.
func NewBadgerVectorStore(db *badgerstore.DB, model string, ttl time.Duration, logger *slog.Logger) *BadgerVectorStore {
	if db == nil {
		panic("NewBadgerVectorStore: db must not be nil")
	}
	if ttl <= 0 {
		ttl = vectorStoreDefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BadgerVectorStore{db: db, model: model, ttl: ttl, logger: logger}
}

// LoadVector retrieves the persisted vector for key. Returns (nil, nil) on miss.
func (s *BadgerVectorStore) LoadVector(ctx context.Context, key string) ([]float32, error) {
	storageKey := s.storageKey(key)

	var raw []byte
	err := s.db.WithReadTxn(ctx, func(txn *dgbadger.Txn) error {
		item, err := txn.Get(storageKey)
		if errors.Is(err, dgbadger.ErrKeyNotFound) {
			return errStoreMiss
		}
		if err != nil {
			return fmt.Errorf("get vector key: %w", err)
		}
		raw, err = item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("copy value: %w", err)
		}
		return nil
	})

	if errors.Is(err, errStoreMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("vector store load: %w", err)
	}

	var vec []float32
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&vec); err != nil {
		return nil, fmt.Errorf("vector store decode: %w", err)
	}

	s.logger.Debug("vector store: hit", slog.String("key", shortKey(key)))
	return vec, nil
}

// SaveVector persists the vector with the configured TTL.
func (s *BadgerVectorStore) SaveVector(ctx context.Context, key string, vec []float32) error {
	if len(vec) == 0 {
		return nil
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(vec); err != nil {
		return fmt.Errorf("vector store encode: %w", err)
	}

	storageKey := s.storageKey(key)
	err := s.db.WithTxn(ctx, func(txn *dgbadger.Txn) error {
		entry := dgbadger.NewEntry(storageKey, buf.Bytes()).WithTTL(s.ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("vector store save: %w", err)
	}

	s.logger.Debug("vector store: saved",
		slog.String("key", shortKey(key)),
		slog.Int("dims", len(vec)),
	)
	return nil
}

// storageKey hashes the model name and normalized query into the Badger key.
func (s *BadgerVectorStore) storageKey(key string) []byte {
	h := sha256.Sum256([]byte(s.model + "\n" + key))
	return []byte(vectorStoreKeyPrefix + hex.EncodeToString(h[:]))
}

// shortKey truncates a query key for log display.
func shortKey(k string) string {
	if len(k) > 24 {
		return k[:24] + "..."
	}
	return k
}
