// Copyright (C) 2025 AtlasFit Labs (engineering@atlasfit.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package badger wraps a BadgerDB instance behind small transaction helpers
// so callers do not depend on the driver API directly.
//
// The DB backs the embedding vector cache, the workout history store, and
// accepted-plan persistence. All three share one instance; keys are
// prefix-namespaced per store.
package badger

import (
	"context"
	"fmt"
	"log/slog"

	dgbadger "github.com/dgraph-io/badger/v4"
)

// Config holds the BadgerDB open options the service cares about.
type Config struct {
	// Path is the on-disk directory. Required.
	Path string

	// InMemory runs the DB without a directory (tests only).
	InMemory bool
}

// DefaultConfig returns an on-disk config with an empty path; the caller
// fills in Path before OpenDB.
func DefaultConfig() Config {
	return Config{}
}

// DB wraps a badger.DB with context-aware transaction helpers.
//
// Thread Safety: Safe for concurrent use. Badger transactions are
// per-goroutine.
type DB struct {
	db *dgbadger.DB
}

// OpenDB opens (or creates) the BadgerDB at cfg.Path.
//
// Outputs:
//   - *DB: The opened wrapper. Callers own the lifecycle and must Close.
//   - error: Non-nil if the directory cannot be opened.
func OpenDB(cfg Config) (*DB, error) {
	var opts dgbadger.Options
	if cfg.InMemory {
		opts = dgbadger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, fmt.Errorf("badger: config path must not be empty")
		}
		opts = dgbadger.DefaultOptions(cfg.Path)
	}
	// Badger's default logger writes to stderr with its own format; route
	// nothing through it and rely on slog at the call sites instead.
	opts = opts.WithLogger(nil)

	db, err := dgbadger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: opening %s: %w", cfg.Path, err)
	}
	slog.Debug("badger: opened", slog.String("path", cfg.Path), slog.Bool("in_memory", cfg.InMemory))
	return &DB{db: db}, nil
}

// Close releases the underlying DB.
func (d *DB) Close() error {
	if err := d.db.Close(); err != nil {
		return fmt.Errorf("badger: close: %w", err)
	}
	return nil
}

// WithReadTxn runs fn inside a read-only transaction. The context is checked
// before the transaction starts; Badger itself does not accept a context.
func (d *DB) WithReadTxn(ctx context.Context, fn func(txn *dgbadger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.db.View(fn)
}

// WithTxn runs fn inside a read-write transaction.
func (d *DB) WithTxn(ctx context.Context, fn func(txn *dgbadger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.db.Update(fn)
}
