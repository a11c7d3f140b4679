// Copyright (C) 2025 AtlasFit Labs (engineering@atlasfit.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package embedding provides the embedding provider client and the bounded
// query→vector cache used by semantic exercise search.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// embedQueryTimeout is the per-call embedding timeout. Search is on the
// agent loop's hot path; 5 seconds is ample for a local embedding service.
const embedQueryTimeout = 5 * time.Second

// Provider produces an embedding vector for a text.
//
// Thread Safety: Implementations must be safe for concurrent use.
type Provider interface {
	// Embed returns the embedding vector for text.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// embedReq is the /api/embed request body (Ollama-compatible).
type embedReq struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// embedResp is the /api/embed response body.
type embedResp struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// HTTPClient calls an Ollama-compatible /api/embed endpoint.
//
// Thread Safety: Safe for concurrent use.
type HTTPClient struct {
	url    string
	model  string
	client *http.Client
	logger *slog.Logger
}

// NewHTTPClient creates an embedding client for the given endpoint and model.
func NewHTTPClient(url, model string, logger *slog.Logger) *HTTPClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPClient{
		url:    url,
		model:  model,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

// Embed calls the embed endpoint and returns the vector.
func (c *HTTPClient) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, embedQueryTimeout)
	defer cancel()

	reqBody, err := json.Marshal(embedReq{Model: c.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed HTTP call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embed response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embed service returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed embedResp
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse embed response: %w", err)
	}
	if len(parsed.Embeddings) == 0 || len(parsed.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("embed service returned empty vector")
	}

	return parsed.Embeddings[0], nil
}

// CachedProvider wraps a Provider with the bounded vector cache and an
// optional persistent store.
//
// # Description
//
// Lookup order: in-memory cache, persistent store (if configured), then the
// inner provider. Fresh vectors are written back to both layers. Store
// failures are logged and ignored; persistence is an optimization, never a
// dependency.
//
// # Thread Safety
//
// Safe for concurrent use. See VectorCache for the benign miss race.
type CachedProvider struct {
	inner  Provider
	cache  *VectorCache
	store  VectorStore // nil disables persistence
	logger *slog.Logger
}

// NewCachedProvider wraps inner with cache and an optional store.
func NewCachedProvider(inner Provider, cache *VectorCache, store VectorStore, logger *slog.Logger) *CachedProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedProvider{inner: inner, cache: cache, store: store, logger: logger}
}

// Embed returns the vector for text, consulting the cache layers first.
func (p *CachedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	key := NormalizeQuery(text)

	if vec, ok := p.cache.Get(key); ok {
		cacheLookups.WithLabelValues("hit").Inc()
		return vec, nil
	}
	cacheLookups.WithLabelValues("miss").Inc()

	if p.store != nil {
		vec, err := p.store.LoadVector(ctx, key)
		if err != nil {
			p.logger.Warn("embedding store load failed, falling through to provider",
				slog.String("error", err.Error()),
			)
		} else if vec != nil {
			p.cache.Put(key, vec)
			return vec, nil
		}
	}

	vec, err := p.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	p.cache.Put(key, vec)
	if p.store != nil {
		if err := p.store.SaveVector(ctx, key, vec); err != nil {
			p.logger.Warn("embedding store save failed",
				slog.String("error", err.Error()),
			)
		}
	}
	return vec, nil
}
