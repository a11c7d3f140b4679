// Copyright (C) 2025 AtlasFit Labs (engineering@atlasfit.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "gemini-2.0-flash", cfg.Model.Model)
	assert.Equal(t, 100, cfg.Embedding.CacheCapacity)
	assert.Equal(t, 12, cfg.Agent.MaxIterations)
	assert.Equal(t, 5, cfg.Agent.MaxSearchStreak)
	assert.Empty(t, cfg.CacheDir)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte(`
port: 9191
embedding:
  url: http://embed:11434/api/embed
  model: custom-embed
  cache_capacity: 50
agent:
  max_iterations: 6
  max_search_streak: 3
`)
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Port)
	assert.Equal(t, "custom-embed", cfg.Embedding.Model)
	assert.Equal(t, 50, cfg.Embedding.CacheCapacity)
	assert.Equal(t, 6, cfg.Agent.MaxIterations)
	assert.Equal(t, 3, cfg.Agent.MaxSearchStreak)
	// Untouched sections keep their defaults.
	assert.Equal(t, "gemini-2.0-flash", cfg.Model.Model)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("COACH_PORT", "7070")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("WEAVIATE_HOST", "weaviate:8090")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, "test-key", cfg.Model.APIKey)
	assert.Equal(t, "weaviate:8090", cfg.Catalog.Host)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_InvalidYAMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [not a number"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Port = 0
	assert.Error(t, Validate(cfg))

	cfg = Default()
	cfg.Catalog.Scheme = "gopher"
	assert.Error(t, Validate(cfg))

	cfg = Default()
	cfg.Embedding.URL = "not a url"
	assert.Error(t, Validate(cfg))

	assert.NoError(t, Validate(Default()))
}
