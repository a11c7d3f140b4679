// Copyright (C) 2025 AtlasFit Labs (engineering@atlasfit.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads and validates the coaching service configuration.
//
// Configuration is read from an optional YAML file and then overridden by
// environment variables, so containerized deployments can run without any
// file at all. All values are validated before use.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds the full service configuration.
//
// Thread Safety: Config is immutable after Load returns.
type Config struct {
	// Port is the HTTP listen port for coachd.
	Port int `yaml:"port" validate:"min=1,max=65535"`

	// Model configures the coaching model provider.
	Model ModelConfig `yaml:"model" validate:"required"`

	// Embedding configures the embedding provider and cache.
	Embedding EmbeddingConfig `yaml:"embedding" validate:"required"`

	// Catalog configures the exercise catalog store.
	Catalog CatalogConfig `yaml:"catalog" validate:"required"`

	// Agent configures the tool-calling loop bounds.
	Agent AgentConfig `yaml:"agent" validate:"required"`

	// CacheDir is the optional BadgerDB directory for embedding persistence.
	// Empty disables persistence (in-memory-only mode).
	CacheDir string `yaml:"cache_dir"`
}

// ModelConfig configures the Gemini model client.
type ModelConfig struct {
	// APIKey authenticates against the model provider. Required at runtime
	// but not validated here so tests can construct configs without one.
	APIKey string `yaml:"api_key"`

	Model   string `yaml:"model" validate:"required"`
	BaseURL string `yaml:"base_url" validate:"required,url"`
}

// EmbeddingConfig configures the embedding client and the bounded query
// vector cache.
type EmbeddingConfig struct {
	// URL is the embed endpoint (Ollama-compatible /api/embed).
	URL   string `yaml:"url" validate:"required,url"`
	Model string `yaml:"model" validate:"required"`

	// CacheCapacity bounds the in-memory query→vector cache.
	CacheCapacity int `yaml:"cache_capacity" validate:"min=1"`
}

// CatalogConfig configures the Weaviate catalog store.
type CatalogConfig struct {
	// Host is the Weaviate host:port, without scheme.
	Host   string `yaml:"host" validate:"required"`
	Scheme string `yaml:"scheme" validate:"oneof=http https"`

	// ClassName is the Weaviate class holding exercise variants.
	ClassName string `yaml:"class_name" validate:"required"`
}

// AgentConfig bounds the tool-calling loop. The defaults match the loop
// contract and rarely need changing; they are configurable so tests and
// staged rollouts can tighten them.
type AgentConfig struct {
	// MaxIterations caps model calls per run.
	MaxIterations int `yaml:"max_iterations" validate:"min=1"`

	// MaxSearchStreak is the number of consecutive search calls before a
	// corrective instruction is injected.
	MaxSearchStreak int `yaml:"max_search_streak" validate:"min=1"`
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() Config {
	return Config{
		Port: 8080,
		Model: ModelConfig{
			Model:   "gemini-2.0-flash",
			BaseURL: "https://generativelanguage.googleapis.com/v1beta",
		},
		Embedding: EmbeddingConfig{
			URL:           "http://localhost:11434/api/embed",
			Model:         "nomic-embed-text",
			CacheCapacity: 100,
		},
		Catalog: CatalogConfig{
			Host:      "localhost:8090",
			Scheme:    "http",
			ClassName: "ExerciseVariant",
		},
		Agent: AgentConfig{
			MaxIterations:   12,
			MaxSearchStreak: 5,
		},
	}
}

// Load reads the configuration from path (may be empty for defaults),
// applies environment overrides, and validates the result.
//
// Inputs:
//   - path: YAML file path. Empty skips file loading entirely.
//
// Outputs:
//   - Config: The validated configuration.
//   - error: Non-nil on read, parse, or validation failure.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration against its struct tags.
func Validate(cfg Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config: validation failed: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variables over the loaded values.
// Only set variables override; empty variables are ignored.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("COACH_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Model.APIKey = v
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		cfg.Model.Model = v
	}
	if v := os.Getenv("GEMINI_BASE_URL"); v != "" {
		cfg.Model.BaseURL = v
	}
	if v := os.Getenv("EMBEDDING_SERVICE_URL"); v != "" {
		cfg.Embedding.URL = v
	}
	if v := os.Getenv("EMBEDDING_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv("WEAVIATE_HOST"); v != "" {
		cfg.Catalog.Host = v
	}
	if v := os.Getenv("WEAVIATE_SCHEME"); v != "" {
		cfg.Catalog.Scheme = v
	}
	if v := os.Getenv("COACH_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
}
