// Copyright (C) 2025 AtlasFit Labs (engineering@atlasfit.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command coachd starts the coaching engine API server.
//
// The server exposes one conversation endpoint backed by a bounded
// tool-calling agent loop, plus plan persistence and health checks.
//
// Usage:
//
//	go run ./cmd/coachd
//	go run ./cmd/coachd -port 9090 -config config.yaml
//
// Required environment:
//
//	GEMINI_API_KEY=... go run ./cmd/coachd
//
// Example requests:
//
//	# Health check
//	curl http://localhost:8080/v1/coach/health
//
//	# One coaching turn
//	curl -X POST http://localhost:8080/v1/coach/chat \
//	  -H "Content-Type: application/json" \
//	  -d '{"user_id": "u1", "message": "Build me an upper/lower split", "equipment": ["Dumbbell"]}'
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/atlasfit/coach-engine/services/coach"
	"github.com/atlasfit/coach-engine/services/coach/agent"
	"github.com/atlasfit/coach-engine/services/coach/config"
	"github.com/atlasfit/coach-engine/services/coach/datatypes"
	"github.com/atlasfit/coach-engine/services/coach/embedding"
	"github.com/atlasfit/coach-engine/services/coach/llm"
	"github.com/atlasfit/coach-engine/services/coach/proposal"
	"github.com/atlasfit/coach-engine/services/coach/resolver"
	badgerstore "github.com/atlasfit/coach-engine/services/coach/storage/badger"
	"github.com/atlasfit/coach-engine/services/coach/store"
	"github.com/atlasfit/coach-engine/services/coach/tools"
)

// shutdownTimeout bounds graceful drain of in-flight requests.
const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	port := flag.Int("port", 0, "Override the configured listen port")
	debug := flag.Bool("debug", false, "Enable debug logging and Gin debug mode")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if *debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("loading configuration failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if cfg.Model.APIKey == "" {
		logger.Error("GEMINI_API_KEY is not set")
		os.Exit(1)
	}

	// Propagate W3C trace context from inbound headers so otelgin spans
	// join the caller's trace.
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	// Badger backs the embedding vector cache, workout history, and
	// accepted-plan persistence. Opening it is best-effort: the service
	// degrades to in-memory caching and no persistence rather than
	// refusing to start.
	var db *badgerstore.DB
	if cfg.CacheDir != "" {
		db, err = badgerstore.OpenDB(badgerstore.Config{Path: cfg.CacheDir})
		if err != nil {
			logger.Warn("badger unavailable, continuing without persistence",
				slog.String("cache_dir", cfg.CacheDir),
				slog.String("error", err.Error()),
			)
			db = nil
		} else {
			defer func() {
				if cerr := db.Close(); cerr != nil {
					logger.Warn("closing badger failed", slog.String("error", cerr.Error()))
				}
			}()
		}
	}

	handlers, err := buildHandlers(cfg, db, logger)
	if err != nil {
		logger.Error("wiring service failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("coach-engine"))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	coach.RegisterRoutes(router.Group("/v1"), handlers)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("coachd listening",
			slog.Int("port", cfg.Port),
			slog.String("model", cfg.Model.Model),
			slog.Bool("persistence", db != nil),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.String("error", err.Error()))
	}
}

// buildHandlers wires the full dependency graph from configuration.
//
// Inputs:
//   - cfg: Validated configuration.
//   - db: Optional Badger handle. Nil disables vector persistence, the
//     history store, and the plan-accept endpoint.
//   - logger: Base logger for all components.
func buildHandlers(cfg config.Config, db *badgerstore.DB, logger *slog.Logger) (*coach.Handlers, error) {
	catalog, err := store.NewWeaviateCatalog(cfg.Catalog.Host, cfg.Catalog.Scheme, cfg.Catalog.ClassName, logger)
	if err != nil {
		return nil, fmt.Errorf("creating catalog store: %w", err)
	}

	var vectorStore embedding.VectorStore
	var history store.HistoryStore
	var plans store.PlanStore
	if db != nil {
		vectorStore = embedding.NewBadgerVectorStore(db, cfg.Embedding.Model, 0, logger)
		history = store.NewBadgerHistoryStore(db, logger)
		plans = store.NewBadgerPlanStore(db, logger)
	} else {
		history = emptyHistoryStore{}
	}

	embedder := embedding.NewCachedProvider(
		embedding.NewHTTPClient(cfg.Embedding.URL, cfg.Embedding.Model, logger),
		embedding.NewVectorCache(cfg.Embedding.CacheCapacity, embedding.EvictFIFO),
		vectorStore,
		logger,
	)

	model := llm.NewGeminiClient(cfg.Model.APIKey, cfg.Model.Model, cfg.Model.BaseURL, logger)
	res := resolver.New(catalog, logger)
	processor := proposal.NewProcessor(res, catalog, logger)
	loop := agent.NewLoop(model, processor, tools.Declarations(),
		cfg.Agent.MaxIterations, cfg.Agent.MaxSearchStreak, logger)

	return coach.NewHandlers(loop, history, catalog, embedder, plans, logger), nil
}

// emptyHistoryStore serves analytics when no Badger directory is
// configured. Every user simply has no logged workouts.
type emptyHistoryStore struct{}

func (emptyHistoryStore) RecentWorkouts(context.Context, string, time.Duration) ([]datatypes.WorkoutSession, error) {
	return nil, nil
}

func (emptyHistoryStore) ExerciseHistory(context.Context, string, string, time.Duration) ([]datatypes.ExerciseSessionSets, error) {
	return nil, nil
}
