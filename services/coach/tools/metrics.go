// Copyright (C) 2025 AtlasFit Labs (engineering@atlasfit.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tools

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// toolCalls counts tool executions by outcome.
	// Labels: tool, outcome (ok, error)
	toolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coach",
		Subsystem: "tools",
		Name:      "calls_total",
		Help:      "Tool executions by outcome",
	}, []string{"tool", "outcome"})

	// toolCallDuration observes per-tool execution latency.
	// Labels: tool
	toolCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "coach",
		Subsystem: "tools",
		Name:      "call_duration_seconds",
		Help:      "Tool execution latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"tool"})

	// searchStages counts which cascade stage produced search results.
	// Labels: stage (semantic, semantic_relaxed, keyword, unfiltered)
	searchStages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coach",
		Subsystem: "tools",
		Name:      "search_stage_total",
		Help:      "Search cascade stage that produced results",
	}, []string{"stage"})
)
