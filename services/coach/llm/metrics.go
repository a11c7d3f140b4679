// Copyright (C) 2025 AtlasFit Labs (engineering@atlasfit.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// modelCalls counts model completions by outcome.
	// Labels: model, outcome (text, function_call, error)
	modelCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coach",
		Subsystem: "llm",
		Name:      "model_calls_total",
		Help:      "Model completion calls by outcome",
	}, []string{"model", "outcome"})

	// modelCallDuration observes completion round-trip latency.
	// Labels: model
	modelCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "coach",
		Subsystem: "llm",
		Name:      "model_call_duration_seconds",
		Help:      "Model completion round-trip latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"model"})
)
