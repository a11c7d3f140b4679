// Copyright (C) 2025 AtlasFit Labs (engineering@atlasfit.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package agent

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// loopIterations observes model calls used per run.
	loopIterations = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "coach",
		Subsystem: "agent",
		Name:      "loop_iterations",
		Help:      "Model calls used per agent run",
		Buckets:   []float64{1, 2, 3, 4, 6, 8, 10, 12},
	})

	// loopNonConvergence counts runs that hit the iteration budget.
	loopNonConvergence = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "coach",
		Subsystem: "agent",
		Name:      "loop_non_convergence_total",
		Help:      "Runs that exhausted the iteration budget without closing text",
	})

	// correctiveInjections counts injected stop-searching instructions.
	correctiveInjections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "coach",
		Subsystem: "agent",
		Name:      "corrective_injections_total",
		Help:      "Corrective instructions injected after search streaks",
	})
)
