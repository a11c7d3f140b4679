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

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cacheLookups counts vector cache lookups by result.
	// Labels: result (hit, miss)
	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coach",
		Subsystem: "embedding",
		Name:      "cache_lookups_total",
		Help:      "Query vector cache lookups by result",
	}, []string{"result"})

	// cacheEvictions counts entries evicted at capacity overflow.
	cacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "coach",
		Subsystem: "embedding",
		Name:      "cache_evictions_total",
		Help:      "Vector cache entries evicted at capacity",
	})
)
