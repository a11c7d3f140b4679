// Copyright (C) 2025 AtlasFit Labs (engineering@atlasfit.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package coach

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all coaching routes with the router group.
//
// Description:
//
//	Registers all /v1/coach/* endpoints. The group should already have any
//	required middleware applied.
//
// Endpoints:
//
//	POST /v1/coach/chat - Run one coaching conversation turn
//	POST /v1/coach/plans/accept - Persist an accepted plan proposal
//	GET  /v1/coach/health - Health check
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	coach := rg.Group("/coach")
	{
		coach.POST("/chat", handlers.HandleChat)
		coach.POST("/plans/accept", handlers.HandleAcceptPlan)
		coach.GET("/health", handlers.HandleHealth)
	}
}
