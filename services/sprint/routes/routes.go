// Copyright (C) 2025 Phoenix Labs (dev@phoenixlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	"github.com/phoenixlabs/PhoenixSprint/services/llm"
	"github.com/phoenixlabs/PhoenixSprint/services/sprint/handlers"
	"github.com/phoenixlabs/PhoenixSprint/services/sprint/pipeline"
)

// SetupRoutes registers the sprint and knowledge-administration routes.
func SetupRoutes(router *gin.Engine, p *pipeline.Pipeline, client *weaviate.Client, embedder llm.Embedder) {
	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	{
		v1.POST("/sprint", handlers.HandleSprint(p))

		// Knowledge-base administration routes
		knowledge := v1.Group("/knowledge")
		{
			knowledge.POST("", handlers.HandleKnowledgeIngest(client, embedder))
			knowledge.GET("/summary", handlers.GetKnowledgeSummary(client))
			knowledge.DELETE("", handlers.DeleteKnowledge(client))
		}
	}
}
