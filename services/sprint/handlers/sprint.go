// Copyright (C) 2025 Phoenix Labs (dev@phoenixlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers provides the gin HTTP handlers for the sprint service:
// the sprint endpoint, knowledge-base administration, and health.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/phoenixlabs/PhoenixSprint/services/sprint/datatypes"
	"github.com/phoenixlabs/PhoenixSprint/services/sprint/observability"
	"github.com/phoenixlabs/PhoenixSprint/services/sprint/pipeline"
)

// HealthCheck reports service liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandleSprint returns the handler for POST /v1/sprint.
//
// # Description
//
// Binds the sprint request, runs the full pipeline, and maps pipeline
// failure kinds onto HTTP status codes. Soft-constraint warnings ride
// along inside the successful response; they never turn into errors.
func HandleSprint(p *pipeline.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.SprintRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}

		result, err := p.Run(c.Request.Context(), req.Query, pipeline.RunOptions{
			SkipGeneration: !req.Generate,
			Temperature:    req.Temperature,
		})
		if err != nil {
			observability.RecordRequest("error")
			status, body := errorResponse(err)
			c.JSON(status, body)
			return
		}

		observability.RecordRequest("success")
		c.JSON(http.StatusOK, datatypes.SprintResponse{Result: result})
	}
}

// errorResponse maps a pipeline error onto an HTTP status and body.
func errorResponse(err error) (int, gin.H) {
	var perr *pipeline.PipelineError
	if !errors.As(err, &perr) {
		return http.StatusInternalServerError, gin.H{"error": err.Error()}
	}

	status := http.StatusInternalServerError
	switch perr.Kind {
	case pipeline.KindValidation, pipeline.KindEmptyQuery:
		status = http.StatusBadRequest
	case pipeline.KindNoCandidatesFound, pipeline.KindInsufficientCandidates:
		status = http.StatusUnprocessableEntity
	case pipeline.KindBriefTooLarge:
		status = http.StatusRequestEntityTooLarge
	case pipeline.KindTimedOut:
		status = http.StatusGatewayTimeout
	case pipeline.KindAnalysisFailed, pipeline.KindSearchFailed,
		pipeline.KindGenerationFailed, pipeline.KindBriefGenerationFailed:
		status = http.StatusBadGateway
	}

	return status, gin.H{
		"error": perr.Error(),
		"kind":  string(perr.Kind),
		"phase": perr.Phase,
	}
}
