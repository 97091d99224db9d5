// Copyright (C) 2025 Phoenix Labs (dev@phoenixlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-openapi/strfmt"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/phoenixlabs/PhoenixSprint/services/llm"
	"github.com/phoenixlabs/PhoenixSprint/services/sprint/datatypes"
)

// Embedding input bounds for knowledge records. Oversized extra content
// is split and only the leading chunk contributes to the vector; the
// full text is stored intact.
const (
	maxEmbedChars = 2000
	chunkOverlap  = 100
)

var validate = validator.New()

// IngestResult summarizes one ingestion run.
type IngestResult struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// HandleKnowledgeIngest returns the handler for POST /v1/knowledge.
func HandleKnowledgeIngest(client *weaviate.Client, embedder llm.Embedder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.KnowledgeIngestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}

		result, err := RunKnowledgeIngestion(c.Request.Context(), client, embedder, req.Records)
		if err != nil {
			slog.Error("Knowledge ingestion failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// RunKnowledgeIngestion validates, embeds, and batch-inserts corpus
// records into the KnowledgeTool class.
//
// # Description
//
// Invalid records are skipped with a per-record error, never aborting
// the batch. Valid records are embedded in one batched call over their
// bounded embed text, then inserted in one Weaviate batch. Object IDs
// derive from the record name and language, so re-ingesting the same
// corpus is idempotent.
func RunKnowledgeIngestion(ctx context.Context, client *weaviate.Client, embedder llm.Embedder, records []datatypes.KnowledgeRecord) (*IngestResult, error) {
	result := &IngestResult{}

	var accepted []datatypes.ToolContent
	for i := range records {
		if err := validate.Struct(&records[i]); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors,
				fmt.Sprintf("record %d (%s): %v", i, records[i].Name, err))
			continue
		}
		tool := records[i].ToToolContent()
		if !tool.Type.Valid() {
			result.Skipped++
			result.Errors = append(result.Errors,
				fmt.Sprintf("record %d (%s): invalid tool_type %q", i, records[i].Name, records[i].ToolType))
			continue
		}
		accepted = append(accepted, tool)
	}
	if len(accepted) == 0 {
		slog.Warn("No valid knowledge records to ingest", "skipped", result.Skipped)
		return result, nil
	}

	texts := make([]string, len(accepted))
	for i := range accepted {
		text, err := buildEmbedText(&accepted[i])
		if err != nil {
			return nil, fmt.Errorf("building embed text for %q: %w", accepted[i].Title, err)
		}
		texts[i] = text
	}

	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("batch embedding failed: %w", err)
	}
	if len(vectors) != len(accepted) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d records", len(vectors), len(accepted))
	}

	objects := make([]*models.Object, len(accepted))
	for i := range accepted {
		accepted[i].ID = knowledgeToolID(&accepted[i])
		objects[i] = &models.Object{
			Class:      datatypes.KnowledgeToolClass,
			ID:         strfmt.UUID(accepted[i].ID),
			Vector:     vectors[i],
			Properties: datatypes.KnowledgeToolProperties(&accepted[i]),
		}
	}

	resp, err := client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate batch insert failed: %w", err)
	}
	for _, item := range resp {
		if item.Result != nil && item.Result.Status != nil && *item.Result.Status == "SUCCESS" {
			result.Created++
			continue
		}
		result.Skipped++
		if item.Result != nil && item.Result.Errors != nil {
			for _, e := range item.Result.Errors.Error {
				result.Errors = append(result.Errors, e.Message)
				slog.Warn("Weaviate batch item failed", "error", e.Message)
			}
		}
	}

	slog.Info("Knowledge ingestion complete",
		"created", result.Created, "skipped", result.Skipped)
	return result, nil
}

// buildEmbedText concatenates the fields that carry semantic signal,
// splitting oversized extra content and keeping only its leading chunk
// inside the embedding input budget.
func buildEmbedText(t *datatypes.ToolContent) (string, error) {
	parts := []string{t.Title, t.Definition}
	if t.KeyTakeaway != "" {
		parts = append(parts, t.KeyTakeaway)
	}

	base := strings.Join(parts, "\n")
	budget := maxEmbedChars - len(base)
	if t.ExtraContent == "" || budget <= chunkOverlap {
		return base, nil
	}

	if len(t.ExtraContent) <= budget {
		return base + "\n" + t.ExtraContent, nil
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(budget),
		textsplitter.WithChunkOverlap(chunkOverlap),
	)
	chunks, err := splitter.SplitText(t.ExtraContent)
	if err != nil {
		return "", fmt.Errorf("splitting extra content: %w", err)
	}
	if len(chunks) == 0 {
		return base, nil
	}
	return base + "\n" + chunks[0], nil
}

// knowledgeToolID derives a stable UUID from the record's name and
// language so re-ingestion overwrites rather than duplicates.
func knowledgeToolID(t *datatypes.ToolContent) string {
	hash := sha256.Sum256([]byte(t.Title + "|" + t.Language))
	id, _ := uuid.FromBytes(hash[:16])
	return id.String()
}

// GetKnowledgeSummary returns the handler for GET /v1/knowledge/summary.
// It aggregates the corpus by tool type.
func GetKnowledgeSummary(client *weaviate.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		agg, err := client.GraphQL().Aggregate().
			WithClassName(datatypes.KnowledgeToolClass).
			WithGroupBy("tool_type").
			Do(c.Request.Context())
		if err != nil {
			slog.Error("Failed to aggregate knowledge tools", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query knowledge base"})
			return
		}

		counts := map[string]int{}
		if agg.Data["Aggregate"] != nil {
			aggMap, ok := agg.Data["Aggregate"].(map[string]interface{})
			if ok && aggMap[datatypes.KnowledgeToolClass] != nil {
				groups, ok := aggMap[datatypes.KnowledgeToolClass].([]interface{})
				if ok {
					for _, groupItem := range groups {
						groupMap, ok := groupItem.(map[string]interface{})
						if !ok {
							continue
						}
						groupedBy, ok := groupMap["groupedBy"].(map[string]interface{})
						if !ok {
							continue
						}
						value, ok := groupedBy["value"].(string)
						if !ok {
							continue
						}
						count := 0
						if meta, ok := groupMap["meta"].(map[string]interface{}); ok {
							if n, ok := meta["count"].(float64); ok {
								count = int(n)
							}
						}
						counts[value] = count
					}
				}
			}
		}

		c.JSON(http.StatusOK, gin.H{"tool_types": counts})
	}
}

// DeleteKnowledge returns the handler for DELETE /v1/knowledge. It
// drops and recreates the KnowledgeTool class.
func DeleteKnowledge(client *weaviate.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := client.Schema().ClassDeleter().
			WithClassName(datatypes.KnowledgeToolClass).
			Do(c.Request.Context()); err != nil {
			slog.Error("Failed to delete KnowledgeTool class", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete knowledge base"})
			return
		}
		if err := datatypes.EnsureKnowledgeSchema(c.Request.Context(), client); err != nil {
			slog.Error("Failed to recreate KnowledgeTool class", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to recreate knowledge schema"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "deleted"})
	}
}
