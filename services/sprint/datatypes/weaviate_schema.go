// Copyright (C) 2025 Phoenix Labs (dev@phoenixlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

// GetKnowledgeToolSchema returns the class definition for the tool
// corpus. Vectors are supplied at ingestion time, so the vectorizer is
// disabled.
func GetKnowledgeToolSchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:       KnowledgeToolClass,
		Description: "A thinking tool: mental model, cognitive bias, fallacy, or general concept.",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{
				Name:         "title",
				DataType:     []string{"text"},
				Description:  "The tool's canonical name.",
				Tokenization: "word",
			},
			{
				Name:            "main_category",
				DataType:        []string{"text"},
				Description:     "Top-level category (e.g. 'Psychology & Human Behavior').",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "subcategory",
				DataType:        []string{"text"},
				Description:     "Second-level category.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:         "definition",
				DataType:     []string{"text"},
				Description:  "Short definition of the tool.",
				Tokenization: "word",
			},
			{
				Name:         "extra_content",
				DataType:     []string{"text"},
				Description:  "Long-form enrichment content.",
				Tokenization: "word",
			},
			{
				Name:     "modern_example",
				DataType: []string{"text"},
			},
			{
				Name:     "classic_example",
				DataType: []string{"text"},
			},
			{
				Name:     "payoff",
				DataType: []string{"text"},
			},
			{
				Name:     "mechanism",
				DataType: []string{"text"},
			},
			{
				Name:     "origin_story",
				DataType: []string{"text"},
			},
			{
				Name:     "visual_metaphor",
				DataType: []string{"text"},
			},
			{
				Name:     "key_takeaway",
				DataType: []string{"text"},
			},
			{
				Name:     "pitfalls",
				DataType: []string{"text[]"},
			},
			{
				Name:            "language",
				DataType:        []string{"text"},
				Description:     "Two-letter language code of the record.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "tool_type",
				DataType:        []string{"text"},
				Description:     "One of mental-model, cognitive-bias, fallacy, general-concept.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "is_foundational",
				DataType:        []string{"boolean"},
				Description:     "True for broadly applicable 'super model' tools.",
				IndexFilterable: indexFilterable,
			},
		},
	}
}

// EnsureKnowledgeSchema creates the KnowledgeTool class if it does not
// exist yet.
func EnsureKnowledgeSchema(ctx context.Context, client *weaviate.Client) error {
	class := GetKnowledgeToolSchema()

	_, err := client.Schema().ClassGetter().WithClassName(class.Class).Do(ctx)
	if err == nil {
		slog.Info("Schema already exists", "class", class.Class)
		return nil
	}

	slog.Info("Schema not found, creating it...", "class", class.Class)
	if err := client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return fmt.Errorf("failed to create schema for class %s: %w", class.Class, err)
	}
	slog.Info("Successfully created schema", "class", class.Class)
	return nil
}
