// Copyright (C) 2025 Phoenix Labs (dev@phoenixlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/phoenixlabs/PhoenixSprint/services/llm"
	"github.com/phoenixlabs/PhoenixSprint/services/sprint/datatypes"
)

const generateSystemPrompt = `You are a decision-sprint writer. You receive a brief describing a decision problem and a curated set of thinking tools organized into phases. Produce the guide the brief requests, following the attached output contract exactly: fill in the executive summary, every phase section with per-tool guidance, the checklist, the decision points, and the failure and success indicators. Ground every piece of guidance in the user's stated problem.`

// LLMGenerator implements Generator over an injected LLM client.
//
// # Thread Safety
//
// Safe for concurrent use.
type LLMGenerator struct {
	client llm.LLMClient
}

var _ Generator = (*LLMGenerator)(nil)

// NewLLMGenerator creates a generator backed by the given LLM client.
func NewLLMGenerator(client llm.LLMClient) *LLMGenerator {
	return &LLMGenerator{client: client}
}

// Generate runs the long-form generation call for the brief, attaching
// the output contract to the prompt so the model knows the required
// shape.
func (g *LLMGenerator) Generate(ctx context.Context, req *datatypes.GenerationRequest) (*datatypes.GenerationOutput, error) {
	contract, err := json.Marshal(req.Contract)
	if err != nil {
		return nil, fmt.Errorf("marshaling output contract: %w", err)
	}

	prompt := req.Brief + "\n\n## Output Contract\n" + string(contract)
	temperature := req.Temperature

	content, usage, err := g.client.GenerateWithUsage(ctx, generateSystemPrompt, prompt, llm.GenerationParams{
		Temperature: &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generation call: %w", err)
	}

	output := &datatypes.GenerationOutput{Content: content}
	if usage != nil {
		output.PromptTokens = usage.PromptTokens
		output.CompletionTokens = usage.CompletionTokens
	}
	return output, nil
}
