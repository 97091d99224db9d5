// Package llm wraps the OpenAI-compatible chat-completion and embedding
// APIs behind small interfaces so pipeline stages can be tested with
// deterministic fakes.
package llm

import "context"

type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// TokenUsage reports prompt and completion token counts for one call.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// LLMClient defines the standard interface for any LLM backend.
type LLMClient interface {
	// Generate produces a free-form completion for the prompt.
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)

	// GenerateJSON produces a completion constrained to a JSON object,
	// with the given system instruction. Used by the problem classifier.
	GenerateJSON(ctx context.Context, system string, prompt string, params GenerationParams) (string, error)

	// GenerateWithUsage is Generate plus token-usage metadata, for the
	// downstream generation call whose usage is surfaced to callers.
	GenerateWithUsage(ctx context.Context, system string, prompt string, params GenerationParams) (string, *TokenUsage, error)
}

// Embedder computes dense vector embeddings for query text.
type Embedder interface {
	// Embed returns the embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one embedding per input text, in input order.
	// A single API call is issued for the whole batch.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
