package ai

import "context"

// GeminiGenerator wraps GeminiClient with a fixed model for text generation.
type GeminiGenerator struct {
	client *GeminiClient
	model  string
}

// NewGeminiGenerator builds a Gemini-based text generator.
func NewGeminiGenerator(client *GeminiClient, model string) *GeminiGenerator {
	return &GeminiGenerator{client: client, model: model}
}

// GenerateText answers the prompt, optionally with web-search grounding.
func (g *GeminiGenerator) GenerateText(ctx context.Context, systemPrompt, userPrompt string, enableSearch bool) (string, error) {
	return g.client.GenerateText(ctx, g.model, systemPrompt, userPrompt, enableSearch)
}
