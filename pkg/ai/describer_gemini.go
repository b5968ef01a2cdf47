package ai

import "context"

// GeminiDescriber wraps GeminiClient with a fixed model for image description.
type GeminiDescriber struct {
	client *GeminiClient
	model  string
}

// NewGeminiDescriber builds a Gemini-based image describer.
func NewGeminiDescriber(client *GeminiClient, model string) *GeminiDescriber {
	return &GeminiDescriber{client: client, model: model}
}

// DescribeImage returns a textual description of the image bytes.
func (d *GeminiDescriber) DescribeImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	return d.client.DescribeImage(ctx, d.model, prompt, image, mimeType)
}
