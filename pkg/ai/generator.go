package ai

import "context"

// TextGenerator produces a completion from a system prompt and user prompt.
// Both providers (Gemini, OpenAI-compatible) implement this interface. Calls
// are stateless: no caching, no token budgeting, no streaming.
type TextGenerator interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
