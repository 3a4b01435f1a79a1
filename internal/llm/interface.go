package llm

import "context"

// TextGenerator defines the contract for the text-generation capability.
// Implementations turn a system/user prompt pair into free text and must
// return an error (never a silent empty string) on failure.
type TextGenerator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
