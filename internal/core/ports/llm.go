package ports

import "context"

type CompletionRequest struct {
	SystemPrompt string
	Prompt       string
	// ModelHint overrides the client's configured model when set.
	ModelHint   string
	MaxTokens   int
	Temperature float64
}

// LLMClient returns the raw completion text. The caller owns the deadline via ctx.
type LLMClient interface {
	Complete(ctx context.Context, req *CompletionRequest) (string, error)
}
