// Package llm provides the completion-service clients the extraction
// workflow calls to turn retrieved context into attribute trees.
package llm

import "context"

// CompletionClient is the single operation the workflow engine needs from a
// language-model provider.
type CompletionClient interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// GenerateRequest carries one prompt pair to the provider.
type GenerateRequest struct {
	Model       string
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// GenerateResponse is the provider-neutral completion result.
type GenerateResponse struct {
	Text         string
	InputTokens  int
	OutputTokens int
}
