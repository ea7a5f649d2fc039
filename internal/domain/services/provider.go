package services

import (
	"context"

	"parley/internal/domain/models"
)

// CompletionRequest is the provider-agnostic request for one completion.
// Messages hold only user and assistant turns; any system instruction
// travels in System, since not every provider accepts a system role inline.
type CompletionRequest struct {
	Model     string
	System    string
	Messages  []models.Turn
	MaxTokens int
}

// Provider is a completion backend. Exactly one call per invocation:
// retries and timeouts are the caller's concern.
type Provider interface {
	// Name returns the provider name used in configuration.
	Name() string

	// SupportsModel returns true if this provider serves the given model.
	SupportsModel(model string) bool

	// Complete performs a single synchronous completion call and returns
	// the generated text.
	Complete(ctx context.Context, req *CompletionRequest) (string, error)
}
