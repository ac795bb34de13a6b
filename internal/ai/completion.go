package ai

import "context"

// CompletionRequest is one system + user exchange with a chat model.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// CompletionResponse is the model's reply.
type CompletionResponse struct {
	Text         string
	Model        string
	FinishReason string
	InputTokens  int64
	OutputTokens int64
}

// Completer is a single request/response call to a generation endpoint.
// Implementations must not stream and must honour ctx cancellation.
type Completer interface {
	// Name identifies the provider in logs.
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
