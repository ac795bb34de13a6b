package ai

import (
	"context"
	"fmt"
	"log/slog"
)

// callModel sends one completion through the retry loop and logs usage.
func (g *Generator) callModel(ctx context.Context, operation string, req CompletionRequest) (*CompletionResponse, error) {
	startTime := g.now()

	var response *CompletionResponse
	err := g.retryWithBackoff(ctx, operation, func(attemptCtx context.Context) error {
		resp, apiErr := g.completer.Complete(attemptCtx, req)
		if apiErr != nil {
			return apiErr
		}
		response = resp
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", g.completer.Name(), err)
	}

	slog.Debug("generation request completed",
		"operation", operation,
		"provider", g.completer.Name(),
		"model", response.Model,
		"finishReason", response.FinishReason,
		"inputTokens", response.InputTokens,
		"outputTokens", response.OutputTokens,
		"duration", g.now().Sub(startTime))

	return response, nil
}
