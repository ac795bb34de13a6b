package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	// DefaultChatEndpoint is the DeepSeek chat completions URL
	DefaultChatEndpoint = "https://api.deepseek.com/chat/completions"

	// DefaultChatModel is the DeepSeek general chat model
	DefaultChatModel = "deepseek-chat"

	// maxErrorBody caps how much of a failed response body ends up in errors
	maxErrorBody = 2048
)

// ChatCompletionsClient calls an OpenAI-compatible /chat/completions endpoint
// with bearer authentication.
type ChatCompletionsClient struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewChatCompletionsClient creates a client. httpClient may be nil; request
// deadlines come from the caller's context.
func NewChatCompletionsClient(endpoint, apiKey, model string, httpClient *http.Client) (*ChatCompletionsClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if endpoint == "" {
		endpoint = DefaultChatEndpoint
	}
	if model == "" {
		model = DefaultChatModel
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &ChatCompletionsClient{
		endpoint:   endpoint,
		apiKey:     apiKey,
		model:      model,
		httpClient: httpClient,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
	} `json:"usage"`
}

// Name identifies the provider in logs.
func (c *ChatCompletionsClient) Name() string {
	return "chat-completions"
}

// Complete sends one non-streaming chat completion request.
func (c *ChatCompletionsClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.Prompt},
		},
		Stream:      false,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	out := &CompletionResponse{
		Model:        decoded.Model,
		InputTokens:  decoded.Usage.PromptTokens,
		OutputTokens: decoded.Usage.CompletionTokens,
	}
	if len(decoded.Choices) > 0 {
		out.Text = decoded.Choices[0].Message.Content
		out.FinishReason = decoded.Choices[0].FinishReason
	}
	return out, nil
}
