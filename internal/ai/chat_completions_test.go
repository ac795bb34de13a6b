package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatCompletionsClient_Complete(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"model": "deepseek-chat",
			"choices": [{"message": {"role": "assistant", "content": "{\"goalTitle\": \"x\"}"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 34}
		}`))
	}))
	defer srv.Close()

	client, err := NewChatCompletionsClient(srv.URL, "sk-test", "", srv.Client())
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), CompletionRequest{
		System:      "sys",
		Prompt:      "user",
		Temperature: 0.7,
		MaxTokens:   6000,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"goalTitle": "x"}`, resp.Text)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, int64(12), resp.InputTokens)
	assert.Equal(t, int64(34), resp.OutputTokens)

	assert.Equal(t, DefaultChatModel, got.Model)
	assert.False(t, got.Stream)
	assert.Equal(t, 0.7, got.Temperature)
	assert.Equal(t, 6000, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, chatMessage{Role: "system", Content: "sys"}, got.Messages[0])
	assert.Equal(t, chatMessage{Role: "user", Content: "user"}, got.Messages[1])
}

func TestChatCompletionsClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client, err := NewChatCompletionsClient(srv.URL, "sk-test", "", nil)
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), CompletionRequest{Prompt: "p"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "overloaded")
	assert.True(t, isRetriableError(err))
}

func TestChatCompletionsClient_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	client, err := NewChatCompletionsClient(srv.URL, "sk-test", "", nil)
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), CompletionRequest{Prompt: "p"})
	require.NoError(t, err)
	assert.Empty(t, resp.Text)
}

func TestNewChatCompletionsClient_RequiresKey(t *testing.T) {
	_, err := NewChatCompletionsClient("", "", "", nil)
	assert.Error(t, err)
}
