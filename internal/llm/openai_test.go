package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIClient_Validation(t *testing.T) {
	_, err := NewOpenAIClient("https://api.openai.com/v1", "", "gpt-4o-mini", time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")

	_, err = NewOpenAIClient("https://api.openai.com/v1", "sk-test", "", time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model")
}

func TestOpenAIClient_Generate(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"## Weekly report"}}]}`))
	}))
	defer server.Close()

	client, err := NewOpenAIClient(server.URL, "sk-test", "gpt-4o-mini", time.Minute)
	require.NoError(t, err)

	text, err := client.Generate(context.Background(), "be factual", "write the report")
	require.NoError(t, err)
	assert.Equal(t, "## Weekly report", text)

	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "be factual", captured.Messages[0].Content)
	assert.Equal(t, "user", captured.Messages[1].Role)
	assert.Equal(t, "write the report", captured.Messages[1].Content)
	assert.Equal(t, "gpt-4o-mini", captured.Model)
}

func TestOpenAIClient_Generate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limit exceeded","type":"rate_limit_error"}}`))
	}))
	defer server.Close()

	client, err := NewOpenAIClient(server.URL, "sk-test", "gpt-4o-mini", time.Minute)
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "sys", "user")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
	assert.Contains(t, err.Error(), "rate limit exceeded")
}

func TestOpenAIClient_Generate_EmptyCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client, err := NewOpenAIClient(server.URL, "sk-test", "gpt-4o-mini", time.Minute)
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "sys", "user")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty completion")
}
