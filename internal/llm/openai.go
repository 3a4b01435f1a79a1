package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// OpenAIClient talks to an OpenAI-compatible chat-completions endpoint.
type OpenAIClient struct {
	client      *resty.Client
	baseURL     string
	apiKey      string
	model       string
	temperature float64
}

// Ensure OpenAIClient implements TextGenerator
var _ TextGenerator = (*OpenAIClient)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// NewOpenAIClient creates a chat-completions client. The timeout bounds the
// whole generation call; slow generations fail instead of hanging a worker.
func NewOpenAIClient(baseURL, apiKey, model string, timeout time.Duration) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("LLM API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("LLM model is required")
	}
	return &OpenAIClient{
		client:      resty.New().SetTimeout(timeout),
		baseURL:     baseURL,
		apiKey:      apiKey,
		model:       model,
		temperature: 0.7,
	}, nil
}

// Generate sends the prompt pair and returns the completion text.
func (c *OpenAIClient) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: c.temperature,
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", "Bearer "+c.apiKey).
		SetBody(body).
		Post(c.baseURL + "/chat/completions")
	if err != nil {
		return "", fmt.Errorf("calling chat completions: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return "", fmt.Errorf("parsing chat completions response (status %d): %w", resp.StatusCode(), err)
	}

	if resp.StatusCode() != 200 {
		if parsed.Error != nil {
			return "", fmt.Errorf("chat completions returned status %d: %s", resp.StatusCode(), parsed.Error.Message)
		}
		return "", fmt.Errorf("chat completions returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("chat completions returned an empty completion")
	}
	return parsed.Choices[0].Message.Content, nil
}
