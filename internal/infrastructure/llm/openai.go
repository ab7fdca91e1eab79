package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"PoliticianEvaluator/internal/domain"
)

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// completeOpenAI talks to chat/completions compatible APIs (OpenAI, Perplexity).
func (c *Client) completeOpenAI(ctx context.Context, system, user string) (string, error) {
	raw, err := c.post(ctx, c.endpoint, map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	}, openAIRequest{
		Model: c.model,
		Messages: []openAIMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", err
	}

	var resp openAIResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", &domain.ParseError{Provider: c.name, Raw: string(raw), Err: fmt.Errorf("decode completion: %w", err)}
	}
	if len(resp.Choices) == 0 {
		return "", &domain.ParseError{Provider: c.name, Raw: string(raw), Err: errors.New("completion has no choices")}
	}
	return resp.Choices[0].Message.Content, nil
}
