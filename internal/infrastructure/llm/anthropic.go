package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"PoliticianEvaluator/internal/domain"
)

const anthropicVersion = "2023-06-01"

type anthropicRequest struct {
	Model       string             `json:"model"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func (c *Client) completeAnthropic(ctx context.Context, system, user string) (string, error) {
	raw, err := c.post(ctx, c.endpoint, map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": anthropicVersion,
	}, anthropicRequest{
		Model:       c.model,
		System:      system,
		Messages:    []anthropicMessage{{Role: "user", Content: user}},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", err
	}

	var resp anthropicResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", &domain.ParseError{Provider: c.name, Raw: string(raw), Err: fmt.Errorf("decode message: %w", err)}
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", &domain.ParseError{Provider: c.name, Raw: string(raw), Err: errors.New("message has no text content")}
	}
	return b.String(), nil
}
