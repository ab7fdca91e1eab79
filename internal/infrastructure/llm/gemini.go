package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"PoliticianEvaluator/internal/domain"
)

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
}

// completeGemini calls models/<model>:generateContent with the key in the query string.
func (c *Client) completeGemini(ctx context.Context, system, user string) (string, error) {
	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		strings.TrimRight(c.endpoint, "/"), url.PathEscape(c.model), url.QueryEscape(c.apiKey))

	req := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: system}}},
		Contents:          []geminiContent{{Role: "user", Parts: []geminiPart{{Text: user}}}},
	}
	req.GenerationConfig.Temperature = c.temperature
	req.GenerationConfig.MaxOutputTokens = c.maxTokens

	raw, err := c.post(ctx, endpoint, nil, req)
	if err != nil {
		return "", err
	}

	var resp geminiResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", &domain.ParseError{Provider: c.name, Raw: string(raw), Err: fmt.Errorf("decode candidates: %w", err)}
	}
	if len(resp.Candidates) == 0 {
		return "", &domain.ParseError{Provider: c.name, Raw: string(raw), Err: errors.New("response has no candidates")}
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return b.String(), nil
}
