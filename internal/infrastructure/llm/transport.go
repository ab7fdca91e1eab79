package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"PoliticianEvaluator/internal/domain"
)

const (
	maxResponseBytes = 4 << 20
	maxErrorMessage  = 512
)

// post sends a JSON body and returns the raw response. Transport failures and
// non-2xx answers come back as *domain.ProviderError.
func (c *Client) post(ctx context.Context, url string, headers map[string]string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.ProviderError{
			Provider: c.name,
			Message:  redact(err.Error(), c.apiKey),
			Timeout:  isTimeout(err),
			Err:      err,
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &domain.ProviderError{
			Provider:   c.name,
			StatusCode: resp.StatusCode,
			Message:    "read response body",
			Timeout:    isTimeout(err),
			Err:        err,
		}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &domain.ProviderError{
			Provider:   c.name,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.Status, raw),
		}
	}

	return raw, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// errorMessage prefers the provider's own {"error": {"message": ...}} text.
func errorMessage(status string, raw []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	msg := strings.TrimSpace(string(raw))
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
		msg = envelope.Error.Message
	}
	if msg == "" {
		msg = status
	}
	if r := []rune(msg); len(r) > maxErrorMessage {
		msg = string(r[:maxErrorMessage])
	}
	return msg
}

func redact(s, secret string) string {
	if secret == "" {
		return s
	}
	return strings.ReplaceAll(s, secret, "***")
}
