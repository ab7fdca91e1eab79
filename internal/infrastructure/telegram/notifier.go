package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"PoliticianEvaluator/internal/ports"
)

const (
	defaultBaseURL = "https://api.telegram.org"
	maxMessageLen  = 4096
)

// Notifier sends run summaries to a Telegram chat via bot API.
type Notifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(botToken, chatID string) *Notifier {
	return &Notifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  defaultBaseURL,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// WithBaseURL points the notifier at another Bot API host.
func (n *Notifier) WithBaseURL(base string) *Notifier {
	n.baseURL = strings.TrimRight(base, "/")
	return n
}

// PublishSummary posts a plain-text message to Telegram.
func (n *Notifier) PublishSummary(ctx context.Context, summary string) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	if r := []rune(summary); len(r) > maxMessageLen {
		summary = string(r[:maxMessageLen-3]) + "..."
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", summary)
	form.Set("disable_web_page_preview", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %s", strings.ReplaceAll(err.Error(), n.botToken, "***"))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram error: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	return nil
}
