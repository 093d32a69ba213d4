package alert

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const telegramAPIBase = "https://api.telegram.org"

// Telegram sends the alert message to a chat through the Bot API.
type Telegram struct {
	client  *http.Client
	baseURL string
	token   string
	chatID  string
}

// NewTelegram returns a Telegram notifier. A nil client gets a default one
// with a sane timeout.
func NewTelegram(token, chatID string, client *http.Client) *Telegram {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Telegram{
		client:  client,
		baseURL: telegramAPIBase,
		token:   token,
		chatID:  chatID,
	}
}

// Name implements Alerter.
func (t *Telegram) Name() string { return "telegram" }

// Alert implements Alerter.
func (t *Telegram) Alert(ctx context.Context, ev Event) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)

	form := url.Values{}
	form.Set("chat_id", t.chatID)
	form.Set("text", ev.Message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build Telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send Telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("Telegram API returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
