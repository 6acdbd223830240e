package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// telegramAPIBase is the production Telegram Bot API root.
const telegramAPIBase = "https://api.telegram.org"

// TelegramSender delivers notifications via the Telegram Bot API. Spread
// alerts are rendered in HTML with a deep-link button to the primary
// exchange; threadID (a forum topic ID) routes messages inside group chats
// when set.
type TelegramSender struct {
	token    string
	chatID   string
	threadID string
	baseURL  string
	client   *http.Client
}

// NewTelegramSender creates a TelegramSender for the given bot token and chat
// ID. threadID may be empty. It uses a default HTTP client with a 10-second
// timeout.
func NewTelegramSender(token, chatID, threadID string) *TelegramSender {
	return &TelegramSender{
		token:    token,
		chatID:   chatID,
		threadID: threadID,
		baseURL:  telegramAPIBase,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts a message to the configured Telegram chat using the sendMessage
// API. The title is rendered in bold using HTML syntax.
func (t *TelegramSender) Send(ctx context.Context, title, message string) error {
	text := fmt.Sprintf("<b>%s</b>\n%s", title, message)
	return t.sendMessage(ctx, text, nil)
}

// SendAlert posts an HTML-formatted spread alert with an inline button that
// opens the contract on the primary exchange.
func (t *TelegramSender) SendAlert(ctx context.Context, alert domain.Alert) error {
	markup := map[string]any{
		"inline_keyboard": [][]map[string]string{{
			{
				"text": "Open App / Trade",
				"url":  tradeURL(alert.Symbol),
			},
		}},
	}
	return t.sendMessage(ctx, formatAlertHTML(alert), markup)
}

func (t *TelegramSender) sendMessage(ctx context.Context, text string, replyMarkup map[string]any) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)

	payload := map[string]any{
		"chat_id":                  t.chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}
	if t.threadID != "" {
		if id, err := strconv.Atoi(t.threadID); err == nil {
			payload["message_thread_id"] = id
		}
	}
	if replyMarkup != nil {
		payload["reply_markup"] = replyMarkup
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("telegram: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// Name returns the sender identifier.
func (t *TelegramSender) Name() string {
	return "telegram"
}

var (
	_ Sender      = (*TelegramSender)(nil)
	_ AlertSender = (*TelegramSender)(nil)
)
