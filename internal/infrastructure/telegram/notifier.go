package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"NewsRelay/internal/config"
	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

const defaultBaseURL = "https://api.telegram.org"

// Notifier sends messages to a Telegram chat via bot API.
type Notifier struct {
	baseURL  string
	botToken string
	chatID   string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(cfg config.TelegramConfig) *Notifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	base := strings.TrimSuffix(cfg.APIBaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	return &Notifier{
		baseURL:  base,
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		client:   &http.Client{Timeout: timeout},
	}
}

type inlineButton struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

type replyMarkup struct {
	InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send posts an HTML message, with an inline link button when the message carries one.
func (n *Notifier) Send(ctx context.Context, msg domain.Message) error {
	const op = "send message"
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return domain.NewFailure(op, domain.FailureTransport, errors.New("telegram notifier misconfigured"))
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", msg.Text)
	form.Set("parse_mode", "HTML")
	form.Set("disable_web_page_preview", "false")
	if msg.ButtonURL != "" {
		markup, err := json.Marshal(replyMarkup{
			InlineKeyboard: [][]inlineButton{{{Text: msg.ButtonText, URL: msg.ButtonURL}}},
		})
		if err != nil {
			return fmt.Errorf("marshal reply markup: %w", err)
		}
		form.Set("reply_markup", string(markup))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return domain.NewFailure(op, domain.FailureTransport, fmt.Errorf("new request: %w", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		failure := classify(op, err)
		failure.Err = n.redact(failure.Err)
		return failure
	}
	defer resp.Body.Close()

	var decoded apiResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(raw, &decoded)

	if resp.StatusCode != http.StatusOK || !decoded.OK {
		desc := strings.TrimSpace(decoded.Description)
		if desc == "" {
			desc = resp.Status
		}
		return domain.StatusFailure(op, resp.StatusCode, fmt.Errorf("telegram error: %s", desc))
	}

	return nil
}

// redact keeps the bot token out of logged transport errors.
func (n *Notifier) redact(err error) error {
	if n.botToken == "" {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), n.botToken, "<token>"))
}

func classify(op string, err error) *domain.Failure {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return domain.NewFailure(op, domain.FailureTimeout, err)
	}
	return domain.NewFailure(op, domain.FailureTransport, err)
}
