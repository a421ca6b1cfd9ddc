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
	"time"

	"NewsRelay/internal/config"
	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

const defaultTimeout = 90 * time.Second

// ChatGPTClient implements ports.Translator backed by OpenAI-compatible chat completions.
type ChatGPTClient struct {
	endpoint      string
	model         string
	apiKey        string
	systemPrompt  string
	temperature   float64
	stripPrefixes []string
	httpClient    *http.Client
}

var _ ports.Translator = (*ChatGPTClient)(nil)

// NewChatGPTClient builds a client from configuration.
func NewChatGPTClient(cfg config.TranslatorConfig) *ChatGPTClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &ChatGPTClient{
		endpoint:      cfg.Endpoint,
		model:         cfg.Model,
		apiKey:        cfg.APIKey,
		systemPrompt:  cfg.SystemPrompt,
		temperature:   cfg.Temperature,
		stripPrefixes: cfg.StripPrefixes,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

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
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Translate sends the title and body as a user message under the fixed system prompt.
func (c *ChatGPTClient) Translate(ctx context.Context, req domain.TranslationRequest) (string, error) {
	const op = "translate"
	if c == nil {
		return "", domain.NewFailure(op, domain.FailureTransport, errors.New("chatgpt client is nil"))
	}
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", domain.NewFailure(op, domain.FailureTransport, errors.New("chatgpt client misconfigured"))
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: safePrompt(c.systemPrompt)},
			{Role: "user", Content: userMessage(req)},
		},
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chatgpt payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", domain.NewFailure(op, domain.FailureTransport, fmt.Errorf("new request: %w", err))
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", classify(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", domain.StatusFailure(op, resp.StatusCode,
			fmt.Errorf("chatgpt error %s: %s", resp.Status, strings.TrimSpace(string(payload))))
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", classify(op, fmt.Errorf("decode response: %w", err))
	}
	if len(decoded.Choices) == 0 {
		return "", domain.NewFailure(op, domain.FailureEmptyOutput, errors.New("no choices returned"))
	}

	return cleanOutput(op, decoded.Choices[0].Message.Content, c.stripPrefixes)
}

func userMessage(req domain.TranslationRequest) string {
	if strings.TrimSpace(req.Title) == "" {
		return req.Body
	}
	return fmt.Sprintf("Title: %s\n\nArticle text:\n%s", req.Title, req.Body)
}

// cleanOutput trims the model answer and removes leading labels such as "Translation:".
func cleanOutput(op, output string, prefixes []string) (string, error) {
	output = strings.TrimSpace(output)
	for _, prefix := range prefixes {
		if prefix == "" {
			continue
		}
		output = strings.TrimSpace(strings.ReplaceAll(output, prefix, ""))
	}
	if output == "" {
		return "", domain.NewFailure(op, domain.FailureEmptyOutput, errors.New("model returned empty text"))
	}
	return output, nil
}

func classify(op string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return domain.NewFailure(op, domain.FailureTimeout, err)
	}
	return domain.NewFailure(op, domain.FailureTransport, err)
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "You are a professional translator. Translate the article below into Russian."
	}
	return prompt
}
