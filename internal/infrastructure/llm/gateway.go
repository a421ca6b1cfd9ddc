package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"NewsRelay/internal/config"
	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

// GatewayClient talks to a self-hosted translation service exposing POST /translate.
type GatewayClient struct {
	endpoint      string
	apiKey        string
	instruction   string
	stripPrefixes []string
	http          *http.Client
}

var _ ports.Translator = (*GatewayClient)(nil)

// NewGatewayClient creates a reusable HTTP client.
func NewGatewayClient(cfg config.TranslatorConfig) *GatewayClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &GatewayClient{
		endpoint:      strings.TrimSuffix(cfg.Endpoint, "/"),
		apiKey:        cfg.APIKey,
		instruction:   safePrompt(cfg.SystemPrompt),
		stripPrefixes: cfg.StripPrefixes,
		http:          &http.Client{Timeout: timeout},
	}
}

// Translate posts the article and returns the service's translation.
func (c *GatewayClient) Translate(ctx context.Context, req domain.TranslationRequest) (string, error) {
	payload := map[string]any{
		"instruction": c.instruction,
		"title":       req.Title,
		"text":        req.Body,
	}

	var resp struct {
		Translation string `json:"translation"`
	}
	if err := c.post(ctx, "/translate", payload, &resp); err != nil {
		return "", err
	}

	return cleanOutput("translate", resp.Translation, c.stripPrefixes)
}

func (c *GatewayClient) post(ctx context.Context, path string, payload any, v any) error {
	const op = "translate"

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return domain.NewFailure(op, domain.FailureTransport, fmt.Errorf("new request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return classify(op, fmt.Errorf("do request: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return domain.StatusFailure(op, resp.StatusCode, fmt.Errorf("unexpected status %s, close body: %v", resp.Status, closeErr))
		}
		return domain.StatusFailure(op, resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		_ = resp.Body.Close()
		return classify(op, fmt.Errorf("decode response: %w", err))
	}

	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}

	return nil
}

// New selects the translator backend named in cfg.
func New(cfg config.TranslatorConfig) (ports.Translator, error) {
	switch cfg.Backend {
	case config.TranslatorChatGPT, "":
		return NewChatGPTClient(cfg), nil
	case config.TranslatorGateway:
		return NewGatewayClient(cfg), nil
	default:
		return nil, fmt.Errorf("unknown translator backend %q", cfg.Backend)
	}
}
