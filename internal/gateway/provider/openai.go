package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"promptrelay/internal/logger"
	"promptrelay/internal/pkg/attach"

	"github.com/tidwall/gjson"
)

// OpenAIChatClient targets any OpenAI-compatible /v1/chat/completions
// endpoint (OpenAI, DeepSeek, Qwen, local gateways). Retries 429/5xx a
// bounded number of times, honoring Retry-After when present.
type OpenAIChatClient struct {
	BaseURL      string
	APIKey       string
	Model        string
	Timeout      time.Duration
	MaxRetries   int
	ExtraHeaders map[string]string

	httpc *http.Client
}

func (c *OpenAIChatClient) endpoint(path string) string {
	url := strings.TrimRight(c.BaseURL, "/")
	if url == "" {
		url = "https://api.openai.com/v1"
	}
	// Tolerate configs that already carry the completions path.
	url = strings.TrimSuffix(url, "/chat/completions")
	return url + path
}

func (c *OpenAIChatClient) client() *http.Client {
	if c.httpc == nil {
		timeout := c.Timeout
		if timeout == 0 {
			timeout = 60 * time.Second
		}
		c.httpc = &http.Client{Timeout: timeout}
	}
	return c.httpc
}

func (c *OpenAIChatClient) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	for k, v := range c.ExtraHeaders {
		req.Header.Set(k, v)
	}
}

// CallChat posts one chat completion and returns the message content.
func (c *OpenAIChatClient) CallChat(ctx context.Context, payload ChatPayload) (string, error) {
	url := c.endpoint("/chat/completions")
	body, err := json.Marshal(c.buildRequestBody(payload))
	if err != nil {
		return "", fmt.Errorf("encoding chat request: %w", err)
	}

	maxRetries := c.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 2
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt == 0 {
			logger.Debugf("[AI] POST %s model=%s auth=%s bytes=%d", url, c.Model, maskKey(c.APIKey), len(body))
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return "", err
		}
		c.setHeaders(req)

		resp, err := c.client().Do(req)
		if err != nil {
			return "", err
		}
		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return "", fmt.Errorf("reading chat response: %w", readErr)
		}

		if resp.StatusCode/100 == 2 {
			content := gjson.GetBytes(respBody, "choices.0.message.content")
			if !content.Exists() {
				return "", fmt.Errorf("chat response carries no choices")
			}
			return content.String(), nil
		}

		msg := strings.TrimSpace(gjson.GetBytes(respBody, "error.message").String())
		if msg == "" {
			msg = resp.Status
		}
		lastErr = fmt.Errorf("status=%d: %s", resp.StatusCode, msg)
		if !retryableStatus(resp.StatusCode) || attempt == maxRetries {
			break
		}
		wait := retryDelay(resp.Header.Get("Retry-After"), attempt)
		logger.Debugf("[AI] retrying after %s (%v)", wait, lastErr)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", lastErr
}

func (c *OpenAIChatClient) buildRequestBody(payload ChatPayload) map[string]any {
	messages := make([]map[string]any, 0, 2)
	if payload.System != "" {
		messages = append(messages, map[string]any{"role": "system", "content": payload.System})
	}
	if len(payload.Attachments) == 0 {
		messages = append(messages, map[string]any{"role": "user", "content": payload.User})
	} else {
		content := []any{map[string]any{"type": "text", "text": payload.User}}
		for _, att := range payload.Attachments {
			content = append(content, map[string]any{
				"type":      "image_url",
				"image_url": map[string]any{"url": att.DataURI()},
			})
		}
		messages = append(messages, map[string]any{"role": "user", "content": content})
	}
	body := map[string]any{"model": c.Model, "messages": messages}
	if payload.MaxTokens > 0 {
		body["max_tokens"] = payload.MaxTokens
	}
	return body
}

// ListChatModels queries GET /models.
func (c *OpenAIChatClient) ListChatModels(ctx context.Context) ([]ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/models"), nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)
	resp, err := c.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		msg := strings.TrimSpace(gjson.GetBytes(body, "error.message").String())
		if msg == "" {
			msg = resp.Status
		}
		return nil, fmt.Errorf("status=%d: %s", resp.StatusCode, msg)
	}
	var out []ModelInfo
	for _, item := range gjson.GetBytes(body, "data").Array() {
		id := item.Get("id").String()
		if id == "" {
			continue
		}
		out = append(out, ModelInfo{ID: id})
	}
	return out, nil
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func retryDelay(retryAfter string, attempt int) time.Duration {
	if retryAfter != "" {
		if secs, err := strconv.Atoi(retryAfter); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	wait := 800 * time.Millisecond << attempt
	if wait > 8*time.Second {
		wait = 8 * time.Second
	}
	return wait
}

func maskKey(key string) string {
	if key == "" {
		return "<none>"
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}

// OpenAIModelProvider adapts OpenAIChatClient to the ModelProvider
// interface. Vision support is declared per endpoint in config; documents
// and audio have no inline form on chat completions.
type OpenAIModelProvider struct {
	id     string
	vision bool
	client *OpenAIChatClient
}

func NewOpenAIModelProvider(id string, vision bool, client *OpenAIChatClient) *OpenAIModelProvider {
	return &OpenAIModelProvider{id: id, vision: vision, client: client}
}

func (p *OpenAIModelProvider) ID() string    { return p.id }
func (p *OpenAIModelProvider) Model() string { return p.client.Model }
func (p *OpenAIModelProvider) Enabled() bool { return true }

func (p *OpenAIModelProvider) Supports(kind attach.Kind) bool {
	return kind == attach.KindImage && p.vision
}

func (p *OpenAIModelProvider) Call(ctx context.Context, payload ChatPayload) (string, error) {
	return p.client.CallChat(ctx, payload)
}

func (p *OpenAIModelProvider) ListModels(ctx context.Context) ([]ModelInfo, error) {
	return p.client.ListChatModels(ctx)
}
