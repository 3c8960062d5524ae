package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"PmdaPipeline/internal/config"
	"PmdaPipeline/internal/ports"
)

const defaultSystemPrompt = "You translate Japanese pharmaceutical generic names " +
	"to their English INN. Respond with the English name only."

// DeepSeekClient implements ports.Translator against DeepSeek's
// OpenAI-compatible chat-completions API.
type DeepSeekClient struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client

	// Mandatory minimum delay between external calls.
	minDelay time.Duration
	mu       sync.Mutex
	last     time.Time
}

var _ ports.Translator = (*DeepSeekClient)(nil)

// NewDeepSeekClient builds a client from configuration.
func NewDeepSeekClient(cfg config.DeepSeekConfig) *DeepSeekClient {
	return &DeepSeekClient{
		endpoint:   cfg.Endpoint,
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		minDelay:   cfg.MinDelay(),
		httpClient: &http.Client{Timeout: cfg.RequestTimeout()},
	}
}

// Translate asks the model for the English generic name, passing the brand
// name as disambiguation context. An empty completion is returned as-is; the
// caller decides how to record it.
func (c *DeepSeekClient) Translate(ctx context.Context, genericJP, brandJP string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("deepseek client is nil")
	}
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", fmt.Errorf("deepseek client misconfigured")
	}

	c.waitTurn(ctx)

	prompt := fmt.Sprintf("Translate the Japanese drug generic name %q to English. Brand name context: %q.", genericJP, brandJP)
	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": defaultSystemPrompt},
			{"role": "user", "content": prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal deepseek payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("deepseek error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode deepseek response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("deepseek returned no choices")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

func (c *DeepSeekClient) waitTurn(ctx context.Context) {
	if c.minDelay <= 0 {
		return
	}
	c.mu.Lock()
	now := time.Now()
	wait := c.minDelay - now.Sub(c.last)
	if wait < 0 {
		wait = 0
	}
	c.last = now.Add(wait)
	c.mu.Unlock()

	if wait == 0 {
		return
	}
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
