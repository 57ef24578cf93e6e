package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"csi-insights-go/internal/logger"
)

// GatewayClient talks to an OpenAI-compatible chat-completions gateway.
// Transient failures (5xx, transport errors) are retried with
// exponential backoff; client errors are permanent. Every failure path
// ends in ErrModelUnavailable so callers see a single taxonomy.
type GatewayClient struct {
	url         string
	apiKey      string
	model       string
	temperature float64
	http        *http.Client
	maxElapsed  time.Duration
	log         *logger.Logger
}

// GatewayConfig configures the gateway client.
type GatewayConfig struct {
	URL         string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
	MaxRetry    time.Duration
}

// NewGatewayClient builds a gateway client. URL and APIKey are required.
func NewGatewayClient(cfg GatewayConfig, log *logger.Logger) (*GatewayClient, error) {
	if cfg.URL == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("llm: gateway not configured")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 25 * time.Second
	}
	if cfg.MaxRetry <= 0 {
		cfg.MaxRetry = 45 * time.Second
	}
	if log == nil {
		log = logger.New()
	}
	return &GatewayClient{
		url:         cfg.URL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		http:        &http.Client{Timeout: cfg.Timeout},
		maxElapsed:  cfg.MaxRetry,
		log:         log.WithComponent("llm-gateway"),
	}, nil
}

// Generate sends the prompt as a single user message and returns the
// assistant text.
func (c *GatewayClient) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": c.temperature,
	}
	data, _ := json.Marshal(reqBody)

	var out string
	var lastErr error
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			c.log.WithError(err).Warn("llm request failed")
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("llm server error: status %d", resp.StatusCode)
			return lastErr
		}
		if resp.StatusCode >= 400 {
			lastErr = fmt.Errorf("llm client error: status %d: %s", resp.StatusCode, string(body))
			return backoff.Permanent(lastErr)
		}

		if content := contentFromChoices(body); content != "" {
			out = content
			lastErr = nil
			return nil
		}
		lastErr = fmt.Errorf("no assistant content in gateway response")
		return lastErr
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = c.maxElapsed
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		if lastErr == nil {
			lastErr = err
		}
		return "", fmt.Errorf("%w: %v", ErrModelUnavailable, lastErr)
	}
	return out, nil
}

// contentFromChoices reads the OpenAI-style choices[0].message.content
// field out of a raw response body.
func contentFromChoices(body []byte) string {
	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	if len(parsed.Choices) == 0 {
		return ""
	}
	return parsed.Choices[0].Message.Content
}
