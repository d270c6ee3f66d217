// Package advisor calls a remote text-completion endpoint to obtain a
// short written assessment of an uploaded batch. The call is best
// effort: failures surface as a warning and an empty advisory, never
// as a fatal pipeline error.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// FallbackText is returned when the endpoint answers without any
// completion text.
const FallbackText = "No response"

const promptPrefix = "Analyze the following network traffic data: "

// Config holds the completion-endpoint settings. APIKey must come
// from the environment or a secret store; it is never defaulted.
type Config struct {
	URL         string  `mapstructure:"url"`
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	TimeoutSec  int     `mapstructure:"timeout_sec"`
}

// DefaultConfig returns the standard advisory settings, minus the
// credential.
func DefaultConfig() Config {
	return Config{
		URL:         "https://api.groq.com/v1/completions",
		Model:       "qwen-2.5-32b",
		Temperature: 0.6,
		MaxTokens:   100,
		TimeoutSec:  30,
	}
}

// Client issues completion requests.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// NewClient builds a Client from config. A nil logger disables
// logging.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Enabled reports whether the client has a credential to use.
func (c *Client) Enabled() bool { return c.cfg.APIKey != "" }

type completionRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

// Analyze sends the batch summary to the completion endpoint and
// returns the first completion's text. An answer with no completions
// yields FallbackText; transport and decoding problems are errors for
// the caller to soften.
func (c *Client) Analyze(ctx context.Context, summary string) (string, error) {
	if !c.Enabled() {
		return "", errors.New("advisor: no API key configured")
	}

	body, err := json.Marshal(completionRequest{
		Model:       c.cfg.Model,
		Prompt:      promptPrefix + summary,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("advisor: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("advisor: endpoint returned %s", resp.Status)
	}

	var parsed completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("advisor: malformed response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Text == "" {
		c.logger.Warn("advisory response had no completion text")
		return FallbackText, nil
	}
	return parsed.Choices[0].Text, nil
}
