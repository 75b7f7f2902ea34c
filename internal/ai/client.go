package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	apperrors "github.com/tanayreshamwala/rfp-ai-app/internal/common/errors"
	"github.com/tanayreshamwala/rfp-ai-app/internal/common/logger"
	"github.com/tanayreshamwala/rfp-ai-app/internal/common/metrics"
)

const (
	chatCompletionsPath = "/v1/chat/completions"

	systemPrompt = "You are a helpful assistant that responds ONLY with valid JSON. Never include markdown code blocks, explanations, or any text outside the JSON object."
)

// Gateway is the single choke point for all model calls.
type Gateway interface {
	Complete(ctx context.Context, prompt string) (map[string]interface{}, error)
}

// Config holds the model endpoint settings. The credential is injected here
// at construction, never read from ambient process state at call time.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int // additional attempts after the first
	BackoffBase time.Duration
}

// Client calls the chat-completions endpoint with retry, backoff, and
// response normalization. It holds no per-call state and is safe to use
// concurrently.
type Client struct {
	cfg    Config
	client *http.Client
	logger logger.Logger
}

func NewClient(cfg Config, log logger.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, apperrors.NewMissingCredentialsError()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.3
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	if cfg.BackoffBase == 0 {
		cfg.BackoffBase = time.Second
	}

	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: log.WithFields(map[string]interface{}{
			"component": "model-gateway",
		}),
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the prompt and returns the normalized structured value.
// Rate limiting and server errors retry with exponential backoff; parse
// failures retry immediately; everything else propagates on first failure.
func (c *Client) Complete(ctx context.Context, prompt string) (map[string]interface{}, error) {
	var lastErr error

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			metrics.ModelCallRetries.WithLabelValues(string(apperrors.CodeOf(lastErr))).Inc()

			if apperrors.NeedsBackoff(lastErr) {
				backoff := c.cfg.BackoffBase << (attempt - 1)
				select {
				case <-time.After(backoff):
				case <-ctx.Done():
					return nil, apperrors.NewModelTimeoutError()
				}
			}
		}

		parsed, err := c.attempt(ctx, prompt)
		if err == nil {
			return parsed, nil
		}
		lastErr = err

		c.logger.Warn("model call attempt failed", map[string]interface{}{
			"attempt":   attempt + 1,
			"errorCode": string(apperrors.CodeOf(err)),
			"error":     err.Error(),
		})

		if !apperrors.IsRetryable(err) {
			return nil, err
		}
	}

	return nil, apperrors.Wrap(lastErr, fmt.Sprintf("failed after %d attempts", c.cfg.MaxRetries+1))
}

func (c *Client) attempt(ctx context.Context, prompt string) (map[string]interface{}, error) {
	reqBody := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature:    c.cfg.Temperature,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	body, _ := json.Marshal(reqBody)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+chatCompletionsPath, bytes.NewBuffer(body))
	if err != nil {
		return nil, apperrors.NewModelRejectedError(0, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, apperrors.NewModelTimeoutError()
		}
		return nil, apperrors.NewModelConnectionError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, apperrors.NewModelRateLimitedError(resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, apperrors.NewModelUnavailableError(resp.StatusCode)
	default:
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, apperrors.NewModelRejectedError(resp.StatusCode, string(preview))
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, apperrors.NewMalformedResponseError("decode error: " + err.Error())
	}
	if len(cr.Choices) == 0 || cr.Choices[0].Message.Content == "" {
		return nil, apperrors.NewMalformedResponseError("no content in model response")
	}

	return ParseResponse(cr.Choices[0].Message.Content)
}

func isTimeout(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
