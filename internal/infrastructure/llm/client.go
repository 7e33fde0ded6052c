package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/chain-shield/tokencheck-backend-sub000/internal/domain/repositories"
)

// Ensure Client implements ChatCompleter
var _ repositories.ChatCompleter = (*Client)(nil)

// ErrEmptyCompletion is returned when the provider answers without any choice
var ErrEmptyCompletion = errors.New("completion has no choices")

// Message is one chat turn
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	TopP        float64   `json:"top_p"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string          `json:"message"`
		Type    string          `json:"type"`
		Code    json.RawMessage `json:"code"`
	} `json:"error"`
}

// Client sends chat completions to the configured provider
type Client struct {
	httpClient *http.Client
	spec       ProviderSpec
	maxRetries int
	logger     *zap.Logger
}

// NewClient creates a client bound to one provider
func NewClient(spec ProviderSpec, timeout time.Duration, maxRetries int, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		spec:       spec,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// ContentLimit returns the maximum number of characters of user content per request
func (c *Client) ContentLimit() int {
	return c.spec.MaxContentChars
}

// ProviderName returns the provider name
func (c *Client) ProviderName() string {
	return c.spec.Provider.String()
}

// Complete sends a system and a user message and returns the first choice's content.
// 429 and 5xx answers are retried; other non-2xx answers return *APIError.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.spec.Model,
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: c.spec.Temperature,
		MaxTokens:   c.spec.MaxTokens,
		TopP:        c.spec.TopP,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	endpoint := strings.TrimRight(c.spec.BaseURL, "/") + "/chat/completions"

	operation := func() (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return "", backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.spec.APIKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return "", fmt.Errorf("failed to call %s: %w", c.spec.Provider, err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("failed to read %s response: %w", c.spec.Provider, err)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			apiErr := parseAPIError(resp.StatusCode, raw)
			if apiErr.Retryable() {
				return "", apiErr
			}
			return "", backoff.Permanent(apiErr)
		}

		var out chatResponse
		if err := json.Unmarshal(raw, &out); err != nil {
			return "", backoff.Permanent(fmt.Errorf("failed to decode %s response: %w", c.spec.Provider, err))
		}
		if len(out.Choices) == 0 {
			return "", backoff.Permanent(ErrEmptyCompletion)
		}
		return out.Choices[0].Message.Content, nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(c.maxRetries+1)),
		backoff.WithNotify(func(err error, d time.Duration) {
			c.logger.Warn("Chat completion failed, retrying",
				zap.String("provider", c.spec.Provider.String()),
				zap.Duration("backoff", d),
				zap.Error(err),
			)
		}),
	)
}

func parseAPIError(status int, raw []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var er errorResponse
	if err := json.Unmarshal(raw, &er); err != nil || er.Error.Message == "" {
		apiErr.Message = strings.TrimSpace(string(raw))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(status)
		}
		return apiErr
	}

	apiErr.Message = er.Error.Message
	apiErr.Type = er.Error.Type
	if len(er.Error.Code) > 0 && string(er.Error.Code) != "null" {
		var code string
		if err := json.Unmarshal(er.Error.Code, &code); err == nil {
			apiErr.Code = code
		} else {
			apiErr.Code = string(er.Error.Code)
		}
	}
	return apiErr
}
