package transform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dukex/scriptorium/pkg/models"
	"github.com/dukex/scriptorium/pkg/template"
)

const (
	defaultCompletionTimeout = 60 * time.Second
	maxErrorBodyBytes        = 4096
)

// CompletionConfig configures the remote completion service.
type CompletionConfig struct {
	Endpoint   string `validate:"required,url"`
	APIKey     string
	Model      string `validate:"required"`
	MaxRetries uint64
	Timeout    time.Duration
}

// StatusError reports a non-2xx answer of the completion service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("completion service returned status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the request may succeed when repeated.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// CompletionClient sends each transformation to an OpenAI compatible chat
// completions endpoint, retrying rate limits and server errors with
// exponential backoff.
type CompletionClient struct {
	logger     *slog.Logger
	config     CompletionConfig
	httpClient *http.Client
	newBackoff func() backoff.BackOff
}

type CompletionOption func(*CompletionClient)

func WithHTTPClient(client *http.Client) CompletionOption {
	return func(c *CompletionClient) {
		c.httpClient = client
	}
}

// WithBackoff replaces the retry schedule. Retries are still capped by MaxRetries.
func WithBackoff(newBackoff func() backoff.BackOff) CompletionOption {
	return func(c *CompletionClient) {
		c.newBackoff = newBackoff
	}
}

func NewCompletionClient(logger *slog.Logger, config CompletionConfig, opts ...CompletionOption) *CompletionClient {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultCompletionTimeout
	}

	c := &CompletionClient{
		logger:     logger.With("module", "completion_client"),
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
		newBackoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 10 * time.Second
			b.MaxElapsedTime = 2 * time.Minute

			return b
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *CompletionClient) Apply(ctx context.Context, text string, action models.ActionDefinition, customPrompt string) (string, error) {
	instruction, err := template.Instruction(action, customPrompt, text)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: instruction},
			{Role: "user", Content: text},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	attempt := 0
	call := func() (string, error) {
		attempt++

		result, err := c.complete(ctx, payload)
		if err == nil {
			return result, nil
		}

		var statusErr *StatusError
		if errors.As(err, &statusErr) && !statusErr.Retryable() {
			return "", backoff.Permanent(err)
		}

		if errors.Is(err, ErrEmptyResult) {
			return "", backoff.Permanent(err)
		}

		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return "", err
		}

		c.logger.WarnContext(ctx, "Completion request failed, retrying",
			"action_id", action.ID, "attempt", attempt, "error", err)

		return "", err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackoff(), c.config.MaxRetries), ctx)

	result, err := backoff.RetryWithData(call, policy)
	if err != nil {
		return "", fmt.Errorf("completion for action %s failed after %d attempt(s): %w", action.ID, attempt, err)
	}

	return result, nil
}

func (c *CompletionClient) complete(ctx context.Context, payload []byte) (string, error) {
	endpoint := strings.TrimRight(c.config.Endpoint, "/") + "/chat/completions"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("failed to build completion request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")

	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

		return "", &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}

	if len(decoded.Choices) == 0 || strings.TrimSpace(decoded.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResult
	}

	return strings.TrimSpace(decoded.Choices[0].Message.Content), nil
}
