package transform

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/dukex/scriptorium/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var summary = models.ActionDefinition{
	ID:       "summary_exec",
	Label:    "Executive Summary",
	Category: models.CategoryAnalysis,
	Prompt:   "Summarise {{ .Action.Label }}",
}

func newTestClient(t *testing.T, handler http.HandlerFunc, retries uint64) *CompletionClient {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewCompletionClient(slog.Default(), CompletionConfig{
		Endpoint:   server.URL + "/v1/",
		APIKey:     "secret",
		Model:      "test-model",
		MaxRetries: retries,
	}, WithBackoff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }))
}

func writeCompletion(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"choices": []any{
			map[string]any{"message": map[string]any{"role": "assistant", "content": content}},
		},
	})
}

func TestCompletionClient_Apply(t *testing.T) {
	var received chatRequest

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		writeCompletion(w, "  the summary  ")
	}, 0)

	result, err := client.Apply(context.Background(), "long text", summary, "")
	require.NoError(t, err)
	assert.Equal(t, "the summary", result)

	assert.Equal(t, "test-model", received.Model)
	require.Len(t, received.Messages, 2)
	assert.Equal(t, "Summarise Executive Summary", received.Messages[0].Content)
	assert.Equal(t, "long text", received.Messages[1].Content)
}

func TestCompletionClient_CustomPrompt(t *testing.T) {
	var received chatRequest

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		writeCompletion(w, "ok")
	}, 0)

	_, err := client.Apply(context.Background(), "text", summary, "Three bullet points")
	require.NoError(t, err)
	assert.Equal(t, "Three bullet points", received.Messages[0].Content)
}

func TestCompletionClient_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)

			return
		}

		writeCompletion(w, "finally")
	}, 3)

	result, err := client.Apply(context.Background(), "text", summary, "")
	require.NoError(t, err)
	assert.Equal(t, "finally", result)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCompletionClient_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, 2)

	_, err := client.Apply(context.Background(), "text", summary, "")
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCompletionClient_ClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "bad model", http.StatusBadRequest)
	}, 5)

	_, err := client.Apply(context.Background(), "text", summary, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad model")
	assert.Equal(t, int32(1), calls.Load())
}

func TestCompletionClient_EmptyChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}, 3)

	_, err := client.Apply(context.Background(), "text", summary, "")
	require.ErrorIs(t, err, ErrEmptyResult)
}
