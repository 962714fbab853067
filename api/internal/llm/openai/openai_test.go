package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/api/internal/apperr"
	"taskboard/api/internal/llm"
	"taskboard/api/internal/llm/openai"
)

func TestGenerate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "c1", "object": "chat.completion", "created": 1, "model": "gpt-4o-mini",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "{\"ok\": true}"}}]
		}`))
	}))
	defer srv.Close()

	eng, err := openai.New("key", "gpt-4o-mini", nil, option.WithBaseURL(srv.URL))
	require.NoError(t, err)

	out, err := eng.Generate(context.Background(), "hello", llm.Options{
		Temperature:     llm.Float32(0.2),
		MaxOutputTokens: 2500,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ok": true}`, out)
	assert.Equal(t, "gpt-4o-mini", got["model"])
	assert.InDelta(t, 0.2, got["temperature"], 1e-6)
	assert.EqualValues(t, 2500, got["max_completion_tokens"])
}

func TestGenerateUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "bad key", "type": "invalid_request_error"}}`))
	}))
	defer srv.Close()

	eng, err := openai.New("key", "gpt-4o-mini", nil, option.WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = eng.Generate(context.Background(), "hello", llm.Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.Upstream))
}

func TestNewRequiresKey(t *testing.T) {
	_, err := openai.New(" ", "gpt-4o-mini", nil)
	assert.True(t, errors.Is(err, apperr.Configuration))
}
