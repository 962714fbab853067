package imagegen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/api/internal/apperr"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New("sk-test", "", nil)
	require.NoError(t, err)
	c.BaseURL = srv.URL
	return c
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(" ", "", nil)
	assert.ErrorIs(t, err, apperr.Configuration)
}

func TestGenerate(t *testing.T) {
	var got body
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/generation/"+DefaultEngine+"/text-to-image", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "image/png", r.Header.Get("Accept"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngHeader)
	})

	img, err := c.Generate(context.Background(), Request{Prompt: "a poster", CfgScale: 8, Seed: 1001})
	require.NoError(t, err)
	assert.Equal(t, "png", img.Format)
	assert.Equal(t, pngHeader, img.Data)

	require.Len(t, got.TextPrompts, 1)
	assert.Equal(t, "a poster", got.TextPrompts[0].Text)
	assert.Equal(t, 1.0, got.TextPrompts[0].Weight)
	assert.Equal(t, 8.0, got.CfgScale)
	assert.EqualValues(t, 1001, got.Seed)
	assert.Equal(t, 1024, got.Width)
	assert.Equal(t, 1024, got.Height)
	assert.Equal(t, 30, got.Steps)
	assert.Equal(t, 1, got.Samples)
}

func TestGenerate_HTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid prompt"}`, http.StatusBadRequest)
	})

	_, err := c.Generate(context.Background(), Request{Prompt: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.Upstream)
	assert.ErrorContains(t, err, "invalid prompt")
	assert.Equal(t, http.StatusBadRequest, apperr.DetailsOf(err)["status"])
}

func TestGenerate_NotAnImage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"artifacts": []}`))
	})

	_, err := c.Generate(context.Background(), Request{Prompt: "x"})
	assert.ErrorIs(t, err, apperr.Upstream)
}
