package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/api/internal/apperr"
	"taskboard/api/internal/config"
	"taskboard/api/internal/extract"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestNew_MissingCredentials(t *testing.T) {
	cfg := &config.Config{DefaultLLM: "gemini", Policy: config.DefaultPolicy()}
	_, err := New(context.Background(), cfg, quiet())
	assert.ErrorIs(t, err, apperr.Configuration)

	cfg = &config.Config{DefaultLLM: "gpt", OpenAIAPIKey: "sk", Policy: config.DefaultPolicy()}
	_, err = New(context.Background(), cfg, quiet(), WithPosters())
	require.Error(t, err)
	assert.ErrorContains(t, err, "STABILITY_API_KEY")
}

func TestNew_OpenAIWithSQLiteJournal(t *testing.T) {
	cfg := &config.Config{
		DefaultLLM:    "gpt",
		OpenAIAPIKey:  "sk-test",
		OpenAIModel:   "gpt-4o-mini",
		DatabaseURL:   filepath.Join(t.TempDir(), "runs.db"),
		JournalDriver: "sqlite",
		Policy:        config.DefaultPolicy(),
	}
	a, err := New(context.Background(), cfg, quiet(), WithJournal())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Engines.Gemini)
	require.NotNil(t, a.Engines.OpenAI)
	assert.Equal(t, "gpt", a.Engines.OpenAI.Name())
	assert.NotNil(t, a.Journal)
	assert.NotNil(t, a.Analyzer.Journal)
	assert.Equal(t, extract.ModeBalanced, a.Analyzer.Extraction)
	assert.Equal(t, "INR", a.Analyzer.DefaultCurrency)
	assert.Nil(t, a.Posters)
}
