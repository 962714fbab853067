package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/api/internal/apperr"
	"taskboard/api/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"TASKBOARD_CONFIG", "MIN_BUDGET_AMOUNT", "EXTRACTION_MODE", "POSTER_FAILURE_POLICY",
		"DEFAULT_CURRENCY", "GEMINI_API_KEY", "OPENAI_API_KEY", "DEFAULT_LLM", "STABILITY_API_KEY",
		"CLOUDINARY_CLOUD_NAME", "CLOUDINARY_API_KEY", "CLOUDINARY_API_SECRET", "TELEGRAM_BOT_TOKEN",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "INR", cfg.Policy.DefaultCurrency)
	assert.Equal(t, 1.0, cfg.Policy.MinAmount)
	assert.Equal(t, config.ExtractionBalanced, cfg.Policy.Extraction)
	assert.Equal(t, config.PosterFailFast, cfg.Policy.PosterFailure)
	assert.Equal(t, 3, cfg.Policy.Variations)
}

func TestLoadPolicyFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "policy.toml")
	content := `
default_currency = "USD"
min_amount = 5.0
extraction = "span"
poster_failure = "best_effort"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("TASKBOARD_CONFIG", path)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "USD", cfg.Policy.DefaultCurrency)
	assert.Equal(t, 5.0, cfg.Policy.MinAmount)
	assert.Equal(t, config.ExtractionSpan, cfg.Policy.Extraction)
	assert.Equal(t, config.PosterBestEffort, cfg.Policy.PosterFailure)
	assert.Equal(t, 3, cfg.Policy.Variations, "unset keys keep defaults")
}

func TestLoadEnvOverridesPolicy(t *testing.T) {
	clearEnv(t)
	t.Setenv("MIN_BUDGET_AMOUNT", "2.5")
	t.Setenv("DEFAULT_CURRENCY", "eur")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 2.5, cfg.Policy.MinAmount)
	assert.Equal(t, "EUR", cfg.Policy.DefaultCurrency)
}

func TestLoadRejectsBadPolicy(t *testing.T) {
	clearEnv(t)
	t.Setenv("EXTRACTION_MODE", "greedy")

	_, err := config.Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.Configuration))
}

func TestRequireChecks(t *testing.T) {
	clearEnv(t)
	cfg, err := config.Load()
	require.NoError(t, err)

	err = cfg.RequireAnalysis()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")

	err = cfg.RequirePosters()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STABILITY_API_KEY")
	assert.Contains(t, err.Error(), "CLOUDINARY_API_SECRET")

	cfg.GeminiAPIKey = "k"
	assert.NoError(t, cfg.RequireAnalysis())

	cfg.DefaultLLM = "gpt"
	assert.Error(t, cfg.RequireAnalysis())
}
