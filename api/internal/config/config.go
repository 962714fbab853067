package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"taskboard/api/internal/apperr"
)

const (
	ExtractionBalanced = "balanced"
	ExtractionSpan     = "span"

	PosterFailFast   = "fail_fast"
	PosterBestEffort = "best_effort"
)

type Config struct {
	Port string

	GeminiAPIKey string
	GeminiModel  string
	OpenAIAPIKey string
	OpenAIModel  string
	DefaultLLM   string

	StabilityAPIKey string
	StabilityEngine string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	TelegramBotToken string
	WebhookURL       string

	DatabaseURL   string
	JournalDriver string

	Policy Policy
}

// Policy holds the tunable pipeline behaviour. It can be loaded from the TOML
// file named by TASKBOARD_CONFIG; env vars still win for credentials.
type Policy struct {
	DefaultCurrency      string  `toml:"default_currency"`
	MinAmount            float64 `toml:"min_amount"`
	Extraction           string  `toml:"extraction"`
	PosterFailure        string  `toml:"poster_failure"`
	Variations           int     `toml:"variations"`
	AnalyzeTimeoutSec    int     `toml:"analyze_timeout_sec"`
	PosterTimeoutSec     int     `toml:"poster_timeout_sec"`
	JournalRetentionDays int     `toml:"journal_retention_days"`
}

func DefaultPolicy() Policy {
	return Policy{
		DefaultCurrency:      "INR",
		MinAmount:            1.0,
		Extraction:           ExtractionBalanced,
		PosterFailure:        PosterFailFast,
		Variations:           3,
		AnalyzeTimeoutSec:    70,
		PosterTimeoutSec:     180,
		JournalRetentionDays: 30,
	}
}

func (p Policy) AnalyzeTimeout() time.Duration {
	return time.Duration(p.AnalyzeTimeoutSec) * time.Second
}

func (p Policy) PosterTimeout() time.Duration {
	return time.Duration(p.PosterTimeoutSec) * time.Second
}

func (p Policy) Validate() error {
	var errs []error
	if p.MinAmount <= 0 {
		errs = append(errs, fmt.Errorf("min_amount must be > 0, got %v", p.MinAmount))
	}
	if p.Extraction != ExtractionBalanced && p.Extraction != ExtractionSpan {
		errs = append(errs, fmt.Errorf("extraction must be %q or %q, got %q", ExtractionBalanced, ExtractionSpan, p.Extraction))
	}
	if p.PosterFailure != PosterFailFast && p.PosterFailure != PosterBestEffort {
		errs = append(errs, fmt.Errorf("poster_failure must be %q or %q, got %q", PosterFailFast, PosterBestEffort, p.PosterFailure))
	}
	if p.Variations < 1 {
		errs = append(errs, fmt.Errorf("variations must be >= 1, got %d", p.Variations))
	}
	if len(strings.TrimSpace(p.DefaultCurrency)) != 3 {
		errs = append(errs, fmt.Errorf("default_currency must be a 3-letter code, got %q", p.DefaultCurrency))
	}
	if p.AnalyzeTimeoutSec <= 0 || p.PosterTimeoutSec <= 0 {
		errs = append(errs, errors.New("timeouts must be > 0"))
	}
	return errors.Join(errs...)
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

// Load builds the Config from defaults, the optional policy file and env.
// Missing credentials are not an error here; see the Require* checks.
func Load() (*Config, error) {
	policy := DefaultPolicy()
	if path := getEnv("TASKBOARD_CONFIG", ""); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, apperr.New(apperr.KindConfiguration, "config", fmt.Errorf("reading policy file: %w", err))
		}
		if err := toml.Unmarshal(data, &policy); err != nil {
			return nil, apperr.New(apperr.KindConfiguration, "config", fmt.Errorf("parsing policy file: %w", err))
		}
	}
	if v := getEnv("MIN_BUDGET_AMOUNT", ""); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, apperr.Newf(apperr.KindConfiguration, "config", "bad MIN_BUDGET_AMOUNT %q", v)
		}
		policy.MinAmount = f
	}
	policy.Extraction = getEnv("EXTRACTION_MODE", policy.Extraction)
	policy.PosterFailure = getEnv("POSTER_FAILURE_POLICY", policy.PosterFailure)
	policy.DefaultCurrency = strings.ToUpper(getEnv("DEFAULT_CURRENCY", policy.DefaultCurrency))

	if err := policy.Validate(); err != nil {
		return nil, apperr.New(apperr.KindConfiguration, "config", err)
	}

	return &Config{
		Port: getEnv("PORT", "8000"),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		DefaultLLM:   getEnv("DEFAULT_LLM", "gemini"),

		StabilityAPIKey: getEnv("STABILITY_API_KEY", ""),
		StabilityEngine: getEnv("STABILITY_ENGINE", "stable-diffusion-xl-1024-v1-0"),

		CloudinaryCloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		JournalDriver: getEnv("JOURNAL_DRIVER", "postgres"),

		Policy: policy,
	}, nil
}

func missing(pairs ...string) error {
	var names []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			names = append(names, pairs[i])
		}
	}
	if len(names) == 0 {
		return nil
	}
	return apperr.Newf(apperr.KindConfiguration, "config", "missing required env %s", strings.Join(names, ", "))
}

// RequireAnalysis checks the credentials the task analysis endpoint needs.
func (c *Config) RequireAnalysis() error {
	switch c.DefaultLLM {
	case "gpt", "openai":
		return missing("OPENAI_API_KEY", c.OpenAIAPIKey)
	default:
		return missing("GEMINI_API_KEY", c.GeminiAPIKey)
	}
}

// RequirePosters checks the credentials the poster endpoint needs. Prompt
// enhancement reuses the analysis engine.
func (c *Config) RequirePosters() error {
	return missing(
		"STABILITY_API_KEY", c.StabilityAPIKey,
		"CLOUDINARY_CLOUD_NAME", c.CloudinaryCloudName,
		"CLOUDINARY_API_KEY", c.CloudinaryAPIKey,
		"CLOUDINARY_API_SECRET", c.CloudinaryAPISecret,
	)
}

func (c *Config) RequireBot() error {
	return missing("TELEGRAM_BOT_TOKEN", c.TelegramBotToken)
}
