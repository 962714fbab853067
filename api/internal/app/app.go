// Package app wires configuration into the pipelines shared by the HTTP
// server, the CLI and the Telegram bot.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"taskboard/api/internal/budget"
	"taskboard/api/internal/config"
	"taskboard/api/internal/extract"
	"taskboard/api/internal/imagegen"
	"taskboard/api/internal/llm"
	"taskboard/api/internal/llm/gemini"
	"taskboard/api/internal/llm/openai"
	"taskboard/api/internal/media"
	"taskboard/api/internal/poster"
	"taskboard/api/internal/store"
)

// App holds the long-lived clients. They are created once and shared by all
// requests.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Engines  *llm.Engines
	Analyzer *budget.Analyzer
	Posters  *poster.Generator // nil unless WithPosters was requested
	Journal  *store.Journal    // nil unless DATABASE_URL is set

	closers []func() error
}

type Option func(*options)

type options struct {
	posters bool
	journal bool
}

func WithPosters() Option { return func(o *options) { o.posters = true } }
func WithJournal() Option { return func(o *options) { o.journal = true } }

// New checks the credentials the selected features need and builds the
// clients. Any failure is a configuration error.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	if err := cfg.RequireAnalysis(); err != nil {
		return nil, err
	}
	if o.posters {
		if err := cfg.RequirePosters(); err != nil {
			return nil, err
		}
	}

	a := &App{Config: cfg, Logger: logger}
	a.Engines = &llm.Engines{Default: cfg.DefaultLLM}
	if cfg.GeminiAPIKey != "" {
		g, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
		if err != nil {
			return nil, err
		}
		a.Engines.Gemini = g
		a.closers = append(a.closers, g.Close)
	}
	if cfg.OpenAIAPIKey != "" {
		oa, err := openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Engines.OpenAI = oa
	}

	var recorder store.Recorder
	if o.journal && cfg.DatabaseURL != "" {
		j, err := store.Open(ctx, cfg.JournalDriver, cfg.DatabaseURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("opening journal: %w", err)
		}
		a.Journal = j
		recorder = j
		a.closers = append(a.closers, j.Close)
		if days := cfg.Policy.JournalRetentionDays; days > 0 {
			n, err := j.PurgeOlderThan(ctx, time.Duration(days)*24*time.Hour)
			if err != nil {
				logger.Warn("journal purge failed", "err", err)
			} else {
				logger.Info("journal purged", "rows", n, "retention_days", days)
			}
		}
	}

	a.Analyzer = &budget.Analyzer{
		Engines:         a.Engines,
		MinAmount:       cfg.Policy.MinAmount,
		DefaultCurrency: cfg.Policy.DefaultCurrency,
		Extraction:      extract.Mode(cfg.Policy.Extraction),
		Logger:          logger,
		Journal:         recorder,
	}

	if o.posters {
		images, err := imagegen.New(cfg.StabilityAPIKey, cfg.StabilityEngine, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		uploader, err := media.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Posters = &poster.Generator{
			Engines:    a.Engines,
			Images:     images,
			Media:      uploader,
			Variations: cfg.Policy.Variations,
			Policy:     poster.FailurePolicy(cfg.Policy.PosterFailure),
			Logger:     logger,
			Journal:    recorder,
		}
	}
	return a, nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Warn("close failed", "err", err)
		}
	}
	a.closers = nil
}
