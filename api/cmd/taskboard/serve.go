package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"taskboard/api/internal/app"
	"taskboard/api/internal/handle"
	"taskboard/api/internal/httpserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Bool("no-posters", false, "serve /analyze-task only; poster credentials are not required")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger("json")
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []app.Option{app.WithJournal()}
	if noPosters, _ := cmd.Flags().GetBool("no-posters"); !noPosters {
		opts = append(opts, app.WithPosters())
	}
	a, err := app.New(ctx, cfg, logger, opts...)
	if err != nil {
		return err
	}
	defer a.Close()

	var posters handle.PosterGenerator
	if a.Posters != nil {
		posters = a.Posters
	}
	h := handle.New(a.Analyzer, posters, handle.Options{
		AnalyzeTimeout: cfg.Policy.AnalyzeTimeout(),
		PosterTimeout:  cfg.Policy.PosterTimeout(),
		Logger:         logger,
	})

	srv := httpserver.New(":"+cfg.Port, h.Routes(), cfg.Policy.PosterTimeout())
	logger.Info("taskboard starting",
		"port", cfg.Port,
		"default_llm", cfg.DefaultLLM,
		"posters", a.Posters != nil,
		"journal", a.Journal != nil,
		"extraction", cfg.Policy.Extraction,
		"poster_failure", cfg.Policy.PosterFailure,
	)
	return httpserver.Serve(ctx, srv, 15*time.Second, logger)
}
