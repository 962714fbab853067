package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"taskboard/api/internal/app"
	"taskboard/api/internal/poster"
)

var posterCmd = &cobra.Command{
	Use:   "poster <request.json|->",
	Short: "Generate poster variations from a questionnaire file",
	Args:  cobra.ExactArgs(1),
	RunE:  runPoster,
}

func runPoster(cmd *cobra.Command, args []string) error {
	logger := newLogger("text")
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var r io.Reader = os.Stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	var req poster.PosterRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return fmt.Errorf("decoding %s: %w", args[0], err)
	}
	// Reject a bad questionnaire before any client is built.
	if err := req.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Policy.PosterTimeout())
	defer cancel()

	a, err := app.New(ctx, cfg, logger, app.WithPosters(), app.WithJournal())
	if err != nil {
		return err
	}
	defer a.Close()

	resp, err := a.Posters.Generate(ctx, req)
	if err != nil {
		return err
	}
	printPosters(os.Stdout, resp)
	return nil
}
