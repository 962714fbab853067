package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"taskboard/api/internal/store"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show the most recent pipeline runs",
	RunE:  runJournal,
}

func init() {
	journalCmd.Flags().IntP("limit", "n", 20, "number of runs to show")
}

func runJournal(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is not set; the run journal is disabled")
	}
	limit, _ := cmd.Flags().GetInt("limit")

	j, err := store.Open(cmd.Context(), cfg.JournalDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}
	printRuns(os.Stdout, runs)
	return nil
}
