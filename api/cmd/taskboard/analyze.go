package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"taskboard/api/internal/app"
	"taskboard/api/internal/budget"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <task>",
	Short: "Break a task into department subtasks with a budget",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringSliceP("dept", "d", nil, "candidate departments (repeat or comma separate)")
	analyzeCmd.Flags().StringP("currency", "c", "", "ISO 4217 currency code (default from policy)")
	analyzeCmd.Flags().String("llm", "", "gemini or gpt (default from DEFAULT_LLM)")
	analyzeCmd.Flags().Bool("json", false, "print the raw JSON response")
	_ = analyzeCmd.MarkFlagRequired("dept")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	logger := newLogger("text")
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	depts, _ := cmd.Flags().GetStringSlice("dept")
	currency, _ := cmd.Flags().GetString("currency")
	llmName, _ := cmd.Flags().GetString("llm")
	asJSON, _ := cmd.Flags().GetBool("json")

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Policy.AnalyzeTimeout())
	defer cancel()

	a, err := app.New(ctx, cfg, logger, app.WithJournal())
	if err != nil {
		return err
	}
	defer a.Close()

	resp, err := a.Analyzer.Analyze(ctx, budget.TaskAnalysisRequest{
		Task:        args[0],
		Departments: depts,
		Currency:    currency,
		LLMName:     llmName,
	})
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	printAnalysis(os.Stdout, resp)
	return nil
}
