package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"taskboard/api/internal/apperr"
	"taskboard/api/internal/budget"
	"taskboard/api/internal/poster"
	"taskboard/api/internal/store"
)

var (
	headerColor  = color.New(color.FgMagenta, color.Bold)
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	warningColor = color.New(color.FgYellow)
)

func printAnalysis(w io.Writer, resp budget.TaskAnalysisResponse) {
	headerColor.Fprintf(w, "%s\n\n", resp.MainTask)
	for i, a := range resp.Assignments {
		successColor.Fprintf(w, "%d. %s", i+1, a.Subtask)
		infoColor.Fprintf(w, "  [%s]\n", a.Department)
		if a.Instructions != "" {
			fmt.Fprintf(w, "   %s\n", a.Instructions)
		}
		fmt.Fprintf(w, "   time: %s  budget: %.2f %s\n", a.EstimatedTime, a.EstimatedBudget.Amount, a.EstimatedBudget.Currency)
		for _, k := range (budget.Breakdown{Categories: a.EstimatedBudget.Breakdown}).Keys() {
			fmt.Fprintf(w, "     - %s: %.2f\n", k, a.EstimatedBudget.Breakdown[k])
		}
	}
	fmt.Fprintln(w)
	headerColor.Fprintf(w, "Total: %.2f %s\n", resp.TotalBudget.Amount, resp.Currency)
	bd := resp.TotalBudget.Breakdown
	if bd.IsDerived() {
		warningColor.Fprintf(w, "  %s\n", bd.Derived)
		return
	}
	for _, k := range bd.Keys() {
		fmt.Fprintf(w, "  - %s: %.2f\n", k, bd.Categories[k])
	}
}

func printPosters(w io.Writer, resp poster.PosterResponse) {
	headerColor.Fprintln(w, "Prompt")
	fmt.Fprintln(w, resp.EnhancedPrompt)
	fmt.Fprintln(w)
	for i, v := range resp.Variations {
		successColor.Fprintf(w, "%d. %s", i+1, v.URL)
		infoColor.Fprintf(w, "  %dx%d %s\n", v.Width, v.Height, v.Format)
	}
	for _, f := range resp.Failures {
		warningColor.Fprintf(w, "variation %d (seed %d) failed at %s: %s\n", f.Index, f.Seed, f.Stage, f.Error)
	}
}

func printRuns(w io.Writer, runs []store.Run) {
	for _, r := range runs {
		c := successColor
		if r.Status != store.StatusOK {
			c = errorColor
		}
		c.Fprintf(w, "%-5s", r.Status)
		fmt.Fprintf(w, " %s %-8s %-6s %6dms %s\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"), r.Kind, r.LLM, r.Latency.Milliseconds(), r.ErrorKind)
	}
}

func printError(err error) {
	if kind := apperr.KindOf(err); kind != "" {
		errorColor.Fprintf(os.Stderr, "error (%s): %v\n", kind, err)
	} else {
		errorColor.Fprintf(os.Stderr, "error: %v\n", err)
	}
	if d := apperr.DetailsOf(err); d != nil {
		if raw, ok := d["raw_response"].(string); ok {
			warningColor.Fprintf(os.Stderr, "model reply:\n%s\n", raw)
		}
	}
}
