package telegram

import (
	"errors"
	"fmt"
	"strings"

	"taskboard/api/internal/budget"
)

// ParseAnalyzeArgs reads "<task> | dept1, dept2 [| CUR]".
func ParseAnalyzeArgs(args string) (budget.TaskAnalysisRequest, error) {
	parts := strings.Split(args, "|")
	if len(parts) < 2 || len(parts) > 3 {
		return budget.TaskAnalysisRequest{}, errors.New("expected <task> | <departments> [| <currency>]")
	}
	req := budget.TaskAnalysisRequest{Task: strings.TrimSpace(parts[0])}
	if req.Task == "" {
		return budget.TaskAnalysisRequest{}, errors.New("task is empty")
	}
	for _, d := range strings.Split(parts[1], ",") {
		if d = strings.TrimSpace(d); d != "" {
			req.Departments = append(req.Departments, d)
		}
	}
	if len(req.Departments) == 0 {
		return budget.TaskAnalysisRequest{}, errors.New("at least one department is required")
	}
	if len(parts) == 3 {
		req.Currency = strings.ToUpper(strings.TrimSpace(parts[2]))
	}
	return req, nil
}

// FormatAnalysis renders a response as a plain-text chat message.
func FormatAnalysis(resp budget.TaskAnalysisResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 %s\n\n", resp.MainTask)
	for i, a := range resp.Assignments {
		fmt.Fprintf(&b, "%d) %s [%s]\n", i+1, a.Subtask, a.Department)
		if a.Instructions != "" {
			fmt.Fprintf(&b, "   %s\n", a.Instructions)
		}
		fmt.Fprintf(&b, "   ⏱ %s · 💰 %s %s\n", a.EstimatedTime, money(a.EstimatedBudget.Amount), a.EstimatedBudget.Currency)
	}
	fmt.Fprintf(&b, "\nTotal: %s %s", money(resp.TotalBudget.Amount), resp.Currency)
	bd := resp.TotalBudget.Breakdown
	if bd.IsDerived() {
		fmt.Fprintf(&b, " (%s)", bd.Derived)
		return b.String()
	}
	for _, k := range bd.Keys() {
		fmt.Fprintf(&b, "\n  • %s: %s", k, money(bd.Categories[k]))
	}
	return b.String()
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
