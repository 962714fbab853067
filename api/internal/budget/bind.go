package budget

import (
	"math"
	"strconv"
	"strings"

	"taskboard/api/internal/apperr"
)

const bindOp = "bind"

// Bind converts a normalized reply into the strict response contract. Every
// amount must be > 0 after rounding to 2 decimals; any missing or mistyped
// required field fails the whole reply with KindSchema.
func Bind(raw RawAnalysis) (TaskAnalysisResponse, error) {
	var resp TaskAnalysisResponse
	var err error

	if resp.MainTask, err = requireString(raw, "main_task", "main_task"); err != nil {
		return TaskAnalysisResponse{}, err
	}
	if resp.Currency, err = requireString(raw, "currency", "currency"); err != nil {
		return TaskAnalysisResponse{}, err
	}

	list, ok := raw["assignments"].([]any)
	if !ok {
		return TaskAnalysisResponse{}, schemaErr("assignments", "must be an array")
	}
	resp.Assignments = make([]SubtaskAssignment, 0, len(list))
	for i, item := range list {
		a, err := bindAssignment(item, resp.Currency, i)
		if err != nil {
			return TaskAnalysisResponse{}, err
		}
		resp.Assignments = append(resp.Assignments, a)
	}

	total, ok := raw["total_budget"].(map[string]any)
	if !ok {
		return TaskAnalysisResponse{}, schemaErr("total_budget", "is required and must be an object")
	}
	switch b := total["breakdown"].(type) {
	case string:
		if b != DerivedBreakdown {
			return TaskAnalysisResponse{}, schemaErr("total_budget.breakdown", "must be an object or "+strconv.Quote(DerivedBreakdown))
		}
		resp.TotalBudget.Breakdown = Breakdown{Derived: b}
	case map[string]any:
		cats, err := bindCategories(b, "total_budget.breakdown")
		if err != nil {
			return TaskAnalysisResponse{}, err
		}
		resp.TotalBudget.Breakdown = Breakdown{Categories: cats}
	default:
		return TaskAnalysisResponse{}, schemaErr("total_budget.breakdown", "must be an object or "+strconv.Quote(DerivedBreakdown))
	}

	// A derived total is the sum of the subtask amounts as returned, so it is
	// recomputed from the rounded values.
	if resp.TotalBudget.Breakdown.IsDerived() {
		var sum float64
		for _, a := range resp.Assignments {
			sum += a.EstimatedBudget.Amount
		}
		resp.TotalBudget.Amount = round2(sum)
		if resp.TotalBudget.Amount <= 0 {
			return TaskAnalysisResponse{}, schemaErr("total_budget.amount", "must be greater than 0")
		}
	} else if resp.TotalBudget.Amount, err = requireAmount(total, "total_budget.amount"); err != nil {
		return TaskAnalysisResponse{}, err
	}

	return resp, nil
}

func bindAssignment(item any, currency string, i int) (SubtaskAssignment, error) {
	path := "assignments[" + strconv.Itoa(i) + "]"
	a, ok := item.(map[string]any)
	if !ok {
		return SubtaskAssignment{}, schemaErr(path, "must be an object")
	}
	var out SubtaskAssignment
	var err error
	if out.Subtask, err = requireString(a, "subtask", path+".subtask"); err != nil {
		return SubtaskAssignment{}, err
	}
	if out.Department, err = requireString(a, "department", path+".department"); err != nil {
		return SubtaskAssignment{}, err
	}
	if out.Instructions, err = requireString(a, "instructions", path+".instructions"); err != nil {
		return SubtaskAssignment{}, err
	}
	// Models often answer "estimated_time": 3 meaning days or hours.
	if n, ok := number(a["estimated_time"]); ok && !isString(a["estimated_time"]) {
		out.EstimatedTime = strconv.FormatFloat(n, 'f', -1, 64)
	} else if out.EstimatedTime, err = requireString(a, "estimated_time", path+".estimated_time"); err != nil {
		return SubtaskAssignment{}, err
	}

	est, ok := a["estimated_budget"].(map[string]any)
	if !ok {
		return SubtaskAssignment{}, schemaErr(path+".estimated_budget", "is required and must be an object")
	}
	if out.EstimatedBudget.Amount, err = requireAmount(est, path+".estimated_budget.amount"); err != nil {
		return SubtaskAssignment{}, err
	}
	bd, ok := est["breakdown"].(map[string]any)
	if !ok {
		return SubtaskAssignment{}, schemaErr(path+".estimated_budget.breakdown", "is required and must be an object")
	}
	if out.EstimatedBudget.Breakdown, err = bindCategories(bd, path+".estimated_budget.breakdown"); err != nil {
		return SubtaskAssignment{}, err
	}
	out.EstimatedBudget.Currency = currency
	if c, ok := est["currency"].(string); ok && strings.TrimSpace(c) != "" {
		out.EstimatedBudget.Currency = c
	}
	return out, nil
}

func bindCategories(m map[string]any, path string) (map[string]float64, error) {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		f, ok := number(v)
		if !ok {
			return nil, schemaErr(path+"."+k, "must be a number")
		}
		out[k] = round2(f)
	}
	return out, nil
}

func requireString(m map[string]any, key, path string) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", schemaErr(path, "is required")
	}
	s, ok := v.(string)
	if !ok {
		return "", schemaErr(path, "must be a string")
	}
	return s, nil
}

func requireAmount(m map[string]any, path string) (float64, error) {
	v, present := m["amount"]
	if !present || v == nil {
		return 0, schemaErr(path, "is required")
	}
	f, ok := number(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, schemaErr(path, "must be a number")
	}
	f = round2(f)
	if f <= 0 {
		return 0, schemaErr(path, "must be greater than 0")
	}
	return f, nil
}

func schemaErr(path, msg string) error {
	return apperr.Newf(apperr.KindSchema, bindOp, "%s %s", path, msg).WithDetail("field", path)
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}
