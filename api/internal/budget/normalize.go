package budget

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"taskboard/api/internal/apperr"
)

// DefaultMinAmount replaces non-positive subtask amounts.
const DefaultMinAmount = 1.0

// Normalize repairs the known defects of a model reply without touching the
// input: subtask amounts <= 0 become minAmount, and a missing total_budget is
// derived from the post-clamp subtask amounts with a DerivedBreakdown marker.
// Shape problems that prevent normalization are KindValidation errors.
func Normalize(raw RawAnalysis, minAmount float64) (RawAnalysis, error) {
	const op = "normalize"
	if minAmount <= 0 {
		minAmount = DefaultMinAmount
	}
	out := clone(map[string]any(raw)).(map[string]any)

	list, ok := out["assignments"].([]any)
	if !ok {
		if _, present := out["assignments"]; !present {
			return nil, apperr.Newf(apperr.KindValidation, op, "assignments is missing")
		}
		return nil, apperr.Newf(apperr.KindValidation, op, "assignments must be an array, got %s", jsonType(out["assignments"]))
	}

	for i, item := range list {
		a, ok := item.(map[string]any)
		if !ok {
			return nil, apperr.Newf(apperr.KindValidation, op, "assignments[%d] must be an object, got %s", i, jsonType(item))
		}
		est, ok := a["estimated_budget"].(map[string]any)
		if !ok {
			continue
		}
		if v, ok := number(est["amount"]); ok && v <= 0 {
			est["amount"] = minAmount
		}
	}

	if total, present := out["total_budget"]; !present || total == nil {
		var sum float64
		for i, item := range list {
			est, _ := item.(map[string]any)["estimated_budget"].(map[string]any)
			v, ok := number(est["amount"])
			if !ok {
				return nil, apperr.Newf(apperr.KindValidation, op,
					"cannot derive total_budget: assignments[%d].estimated_budget.amount is missing or not a number", i)
			}
			sum += v
		}
		out["total_budget"] = map[string]any{
			"amount":    sum,
			"breakdown": DerivedBreakdown,
		}
	}

	return RawAnalysis(out), nil
}

// number reads a JSON number the way a lenient model client would: numbers,
// json.Number and numeric strings all count.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, x := range t {
			m[k] = clone(x)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, x := range t {
			s[i] = clone(x)
		}
		return s
	default:
		return v
	}
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, float32, int, int64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
