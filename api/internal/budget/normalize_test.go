package budget

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/api/internal/apperr"
)

func decode(t *testing.T, s string) RawAnalysis {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &m))
	return RawAnalysis(m)
}

func TestNormalize_ClampsNonPositiveAmounts(t *testing.T) {
	raw := decode(t, `{
		"main_task": "Launch",
		"currency": "INR",
		"assignments": [
			{"subtask": "Ads", "department": "Marketing", "instructions": "Run ads",
			 "estimated_time": "2 days", "estimated_budget": {"amount": -5, "breakdown": {"ads": -5}}},
			{"subtask": "Copy", "department": "Marketing", "instructions": "Write",
			 "estimated_time": "1 day", "estimated_budget": {"amount": 0, "breakdown": {}}}
		],
		"total_budget": {"amount": 10, "breakdown": {"ads": 10}}
	}`)

	out, err := Normalize(raw, DefaultMinAmount)
	require.NoError(t, err)

	list := out["assignments"].([]any)
	first := list[0].(map[string]any)["estimated_budget"].(map[string]any)
	second := list[1].(map[string]any)["estimated_budget"].(map[string]any)
	assert.Equal(t, 1.0, first["amount"])
	assert.Equal(t, 1.0, second["amount"])
	// Category values and the explicit total are left alone.
	assert.Equal(t, float64(-5), first["breakdown"].(map[string]any)["ads"])
	assert.Equal(t, float64(10), out["total_budget"].(map[string]any)["amount"])
	assert.Equal(t, "Run ads", list[0].(map[string]any)["instructions"])
}

func TestNormalize_DerivesMissingTotal(t *testing.T) {
	raw := decode(t, `{
		"assignments": [
			{"estimated_budget": {"amount": 100}},
			{"estimated_budget": {"amount": 250}}
		]
	}`)

	out, err := Normalize(raw, DefaultMinAmount)
	require.NoError(t, err)
	total := out["total_budget"].(map[string]any)
	assert.Equal(t, 350.0, total["amount"])
	assert.Equal(t, DerivedBreakdown, total["breakdown"])
}

func TestNormalize_NullTotalIsDerivedAfterClamp(t *testing.T) {
	raw := decode(t, `{
		"assignments": [
			{"estimated_budget": {"amount": 0}},
			{"estimated_budget": {"amount": "20.5"}}
		],
		"total_budget": null
	}`)

	out, err := Normalize(raw, 2)
	require.NoError(t, err)
	assert.Equal(t, 22.5, out["total_budget"].(map[string]any)["amount"])
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	raw := decode(t, `{"assignments": [{"estimated_budget": {"amount": -1}}]}`)

	_, err := Normalize(raw, DefaultMinAmount)
	require.NoError(t, err)
	_, hasTotal := raw["total_budget"]
	assert.False(t, hasTotal)
	est := raw["assignments"].([]any)[0].(map[string]any)["estimated_budget"].(map[string]any)
	assert.Equal(t, float64(-1), est["amount"])
}

func TestNormalize_EmptyAssignmentsDeriveZeroTotal(t *testing.T) {
	out, err := Normalize(decode(t, `{"assignments": []}`), DefaultMinAmount)
	require.NoError(t, err)
	assert.Equal(t, 0.0, out["total_budget"].(map[string]any)["amount"])
}

func TestNormalize_ShapeErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		msg  string
	}{
		{"missing assignments", `{"main_task": "x"}`, "assignments is missing"},
		{"assignments not array", `{"assignments": {"a": 1}}`, "must be an array, got object"},
		{"item not object", `{"assignments": ["oops"]}`, "assignments[0] must be an object"},
		{"amount missing for derivation", `{"assignments": [{"subtask": "x"}]}`, "cannot derive total_budget"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(decode(t, tt.in), DefaultMinAmount)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.Validation)
			assert.ErrorContains(t, err, tt.msg)
		})
	}
}
