package budget

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/invopop/jsonschema"
)

// DerivedBreakdown marks a total whose breakdown was synthesized from the
// subtask amounts instead of being supplied per category by the model.
const DerivedBreakdown = "Auto-calculated from subtasks"

type TaskAnalysisRequest struct {
	Task        string   `json:"task" validate:"required"`
	Departments []string `json:"departments" validate:"required,min=1,dive,required"`
	Currency    string   `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	LLMName     string   `json:"llm_name,omitempty"`
}

type BudgetEstimate struct {
	Amount    float64            `json:"amount" jsonschema:"exclusiveMinimum=0"`
	Breakdown map[string]float64 `json:"breakdown"`
	Currency  string             `json:"currency"`
}

type SubtaskAssignment struct {
	Subtask         string         `json:"subtask"`
	Department      string         `json:"department"`
	Instructions    string         `json:"instructions"`
	EstimatedTime   string         `json:"estimated_time"`
	EstimatedBudget BudgetEstimate `json:"estimated_budget"`
}

type TotalBudget struct {
	Amount    float64   `json:"amount" jsonschema:"exclusiveMinimum=0"`
	Breakdown Breakdown `json:"breakdown"`
}

type TaskAnalysisResponse struct {
	MainTask    string              `json:"main_task"`
	Currency    string              `json:"currency"`
	Assignments []SubtaskAssignment `json:"assignments"`
	TotalBudget TotalBudget         `json:"total_budget"`
}

// Breakdown is either a category -> amount mapping or, when the total was
// derived, the DerivedBreakdown marker. On the wire it is an object or a string.
type Breakdown struct {
	Categories map[string]float64
	Derived    string
}

func (b Breakdown) IsDerived() bool { return b.Derived == DerivedBreakdown }

func (b Breakdown) MarshalJSON() ([]byte, error) {
	if b.IsDerived() {
		return json.Marshal(b.Derived)
	}
	if b.Categories == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(b.Categories)
}

func (b *Breakdown) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != DerivedBreakdown {
			return fmt.Errorf("breakdown: unexpected string %q", s)
		}
		*b = Breakdown{Derived: s}
		return nil
	}
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("breakdown: want object or string: %w", err)
	}
	*b = Breakdown{Categories: m}
	return nil
}

// Keys returns the category labels in a stable order.
func (b Breakdown) Keys() []string {
	keys := make([]string, 0, len(b.Categories))
	for k := range b.Categories {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (Breakdown) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Description: "category amounts, or a marker string when derived from subtasks",
		OneOf: []*jsonschema.Schema{
			{Type: "object", AdditionalProperties: &jsonschema.Schema{Type: "number"}},
			{Type: "string"},
		},
	}
}

// RawAnalysis is the untrusted, loosely typed model reply as extracted from
// text. Normalize and Bind turn it into a TaskAnalysisResponse.
type RawAnalysis map[string]any
