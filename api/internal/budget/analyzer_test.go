package budget

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/api/internal/apperr"
	"taskboard/api/internal/extract"
	"taskboard/api/internal/llm"
	"taskboard/api/internal/store"
)

type fakeEngine struct {
	reply string
	err   error

	mu      sync.Mutex
	prompts []string
	opts    []llm.Options
}

func (f *fakeEngine) Name() string     { return "gemini" }
func (f *fakeEngine) GetModel() string { return "fake-model" }
func (f *fakeEngine) Generate(_ context.Context, prompt string, opts llm.Options) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	f.opts = append(f.opts, opts)
	return f.reply, f.err
}

type memJournal struct {
	mu   sync.Mutex
	runs []store.Run
}

func (m *memJournal) Record(_ context.Context, r store.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, r)
	return nil
}

func newAnalyzer(eng llm.Engine) (*Analyzer, *memJournal) {
	j := &memJournal{}
	return &Analyzer{
		Engines:         &llm.Engines{Gemini: eng, Default: "gemini"},
		MinAmount:       DefaultMinAmount,
		DefaultCurrency: "INR",
		Extraction:      extract.ModeBalanced,
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		Journal:         j,
	}, j
}

func TestAnalyze_HappyPath(t *testing.T) {
	eng := &fakeEngine{reply: "Sure! Here is the plan:\n```json\n" + validReply + "\n```"}
	a, j := newAnalyzer(eng)

	resp, err := a.Analyze(context.Background(), TaskAnalysisRequest{
		Task:        "Launch the spring campaign",
		Departments: []string{"Design", "Marketing"},
		Currency:    "usd",
	})
	require.NoError(t, err)
	assert.Equal(t, 420.46, resp.TotalBudget.Amount)

	require.Len(t, eng.prompts, 1)
	assert.Contains(t, eng.prompts[0], "Estimate costs in USD")
	require.NotNil(t, eng.opts[0].Temperature)
	assert.InDelta(t, 0.2, *eng.opts[0].Temperature, 1e-6)
	assert.EqualValues(t, 2500, eng.opts[0].MaxOutputTokens)

	require.Len(t, j.runs, 1)
	assert.Equal(t, store.StatusOK, j.runs[0].Status)
	assert.Equal(t, "gemini", j.runs[0].LLM)
}

func TestAnalyze_DefaultCurrency(t *testing.T) {
	eng := &fakeEngine{reply: validReply}
	a, _ := newAnalyzer(eng)

	_, err := a.Analyze(context.Background(), TaskAnalysisRequest{Task: "x", Departments: []string{"Ops"}})
	require.NoError(t, err)
	assert.Contains(t, eng.prompts[0], "Estimate costs in INR")
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name     string
		engine   *fakeEngine
		req      TaskAnalysisRequest
		kind     apperr.Kind
		noCall   bool
		hasRawOn bool
	}{
		{
			name:   "empty departments",
			engine: &fakeEngine{reply: validReply},
			req:    TaskAnalysisRequest{Task: "x"},
			kind:   apperr.KindBadRequest,
			noCall: true,
		},
		{
			name:   "blank task",
			engine: &fakeEngine{reply: validReply},
			req:    TaskAnalysisRequest{Task: "   ", Departments: []string{"Ops"}},
			kind:   apperr.KindBadRequest,
			noCall: true,
		},
		{
			name:   "unconfigured engine",
			engine: &fakeEngine{reply: validReply},
			req:    TaskAnalysisRequest{Task: "x", Departments: []string{"Ops"}, LLMName: "gpt"},
			kind:   apperr.KindBadRequest,
			noCall: true,
		},
		{
			name:   "upstream failure",
			engine: &fakeEngine{err: apperr.New(apperr.KindUpstream, "gemini.generate", errors.New("503"))},
			req:    TaskAnalysisRequest{Task: "x", Departments: []string{"Ops"}},
			kind:   apperr.KindUpstream,
		},
		{
			name:     "no json in reply",
			engine:   &fakeEngine{reply: "Sorry"},
			req:      TaskAnalysisRequest{Task: "x", Departments: []string{"Ops"}},
			kind:     apperr.KindExtraction,
			hasRawOn: true,
		},
		{
			name:     "assignments missing",
			engine:   &fakeEngine{reply: `{"main_task": "x", "currency": "INR"}`},
			req:      TaskAnalysisRequest{Task: "x", Departments: []string{"Ops"}},
			kind:     apperr.KindValidation,
			hasRawOn: true,
		},
		{
			name:     "schema violation",
			engine:   &fakeEngine{reply: `{"currency": "INR", "assignments": []}`},
			req:      TaskAnalysisRequest{Task: "x", Departments: []string{"Ops"}},
			kind:     apperr.KindSchema,
			hasRawOn: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, j := newAnalyzer(tt.engine)
			_, err := a.Analyze(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
			if tt.noCall {
				assert.Empty(t, tt.engine.prompts)
			}
			if tt.hasRawOn {
				assert.NotEmpty(t, apperr.DetailsOf(err)["raw_response"])
			}
			require.Len(t, j.runs, 1)
			assert.Equal(t, store.StatusError, j.runs[0].Status)
			assert.Equal(t, string(tt.kind), j.runs[0].ErrorKind)
		})
	}
}

// Whatever the model answers, a successful response has every amount > 0 and
// a total equal to either the model's value or the sum of the subtasks.
func TestAnalyze_AmountsArePositive(t *testing.T) {
	replies := []string{
		`{"main_task": "t", "currency": "INR", "assignments": [
			{"subtask": "a", "department": "Ops", "instructions": "i", "estimated_time": "1d",
			 "estimated_budget": {"amount": -40, "breakdown": {"x": 1}}},
			{"subtask": "b", "department": "Ops", "instructions": "i", "estimated_time": "1d",
			 "estimated_budget": {"amount": 10, "breakdown": {"x": 10}}}]}`,
		`{"main_task": "t", "currency": "INR", "assignments": [
			{"subtask": "a", "department": "Ops", "instructions": "i", "estimated_time": "1d",
			 "estimated_budget": {"amount": 0, "breakdown": {}}}],
		  "total_budget": {"amount": 99, "breakdown": {"Ops": 99}}}`,
	}
	wantTotals := []float64{11, 99}

	for i, reply := range replies {
		a, _ := newAnalyzer(&fakeEngine{reply: reply})
		resp, err := a.Analyze(context.Background(), TaskAnalysisRequest{Task: "t", Departments: []string{"Ops"}})
		require.NoError(t, err)
		for _, as := range resp.Assignments {
			assert.Greater(t, as.EstimatedBudget.Amount, 0.0)
		}
		assert.Equal(t, wantTotals[i], resp.TotalBudget.Amount)
	}
}
