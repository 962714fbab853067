package budget

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"taskboard/api/internal/apperr"
	"taskboard/api/internal/extract"
	"taskboard/api/internal/llm"
	"taskboard/api/internal/store"
	"taskboard/api/internal/util"
	"taskboard/api/internal/validation"
)

const (
	analyzeOp = "analyze"

	temperature     = 0.2
	maxOutputTokens = 2500
	rawDetailLimit  = 2000
)

// Analyzer turns a task description into a TaskAnalysisResponse with one
// model call. It holds no per-request state and is safe for concurrent use.
type Analyzer struct {
	Engines         *llm.Engines
	MinAmount       float64
	DefaultCurrency string
	Extraction      extract.Mode
	Logger          *slog.Logger
	Journal         store.Recorder // optional
}

func (a *Analyzer) Analyze(ctx context.Context, req TaskAnalysisRequest) (resp TaskAnalysisResponse, err error) {
	start := time.Now()
	engineName := ""
	defer func() { a.record(ctx, engineName, start, err) }()

	if err := validation.Struct(analyzeOp, req); err != nil {
		return TaskAnalysisResponse{}, err
	}
	task := strings.TrimSpace(req.Task)
	if task == "" {
		return TaskAnalysisResponse{}, apperr.Newf(apperr.KindBadRequest, analyzeOp, "task must not be blank").
			WithDetail("fields", []string{"task"})
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = a.DefaultCurrency
	}
	if currency == "" {
		currency = "INR"
	}

	if a.Engines == nil {
		return TaskAnalysisResponse{}, apperr.Newf(apperr.KindConfiguration, analyzeOp, "no llm engines configured")
	}
	eng, err := a.Engines.GetEngine(req.LLMName)
	if err != nil {
		return TaskAnalysisResponse{}, apperr.New(apperr.KindBadRequest, analyzeOp, err).
			WithDetail("fields", []string{"llm_name"})
	}
	engineName = eng.Name()

	prompt := BuildPrompt(task, req.Departments, currency)
	text, err := eng.Generate(ctx, prompt, llm.Options{
		Temperature:     llm.Float32(temperature),
		MaxOutputTokens: maxOutputTokens,
	})
	if err != nil {
		return TaskAnalysisResponse{}, err
	}

	raw, err := extract.Object(text, a.Extraction)
	if err != nil {
		return TaskAnalysisResponse{}, withRaw(err, text)
	}
	minAmount := a.MinAmount
	if minAmount <= 0 {
		minAmount = DefaultMinAmount
	}
	norm, err := Normalize(raw, minAmount)
	if err != nil {
		return TaskAnalysisResponse{}, withRaw(err, text)
	}
	resp, err = Bind(norm)
	if err != nil {
		return TaskAnalysisResponse{}, withRaw(err, text)
	}

	a.logger().InfoContext(ctx, "task analyzed",
		"llm", engineName,
		"model", eng.GetModel(),
		"assignments", len(resp.Assignments),
		"total", resp.TotalBudget.Amount,
		"derived_total", resp.TotalBudget.Breakdown.IsDerived(),
	)
	return resp, nil
}

// withRaw attaches a truncated copy of the model reply for diagnostics.
func withRaw(err error, text string) error {
	var e *apperr.Error
	if errors.As(err, &e) {
		e.WithDetail("raw_response", util.Truncate(text, rawDetailLimit, "…"))
	}
	return err
}

func (a *Analyzer) record(ctx context.Context, engineName string, start time.Time, err error) {
	if a.Journal == nil {
		return
	}
	run := store.Run{
		Kind:    store.KindAnalysis,
		Status:  store.StatusOK,
		LLM:     engineName,
		Latency: time.Since(start),
	}
	if err != nil {
		run.Status = store.StatusError
		run.ErrorKind = string(apperr.KindOf(err))
	}
	// The journal must never change the outcome of a request.
	if jerr := a.Journal.Record(context.WithoutCancel(ctx), run); jerr != nil {
		a.logger().WarnContext(ctx, "journal record failed", "err", jerr)
	}
}

func (a *Analyzer) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}
