package gemini

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"taskboard/api/internal/apperr"
	"taskboard/api/internal/llm"
)

// Engine talks to the Gemini API through one long-lived client.
type Engine struct {
	Model  string
	client *genai.Client
	logger *slog.Logger
}

func New(ctx context.Context, apiKey, model string, logger *slog.Logger) (*Engine, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, apperr.Newf(apperr.KindConfiguration, "gemini", "GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, apperr.New(apperr.KindConfiguration, "gemini", err)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		Model:  strings.TrimSpace(model),
		client: cl,
		logger: logger,
	}, nil
}

func (e *Engine) Name() string     { return "gemini" }
func (e *Engine) GetModel() string { return e.Model }

func (e *Engine) Close() error { return e.client.Close() }

func (e *Engine) Generate(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	m := e.client.GenerativeModel(e.Model)
	if m == nil {
		return "", apperr.Newf(apperr.KindUpstream, "gemini", "model is nil")
	}
	applyOptions(m, opts)

	start := time.Now()
	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		e.logger.Error("gemini call failed", "model", e.Model, "elapsed", time.Since(start), "error", err)
		return "", apperr.New(apperr.KindUpstream, "gemini", err)
	}
	txt := firstText(resp)
	e.logger.Debug("gemini reply",
		"model", e.Model,
		"elapsed", time.Since(start),
		"prompt_len", len(prompt),
		"reply_len", len(txt),
	)
	if strings.TrimSpace(txt) == "" {
		return "", apperr.New(apperr.KindUpstream, "gemini", errors.New("empty response"))
	}
	return txt, nil
}

// applyOptions copies the call-site decoding options onto the model. Unset
// options keep the provider defaults.
func applyOptions(m *genai.GenerativeModel, opts llm.Options) {
	if opts.Temperature != nil {
		m.SetTemperature(*opts.Temperature)
	}
	if opts.MaxOutputTokens > 0 {
		m.SetMaxOutputTokens(opts.MaxOutputTokens)
	}
}

// firstText joins the text parts of the first candidate that has content.
func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		var b strings.Builder
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return ""
}

var _ llm.Engine = (*Engine)(nil)
