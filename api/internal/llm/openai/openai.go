package openai

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	oai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"taskboard/api/internal/apperr"
	"taskboard/api/internal/llm"
)

// Engine is the chat-completions alternative to Gemini, picked with llm_name=gpt.
type Engine struct {
	Model  string
	client oai.Client
	logger *slog.Logger
}

func New(apiKey, model string, logger *slog.Logger, opts ...option.RequestOption) (*Engine, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, apperr.Newf(apperr.KindConfiguration, "openai", "OPENAI_API_KEY is empty")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}, opts...)
	return &Engine{
		Model:  strings.TrimSpace(model),
		client: oai.NewClient(opts...),
		logger: logger,
	}, nil
}

func (e *Engine) Name() string     { return "gpt" }
func (e *Engine) GetModel() string { return e.Model }

func (e *Engine) Generate(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	params := oai.ChatCompletionNewParams{
		Model: oai.ChatModel(e.Model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.UserMessage(prompt),
		},
	}
	if opts.Temperature != nil {
		params.Temperature = oai.Float(float64(*opts.Temperature))
	}
	if opts.MaxOutputTokens > 0 {
		params.MaxCompletionTokens = oai.Int(int64(opts.MaxOutputTokens))
	}

	start := time.Now()
	resp, err := e.client.Chat.Completions.New(ctx, params)
	if err != nil {
		e.logger.Error("openai call failed", "model", e.Model, "elapsed", time.Since(start), "error", err)
		return "", apperr.New(apperr.KindUpstream, "openai", err)
	}
	if len(resp.Choices) == 0 {
		return "", apperr.New(apperr.KindUpstream, "openai", errors.New("no choices in response"))
	}
	txt := resp.Choices[0].Message.Content
	e.logger.Debug("openai reply", "model", e.Model, "elapsed", time.Since(start), "reply_len", len(txt))
	if strings.TrimSpace(txt) == "" {
		return "", apperr.New(apperr.KindUpstream, "openai", errors.New("empty response"))
	}
	return txt, nil
}

var _ llm.Engine = (*Engine)(nil)
