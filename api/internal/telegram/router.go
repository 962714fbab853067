package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"taskboard/api/internal/budget"
	"taskboard/api/internal/llm"
	"taskboard/api/internal/util"
)

const maxMessageRunes = 3900

const usage = `Send a task and I will split it across departments with a budget.

/analyze <task> | dept1, dept2 [| CUR]
  e.g. /analyze Organize college fest | logistics, finance, marketing | INR
/engine gemini|gpt - switch the model for this chat
/health - check the bot is alive`

// Sender is the part of *tgbotapi.BotAPI the router uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Analyzer interface {
	Analyze(ctx context.Context, req budget.TaskAnalysisRequest) (budget.TaskAnalysisResponse, error)
}

type Router struct {
	Bot        Sender
	Engines    *llm.Engines
	EngManager *llm.Manager
	Analyzer   Analyzer
	Timeout    time.Duration
	Logger     *slog.Logger
}

func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message == nil {
		return
	}
	cid := upd.Message.Chat.ID
	if !upd.Message.IsCommand() {
		if strings.TrimSpace(upd.Message.Text) != "" {
			r.send(cid, "Use /analyze <task> | dept1, dept2. See /help.")
		}
		return
	}

	switch upd.Message.Command() {
	case "start", "help":
		r.send(cid, usage)
	case "health":
		r.send(cid, "✅ OK")
	case "engine":
		r.handleEngine(cid, upd.Message.CommandArguments())
	case "analyze":
		r.handleAnalyze(ctx, cid, upd.Message.CommandArguments())
	default:
		r.send(cid, "Unknown command. See /help.")
	}
}

func (r *Router) handleEngine(cid int64, args string) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		r.send(cid, "Current engine: "+r.currentEngine(cid)+"\nUsage: /engine gemini|gpt")
		return
	}
	eng, err := r.Engines.GetEngine(fields[0])
	if err != nil {
		r.send(cid, "❌ "+err.Error())
		return
	}
	r.EngManager.Set(cid, eng)
	r.send(cid, fmt.Sprintf("✅ Engine: %s (%s)", eng.Name(), eng.GetModel()))
}

func (r *Router) currentEngine(cid int64) string {
	if r.EngManager == nil {
		return "default"
	}
	if eng := r.EngManager.Get(cid); eng != nil {
		return eng.Name()
	}
	return "default"
}

func (r *Router) handleAnalyze(ctx context.Context, cid int64, args string) {
	req, err := ParseAnalyzeArgs(args)
	if err != nil {
		r.send(cid, "❌ "+err.Error()+"\n\n"+usage)
		return
	}
	if name := r.currentEngine(cid); name != "default" {
		req.LLMName = name
	}

	r.send(cid, "⏳ Analyzing…")
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 70 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := r.Analyzer.Analyze(ctx, req)
	if err != nil {
		r.logger().WarnContext(ctx, "telegram analyze failed", "chat_id", cid, "err", err)
		r.send(cid, "❌ Analysis failed: "+err.Error())
		return
	}
	r.send(cid, FormatAnalysis(resp))
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, util.Truncate(text, maxMessageRunes, "…"))
	if _, err := r.Bot.Send(msg); err != nil {
		r.logger().Warn("telegram send failed", "chat_id", chatID, "err", err)
	}
}

func (r *Router) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
