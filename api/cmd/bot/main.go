package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "go.uber.org/automaxprocs"

	"taskboard/api/internal/app"
	"taskboard/api/internal/config"
	"taskboard/api/internal/httpserver"
	"taskboard/api/internal/llm"
	"taskboard/api/internal/telegram"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	if err := run(logger); err != nil {
		logger.Error("bot stopped", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.RequireBot(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger, app.WithJournal())
	if err != nil {
		return err
	}
	defer a.Close()
	if a.Journal != nil {
		logger.Info("journal connected", "target", safeDSNSummary(cfg.DatabaseURL))
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	bot.Debug = false

	def, err := a.Engines.GetEngine("")
	if err != nil {
		return err
	}
	r := &telegram.Router{
		Bot:        bot,
		Engines:    a.Engines,
		EngManager: llm.NewManager(def),
		Analyzer:   a.Analyzer,
		Timeout:    cfg.Policy.AnalyzeTimeout(),
		Logger:     logger,
	}

	mux := http.NewServeMux()
	addr := "0.0.0.0:" + cfg.Port
	d := newDispatcher(maxInflightUpdates)
	defer d.Wait()

	if webhookURL := strings.TrimSpace(cfg.WebhookURL); webhookURL != "" {
		return runWebhook(ctx, addr, mux, bot, r, d, webhookURL, logger)
	}
	return runPollingMode(ctx, addr, mux, bot, r, d, logger)
}

const maxInflightUpdates = 16

// dispatcher runs updates concurrently, at most n at a time, so a slow
// analysis in one chat does not hold up the others.
type dispatcher struct {
	sem chan struct{}
	wg  sync.WaitGroup
}

func newDispatcher(n int) *dispatcher {
	if n <= 0 {
		n = 1
	}
	return &dispatcher{sem: make(chan struct{}, n)}
}

// Go blocks while n handlers are already running.
func (d *dispatcher) Go(fn func()) {
	d.sem <- struct{}{}
	d.wg.Add(1)
	go func() {
		defer func() {
			<-d.sem
			d.wg.Done()
		}()
		fn()
	}()
}

func (d *dispatcher) Wait() { d.wg.Wait() }

func runWebhook(ctx context.Context, addr string, mux *http.ServeMux, bot *tgbotapi.BotAPI, r *telegram.Router, d *dispatcher, baseURL string, logger *slog.Logger) error {
	path := "/webhook/" + shortHash(bot.Token)
	public := strings.TrimRight(baseURL, "/") + path

	wh, err := tgbotapi.NewWebhook(public)
	if err != nil {
		return err
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}

	updates := make(chan tgbotapi.Update, bot.Buffer)
	mux.HandleFunc(path, func(w http.ResponseWriter, req *http.Request) {
		upd, err := bot.HandleUpdate(req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		select {
		case updates <- *upd:
		case <-req.Context().Done():
		}
	})

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case upd := <-updates:
				d.Go(func() { r.HandleUpdate(ctx, upd) })
			}
		}
	}()

	logger.Info("webhook mode", "addr", addr, "path", path)
	return httpserver.Serve(ctx, httpserver.New(addr, mux, 0), 10*time.Second, logger)
}

func runPollingMode(ctx context.Context, addr string, mux *http.ServeMux, bot *tgbotapi.BotAPI, r *telegram.Router, d *dispatcher, logger *slog.Logger) error {
	// Some hosts require an open port even for polling bots.
	go func() {
		if err := httpserver.Serve(ctx, httpserver.New(addr, mux, 0), 5*time.Second, logger); err != nil {
			logger.Error("health server", "err", err)
		}
	}()

	logger.Info("polling mode")
	runPolling(ctx, bot, logger, func(upd tgbotapi.Update) {
		d.Go(func() { r.HandleUpdate(ctx, upd) })
	})
	return nil
}

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

func retryDelayFromError(err error) time.Duration {
	if err == nil {
		return 0
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") {
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return 2 * time.Second
	}
	return time.Second
}

func runPolling(ctx context.Context, bot *tgbotapi.BotAPI, logger *slog.Logger, handle func(tgbotapi.Update)) {
	offset := 0
	baseDelay := time.Second
	maxDelay := 15 * time.Second

	for {
		select {
		case <-ctx.Done():
			logger.Info("polling: context cancelled")
			return
		default:
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = 30

		updates, err := bot.GetUpdates(u)
		if err != nil {
			d := min(max(retryDelayFromError(err), baseDelay), maxDelay)
			logger.Warn("polling error", "err", err, "retry_in", d)
			sleep(ctx, d)
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			handle(upd)
		}
		if len(updates) == 0 {
			sleep(ctx, 200*time.Millisecond)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// shortHash is a stable FNV-1a of the token used as the webhook path.
func shortHash(s string) string {
	h := uint64(1469598103934665603)
	const prime = 1099511628211
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime
	}
	const hexdigits = "0123456789abcdef"
	out := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		out[i] = hexdigits[h&0xF]
		h >>= 4
	}
	return string(out)
}

func safeDSNSummary(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return "local file"
	}
	user := u.User.Username()
	host := u.Host
	port := ""
	if h, p, err := net.SplitHostPort(u.Host); err == nil {
		host, port = h, p
	}
	db := strings.TrimPrefix(u.Path, "/")
	if port == "" {
		return fmt.Sprintf("host=%s db=%s user=%s", host, db, user)
	}
	return fmt.Sprintf("host=%s port=%s db=%s user=%s", host, port, db, user)
}
