package handle

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"taskboard/api/internal/budget"
	"taskboard/api/internal/poster"
)

const maxBodyBytes = 1 << 20

type Analyzer interface {
	Analyze(ctx context.Context, req budget.TaskAnalysisRequest) (budget.TaskAnalysisResponse, error)
}

type PosterGenerator interface {
	Generate(ctx context.Context, req poster.PosterRequest) (poster.PosterResponse, error)
}

type Options struct {
	AnalyzeTimeout time.Duration
	PosterTimeout  time.Duration
	Logger         *slog.Logger
}

type Handle struct {
	analyzer Analyzer
	posters  PosterGenerator
	opts     Options
	logger   *slog.Logger
}

func New(analyzer Analyzer, posters PosterGenerator, opts Options) *Handle {
	if opts.AnalyzeTimeout <= 0 {
		opts.AnalyzeTimeout = 70 * time.Second
	}
	if opts.PosterTimeout <= 0 {
		opts.PosterTimeout = 180 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handle{analyzer: analyzer, posters: posters, opts: opts, logger: logger}
}

// Routes registers the API on a fresh mux wrapped in the request middleware.
func (h *Handle) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/analyze-task", h.AnalyzeTask)
	mux.HandleFunc("/generate-posters", h.GeneratePosters)
	mux.HandleFunc("GET /schemas/{name}", h.Schema)
	return h.middleware(mux)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

// deadline lets callers shorten or extend the default via the
// X-Request-Timeout header or the timeoutSec query parameter (seconds).
func deadline(r *http.Request, def time.Duration) time.Duration {
	ts := r.Header.Get("X-Request-Timeout")
	if ts == "" {
		ts = r.URL.Query().Get("timeoutSec")
	}
	if v, _ := strconv.Atoi(ts); v > 0 {
		return time.Duration(v) * time.Second
	}
	return def
}
