// Package imagegen calls the Stability AI text-to-image REST endpoint.
package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"taskboard/api/internal/apperr"
	"taskboard/api/internal/util"
)

const (
	DefaultBaseURL = "https://api.stability.ai"
	DefaultEngine  = "stable-diffusion-xl-1024-v1-0"

	op = "imagegen.generate"
)

// Request is one text-to-image call producing a single sample.
type Request struct {
	Prompt   string
	CfgScale float64
	Seed     uint32
	Width    int
	Height   int
	Steps    int
}

// Image is the raw encoded image returned by the service.
type Image struct {
	Data   []byte
	Format string // png, jpeg or webp
}

type Client struct {
	BaseURL string
	Engine  string
	APIKey  string

	httpc  *http.Client
	logger *slog.Logger
}

func New(apiKey, engine string, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, apperr.Newf(apperr.KindConfiguration, "imagegen.new", "STABILITY_API_KEY is empty")
	}
	if engine == "" {
		engine = DefaultEngine
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		BaseURL: DefaultBaseURL,
		Engine:  engine,
		APIKey:  apiKey,
		httpc:   &http.Client{Timeout: 120 * time.Second},
		logger:  logger,
	}, nil
}

type textPrompt struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

type body struct {
	TextPrompts []textPrompt `json:"text_prompts"`
	CfgScale    float64      `json:"cfg_scale"`
	Height      int          `json:"height"`
	Width       int          `json:"width"`
	Samples     int          `json:"samples"`
	Steps       int          `json:"steps"`
	Seed        uint32       `json:"seed"`
}

func (c *Client) Generate(ctx context.Context, in Request) (Image, error) {
	if in.Width == 0 {
		in.Width = 1024
	}
	if in.Height == 0 {
		in.Height = 1024
	}
	if in.Steps == 0 {
		in.Steps = 30
	}
	payload, err := json.Marshal(body{
		TextPrompts: []textPrompt{{Text: in.Prompt, Weight: 1}},
		CfgScale:    in.CfgScale,
		Height:      in.Height,
		Width:       in.Width,
		Samples:     1,
		Steps:       in.Steps,
		Seed:        in.Seed,
	})
	if err != nil {
		return Image{}, apperr.New(apperr.KindUpstream, op, err)
	}

	url := strings.TrimRight(c.BaseURL, "/") + "/v1/generation/" + c.Engine + "/text-to-image"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Image{}, apperr.New(apperr.KindUpstream, op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "image/png")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		return Image{}, apperr.New(apperr.KindUpstream, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Image{}, apperr.Newf(apperr.KindUpstream, op, "stability %d: %s", resp.StatusCode, strings.TrimSpace(string(x))).
			WithDetail("status", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Image{}, apperr.New(apperr.KindUpstream, op, fmt.Errorf("read body: %w", err))
	}
	format := util.SniffImageFormat(data)
	if format == "" {
		return Image{}, apperr.Newf(apperr.KindUpstream, op, "stability returned %d bytes that are not an image", len(data))
	}

	c.logger.DebugContext(ctx, "image generated",
		"engine", c.Engine, "seed", in.Seed, "cfg_scale", in.CfgScale,
		"bytes", len(data), "latency", time.Since(start))
	return Image{Data: data, Format: format}, nil
}
