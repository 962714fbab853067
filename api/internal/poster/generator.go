// Package poster turns a design questionnaire into hosted poster images:
// basic prompt, model enhancement, image generation, upload.
package poster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"taskboard/api/internal/apperr"
	"taskboard/api/internal/imagegen"
	"taskboard/api/internal/llm"
	"taskboard/api/internal/media"
	"taskboard/api/internal/store"
)

// FailurePolicy decides what one failed variation does to the request.
type FailurePolicy string

const (
	// FailFast aborts the whole request on the first failed variation.
	FailFast FailurePolicy = "fail_fast"
	// BestEffort keeps the variations that succeeded and reports the rest.
	BestEffort FailurePolicy = "best_effort"
)

const (
	DefaultVariations = 3
	SeedBase          = 1000
	CfgBase           = 7
	ImageSize         = 1024
	Steps             = 30

	generateOp = "poster.generate"
)

type ImageGenerator interface {
	Generate(ctx context.Context, in imagegen.Request) (imagegen.Image, error)
}

type Uploader interface {
	Upload(ctx context.Context, data []byte) (media.Asset, error)
}

// Generator runs the poster pipeline. Steps within one request are strictly
// sequential; the Generator itself holds no per-request state.
type Generator struct {
	Engines    *llm.Engines // used for enhancement; may be nil
	Images     ImageGenerator
	Media      Uploader
	Variations int
	Policy     FailurePolicy
	Logger     *slog.Logger
	Journal    store.Recorder // optional
}

type rendered struct {
	index int
	seed  uint32
	image imagegen.Image
}

func (g *Generator) Generate(ctx context.Context, req PosterRequest) (resp PosterResponse, err error) {
	start := time.Now()
	engineName := ""
	defer func() { g.record(ctx, engineName, start, err) }()

	if err := req.Validate(); err != nil {
		return PosterResponse{}, err
	}
	if g.Images == nil || g.Media == nil {
		return PosterResponse{}, apperr.Newf(apperr.KindConfiguration, generateOp, "image generation or media upload is not configured")
	}

	enh := &Enhancer{Logger: g.Logger}
	if g.Engines != nil {
		eng, err := g.Engines.GetEngine(req.LLMName)
		switch {
		case err == nil:
			enh.Engine = eng
			engineName = eng.Name()
		case req.LLMName != "":
			return PosterResponse{}, apperr.New(apperr.KindBadRequest, generateOp, err).
				WithDetail("fields", []string{"llm_name"})
		}
	}

	resp.OriginalPrompt = BuildPrompt(req)
	var enhanced bool
	resp.EnhancedPrompt, enhanced = enh.Enhance(ctx, resp.OriginalPrompt)

	n := g.Variations
	if n <= 0 {
		n = DefaultVariations
	}
	bestEffort := g.Policy == BestEffort

	images := make([]rendered, 0, n)
	for i := 0; i < n; i++ {
		seed := uint32(SeedBase + i)
		img, err := g.Images.Generate(ctx, imagegen.Request{
			Prompt:   resp.EnhancedPrompt,
			CfgScale: float64(CfgBase + i),
			Seed:     seed,
			Width:    ImageSize,
			Height:   ImageSize,
			Steps:    Steps,
		})
		if err != nil {
			if !bestEffort {
				return PosterResponse{}, stageErr("generate", i, err)
			}
			resp.Failures = append(resp.Failures, Failure{Index: i, Seed: seed, Stage: "generate", Error: err.Error()})
			continue
		}
		images = append(images, rendered{index: i, seed: seed, image: img})
	}

	resp.Variations = make([]Variation, 0, len(images))
	for _, r := range images {
		asset, err := g.Media.Upload(ctx, r.image.Data)
		if err != nil {
			if !bestEffort {
				return PosterResponse{}, stageErr("upload", r.index, err)
			}
			resp.Failures = append(resp.Failures, Failure{Index: r.index, Seed: r.seed, Stage: "upload", Error: err.Error()})
			continue
		}
		if asset.Format == "" {
			asset.Format = r.image.Format
		}
		resp.Variations = append(resp.Variations, Variation(asset))
	}

	if len(resp.Variations) == 0 {
		return PosterResponse{}, apperr.Newf(apperr.KindUpstream, generateOp, "all %d variations failed", n).
			WithDetail("failures", resp.Failures)
	}

	g.logger().InfoContext(ctx, "posters generated",
		"llm", engineName,
		"enhanced", enhanced,
		"variations", len(resp.Variations),
		"failures", len(resp.Failures),
	)
	return resp, nil
}

func stageErr(stage string, index int, err error) error {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		err = apperr.New(apperr.KindUpstream, generateOp, err)
	}
	return fmt.Errorf("variation %d %s: %w", index, stage, err)
}

func (g *Generator) record(ctx context.Context, engineName string, start time.Time, err error) {
	if g.Journal == nil {
		return
	}
	run := store.Run{
		Kind:    store.KindPoster,
		Status:  store.StatusOK,
		LLM:     engineName,
		Latency: time.Since(start),
	}
	if err != nil {
		run.Status = store.StatusError
		run.ErrorKind = string(apperr.KindOf(err))
	}
	if jerr := g.Journal.Record(context.WithoutCancel(ctx), run); jerr != nil {
		g.logger().WarnContext(ctx, "journal record failed", "err", jerr)
	}
}

func (g *Generator) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}
