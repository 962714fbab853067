package poster

import (
	"context"
	"log/slog"
	"strings"

	"taskboard/api/internal/llm"
	"taskboard/api/internal/util"
)

// MaxEnhancedRunes caps the prompt sent to image generation.
const MaxEnhancedRunes = 2000

const enhanceInstructions = `Improve this image generation prompt with:
1. More vivid visual details
2. Specific artistic style suggestions
3. Clear composition guidance
4. Ample space for text overlay
5. Keep under 2000 characters`

// BuildPrompt renders the questionnaire as the basic image prompt.
func BuildPrompt(r PosterRequest) string {
	var b strings.Builder
	b.WriteString("Design a vibrant poster with these characteristics:\n")
	b.WriteString("- Theme: " + r.Theme.Name + "\n")
	b.WriteString("- Description: " + r.Theme.Description + "\n")
	b.WriteString("- Style: " + r.Style + "\n")
	b.WriteString("- Colors: " + strings.Join(r.ColorPalette, ", ") + "\n")
	b.WriteString("- Elements: " + strings.Join(r.Elements, ", ") + "\n")
	b.WriteString("- Mood: " + r.Mood + "\n")
	b.WriteString("- Text Placement: " + r.TextPlacement)
	if r.Lighting != "" {
		b.WriteString("\n- Lighting: " + r.Lighting)
	}
	if r.Composition != "" {
		b.WriteString("\n- Composition: " + r.Composition)
	}
	if notes := strings.TrimSpace(r.AdditionalNotes); notes != "" {
		b.WriteString("\n\nAdditional Notes: " + notes)
	}
	return b.String()
}

// Enhancer asks a text model to enrich a basic prompt. Enhancement never
// fails: on any error or an empty reply the basic prompt is returned.
type Enhancer struct {
	Engine llm.Engine
	Logger *slog.Logger
}

// Enhance returns the prompt to use and whether the model's version was used.
func (e *Enhancer) Enhance(ctx context.Context, basic string) (string, bool) {
	if e == nil || e.Engine == nil {
		return basic, false
	}
	out, err := e.Engine.Generate(ctx, enhanceInstructions+"\n\nOriginal Prompt: "+basic, llm.Options{})
	if err != nil {
		e.logger().WarnContext(ctx, "prompt enhancement failed, using basic prompt", "llm", e.Engine.Name(), "err", err)
		return basic, false
	}
	out = strings.TrimSpace(out)
	if out == "" {
		e.logger().WarnContext(ctx, "prompt enhancement returned nothing, using basic prompt", "llm", e.Engine.Name())
		return basic, false
	}
	return util.Truncate(out, MaxEnhancedRunes, ""), true
}

func (e *Enhancer) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}
