package poster

import (
	"taskboard/api/internal/validation"
)

// Closed vocabularies of the questionnaire. They are mirrored in the
// validate tags below and in the generated JSON schema.
var (
	Styles         = []string{"minimalist", "vintage", "modern", "retro", "abstract", "illustrative", "photographic", "typographic"}
	Moods          = []string{"energetic", "calm", "playful", "elegant", "bold", "mysterious", "festive", "professional"}
	TextPlacements = []string{"top", "center", "bottom", "left", "right", "overlay"}
	Lightings      = []string{"natural", "studio", "dramatic", "soft", "neon", "golden_hour", "backlit"}
	Compositions   = []string{"centered", "rule_of_thirds", "symmetrical", "asymmetrical", "diagonal", "layered"}
	Elements       = []string{"people", "nature", "architecture", "abstract_shapes", "typography", "icons", "patterns", "food", "technology", "animals"}
)

type Theme struct {
	Name        string `json:"name" validate:"required" jsonschema:"minLength=1"`
	Description string `json:"description,omitempty"`
}

type PosterRequest struct {
	Theme           Theme    `json:"theme" validate:"required"`
	Style           string   `json:"style" validate:"required,oneof=minimalist vintage modern retro abstract illustrative photographic typographic" jsonschema:"enum=minimalist,enum=vintage,enum=modern,enum=retro,enum=abstract,enum=illustrative,enum=photographic,enum=typographic"`
	ColorPalette    []string `json:"color_palette" validate:"required,min=2,max=5,dive,hexcolor" jsonschema:"minItems=2,maxItems=5"`
	Elements        []string `json:"elements" validate:"required,min=2,max=5,dive,oneof=people nature architecture abstract_shapes typography icons patterns food technology animals" jsonschema:"minItems=2,maxItems=5"`
	Mood            string   `json:"mood" validate:"required,oneof=energetic calm playful elegant bold mysterious festive professional" jsonschema:"enum=energetic,enum=calm,enum=playful,enum=elegant,enum=bold,enum=mysterious,enum=festive,enum=professional"`
	TextPlacement   string   `json:"text_placement" validate:"required,oneof=top center bottom left right overlay" jsonschema:"enum=top,enum=center,enum=bottom,enum=left,enum=right,enum=overlay"`
	Lighting        string   `json:"lighting,omitempty" validate:"omitempty,oneof=natural studio dramatic soft neon golden_hour backlit" jsonschema:"enum=natural,enum=studio,enum=dramatic,enum=soft,enum=neon,enum=golden_hour,enum=backlit"`
	Composition     string   `json:"composition,omitempty" validate:"omitempty,oneof=centered rule_of_thirds symmetrical asymmetrical diagonal layered" jsonschema:"enum=centered,enum=rule_of_thirds,enum=symmetrical,enum=asymmetrical,enum=diagonal,enum=layered"`
	AdditionalNotes string   `json:"additional_notes,omitempty"`
	LLMName         string   `json:"llm_name,omitempty"`
}

// Validate checks the request shape. It must pass before any network call.
func (r PosterRequest) Validate() error {
	return validation.Struct("poster.validate", r)
}

// Variation is one generated and hosted image.
type Variation struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Format   string `json:"format"`
}

// Failure describes a variation that was dropped under the best_effort policy.
type Failure struct {
	Index int    `json:"index"`
	Seed  uint32 `json:"seed"`
	Stage string `json:"stage"`
	Error string `json:"error"`
}

type PosterResponse struct {
	OriginalPrompt string      `json:"original_prompt"`
	EnhancedPrompt string      `json:"enhanced_prompt"`
	Variations     []Variation `json:"variations"`
	Failures       []Failure   `json:"failures,omitempty"`
}
