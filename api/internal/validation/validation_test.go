package validation_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/api/internal/apperr"
	"taskboard/api/internal/validation"
)

type inner struct {
	Name string `json:"name" validate:"required"`
}

type sample struct {
	Inner  inner    `json:"inner"`
	Colors []string `json:"colors" validate:"min=2,max=3,dive,hexcolor"`
	Mood   string   `json:"mood" validate:"oneof=calm loud"`
}

func TestStruct(t *testing.T) {
	ok := sample{Inner: inner{Name: "x"}, Colors: []string{"#fff", "#000000"}, Mood: "calm"}
	require.NoError(t, validation.Struct("test", ok))

	bad := sample{Colors: []string{"red"}, Mood: "sad"}
	err := validation.Struct("test", bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.BadRequest))
	assert.Contains(t, err.Error(), "inner.name is required")
	assert.Contains(t, err.Error(), "colors must have at least 2 entries")
	assert.Contains(t, err.Error(), "mood must be one of [calm loud]")
	assert.ElementsMatch(t, []string{"inner.name", "colors", "mood"}, apperr.DetailsOf(err)["fields"])
}
