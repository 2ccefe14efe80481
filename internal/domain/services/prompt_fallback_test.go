package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kabs31/outfit-planner/internal/domain/entities"
)

func TestFallbackParsePrompt(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		check  func(t *testing.T, p entities.ParsedPrompt)
	}{
		{
			name:   "beach party",
			prompt: "colorful relaxed outfit for a beach party in summer",
			check: func(t *testing.T, p entities.ParsedPrompt) {
				assert.Equal(t, "relaxed", p.Mood)
				assert.Equal(t, "beach", p.Location)
				assert.Equal(t, "party", p.Occasion)
				assert.Contains(t, p.Colors, "colorful")
				assert.Equal(t, "summer", p.Season)
				assert.Equal(t, "casual", p.Formality)
			},
		},
		{
			name:   "business formal",
			prompt: "professional navy suit for a business meeting",
			check: func(t *testing.T, p entities.ParsedPrompt) {
				assert.Equal(t, "formal", p.Formality)
				assert.Equal(t, "meeting", p.Occasion)
				assert.Contains(t, p.Colors, "navy")
				assert.Equal(t, "formal", p.Style, "style inherits formality without a named style")
			},
		},
		{
			name:   "named style wins over formality",
			prompt: "urban streetwear look for the club",
			check: func(t *testing.T, p entities.ParsedPrompt) {
				assert.Equal(t, "streetwear", p.Style)
				assert.Equal(t, "club", p.Location)
				assert.Equal(t, "casual", p.Formality)
			},
		},
		{
			name:   "empty prompt still yields defaults",
			prompt: "",
			check: func(t *testing.T, p entities.ParsedPrompt) {
				assert.Equal(t, "casual", p.Formality)
				assert.Equal(t, "casual", p.Style)
				assert.Empty(t, p.Keywords)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := FallbackParsePrompt(tt.prompt)
			assert.Equal(t, tt.prompt, p.OriginalPrompt)
			tt.check(t, p)
		})
	}
}

func TestFallbackParseKeywordsSkipShortWords(t *testing.T) {
	p := FallbackParsePrompt("a red top for the gym")
	assert.NotContains(t, p.Keywords, "red")
	assert.NotContains(t, p.Keywords, "top")
	assert.Empty(t, p.Keywords)
}

func TestBuildSearchQuery(t *testing.T) {
	parsed := entities.ParsedPrompt{
		Location:  "beach",
		Occasion:  "party",
		Style:     "casual",
		Colors:    []string{"blue", "white", "red"},
		Season:    "summer",
		Keywords:  []string{"beach", "party", "colorful", "relaxed"},
		Formality: "casual",
	}

	got := BuildSearchQuery(parsed)

	// Duplicates collapse and the third color is dropped.
	assert.Equal(t, "beach party casual blue white summer colorful", got)
}

func TestBuildSearchQueryEmpty(t *testing.T) {
	assert.Equal(t, "", BuildSearchQuery(entities.ParsedPrompt{}))
}
