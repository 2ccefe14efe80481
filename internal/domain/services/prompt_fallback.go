package services

import (
	"strings"

	"github.com/kabs31/outfit-planner/internal/domain/entities"
)

// Ordered keyword tables for the offline prompt parser. Slice order is
// match priority.

var moodKeywords = []struct {
	mood  string
	words []string
}{
	{"relaxed", []string{"relaxed", "chill", "calm", "easy", "comfortable"}},
	{"energetic", []string{"energetic", "active", "dynamic", "lively", "sporty"}},
	{"confident", []string{"confident", "bold", "powerful", "strong"}},
	{"romantic", []string{"romantic", "soft", "elegant", "date"}},
}

var locationKeywords = []string{"beach", "office", "gym", "party", "home", "outdoor", "indoor", "restaurant", "club"}

var occasionKeywords = []string{"party", "wedding", "date", "meeting", "casual", "formal", "business", "interview", "dinner"}

var colorKeywords = []string{
	"blue", "red", "green", "yellow", "black", "white", "gray", "grey", "pink",
	"colorful", "bright", "dark", "pastel", "neutral", "navy", "beige", "brown",
}

var seasonKeywords = []string{"summer", "winter", "spring", "fall", "autumn"}

var formalWords = []string{"formal", "business", "professional", "suit", "elegant"}
var semiFormalWords = []string{"semi-formal", "smart", "dressy"}

var styleKeywordMap = []struct {
	style string
	words []string
}{
	{"streetwear", []string{"streetwear", "street", "urban", "hip-hop"}},
	{"bohemian", []string{"boho", "bohemian", "hippie", "flowy"}},
	{"minimalist", []string{"minimal", "minimalist", "simple", "clean"}},
	{"preppy", []string{"preppy", "prepster", "ivy"}},
	{"sporty", []string{"sporty", "athletic", "gym", "workout"}},
}

// FallbackParsePrompt extracts outfit attributes by keyword matching. It
// is the deterministic floor under the LLM parser and never fails.
func FallbackParsePrompt(prompt string) entities.ParsedPrompt {
	lower := strings.ToLower(prompt)

	parsed := entities.ParsedPrompt{
		OriginalPrompt: prompt,
		Formality:      "casual",
	}

	for _, word := range strings.Fields(lower) {
		if len(word) > 3 {
			parsed.Keywords = append(parsed.Keywords, word)
		}
	}

	for _, entry := range moodKeywords {
		if containsAny(lower, entry.words) {
			parsed.Mood = entry.mood
			break
		}
	}

	parsed.Location = firstContained(lower, locationKeywords)
	parsed.Occasion = firstContained(lower, occasionKeywords)

	for _, c := range colorKeywords {
		if strings.Contains(lower, c) {
			parsed.Colors = append(parsed.Colors, c)
		}
	}

	parsed.Season = firstContained(lower, seasonKeywords)

	if containsAny(lower, formalWords) {
		parsed.Formality = "formal"
	} else if containsAny(lower, semiFormalWords) {
		parsed.Formality = "semi-formal"
	}

	// Style inherits formality unless a named style matches.
	parsed.Style = parsed.Formality
	for _, entry := range styleKeywordMap {
		if containsAny(lower, entry.words) {
			parsed.Style = entry.style
			break
		}
	}

	return parsed
}

// BuildSearchQuery flattens parsed attributes into a catalog search
// string: location, occasion, style, up to two colors, season, then up to
// three raw keywords, de-duplicated in that order.
func BuildSearchQuery(parsed entities.ParsedPrompt) string {
	var parts []string
	appendPart := func(p string) {
		if p != "" {
			parts = append(parts, p)
		}
	}

	appendPart(parsed.Location)
	appendPart(parsed.Occasion)
	appendPart(parsed.Style)
	for _, c := range headStrings(parsed.Colors, 2) {
		appendPart(c)
	}
	appendPart(parsed.Season)
	for _, k := range headStrings(parsed.Keywords, 3) {
		appendPart(k)
	}

	seen := make(map[string]bool, len(parts))
	var unique []string
	for _, p := range parts {
		if !seen[p] {
			seen[p] = true
			unique = append(unique, p)
		}
	}
	return strings.Join(unique, " ")
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func firstContained(text string, words []string) string {
	for _, w := range words {
		if strings.Contains(text, w) {
			return w
		}
	}
	return ""
}

func headStrings(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
