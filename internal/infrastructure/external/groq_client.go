package external

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/rs/zerolog"

	"github.com/kabs31/outfit-planner/internal/domain/entities"
	"github.com/kabs31/outfit-planner/internal/domain/services"
)

const judgeSystemPrompt = `You are a fashion stylist expert. Analyze whether each top and bottom pair goes well together as an outfit.

Consider:
1. Style compatibility (casual with casual, formal with formal, etc.)
2. Color coordination (complementary, matching, or clashing colors)
3. Occasion appropriateness (both suitable for same occasion)
4. Aesthetic harmony (do they create a cohesive look?)
5. Fashion rules and trends

Respond with JSON only, an array with one object per pair in input order:
[{"compatible": true/false, "compatibility_score": 0.0-1.0, "reasoning": "brief explanation"}]

Be strict - only mark as compatible if they truly go well together.`

const parseSystemPrompt = `You are an AI fashion assistant. Analyze outfit prompts and extract structured information.

Extract the following from the user's prompt:
- mood: emotional tone (relaxed, energetic, confident, etc.)
- location: where they'll wear it (beach, office, party, gym, etc.)
- occasion: the event type (casual, formal, party, business, date, etc.)
- style: fashion style (casual, formal, streetwear, bohemian, etc.)
- colors: color preferences (bright, dark, pastel, specific colors)
- season: time of year (summer, winter, spring, fall, all-season)
- formality: level of formality (casual, semi-formal, formal)
- keywords: key fashion terms mentioned

Respond ONLY with valid JSON. No other text.`

var (
	jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)
	jsonArrayRe  = regexp.MustCompile(`(?s)\[.*\]`)
)

// GroqClient talks to Groq's OpenAI-compatible chat API. It serves both
// LLM concerns of the service: pair compatibility judging and prompt
// parsing.
type GroqClient struct {
	client openai.Client
	model  string
	log    zerolog.Logger
}

func NewGroqClient(apiKey, baseURL, model string, log zerolog.Logger) *GroqClient {
	return &GroqClient{
		client: openai.NewClient(option.WithAPIKey(apiKey), option.WithBaseURL(baseURL)),
		model:  model,
		log:    log,
	}
}

type verdictPayload struct {
	Compatible bool    `json:"compatible"`
	Score      float64 `json:"compatibility_score"`
	Reasoning  string  `json:"reasoning"`
}

// JudgeBatch sends the whole batch in one completion and expects one
// verdict per pair in order. Any shape mismatch is an error; the oracle
// falls back from there.
func (c *GroqClient) JudgeBatch(ctx context.Context, pairs []entities.DescriptorPair, contextText string) ([]entities.CompatibilityVerdict, error) {
	var sb strings.Builder
	if contextText != "" {
		fmt.Fprintf(&sb, "Outfit context: %s\n\n", contextText)
	}
	for i, p := range pairs {
		fmt.Fprintf(&sb, "Pair %d:\n", i+1)
		writeDescriptor(&sb, "Top", p.Top)
		writeDescriptor(&sb, "Bottom", p.Bottom)
		sb.WriteString("\n")
	}

	content, err := c.complete(ctx, judgeSystemPrompt, sb.String(), 1200)
	if err != nil {
		return nil, err
	}

	raw := jsonArrayRe.FindString(trimFence(content))
	if raw == "" {
		return nil, fmt.Errorf("no JSON array in judge response: %.100s", content)
	}

	var payloads []verdictPayload
	if err := json.Unmarshal([]byte(raw), &payloads); err != nil {
		return nil, fmt.Errorf("decode judge response: %w", err)
	}
	if len(payloads) != len(pairs) {
		return nil, fmt.Errorf("judge returned %d verdicts for %d pairs", len(payloads), len(pairs))
	}

	verdicts := make([]entities.CompatibilityVerdict, len(payloads))
	for i, p := range payloads {
		verdicts[i] = entities.CompatibilityVerdict{
			Compatible: p.Compatible,
			Score:      p.Score,
			Reason:     p.Reasoning,
		}
	}
	return verdicts, nil
}

type promptPayload struct {
	Mood      string   `json:"mood"`
	Location  string   `json:"location"`
	Occasion  string   `json:"occasion"`
	Style     string   `json:"style"`
	Colors    []string `json:"colors"`
	Season    string   `json:"season"`
	Formality string   `json:"formality"`
	Keywords  []string `json:"keywords"`
}

// ParseOutfitPrompt extracts structured outfit attributes. It never fails:
// API or decode errors degrade to the keyword parser.
func (c *GroqClient) ParseOutfitPrompt(ctx context.Context, prompt string) entities.ParsedPrompt {
	content, err := c.complete(ctx, parseSystemPrompt, fmt.Sprintf("Analyze this outfit prompt: %s", prompt), 300)
	if err != nil {
		c.log.Warn().Err(err).Msg("prompt parse request failed, using keyword parser")
		return services.FallbackParsePrompt(prompt)
	}

	raw := jsonObjectRe.FindString(trimFence(content))
	if raw == "" {
		c.log.Warn().Str("content", truncateForLog(content)).Msg("no JSON in parse response, using keyword parser")
		return services.FallbackParsePrompt(prompt)
	}

	var payload promptPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		c.log.Warn().Err(err).Msg("undecodable parse response, using keyword parser")
		return services.FallbackParsePrompt(prompt)
	}

	return entities.ParsedPrompt{
		OriginalPrompt: prompt,
		Mood:           payload.Mood,
		Location:       payload.Location,
		Occasion:       payload.Occasion,
		Style:          payload.Style,
		Colors:         payload.Colors,
		Season:         payload.Season,
		Formality:      payload.Formality,
		Keywords:       payload.Keywords,
	}
}

func (c *GroqClient) complete(ctx context.Context, system, user string, maxTokens int64) (string, error) {
	response, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		MaxTokens:   openai.Int(maxTokens),
		Temperature: openai.Float(0.3),
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(system),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(user),
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("groq request failed: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("groq returned no choices")
	}
	return response.Choices[0].Message.Content, nil
}

func writeDescriptor(sb *strings.Builder, label string, d entities.GarmentDescriptor) {
	fmt.Fprintf(sb, "%s: %s\n", label, d.Name)
	if d.Description != "" {
		fmt.Fprintf(sb, "  Description: %s\n", d.Description)
	}
	if d.Category != "" {
		fmt.Fprintf(sb, "  Category: %s\n", d.Category)
	}
	if d.Brand != "" {
		fmt.Fprintf(sb, "  Brand: %s\n", d.Brand)
	}
}

func trimFence(message string) string {
	message = strings.TrimSpace(message)
	message = strings.TrimPrefix(message, "```json")
	message = strings.TrimPrefix(message, "```")
	message = strings.TrimSuffix(message, "```")
	return strings.TrimSpace(message)
}

func truncateForLog(s string) string {
	if len(s) <= 100 {
		return s
	}
	return s[:100]
}
