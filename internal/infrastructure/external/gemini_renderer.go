package external

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/kabs31/outfit-planner/internal/domain/entities"
	"github.com/kabs31/outfit-planner/internal/domain/repositories"
	"github.com/kabs31/outfit-planner/internal/domain/valueobjects"
)

// GeminiRenderer applies one garment per call through the Gemini image
// model. The pipeline chains two calls for a full outfit.
type GeminiRenderer struct {
	pool   repositories.GenAIClientPool
	apiKey string
	model  string
	log    zerolog.Logger
}

func NewGeminiRenderer(pool repositories.GenAIClientPool, apiKey, model string, log zerolog.Logger) *GeminiRenderer {
	return &GeminiRenderer{
		pool:   pool,
		apiKey: apiKey,
		model:  model,
		log:    log,
	}
}

// RateLimited is always true: the free-tier image model enforces a shared
// requests-per-minute quota, so batch renders must serialize.
func (r *GeminiRenderer) RateLimited() bool { return true }

func (r *GeminiRenderer) ApplyGarment(ctx context.Context, base, garment *valueobjects.ImageData, region entities.BodyRegion) (*valueobjects.ImageData, error) {
	client, err := r.pool.GetGenAIClient(ctx, r.apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get GenAI client: %w", err)
	}

	parts := []*genai.Part{
		genai.NewPartFromText(applyGarmentPrompt(region)),
		{InlineData: &genai.Blob{MIMEType: base.MimeType(), Data: base.Data()}},
		{InlineData: &genai.Blob{MIMEType: garment.MimeType(), Data: garment.Data()}},
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	// gemini-2.5-flash-image-preview は複数候補・MediaResolution指定不可
	result, err := client.Models.GenerateContent(ctx, r.model, contents, &genai.GenerateContentConfig{})
	if err != nil {
		if isQuotaError(err) {
			return nil, fmt.Errorf("%w: %v", repositories.ErrRateLimited, err)
		}
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no candidates received from Gemini API")
	}

	var responseText string
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			responseText = part.Text
			continue
		}
		if part.InlineData != nil {
			imageData, err := valueobjects.NewImageData(part.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("failed to create image data: %w", err)
			}
			return imageData, nil
		}
	}

	r.log.Warn().Str("region", string(region)).Str("response", truncateForLog(responseText)).Msg("no image data in response")
	return nil, fmt.Errorf("no image data received from Gemini API")
}

func applyGarmentPrompt(region entities.BodyRegion) string {
	place := "upper body"
	if region == entities.LowerBody {
		place = "lower body"
	}
	return fmt.Sprintf(
		"The first image shows a person. The second image shows a garment. "+
			"Generate a photorealistic image of the same person wearing the garment on their %s. "+
			"Keep the person's pose, face, lighting and background unchanged. "+
			"Replace only the %s clothing.", place, place)
}

func isQuotaError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "quota exceeded") ||
		strings.Contains(errStr, "resourceexhausted") ||
		strings.Contains(errStr, "resource_exhausted") ||
		strings.Contains(errStr, "429")
}
