package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/kabs31/outfit-planner/internal/config"
	"github.com/kabs31/outfit-planner/internal/domain/entities"
	"github.com/kabs31/outfit-planner/internal/domain/repositories"
	"github.com/kabs31/outfit-planner/internal/domain/valueobjects"
	"github.com/kabs31/outfit-planner/internal/imaging"
)

// RenderPipeline runs the tiered try-on strategy for one outfit:
//
//  1. two-pass generative: top applied to the model image, then the bottom
//     applied to the intermediate result;
//  2. single-pass secondary backend on the combined garment image;
//  3. composite card, which always succeeds on decodable inputs.
//
// A tier failure falls through to the next tier, with one exception: when
// the first generative pass succeeded and the second failed, the
// intermediate top-only image ships as a degraded result instead of being
// thrown away.
type RenderPipeline struct {
	generative repositories.GenerativeRenderer
	singlePass repositories.SinglePassRenderer
	tuning     config.RenderTuning
	log        zerolog.Logger
}

// NewRenderPipeline builds a pipeline. Either renderer may be nil; the
// corresponding tier is skipped.
func NewRenderPipeline(generative repositories.GenerativeRenderer, singlePass repositories.SinglePassRenderer, tuning config.RenderTuning, log zerolog.Logger) *RenderPipeline {
	return &RenderPipeline{
		generative: generative,
		singlePass: singlePass,
		tuning:     tuning,
		log:        log,
	}
}

// RateLimited reports whether the pipeline's primary tier shares a rate
// limit across concurrent renders.
func (p *RenderPipeline) RateLimited() bool {
	return p.generative != nil && p.generative.RateLimited()
}

// Render produces exactly one image for the outfit. An error means the
// inputs themselves were unusable; backend failures never surface here,
// they degrade through the tiers.
func (p *RenderPipeline) Render(ctx context.Context, outfit entities.OutfitCandidate, model *valueobjects.ImageData, modelURL string, top, bottom *entities.PreparedGarment, localOnly bool) (*entities.RenderResult, error) {
	if model == nil || top == nil || bottom == nil || top.Image == nil || bottom.Image == nil {
		return nil, errors.New("render inputs incomplete")
	}

	if localOnly {
		p.log.Info().Str("outfit_id", outfit.ID).Msg("local render requested, skipping generative tiers")
		return p.renderComposite(outfit, top, bottom)
	}

	if p.generative != nil {
		result, done := p.renderTwoPass(ctx, outfit, model, top, bottom)
		if done {
			return result, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	if p.singlePass != nil {
		if result := p.renderSinglePass(ctx, outfit, model, modelURL, top, bottom); result != nil {
			return result, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	return p.renderComposite(outfit, top, bottom)
}

// renderTwoPass reports done=true when it produced a result, full or
// degraded. done=false means the tier aborted cleanly and the next tier
// should run.
func (p *RenderPipeline) renderTwoPass(ctx context.Context, outfit entities.OutfitCandidate, model *valueobjects.ImageData, top, bottom *entities.PreparedGarment) (*entities.RenderResult, bool) {
	attempt := entities.RenderAttempt{Tier: entities.TierTwoPass}

	intermediate, err := p.applyWithRetry(ctx, &attempt, model, top.Image, top.Type.Region())
	if err != nil {
		p.log.Warn().Err(err).Str("outfit_id", outfit.ID).Int("retries", attempt.Retries).
			Msg("first generative pass failed, tier abandoned")
		return nil, false
	}

	final, err := p.applyWithRetry(ctx, &attempt, intermediate, bottom.Image, bottom.Type.Region())
	if err != nil {
		// The intermediate image already shows the top on the model;
		// shipping it beats discarding a paid-for generation.
		p.log.Warn().Err(err).Str("outfit_id", outfit.ID).
			Msg("second generative pass failed, returning top-only result")
		return entities.NewRenderResult(outfit.ID, entities.TierTwoPass, intermediate, true), true
	}

	p.log.Info().Str("outfit_id", outfit.ID).Int("retries", attempt.Retries).Msg("two-pass render complete")
	return entities.NewRenderResult(outfit.ID, entities.TierTwoPass, final, false), true
}

// applyWithRetry sleeps the pass cooldown, invokes the generative backend
// and retries through the backoff schedule on rate-limit refusals. Other
// errors fail immediately.
func (p *RenderPipeline) applyWithRetry(ctx context.Context, attempt *entities.RenderAttempt, base, garment *valueobjects.ImageData, region entities.BodyRegion) (*valueobjects.ImageData, error) {
	if err := sleepCtx(ctx, p.tuning.PassCooldown); err != nil {
		return nil, err
	}

	for i := 0; ; i++ {
		out, err := p.generative.ApplyGarment(ctx, base, garment, region)
		if err == nil {
			return out, nil
		}
		attempt.LastErr = err

		if !errors.Is(err, repositories.ErrRateLimited) || i >= len(p.tuning.RateLimitBackoff) {
			return nil, err
		}

		wait := p.tuning.RateLimitBackoff[i]
		attempt.Retries++
		p.log.Warn().Dur("backoff", wait).Int("attempt", i+1).Msg("generative backend rate limited, backing off")
		if err := sleepCtx(ctx, wait); err != nil {
			return nil, err
		}
	}
}

func (p *RenderPipeline) renderSinglePass(ctx context.Context, outfit entities.OutfitCandidate, model *valueobjects.ImageData, modelURL string, top, bottom *entities.PreparedGarment) *entities.RenderResult {
	combined, err := p.combineGarments(top, bottom)
	if err != nil {
		p.log.Warn().Err(err).Str("outfit_id", outfit.ID).Msg("garment combine failed, tier abandoned")
		return nil
	}

	out, err := p.singlePass.RenderOutfit(ctx, repositories.SinglePassInput{
		ModelImage:    model,
		ModelImageURL: modelURL,
		GarmentImage:  combined,
	})
	if err != nil {
		p.log.Warn().Err(err).Str("outfit_id", outfit.ID).Msg("single-pass render failed, tier abandoned")
		return nil
	}

	p.log.Info().Str("outfit_id", outfit.ID).Msg("single-pass render complete")
	return entities.NewRenderResult(outfit.ID, entities.TierSinglePass, out, false)
}

func (p *RenderPipeline) combineGarments(top, bottom *entities.PreparedGarment) (*valueobjects.ImageData, error) {
	topImg, err := top.Image.Decode()
	if err != nil {
		return nil, fmt.Errorf("decode top garment: %w", err)
	}
	bottomImg, err := bottom.Image.Decode()
	if err != nil {
		return nil, fmt.Errorf("decode bottom garment: %w", err)
	}
	return valueobjects.FromImage(imaging.CombineGarments(topImg, bottomImg))
}

// renderComposite is the floor of the pipeline. Decode failures are the
// only way out without a result.
func (p *RenderPipeline) renderComposite(outfit entities.OutfitCandidate, top, bottom *entities.PreparedGarment) (*entities.RenderResult, error) {
	topImg, err := top.Image.Decode()
	if err != nil {
		return nil, fmt.Errorf("decode top garment: %w", err)
	}
	bottomImg, err := bottom.Image.Decode()
	if err != nil {
		return nil, fmt.Errorf("decode bottom garment: %w", err)
	}

	card, err := valueobjects.FromImage(imaging.ComposeOutfitCard(topImg, bottomImg))
	if err != nil {
		return nil, fmt.Errorf("encode outfit card: %w", err)
	}

	p.log.Info().Str("outfit_id", outfit.ID).Msg("composite card rendered")
	return entities.NewRenderResult(outfit.ID, entities.TierComposite, card, false), nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
