package usecases

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/kabs31/outfit-planner/internal/domain/entities"
	"github.com/kabs31/outfit-planner/internal/domain/repositories"
	"github.com/kabs31/outfit-planner/internal/domain/services"
)

// TryOnUseCase renders previously browsed outfits onto a model image.
type TryOnUseCase struct {
	outfitRepo   repositories.OutfitRepository
	preparer     *services.GarmentPreparer
	orchestrator *services.BatchOrchestrator
	fetcher      repositories.ImageFetcher
	store        repositories.ImageStore
	log          zerolog.Logger
}

func NewTryOnUseCase(
	outfitRepo repositories.OutfitRepository,
	preparer *services.GarmentPreparer,
	orchestrator *services.BatchOrchestrator,
	fetcher repositories.ImageFetcher,
	store repositories.ImageStore,
	log zerolog.Logger,
) *TryOnUseCase {
	return &TryOnUseCase{
		outfitRepo:   outfitRepo,
		preparer:     preparer,
		orchestrator: orchestrator,
		fetcher:      fetcher,
		store:        store,
		log:          log,
	}
}

type TryOnInput struct {
	OutfitIDs     []string
	ModelImageURL string

	// LocalOnly skips the generative render tiers and produces composite
	// cards directly.
	LocalOnly bool
}

// OutfitRender pairs an outfit with its render outcome. Result is nil when
// that outfit could not be rendered; the rest of the batch is unaffected.
type OutfitRender struct {
	Outfit entities.OutfitCandidate
	Result *entities.RenderResult
}

type TryOnOutput struct {
	Renders []OutfitRender
}

func (uc *TryOnUseCase) Execute(ctx context.Context, input TryOnInput) (*TryOnOutput, error) {
	if len(input.OutfitIDs) == 0 {
		return nil, fmt.Errorf("at least one outfit ID is required")
	}
	if input.ModelImageURL == "" {
		return nil, fmt.Errorf("model image URL is required")
	}

	outfits := make([]entities.OutfitCandidate, 0, len(input.OutfitIDs))
	for _, id := range input.OutfitIDs {
		outfit, err := uc.outfitRepo.FindByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("unknown outfit %s: %w", id, err)
		}
		outfits = append(outfits, *outfit)
	}

	modelImage, err := uc.fetcher.Fetch(ctx, input.ModelImageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch model image: %w", err)
	}

	items := uc.prepareItems(ctx, outfits)

	policy := uc.orchestrator.PolicyFor(input.LocalOnly)
	results := uc.orchestrator.RenderAll(ctx, items, modelImage, input.ModelImageURL, input.LocalOnly, policy)

	renders := make([]OutfitRender, len(outfits))
	for i, outfit := range outfits {
		renders[i] = OutfitRender{Outfit: outfit}
		result := results[i]
		if result == nil {
			continue
		}

		uc.persistResult(ctx, result)
		renders[i].Result = result
	}

	return &TryOnOutput{Renders: renders}, nil
}

// prepareItems downloads and extracts every garment concurrently. An
// outfit whose garments cannot be prepared keeps nil garments in its item
// and fails inside the orchestrator, holding its slot.
func (uc *TryOnUseCase) prepareItems(ctx context.Context, outfits []entities.OutfitCandidate) []services.RenderItem {
	items := make([]services.RenderItem, len(outfits))

	var wg sync.WaitGroup
	for i, outfit := range outfits {
		items[i].Outfit = outfit

		wg.Add(1)
		go func(i int, outfit entities.OutfitCandidate) {
			defer wg.Done()

			top, err := uc.preparer.Prepare(ctx, outfit.Top.ImageURL, entities.GarmentTypeTop)
			if err != nil {
				uc.log.Warn().Err(err).Str("outfit_id", outfit.ID).Msg("top garment preparation failed")
				return
			}
			bottom, err := uc.preparer.Prepare(ctx, outfit.Bottom.ImageURL, entities.GarmentTypeBottom)
			if err != nil {
				uc.log.Warn().Err(err).Str("outfit_id", outfit.ID).Msg("bottom garment preparation failed")
				return
			}

			items[i].Top = top
			items[i].Bottom = bottom
		}(i, outfit)
	}
	wg.Wait()

	return items
}

// persistResult uploads the rendered image for a durable URL and stores
// the result. Both steps are best-effort; the render is already in hand.
func (uc *TryOnUseCase) persistResult(ctx context.Context, result *entities.RenderResult) {
	if uc.store != nil && result.Image != nil {
		url, err := uc.store.Upload(ctx, result.Image, "renders")
		if err != nil {
			uc.log.Warn().Err(err).Str("outfit_id", result.OutfitID).Msg("render upload failed")
		} else {
			result.ImageURL = url
		}
	}

	if err := uc.outfitRepo.SaveResult(ctx, result); err != nil {
		uc.log.Warn().Err(err).Str("outfit_id", result.OutfitID).Msg("render result save failed")
	}
}
