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

// BrowseUseCase turns a natural-language outfit prompt into ranked
// top+bottom combinations sourced from the configured catalogs.
type BrowseUseCase struct {
	parser     repositories.PromptParser
	catalogs   []repositories.CatalogService
	scorer     *services.CombinationScorer
	outfitRepo repositories.OutfitRepository
	log        zerolog.Logger
}

func NewBrowseUseCase(
	parser repositories.PromptParser,
	catalogs []repositories.CatalogService,
	scorer *services.CombinationScorer,
	outfitRepo repositories.OutfitRepository,
	log zerolog.Logger,
) *BrowseUseCase {
	return &BrowseUseCase{
		parser:     parser,
		catalogs:   catalogs,
		scorer:     scorer,
		outfitRepo: outfitRepo,
		log:        log,
	}
}

type BrowseInput struct {
	Prompt     string
	Gender     string
	MaxResults int
	// PerCatalogLimit caps garments fetched per catalog per garment type.
	PerCatalogLimit int
}

type BrowseOutput struct {
	Parsed  entities.ParsedPrompt
	Outfits []entities.OutfitCandidate
}

type catalogFetch struct {
	tops    []entities.Garment
	bottoms []entities.Garment
}

func (uc *BrowseUseCase) Execute(ctx context.Context, input BrowseInput) (*BrowseOutput, error) {
	if len(uc.catalogs) == 0 {
		return nil, fmt.Errorf("no catalogs configured")
	}
	maxResults := input.MaxResults
	if maxResults <= 0 {
		maxResults = 6
	}
	limit := input.PerCatalogLimit
	if limit <= 0 {
		limit = 10
	}

	parsed := uc.parser.ParseOutfitPrompt(ctx, input.Prompt)
	query := services.BuildSearchQuery(parsed)
	uc.log.Info().Str("query", query).Str("gender", input.Gender).Msg("browsing catalogs")

	// Every catalog is queried for both garment types at once; a catalog
	// that errors contributes nothing instead of failing the browse.
	// Results land in per-catalog slots so the concatenation order, which
	// the positional bonus and tie-breaks depend on, never varies with
	// goroutine scheduling.
	fetches := make([]catalogFetch, len(uc.catalogs))
	var wg sync.WaitGroup
	for i, catalog := range uc.catalogs {
		for _, category := range []entities.GarmentType{entities.GarmentTypeTop, entities.GarmentTypeBottom} {
			wg.Add(1)
			go func(i int, catalog repositories.CatalogService, category entities.GarmentType) {
				defer wg.Done()
				garments, err := catalog.SearchGarments(ctx, categoryQuery(query, category), input.Gender, category, limit)
				if err != nil {
					uc.log.Warn().Err(err).Str("source", catalog.Source()).Str("category", string(category)).
						Msg("catalog search failed")
					return
				}
				if category == entities.GarmentTypeTop {
					fetches[i].tops = garments
				} else {
					fetches[i].bottoms = garments
				}
			}(i, catalog, category)
		}
	}
	wg.Wait()

	var tops, bottoms []entities.Garment
	for _, fetch := range fetches {
		tops = append(tops, fetch.tops...)
		bottoms = append(bottoms, fetch.bottoms...)
	}

	if len(tops) == 0 || len(bottoms) == 0 {
		return nil, fmt.Errorf("not enough products found: %d tops, %d bottoms", len(tops), len(bottoms))
	}

	outfits := uc.scorer.ScoreAndRank(ctx, tops, bottoms, maxResults, input.Prompt)

	for _, outfit := range outfits {
		if err := uc.outfitRepo.Save(ctx, outfit); err != nil {
			return nil, fmt.Errorf("failed to save outfit: %w", err)
		}
	}

	uc.log.Info().Int("tops", len(tops)).Int("bottoms", len(bottoms)).Int("outfits", len(outfits)).
		Msg("browse complete")

	return &BrowseOutput{Parsed: parsed, Outfits: outfits}, nil
}

// categoryQuery biases the shared search query toward one garment type.
func categoryQuery(query string, category entities.GarmentType) string {
	suffix := "top shirt"
	if category == entities.GarmentTypeBottom {
		suffix = "pants"
	}
	if query == "" {
		return "casual " + suffix
	}
	return query + " " + suffix
}
