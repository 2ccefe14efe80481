package services

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/kabs31/outfit-planner/internal/domain/entities"
	"github.com/kabs31/outfit-planner/internal/domain/valueobjects"
)

// ConcurrencyPolicy decides how a batch of renders is scheduled.
type ConcurrencyPolicy string

const (
	// PolicySequential renders one outfit at a time, required when the
	// primary backend rate-limits across concurrent calls.
	PolicySequential ConcurrencyPolicy = "sequential"
	// PolicyParallel fans all renders out at once.
	PolicyParallel ConcurrencyPolicy = "parallel"
)

// RenderItem is one orchestrator work unit: a ranked outfit with its
// prepared garments.
type RenderItem struct {
	Outfit entities.OutfitCandidate
	Top    *entities.PreparedGarment
	Bottom *entities.PreparedGarment
}

// BatchOrchestrator drives the render pipeline over a batch of outfits.
// The batch never aborts: an item that fails unrecoverably leaves a nil
// slot at its index and the rest continue.
type BatchOrchestrator struct {
	pipeline *RenderPipeline
	log      zerolog.Logger
}

func NewBatchOrchestrator(pipeline *RenderPipeline, log zerolog.Logger) *BatchOrchestrator {
	return &BatchOrchestrator{pipeline: pipeline, log: log}
}

// PolicyFor picks the scheduling policy for the active pipeline
// configuration. Local-only batches never touch the generative backend,
// so its rate limit does not apply.
func (o *BatchOrchestrator) PolicyFor(localOnly bool) ConcurrencyPolicy {
	if !localOnly && o.pipeline.RateLimited() {
		return PolicySequential
	}
	return PolicyParallel
}

// RenderAll renders every item under the given policy. The result slice is
// index-aligned with items; failed items hold nil.
func (o *BatchOrchestrator) RenderAll(ctx context.Context, items []RenderItem, model *valueobjects.ImageData, modelURL string, localOnly bool, policy ConcurrencyPolicy) []*entities.RenderResult {
	results := make([]*entities.RenderResult, len(items))

	if policy == PolicySequential {
		for i, item := range items {
			results[i] = o.renderOne(ctx, item, model, modelURL, localOnly)
		}
	} else {
		var wg sync.WaitGroup
		for i, item := range items {
			wg.Add(1)
			go func(i int, item RenderItem) {
				defer wg.Done()
				results[i] = o.renderOne(ctx, item, model, modelURL, localOnly)
			}(i, item)
		}
		wg.Wait()
	}

	succeeded := 0
	for _, r := range results {
		if r != nil {
			succeeded++
		}
	}
	o.log.Info().Str("policy", string(policy)).
		Int("succeeded", succeeded).Int("total", len(items)).
		Msgf("rendered %d/%d outfits", succeeded, len(items))

	return results
}

func (o *BatchOrchestrator) renderOne(ctx context.Context, item RenderItem, model *valueobjects.ImageData, modelURL string, localOnly bool) *entities.RenderResult {
	result, err := o.pipeline.Render(ctx, item.Outfit, model, modelURL, item.Top, item.Bottom, localOnly)
	if err != nil {
		o.log.Error().Err(err).Str("outfit_id", item.Outfit.ID).Msg("outfit render unrecoverable")
		return nil
	}
	return result
}
