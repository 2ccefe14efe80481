package repositories

import (
	"context"
	"fmt"
	"sync"

	"github.com/kabs31/outfit-planner/internal/domain/entities"
	domainrepos "github.com/kabs31/outfit-planner/internal/domain/repositories"
)

type MemoryOutfitRepository struct {
	outfits map[string]entities.OutfitCandidate
	results map[string]*entities.RenderResult
	mu      sync.RWMutex
}

func NewMemoryOutfitRepository() domainrepos.OutfitRepository {
	return &MemoryOutfitRepository{
		outfits: make(map[string]entities.OutfitCandidate),
		results: make(map[string]*entities.RenderResult),
	}
}

func (r *MemoryOutfitRepository) Save(ctx context.Context, outfit entities.OutfitCandidate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.outfits[outfit.ID] = outfit
	return nil
}

func (r *MemoryOutfitRepository) FindByID(ctx context.Context, id string) (*entities.OutfitCandidate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	outfit, exists := r.outfits[id]
	if !exists {
		return nil, fmt.Errorf("outfit not found: %s", id)
	}

	return &outfit, nil
}

func (r *MemoryOutfitRepository) SaveResult(ctx context.Context, result *entities.RenderResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.results[result.OutfitID] = result
	return nil
}

func (r *MemoryOutfitRepository) FindResultByOutfitID(ctx context.Context, outfitID string) (*entities.RenderResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result, exists := r.results[outfitID]
	if !exists {
		return nil, fmt.Errorf("result not found for outfit: %s", outfitID)
	}

	return result, nil
}
