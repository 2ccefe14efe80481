package repositories

import (
	"context"

	"github.com/kabs31/outfit-planner/internal/domain/entities"
)

type OutfitRepository interface {
	Save(ctx context.Context, outfit entities.OutfitCandidate) error
	FindByID(ctx context.Context, id string) (*entities.OutfitCandidate, error)
	SaveResult(ctx context.Context, result *entities.RenderResult) error
	FindResultByOutfitID(ctx context.Context, outfitID string) (*entities.RenderResult, error)
}
