package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kabs31/outfit-planner/internal/domain/entities"
)

func TestMemoryOutfitRepository(t *testing.T) {
	repo := NewMemoryOutfitRepository()
	ctx := context.Background()

	outfit := entities.NewOutfitCandidate(
		entities.Garment{ID: "t1", Name: "tee", Price: 20},
		entities.Garment{ID: "b1", Name: "jeans", Price: 40},
		0.8, nil,
	)

	require.NoError(t, repo.Save(ctx, outfit))

	found, err := repo.FindByID(ctx, outfit.ID)
	require.NoError(t, err)
	assert.Equal(t, outfit.ID, found.ID)
	assert.InDelta(t, 60, found.TotalPrice, 1e-9)

	_, err = repo.FindByID(ctx, "missing")
	assert.Error(t, err)
}

func TestMemoryOutfitRepositoryResults(t *testing.T) {
	repo := NewMemoryOutfitRepository()
	ctx := context.Background()

	result := entities.NewRenderResult("outfit_abc", entities.TierComposite, nil, false)
	require.NoError(t, repo.SaveResult(ctx, result))

	found, err := repo.FindResultByOutfitID(ctx, "outfit_abc")
	require.NoError(t, err)
	assert.Equal(t, entities.TierComposite, found.Tier)

	_, err = repo.FindResultByOutfitID(ctx, "outfit_missing")
	assert.Error(t, err)
}
