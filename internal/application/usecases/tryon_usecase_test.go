package usecases

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kabs31/outfit-planner/internal/config"
	"github.com/kabs31/outfit-planner/internal/domain/entities"
	"github.com/kabs31/outfit-planner/internal/domain/services"
	"github.com/kabs31/outfit-planner/internal/domain/valueobjects"
	memrepos "github.com/kabs31/outfit-planner/internal/infrastructure/repositories"
)

func tryOnFixture(t *testing.T, c color.Color) *valueobjects.ImageData {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, c)
		}
	}
	data, err := valueobjects.FromImage(img)
	require.NoError(t, err)
	return data
}

type urlFetcher struct {
	images map[string]*valueobjects.ImageData
}

func (f *urlFetcher) Fetch(_ context.Context, url string) (*valueobjects.ImageData, error) {
	img, ok := f.images[url]
	if !ok {
		return nil, errors.New("no such image")
	}
	return img, nil
}

type recordingStore struct {
	uploads []string
}

func (s *recordingStore) Upload(_ context.Context, _ *valueobjects.ImageData, prefix string) (string, error) {
	s.uploads = append(s.uploads, prefix)
	return "https://store.example.com/" + prefix + "/render.jpg", nil
}

func fastRenderTuning() config.RenderTuning {
	tuning := config.DefaultRenderTuning()
	tuning.PassCooldown = 0
	return tuning
}

func seedOutfit(t *testing.T, repo interface {
	Save(ctx context.Context, outfit entities.OutfitCandidate) error
}, topURL, bottomURL string) entities.OutfitCandidate {
	t.Helper()
	outfit := entities.NewOutfitCandidate(
		entities.Garment{ID: "top-1", Name: "linen shirt", Category: entities.GarmentTypeTop, Price: 40, ImageURL: topURL},
		entities.Garment{ID: "bot-1", Name: "chino pants", Category: entities.GarmentTypeBottom, Price: 55, ImageURL: bottomURL},
		0.85, []string{"casual"},
	)
	require.NoError(t, repo.Save(context.Background(), outfit))
	return outfit
}

func TestTryOnRendersAndPersists(t *testing.T) {
	repo := memrepos.NewMemoryOutfitRepository()
	outfit := seedOutfit(t, repo, "https://cdn.example.com/top.png", "https://cdn.example.com/bottom.png")

	fetcher := &urlFetcher{images: map[string]*valueobjects.ImageData{
		"https://cdn.example.com/model.png":  tryOnFixture(t, color.NRGBA{R: 200, G: 180, B: 160, A: 255}),
		"https://cdn.example.com/top.png":    tryOnFixture(t, color.NRGBA{R: 30, G: 60, B: 120, A: 255}),
		"https://cdn.example.com/bottom.png": tryOnFixture(t, color.NRGBA{R: 90, G: 90, B: 90, A: 255}),
	}}
	store := &recordingStore{}

	preparer := services.NewGarmentPreparer(fetcher, nil, nil, zerolog.Nop())
	// No generative backends configured, so every render lands on the
	// composite card floor.
	pipeline := services.NewRenderPipeline(nil, nil, fastRenderTuning(), zerolog.Nop())
	orchestrator := services.NewBatchOrchestrator(pipeline, zerolog.Nop())

	uc := NewTryOnUseCase(repo, preparer, orchestrator, fetcher, store, zerolog.Nop())

	out, err := uc.Execute(context.Background(), TryOnInput{
		OutfitIDs:     []string{outfit.ID},
		ModelImageURL: "https://cdn.example.com/model.png",
	})
	require.NoError(t, err)
	require.Len(t, out.Renders, 1)

	render := out.Renders[0]
	require.NotNil(t, render.Result)
	assert.Equal(t, entities.TierComposite, render.Result.Tier)
	assert.Equal(t, "https://store.example.com/renders/render.jpg", render.Result.ImageURL)
	assert.Equal(t, []string{"renders"}, store.uploads)

	persisted, err := repo.FindResultByOutfitID(context.Background(), outfit.ID)
	require.NoError(t, err)
	assert.Equal(t, render.Result.ImageURL, persisted.ImageURL)
}

func TestTryOnHoldsSlotForUnpreparableOutfit(t *testing.T) {
	repo := memrepos.NewMemoryOutfitRepository()
	good := seedOutfit(t, repo, "https://cdn.example.com/top.png", "https://cdn.example.com/bottom.png")
	broken := seedOutfit(t, repo, "https://cdn.example.com/gone.png", "https://cdn.example.com/bottom.png")

	fetcher := &urlFetcher{images: map[string]*valueobjects.ImageData{
		"https://cdn.example.com/model.png":  tryOnFixture(t, color.NRGBA{R: 200, G: 180, B: 160, A: 255}),
		"https://cdn.example.com/top.png":    tryOnFixture(t, color.NRGBA{R: 30, G: 60, B: 120, A: 255}),
		"https://cdn.example.com/bottom.png": tryOnFixture(t, color.NRGBA{R: 90, G: 90, B: 90, A: 255}),
	}}

	preparer := services.NewGarmentPreparer(fetcher, nil, nil, zerolog.Nop())
	pipeline := services.NewRenderPipeline(nil, nil, fastRenderTuning(), zerolog.Nop())
	orchestrator := services.NewBatchOrchestrator(pipeline, zerolog.Nop())

	uc := NewTryOnUseCase(repo, preparer, orchestrator, fetcher, nil, zerolog.Nop())

	out, err := uc.Execute(context.Background(), TryOnInput{
		OutfitIDs:     []string{broken.ID, good.ID},
		ModelImageURL: "https://cdn.example.com/model.png",
	})
	require.NoError(t, err)
	require.Len(t, out.Renders, 2)

	assert.Equal(t, broken.ID, out.Renders[0].Outfit.ID)
	assert.Nil(t, out.Renders[0].Result)
	require.NotNil(t, out.Renders[1].Result)
	assert.Equal(t, good.ID, out.Renders[1].Result.OutfitID)
}

func TestTryOnValidatesInput(t *testing.T) {
	repo := memrepos.NewMemoryOutfitRepository()
	preparer := services.NewGarmentPreparer(&urlFetcher{}, nil, nil, zerolog.Nop())
	pipeline := services.NewRenderPipeline(nil, nil, fastRenderTuning(), zerolog.Nop())
	orchestrator := services.NewBatchOrchestrator(pipeline, zerolog.Nop())
	uc := NewTryOnUseCase(repo, preparer, orchestrator, &urlFetcher{}, nil, zerolog.Nop())

	_, err := uc.Execute(context.Background(), TryOnInput{ModelImageURL: "https://x/m.png"})
	require.Error(t, err)

	_, err = uc.Execute(context.Background(), TryOnInput{OutfitIDs: []string{"outfit_x"}})
	require.Error(t, err)

	_, err = uc.Execute(context.Background(), TryOnInput{
		OutfitIDs:     []string{"outfit_missing"},
		ModelImageURL: "https://x/m.png",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown outfit")
}
