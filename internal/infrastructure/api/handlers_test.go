package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appservices "github.com/kabs31/outfit-planner/internal/application/services"
	"github.com/kabs31/outfit-planner/internal/application/usecases"
	"github.com/kabs31/outfit-planner/internal/config"
	"github.com/kabs31/outfit-planner/internal/domain/entities"
	"github.com/kabs31/outfit-planner/internal/domain/repositories"
	domainservices "github.com/kabs31/outfit-planner/internal/domain/services"
	"github.com/kabs31/outfit-planner/internal/domain/valueobjects"
	memrepos "github.com/kabs31/outfit-planner/internal/infrastructure/repositories"
)

type stubParser struct{}

func (stubParser) ParseOutfitPrompt(_ context.Context, prompt string) entities.ParsedPrompt {
	return domainservices.FallbackParsePrompt(prompt)
}

type stubJudge struct{}

func (stubJudge) JudgeBatch(_ context.Context, pairs []entities.DescriptorPair, _ string) ([]entities.CompatibilityVerdict, error) {
	verdicts := make([]entities.CompatibilityVerdict, len(pairs))
	for i := range verdicts {
		verdicts[i] = entities.CompatibilityVerdict{Compatible: true, Score: 0.75, Reason: "stub"}
	}
	return verdicts, nil
}

type stubCatalog struct{ source string }

func (c *stubCatalog) Source() string { return c.source }

func (c *stubCatalog) SearchGarments(_ context.Context, _ string, _ string, category entities.GarmentType, _ int) ([]entities.Garment, error) {
	garments := make([]entities.Garment, 2)
	for i := range garments {
		garments[i] = entities.Garment{
			ID:       fmt.Sprintf("%s-%s-%d", c.source, category, i),
			Name:     fmt.Sprintf("%s item %d", category, i),
			Category: category,
			Price:    29.99,
			ImageURL: fmt.Sprintf("https://cdn.example.com/%s-%d.png", category, i),
			Source:   c.source,
		}
	}
	return garments, nil
}

type stubFetcher struct{ image *valueobjects.ImageData }

func (f *stubFetcher) Fetch(_ context.Context, _ string) (*valueobjects.ImageData, error) {
	return f.image, nil
}

type stubStore struct{}

func (stubStore) Upload(_ context.Context, _ *valueobjects.ImageData, prefix string) (string, error) {
	return "https://store.example.com/" + prefix + "/object.jpg", nil
}

func fixtureImage(t *testing.T) *valueobjects.ImageData {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.NRGBA{R: 120, G: 120, B: 120, A: 255})
		}
	}
	data, err := valueobjects.FromImage(img)
	require.NoError(t, err)
	return data
}

func newTestHandler(t *testing.T, repo repositories.OutfitRepository, store repositories.ImageStore) *OutfitHandler {
	t.Helper()
	log := zerolog.Nop()

	oracle := domainservices.NewCompatibilityOracle(stubJudge{}, 10, log)
	scorer := domainservices.NewCombinationScorer(oracle, config.DefaultScoringWeights(), log)
	browse := usecases.NewBrowseUseCase(stubParser{}, []repositories.CatalogService{&stubCatalog{source: "asos"}}, scorer, repo, log)

	fetcher := &stubFetcher{image: fixtureImage(t)}
	preparer := domainservices.NewGarmentPreparer(fetcher, nil, nil, log)
	tuning := config.DefaultRenderTuning()
	tuning.PassCooldown = 0
	pipeline := domainservices.NewRenderPipeline(nil, nil, tuning, log)
	orchestrator := domainservices.NewBatchOrchestrator(pipeline, log)
	tryOn := usecases.NewTryOnUseCase(repo, preparer, orchestrator, fetcher, store, log)

	return NewOutfitHandler(browse, tryOn, appservices.NewParameterService(), store, "", map[string]bool{
		"judge":      false,
		"segmenter":  false,
		"store":      store != nil,
		"generative": false,
	}, log)
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestHandleBrowse(t *testing.T) {
	handler := newTestHandler(t, memrepos.NewMemoryOutfitRepository(), nil)

	rec := httptest.NewRecorder()
	handler.HandleBrowse(rec, postForm("/api/browse", url.Values{
		"prompt":      {"beach party with friends"},
		"max_results": {"3"},
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Success bool `json:"success"`
		Parsed  struct {
			Location string `json:"location"`
		} `json:"parsed"`
		Outfits []struct {
			ID         string  `json:"id"`
			MatchScore float64 `json:"match_score"`
			Top        struct {
				ImageURL string `json:"image_url"`
			} `json:"top"`
		} `json:"outfits"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "beach", body.Parsed.Location)
	require.NotEmpty(t, body.Outfits)
	assert.LessOrEqual(t, len(body.Outfits), 3)
	assert.NotEmpty(t, body.Outfits[0].ID)
	assert.NotEmpty(t, body.Outfits[0].Top.ImageURL)
}

func TestHandleBrowseRequiresPrompt(t *testing.T) {
	handler := newTestHandler(t, memrepos.NewMemoryOutfitRepository(), nil)

	rec := httptest.NewRecorder()
	handler.HandleBrowse(rec, postForm("/api/browse", url.Values{}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "prompt is required")
}

func TestHandleTryOn(t *testing.T) {
	repo := memrepos.NewMemoryOutfitRepository()
	outfit := entities.NewOutfitCandidate(
		entities.Garment{ID: "t1", Category: entities.GarmentTypeTop, ImageURL: "https://cdn.example.com/t1.png"},
		entities.Garment{ID: "b1", Category: entities.GarmentTypeBottom, ImageURL: "https://cdn.example.com/b1.png"},
		0.8, nil,
	)
	require.NoError(t, repo.Save(context.Background(), outfit))

	handler := newTestHandler(t, repo, stubStore{})

	rec := httptest.NewRecorder()
	handler.HandleTryOn(rec, postForm("/api/tryon", url.Values{
		"outfit_ids":      {outfit.ID},
		"model_image_url": {"https://cdn.example.com/model.png"},
	}))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool `json:"success"`
		Renders []struct {
			OutfitID string `json:"outfit_id"`
			Success  bool   `json:"success"`
			Tier     string `json:"tier"`
			ImageURL string `json:"image_url"`
		} `json:"renders"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.Renders, 1)
	assert.Equal(t, outfit.ID, body.Renders[0].OutfitID)
	assert.True(t, body.Renders[0].Success)
	assert.Equal(t, string(entities.TierComposite), body.Renders[0].Tier)
	assert.Equal(t, "https://store.example.com/renders/object.jpg", body.Renders[0].ImageURL)
}

func TestHandleTryOnUnknownOutfit(t *testing.T) {
	handler := newTestHandler(t, memrepos.NewMemoryOutfitRepository(), nil)

	rec := httptest.NewRecorder()
	handler.HandleTryOn(rec, postForm("/api/tryon", url.Values{
		"outfit_ids":      {"outfit_missing"},
		"model_image_url": {"https://cdn.example.com/model.png"},
	}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleTryOnDefaultModelImage(t *testing.T) {
	repo := memrepos.NewMemoryOutfitRepository()
	outfit := entities.NewOutfitCandidate(
		entities.Garment{ID: "t1", Category: entities.GarmentTypeTop, ImageURL: "https://cdn.example.com/t1.png"},
		entities.Garment{ID: "b1", Category: entities.GarmentTypeBottom, ImageURL: "https://cdn.example.com/b1.png"},
		0.8, nil,
	)
	require.NoError(t, repo.Save(context.Background(), outfit))

	handler := newTestHandler(t, repo, nil)
	handler.defaultModelURL = "https://cdn.example.com/default-model.png"

	rec := httptest.NewRecorder()
	handler.HandleTryOn(rec, postForm("/api/tryon", url.Values{
		"outfit_ids": {outfit.ID},
	}))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleTryOnValidation(t *testing.T) {
	handler := newTestHandler(t, memrepos.NewMemoryOutfitRepository(), nil)

	rec := httptest.NewRecorder()
	handler.HandleTryOn(rec, postForm("/api/tryon", url.Values{
		"model_image_url": {"https://cdn.example.com/model.png"},
	}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	handler.HandleTryOn(rec, postForm("/api/tryon", url.Values{
		"outfit_ids": {"outfit_x"},
	}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleUploadModel(t *testing.T) {
	handler := newTestHandler(t, memrepos.NewMemoryOutfitRepository(), stubStore{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("model_image", "model.png")
	require.NoError(t, err)
	_, err = part.Write(fixtureImage(t).Data())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload-model", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	handler.HandleUploadModel(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Success bool   `json:"success"`
		URL     string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "https://store.example.com/models/object.jpg", body.URL)
}

func TestHandleUploadModelWithoutStore(t *testing.T) {
	handler := newTestHandler(t, memrepos.NewMemoryOutfitRepository(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/upload-model", nil)
	rec := httptest.NewRecorder()
	handler.HandleUploadModel(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	handler := newTestHandler(t, memrepos.NewMemoryOutfitRepository(), nil)

	rec := httptest.NewRecorder()
	handler.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status        string          `json:"status"`
		Collaborators map[string]bool `json:"collaborators"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.False(t, body.Collaborators["judge"])
}
