package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kabs31/outfit-planner/internal/application/services"
	"github.com/kabs31/outfit-planner/internal/application/usecases"
	"github.com/kabs31/outfit-planner/internal/domain/entities"
	"github.com/kabs31/outfit-planner/internal/domain/repositories"
	"github.com/kabs31/outfit-planner/internal/domain/valueobjects"
)

const maxFileSize = 10 * 1024 * 1024 // 10MB

// OutfitHandler exposes the browse and try-on use cases over HTTP.
type OutfitHandler struct {
	browseUseCase    *usecases.BrowseUseCase
	tryOnUseCase     *usecases.TryOnUseCase
	parameterService *services.ParameterService
	store            repositories.ImageStore
	defaultModelURL  string
	collaborators    map[string]bool
	log              zerolog.Logger
}

func NewOutfitHandler(
	browseUseCase *usecases.BrowseUseCase,
	tryOnUseCase *usecases.TryOnUseCase,
	parameterService *services.ParameterService,
	store repositories.ImageStore,
	defaultModelURL string,
	collaborators map[string]bool,
	log zerolog.Logger,
) *OutfitHandler {
	return &OutfitHandler{
		browseUseCase:    browseUseCase,
		tryOnUseCase:     tryOnUseCase,
		parameterService: parameterService,
		store:            store,
		defaultModelURL:  defaultModelURL,
		collaborators:    collaborators,
		log:              log,
	}
}

type garmentPayload struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency,omitempty"`
	ImageURL string  `json:"image_url"`
	BuyURL   string  `json:"buy_url,omitempty"`
	Brand    string  `json:"brand,omitempty"`
	Source   string  `json:"source,omitempty"`
}

type outfitPayload struct {
	ID         string         `json:"id"`
	Top        garmentPayload `json:"top"`
	Bottom     garmentPayload `json:"bottom"`
	TotalPrice float64        `json:"total_price"`
	MatchScore float64        `json:"match_score"`
	StyleTags  []string       `json:"style_tags,omitempty"`
}

type parsedPromptPayload struct {
	Mood      string   `json:"mood,omitempty"`
	Location  string   `json:"location,omitempty"`
	Occasion  string   `json:"occasion,omitempty"`
	Style     string   `json:"style,omitempty"`
	Colors    []string `json:"colors,omitempty"`
	Season    string   `json:"season,omitempty"`
	Formality string   `json:"formality,omitempty"`
}

type renderPayload struct {
	OutfitID  string `json:"outfit_id"`
	Success   bool   `json:"success"`
	Tier      string `json:"tier,omitempty"`
	Degraded  bool   `json:"degraded,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
	ImageData string `json:"image_data,omitempty"`
}

func (h *OutfitHandler) HandleBrowse(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	input := h.parameterService.ParseBrowseRequest(r)
	if input.Prompt == "" {
		h.sendError(w, "prompt is required", http.StatusBadRequest)
		return
	}

	output, err := h.browseUseCase.Execute(r.Context(), input)
	if err != nil {
		h.log.Error().Err(err).Str("prompt", input.Prompt).Msg("browse failed")
		status := http.StatusInternalServerError
		if strings.Contains(err.Error(), "not enough products") {
			status = http.StatusNotFound
		}
		h.sendError(w, fmt.Sprintf("could not build outfits: %v", err), status)
		return
	}

	outfits := make([]outfitPayload, len(output.Outfits))
	for i, outfit := range output.Outfits {
		outfits[i] = toOutfitPayload(outfit)
	}

	h.sendJSON(w, map[string]any{
		"success": true,
		"parsed":  toParsedPayload(output.Parsed),
		"outfits": outfits,
		"took_ms": time.Since(start).Milliseconds(),
	})
}

func (h *OutfitHandler) HandleTryOn(w http.ResponseWriter, r *http.Request) {
	input := h.parameterService.ParseTryOnRequest(r)
	if len(input.OutfitIDs) == 0 {
		h.sendError(w, "outfit_ids is required", http.StatusBadRequest)
		return
	}
	if input.ModelImageURL == "" {
		if h.defaultModelURL == "" {
			h.sendError(w, "model_image_url is required", http.StatusBadRequest)
			return
		}
		input.ModelImageURL = h.defaultModelURL
	}

	output, err := h.tryOnUseCase.Execute(r.Context(), input)
	if err != nil {
		h.log.Error().Err(err).Strs("outfit_ids", input.OutfitIDs).Msg("try-on failed")
		status := http.StatusInternalServerError
		if strings.Contains(err.Error(), "unknown outfit") {
			status = http.StatusNotFound
		}
		h.sendError(w, fmt.Sprintf("try-on failed: %v", err), status)
		return
	}

	renders := make([]renderPayload, len(output.Renders))
	for i, render := range output.Renders {
		renders[i] = toRenderPayload(render)
	}

	h.sendJSON(w, map[string]any{
		"success": true,
		"renders": renders,
	})
}

// HandleUploadModel accepts a model photo upload and returns the durable
// URL to pass into the try-on endpoint.
func (h *OutfitHandler) HandleUploadModel(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.sendError(w, "image storage is not configured", http.StatusServiceUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFileSize)
	if err := r.ParseMultipartForm(maxFileSize); err != nil {
		h.sendError(w, "image too large (10MB max)", http.StatusRequestEntityTooLarge)
		return
	}

	file, _, err := r.FormFile("model_image")
	if err != nil {
		h.sendError(w, "model_image file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.sendError(w, "failed to read uploaded image", http.StatusInternalServerError)
		return
	}

	image, err := valueobjects.NewImageData(data)
	if err != nil {
		h.sendError(w, "unsupported image format", http.StatusBadRequest)
		return
	}

	url, err := h.store.Upload(r.Context(), image, "models")
	if err != nil {
		h.log.Error().Err(err).Msg("model image upload failed")
		h.sendError(w, "failed to store image", http.StatusInternalServerError)
		return
	}

	h.sendJSON(w, map[string]any{"success": true, "url": url})
}

// HandleHealth reports which boundary collaborators are configured; a
// false value means that concern runs on its local fallback.
func (h *OutfitHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, map[string]any{
		"status":        "ok",
		"collaborators": h.collaborators,
	})
}

func toOutfitPayload(outfit entities.OutfitCandidate) outfitPayload {
	return outfitPayload{
		ID:         outfit.ID,
		Top:        toGarmentPayload(outfit.Top),
		Bottom:     toGarmentPayload(outfit.Bottom),
		TotalPrice: outfit.TotalPrice,
		MatchScore: outfit.MatchScore,
		StyleTags:  outfit.StyleTags,
	}
}

func toGarmentPayload(g entities.Garment) garmentPayload {
	return garmentPayload{
		ID:       g.ID,
		Name:     g.Name,
		Category: string(g.Category),
		Price:    g.Price,
		Currency: g.Currency,
		ImageURL: g.ImageURL,
		BuyURL:   g.BuyURL,
		Brand:    g.Brand,
		Source:   g.Source,
	}
}

func toParsedPayload(p entities.ParsedPrompt) parsedPromptPayload {
	return parsedPromptPayload{
		Mood:      p.Mood,
		Location:  p.Location,
		Occasion:  p.Occasion,
		Style:     p.Style,
		Colors:    p.Colors,
		Season:    p.Season,
		Formality: p.Formality,
	}
}

// toRenderPayload inlines the rendered image as a data URL only when no
// durable URL exists, keeping responses small when storage is configured.
func toRenderPayload(render usecases.OutfitRender) renderPayload {
	payload := renderPayload{OutfitID: render.Outfit.ID}
	if render.Result == nil {
		return payload
	}

	payload.Success = true
	payload.Tier = string(render.Result.Tier)
	payload.Degraded = render.Result.Degraded
	payload.ImageURL = render.Result.ImageURL
	if payload.ImageURL == "" && render.Result.Image != nil {
		payload.ImageData = render.Result.Image.DataURL()
	}
	return payload
}

func (h *OutfitHandler) sendJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store, max-age=0")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

func (h *OutfitHandler) sendError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
