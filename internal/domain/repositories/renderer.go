package repositories

import (
	"context"
	"errors"

	"github.com/kabs31/outfit-planner/internal/domain/entities"
	"github.com/kabs31/outfit-planner/internal/domain/valueobjects"
)

// ErrRateLimited marks a backend refusal that a later retry may clear.
// Adapters wrap quota and 429 responses with it; the pipeline backs off
// and retries only on this error.
var ErrRateLimited = errors.New("render backend rate limited")

// GenerativeRenderer applies a single garment to a base image. The two-pass
// tier chains two applications, feeding the first pass's output back in as
// the base.
type GenerativeRenderer interface {
	ApplyGarment(ctx context.Context, base, garment *valueobjects.ImageData, region entities.BodyRegion) (*valueobjects.ImageData, error)

	// RateLimited reports whether the backend enforces a shared rate
	// limit; the batch orchestrator serializes renders when it does.
	RateLimited() bool
}

// SinglePassInput carries both addressing shapes a secondary backend may
// need: raw bytes for synchronous predict-style backends and a fetchable
// URL for job-submitting backends.
type SinglePassInput struct {
	ModelImage    *valueobjects.ImageData
	ModelImageURL string
	GarmentImage  *valueobjects.ImageData
}

// SinglePassRenderer is the tier-2 backend: one submission producing one
// combined-outfit image. Async implementations poll to completion
// internally and surface only the terminal outcome.
type SinglePassRenderer interface {
	RenderOutfit(ctx context.Context, in SinglePassInput) (*valueobjects.ImageData, error)
}
