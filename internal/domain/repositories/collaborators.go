package repositories

import (
	"context"

	"github.com/kabs31/outfit-planner/internal/domain/entities"
	"github.com/kabs31/outfit-planner/internal/domain/valueobjects"
)

// CompatibilityJudge is the remote half of the compatibility oracle. It is
// allowed to fail; the oracle service absorbs failures into the keyword
// heuristic.
type CompatibilityJudge interface {
	// JudgeBatch evaluates up to the oracle's batch cap of pairs in one
	// request, returning one verdict per pair in input order.
	JudgeBatch(ctx context.Context, pairs []entities.DescriptorPair, contextText string) ([]entities.CompatibilityVerdict, error)
}

// PromptParser turns a natural-language outfit prompt into structured
// attributes. Implementations never fail; they degrade to keyword parsing.
type PromptParser interface {
	ParseOutfitPrompt(ctx context.Context, prompt string) entities.ParsedPrompt
}

// CatalogService fetches raw product records from one upstream catalog.
// Records are unfiltered and possibly gender-mismatched; retry policy is the
// adapter's own business.
type CatalogService interface {
	// Source is the provenance tag stamped on returned garments.
	Source() string
	SearchGarments(ctx context.Context, query string, gender string, category entities.GarmentType, limit int) ([]entities.Garment, error)
}

// GarmentSegmenter returns a grayscale mask isolating the garment in the
// image at a publicly fetchable URL.
type GarmentSegmenter interface {
	SegmentGarment(ctx context.Context, imageURL string, garmentType entities.GarmentType) (*valueobjects.ImageData, error)
}

// ImageFetcher downloads an image, trying alternate transport strategies
// before giving up.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) (*valueobjects.ImageData, error)
}

// ImageStore persists an image and returns a durable, publicly fetchable
// URL.
type ImageStore interface {
	Upload(ctx context.Context, image *valueobjects.ImageData, prefix string) (string, error)
}

// RemoteFetcher is an optional ImageStore capability: fetching a blocked
// remote URL by proxying it through the store.
type RemoteFetcher interface {
	FetchRemote(ctx context.Context, sourceURL string) (*valueobjects.ImageData, error)
}
