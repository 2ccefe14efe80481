package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kabs31/outfit-planner/internal/domain/entities"
	"github.com/kabs31/outfit-planner/internal/domain/repositories"
	"github.com/kabs31/outfit-planner/internal/domain/valueobjects"
	"github.com/kabs31/outfit-planner/internal/imaging"
)

// backgroundTolerance is the per-channel distance (16-bit space) under
// which a pixel counts as background in the local fallback.
const backgroundTolerance = 0x2800

// GarmentPreparer turns a garment image URL into a render-ready image:
// downloaded, background-extracted when possible, flattened onto white.
//
// Only the download and decode steps can fail. Segmentation failures fall
// through to the local corner-sampling extraction, and that in turn falls
// through to the raw image.
type GarmentPreparer struct {
	fetcher   repositories.ImageFetcher
	segmenter repositories.GarmentSegmenter
	store     repositories.ImageStore
	log       zerolog.Logger
}

// NewGarmentPreparer builds a preparer. segmenter and store may be nil;
// remote segmentation is skipped without them.
func NewGarmentPreparer(fetcher repositories.ImageFetcher, segmenter repositories.GarmentSegmenter, store repositories.ImageStore, log zerolog.Logger) *GarmentPreparer {
	return &GarmentPreparer{
		fetcher:   fetcher,
		segmenter: segmenter,
		store:     store,
		log:       log,
	}
}

func (p *GarmentPreparer) Prepare(ctx context.Context, imageURL string, garmentType entities.GarmentType) (*entities.PreparedGarment, error) {
	raw, err := p.fetcher.Fetch(ctx, imageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch garment image: %w", err)
	}

	decoded, err := raw.Decode()
	if err != nil {
		return nil, fmt.Errorf("decode garment image: %w", err)
	}

	prepared := &entities.PreparedGarment{Type: garmentType, Image: raw}

	if extracted, storedURL, ok := p.segmentRemotely(ctx, raw, garmentType); ok {
		prepared.Image = extracted
		prepared.Extracted = true
		prepared.StoredURL = storedURL
		return prepared, nil
	}

	extracted := imaging.AddWhiteBackground(imaging.RemoveBackground(decoded, backgroundTolerance))
	img, err := valueobjects.FromImage(extracted)
	if err != nil {
		// Local extraction is best-effort; keep the raw download.
		p.log.Warn().Err(err).Str("url", imageURL).Msg("local extraction failed, using raw image")
		return prepared, nil
	}

	prepared.Image = img
	prepared.Extracted = true
	return prepared, nil
}

// segmentRemotely uploads the raw image so the segmentation backend can
// fetch it, applies the returned mask and flattens onto white. Any failure
// reports ok=false and the caller falls back locally.
func (p *GarmentPreparer) segmentRemotely(ctx context.Context, raw *valueobjects.ImageData, garmentType entities.GarmentType) (*valueobjects.ImageData, string, bool) {
	if p.segmenter == nil || p.store == nil {
		return nil, "", false
	}

	storedURL, err := p.store.Upload(ctx, raw, "garments")
	if err != nil {
		p.log.Warn().Err(err).Msg("garment upload for segmentation failed")
		return nil, "", false
	}

	mask, err := p.segmenter.SegmentGarment(ctx, storedURL, garmentType)
	if err != nil {
		p.log.Warn().Err(err).Str("hint", garmentType.SegmentationHint()).Msg("segmentation failed, falling back to local extraction")
		return nil, "", false
	}

	garmentImg, err := raw.Decode()
	if err != nil {
		return nil, "", false
	}
	maskImg, err := mask.Decode()
	if err != nil {
		p.log.Warn().Err(err).Msg("segmentation mask undecodable")
		return nil, "", false
	}

	flattened := imaging.AddWhiteBackground(imaging.ApplyMask(garmentImg, maskImg))
	out, err := valueobjects.FromImage(flattened)
	if err != nil {
		return nil, "", false
	}
	return out, storedURL, true
}
