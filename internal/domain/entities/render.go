package entities

import (
	"time"

	"github.com/kabs31/outfit-planner/internal/domain/valueobjects"
)

// RenderTier identifies which strategy of the pipeline produced a result.
type RenderTier string

const (
	TierTwoPass    RenderTier = "two_pass_generative"
	TierSinglePass RenderTier = "single_pass_generative"
	TierComposite  RenderTier = "composite"
)

// JobStatus is the normalized state of an async render job.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// Terminal reports whether polling should stop.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobCancelled
}

// RenderResult is the final output of one outfit render. Exactly one tier
// produced it; a degraded two-pass result carries only the top garment.
type RenderResult struct {
	OutfitID   string
	Tier       RenderTier
	Image      *valueobjects.ImageData
	Degraded   bool
	ImageURL   string // durable URL when the caller uploaded the result
	RenderedAt time.Time
}

// NewRenderResult records a successful render at the given tier.
func NewRenderResult(outfitID string, tier RenderTier, image *valueobjects.ImageData, degraded bool) *RenderResult {
	return &RenderResult{
		OutfitID:   outfitID,
		Tier:       tier,
		Image:      image,
		Degraded:   degraded,
		RenderedAt: time.Now(),
	}
}

// RenderAttempt is the transient state of one render invocation. It exists
// only for the duration of the pipeline call and is never persisted.
type RenderAttempt struct {
	Tier    RenderTier
	Retries int
	LastErr error
}
