package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/kabs31/outfit-planner/internal/config"
	"github.com/kabs31/outfit-planner/internal/domain/entities"
	"github.com/kabs31/outfit-planner/internal/domain/repositories"
	"github.com/kabs31/outfit-planner/internal/domain/valueobjects"
)

const replicateBaseURL = "https://api.replicate.com/v1"

// ReplicateSegmenter obtains a clothing segmentation mask from a Replicate
// model. The model returns three files; the second one is the mask.
type ReplicateSegmenter struct {
	token      string
	version    string
	baseURL    string
	tuning     config.RenderTuning
	httpClient *http.Client
	fetcher    repositories.ImageFetcher
	log        zerolog.Logger
}

func NewReplicateSegmenter(token, version string, tuning config.RenderTuning, fetcher repositories.ImageFetcher, log zerolog.Logger) *ReplicateSegmenter {
	return &ReplicateSegmenter{
		token:      token,
		version:    version,
		baseURL:    replicateBaseURL,
		tuning:     tuning,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		fetcher:    fetcher,
		log:        log,
	}
}

type replicatePrediction struct {
	ID     string   `json:"id"`
	Status string   `json:"status"`
	Output []string `json:"output"`
	Error  string   `json:"error,omitempty"`
}

func (s *ReplicateSegmenter) SegmentGarment(ctx context.Context, imageURL string, garmentType entities.GarmentType) (*valueobjects.ImageData, error) {
	payload := map[string]interface{}{
		"version": s.version,
		"input": map[string]interface{}{
			"image":    imageURL,
			"clothing": garmentType.SegmentationHint(),
		},
	}

	var prediction replicatePrediction
	if err := s.do(ctx, http.MethodPost, s.baseURL+"/predictions", payload, &prediction); err != nil {
		return nil, fmt.Errorf("create segmentation prediction: %w", err)
	}
	if prediction.ID == "" {
		return nil, fmt.Errorf("no prediction ID returned")
	}

	statusURL := fmt.Sprintf("%s/predictions/%s", s.baseURL, prediction.ID)
	for attempt := 1; attempt <= s.tuning.PollMaxAttempts; attempt++ {
		if terminal := replicateTerminal(prediction.Status); terminal {
			break
		}

		timer := time.NewTimer(s.tuning.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		if err := s.do(ctx, http.MethodGet, statusURL, nil, &prediction); err != nil {
			return nil, fmt.Errorf("poll prediction %s: %w", prediction.ID, err)
		}
	}

	if prediction.Status != "succeeded" {
		msg := prediction.Error
		if msg == "" {
			msg = prediction.Status
		}
		return nil, fmt.Errorf("segmentation prediction %s: %s", prediction.ID, msg)
	}

	// Output files: original, segmentation mask, overlay.
	if len(prediction.Output) < 2 {
		return nil, fmt.Errorf("unexpected segmentation output: %d files", len(prediction.Output))
	}

	mask, err := s.fetcher.Fetch(ctx, prediction.Output[1])
	if err != nil {
		return nil, fmt.Errorf("download segmentation mask: %w", err)
	}

	s.log.Debug().Str("hint", garmentType.SegmentationHint()).Msg("segmentation mask ready")
	return mask, nil
}

func (s *ReplicateSegmenter) do(ctx context.Context, method, url string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}
	return json.Unmarshal(respBody, out)
}

func replicateTerminal(status string) bool {
	return status == "succeeded" || status == "failed" || status == "canceled"
}
