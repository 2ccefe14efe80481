package external

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kabs31/outfit-planner/internal/config"
	"github.com/kabs31/outfit-planner/internal/domain/entities"
	"github.com/kabs31/outfit-planner/internal/domain/repositories"
	"github.com/kabs31/outfit-planner/internal/domain/valueobjects"
	"github.com/kabs31/outfit-planner/model"
)

const runPodBaseURL = "https://api.runpod.ai/v2"

// RunPodRenderer is the asynchronous secondary try-on backend: a
// serverless job submitted and polled to a terminal state. Callers see
// only the final outcome.
type RunPodRenderer struct {
	apiKey     string
	endpointID string
	baseURL    string
	tuning     config.RenderTuning
	httpClient *http.Client
	fetcher    repositories.ImageFetcher
	log        zerolog.Logger
}

func NewRunPodRenderer(apiKey, endpointID string, tuning config.RenderTuning, fetcher repositories.ImageFetcher, log zerolog.Logger) *RunPodRenderer {
	return &RunPodRenderer{
		apiKey:     apiKey,
		endpointID: endpointID,
		baseURL:    runPodBaseURL,
		tuning:     tuning,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		fetcher:    fetcher,
		log:        log,
	}
}

func (r *RunPodRenderer) RenderOutfit(ctx context.Context, in repositories.SinglePassInput) (*valueobjects.ImageData, error) {
	if in.GarmentImage == nil {
		return nil, fmt.Errorf("garment image is required")
	}

	modelRef := in.ModelImageURL
	if modelRef == "" {
		if in.ModelImage == nil {
			return nil, fmt.Errorf("model image is required")
		}
		modelRef = in.ModelImage.ToBase64()
	}

	jobID, err := r.submit(ctx, modelRef, in.GarmentImage)
	if err != nil {
		return nil, err
	}
	r.log.Info().Str("job_id", jobID).Msg("try-on job submitted")

	return r.poll(ctx, jobID)
}

func (r *RunPodRenderer) submit(ctx context.Context, modelRef string, garment *valueobjects.ImageData) (string, error) {
	payload := model.RunPodJobRequest{
		Input: model.RunPodJobInput{
			ModelImage:   modelRef,
			GarmentImage: garment.ToBase64(),
			Category:     "upper_body",
		},
	}

	var resp model.RunPodJobResponse
	if err := r.do(ctx, http.MethodPost, fmt.Sprintf("%s/%s/run", r.baseURL, r.endpointID), payload, &resp); err != nil {
		return "", fmt.Errorf("submit try-on job: %w", err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("no job ID returned")
	}
	return resp.ID, nil
}

// poll checks the job every PollInterval up to PollMaxAttempts times and
// returns the output image once the job completes.
func (r *RunPodRenderer) poll(ctx context.Context, jobID string) (*valueobjects.ImageData, error) {
	statusURL := fmt.Sprintf("%s/%s/status/%s", r.baseURL, r.endpointID, jobID)

	for attempt := 1; attempt <= r.tuning.PollMaxAttempts; attempt++ {
		timer := time.NewTimer(r.tuning.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		var resp model.RunPodJobResponse
		if err := r.do(ctx, http.MethodGet, statusURL, nil, &resp); err != nil {
			return nil, fmt.Errorf("poll job %s: %w", jobID, err)
		}

		status := normalizeJobStatus(resp.Status)
		r.log.Debug().Str("job_id", jobID).Str("status", string(status)).
			Int("attempt", attempt).Int("max", r.tuning.PollMaxAttempts).Msg("job status")

		if !status.Terminal() {
			continue
		}
		if status != entities.JobCompleted {
			msg := resp.Error
			if msg == "" {
				msg = "unknown error"
			}
			return nil, fmt.Errorf("job %s ended %s: %s", jobID, status, msg)
		}
		return r.decodeOutput(ctx, resp.Output)
	}

	return nil, fmt.Errorf("job %s timed out after %d polls", jobID, r.tuning.PollMaxAttempts)
}

func (r *RunPodRenderer) decodeOutput(ctx context.Context, raw json.RawMessage) (*valueobjects.ImageData, error) {
	var output model.RunPodJobOutput
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &output); err != nil {
			return nil, fmt.Errorf("decode job output: %w", err)
		}
	}

	if output.Image != "" {
		imageBytes, err := base64.StdEncoding.DecodeString(output.Image)
		if err != nil {
			return nil, fmt.Errorf("decode output image: %w", err)
		}
		return valueobjects.NewImageData(imageBytes)
	}
	if output.ImageURL != "" && r.fetcher != nil {
		return r.fetcher.Fetch(ctx, output.ImageURL)
	}

	return nil, fmt.Errorf("no image in completed job output")
}

func (r *RunPodRenderer) do(ctx context.Context, method, url string, body, out interface{}) error {
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
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}
	return json.Unmarshal(respBody, out)
}

// normalizeJobStatus maps the endpoint's upper-case states onto ours.
func normalizeJobStatus(status string) entities.JobStatus {
	switch strings.ToUpper(status) {
	case "COMPLETED":
		return entities.JobCompleted
	case "FAILED":
		return entities.JobFailed
	case "CANCELLED":
		return entities.JobCancelled
	case "IN_PROGRESS", "RUNNING":
		return entities.JobRunning
	default:
		return entities.JobQueued
	}
}
