package external

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"cloud.google.com/go/vertexai/genai"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"

	"github.com/kabs31/outfit-planner/internal/domain/repositories"
	"github.com/kabs31/outfit-planner/internal/domain/valueobjects"
	"github.com/kabs31/outfit-planner/model"
)

// VertexRenderer is the synchronous secondary try-on backend: one predict
// call against the Virtual Try-On publisher model. It speaks either the
// Vertex SDK or the raw REST predict endpoint.
type VertexRenderer struct {
	pool      repositories.VertexAIClientPool
	projectID string
	location  string
	vtoModel  string
	useSDK    bool
	log       zerolog.Logger
}

func NewVertexRenderer(pool repositories.VertexAIClientPool, projectID, location, vtoModel string, useSDK bool, log zerolog.Logger) *VertexRenderer {
	return &VertexRenderer{
		pool:      pool,
		projectID: projectID,
		location:  location,
		vtoModel:  vtoModel,
		useSDK:    useSDK,
		log:       log,
	}
}

func (r *VertexRenderer) RenderOutfit(ctx context.Context, in repositories.SinglePassInput) (*valueobjects.ImageData, error) {
	if in.ModelImage == nil || in.GarmentImage == nil {
		return nil, fmt.Errorf("model and garment images are required")
	}
	if r.useSDK {
		return r.renderWithSDK(ctx, in)
	}
	return r.renderWithREST(ctx, in)
}

func (r *VertexRenderer) renderWithSDK(ctx context.Context, in repositories.SinglePassInput) (*valueobjects.ImageData, error) {
	client, err := r.pool.GetVertexAIClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get VertexAI client: %w", err)
	}

	person, err := in.ModelImage.ToJPEG()
	if err != nil {
		return nil, fmt.Errorf("failed to convert person image: %w", err)
	}
	garment, err := in.GarmentImage.ToJPEG()
	if err != nil {
		return nil, fmt.Errorf("failed to convert garment image: %w", err)
	}

	vtoModel := client.GenerativeModel(r.vtoModel)
	vtoModel.SetTemperature(0.4)
	vtoModel.SetTopK(32)
	vtoModel.SetTopP(1)
	vtoModel.SetMaxOutputTokens(2048)
	vtoModel.ResponseMIMEType = "image/jpeg"

	prompt := []genai.Part{
		genai.Text("person:"),
		genai.ImageData("image/jpeg", person.Data()),
		genai.Text("garment:"),
		genai.ImageData("image/jpeg", garment.Data()),
	}

	resp, err := vtoModel.GenerateContent(ctx, prompt...)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates in response")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, fmt.Errorf("no content in response")
	}

	for _, part := range candidate.Content.Parts {
		if blob, ok := part.(genai.Blob); ok {
			if blob.MIMEType == "image/jpeg" || blob.MIMEType == "image/png" {
				return valueobjects.NewImageData(blob.Data)
			}
		}
	}

	return nil, fmt.Errorf("no image found in response")
}

func (r *VertexRenderer) renderWithREST(ctx context.Context, in repositories.SinglePassInput) (*valueobjects.ImageData, error) {
	accessToken, err := r.getAccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}

	apiRequest := map[string]interface{}{
		"instances": []map[string]interface{}{
			{
				"personImage": map[string]interface{}{
					"image": map[string]interface{}{
						"bytesBase64Encoded": in.ModelImage.ToBase64(),
					},
				},
				"productImages": []map[string]interface{}{
					{
						"image": map[string]interface{}{
							"bytesBase64Encoded": in.GarmentImage.ToBase64(),
						},
					},
				},
			},
		},
		"parameters": map[string]interface{}{
			"sampleCount": 1,
			"outputOptions": map[string]interface{}{
				"mimeType": "image/png",
			},
		},
	}

	reqBody, err := json.Marshal(apiRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("https://%s-aiplatform.googleapis.com/v1/projects/%s/locations/%s/publishers/google/models/%s:predict",
		r.location, r.projectID, r.location, r.vtoModel)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 300 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var predResp model.VirtualTryOnResponse
	if err := json.Unmarshal(respBody, &predResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(predResp.Predictions) == 0 {
		return nil, fmt.Errorf("no predictions in response")
	}

	for _, prediction := range predResp.Predictions {
		if prediction.BytesBase64Encoded == "" {
			continue
		}
		imageBytes, err := base64.StdEncoding.DecodeString(prediction.BytesBase64Encoded)
		if err != nil {
			continue
		}
		imageData, err := valueobjects.NewImageData(imageBytes)
		if err != nil {
			continue
		}
		return imageData, nil
	}

	return nil, fmt.Errorf("no valid image data found in response")
}

func (r *VertexRenderer) getAccessToken(ctx context.Context) (string, error) {
	creds, err := google.FindDefaultCredentials(ctx,
		"https://www.googleapis.com/auth/cloud-platform")
	if err != nil {
		return "", fmt.Errorf("failed to find default credentials: %w", err)
	}

	token, err := creds.TokenSource.Token()
	if err != nil {
		return "", fmt.Errorf("failed to get access token: %w", err)
	}

	return token.AccessToken, nil
}
